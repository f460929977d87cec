package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	v *validator.Validate

	bundleIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

func init() {
	v = validator.New()
	_ = v.RegisterValidation("bundleid", validateBundleID)
}

// validateBundleID enforces the app id shape apps are keyed by: only
// [A-Za-z0-9._-] characters, and at least one '.' (the reverse-DNS bundle
// id convention).
func validateBundleID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return bundleIDPattern.MatchString(value) && strings.Contains(value, ".")
}

func Validate(i interface{}) error {
	if i == nil {
		return fmt.Errorf("data to validate is nil")
	}

	return v.Struct(i)
}
