package apierr_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yusufsyaifudin/ngendika/internal/logic/apierr"
)

func TestError_Error(t *testing.T) {
	t.Run("without details", func(t *testing.T) {
		err := apierr.New(http.StatusBadRequest, "bad input")
		assert.Equal(t, "bad input", err.Error())
	})

	t.Run("with details", func(t *testing.T) {
		err := apierr.Wrap(http.StatusBadRequest, "bad input", "field appId is required")
		assert.Equal(t, "bad input: field appId is required", err.Error())
	})
}

func TestConstructors(t *testing.T) {
	cases := []struct {
		name   string
		err    *apierr.Error
		status int
	}{
		{"BadRequest", apierr.BadRequest("x"), http.StatusBadRequest},
		{"Unauthorized", apierr.Unauthorized("x"), http.StatusUnauthorized},
		{"Forbidden", apierr.Forbidden("x"), http.StatusForbidden},
		{"NotFound", apierr.NotFound("x"), http.StatusNotFound},
		{"TooManyRequests", apierr.TooManyRequests("x"), http.StatusTooManyRequests},
		{"Internal", apierr.Internal("x"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.Status)
		})
	}
}

func TestAs(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, apierr.As(nil))
	})

	t.Run("already an apierr.Error", func(t *testing.T) {
		original := apierr.BadRequest("boom")
		assert.Same(t, original, apierr.As(original))
	})

	t.Run("unknown error falls back to 500", func(t *testing.T) {
		got := apierr.As(assertErr{})
		assert.Equal(t, http.StatusInternalServerError, got.Status)
	})
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
