// Package scrypthash derives and verifies admin passwords using scrypt,
// encoding as "scrypt:<salt_hex>:<dk_hex>" per the admin user data model.
package scrypthash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	saltLen = 16
	keyLen  = 64
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

func Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read random salt: %w", err)
	}

	dk, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return "", fmt.Errorf("derive scrypt key: %w", err)
	}

	return fmt.Sprintf("scrypt:%s:%s", hex.EncodeToString(salt), hex.EncodeToString(dk)), nil
}

func Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 3 || parts[0] != "scrypt" {
		return false, fmt.Errorf("malformed scrypt hash")
	}

	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}

	want, err := hex.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("decode derived key: %w", err)
	}

	got, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, len(want))
	if err != nil {
		return false, fmt.Errorf("derive scrypt key: %w", err)
	}

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
