// Package randhex generates random hex tokens for API secrets, bootstrap
// passwords, admin paths and session secrets.
package randhex

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// String returns a random hex string with the given number of hex
// characters (n must be even).
func String(n int) (string, error) {
	buf := make([]byte, n/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
