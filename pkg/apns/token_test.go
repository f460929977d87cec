package apns_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusufsyaifudin/ngendika/pkg/apns"
)

func generateECPrivateKeyPEM(t *testing.T) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	block := &pem.Block{Type: "EC PRIVATE KEY", Bytes: der}
	return pem.EncodeToMemory(block)
}

func TestNewTokenSource(t *testing.T) {
	t.Run("invalid pem", func(t *testing.T) {
		_, err := apns.NewTokenSource("team", "key", []byte("not a pem"))
		assert.Error(t, err)
	})

	t.Run("valid pem", func(t *testing.T) {
		pemBytes := generateECPrivateKeyPEM(t)

		src, err := apns.NewTokenSource("team-1", "key-1", pemBytes)
		require.NoError(t, err)
		assert.NotNil(t, src)
	})
}

func TestTokenSource_Token(t *testing.T) {
	pemBytes := generateECPrivateKeyPEM(t)

	src, err := apns.NewTokenSource("team-1", "key-1", pemBytes)
	require.NoError(t, err)

	token, err := src.Token()
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	// cached token should be reused on the next call.
	token2, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, token, token2)
}
