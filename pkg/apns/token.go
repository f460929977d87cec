package apns

import (
	"crypto/ecdsa"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenRefresh is how long a signed provider token is reused before being
// regenerated. APNs tokens are valid for up to 60 minutes.
const tokenRefresh = 55 * time.Minute

// TokenSource lazily signs and caches the ES256 bearer token APNs expects
// on every HTTP/2 request, per tenant.
type TokenSource struct {
	teamID string
	keyID  string
	key    *ecdsa.PrivateKey

	mu        sync.Mutex
	cached    string
	signedAt  time.Time
}

func NewTokenSource(teamID, keyID string, pemKey []byte) (*TokenSource, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("parse apns ec private key: %w", err)
	}

	return &TokenSource{teamID: teamID, keyID: keyID, key: key}, nil
}

func (t *TokenSource) Token() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cached != "" && time.Since(t.signedAt) < tokenRefresh {
		return t.cached, nil
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": t.teamID,
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = t.keyID

	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign apns provider token: %w", err)
	}

	t.cached = signed
	t.signedAt = now

	return signed, nil
}
