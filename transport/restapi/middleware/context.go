// Package middleware implements the fixed-order admission pipeline:
// security headers, HTTPS enforcement, IP allowlist, rate limiting, JSON
// body capture, API-key auth, and HMAC+nonce verification. Each stage is
// a plain func(http.Handler) http.Handler composed in router.go the same
// way the corpus chains its own chi middlewares.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey int

const (
	ctxRawBody ctxKey = iota
	ctxResolvedAppID
)

// RawBody returns the exact bytes the body-parse stage captured, before
// any JSON reshaping, for the HMAC stage's byte-exact verification.
func RawBody(ctx context.Context) []byte {
	body, _ := ctx.Value(ctxRawBody).([]byte)
	return body
}

func withRawBody(r *http.Request, body []byte) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxRawBody, body))
}

// ResolvedAppID returns the app id the API-key stage stashed on the
// request, if any.
func ResolvedAppID(ctx context.Context) (string, bool) {
	appID, ok := ctx.Value(ctxResolvedAppID).(string)
	return appID, ok
}

func withResolvedAppID(r *http.Request, appID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxResolvedAppID, appID))
}
