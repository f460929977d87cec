package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yusufsyaifudin/ngendika/internal/logic/apierr"
	"github.com/yusufsyaifudin/ngendika/pkg/httpresp"
)

type NonceConsumer func(ctx context.Context, appID, nonce string, now, expiresAt time.Time) (bool, error)

type HMACConfig struct {
	Enabled bool
	Window  time.Duration // freshness window, default 300s
	Lookup  SecretLookup
	Consume NonceConsumer
}

const maxNonceLen = 128

// HMACVerify implements §4.F.7: verify X-Timestamp/X-Nonce/X-Signature
// against the canonical string METHOD\nPATH\nTIMESTAMP\nNONCE\nRAW_BODY,
// then atomically consume the nonce.
func HMACVerify(cfg HMACConfig) func(http.Handler) http.Handler {
	window := cfg.Window
	if window <= 0 {
		window = 300 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			timestampHdr := r.Header.Get("X-Timestamp")
			nonce := r.Header.Get("X-Nonce")
			signature := r.Header.Get("X-Signature")

			if timestampHdr == "" || nonce == "" || signature == "" {
				httpresp.WriteError(w, apierr.Unauthorized("missing HMAC headers"))
				return
			}

			nonce = strings.TrimSpace(nonce)
			if len(nonce) > maxNonceLen {
				httpresp.WriteError(w, apierr.Unauthorized("nonce too long"))
				return
			}

			timestampMs, err := strconv.ParseInt(timestampHdr, 10, 64)
			if err != nil {
				httpresp.WriteError(w, apierr.Unauthorized("malformed X-Timestamp"))
				return
			}

			timestamp := time.UnixMilli(timestampMs)
			now := time.Now()
			if abs(now.Sub(timestamp)) > window {
				httpresp.WriteError(w, apierr.Unauthorized("timestamp outside allowed window"))
				return
			}

			appID, ok := ResolvedAppID(r.Context())
			if !ok {
				appID = bodyAppID(RawBody(r.Context()))
			}
			if appID == "" {
				httpresp.WriteError(w, apierr.BadRequest("appId is required"))
				return
			}

			secret, ok, err := cfg.Lookup(r, appID)
			if err != nil {
				httpresp.WriteError(w, apierr.Internal("credential lookup failed"))
				return
			}
			if !ok {
				httpresp.WriteError(w, apierr.Unauthorized("unknown or disabled app"))
				return
			}

			canonical := canonicalString(r.Method, r.URL.Path, timestampHdr, nonce, RawBody(r.Context()))
			expected := signHMAC(secret, canonical)

			if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
				httpresp.WriteError(w, apierr.Unauthorized("bad signature"))
				return
			}

			expiresAt := timestamp.Add(window)
			consumed, err := cfg.Consume(r.Context(), appID, nonce, now, expiresAt)
			if err != nil {
				httpresp.WriteError(w, apierr.Internal("nonce store failure"))
				return
			}
			if !consumed {
				httpresp.WriteError(w, apierr.Unauthorized("Nonce already used"))
				return
			}

			next.ServeHTTP(w, withResolvedAppID(r, appID))
		})
	}
}

func canonicalString(method, path, timestamp, nonce string, rawBody []byte) string {
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", method, path, timestamp, nonce, rawBody)
}

func signHMAC(secret, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
