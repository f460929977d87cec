package middleware_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yusufsyaifudin/ngendika/transport/restapi/middleware"
)

func sign(secret, method, path, timestamp, nonce, body string) string {
	canonical := fmt.Sprintf("%s\n%s\n%s\n%s\n%s", method, path, timestamp, nonce, body)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

func alwaysConsume(consumed bool, err error) middleware.NonceConsumer {
	return func(ctx context.Context, appID, nonce string, now, expiresAt time.Time) (bool, error) {
		return consumed, err
	}
}

func newSignedRequest(t *testing.T, secret, body string) *http.Request {
	t.Helper()
	req := withCapturedBody(t, http.MethodPost, "/v1/notify", body)

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	nonce := "nonce-1"
	sig := sign(secret, http.MethodPost, "/v1/notify", ts, nonce, body)

	req.Header.Set("X-Timestamp", ts)
	req.Header.Set("X-Nonce", nonce)
	req.Header.Set("X-Signature", sig)

	return req
}

func TestHMACVerify(t *testing.T) {
	t.Run("disabled passes through", func(t *testing.T) {
		handler := middleware.HMACVerify(middleware.HMACConfig{Enabled: false})(okHandler())

		req := httptest.NewRequest(http.MethodPost, "/v1/notify", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing headers rejected", func(t *testing.T) {
		handler := middleware.HMACVerify(middleware.HMACConfig{Enabled: true})(okHandler())

		req := httptest.NewRequest(http.MethodPost, "/v1/notify", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid signature accepted and nonce consumed", func(t *testing.T) {
		body := `{"appId":"app-1"}`
		req := newSignedRequest(t, "secret-abc", body)

		handler := middleware.HMACVerify(middleware.HMACConfig{
			Enabled: true,
			Lookup:  fixedLookup("secret-abc", true, nil),
			Consume: alwaysConsume(true, nil),
		})(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bad signature rejected", func(t *testing.T) {
		body := `{"appId":"app-1"}`
		req := newSignedRequest(t, "wrong-secret", body)

		handler := middleware.HMACVerify(middleware.HMACConfig{
			Enabled: true,
			Lookup:  fixedLookup("secret-abc", true, nil),
			Consume: alwaysConsume(true, nil),
		})(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("replayed nonce rejected", func(t *testing.T) {
		body := `{"appId":"app-1"}`
		req := newSignedRequest(t, "secret-abc", body)

		handler := middleware.HMACVerify(middleware.HMACConfig{
			Enabled: true,
			Lookup:  fixedLookup("secret-abc", true, nil),
			Consume: alwaysConsume(false, nil),
		})(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("stale timestamp rejected", func(t *testing.T) {
		body := `{"appId":"app-1"}`
		req := withCapturedBody(t, http.MethodPost, "/v1/notify", body)

		ts := strconv.FormatInt(time.Now().Add(-time.Hour).UnixMilli(), 10)
		nonce := "nonce-1"
		sig := sign("secret-abc", http.MethodPost, "/v1/notify", ts, nonce, body)
		req.Header.Set("X-Timestamp", ts)
		req.Header.Set("X-Nonce", nonce)
		req.Header.Set("X-Signature", sig)

		handler := middleware.HMACVerify(middleware.HMACConfig{
			Enabled: true,
			Window:  5 * time.Minute,
			Lookup:  fixedLookup("secret-abc", true, nil),
			Consume: alwaysConsume(true, nil),
		})(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown app rejected", func(t *testing.T) {
		body := `{"appId":"app-1"}`
		req := newSignedRequest(t, "secret-abc", body)

		handler := middleware.HMACVerify(middleware.HMACConfig{
			Enabled: true,
			Lookup:  fixedLookup("", false, nil),
			Consume: alwaysConsume(true, nil),
		})(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("nonce too long rejected", func(t *testing.T) {
		body := `{"appId":"app-1"}`
		req := withCapturedBody(t, http.MethodPost, "/v1/notify", body)

		longNonce := make([]byte, 200)
		for i := range longNonce {
			longNonce[i] = 'a'
		}

		ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
		req.Header.Set("X-Timestamp", ts)
		req.Header.Set("X-Nonce", string(longNonce))
		req.Header.Set("X-Signature", "irrelevant")

		handler := middleware.HMACVerify(middleware.HMACConfig{
			Enabled: true,
			Lookup:  fixedLookup("secret-abc", true, nil),
			Consume: alwaysConsume(true, nil),
		})(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
