package middleware_test

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yusufsyaifudin/ngendika/transport/restapi/middleware"
)

func TestRequireHTTPS(t *testing.T) {
	t.Run("disabled passes plain http", func(t *testing.T) {
		handler := middleware.RequireHTTPS(middleware.HTTPSConfig{Enabled: false})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("enabled rejects plain http", func(t *testing.T) {
		handler := middleware.RequireHTTPS(middleware.HTTPSConfig{Enabled: true})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("trust proxy honors forwarded proto", func(t *testing.T) {
		handler := middleware.RequireHTTPS(middleware.HTTPSConfig{Enabled: true, TrustProxy: true})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-Proto", "https, http")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("trust proxy rejects non-https forwarded proto", func(t *testing.T) {
		handler := middleware.RequireHTTPS(middleware.HTTPSConfig{Enabled: true, TrustProxy: true})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-Proto", "http")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("enabled passes real tls connection", func(t *testing.T) {
		handler := middleware.RequireHTTPS(middleware.HTTPSConfig{Enabled: true})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.TLS = &tls.ConnectionState{}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
