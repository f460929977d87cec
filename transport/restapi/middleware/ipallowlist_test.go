package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yusufsyaifudin/ngendika/transport/restapi/middleware"
)

func TestIPAllowlist(t *testing.T) {
	t.Run("disabled passes anyone", func(t *testing.T) {
		handler := middleware.IPAllowlist(middleware.IPAllowlistConfig{Enabled: false})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("allowed IP passes", func(t *testing.T) {
		handler := middleware.IPAllowlist(middleware.IPAllowlistConfig{
			Enabled: true,
			Allowed: map[string]struct{}{"10.0.0.1": {}},
		})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("disallowed IP rejected", func(t *testing.T) {
		handler := middleware.IPAllowlist(middleware.IPAllowlistConfig{
			Enabled: true,
			Allowed: map[string]struct{}{"10.0.0.1": {}},
		})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("trust proxy uses X-Forwarded-For", func(t *testing.T) {
		handler := middleware.IPAllowlist(middleware.IPAllowlistConfig{
			Enabled:    true,
			TrustProxy: true,
			Allowed:    map[string]struct{}{"1.2.3.4": {}},
		})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.2")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ipv4-mapped ipv6 normalized", func(t *testing.T) {
		handler := middleware.IPAllowlist(middleware.IPAllowlistConfig{
			Enabled: true,
			Allowed: map[string]struct{}{"10.0.0.1": {}},
		})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "[::ffff:10.0.0.1]:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
