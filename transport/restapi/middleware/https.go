package middleware

import (
	"net/http"
	"strings"

	"github.com/yusufsyaifudin/ngendika/internal/logic/apierr"
	"github.com/yusufsyaifudin/ngendika/pkg/httpresp"
)

type HTTPSConfig struct {
	Enabled     bool
	TrustProxy  bool
}

// RequireHTTPS implements §4.F.2: pass when the transport is TLS, or when
// trust-proxy is enabled and the first token of X-Forwarded-Proto is
// "https"; otherwise 403.
func RequireHTTPS(cfg HTTPSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			if r.TLS != nil {
				next.ServeHTTP(w, r)
				return
			}

			if cfg.TrustProxy {
				proto := r.Header.Get("X-Forwarded-Proto")
				first := strings.TrimSpace(strings.Split(proto, ",")[0])
				if strings.EqualFold(first, "https") {
					next.ServeHTTP(w, r)
					return
				}
			}

			httpresp.WriteError(w, apierr.Forbidden("HTTPS required"))
		})
	}
}
