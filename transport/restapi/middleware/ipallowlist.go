package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/yusufsyaifudin/ngendika/internal/logic/apierr"
	"github.com/yusufsyaifudin/ngendika/pkg/httpresp"
)

type IPAllowlistConfig struct {
	Enabled     bool
	TrustProxy  bool
	Allowed     map[string]struct{}
}

// IPAllowlist implements §4.F.3: normalize IPv4-mapped IPv6 addresses to
// IPv4, then exact-match against the allowed set.
func IPAllowlist(cfg IPAllowlistConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r, cfg.TrustProxy)
			if _, ok := cfg.Allowed[ip]; !ok {
				httpresp.WriteError(w, apierr.Forbidden("IP not allowed"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request, trustProxy bool) string {
	raw := r.RemoteAddr

	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			raw = strings.TrimSpace(strings.Split(fwd, ",")[0])
		}
	}

	host, _, err := net.SplitHostPort(raw)
	if err != nil {
		host = raw
	}

	return normalizeIP(host)
}

// normalizeIP maps an IPv4-mapped IPv6 address (::ffff:a.b.c.d) to its
// plain IPv4 form.
func normalizeIP(host string) string {
	ip := net.ParseIP(host)
	if ip == nil {
		return host
	}

	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}

	return ip.String()
}
