package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yusufsyaifudin/ngendika/internal/logic/apierr"
	"github.com/yusufsyaifudin/ngendika/pkg/httpresp"
)

type SecretLookup func(r *http.Request, appID string) (secret string, ok bool, err error)

type APIKeyConfig struct {
	Enabled bool
	Lookup  SecretLookup
}

// APIKeyAuth implements §4.F.6: accept Authorization: Bearer <secret> or
// X-Api-Key: <secret>, resolve the app id from body appId or X-App-Id,
// compare in constant time, and stash the resolved app id.
func APIKeyAuth(cfg APIKeyConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			appID := r.Header.Get("X-App-Id")
			if appID == "" {
				appID = bodyAppID(RawBody(r.Context()))
			}
			if appID == "" {
				httpresp.WriteError(w, apierr.BadRequest("appId is required"))
				return
			}

			key := bearerToken(r)
			if key == "" {
				key = r.Header.Get("X-Api-Key")
			}
			if key == "" {
				httpresp.WriteError(w, apierr.Unauthorized("missing API key"))
				return
			}

			secret, ok, err := cfg.Lookup(r, appID)
			if err != nil {
				httpresp.WriteError(w, apierr.Internal("credential lookup failed"))
				return
			}
			if !ok || subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
				httpresp.WriteError(w, apierr.Unauthorized("invalid API key"))
				return
			}

			next.ServeHTTP(w, withResolvedAppID(r, appID))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimPrefix(auth, prefix)
	}
	return ""
}

func bodyAppID(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	var probe struct {
		AppID string `json:"appId"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}

	return probe.AppID
}
