package restapi

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"

	"github.com/yusufsyaifudin/ngendika/assets"
	"github.com/yusufsyaifudin/ngendika/internal/logic/ratelimit"
	"github.com/yusufsyaifudin/ngendika/internal/svc/apnspool"
	"github.com/yusufsyaifudin/ngendika/internal/svc/credstore"
	"github.com/yusufsyaifudin/ngendika/internal/svc/fcmpool"
	"github.com/yusufsyaifudin/ngendika/internal/svc/noncestore"
	"github.com/yusufsyaifudin/ngendika/pkg/httpresp"
	"github.com/yusufsyaifudin/ngendika/pkg/tracer"
	"github.com/yusufsyaifudin/ngendika/pkg/validator"
	"github.com/yusufsyaifudin/ngendika/transport/restapi/handlernotify"
	"github.com/yusufsyaifudin/ngendika/transport/restapi/middleware"
)

type Config struct {
	AppServiceName string `validate:"required"`
	AppVersion     string `validate:"required"`

	CredStore   credstore.Repo      `validate:"required"`
	NonceStore  noncestore.Repo     `validate:"required"`
	APNSPool    *apnspool.Pool      `validate:"required"`
	FCMPool     *fcmpool.Pool       `validate:"required"`
	RateLimiter *ratelimit.Limiter  `validate:"required"`

	RequireHTTPS   bool
	TrustProxy     bool
	RequireAuth    bool
	RequireHMAC    bool
	IPAllowlist    map[string]struct{}
	HMACWindow     time.Duration
	BodyLimitBytes int64
}

type DefaultHTTP struct {
	router *chi.Mux
}

func NewHTTPTransport(cfg Config) (*DefaultHTTP, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("http transport cfg error: %w", err)
	}

	handlerNotify, err := handlernotify.NewHandler(handlernotify.Config{
		CredStore: cfg.CredStore,
		APNSPool:  cfg.APNSPool,
		FCMPool:   cfg.FCMPool,
	})
	if err != nil {
		return nil, err
	}

	bodyLimit := cfg.BodyLimitBytes
	if bodyLimit <= 0 {
		bodyLimit = 256 * 1024
	}

	secretLookup := func(r *http.Request, appID string) (string, bool, error) {
		return cfg.CredStore.GetApiSecret(r.Context(), appID)
	}

	router := chi.NewRouter()

	skip := func(r *http.Request) bool {
		switch strings.TrimSpace(path.Clean(r.URL.Path)) {
		case "/health", "/ping":
			return true
		}

		return false
	}

	router.Use(chimw.StripSlashes)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Api-Key", "X-App-Id", "X-Timestamp", "X-Nonce", "X-Signature"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Use(func(next http.Handler) http.Handler {
		return tracer.Middleware(tracer.MiddlewareConfig{
			TracerName:     "github.com/yusufsyaifudin/ngendika",
			ServiceName:    assets.ServiceName,
			SkipFunc:       skip,
			TracerProvider: otel.GetTracerProvider(),
			TextPropagator: otel.GetTextMapPropagator(),
		}, next)
	})

	router.Use(func(next http.Handler) http.Handler {
		return requestLogger(skip, next)
	})

	router.Use(middleware.SecurityHeaders)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpresp.Write(w, http.StatusOK, httpresp.Success("", map[string]string{"status": "ok"}))
	})

	router.Route("/v1/notify", func(r chi.Router) {
		r.Use(middleware.RequireHTTPS(middleware.HTTPSConfig{
			Enabled:    cfg.RequireHTTPS,
			TrustProxy: cfg.TrustProxy,
		}))

		r.Use(middleware.IPAllowlist(middleware.IPAllowlistConfig{
			Enabled:    len(cfg.IPAllowlist) > 0,
			TrustProxy: cfg.TrustProxy,
			Allowed:    cfg.IPAllowlist,
		}))

		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: cfg.RateLimiter,
			KeyFunc: func(r *http.Request) string {
				if appID, ok := middleware.ResolvedAppID(r.Context()); ok {
					return appID
				}
				return r.RemoteAddr
			},
		}))

		r.Use(middleware.CaptureBody(bodyLimit))

		r.Use(middleware.APIKeyAuth(middleware.APIKeyConfig{
			Enabled: cfg.RequireAuth,
			Lookup:  secretLookup,
		}))

		r.Use(middleware.HMACVerify(middleware.HMACConfig{
			Enabled: cfg.RequireHMAC,
			Window:  cfg.HMACWindow,
			Lookup:  secretLookup,
			Consume: cfg.NonceStore.ConsumeNonce,
		}))

		r.Post("/", handlerNotify.Notify())
	})

	instance := &DefaultHTTP{
		router: router,
	}

	return instance, nil
}

// Server .
func (a *DefaultHTTP) Server() http.Handler {
	return a.router
}
