// Package container wires the gateway's dependencies the way the
// corpus's own container.Setup stitches repos, caches, and services
// together for cmd/api to run.
package container

import (
	"context"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/rubenv/sql-migrate"

	"github.com/yusufsyaifudin/ngendika/assets/migrations"
	"github.com/yusufsyaifudin/ngendika/config"
	"github.com/yusufsyaifudin/ngendika/internal/logic/ratelimit"
	"github.com/yusufsyaifudin/ngendika/internal/svc/apnspool"
	"github.com/yusufsyaifudin/ngendika/internal/svc/credstore"
	"github.com/yusufsyaifudin/ngendika/internal/svc/fcmpool"
	"github.com/yusufsyaifudin/ngendika/internal/svc/noncestore"
	"github.com/yusufsyaifudin/ngendika/pkg/cache"
	"github.com/yusufsyaifudin/ngendika/transport/restapi"
)

// Container is an abstraction layer to be used in use-case to stitch all
// business logic. Use this when you pass into another struct.
type Container interface {
	CredStore() credstore.Repo
	NonceStore() noncestore.Repo
	APNSPool() *apnspool.Pool
	FCMPool() *fcmpool.Pool
	Bootstrap() BootstrapResult
	HTTPTransport() (*restapi.DefaultHTTP, error)
}

// DefaultContainerImpl is the real implementation of Container.
type DefaultContainerImpl struct {
	ctx context.Context `validate:"required"`
	cfg config.Config   `validate:"required,structonly"`

	db *sqlx.DB `validate:"required"`

	credRepo   *credstore.Postgres  `validate:"required"`
	credCached *credstore.Cached    `validate:"required"`
	nonceRepo  *noncestore.Postgres `validate:"required"`
	apnsPool   *apnspool.Pool       `validate:"required"`
	fcmPool    *fcmpool.Pool        `validate:"required"`
	limiter    *ratelimit.Limiter

	bootstrap BootstrapResult
}

var _ Container = (*DefaultContainerImpl)(nil)

// Setup initializes every dependency the gateway needs to run. The
// caller is responsible for deferring Close.
func Setup(ctx context.Context, cfg config.Config) (*DefaultContainerImpl, error) {
	db, err := connectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("container: connect db: %w", err)
	}

	if _, err := migrate.Exec(db.DB, "postgres", migrations.Source, migrate.Up); err != nil {
		return nil, fmt.Errorf("container: run migrations: %w", err)
	}

	credRepo, err := credstore.NewPostgres(db)
	if err != nil {
		return nil, fmt.Errorf("container: credstore: %w", err)
	}

	nonceRepo, err := noncestore.NewPostgres(db)
	if err != nil {
		return nil, fmt.Errorf("container: noncestore: %w", err)
	}

	memCache, err := cache.NewInMemory()
	if err != nil {
		return nil, fmt.Errorf("container: cache: %w", err)
	}

	apnsPool := apnspool.New(apnspool.Config{
		MaxListeners: cfg.APNSMaxListeners,
	})
	fcmPool := fcmpool.New()

	credCached, err := credstore.NewCached(credRepo, memCache, apnsPool, fcmPool)
	if err != nil {
		return nil, fmt.Errorf("container: credstore cached: %w", err)
	}

	limiter := ratelimit.New(cfg.RateLimitWindow(), cfg.RateLimitMax)

	dep := &DefaultContainerImpl{
		ctx:        ctx,
		cfg:        cfg,
		db:         db,
		credRepo:   credRepo,
		credCached: credCached,
		nonceRepo:  nonceRepo,
		apnsPool:   apnsPool,
		fcmPool:    fcmPool,
		limiter:    limiter,
	}

	if err := validator.New().Struct(dep); err != nil {
		return nil, err
	}

	bootstrap, err := dep.bootstrapAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("container: bootstrap admin: %w", err)
	}
	dep.bootstrap = bootstrap

	go limiter.Sweep(ctx, cfg.RateLimitWindow())

	return dep, nil
}

func (a *DefaultContainerImpl) CredStore() credstore.Repo   { return a.credCached }
func (a *DefaultContainerImpl) NonceStore() noncestore.Repo { return a.nonceRepo }
func (a *DefaultContainerImpl) APNSPool() *apnspool.Pool    { return a.apnsPool }
func (a *DefaultContainerImpl) FCMPool() *fcmpool.Pool      { return a.fcmPool }
func (a *DefaultContainerImpl) Bootstrap() BootstrapResult  { return a.bootstrap }

// HTTPTransport builds the router bound to this container's dependencies.
func (a *DefaultContainerImpl) HTTPTransport() (*restapi.DefaultHTTP, error) {
	return restapi.NewHTTPTransport(restapi.Config{
		AppServiceName: "ngendika",
		AppVersion:     "1.0.0",

		CredStore:   a.credCached,
		NonceStore:  a.nonceRepo,
		APNSPool:    a.apnsPool,
		FCMPool:     a.fcmPool,
		RateLimiter: a.limiter,

		RequireHTTPS:   a.cfg.RequireHTTPS,
		TrustProxy:     a.cfg.TrustProxy,
		RequireAuth:    a.cfg.RequireAuth,
		RequireHMAC:    a.cfg.RequireHMAC,
		IPAllowlist:    a.allowedIPs(),
		HMACWindow:     a.cfg.HMACWindow(),
		BodyLimitBytes: a.cfg.BodyLimit,
	})
}

func (a *DefaultContainerImpl) allowedIPs() map[string]struct{} {
	if !a.cfg.IPAllowlistEnabled {
		return nil
	}
	return a.cfg.AllowedIPSet()
}

// BootstrapResult reports what bootstrapAdmin actually generated, so the
// caller can log secrets exactly once per §4.H instead of discarding them.
type BootstrapResult struct {
	Settings credstore.OutEnsureAdminSettings
	User     credstore.OutEnsureAdminUser
}

// bootstrapAdmin ensures the admin settings row and the first admin user
// exist. Both calls run unconditionally on every startup: EnsureAdminSettings
// and EnsureAdminUser are themselves idempotent and already generate a
// spec-shaped base path / password when the operator supplied none.
func (a *DefaultContainerImpl) bootstrapAdmin(ctx context.Context) (BootstrapResult, error) {
	settings, err := a.credRepo.EnsureAdminSettings(ctx, credstore.InEnsureAdminSettings{
		BasePath:      a.cfg.AdminBasePath,
		SessionSecret: a.cfg.AdminSessionSecret,
	})
	if err != nil {
		return BootstrapResult{}, err
	}

	user, err := a.credRepo.EnsureAdminUser(ctx, credstore.InEnsureAdminUser{
		Username: a.cfg.AdminBootstrapUser,
		Password: a.cfg.AdminBootstrapPass,
	})
	if err != nil {
		return BootstrapResult{}, err
	}

	return BootstrapResult{Settings: settings, User: user}, nil
}

// Close closes every cached long-lived provider client and the DB
// connection. The provider pools' worker goroutines are not stopped.
func (a *DefaultContainerImpl) Close() error {
	a.apnsPool.Shutdown()
	a.fcmPool.Shutdown()
	return a.db.Close()
}
