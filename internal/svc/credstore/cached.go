package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yusufsyaifudin/ngendika/pkg/cache"
)

const cacheTTL = 60 * time.Second

func appConfigCacheKey(clientID string) string { return "credstore:appconfig:" + clientID }
func apiSecretCacheKey(clientID string) string { return "credstore:apisecret:" + clientID }

// Invalidator is notified whenever a write may have changed the
// credentials for a tenant, so provider pools can evict their cached
// long-lived clients before the cache-then-respond write returns.
type Invalidator interface {
	Invalidate(clientID string)
}

// Cached wraps a Repo with a read-through cache for the two lookups that
// sit on the data-plane hot path: GetAppConfig and GetApiSecret. Writes
// invalidate both the cache entry and any registered provider pools
// before returning, mirroring apprepo's cache-then-respond order.
type Cached struct {
	Repo         Repo
	Cache        cache.Cache
	Invalidators []Invalidator
}

var _ Repo = (*Cached)(nil)

func NewCached(repo Repo, c cache.Cache, invalidators ...Invalidator) (*Cached, error) {
	if repo == nil {
		return nil, fmt.Errorf("credstore cached: nil repo")
	}
	if c == nil {
		return nil, fmt.Errorf("credstore cached: nil cache")
	}

	return &Cached{Repo: repo, Cache: c, Invalidators: invalidators}, nil
}

func (c *Cached) invalidate(clientID string) {
	_ = c.Cache.Delete(context.Background(), appConfigCacheKey(clientID))
	_ = c.Cache.Delete(context.Background(), apiSecretCacheKey(clientID))

	for _, inv := range c.Invalidators {
		inv.Invalidate(clientID)
	}
}

func (c *Cached) GetApiSecret(ctx context.Context, clientID string) (string, bool, error) {
	var cached string
	err := c.Cache.GetAs(ctx, apiSecretCacheKey(clientID), &cached)
	if err == nil {
		if cached == "" {
			return "", false, nil
		}
		return cached, true, nil
	}
	if !errors.Is(err, cache.ErrKeyNotExist) {
		return "", false, fmt.Errorf("read api secret cache: %w", err)
	}

	secret, ok, err := c.Repo.GetApiSecret(ctx, clientID)
	if err != nil {
		return "", false, err
	}

	if setErr := c.Cache.SetExp(ctx, apiSecretCacheKey(clientID), secret, cacheTTL); setErr != nil {
		return secret, ok, nil
	}

	return secret, ok, nil
}

func (c *Cached) GetAppConfig(ctx context.Context, clientID string) (AppConfig, bool, error) {
	var cached AppConfig
	err := c.Cache.GetAs(ctx, appConfigCacheKey(clientID), &cached)
	if err == nil {
		return cached, cached.App.ClientID != "", nil
	}
	if !errors.Is(err, cache.ErrKeyNotExist) {
		return AppConfig{}, false, fmt.Errorf("read app config cache: %w", err)
	}

	cfg, ok, err := c.Repo.GetAppConfig(ctx, clientID)
	if err != nil {
		return AppConfig{}, false, err
	}
	if !ok {
		return AppConfig{}, false, nil
	}

	_ = c.Cache.SetExp(ctx, appConfigCacheKey(clientID), cfg, cacheTTL)

	return cfg, true, nil
}

func (c *Cached) EnsureAdminSettings(ctx context.Context, in InEnsureAdminSettings) (OutEnsureAdminSettings, error) {
	return c.Repo.EnsureAdminSettings(ctx, in)
}

func (c *Cached) EnsureAdminUser(ctx context.Context, in InEnsureAdminUser) (OutEnsureAdminUser, error) {
	return c.Repo.EnsureAdminUser(ctx, in)
}

func (c *Cached) GetAdminByUsername(ctx context.Context, username string) (AdminUser, bool, error) {
	return c.Repo.GetAdminByUsername(ctx, username)
}

func (c *Cached) UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error {
	return c.Repo.UpdateAdminPassword(ctx, id, passwordHash)
}

func (c *Cached) ListApps(ctx context.Context) ([]App, error) {
	return c.Repo.ListApps(ctx)
}

func (c *Cached) GetApp(ctx context.Context, clientID string) (App, bool, error) {
	return c.Repo.GetApp(ctx, clientID)
}

func (c *Cached) CreateApp(ctx context.Context, in InCreateApp) (App, error) {
	app, err := c.Repo.CreateApp(ctx, in)
	if err != nil {
		return App{}, err
	}

	c.invalidate(app.ClientID)
	return app, nil
}

func (c *Cached) UpdateApp(ctx context.Context, in InUpdateApp) (App, error) {
	app, err := c.Repo.UpdateApp(ctx, in)
	if err != nil {
		return App{}, err
	}

	c.invalidate(app.ClientID)
	return app, nil
}

func (c *Cached) RotateSecret(ctx context.Context, clientID string) (App, error) {
	app, err := c.Repo.RotateSecret(ctx, clientID)
	if err != nil {
		return App{}, err
	}

	c.invalidate(clientID)
	return app, nil
}

func (c *Cached) UpsertIosConfig(ctx context.Context, in InUpsertIosConfig) (IosCredential, error) {
	cred, err := c.Repo.UpsertIosConfig(ctx, in)
	if err != nil {
		return IosCredential{}, err
	}

	c.invalidate(in.AppClientID)
	return cred, nil
}

func (c *Cached) DeleteIosConfig(ctx context.Context, clientID string) error {
	if err := c.Repo.DeleteIosConfig(ctx, clientID); err != nil {
		return err
	}

	c.invalidate(clientID)
	return nil
}

func (c *Cached) UpsertAndroidConfig(ctx context.Context, in InUpsertAndroidConfig) (AndroidCredential, error) {
	cred, err := c.Repo.UpsertAndroidConfig(ctx, in)
	if err != nil {
		return AndroidCredential{}, err
	}

	c.invalidate(in.AppClientID)
	return cred, nil
}

func (c *Cached) DeleteAndroidConfig(ctx context.Context, clientID string) error {
	if err := c.Repo.DeleteAndroidConfig(ctx, clientID); err != nil {
		return err
	}

	c.invalidate(clientID)
	return nil
}
