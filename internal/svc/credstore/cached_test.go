package credstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusufsyaifudin/ngendika/internal/svc/credstore"
	"github.com/yusufsyaifudin/ngendika/pkg/cache"
)

type fakeRepo struct {
	apps         map[string]credstore.App
	appConfigs   map[string]credstore.AppConfig
	secrets      map[string]string
	getConfigErr error
	calls        int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		apps:       make(map[string]credstore.App),
		appConfigs: make(map[string]credstore.AppConfig),
		secrets:    make(map[string]string),
	}
}

func (f *fakeRepo) EnsureAdminSettings(ctx context.Context, in credstore.InEnsureAdminSettings) (credstore.OutEnsureAdminSettings, error) {
	return credstore.OutEnsureAdminSettings{}, nil
}
func (f *fakeRepo) EnsureAdminUser(ctx context.Context, in credstore.InEnsureAdminUser) (credstore.OutEnsureAdminUser, error) {
	return credstore.OutEnsureAdminUser{}, nil
}
func (f *fakeRepo) GetAdminByUsername(ctx context.Context, username string) (credstore.AdminUser, bool, error) {
	return credstore.AdminUser{}, false, nil
}
func (f *fakeRepo) UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error {
	return nil
}
func (f *fakeRepo) ListApps(ctx context.Context) ([]credstore.App, error) { return nil, nil }
func (f *fakeRepo) GetApp(ctx context.Context, clientID string) (credstore.App, bool, error) {
	app, ok := f.apps[clientID]
	return app, ok, nil
}
func (f *fakeRepo) GetAppConfig(ctx context.Context, clientID string) (credstore.AppConfig, bool, error) {
	f.calls++
	if f.getConfigErr != nil {
		return credstore.AppConfig{}, false, f.getConfigErr
	}
	cfg, ok := f.appConfigs[clientID]
	return cfg, ok, nil
}
func (f *fakeRepo) GetApiSecret(ctx context.Context, clientID string) (string, bool, error) {
	f.calls++
	secret, ok := f.secrets[clientID]
	return secret, ok, nil
}
func (f *fakeRepo) CreateApp(ctx context.Context, in credstore.InCreateApp) (credstore.App, error) {
	app := credstore.App{ClientID: in.ClientID, Name: in.Name, Enabled: true}
	f.apps[in.ClientID] = app
	return app, nil
}
func (f *fakeRepo) UpdateApp(ctx context.Context, in credstore.InUpdateApp) (credstore.App, error) {
	app := f.apps[in.ClientID]
	app.Name = in.Name
	app.Enabled = in.Enabled
	f.apps[in.ClientID] = app
	return app, nil
}
func (f *fakeRepo) RotateSecret(ctx context.Context, clientID string) (credstore.App, error) {
	app := f.apps[clientID]
	app.ApiSecret = "rotated"
	f.apps[clientID] = app
	f.secrets[clientID] = "rotated"
	return app, nil
}
func (f *fakeRepo) UpsertIosConfig(ctx context.Context, in credstore.InUpsertIosConfig) (credstore.IosCredential, error) {
	cred := credstore.IosCredential{AppClientID: in.AppClientID, TeamID: in.TeamID}
	cfg := f.appConfigs[in.AppClientID]
	cfg.IOS = &cred
	f.appConfigs[in.AppClientID] = cfg
	return cred, nil
}
func (f *fakeRepo) DeleteIosConfig(ctx context.Context, clientID string) error {
	cfg := f.appConfigs[clientID]
	cfg.IOS = nil
	f.appConfigs[clientID] = cfg
	return nil
}
func (f *fakeRepo) UpsertAndroidConfig(ctx context.Context, in credstore.InUpsertAndroidConfig) (credstore.AndroidCredential, error) {
	cred := credstore.AndroidCredential{AppClientID: in.AppClientID}
	cfg := f.appConfigs[in.AppClientID]
	cfg.Android = &cred
	f.appConfigs[in.AppClientID] = cfg
	return cred, nil
}
func (f *fakeRepo) DeleteAndroidConfig(ctx context.Context, clientID string) error {
	cfg := f.appConfigs[clientID]
	cfg.Android = nil
	f.appConfigs[clientID] = cfg
	return nil
}

var _ credstore.Repo = (*fakeRepo)(nil)

type fakeInvalidator struct {
	invalidated []string
}

func (f *fakeInvalidator) Invalidate(clientID string) {
	f.invalidated = append(f.invalidated, clientID)
}

func TestNewCached(t *testing.T) {
	c, err := cache.NewInMemory()
	require.NoError(t, err)

	t.Run("nil repo", func(t *testing.T) {
		_, err := credstore.NewCached(nil, c)
		assert.Error(t, err)
	})

	t.Run("nil cache", func(t *testing.T) {
		_, err := credstore.NewCached(newFakeRepo(), nil)
		assert.Error(t, err)
	})

	t.Run("ok", func(t *testing.T) {
		cached, err := credstore.NewCached(newFakeRepo(), c)
		assert.NoError(t, err)
		assert.NotNil(t, cached)
	})
}

func TestCached_GetApiSecret(t *testing.T) {
	repo := newFakeRepo()
	repo.secrets["app-1"] = "shh"

	c, err := cache.NewInMemory()
	require.NoError(t, err)

	cached, err := credstore.NewCached(repo, c)
	require.NoError(t, err)

	secret, ok, err := cached.GetApiSecret(context.Background(), "app-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "shh", secret)
	assert.Equal(t, 1, repo.calls)

	// second call should be served from cache
	secret, ok, err = cached.GetApiSecret(context.Background(), "app-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "shh", secret)
	assert.Equal(t, 1, repo.calls)
}

func TestCached_GetApiSecret_NotFound(t *testing.T) {
	repo := newFakeRepo()

	c, err := cache.NewInMemory()
	require.NoError(t, err)

	cached, err := credstore.NewCached(repo, c)
	require.NoError(t, err)

	_, ok, err := cached.GetApiSecret(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCached_GetAppConfig(t *testing.T) {
	repo := newFakeRepo()
	repo.appConfigs["app-1"] = credstore.AppConfig{App: credstore.App{ClientID: "app-1"}}

	c, err := cache.NewInMemory()
	require.NoError(t, err)

	cached, err := credstore.NewCached(repo, c)
	require.NoError(t, err)

	cfg, ok, err := cached.GetAppConfig(context.Background(), "app-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "app-1", cfg.App.ClientID)
	assert.Equal(t, 1, repo.calls)

	cfg, ok, err = cached.GetAppConfig(context.Background(), "app-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, repo.calls)
}

func TestCached_GetAppConfig_Error(t *testing.T) {
	repo := newFakeRepo()
	repo.getConfigErr = fmt.Errorf("db down")

	c, err := cache.NewInMemory()
	require.NoError(t, err)

	cached, err := credstore.NewCached(repo, c)
	require.NoError(t, err)

	_, _, err = cached.GetAppConfig(context.Background(), "app-1")
	assert.Error(t, err)
}

func TestCached_WritesInvalidateCache(t *testing.T) {
	repo := newFakeRepo()
	repo.appConfigs["app-1"] = credstore.AppConfig{App: credstore.App{ClientID: "app-1"}}

	c, err := cache.NewInMemory()
	require.NoError(t, err)

	inv := &fakeInvalidator{}
	cached, err := credstore.NewCached(repo, c, inv)
	require.NoError(t, err)

	_, _, err = cached.GetAppConfig(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	_, err = cached.UpsertIosConfig(context.Background(), credstore.InUpsertIosConfig{
		AppClientID: "app-1", TeamID: "t", KeyID: "k", PrivateKeyPEM: "pem",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"app-1"}, inv.invalidated)

	_, _, err = cached.GetAppConfig(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestCached_DelegatesAdminAndListing(t *testing.T) {
	repo := newFakeRepo()
	c, err := cache.NewInMemory()
	require.NoError(t, err)

	cached, err := credstore.NewCached(repo, c)
	require.NoError(t, err)

	_, err = cached.EnsureAdminSettings(context.Background(), credstore.InEnsureAdminSettings{})
	assert.NoError(t, err)

	_, err = cached.EnsureAdminUser(context.Background(), credstore.InEnsureAdminUser{})
	assert.NoError(t, err)

	_, _, err = cached.GetAdminByUsername(context.Background(), "admin")
	assert.NoError(t, err)

	err = cached.UpdateAdminPassword(context.Background(), 1, "hash")
	assert.NoError(t, err)

	_, err = cached.ListApps(context.Background())
	assert.NoError(t, err)
}
