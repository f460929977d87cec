package credstore

import "context"

// Repo is the full surface the admin write path and the data plane share.
// GetApiSecret and GetAppConfig intentionally collapse "disabled" and
// "does not exist" into the same zero-value, false result.
type Repo interface {
	EnsureAdminSettings(ctx context.Context, in InEnsureAdminSettings) (OutEnsureAdminSettings, error)
	EnsureAdminUser(ctx context.Context, in InEnsureAdminUser) (OutEnsureAdminUser, error)
	GetAdminByUsername(ctx context.Context, username string) (AdminUser, bool, error)
	UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error

	ListApps(ctx context.Context) ([]App, error)
	GetApp(ctx context.Context, clientID string) (App, bool, error)
	GetAppConfig(ctx context.Context, clientID string) (AppConfig, bool, error)
	GetApiSecret(ctx context.Context, clientID string) (string, bool, error)

	CreateApp(ctx context.Context, in InCreateApp) (App, error)
	UpdateApp(ctx context.Context, in InUpdateApp) (App, error)
	RotateSecret(ctx context.Context, clientID string) (App, error)

	UpsertIosConfig(ctx context.Context, in InUpsertIosConfig) (IosCredential, error)
	DeleteIosConfig(ctx context.Context, clientID string) error

	UpsertAndroidConfig(ctx context.Context, in InUpsertAndroidConfig) (AndroidCredential, error)
	DeleteAndroidConfig(ctx context.Context, clientID string) error
}
