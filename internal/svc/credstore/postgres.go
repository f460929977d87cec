package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ngendika/pkg/randhex"
	"github.com/yusufsyaifudin/ngendika/pkg/scrypthash"
	"github.com/yusufsyaifudin/ngendika/pkg/validator"
)

type Postgres struct {
	DB *sqlx.DB
}

var _ Repo = (*Postgres)(nil)

func NewPostgres(db *sqlx.DB) (*Postgres, error) {
	if db == nil {
		return nil, fmt.Errorf("credstore postgres: nil db")
	}

	return &Postgres{DB: db}, nil
}

func (p *Postgres) EnsureAdminSettings(ctx context.Context, in InEnsureAdminSettings) (OutEnsureAdminSettings, error) {
	out := OutEnsureAdminSettings{}

	basePath, generatedPath, err := p.getOrGenerateSetting(ctx, AdminSettingKeyBasePath, in.BasePath, normalizeBasePath, func() (string, error) {
		hexPath, genErr := randhex.String(20)
		if genErr != nil {
			return "", genErr
		}
		return "/" + hexPath, nil
	})
	if err != nil {
		return out, fmt.Errorf("ensure admin base path: %w", err)
	}

	sessionSecret, generatedSecret, err := p.getOrGenerateSetting(ctx, AdminSettingKeySessionSecret, in.SessionSecret, nil, func() (string, error) {
		return randhex.String(64)
	})
	if err != nil {
		return out, fmt.Errorf("ensure admin session secret: %w", err)
	}

	out.BasePath = basePath
	out.SessionSecret = sessionSecret
	out.GeneratedBasePath = generatedPath
	out.GeneratedSecret = generatedSecret
	out.WeakBasePath = isWeakBasePath(basePath)

	return out, nil
}

// getOrGenerateSetting fetches key, seeding it with normalize(seed) or a
// freshly generated value when absent. Idempotent across restarts.
func (p *Postgres) getOrGenerateSetting(
	ctx context.Context, key, seed string, normalize func(string) (string, error), generate func() (string, error),
) (string, bool, error) {
	var existing string
	err := p.DB.GetContext(ctx, &existing, `SELECT value FROM admin_settings WHERE key = $1`, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("query admin setting %s: %w", key, err)
	}

	value := strings.TrimSpace(seed)
	generated := false

	if value != "" && normalize != nil {
		normalized, normErr := normalize(value)
		if normErr != nil {
			return "", false, normErr
		}
		value = normalized
	} else if value == "" {
		genValue, genErr := generate()
		if genErr != nil {
			return "", false, genErr
		}
		value = genValue
		generated = true
	}

	_, err = p.DB.ExecContext(ctx, `
INSERT INTO admin_settings (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO NOTHING`, key, value)
	if err != nil {
		return "", false, fmt.Errorf("insert admin setting %s: %w", key, err)
	}

	return value, generated, nil
}

func normalizeBasePath(raw string) (string, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return "", fmt.Errorf("admin base path cannot be empty")
	}

	if strings.ContainsAny(path, " \t\r\n") {
		return "", fmt.Errorf("admin base path cannot contain whitespace")
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	path = strings.TrimRight(path, "/")
	if path == "" {
		return "", fmt.Errorf("admin base path cannot be empty")
	}

	return path, nil
}

func isWeakBasePath(path string) bool {
	lower := strings.ToLower(path)
	if len(path) < 12 {
		return true
	}

	for _, weak := range []string{"admin", "panel", "manage", "sys"} {
		if strings.Contains(lower, weak) {
			return true
		}
	}

	return false
}

func (p *Postgres) EnsureAdminUser(ctx context.Context, in InEnsureAdminUser) (OutEnsureAdminUser, error) {
	out := OutEnsureAdminUser{}

	var count int
	if err := p.DB.GetContext(ctx, &count, `SELECT count(*) FROM admin_users`); err != nil {
		return out, fmt.Errorf("count admin users: %w", err)
	}

	if count > 0 {
		return out, nil
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = "admin"
	}

	password := in.Password
	if password == "" {
		generated, err := randhex.String(24)
		if err != nil {
			return out, fmt.Errorf("generate bootstrap password: %w", err)
		}
		password = generated
		out.GeneratedPassword = generated
	}

	hash, err := scrypthash.Hash(password)
	if err != nil {
		return out, fmt.Errorf("hash bootstrap password: %w", err)
	}

	_, err = p.DB.ExecContext(ctx, `
INSERT INTO admin_users (username, password_hash, created_at)
VALUES ($1, $2, now())
ON CONFLICT DO NOTHING`, username, hash)
	if err != nil {
		return out, fmt.Errorf("insert admin user: %w", err)
	}

	out.Created = true
	return out, nil
}

func (p *Postgres) GetAdminByUsername(ctx context.Context, username string) (AdminUser, bool, error) {
	var user AdminUser
	err := p.DB.GetContext(ctx, &user, `SELECT * FROM admin_users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return AdminUser{}, false, nil
	}
	if err != nil {
		return AdminUser{}, false, fmt.Errorf("get admin by username: %w", err)
	}

	return user, true, nil
}

func (p *Postgres) UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := p.DB.ExecContext(ctx, `UPDATE admin_users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}

	return nil
}

func (p *Postgres) ListApps(ctx context.Context) ([]App, error) {
	var apps []App
	err := p.DB.SelectContext(ctx, &apps, `SELECT * FROM apps ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}

	return apps, nil
}

func (p *Postgres) GetApp(ctx context.Context, clientID string) (App, bool, error) {
	var app App
	err := p.DB.GetContext(ctx, &app, `SELECT * FROM apps WHERE client_id = $1`, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return App{}, false, nil
	}
	if err != nil {
		return App{}, false, fmt.Errorf("get app: %w", err)
	}

	return app, true, nil
}

func (p *Postgres) GetApiSecret(ctx context.Context, clientID string) (string, bool, error) {
	var secret string
	err := p.DB.GetContext(ctx, &secret, `SELECT api_secret FROM apps WHERE client_id = $1 AND enabled = true`, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get api secret: %w", err)
	}

	return secret, true, nil
}

func (p *Postgres) GetAppConfig(ctx context.Context, clientID string) (AppConfig, bool, error) {
	app, ok, err := p.GetApp(ctx, clientID)
	if err != nil {
		return AppConfig{}, false, err
	}
	if !ok || !app.Enabled {
		return AppConfig{}, false, nil
	}

	cfg := AppConfig{App: app}

	var ios IosCredential
	err = p.DB.GetContext(ctx, &ios, `SELECT * FROM ios_credentials WHERE app_client_id = $1`, clientID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// no iOS credential configured
	case err != nil:
		return AppConfig{}, false, fmt.Errorf("get ios credential: %w", err)
	case strings.Contains(ios.PrivateKeyPEM, "BEGIN"):
		cfg.IOS = &ios
	}

	var android AndroidCredential
	err = p.DB.GetContext(ctx, &android, `SELECT * FROM android_credentials WHERE app_client_id = $1`, clientID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// no Android credential configured
	case err != nil:
		return AppConfig{}, false, fmt.Errorf("get android credential: %w", err)
	case strings.TrimSpace(android.ServiceAccountJSON) != "":
		cfg.Android = &android
	}

	return cfg, true, nil
}

func (p *Postgres) CreateApp(ctx context.Context, in InCreateApp) (App, error) {
	if err := validator.Validate(in); err != nil {
		return App{}, fmt.Errorf("validate create app: %w", err)
	}

	secret, err := randhex.String(64)
	if err != nil {
		return App{}, fmt.Errorf("generate api secret: %w", err)
	}

	var app App
	err = p.DB.GetContext(ctx, &app, `
INSERT INTO apps (client_id, name, api_secret, enabled, created_at, updated_at)
VALUES ($1, $2, $3, true, now(), now())
RETURNING *`, in.ClientID, in.Name, secret)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return App{}, fmt.Errorf("app %q already exists: %w", in.ClientID, err)
		}
		return App{}, fmt.Errorf("create app: %w", err)
	}

	return app, nil
}

func (p *Postgres) UpdateApp(ctx context.Context, in InUpdateApp) (App, error) {
	if err := validator.Validate(in); err != nil {
		return App{}, fmt.Errorf("validate update app: %w", err)
	}

	var app App
	err := p.DB.GetContext(ctx, &app, `
UPDATE apps SET name = $2, enabled = $3, updated_at = now()
WHERE client_id = $1
RETURNING *`, in.ClientID, in.Name, in.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return App{}, fmt.Errorf("app %q does not exist", in.ClientID)
	}
	if err != nil {
		return App{}, fmt.Errorf("update app: %w", err)
	}

	return app, nil
}

func (p *Postgres) RotateSecret(ctx context.Context, clientID string) (App, error) {
	secret, err := randhex.String(64)
	if err != nil {
		return App{}, fmt.Errorf("generate api secret: %w", err)
	}

	var app App
	err = p.DB.GetContext(ctx, &app, `
UPDATE apps SET api_secret = $2, updated_at = now()
WHERE client_id = $1
RETURNING *`, clientID, secret)
	if errors.Is(err, sql.ErrNoRows) {
		return App{}, fmt.Errorf("app %q does not exist", clientID)
	}
	if err != nil {
		return App{}, fmt.Errorf("rotate secret: %w", err)
	}

	return app, nil
}

func (p *Postgres) UpsertIosConfig(ctx context.Context, in InUpsertIosConfig) (IosCredential, error) {
	if err := validator.Validate(in); err != nil {
		return IosCredential{}, fmt.Errorf("validate ios config: %w", err)
	}

	if !strings.Contains(in.PrivateKeyPEM, "BEGIN") {
		return IosCredential{}, fmt.Errorf("ios private key must be inline PEM text")
	}

	var cred IosCredential
	err := p.DB.GetContext(ctx, &cred, `
INSERT INTO ios_credentials (app_client_id, team_id, key_id, private_key_pem, production, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (app_client_id) DO UPDATE SET
	team_id = EXCLUDED.team_id,
	key_id = EXCLUDED.key_id,
	private_key_pem = EXCLUDED.private_key_pem,
	production = EXCLUDED.production,
	updated_at = now()
RETURNING *`, in.AppClientID, in.TeamID, in.KeyID, in.PrivateKeyPEM, in.Production)
	if err != nil {
		return IosCredential{}, fmt.Errorf("upsert ios config: %w", err)
	}

	return cred, nil
}

func (p *Postgres) DeleteIosConfig(ctx context.Context, clientID string) error {
	_, err := p.DB.ExecContext(ctx, `DELETE FROM ios_credentials WHERE app_client_id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("delete ios config: %w", err)
	}

	return nil
}

func (p *Postgres) UpsertAndroidConfig(ctx context.Context, in InUpsertAndroidConfig) (AndroidCredential, error) {
	if err := validator.Validate(in); err != nil {
		return AndroidCredential{}, fmt.Errorf("validate android config: %w", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(in.ServiceAccountJSON), &doc); err != nil {
		return AndroidCredential{}, fmt.Errorf("service account json must be valid JSON: %w", err)
	}

	clientEmail, _ := doc["client_email"].(string)
	if strings.TrimSpace(clientEmail) == "" {
		return AndroidCredential{}, fmt.Errorf("service account json must contain a non-empty client_email")
	}

	privateKey, _ := doc["private_key"].(string)
	if strings.TrimSpace(privateKey) == "" {
		return AndroidCredential{}, fmt.Errorf("service account json must contain a non-empty private_key")
	}

	var cred AndroidCredential
	err := p.DB.GetContext(ctx, &cred, `
INSERT INTO android_credentials (app_client_id, service_account_json, created_at, updated_at)
VALUES ($1, $2, now(), now())
ON CONFLICT (app_client_id) DO UPDATE SET
	service_account_json = EXCLUDED.service_account_json,
	updated_at = now()
RETURNING *`, in.AppClientID, in.ServiceAccountJSON)
	if err != nil {
		return AndroidCredential{}, fmt.Errorf("upsert android config: %w", err)
	}

	return cred, nil
}

func (p *Postgres) DeleteAndroidConfig(ctx context.Context, clientID string) error {
	_, err := p.DB.ExecContext(ctx, `DELETE FROM android_credentials WHERE app_client_id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("delete android config: %w", err)
	}

	return nil
}
