// Package credstore is the durable tenant credential store: apps, their
// API secrets, and per-platform push credentials. It follows the
// Repo-interface-plus-input/output-struct shape the rest of this codebase
// uses for its persistence layers.
package credstore

import "time"

type App struct {
	ClientID  string    `db:"client_id" json:"clientId"`
	Name      string    `db:"name" json:"name"`
	ApiSecret string    `db:"api_secret" json:"apiSecret"`
	Enabled   bool      `db:"enabled" json:"enabled"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type IosCredential struct {
	AppClientID   string    `db:"app_client_id" json:"appClientId"`
	TeamID        string    `db:"team_id" json:"teamId"`
	KeyID         string    `db:"key_id" json:"keyId"`
	PrivateKeyPEM string    `db:"private_key_pem" json:"privateKeyPem"`
	Production    bool      `db:"production" json:"production"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

type AndroidCredential struct {
	AppClientID         string    `db:"app_client_id" json:"appClientId"`
	ServiceAccountJSON  string    `db:"service_account_json" json:"serviceAccountJson"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

type AdminUser struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// AppConfig is the tenant credential bundle handed to the dispatch handler
// and the provider pools. Only inline credentials ever reach this struct.
type AppConfig struct {
	App     App
	IOS     *IosCredential
	Android *AndroidCredential
}

const (
	AdminSettingKeyBasePath      = "admin_base_path"
	AdminSettingKeySessionSecret = "admin_session_secret"
)

type InCreateApp struct {
	ClientID string `validate:"required,bundleid"`
	Name     string `validate:"required"`
}

type InUpdateApp struct {
	ClientID string `validate:"required"`
	Name     string `validate:"required"`
	Enabled  bool
}

type InUpsertIosConfig struct {
	AppClientID   string `validate:"required"`
	TeamID        string `validate:"required"`
	KeyID         string `validate:"required"`
	PrivateKeyPEM string `validate:"required"`
	Production    bool
}

type InUpsertAndroidConfig struct {
	AppClientID        string `validate:"required"`
	ServiceAccountJSON string `validate:"required"`
}

type InEnsureAdminSettings struct {
	BasePath      string
	SessionSecret string
}

type OutEnsureAdminSettings struct {
	BasePath           string
	SessionSecret      string
	GeneratedBasePath  bool
	GeneratedSecret    bool
	WeakBasePath       bool
}

type InEnsureAdminUser struct {
	Username string
	Password string
}

type OutEnsureAdminUser struct {
	Created           bool
	GeneratedPassword string
}
