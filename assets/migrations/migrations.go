// Package migrations lists the schema changes for the credential and
// nonce stores using rubenv/sql-migrate's own Migration type, rather
// than the opentracing-wrapped migration interface the corpus's
// pkg/migration package predates sql-migrate's adoption with.
package migrations

import "github.com/rubenv/sql-migrate"

// Source is registered with sql-migrate's Exec/ExecMax at startup or
// from a standalone migration command.
var Source = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1700000001_create_apps_table",
			Up: []string{`
CREATE TABLE IF NOT EXISTS apps (
	client_id VARCHAR NOT NULL PRIMARY KEY,
	name VARCHAR NOT NULL DEFAULT '',
	api_secret VARCHAR NOT NULL,
	enabled BOOL NOT NULL DEFAULT true,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS unique_idx_apps_client_id ON apps (LOWER(client_id));
`},
			Down: []string{`DROP TABLE IF EXISTS apps;`},
		},
		{
			Id: "1700000002_create_ios_credentials_table",
			Up: []string{`
CREATE TABLE IF NOT EXISTS ios_credentials (
	app_client_id VARCHAR NOT NULL PRIMARY KEY REFERENCES apps (client_id) ON DELETE CASCADE,
	team_id VARCHAR NOT NULL DEFAULT '',
	key_id VARCHAR NOT NULL DEFAULT '',
	private_key_pem TEXT NOT NULL DEFAULT '',
	production BOOL NOT NULL DEFAULT false,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);
`},
			Down: []string{`DROP TABLE IF EXISTS ios_credentials;`},
		},
		{
			Id: "1700000003_create_android_credentials_table",
			Up: []string{`
CREATE TABLE IF NOT EXISTS android_credentials (
	app_client_id VARCHAR NOT NULL PRIMARY KEY REFERENCES apps (client_id) ON DELETE CASCADE,
	service_account_json TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);
`},
			Down: []string{`DROP TABLE IF EXISTS android_credentials;`},
		},
		{
			Id: "1700000004_create_admin_users_table",
			Up: []string{`
CREATE TABLE IF NOT EXISTS admin_users (
	id BIGSERIAL PRIMARY KEY,
	username VARCHAR NOT NULL,
	password_hash VARCHAR NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS unique_idx_admin_users_username ON admin_users (LOWER(username));
`},
			Down: []string{`DROP TABLE IF EXISTS admin_users;`},
		},
		{
			Id: "1700000005_create_admin_settings_table",
			Up: []string{`
CREATE TABLE IF NOT EXISTS admin_settings (
	key VARCHAR NOT NULL PRIMARY KEY,
	value TEXT NOT NULL
);
`},
			Down: []string{`DROP TABLE IF EXISTS admin_settings;`},
		},
		{
			Id: "1700000006_create_nonces_table",
			Up: []string{`
CREATE TABLE IF NOT EXISTS nonces (
	app_client_id VARCHAR NOT NULL,
	nonce VARCHAR NOT NULL,
	expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	PRIMARY KEY (app_client_id, nonce)
);

CREATE INDEX IF NOT EXISTS idx_nonces_expires_at ON nonces (expires_at);
`},
			Down: []string{`DROP TABLE IF EXISTS nonces;`},
		},
	},
}
