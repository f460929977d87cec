// Package noncestore guarantees at-most-once acceptance of any
// (appId, nonce) pair within a bounded validity window.
package noncestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repo interface {
	// ConsumeNonce purges expired rows for appId opportunistically, then
	// inserts (appId, nonce, now, expiresAt) iff no live row for that key
	// exists. Returns true iff this call performed the insert.
	ConsumeNonce(ctx context.Context, appID, nonce string, now, expiresAt time.Time) (bool, error)
}

type Postgres struct {
	DB *sqlx.DB
}

var _ Repo = (*Postgres)(nil)

func NewPostgres(db *sqlx.DB) (*Postgres, error) {
	if db == nil {
		return nil, fmt.Errorf("noncestore postgres: nil db")
	}

	return &Postgres{DB: db}, nil
}

func (p *Postgres) ConsumeNonce(ctx context.Context, appID, nonce string, now, expiresAt time.Time) (bool, error) {
	_, err := p.DB.ExecContext(ctx, `DELETE FROM nonces WHERE app_client_id = $1 AND expires_at <= $2`, appID, now)
	if err != nil {
		return false, fmt.Errorf("purge stale nonces: %w", err)
	}

	var inserted string
	err = p.DB.GetContext(ctx, &inserted, `
INSERT INTO nonces (app_client_id, nonce, created_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (app_client_id, nonce) DO NOTHING
RETURNING app_client_id`, appID, nonce, now, expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}

	return true, nil
}
