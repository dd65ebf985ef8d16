package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/florist-storefront/internal/persist"
)

const (
	getPayloadSQL = `SELECT value FROM storefront_payloads WHERE key = $1`

	setPayloadSQL = `INSERT INTO storefront_payloads (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	removePayloadSQL = `DELETE FROM storefront_payloads WHERE key = $1`
)

var _ persist.Storage = (*PayloadStorage)(nil)

// PayloadStorage implements persist.Storage backed by PostgreSQL.
type PayloadStorage struct {
	pool *pgxpool.Pool
}

// NewPayloadStorage returns a PayloadStorage that uses the given pool.
func NewPayloadStorage(pool *pgxpool.Pool) *PayloadStorage {
	return &PayloadStorage{pool: pool}
}

// Get returns the stored payload for key. A missing row is reported with
// ok=false.
func (s *PayloadStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	if err := s.pool.QueryRow(ctx, getPayloadSQL, key).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "get payload %q", key)
	}
	return v, true, nil
}

// Set upserts the payload for key.
func (s *PayloadStorage) Set(ctx context.Context, key, value string) error {
	if _, err := s.pool.Exec(ctx, setPayloadSQL, key, value); err != nil {
		return errors.Wrapf(err, "set payload %q", key)
	}
	return nil
}

// Remove deletes the payload for key. Removing a missing key is not an error.
func (s *PayloadStorage) Remove(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, removePayloadSQL, key); err != nil {
		return errors.Wrapf(err, "remove payload %q", key)
	}
	return nil
}
