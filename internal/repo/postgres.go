package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Store on the profiles table created by db.RunMigrations.
// Updates also take a transaction-scoped advisory lock so several server
// processes can share one database.
func NewPostgres(pool *pgxpool.Pool) *Repo {
	return newRepo(&postgresBackend{pool: pool})
}

func (b *postgresBackend) get(ctx context.Context, id string) ([]byte, error) {
	var data string
	err := b.pool.QueryRow(ctx, `SELECT data::text FROM profiles WHERE id=$1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (b *postgresBackend) put(ctx context.Context, id string, data []byte) error {
	_, err := b.pool.Exec(ctx, `INSERT INTO profiles (id, data) VALUES ($1, $2::jsonb)
		ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`, id, string(data))
	return err
}

func (b *postgresBackend) create(ctx context.Context, id string, data []byte) error {
	_, err := b.pool.Exec(ctx, `INSERT INTO profiles (id, data) VALUES ($1, $2::jsonb)
		ON CONFLICT (id) DO NOTHING`, id, string(data))
	return err
}

func (b *postgresBackend) modify(ctx context.Context, id string, fn func(data []byte, found bool) ([]byte, error)) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, id); err != nil {
		return err
	}
	var current string
	found := true
	err = tx.QueryRow(ctx, `SELECT data::text FROM profiles WHERE id=$1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		found = false
	} else if err != nil {
		return err
	}

	next, err := fn([]byte(current), found)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO profiles (id, data) VALUES ($1, $2::jsonb)
		ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`, id, string(next)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
