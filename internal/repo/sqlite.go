package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type sqliteBackend struct {
	db *sql.DB
}

// NewSQLite returns a Store on a database prepared by db.OpenSQLite.
func NewSQLite(db *sql.DB) *Repo {
	return newRepo(&sqliteBackend{db: db})
}

func (b *sqliteBackend) get(ctx context.Context, id string) ([]byte, error) {
	var data string
	err := b.db.QueryRowContext(ctx, `SELECT data FROM profiles WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (b *sqliteBackend) put(ctx context.Context, id string, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO profiles (id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		id, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (b *sqliteBackend) create(ctx context.Context, id string, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO profiles (id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}
