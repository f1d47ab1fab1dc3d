package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/feedbackkit/internal/client/storage/migrations"
	"github.com/dmitrijs2005/feedbackkit/internal/common"
	"github.com/dmitrijs2005/feedbackkit/internal/dbx"
)

// SQLiteMedium is a key/value table in a local SQLite database. It plays
// the part of the platform keychain and preferences store.
type SQLiteMedium struct {
	db   *sql.DB
	conn dbx.DBTX
}

var (
	_ Medium = (*SQLiteMedium)(nil)
	_ Lister = (*SQLiteMedium)(nil)
)

// OpenSQLiteMedium opens (creating when needed) the database at dsn and
// migrates it.
func OpenSQLiteMedium(ctx context.Context, dsn string) (*SQLiteMedium, error) {
	db, err := dbx.OpenSQLite(ctx, dsn, migrations.FS)
	if err != nil {
		return nil, err
	}
	return &SQLiteMedium{db: db, conn: db}, nil
}

func (m *SQLiteMedium) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

func (m *SQLiteMedium) Read(ctx context.Context, name string) ([]byte, error) {
	var value []byte
	err := m.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", name, err)
	}
	return value, nil
}

func (m *SQLiteMedium) Write(ctx context.Context, name string, data []byte) error {
	_, err := m.conn.ExecContext(ctx, `
		INSERT INTO kv (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, name, data)
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", name, err)
	}
	return nil
}

func (m *SQLiteMedium) Delete(ctx context.Context, name string) error {
	_, err := m.conn.ExecContext(ctx, `DELETE FROM kv WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", name, err)
	}
	return nil
}

func (m *SQLiteMedium) List(ctx context.Context) ([]string, error) {
	rows, err := m.conn.QueryContext(ctx, `SELECT name FROM kv ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list kv: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan kv row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kv rows: %w", err)
	}
	return names, nil
}

// Update runs fn against a transactional view of the medium. Writes made
// through tx become visible together or not at all.
func (m *SQLiteMedium) Update(ctx context.Context, fn func(ctx context.Context, tx Medium) error) error {
	if m.db == nil {
		return fn(ctx, m)
	}
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &SQLiteMedium{conn: tx})
	})
}
