package memory

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // Postgres driver
)

// PostgresBackend is a persistent Backend for deployments that already run
// Postgres for other state, keyed on (conversation_id, key) the same way
// SQLiteBackend is.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend opens dsn and ensures the memory table exists.
func NewPostgresBackend(dsn string) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("memory: open postgres: %w", err)
	}
	b := &PostgresBackend{db: db}
	if err := b.init(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *PostgresBackend) init() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS turn_memory (
			conversation_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (conversation_id, key)
		)
	`)
	if err != nil {
		return fmt.Errorf("memory: create table: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Read(ctx context.Context, conversationID, key string, authorized bool) ReadResult {
	if !authorized {
		return ReadResult{Status: ReadUnauthorized}
	}
	var value string
	row := b.db.QueryRowContext(ctx,
		`SELECT value FROM turn_memory WHERE conversation_id = $1 AND key = $2`,
		conversationID, key)
	switch err := row.Scan(&value); {
	case err == sql.ErrNoRows:
		return ReadResult{Status: ReadNotFound}
	case err != nil:
		return ReadResult{Status: ReadUnavailable}
	default:
		return ReadResult{Status: ReadSuccess, Value: value}
	}
}

func (b *PostgresBackend) Write(ctx context.Context, conversationID, key, value string, authorized bool) WriteResult {
	if !authorized {
		return WriteResult{Status: WriteUnauthorized}
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO turn_memory (conversation_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (conversation_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, conversationID, key, value)
	if err != nil {
		return WriteResult{Status: WriteFailed}
	}
	return WriteResult{Status: WriteSuccess}
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
