package memory

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteBackend is a persistent local Backend: a single table keyed on
// (conversation_id, key), upserted on every write.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (creating if necessary) the SQLite database at
// path and ensures the memory table exists.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("memory: open sqlite: %w", err)
	}
	b := &SQLiteBackend{db: db}
	if err := b.init(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) init() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS turn_memory (
			conversation_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (conversation_id, key)
		)
	`)
	if err != nil {
		return fmt.Errorf("memory: create table: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Read(ctx context.Context, conversationID, key string, authorized bool) ReadResult {
	if !authorized {
		return ReadResult{Status: ReadUnauthorized}
	}
	var value string
	row := b.db.QueryRowContext(ctx,
		`SELECT value FROM turn_memory WHERE conversation_id = ? AND key = ?`,
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

func (b *SQLiteBackend) Write(ctx context.Context, conversationID, key, value string, authorized bool) WriteResult {
	if !authorized {
		return WriteResult{Status: WriteUnauthorized}
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO turn_memory (conversation_id, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(conversation_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, conversationID, key, value)
	if err != nil {
		return WriteResult{Status: WriteFailed}
	}
	return WriteResult{Status: WriteSuccess}
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
