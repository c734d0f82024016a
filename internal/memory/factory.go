package memory

import (
	"fmt"
	"strings"

	"github.com/haasonsaas/turnruntime/internal/config"
)

// NewBackend constructs the Backend selected by cfg.Backend.
func NewBackend(cfg config.MemoryConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "inmemory":
		return NewInMemoryBackend(), nil
	case "disabled":
		return NewDisabledBackend(), nil
	case "sqlite":
		return NewSQLiteBackend(cfg.SQLite.Path)
	case "postgres":
		return NewPostgresBackend(cfg.Postgres.DSN)
	default:
		return nil, fmt.Errorf("memory: unknown backend %q", cfg.Backend)
	}
}
