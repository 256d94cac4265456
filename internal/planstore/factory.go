package planstore

import (
	"context"
	"strings"
)

// NewStore creates a postgres-backed store when databaseURL is set, a SQLite
// store when sqlitePath is set, otherwise in-memory.
func NewStore(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresStore(ctx, databaseURL)
	}
	if strings.TrimSpace(sqlitePath) != "" {
		return OpenSQLite(ctx, sqlitePath)
	}
	return NewInMemoryStore(), nil
}

// Backend names the storage kind for logs.
func Backend(s Store) string {
	switch s.(type) {
	case *PostgresStore:
		return "postgres"
	case *SQLiteStore:
		return "sqlite"
	default:
		return "memory"
	}
}
