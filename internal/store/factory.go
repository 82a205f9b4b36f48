package store

import (
	"context"
	"fmt"

	mydb "github.com/TimurManjosov/interceptor/internal/db"
)

// Supported store types.
const (
	TypeMemory   = "memory"
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Options selects and configures a store backend.
type Options struct {
	Type       string // memory, postgres or sqlite
	DSN        string // postgres connection string
	SQLitePath string // sqlite database file
}

// NewStore creates a new store based on the given store type.
// Supported types: "memory", "postgres", "sqlite"
func NewStore(ctx context.Context, opts Options) (Store, error) {
	switch opts.Type {
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypePostgres:
		pool, err := mydb.NewPool(ctx, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		pg := NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case TypeSQLite:
		return NewSQLiteStore(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", opts.Type)
	}
}
