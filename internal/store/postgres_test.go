package store

import (
	"context"
	"os"
	"testing"

	mydb "github.com/TimurManjosov/interceptor/internal/db"
)

// TestPostgresStore_Contract runs against a real database when TEST_DB_DSN is set.
func TestPostgresStore_Contract(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	runContract(t, func(t *testing.T) Store {
		ctx := context.Background()
		pool, err := mydb.NewPool(ctx, dsn)
		if err != nil {
			t.Fatalf("NewPool failed: %v", err)
		}
		pg := NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			t.Fatalf("Migrate failed: %v", err)
		}
		if _, err := pool.Exec(ctx, "TRUNCATE "+ruleSetTable+" RESTART IDENTITY"); err != nil {
			t.Fatalf("truncate failed: %v", err)
		}
		t.Cleanup(func() { _ = pg.Close() })
		return pg
	})
}
