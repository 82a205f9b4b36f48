package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewStore_Memory(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, Options{Type: TypeMemory})
	if err != nil {
		t.Fatalf("NewStore('memory') failed: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
	defer store.Close()

	if _, err := store.Create(ctx, DefaultCreateParams("test")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	sets, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(sets) != 1 {
		t.Errorf("Expected 1 rule set, got %d", len(sets))
	}
}

func TestNewStore_SQLite(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, Options{Type: TypeSQLite, SQLitePath: filepath.Join(t.TempDir(), "f.db")})
	if err != nil {
		t.Fatalf("NewStore('sqlite') failed: %v", err)
	}
	defer store.Close()

	if _, ok := store.(*SQLiteStore); !ok {
		t.Fatalf("expected *SQLiteStore, got %T", store)
	}
}

func TestNewStore_UnsupportedType(t *testing.T) {
	ctx := context.Background()
	_, err := NewStore(ctx, Options{Type: "invalid-type"})
	if err == nil {
		t.Fatal("Expected error for unsupported store type")
	}
	expectedMsg := "unsupported store type: invalid-type"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
}

func TestNewStore_PostgresWithInvalidDSN(t *testing.T) {
	ctx := context.Background()
	// Invalid DSN should fail during pool creation
	_, err := NewStore(ctx, Options{Type: TypePostgres, DSN: "invalid-dsn"})
	if err == nil {
		t.Fatal("Expected error for invalid DSN")
	}
}

func TestNewStore_CaseSensitivity(t *testing.T) {
	ctx := context.Background()

	// Store type should be case-sensitive (lowercase expected)
	if _, err := NewStore(ctx, Options{Type: "Memory"}); err == nil {
		t.Error("Expected error for 'Memory' (capital M)")
	}
	if _, err := NewStore(ctx, Options{Type: "SQLITE"}); err == nil {
		t.Error("Expected error for 'SQLITE' (all caps)")
	}
}
