package store

import (
	"context"
	"errors"
	"testing"

	"github.com/TimurManjosov/interceptor/internal/rules"
)

// runContract exercises the behaviour every Store implementation must share.
// makeStore must return a clean, isolated store.
func runContract(t *testing.T, makeStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("create applies defaults and assigns ids", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		first, err := s.Create(ctx, DefaultCreateParams("first"))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		second, err := s.Create(ctx, CreateParams{Name: "second", Enabled: false})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if first.ID == 0 || second.ID <= first.ID {
			t.Fatalf("ids not increasing: %d, %d", first.ID, second.ID)
		}
		if first.Mode != rules.ModeWhitelist || !first.Enabled || len(first.Rule) != 0 {
			t.Errorf("unexpected defaults: %+v", first)
		}
		if second.Mode != rules.ModeWhitelist {
			t.Errorf("empty mode should default to whitelist, got %q", second.Mode)
		}
		if first.CreatedAt.IsZero() || !first.CreatedAt.Equal(first.UpdatedAt) {
			t.Errorf("timestamps not initialised: %+v", first)
		}
	})

	t.Run("query preserves creation order and filters", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		names := []string{"c", "a", "b"}
		for _, n := range names {
			if _, err := s.Create(ctx, DefaultCreateParams(n)); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		all, err := s.Query(ctx, Filter{})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 rule sets, got %d", len(all))
		}
		for i, n := range names {
			if all[i].Name != n {
				t.Errorf("position %d: got %q, want %q", i, all[i].Name, n)
			}
		}

		name := "a"
		byName, err := s.Query(ctx, Filter{Name: &name})
		if err != nil || len(byName) != 1 || byName[0].Name != "a" {
			t.Fatalf("Query by name: %v %v", byName, err)
		}

		got, err := Get(ctx, s, all[2].ID)
		if err != nil || got.Name != "b" {
			t.Fatalf("Get: %+v %v", got, err)
		}
		if _, err := Get(ctx, s, 9999); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get unknown id: %v, want ErrNotFound", err)
		}
	})

	t.Run("update applies partial fields and refreshes updatedAt", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		rs, err := s.Create(ctx, DefaultCreateParams("original"))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		rule := rules.Rule{
			{Type: rules.TypePlatform, Compare: rules.CompareEq, Target: "qq"},
			{Type: rules.TypeMessage, Compare: rules.CompareIn, Target: "hi there"},
		}
		mode := rules.ModeBlacklist
		if err := s.Update(ctx, ByID(rs.ID), Patch{Rule: &rule, Mode: &mode}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got, err := Get(ctx, s, rs.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Name != "original" {
			t.Errorf("name changed unexpectedly: %q", got.Name)
		}
		if got.Mode != rules.ModeBlacklist {
			t.Errorf("mode = %q, want blacklist", got.Mode)
		}
		if len(got.Rule) != 2 || got.Rule[1] != rule[1] {
			t.Errorf("rule = %+v, want %+v", got.Rule, rule)
		}
		if got.UpdatedAt.Before(rs.UpdatedAt) {
			t.Errorf("updatedAt went backwards: %v < %v", got.UpdatedAt, rs.UpdatedAt)
		}
		if !got.CreatedAt.Equal(rs.CreatedAt) {
			t.Errorf("createdAt changed: %v != %v", got.CreatedAt, rs.CreatedAt)
		}
	})

	t.Run("query results are independent copies", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		rs, err := s.Create(ctx, CreateParams{Name: "x", Rule: rules.Rule{{Type: rules.TypeUser, Compare: rules.CompareEq, Target: "1"}}, Enabled: true})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		got, _ := Get(ctx, s, rs.ID)
		got.Rule[0].Target = "mutated"

		again, _ := Get(ctx, s, rs.ID)
		if again.Rule[0].Target != "1" {
			t.Fatalf("store shares rule storage with callers")
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		rs, err := s.Create(ctx, DefaultCreateParams("doomed"))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := s.Delete(ctx, ByID(rs.ID)); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := s.Delete(ctx, ByID(rs.ID)); err != nil {
			t.Fatalf("second Delete failed: %v", err)
		}
		if _, err := Get(ctx, s, rs.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("update of a missing rule set reports not found", func(t *testing.T) {
		s := makeStore(t)
		ctx := context.Background()

		rs, err := s.Create(ctx, DefaultCreateParams("gone"))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := s.Delete(ctx, ByID(rs.ID)); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		name := "ghost"
		if err := s.Update(ctx, ByID(rs.ID), Patch{Name: &name}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Update of deleted rule set = %v, want ErrNotFound", err)
		}
		sets, err := s.Query(ctx, Filter{})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(sets) != 0 {
			t.Fatalf("update resurrected a rule set: %+v", sets)
		}
	})
}
