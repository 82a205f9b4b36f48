package store

import (
	"context"
	"sync"
	"testing"

	"github.com/TimurManjosov/interceptor/internal/rules"
)

func TestMemoryStore_Contract(t *testing.T) {
	runContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStore_FilterByEnabled(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, DefaultCreateParams("on")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, CreateParams{Name: "off", Mode: rules.ModeBlacklist}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	enabled := true
	got, err := store.Query(ctx, Filter{Enabled: &enabled})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "on" {
		t.Fatalf("expected only 'on', got %+v", got)
	}

	mode := rules.ModeBlacklist
	got, _ = store.Query(ctx, Filter{Mode: &mode})
	if len(got) != 1 || got[0].Name != "off" {
		t.Fatalf("expected only 'off', got %+v", got)
	}
}

func TestMemoryStore_ConcurrentCreate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Create(ctx, DefaultCreateParams("n")); err != nil {
				t.Errorf("Create failed: %v", err)
			}
		}()
	}
	wg.Wait()

	all, _ := store.Query(ctx, Filter{})
	if len(all) != 50 {
		t.Fatalf("expected 50 rule sets, got %d", len(all))
	}
	seen := make(map[int64]bool)
	for _, rs := range all {
		if seen[rs.ID] {
			t.Fatalf("duplicate id %d", rs.ID)
		}
		seen[rs.ID] = true
	}
}

func TestPatch_ApplyAndFields(t *testing.T) {
	name := "renamed"
	enabled := false
	p := Patch{Name: &name, Enabled: &enabled}

	rs := RuleSet{Name: "before", Enabled: true, Mode: rules.ModeWhitelist}
	p.Apply(&rs)
	if rs.Name != "renamed" || rs.Enabled {
		t.Fatalf("Apply produced %+v", rs)
	}
	if rs.Mode != rules.ModeWhitelist {
		t.Fatalf("Apply touched mode")
	}

	fields := p.Fields()
	if len(fields) != 2 || fields["name"] != "renamed" || fields["enabled"] != false {
		t.Fatalf("Fields() = %v", fields)
	}
	if p.IsEmpty() || !(Patch{}).IsEmpty() {
		t.Fatalf("IsEmpty mismatch")
	}
}
