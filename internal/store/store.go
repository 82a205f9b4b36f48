package store

import (
	"context"
	"errors"
	"time"

	"github.com/TimurManjosov/interceptor/internal/rules"
)

// ErrNotFound is returned by Get and Update when no rule set matches.
var ErrNotFound = errors.New("rule set not found")

// Store defines the interface for rule-set persistence operations.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// Query returns every rule set matching the filter in creation order
	// (ascending id). An empty filter returns all rule sets.
	Query(ctx context.Context, filter Filter) ([]RuleSet, error)

	// Create inserts a new rule set and assigns its id and timestamps.
	Create(ctx context.Context, params CreateParams) (RuleSet, error)

	// Update applies a partial update to every matching rule set and
	// refreshes UpdatedAt. It returns ErrNotFound when nothing matched.
	Update(ctx context.Context, filter Filter, patch Patch) error

	// Delete removes every matching rule set. Deleting nothing is not an error.
	Delete(ctx context.Context, filter Filter) error

	// Close releases any resources held by the store.
	Close() error
}

// RuleSet is a named, persisted rule combined with a mode and an enabled flag.
type RuleSet struct {
	ID        int64      `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Mode      rules.Mode `json:"mode" yaml:"mode"`
	Rule      rules.Rule `json:"rule" yaml:"rule"`
	Enabled   bool       `json:"enabled" yaml:"enabled"`
	CreatedAt time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate the rule without
// touching the stored value.
func (r RuleSet) Clone() RuleSet {
	r.Rule = r.Rule.Clone()
	return r
}

// CreateParams contains the caller-controlled fields of a new rule set.
type CreateParams struct {
	Name    string     `json:"name"`
	Mode    rules.Mode `json:"mode"`
	Rule    rules.Rule `json:"rule"`
	Enabled bool       `json:"enabled"`
}

// DefaultCreateParams returns the lifecycle defaults for a new rule set:
// whitelist, empty rule, enabled.
func DefaultCreateParams(name string) CreateParams {
	return CreateParams{
		Name:    name,
		Mode:    rules.ModeWhitelist,
		Rule:    rules.Rule{},
		Enabled: true,
	}
}

// normalize fills in a mode when none was given; mode is never stored empty.
func (p CreateParams) normalize() CreateParams {
	if p.Mode == "" {
		p.Mode = rules.ModeWhitelist
	}
	p.Rule = p.Rule.Clone()
	return p
}

// Filter selects rule sets by field equality. Nil fields are ignored.
type Filter struct {
	ID      *int64
	Name    *string
	Mode    *rules.Mode
	Enabled *bool
}

// ByID returns a filter that matches a single id.
func ByID(id int64) Filter {
	return Filter{ID: &id}
}

// Matches reports whether r satisfies every set field of f.
func (f Filter) Matches(r RuleSet) bool {
	if f.ID != nil && *f.ID != r.ID {
		return false
	}
	if f.Name != nil && *f.Name != r.Name {
		return false
	}
	if f.Mode != nil && *f.Mode != r.Mode {
		return false
	}
	if f.Enabled != nil && *f.Enabled != r.Enabled {
		return false
	}
	return true
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name    *string
	Mode    *rules.Mode
	Rule    *rules.Rule
	Enabled *bool
}

// IsEmpty reports whether the patch changes no field.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Mode == nil && p.Rule == nil && p.Enabled == nil
}

// Apply writes the patch onto r. It does not touch UpdatedAt.
func (p Patch) Apply(r *RuleSet) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Mode != nil {
		r.Mode = *p.Mode
	}
	if p.Rule != nil {
		r.Rule = p.Rule.Clone()
	}
	if p.Enabled != nil {
		r.Enabled = *p.Enabled
	}
}

// Fields returns the patch as a field map, used for audit records.
func (p Patch) Fields() map[string]any {
	out := make(map[string]any, 4)
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.Mode != nil {
		out["mode"] = string(*p.Mode)
	}
	if p.Rule != nil {
		out["rule"] = p.Rule.String()
	}
	if p.Enabled != nil {
		out["enabled"] = *p.Enabled
	}
	return out
}

// Get returns the rule set with the given id or ErrNotFound.
func Get(ctx context.Context, s Store, id int64) (RuleSet, error) {
	found, err := s.Query(ctx, ByID(id))
	if err != nil {
		return RuleSet{}, err
	}
	if len(found) == 0 {
		return RuleSet{}, ErrNotFound
	}
	return found[0], nil
}
