package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TimurManjosov/interceptor/internal/rules"
)

const (
	ruleSetTable   = "interceptor_rule_sets"
	ruleSetColumns = "id, name, mode, rule, enabled, created_at, updated_at"
	emptyJSONArray = "[]"
)

// placeholder renders the n-th (1-based) bind parameter for a SQL dialect.
type placeholder func(n int) string

func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func questionPlaceholder(int) string { return "?" }

// sqlArgs accumulates bind arguments and renders their placeholders.
type sqlArgs struct {
	ph   placeholder
	args []any
}

func (a *sqlArgs) add(v any) string {
	a.args = append(a.args, v)
	return a.ph(len(a.args))
}

// boolValue lets SQLite store booleans as integers.
type boolValue func(bool) any

// whereClause renders f as " WHERE ..." (or "" for an empty filter).
func whereClause(f Filter, a *sqlArgs, boolv boolValue) string {
	var conds []string
	if f.ID != nil {
		conds = append(conds, "id = "+a.add(*f.ID))
	}
	if f.Name != nil {
		conds = append(conds, "name = "+a.add(*f.Name))
	}
	if f.Mode != nil {
		conds = append(conds, "mode = "+a.add(string(*f.Mode)))
	}
	if f.Enabled != nil {
		conds = append(conds, "enabled = "+a.add(boolv(*f.Enabled)))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// setClause renders the SET list of an UPDATE. updatedAt is always written.
func setClause(p Patch, updatedAt any, a *sqlArgs, boolv boolValue) (string, error) {
	var sets []string
	if p.Name != nil {
		sets = append(sets, "name = "+a.add(*p.Name))
	}
	if p.Mode != nil {
		sets = append(sets, "mode = "+a.add(string(*p.Mode)))
	}
	if p.Rule != nil {
		raw, err := marshalRule(*p.Rule)
		if err != nil {
			return "", err
		}
		sets = append(sets, "rule = "+a.add(raw))
	}
	if p.Enabled != nil {
		sets = append(sets, "enabled = "+a.add(boolv(*p.Enabled)))
	}
	sets = append(sets, "updated_at = "+a.add(updatedAt))
	return strings.Join(sets, ", "), nil
}

func marshalRule(r rules.Rule) (string, error) {
	if len(r) == 0 {
		return emptyJSONArray, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode rule: %w", err)
	}
	return string(b), nil
}

func unmarshalRule(raw []byte) (rules.Rule, error) {
	out := rules.Rule{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode rule: %w", err)
	}
	if out == nil {
		out = rules.Rule{}
	}
	return out, nil
}
