package engine

import (
	"fmt"

	"github.com/TimurManjosov/interceptor/internal/rules"
	"github.com/TimurManjosov/interceptor/internal/store"
)

// EvaluateCondition applies one condition to attrs.
func EvaluateCondition(c rules.Condition, attrs Attributes) (bool, error) {
	value, err := attrs.Value(c.Type)
	if err != nil {
		return false, err
	}
	h, ok := getCompareHandler(c.Compare)
	if !ok {
		return false, fmt.Errorf("%w: compare %q", ErrInvariant, c.Compare)
	}
	return h.Check(value, c.Target), nil
}

// MatchesRule reports whether every condition of r holds. An empty rule
// matches every event.
func MatchesRule(r rules.Rule, attrs Attributes) (bool, error) {
	for i, c := range r {
		ok, err := EvaluateCondition(c, attrs)
		if err != nil {
			return false, fmt.Errorf("condition[%d]: %w", i, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Decide computes the interception decision.
//
// Privileged callers are always allowed. Otherwise enabled rule sets are
// visited in the given order and the first matching one decides: blacklist
// denies, whitelist allows. When none matches the event is denied.
func Decide(sets []store.RuleSet, attrs Attributes, privileged bool) (Result, error) {
	if privileged {
		return Result{Allowed: true, Reason: ReasonPrivileged}, nil
	}

	for _, rs := range sets {
		if !rs.Enabled {
			continue
		}
		matched, err := MatchesRule(rs.Rule, attrs)
		if err != nil {
			return Result{Reason: ReasonError, RuleSetID: rs.ID}, fmt.Errorf("rule set %d: %w", rs.ID, err)
		}
		if !matched {
			continue
		}
		switch rs.Mode {
		case rules.ModeBlacklist:
			return Result{Reason: ReasonBlacklistMatch, RuleSetID: rs.ID}, nil
		case rules.ModeWhitelist:
			return Result{Allowed: true, Reason: ReasonWhitelistMatch, RuleSetID: rs.ID}, nil
		default:
			return Result{Reason: ReasonError, RuleSetID: rs.ID}, fmt.Errorf("rule set %d: %w: mode %q", rs.ID, ErrInvariant, rs.Mode)
		}
	}

	return Result{Reason: ReasonDefaultDeny}, nil
}
