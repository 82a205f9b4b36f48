package rules

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the validators.
var (
	ErrInvalidConditionType = errors.New("invalid condition type")
	ErrInvalidCompare       = errors.New("invalid compare operator")
	ErrInvalidMode          = errors.New("invalid mode")
)

// ValidConditionType reports whether t is one of the closed set of types.
func ValidConditionType(t ConditionType) bool {
	_, ok := conditionTypeLabels.label(t)
	return ok
}

// ValidCompare reports whether c is one of the closed set of comparisons.
func ValidCompare(c Compare) bool {
	_, ok := compareLabels.label(c)
	return ok
}

// ValidMode reports whether m is whitelist or blacklist.
func ValidMode(m Mode) bool {
	_, ok := modeLabels.label(m)
	return ok
}

// ParseCondition builds a condition from operator-supplied words.
// Type and compare accept either the tag or the label; target is taken literally.
func ParseCondition(typ, compare, target string) (Condition, error) {
	t, ok := LookupConditionType(typ)
	if !ok {
		return Condition{}, fmt.Errorf("%w: %q", ErrInvalidConditionType, typ)
	}
	c, ok := LookupCompare(compare)
	if !ok {
		return Condition{}, fmt.Errorf("%w: %q", ErrInvalidCompare, compare)
	}
	return Condition{Type: t, Compare: c, Target: target}, nil
}

// ValidateCondition checks that a condition only uses known enum values.
// It is a pure function with no side effects.
func ValidateCondition(c Condition) error {
	if !ValidConditionType(c.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidConditionType, c.Type)
	}
	if !ValidCompare(c.Compare) {
		return fmt.Errorf("%w: %q", ErrInvalidCompare, c.Compare)
	}
	return nil
}

// ValidateRule validates every condition in r. An empty rule is valid.
func ValidateRule(r Rule) error {
	for i, c := range r {
		if err := ValidateCondition(c); err != nil {
			return fmt.Errorf("condition[%d]: %w", i, err)
		}
	}
	return nil
}
