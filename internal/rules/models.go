package rules

import "strings"

// ConditionType names the event attribute a condition inspects.
type ConditionType string

// Supported condition types (closed set).
const (
	TypePlatform ConditionType = "platform"
	TypeGuild    ConditionType = "guild"
	TypeUser     ConditionType = "user"
	TypeMessage  ConditionType = "message"
)

// Compare is the string comparison applied between an attribute and a target.
type Compare string

// Supported comparisons (closed set).
//
// CompareIn and CompareNin test substring containment, not set membership.
const (
	CompareEq  Compare = "eq"
	CompareNeq Compare = "neq"
	CompareIn  Compare = "in"
	CompareNin Compare = "nin"
)

// Mode decides what a matching rule set does to an event.
type Mode string

const (
	ModeWhitelist Mode = "whitelist"
	ModeBlacklist Mode = "blacklist"
)

// Toggle returns the opposite mode. Anything that is not a blacklist toggles to blacklist.
func (m Mode) Toggle() Mode {
	if m == ModeBlacklist {
		return ModeWhitelist
	}
	return ModeBlacklist
}

// Condition is a single atomic predicate over one event attribute.
type Condition struct {
	Type    ConditionType `json:"type" yaml:"type"`
	Compare Compare       `json:"compare" yaml:"compare"`
	Target  string        `json:"target" yaml:"target"`
}

// String renders the condition as "type compare target".
func (c Condition) String() string {
	return string(c.Type) + " " + string(c.Compare) + " " + c.Target
}

// Rule is an ordered list of conditions combined with AND semantics.
// An empty rule matches every event.
type Rule []Condition

// Clone returns an independent copy of r. The result is never nil.
func (r Rule) Clone() Rule {
	out := make(Rule, len(r))
	copy(out, r)
	return out
}

// String renders the rule as a comma-separated list of conditions.
func (r Rule) String() string {
	parts := make([]string, 0, len(r))
	for _, c := range r {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ",")
}
