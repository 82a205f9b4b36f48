package rules

import "fmt"

// labelTable is a static bidirectional mapping between enum tags and the
// labels shown to operators. It is built once at package init and never mutated.
type labelTable[T ~string] struct {
	order   []T
	byTag   map[T]string
	byLabel map[string]T
}

type labelPair[T ~string] struct {
	tag   T
	label string
}

func newLabelTable[T ~string](pairs ...labelPair[T]) *labelTable[T] {
	t := &labelTable[T]{
		order:   make([]T, 0, len(pairs)),
		byTag:   make(map[T]string, len(pairs)),
		byLabel: make(map[string]T, len(pairs)),
	}
	for _, p := range pairs {
		if _, dup := t.byTag[p.tag]; dup {
			panic(fmt.Sprintf("rules: duplicate tag %q", p.tag))
		}
		if _, dup := t.byLabel[p.label]; dup {
			panic(fmt.Sprintf("rules: duplicate label %q", p.label))
		}
		t.order = append(t.order, p.tag)
		t.byTag[p.tag] = p.label
		t.byLabel[p.label] = p.tag
	}
	return t
}

// lookup resolves either a tag or a label to its tag.
func (t *labelTable[T]) lookup(s string) (T, bool) {
	if _, ok := t.byTag[T(s)]; ok {
		return T(s), true
	}
	tag, ok := t.byLabel[s]
	return tag, ok
}

func (t *labelTable[T]) label(tag T) (string, bool) {
	l, ok := t.byTag[tag]
	return l, ok
}

func (t *labelTable[T]) tags() []T {
	out := make([]T, len(t.order))
	copy(out, t.order)
	return out
}

var (
	conditionTypeLabels = newLabelTable(
		labelPair[ConditionType]{TypePlatform, "Platform"},
		labelPair[ConditionType]{TypeGuild, "Guild"},
		labelPair[ConditionType]{TypeUser, "User"},
		labelPair[ConditionType]{TypeMessage, "Message"},
	)
	compareLabels = newLabelTable(
		labelPair[Compare]{CompareEq, "equals"},
		labelPair[Compare]{CompareNeq, "not-equals"},
		labelPair[Compare]{CompareIn, "contains"},
		labelPair[Compare]{CompareNin, "not-contains"},
	)
	modeLabels = newLabelTable(
		labelPair[Mode]{ModeWhitelist, "allow-list"},
		labelPair[Mode]{ModeBlacklist, "deny-list"},
	)
)

// ConditionTypes returns every supported condition type in display order.
func ConditionTypes() []ConditionType { return conditionTypeLabels.tags() }

// Compares returns every supported comparison in display order.
func Compares() []Compare { return compareLabels.tags() }

// Modes returns both modes in display order.
func Modes() []Mode { return modeLabels.tags() }

// LookupConditionType resolves an operator-supplied tag or label.
func LookupConditionType(s string) (ConditionType, bool) { return conditionTypeLabels.lookup(s) }

// LookupCompare resolves an operator-supplied tag or label.
func LookupCompare(s string) (Compare, bool) { return compareLabels.lookup(s) }

// LookupMode resolves an operator-supplied tag or label.
func LookupMode(s string) (Mode, bool) { return modeLabels.lookup(s) }

// Label returns the operator-facing label of a condition type.
func (t ConditionType) Label() string {
	if l, ok := conditionTypeLabels.label(t); ok {
		return l
	}
	return string(t)
}

// Label returns the operator-facing label of a comparison.
func (c Compare) Label() string {
	if l, ok := compareLabels.label(c); ok {
		return l
	}
	return string(c)
}

// Label returns the operator-facing label of a mode.
func (m Mode) Label() string {
	if l, ok := modeLabels.label(m); ok {
		return l
	}
	return string(m)
}
