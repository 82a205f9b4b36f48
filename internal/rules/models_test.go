package rules

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Label table
// ---------------------------------------------------------------------------

func TestConditionTypeLabels_Bidirectional(t *testing.T) {
	types := ConditionTypes()
	if len(types) != 4 {
		t.Fatalf("expected 4 condition types, got %d", len(types))
	}
	for _, typ := range types {
		label := typ.Label()
		if label == string(typ) {
			t.Errorf("type %q has no distinct label", typ)
		}
		if got, ok := LookupConditionType(label); !ok || got != typ {
			t.Errorf("label %q -> %q (ok=%v), want %q", label, got, ok, typ)
		}
		if got, ok := LookupConditionType(string(typ)); !ok || got != typ {
			t.Errorf("tag %q -> %q (ok=%v), want %q", typ, got, ok, typ)
		}
	}
	for label, tag := range conditionTypeLabels.byLabel {
		if back, _ := conditionTypeLabels.label(tag); back != label {
			t.Errorf("reverse mismatch: %q -> %q -> %q", label, tag, back)
		}
	}
}

func TestCompareLabels_Bidirectional(t *testing.T) {
	compares := Compares()
	if len(compares) != 4 {
		t.Fatalf("expected 4 compares, got %d", len(compares))
	}
	for _, c := range compares {
		if got, ok := LookupCompare(c.Label()); !ok || got != c {
			t.Errorf("label %q -> %q (ok=%v), want %q", c.Label(), got, ok, c)
		}
		if got, ok := LookupCompare(string(c)); !ok || got != c {
			t.Errorf("tag %q -> %q (ok=%v), want %q", c, got, ok, c)
		}
	}
	for label, tag := range compareLabels.byLabel {
		if back, _ := compareLabels.label(tag); back != label {
			t.Errorf("reverse mismatch: %q -> %q -> %q", label, tag, back)
		}
	}
}

func TestModeLabels_Bidirectional(t *testing.T) {
	for _, m := range Modes() {
		if got, ok := LookupMode(m.Label()); !ok || got != m {
			t.Errorf("label %q -> %q (ok=%v), want %q", m.Label(), got, ok, m)
		}
	}
	if _, ok := LookupMode("greylist"); ok {
		t.Error("unexpected mode for greylist")
	}
}

func TestNewLabelTable_PanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate label")
		}
	}()
	newLabelTable(
		labelPair[Mode]{ModeWhitelist, "same"},
		labelPair[Mode]{ModeBlacklist, "same"},
	)
}

func TestModeToggle(t *testing.T) {
	if got := ModeWhitelist.Toggle(); got != ModeBlacklist {
		t.Errorf("whitelist toggle = %q", got)
	}
	if got := ModeBlacklist.Toggle(); got != ModeWhitelist {
		t.Errorf("blacklist toggle = %q", got)
	}
}

func TestRuleClone(t *testing.T) {
	var nilRule Rule
	if c := nilRule.Clone(); c == nil || len(c) != 0 {
		t.Fatalf("clone of nil rule = %#v, want empty non-nil", c)
	}

	r := Rule{{Type: TypePlatform, Compare: CompareEq, Target: "qq"}}
	c := r.Clone()
	c[0].Target = "discord"
	if r[0].Target != "qq" {
		t.Fatalf("clone shares storage with original")
	}
}

func TestRuleString(t *testing.T) {
	r := Rule{
		{Type: TypePlatform, Compare: CompareEq, Target: "qq"},
		{Type: TypeMessage, Compare: CompareIn, Target: "hello"},
	}
	if got, want := r.String(), "platform eq qq,message in hello"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		compare string
		target  string
		want    Condition
		wantErr error
	}{
		{name: "tags", typ: "platform", compare: "eq", target: "qq", want: Condition{TypePlatform, CompareEq, "qq"}},
		{name: "labels", typ: "Guild", compare: "contains", target: "42", want: Condition{TypeGuild, CompareIn, "42"}},
		{name: "empty target", typ: "message", compare: "nin", target: "", want: Condition{TypeMessage, CompareNin, ""}},
		{name: "bad type", typ: "channel", compare: "eq", target: "x", wantErr: ErrInvalidConditionType},
		{name: "bad compare", typ: "user", compare: "gt", target: "x", wantErr: ErrInvalidCompare},
		{name: "case sensitive", typ: "PLATFORM", compare: "eq", target: "x", wantErr: ErrInvalidConditionType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCondition(tt.typ, tt.compare, tt.target)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestValidateRule(t *testing.T) {
	if err := ValidateRule(nil); err != nil {
		t.Fatalf("empty rule should be valid: %v", err)
	}

	good := Rule{{Type: TypeUser, Compare: CompareNeq, Target: "1"}}
	if err := ValidateRule(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badType := Rule{good[0], {Type: "channel", Compare: CompareEq, Target: "1"}}
	if err := ValidateRule(badType); !errors.Is(err, ErrInvalidConditionType) {
		t.Fatalf("error = %v, want ErrInvalidConditionType", err)
	}

	badCompare := Rule{{Type: TypeUser, Compare: "regex", Target: "1"}}
	if err := ValidateRule(badCompare); !errors.Is(err, ErrInvalidCompare) {
		t.Fatalf("error = %v, want ErrInvalidCompare", err)
	}
}
