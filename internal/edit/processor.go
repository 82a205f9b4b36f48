package edit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TimurManjosov/interceptor/internal/rules"
	"github.com/TimurManjosov/interceptor/internal/store"
	"github.com/TimurManjosov/interceptor/internal/validation"
)

// Lease is the part of an edit session the processor may end.
type Lease interface {
	MarkExpired()
}

// Result is the outcome of one command. Patch is nil when nothing must be
// persisted.
type Result struct {
	Messages []string
	Patch    *store.Patch
}

// Execute runs cmd against rs, the record cached by the session. Mutating
// commands change rs in place and return the matching patch; the caller
// persists it and then extends the lease. Failed commands leave rs untouched.
func Execute(lease Lease, rs *store.RuleSet, cmd Command, args []string) (Result, error) {
	spec, ok := lookup(cmd)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	if rs == nil {
		lease.MarkExpired()
		return Result{}, ErrRecordMissing
	}
	if len(args) != spec.argc {
		return Result{}, argCountError(spec, len(args))
	}

	switch cmd {
	case CmdExit:
		lease.MarkExpired()
		return Result{Messages: []string{"left edit mode"}}, nil

	case CmdDrop:
		return drop(rs, args[0])

	case CmdAdd:
		return add(rs, args[0], args[1], args[2])

	case CmdRename:
		return rename(rs, args[0])

	case CmdMode:
		mode := rs.Mode.Toggle()
		rs.Mode = mode
		return Result{
			Messages: []string{fmt.Sprintf("mode switched to %s", mode)},
			Patch:    &store.Patch{Mode: &mode},
		}, nil

	case CmdSwitch:
		enabled := !rs.Enabled
		rs.Enabled = enabled
		state := "off"
		if enabled {
			state = "on"
		}
		return Result{
			Messages: []string{"rule set switched " + state},
			Patch:    &store.Patch{Enabled: &enabled},
		}, nil

	case CmdShow:
		return Result{Messages: []string{"rule set details:", Format(*rs, true)}}, nil

	default: // CmdHelp
		return Result{Messages: Help()}, nil
	}
}

func drop(rs *store.RuleSet, raw string) (Result, error) {
	index, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q is not a number", ErrInvalidIndex, raw)
	}
	if index < 0 || index >= len(rs.Rule) {
		return Result{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(rs.Rule))
	}

	next := make(rules.Rule, 0, len(rs.Rule)-1)
	next = append(next, rs.Rule[:index]...)
	next = append(next, rs.Rule[index+1:]...)
	rs.Rule = next

	return Result{
		Messages: []string{fmt.Sprintf("dropped condition %d", index)},
		Patch:    &store.Patch{Rule: &next},
	}, nil
}

func add(rs *store.RuleSet, typ, compare, target string) (Result, error) {
	c, err := rules.ParseCondition(typ, compare, target)
	if err != nil {
		return Result{}, fmt.Errorf("%w (types: %s; compares: %s)", err, joinTags(rules.ConditionTypes()), joinTags(rules.Compares()))
	}
	if r := validation.ValidateRule(rules.Rule{c}); !r.Valid {
		return Result{}, fmt.Errorf("invalid condition: %s", r.First("rule"))
	}
	if len(rs.Rule) >= validation.MaxConditions {
		return Result{}, fmt.Errorf("rule already has %d conditions", len(rs.Rule))
	}

	next := append(rs.Rule.Clone(), c)
	rs.Rule = next

	return Result{
		Messages: []string{"added condition " + c.String()},
		Patch:    &store.Patch{Rule: &next},
	}, nil
}

func rename(rs *store.RuleSet, name string) (Result, error) {
	name = strings.TrimSpace(name)
	if r := validation.ValidateName(name); !r.Valid {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidName, r.First("name"))
	}
	rs.Name = name
	return Result{
		Messages: []string{"renamed rule set to " + name},
		Patch:    &store.Patch{Name: &name},
	}, nil
}

func joinTags[T ~string](tags []T) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
