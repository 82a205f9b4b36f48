// Package edit implements the command set an operator uses to modify the
// rule set held by an edit session.
package edit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrWrongArgCount is returned when a command gets the wrong number of arguments.
	ErrWrongArgCount = errors.New("wrong argument count")
	// ErrIndexOutOfRange is returned by drop for an index outside [0, len(rule)).
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidIndex is returned by drop for an argument that is not an integer.
	ErrInvalidIndex = errors.New("invalid index")
	// ErrRecordMissing is returned when the session's rule set no longer exists.
	ErrRecordMissing = errors.New("rule set no longer exists")
	// ErrUnknownCommand is returned by Execute for commands outside the table.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidName is returned by rename for an unusable name.
	ErrInvalidName = errors.New("invalid name")
)

// Command names an edit command.
type Command string

const (
	CmdExit   Command = "exit"
	CmdDrop   Command = "drop"
	CmdAdd    Command = "add"
	CmdRename Command = "rename"
	CmdMode   Command = "mode"
	CmdSwitch Command = "switch"
	CmdShow   Command = "show"
	CmdHelp   Command = "help"
)

type commandSpec struct {
	name  Command
	argc  int
	usage string
	desc  string
}

// commandTable is ordered; ParseLine and Help follow this order.
var commandTable = []commandSpec{
	{CmdExit, 0, "exit", "leave edit mode"},
	{CmdDrop, 1, "drop {index}", "remove a condition"},
	{CmdAdd, 3, "add {type} {compare} {target}", "append a condition"},
	{CmdRename, 1, "rename {name}", "rename the rule set"},
	{CmdMode, 0, "mode", "toggle whitelist/blacklist"},
	{CmdSwitch, 0, "switch", "toggle enabled"},
	{CmdShow, 0, "show", "show the rule set"},
	{CmdHelp, 0, "help", "show this help"},
}

func lookup(c Command) (commandSpec, bool) {
	for _, s := range commandTable {
		if s.name == c {
			return s, true
		}
	}
	return commandSpec{}, false
}

// ArgCount returns the number of arguments cmd requires.
func ArgCount(cmd Command) (int, bool) {
	s, ok := lookup(cmd)
	return s.argc, ok
}

// Commands returns every edit command in table order.
func Commands() []Command {
	out := make([]Command, len(commandTable))
	for i, s := range commandTable {
		out[i] = s.name
	}
	return out
}

// Help returns one "description: usage" line per command.
func Help() []string {
	out := make([]string, len(commandTable))
	for i, s := range commandTable {
		out[i] = s.desc + ": " + s.usage
	}
	return out
}

// Line is a tokenized edit command.
type Line struct {
	Command Command
	Args    []string
}

// ParseLine tokenizes one message. The first word selects the command; an
// unknown word selects help. The rest is split on single spaces into at most
// argc pieces, the last piece keeping any remaining spaces.
func ParseLine(text string) (Line, error) {
	word, _, _ := strings.Cut(text, " ")
	spec, ok := lookup(Command(word))
	if !ok {
		return Line{Command: CmdHelp}, nil
	}

	parts := strings.SplitN(text, " ", spec.argc+1)
	if len(parts)-1 != spec.argc {
		return Line{Command: spec.name}, argCountError(spec, len(parts)-1)
	}
	args := parts[1:]
	if spec.argc == 0 {
		args = nil
	}
	return Line{Command: spec.name, Args: args}, nil
}

func argCountError(spec commandSpec, got int) error {
	return fmt.Errorf("%w: %s takes %d, got %d (usage: %s)", ErrWrongArgCount, spec.name, spec.argc, got, spec.usage)
}
