package shell

import (
	"sort"
	"unicode"

	"github.com/plugsh/plugsh/errors"
)

// MaxCommandNameLen bounds registered command names; names must be strictly
// shorter than this.
const MaxCommandNameLen = 16

// Cmd describes one registered command for help output.
type Cmd struct {
	Name        string
	Usage       string
	Description string
}

type commandEntry struct {
	cmd    Cmd
	runner Runner
}

// CommandSet maps command names to their descriptor and Runner. Builtin and
// plugin-sourced commands share one table; names are unique across both.
// Not safe for concurrent use; the Context serializes access.
type CommandSet struct {
	entries map[string]commandEntry
}

// NewCommandSet returns an empty command set.
func NewCommandSet() *CommandSet {
	return &CommandSet{entries: make(map[string]commandEntry)}
}

// ValidateName enforces the command naming constraint: shorter than 16
// characters, no whitespace, alphanumeric (plus '-' as word separator).
// Any single violation rejects the name.
func ValidateName(name string) error {
	if name == "" {
		return errors.InvalidCommandName(name, "must be non-empty")
	}
	if len(name) >= MaxCommandNameLen {
		return errors.InvalidCommandName(name, "must be shorter than 16 characters")
	}
	for _, r := range name {
		if unicode.IsSpace(r) {
			return errors.InvalidCommandName(name, "must not contain whitespace")
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			return errors.InvalidCommandName(name, "must be alphanumeric")
		}
	}
	return nil
}

// Register adds a command under cmd.Name. First writer wins: a name already
// in the table is rejected and the original entry is unchanged.
func (s *CommandSet) Register(cmd Cmd, runner Runner) error {
	if err := ValidateName(cmd.Name); err != nil {
		return err
	}
	if _, exists := s.entries[cmd.Name]; exists {
		return errors.CommandConflict(cmd.Name)
	}
	s.entries[cmd.Name] = commandEntry{cmd: cmd, runner: runner}
	return nil
}

// MustRegister registers a builtin command and panics on failure. A builtin
// violating the naming constraint or colliding with another builtin is a
// programmer error, fatal at startup.
func (s *CommandSet) MustRegister(cmd Cmd, runner Runner) {
	if err := s.Register(cmd, runner); err != nil {
		panic("shell: builtin registration: " + err.Error())
	}
}

// Lookup resolves a command name to its Runner.
func (s *CommandSet) Lookup(name string) (Runner, bool) {
	e, ok := s.entries[name]
	return e.runner, ok
}

// Get returns the descriptor registered under name.
func (s *CommandSet) Get(name string) (Cmd, bool) {
	e, ok := s.entries[name]
	return e.cmd, ok
}

// Len returns the number of registered commands.
func (s *CommandSet) Len() int {
	return len(s.entries)
}

// SortedByUsage returns every descriptor sorted ascending by usage string.
func (s *CommandSet) SortedByUsage() []Cmd {
	out := make([]Cmd, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Usage < out[j].Usage })
	return out
}
