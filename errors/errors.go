package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in plugin processing the error occurred
type Phase string

const (
	PhaseLoad        Phase = "load"        // reading the plugin artifact
	PhaseCompile     Phase = "compile"     // binary validation and compilation
	PhaseLink        Phase = "link"        // host capability registration
	PhaseInstantiate Phase = "instantiate" // sandbox instantiation
	PhaseInit        Phase = "init"        // guest init call
	PhaseDispatch    Phase = "dispatch"    // command execution
	PhaseRegistry    Phase = "registry"    // command/plugin registration
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindInvalidData   Kind = "invalid_data"
	KindNameConflict  Kind = "name_conflict"
	KindInvalidName   Kind = "invalid_name"
	KindTrap          Kind = "trap"
	KindMissingImport Kind = "missing_import"
	KindMissingExport Kind = "missing_export"
)

// Error is the structured error type used throughout the shell core
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Plugin  string
	Command string
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Plugin != "" {
		b.WriteString(" plugin ")
		b.WriteString(fmt.Sprintf("%q", e.Plugin))
	}
	if e.Command != "" {
		b.WriteString(" command ")
		b.WriteString(fmt.Sprintf("%q", e.Command))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by phase and kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for common error patterns

// FileNotFound reports a missing plugin artifact
func FileNotFound(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("plugin file %q", path),
		Cause:  cause,
	}
}

// CompileFailed reports a malformed or invalid binary artifact
func CompileFailed(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// LinkFailed reports a host capability registration failure
func LinkFailed(cause error) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindMissingImport,
		Detail: "register host capabilities",
		Cause:  cause,
	}
}

// Instantiation reports an unresolved import or a trap during start-up
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseInstantiate,
		Kind:   KindTrap,
		Detail: "instantiate sandbox",
		Cause:  cause,
	}
}

// MissingExport reports a guest that lacks a required ABI export
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseInstantiate,
		Kind:   KindMissingExport,
		Detail: fmt.Sprintf("guest does not export %q", name),
	}
}

// InitFailed reports a trap or malformed result during the guest init call.
// Fatal to that load attempt only.
func InitFailed(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindTrap,
		Detail: detail,
		Cause:  cause,
	}
}

// InitInvalid reports a well-executed init that returned unusable data
func InitInvalid(detail string) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// CommandTrap reports a trap during run_command for one plugin call
func CommandTrap(plugin, command string, cause error) *Error {
	return &Error{
		Phase:   PhaseDispatch,
		Kind:    KindTrap,
		Plugin:  plugin,
		Command: command,
		Cause:   cause,
	}
}

// PluginConflict reports a plugin-name collision on load
func PluginConflict(name string) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindNameConflict,
		Plugin: name,
		Detail: "a plugin with the same name is already loaded",
	}
}

// CommandConflict reports a command-name collision on registration
func CommandConflict(name string) *Error {
	return &Error{
		Phase:   PhaseRegistry,
		Kind:    KindNameConflict,
		Command: name,
		Detail:  "command name already registered",
	}
}

// InvalidCommandName reports a command name violating the naming constraint
func InvalidCommandName(name, reason string) *Error {
	return &Error{
		Phase:   PhaseRegistry,
		Kind:    KindInvalidName,
		Command: name,
		Detail:  reason,
	}
}

// MemoryFault reports an out-of-bounds guest memory access observed by the host
func MemoryFault(detail string) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// AllocFailed reports a failed guest allocation for a host-to-guest transfer
func AllocFailed(cause error) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindTrap,
		Detail: "guest alloc",
		Cause:  cause,
	}
}

// UnknownCommand reports a dispatch lookup miss
func UnknownCommand(name string) *Error {
	return &Error{
		Phase:   PhaseDispatch,
		Kind:    KindNotFound,
		Command: name,
	}
}
