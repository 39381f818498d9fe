// Package errors provides structured error types for the plugin shell.
//
// Errors are categorized by Phase (where in plugin processing the error
// occurred) and Kind (error category). The Error type carries the plugin and
// command names involved plus a cause chain.
//
// Use the convenience constructors for common patterns:
//
//	err := errors.FileNotFound(path, cause)
//	err := errors.CommandTrap("greeter", "hello", cause)
//
// All errors implement the standard error interface and support errors.Is/As;
// Is matches by Phase and Kind, so callers can test for a category:
//
//	errors.Is(err, &errors.Error{Phase: errors.PhaseInit, Kind: errors.KindTrap})
package errors
