// Package shell implements the command registry, execution context and
// dispatch loop of the plugin shell.
//
// A single goroutine drives the entire dispatch loop: read a line, resolve
// the first token to a Runner, invoke it (in process for builtins, one
// blocking cross-boundary call for plugin commands), commit any commands a
// just-loaded plugin declared, prompt again. All shared mutable state lives
// in one Context and every mutating step is applied atomically relative to
// dispatch.
package shell
