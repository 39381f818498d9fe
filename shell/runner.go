package shell

import (
	"context"
	"fmt"

	"github.com/plugsh/plugsh/errors"
)

// BuiltinFunc is an in-process command implementation. It receives the
// execution context and the tokens following the command name.
type BuiltinFunc func(ctx context.Context, ec *Context, args []string) error

type runnerKind uint8

const (
	runnerBuiltin runnerKind = iota
	runnerForward
)

// Runner is the resolved action bound to a command name: either an
// in-process builtin or a forward to a specific plugin. The variant is
// closed; resolution is an exhaustive switch, no dynamic dispatch.
type Runner struct {
	fn     BuiltinFunc
	plugin string
	kind   runnerKind
}

// Builtin wraps an in-process function as a Runner.
func Builtin(fn BuiltinFunc) Runner {
	return Runner{kind: runnerBuiltin, fn: fn}
}

// ForwardToPlugin tags a Runner that forwards to the named plugin.
func ForwardToPlugin(plugin string) Runner {
	return Runner{kind: runnerForward, plugin: plugin}
}

// Plugin returns the owning plugin name for forward runners, or "".
func (r Runner) Plugin() string {
	return r.plugin
}

func (r Runner) run(ctx context.Context, ec *Context, cmd string, args []string) error {
	switch r.kind {
	case runnerBuiltin:
		return r.fn(ctx, ec, args)
	case runnerForward:
		p, ok := ec.Plugins.Get(r.plugin)
		if !ok {
			// Registration and load are committed together, so a forward
			// without its plugin is a shell bug, not user input.
			return errors.UnknownCommand(cmd)
		}
		owned := make([]string, len(args))
		copy(owned, args)
		return p.Host.CallRunCommand(ctx, ec.caps, cmd, owned)
	default:
		panic(fmt.Sprintf("shell: unknown runner kind %d", r.kind))
	}
}
