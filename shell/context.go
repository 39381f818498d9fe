package shell

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/plugsh/plugsh"
	"github.com/plugsh/plugsh/engine"
	"github.com/plugsh/plugsh/plugin"
)

// pendingBatch holds the commands a just-loaded plugin declared, staged
// until the dispatcher commits them before the next prompt.
type pendingBatch struct {
	plugin   string
	commands []plugsh.CommandDecl
}

// Context is the shared mutable state bundle passed into every dispatch:
// command table, plugin table, engine handle, pending-commands slot and
// running flag. The dispatcher is the single owner; the mutex serializes
// mutating steps so no lookup can observe a registry mid-update.
type Context struct {
	Commands *CommandSet
	Plugins  *plugin.Registry
	Engine   *engine.Engine

	mu      sync.Mutex
	pending *pendingBatch
	running bool

	out    io.Writer
	logger *zap.Logger
	caps   plugsh.Capabilities
}

// NewContext builds a fresh execution context around an engine.
func NewContext(eng *engine.Engine, out io.Writer, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	ec := &Context{
		Commands: NewCommandSet(),
		Plugins:  plugin.NewRegistry(),
		Engine:   eng,
		running:  true,
		out:      out,
		logger:   logger,
	}
	ec.caps = &sessionCaps{ec: ec}
	return ec
}

// Running reports whether the shell is in the Running state.
func (ec *Context) Running() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.running
}

// Stop transitions Running -> Stopped. Stopped is terminal.
func (ec *Context) Stop() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.running = false
}

// Logger returns the shell logger.
func (ec *Context) Logger() *zap.Logger {
	return ec.logger
}

// Output returns the console writer.
func (ec *Context) Output() io.Writer {
	return ec.out
}

// LoadPlugin loads one plugin and stages its declared commands into the
// pending-commands slot. A failed load leaves both registries exactly as
// they were.
func (ec *Context) LoadPlugin(ctx context.Context, path string) error {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	p, err := ec.Plugins.Load(ctx, ec.Engine, path, ec.caps)
	if err != nil {
		return err
	}
	ec.pending = &pendingBatch{plugin: p.Info.Name, commands: p.Info.Commands}
	return nil
}

// drainPending commits every staged command as a ForwardToPlugin runner.
// Individually invalid or conflicting names are reported and skipped; the
// rest of the batch still registers. The slot is empty afterwards.
func (ec *Context) drainPending(report func(error)) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if ec.pending == nil {
		return
	}
	batch := ec.pending
	ec.pending = nil

	for _, decl := range batch.commands {
		err := ec.Commands.Register(Cmd{
			Name:        decl.Name,
			Usage:       decl.Usage,
			Description: decl.Description,
		}, ForwardToPlugin(batch.plugin))
		if err != nil {
			ec.logger.Warn("plugin command rejected",
				zap.String("plugin", batch.plugin),
				zap.String("command", decl.Name),
				zap.Error(err))
			report(err)
		}
	}
}

// sessionCaps is the capability surface handed to guests for the lifetime of
// the session. Log renders the message tagged with its level; define_cmd is
// only honored during init (the registry wraps these caps with a collector
// for that window), so here it is reported and dropped.
type sessionCaps struct {
	ec *Context
}

func (c *sessionCaps) Log(level plugsh.Level, message string) {
	fmt.Fprintf(c.ec.out, "%s: %s\n", level, message)
	c.ec.logger.Debug("guest log",
		zap.Stringer("level", level),
		zap.String("message", message))
}

func (c *sessionCaps) DefineCommand(name, _, _ string) {
	c.ec.logger.Warn("define_cmd outside init ignored",
		zap.String("command", name))
	fmt.Fprintf(c.ec.out, "ERR: define_cmd is only valid during plugin init, ignoring %q\n", name)
}
