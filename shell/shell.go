package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/plugsh/plugsh/engine"
)

// Prompt is the REPL prompt text.
const Prompt = ">> "

// WelcomeMsg greets the user at session start.
const WelcomeMsg = `Welcome to plugsh, in this shell you can load plugins at runtime.
Type "help" to get some help.`

// Options configures a Shell.
type Options struct {
	// Engine is the sandbox engine shared by every plugin. Required.
	Engine *engine.Engine

	// Input is the console reader. Required for Run.
	Input io.Reader

	// Output receives prompts, command output and reported errors.
	Output io.Writer

	// Logger receives structured shell events. Nil means no logging.
	Logger *zap.Logger
}

// Shell drives the dispatch loop over one execution context.
type Shell struct {
	ec *Context
	in io.Reader
}

// New builds a shell with the builtin commands registered.
func New(opts Options) *Shell {
	ec := NewContext(opts.Engine, opts.Output, opts.Logger)
	registerBuiltins(ec.Commands)
	return &Shell{ec: ec, in: opts.Input}
}

// Context exposes the execution context, mainly for alternate front-ends.
func (s *Shell) Context() *Context {
	return s.ec
}

// Preload loads plugins before the first prompt and commits their commands,
// reporting failures to the output the same way the dispatch loop would.
// The pending slot holds one batch, so it is drained after every load.
func (s *Shell) Preload(ctx context.Context, paths []string) {
	report := func(err error) {
		fmt.Fprintf(s.ec.out, "ERR: %v\n", err)
	}
	for _, path := range paths {
		if err := s.ec.LoadPlugin(ctx, path); err != nil {
			report(err)
			continue
		}
		fmt.Fprintf(s.ec.out, "Loaded plugin %s\n", path)
		s.ec.drainPending(report)
	}
}

// Run reads lines until the running flag drops or input ends. A console
// read or write failure is fatal and returned; everything else is reported
// to the output and the loop continues.
func (s *Shell) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)

	for s.ec.Running() {
		// Output writes inside Eval are unchecked; a broken console
		// surfaces here, one prompt later.
		if _, err := fmt.Fprint(s.ec.out, Prompt); err != nil {
			return fmt.Errorf("write console: %w", err)
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read console: %w", err)
			}
			// EOF is a clean stop, like quit.
			s.ec.Stop()
			return nil
		}

		s.Eval(ctx, scanner.Text())
	}
	return nil
}

// Eval dispatches one input line: tokenize, resolve, invoke, then commit any
// pending plugin commands so they are usable on the very next line. All
// failures are reported to the output; Eval never returns them.
func (s *Shell) Eval(ctx context.Context, line string) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return
	}

	runner, ok := s.ec.Commands.Lookup(args[0])
	if !ok {
		fmt.Fprintf(s.ec.out, "ERR: unknown command %q, type \"help\" to see all commands.\n", args[0])
		s.ec.logger.Debug("unknown command", zap.String("command", args[0]))
		return
	}

	if err := runner.run(ctx, s.ec, args[0], args[1:]); err != nil {
		fmt.Fprintf(s.ec.out, "ERR: %v\n", err)
	}

	s.ec.drainPending(func(err error) {
		fmt.Fprintf(s.ec.out, "ERR: %v\n", err)
	})
}
