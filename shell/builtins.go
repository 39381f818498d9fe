package shell

import (
	"context"
	"fmt"
)

// registerBuiltins installs the four builtin commands. Any failure here is a
// programmer error and panics at startup.
func registerBuiltins(s *CommandSet) {
	s.MustRegister(Cmd{
		Name:        "quit",
		Usage:       "quit",
		Description: "Quit the shell.",
	}, Builtin(quitExec))

	s.MustRegister(Cmd{
		Name:        "help",
		Usage:       "help [cmd]",
		Description: "Print all commands to the screen or an helpful message if a command is passed as argument",
	}, Builtin(helpExec))

	s.MustRegister(Cmd{
		Name:        "list-plugins",
		Usage:       "list-plugins",
		Description: "Print all the plugins currently loaded",
	}, Builtin(listPluginsExec))

	s.MustRegister(Cmd{
		Name:        "load",
		Usage:       "load <path>",
		Description: "Loads a new plugin.",
	}, Builtin(loadExec))
}

func quitExec(_ context.Context, ec *Context, _ []string) error {
	ec.Stop()
	return nil
}

func helpExec(_ context.Context, ec *Context, args []string) error {
	if len(args) > 0 {
		cmd, ok := ec.Commands.Get(args[0])
		if !ok {
			fmt.Fprintf(ec.out, "ERR: unknown command %q.\n", args[0])
			return nil
		}
		fmt.Fprintf(ec.out, " %-16s - %s\n", cmd.Usage, cmd.Description)
		return nil
	}

	fmt.Fprintln(ec.out, "All commands:")
	for _, cmd := range ec.Commands.SortedByUsage() {
		fmt.Fprintf(ec.out, " %-16s - %s\n", cmd.Usage, cmd.Description)
	}
	return nil
}

func listPluginsExec(_ context.Context, ec *Context, _ []string) error {
	if ec.Plugins.Len() == 0 {
		fmt.Fprintln(ec.out, "There is currently no plugins loaded!")
		return nil
	}

	fmt.Fprintln(ec.out, "All loaded plugins:")
	for _, p := range ec.Plugins.All() {
		fmt.Fprintf(ec.out, "  %-16s - %s\n", p.Info.Name, p.Info.Description)
	}
	return nil
}

func loadExec(ctx context.Context, ec *Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(ec.out, "ERR: you must give the path to a WASM file to load.")
		return nil
	}

	if err := ec.LoadPlugin(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(ec.out, "Plugin loaded successfully!")
	return nil
}
