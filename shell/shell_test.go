package shell

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/plugsh/plugsh"
	"github.com/plugsh/plugsh/engine"
	"github.com/plugsh/plugsh/internal/guesttest"
)

// newTestShell wires a shell to an in-memory console running the given
// script. The engine is torn down with the test.
func newTestShell(t *testing.T, script string) (*Shell, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	eng := engine.New(ctx)
	t.Cleanup(func() { eng.Close(ctx) })

	var out bytes.Buffer
	sh := New(Options{
		Engine: eng,
		Input:  strings.NewReader(script),
		Output: &out,
	})
	return sh, &out
}

func TestRun_QuitStopsLoop(t *testing.T) {
	sh, out := newTestShell(t, "quit\nhelp\n")
	if err := sh.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if sh.Context().Running() {
		t.Error("shell still running after quit")
	}
	// One prompt shown, then the loop must not come back for "help".
	if n := strings.Count(out.String(), Prompt); n != 1 {
		t.Errorf("prompt shown %d times, want 1\noutput:\n%s", n, out.String())
	}
}

func TestRun_EOFStopsCleanly(t *testing.T) {
	sh, _ := newTestShell(t, "")
	if err := sh.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sh.Context().Running() {
		t.Error("shell still running after input ended")
	}
}

func TestEval_EmptyLineIsNoOp(t *testing.T) {
	sh, out := newTestShell(t, "")
	sh.Eval(context.Background(), "   \t  ")
	if out.Len() != 0 {
		t.Errorf("blank line produced output: %q", out.String())
	}
}

func TestEval_UnknownCommand(t *testing.T) {
	sh, out := newTestShell(t, "")
	sh.Eval(context.Background(), "frobnicate now")
	want := `ERR: unknown command "frobnicate", type "help" to see all commands.`
	if !strings.Contains(out.String(), want) {
		t.Errorf("output %q does not contain %q", out.String(), want)
	}
}

func TestEval_HelpListsSortedByUsage(t *testing.T) {
	sh, out := newTestShell(t, "")
	ctx := context.Background()

	path := guesttest.Greeter().WriteFile(t, t.TempDir(), "greeter.wasm")
	sh.Eval(ctx, "load "+path)

	out.Reset()
	sh.Eval(ctx, "help")

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if lines[0] != "All commands:" {
		t.Fatalf("help header = %q", lines[0])
	}
	usages := make([]string, 0, len(lines)-1)
	for _, l := range lines[1:] {
		usages = append(usages, strings.TrimSpace(strings.SplitN(l, " - ", 2)[0]))
	}
	if !sort.StringsAreSorted(usages) {
		t.Errorf("help entries not sorted by usage: %v", usages)
	}
	if !strings.Contains(out.String(), "hello <language>") {
		t.Error("help is missing the plugin command declared on load")
	}
}

func TestEval_HelpSingleCommand(t *testing.T) {
	sh, out := newTestShell(t, "")
	ctx := context.Background()

	sh.Eval(ctx, "help load")
	if !strings.Contains(out.String(), "load <path>") || !strings.Contains(out.String(), "Loads a new plugin.") {
		t.Errorf("help load output = %q", out.String())
	}

	out.Reset()
	sh.Eval(ctx, "help nothere")
	if !strings.Contains(out.String(), `ERR: unknown command "nothere".`) {
		t.Errorf("help for unknown command = %q", out.String())
	}
}

func TestEval_LoadMissingFileLeavesRegistriesEmpty(t *testing.T) {
	sh, out := newTestShell(t, "")
	ctx := context.Background()

	sh.Eval(ctx, "load /no/such/plugin.wasm")
	if !strings.Contains(out.String(), "ERR:") {
		t.Fatalf("missing file reported no error: %q", out.String())
	}

	out.Reset()
	sh.Eval(ctx, "list-plugins")
	if !strings.Contains(out.String(), "There is currently no plugins loaded!") {
		t.Errorf("list-plugins after failed load = %q", out.String())
	}
}

func TestEval_LoadWithoutPath(t *testing.T) {
	sh, out := newTestShell(t, "")
	sh.Eval(context.Background(), "load")
	if !strings.Contains(out.String(), "ERR: you must give the path to a WASM file to load.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestEval_PluginCommandDispatchableOnNextLine(t *testing.T) {
	sh, out := newTestShell(t, "")
	ctx := context.Background()

	path := guesttest.Greeter().WriteFile(t, t.TempDir(), "greeter.wasm")
	sh.Eval(ctx, "load "+path)
	if !strings.Contains(out.String(), "Plugin loaded successfully!") {
		t.Fatalf("load output = %q", out.String())
	}

	out.Reset()
	sh.Eval(ctx, "hello english")
	got := out.String()
	// The fixture echoes the call payload back through the log capability.
	if !strings.HasPrefix(got, "INFO: ") {
		t.Errorf("guest log line = %q, want INFO prefix", got)
	}
	for _, want := range []string{`"hello"`, `"english"`} {
		if !strings.Contains(got, want) {
			t.Errorf("guest echo %q is missing %s", got, want)
		}
	}

	out.Reset()
	sh.Eval(ctx, "list-plugins")
	if !strings.Contains(out.String(), "greeter") {
		t.Errorf("list-plugins = %q, want greeter entry", out.String())
	}
}

func TestEval_ConflictingPluginCommandKeepsFirstOwner(t *testing.T) {
	sh, out := newTestShell(t, "")
	ctx := context.Background()
	dir := t.TempDir()

	first := guesttest.Guest{
		Info: plugsh.PluginInfo{
			Name:     "alpha",
			Version:  "1.0.0",
			Commands: []plugsh.CommandDecl{{Name: "probe", Usage: "probe", Description: "from alpha"}},
		},
	}.WriteFile(t, dir, "alpha.wasm")

	second := guesttest.Guest{
		Info: plugsh.PluginInfo{
			Name:     "beta",
			Version:  "1.0.0",
			Commands: []plugsh.CommandDecl{{Name: "probe", Usage: "probe", Description: "from beta"}},
		},
		RunLevel: plugsh.LevelWarn,
	}.WriteFile(t, dir, "beta.wasm")

	sh.Eval(ctx, "load "+first)
	out.Reset()
	sh.Eval(ctx, "load "+second)
	if !strings.Contains(out.String(), "ERR:") {
		t.Error("conflicting command was not reported")
	}
	// The conflicting command is dropped, the plugin itself stays loaded.
	if sh.Context().Plugins.Len() != 2 {
		t.Errorf("plugins loaded = %d, want 2", sh.Context().Plugins.Len())
	}

	out.Reset()
	sh.Eval(ctx, "probe")
	if !strings.HasPrefix(out.String(), "INFO: ") {
		t.Errorf("probe dispatched to the wrong plugin: %q", out.String())
	}

	runner, ok := sh.Context().Commands.Lookup("probe")
	if !ok || runner.Plugin() != "alpha" {
		t.Errorf("probe owner = %q, want alpha", runner.Plugin())
	}
}

func TestEval_InvalidPluginCommandNameSkipped(t *testing.T) {
	sh, out := newTestShell(t, "")
	ctx := context.Background()

	path := guesttest.Guest{
		Info: plugsh.PluginInfo{
			Name:    "mixed",
			Version: "1.0.0",
			Commands: []plugsh.CommandDecl{
				{Name: "this name is far too long to register", Usage: "x", Description: "bad"},
				{Name: "fine", Usage: "fine", Description: "good"},
			},
		},
	}.WriteFile(t, t.TempDir(), "mixed.wasm")

	sh.Eval(ctx, "load "+path)
	if !strings.Contains(out.String(), "ERR:") {
		t.Error("invalid command name was not reported")
	}
	if _, ok := sh.Context().Commands.Lookup("fine"); !ok {
		t.Error("valid command from the same batch was not registered")
	}
}

func TestEval_InitTrapLoadsNothing(t *testing.T) {
	sh, out := newTestShell(t, "")
	ctx := context.Background()

	before := sh.Context().Commands.Len()
	path := guesttest.Guest{TrapInit: true}.WriteFile(t, t.TempDir(), "trap.wasm")

	sh.Eval(ctx, "load "+path)
	if !strings.Contains(out.String(), "ERR:") {
		t.Error("init trap was not reported")
	}
	if sh.Context().Plugins.Len() != 0 {
		t.Error("trapping plugin was registered")
	}
	if sh.Context().Commands.Len() != before {
		t.Error("trapping plugin contributed commands")
	}
	if !sh.Context().Running() {
		t.Error("shell stopped after a recoverable load failure")
	}
}

func TestEval_CommandTrapIsRecoverable(t *testing.T) {
	sh, out := newTestShell(t, "")
	ctx := context.Background()

	path := guesttest.Guest{
		Info: plugsh.PluginInfo{
			Name:     "flaky",
			Version:  "1.0.0",
			Commands: []plugsh.CommandDecl{{Name: "boom", Usage: "boom", Description: "traps"}},
		},
		TrapRun: true,
	}.WriteFile(t, t.TempDir(), "flaky.wasm")

	sh.Eval(ctx, "load "+path)
	out.Reset()

	sh.Eval(ctx, "boom")
	if !strings.Contains(out.String(), "ERR:") {
		t.Errorf("trap not reported: %q", out.String())
	}
	if !sh.Context().Running() {
		t.Error("shell stopped after a guest trap")
	}

	// Builtins still work afterwards.
	out.Reset()
	sh.Eval(ctx, "list-plugins")
	if !strings.Contains(out.String(), "flaky") {
		t.Errorf("list-plugins after trap = %q", out.String())
	}
}

func TestPreload_MultiplePluginsAllCommandsRegistered(t *testing.T) {
	sh, out := newTestShell(t, "")
	ctx := context.Background()
	dir := t.TempDir()

	alpha := guesttest.Guest{
		Info: plugsh.PluginInfo{
			Name:     "alpha",
			Version:  "1.0.0",
			Commands: []plugsh.CommandDecl{{Name: "acmd", Usage: "acmd", Description: "from alpha"}},
		},
	}.WriteFile(t, dir, "alpha.wasm")

	beta := guesttest.Guest{
		Info: plugsh.PluginInfo{
			Name:     "beta",
			Version:  "1.0.0",
			Commands: []plugsh.CommandDecl{{Name: "bcmd", Usage: "bcmd", Description: "from beta"}},
		},
	}.WriteFile(t, dir, "beta.wasm")

	sh.Preload(ctx, []string{alpha, beta})
	if strings.Contains(out.String(), "ERR:") {
		t.Fatalf("preload reported errors: %q", out.String())
	}
	if sh.Context().Plugins.Len() != 2 {
		t.Fatalf("plugins loaded = %d, want 2", sh.Context().Plugins.Len())
	}

	// Commands from every preloaded plugin must survive, not just the last's.
	for cmd, owner := range map[string]string{"acmd": "alpha", "bcmd": "beta"} {
		runner, ok := sh.Context().Commands.Lookup(cmd)
		if !ok {
			t.Errorf("command %q from preloaded plugin not registered", cmd)
			continue
		}
		if runner.Plugin() != owner {
			t.Errorf("%q owner = %q, want %q", cmd, runner.Plugin(), owner)
		}
	}

	out.Reset()
	sh.Eval(ctx, "acmd one")
	if !strings.HasPrefix(out.String(), "INFO: ") {
		t.Errorf("acmd did not dispatch: %q", out.String())
	}
}

func TestEval_LegacyDefineCmd(t *testing.T) {
	sh, _ := newTestShell(t, "")
	ctx := context.Background()

	path := guesttest.Guest{
		Info: plugsh.PluginInfo{
			Name:     "oldstyle",
			Version:  "0.0.1",
			Commands: []plugsh.CommandDecl{{Name: "first", Usage: "first", Description: "declared"}},
		},
		LegacyCmd: &plugsh.CommandDecl{Name: "second", Usage: "second", Description: "imperative"},
	}.WriteFile(t, t.TempDir(), "oldstyle.wasm")

	sh.Eval(ctx, "load "+path)
	for _, name := range []string{"first", "second"} {
		if _, ok := sh.Context().Commands.Lookup(name); !ok {
			t.Errorf("command %q not registered", name)
		}
	}
}
