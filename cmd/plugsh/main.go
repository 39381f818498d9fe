package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/plugsh/plugsh/engine"
	"github.com/plugsh/plugsh/shell"
)

func main() {
	var (
		preload     = flag.String("load", "", "Plugins to load at startup (comma-separated paths)")
		memPages    = flag.Uint("memory", 0, "Per-plugin memory limit in 64KiB pages (0 = no extra limit)")
		verbose     = flag.Bool("v", false, "Verbose logging to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
			os.Exit(1)
		}
		logger = l
		engine.SetLogger(logger)
	}
	defer logger.Sync()

	ctx := context.Background()
	eng := engine.NewWithConfig(ctx, &engine.Config{MemoryLimitPages: uint32(*memPages)})
	defer eng.Close(ctx)

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(ctx, eng, logger, splitPaths(*preload)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	sh := shell.New(shell.Options{
		Engine: eng,
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: logger,
	})

	fmt.Println(shell.WelcomeMsg)
	sh.Preload(ctx, splitPaths(*preload))

	if err := sh.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func splitPaths(s string) []string {
	if s == "" {
		return nil
	}
	var paths []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
