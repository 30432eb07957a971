package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// shellBuiltin is one entry of the shell's dispatch table. channels,
// state and version re-run the matching rootCmd subcommand; help is
// handled by the shell itself.
type shellBuiltin struct {
	desc string
	run  func(ctx context.Context, args []string) error
}

func builtinCommands() map[string]shellBuiltin {
	return map[string]shellBuiltin{
		"channels": {
			desc: "List allocated CTAPHID channels",
			run: func(ctx context.Context, _ []string) error {
				return runShellSubcommand(ctx, "channels")
			},
		},
		"state": {
			desc: "Show the current in-flight transaction",
			run: func(ctx context.Context, _ []string) error {
				return runShellSubcommand(ctx, "state")
			},
		},
		"version": {
			desc: "Print build information",
			run: func(ctx context.Context, _ []string) error {
				return runShellSubcommand(ctx, "version")
			},
		},
		"help": {
			desc: "Show this help message",
			run: func(_ context.Context, _ []string) error {
				printShellHelp()
				return nil
			},
		},
	}
}

func runShellSubcommand(_ context.Context, args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive ctapdctl shell",
		Long:  "Launches a REPL over ctapdctl's own subcommands. Type 'help', 'exit', or 'quit'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}

// runShell drives the REPL loop; in and out are parameterized so the
// dispatch logic itself needs no terminal.
func runShell(ctx context.Context, in *os.File, out *os.File) error {
	builtins := builtinCommands()
	fmt.Fprintln(out, "ctapdctl interactive shell. Type 'help' for available commands, 'exit' to quit.")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	count := 0

	for {
		fmt.Fprintf(out, "ctapdctl[%d]> ", count)
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		count++

		fields := strings.Fields(line)
		word, rest := fields[0], fields[1:]

		if word == "exit" || word == "quit" {
			return nil
		}

		builtin, ok := builtins[word]
		if !ok {
			fmt.Fprintf(out, "unknown command %q, type 'help' for a list\n", word)
			continue
		}

		if err := builtin.run(ctx, rest); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

// printShellHelp prints the builtin command table sorted by name.
func printShellHelp() {
	builtins := builtinCommands()
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available commands:")
	fmt.Println()

	for _, name := range names {
		fmt.Printf("  %-12s %s\n", name, builtins[name].desc)
	}
	fmt.Printf("  %-12s %s\n", "exit / quit", "Leave the interactive shell")
	fmt.Println()
}
