// scriptdeck browses a catalog of PowerShell automation scripts, runs them
// with typed parameters and streams their output live.
//
// Usage:
//
//	scriptdeck                       # interactive shell on a terminal
//	scriptdeck list
//	scriptdeck run "New Domain User" -p UserName=jdoe -p Force=true
//	scriptdeck check --refresh
//	scriptdeck download --all
//	scriptdeck history -n 20
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// exitCodeError carries a script's exit code out of a command.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{stdout: stdout, stderr: stderr}
	defer a.Close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ec exitCodeError
	if errors.As(err, &ec) {
		return ec.code
	}
	fmt.Fprintf(stderr, "scriptdeck: %v\n", err)
	return 1
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "scriptdeck",
		Short:         "Run and update PowerShell automation scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			a.flags.ScriptsRootSet = cmd.Flags().Changed("scripts-root")
			a.flags.OwnerSet = cmd.Flags().Changed("owner")
			a.flags.LogLevelSet = cmd.Flags().Changed("log-level")
			a.flags.InterpreterSet = cmd.Flags().Changed("interpreter")
			a.flags.NoColorSet = cmd.Flags().Changed("no-color")
			interactive := cmd.Name() == "shell" || (cmd == cmd.Root() && isTTYWriter(a.stdout))
			return a.Init(cmd.Context(), interactive)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isTTYWriter(a.stdout) {
				return a.Shell(cmd.Context())
			}
			return a.List(cmd.Context(), false)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.ScriptsRoot, "scripts-root", "", "directory holding scripts-config.json and bundled/")
	pf.StringVar(&a.flags.Owner, "owner", "", "GitHub account hosting the script repositories")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.flags.Interpreter, "interpreter", "", "PowerShell executable")
	pf.BoolVar(&a.flags.NoColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newListCmd(a),
		newRunCmd(a),
		newCheckCmd(a),
		newDownloadCmd(a),
		newHistoryCmd(a),
		newShellCmd(a),
		newVersionCmd(a),
	)
	return root
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the terminal width for w, defaulting to 80.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return 80
}
