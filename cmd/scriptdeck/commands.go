package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkoosis/scriptdeck/internal/session"
	"github.com/dkoosis/scriptdeck/internal/tui"
	"github.com/dkoosis/scriptdeck/internal/updates"
	"github.com/dkoosis/scriptdeck/internal/version"
	"github.com/dkoosis/scriptdeck/pkg/catalog"
	"github.com/dkoosis/scriptdeck/pkg/outcome"
	"github.com/dkoosis/scriptdeck/pkg/render"
	"github.com/dkoosis/scriptdeck/pkg/runner"
)

func newListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the scripts in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.List(cmd.Context(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// List prints the catalog with install and update state.
func (a *app) List(_ context.Context, asJSON bool) error {
	if asJSON {
		fmt.Fprint(a.stdout, render.NewJSON().Scripts(a.rows()))
		return nil
	}
	fmt.Fprint(a.stdout, a.terminal().Scripts(a.rows()))
	return nil
}

func newRunCmd(a *app) *cobra.Command {
	var (
		params []string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "run <name|repo>",
		Short: "Run a script and stream its output",
		Long: `Run a script from the catalog. Parameters are passed as -p Name=Value;
comma-separated values become arrays and switches take true or false.
The command exits with the script's exit code.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseParams(params)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context(), args[0], values, asJSON)
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter as Name=Value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON instead of streaming")
	return cmd
}

// parseParams turns Name=Value pairs into values. Later pairs win.
func parseParams(pairs []string) (catalog.Values, error) {
	values := make(catalog.Values, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: want Name=Value", p)
		}
		values[name] = value
	}
	return values, nil
}

// Run executes one script. A failed script surfaces as an exitCodeError.
func (a *app) Run(ctx context.Context, key string, values catalog.Values, asJSON bool) error {
	if a.session.Catalog().Empty() {
		return fmt.Errorf("%w: check %s", session.ErrNoCatalog, a.layout.ConfigPath())
	}
	d, err := a.session.Select(key)
	if err != nil {
		return err
	}
	if errs := catalog.ValidateValues(d, values); len(errs) > 0 {
		return errors.Join(errs...)
	}
	if extra := catalog.ExtraKeys(d, values); len(extra) > 0 {
		a.log.WithField("params", extra).Warn("Passing parameters the catalog does not declare")
	}
	if !a.layout.Installed(d) {
		return fmt.Errorf("%s is not installed; run: scriptdeck download %s", d.Name, d.Repo)
	}

	term := a.terminal()
	var onOutput runner.OnOutput
	if !asJSON {
		onOutput = func(ev runner.OutputEvent) {
			if ev.Channel == runner.Stderr {
				fmt.Fprint(a.stderr, term.Event(ev))
				return
			}
			fmt.Fprint(a.stdout, term.Event(ev))
		}
	}

	res, err := a.session.Execute(ctx, d, values, onOutput)
	if err != nil {
		return err
	}
	if asJSON {
		fmt.Fprint(a.stdout, render.NewJSON().Result(d.Name, res))
	} else {
		fmt.Fprint(a.stderr, "\n"+term.Result(d.Name, res))
	}
	return resultError(res)
}

func resultError(res *outcome.Result) error {
	if res.Succeeded {
		return nil
	}
	code := res.ExitCode
	if code == 0 {
		code = 1
	}
	return exitCodeError{code: code}
}

func newCheckCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "check [repo...]",
		Short: "Compare installed scripts with the latest commit on GitHub",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Check(cmd.Context(), args, refresh)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached results")
	return cmd
}

// Check prints the update status of repos, or of every catalog repository.
func (a *app) Check(ctx context.Context, repos []string, refresh bool) error {
	if len(repos) == 0 {
		repos = a.session.Catalog().Repos()
	}
	term := a.terminal()
	var errs []error
	for _, repo := range repos {
		check := a.updates.Check
		if refresh {
			check = a.updates.Refresh
		}
		st, err := check(ctx, repo)
		if err != nil {
			fmt.Fprintf(a.stderr, "%s %s  %v\n", a.theme.Icons.Fail, repo, err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprint(a.stdout, term.Status(st.Repo, st.CurrentVersion, st.LatestVersion, st.HasUpdate))
	}
	return errors.Join(errs...)
}

func newDownloadCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "download [name|repo]",
		Short: "Download a script, or every script with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("name one script or pass --all")
			}
			if len(args) > 1 {
				return fmt.Errorf("accepts at most one script, got %d", len(args))
			}
			return a.Download(cmd.Context(), args, all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "download every script in the catalog")
	return cmd
}

// Download fetches one script, or all of them, reporting each as it lands.
func (a *app) Download(ctx context.Context, keys []string, all bool) error {
	scripts := a.session.Catalog().Scripts
	if !all {
		d, err := a.session.Catalog().Find(keys[0])
		if err != nil {
			return err
		}
		scripts = []catalog.ScriptDescriptor{d}
	}
	report := func(d catalog.ScriptDescriptor, dl updates.Download, err error) {
		if err != nil {
			fmt.Fprintf(a.stderr, "%s %s  %v\n", a.theme.Error.Render(a.theme.Icons.Fail), d.Name, err)
			return
		}
		fmt.Fprintf(a.stdout, "%s %s  %s (%s)\n", a.theme.Success.Render(a.theme.Icons.Pass), d.Name, dl.Path, dl.Version)
	}
	return a.updates.DownloadAll(ctx, scripts, report)
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.History(cmd.Context(), limit, asJSON)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// History prints the most recent runs.
func (a *app) History(ctx context.Context, limit int, asJSON bool) error {
	if !a.history.Enabled() {
		return errors.New("run history is disabled")
	}
	runs, err := a.history.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	rows := make([]render.HistoryRow, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, render.HistoryRow{
			When:      r.Timestamp,
			Script:    r.Script,
			Elevated:  r.Elevated,
			Succeeded: r.Succeeded,
			ExitCode:  r.ExitCode,
			Duration:  r.Duration,
		})
	}
	if asJSON {
		fmt.Fprint(a.stdout, render.NewJSON().History(rows))
		return nil
	}
	fmt.Fprint(a.stdout, a.terminal().History(rows))
	return nil
}

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Open the interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Shell(cmd.Context())
		},
	}
}

// Shell runs the interactive shell.
func (a *app) Shell(ctx context.Context) error {
	return tui.Run(ctx, tui.Options{
		Session:  a.session,
		Branding: a.branding,
		Theme:    a.theme,
		Logger:   a.log,
	})
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "scriptdeck version %s\n", version.Version)
			fmt.Fprintf(a.stdout, "Commit: %s\n", version.CommitHash)
			fmt.Fprintf(a.stdout, "Built: %s\n", version.BuildDate)
		},
	}
}
