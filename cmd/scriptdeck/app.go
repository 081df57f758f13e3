package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/dkoosis/scriptdeck/internal/config"
	"github.com/dkoosis/scriptdeck/internal/github"
	"github.com/dkoosis/scriptdeck/internal/history"
	"github.com/dkoosis/scriptdeck/internal/logging"
	"github.com/dkoosis/scriptdeck/internal/session"
	"github.com/dkoosis/scriptdeck/internal/updates"
	"github.com/dkoosis/scriptdeck/pkg/catalog"
	"github.com/dkoosis/scriptdeck/pkg/render"
	"github.com/dkoosis/scriptdeck/pkg/runner"
)

// app holds everything a command needs, built once from the resolved
// configuration.
type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  config.CliFlags

	cfg      *config.ResolvedConfig
	log      *logrus.Logger
	logFile  *os.File
	layout   catalog.Layout
	session  *session.Session
	history  *history.Store
	updates  *updates.Service
	theme    render.Theme
	branding config.Branding
}

// Init resolves configuration and wires the components. Interactive runs log
// to a file beside the history database so the shell stays readable.
func (a *app) Init(ctx context.Context, interactive bool) error {
	bootLog := logging.New(logrus.WarnLevel, a.stderr, a.flags.NoColor)
	if err := config.LoadDotEnv(); err != nil {
		bootLog.WithError(err).Warn("Failed to load .env")
	}

	cfg, err := config.ResolveConfig(a.flags, bootLog)
	if err != nil {
		return err
	}
	a.cfg = cfg

	var logOut io.Writer = a.stderr
	if interactive {
		logOut = io.Discard
		if cfg.HistoryPath != "" {
			path := filepath.Join(filepath.Dir(cfg.HistoryPath), "scriptdeck.log")
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				a.logFile = f
				logOut = f
			}
		}
	}
	a.log = logging.New(cfg.LogLevel, logOut, cfg.NoColor || interactive)
	a.log.WithFields(logrus.Fields{
		"scripts_root": cfg.ScriptsRoot,
		"config_file":  cfg.ConfigFile,
	}).Debug("Configuration resolved")

	a.theme = render.DefaultTheme()
	if cfg.NoColor {
		a.theme = render.MonoTheme()
	}
	a.branding, _ = config.LoadBranding(filepath.Join(filepath.Dir(cfg.ScriptsRoot), "branding.json"))

	a.layout = catalog.Layout{Root: cfg.ScriptsRoot}
	cat := catalog.LoadOrEmpty(a.layout.ConfigPath(), a.log)

	gh, err := github.NewClient(ctx, github.Config{Owner: cfg.GitHubOwner, Token: cfg.GitHubToken, BaseURL: cfg.GitHubAPI})
	if err != nil {
		return fmt.Errorf("github client: %w", err)
	}
	a.log.WithField("auth", gh.GetAuthMethod()).Debug("GitHub client ready")
	a.updates = updates.NewService(gh, a.layout, a.log)

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		a.log.WithError(err).Warn("Run history disabled")
		store, _ = history.Open("")
	}
	a.history = store

	exec := runner.New(runner.Config{
		Interpreter:  cfg.Interpreter,
		PollInterval: cfg.PollInterval,
		TempDir:      cfg.TempDir,
		Logger:       a.log,
	})
	a.session = session.New(session.Options{
		Catalog:  cat,
		Layout:   a.layout,
		Executor: exec,
		History:  a.history,
		Updates:  a.updates,
		Logger:   a.log,
	})
	return nil
}

// Close releases the history database and log file.
func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil && a.log != nil {
			a.log.WithError(err).Warn("Failed to close history")
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func (a *app) terminal() *render.Terminal {
	return render.NewTerminal(a.theme, termWidth(a.stdout))
}

func (a *app) rows() []render.ScriptRow {
	scripts := a.session.Catalog().Scripts
	rows := make([]render.ScriptRow, 0, len(scripts))
	for _, s := range scripts {
		row := render.ScriptRow{
			Name:          s.Name,
			Repo:          s.Repo,
			Description:   s.Description,
			RequiresAdmin: s.RequiresAdmin,
			Installed:     a.layout.Installed(s),
		}
		if st, ok := a.updates.Cached(s.Repo); ok {
			row.Version = st.CurrentVersion
			row.HasUpdate = st.HasUpdate
		}
		rows = append(rows, row)
	}
	return rows
}
