// Package runner executes catalog scripts through PowerShell, streams their
// sanitized output to a callback and classifies the finished run.
//
// Scripts that do not need administrator rights run directly with piped
// stdout/stderr. Scripts that do run behind a UAC prompt via Start-Process,
// which cannot inherit pipes, so their output is captured to temp files and
// polled while the elevated process runs.
package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dkoosis/scriptdeck/pkg/catalog"
	"github.com/dkoosis/scriptdeck/pkg/invocation"
	"github.com/dkoosis/scriptdeck/pkg/outcome"
)

var (
	// ErrSpawn is returned when the interpreter could not be started.
	ErrSpawn = errors.New("failed to start interpreter")
	// ErrElevationDenied is returned when the UAC prompt was declined.
	ErrElevationDenied = errors.New("elevation was denied")
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultTempPrefix   = "scriptdeck"
)

// Request is one script execution.
type Request struct {
	Script     catalog.ScriptDescriptor
	ScriptPath string
	Values     catalog.Values
}

// Config holds runner settings. Zero values get defaults.
type Config struct {
	Interpreter  string
	PollInterval time.Duration
	TempDir      string
	TempPrefix   string

	Logger     logrus.FieldLogger
	Launcher   Launcher
	NewTicker  func(time.Duration) Ticker
	CaptureID  func() (string, error)
	Classifier *outcome.Classifier
}

// Runner executes requests one at a time per caller.
type Runner struct {
	cfg Config
}

// New returns a runner with cfg normalized.
func New(cfg Config) *Runner {
	return &Runner{cfg: normalizeConfig(cfg)}
}

func normalizeConfig(cfg Config) Config {
	if cfg.Interpreter == "" {
		cfg.Interpreter = invocation.DefaultInterpreter
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.TempPrefix == "" {
		cfg.TempPrefix = DefaultTempPrefix
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.Logger = l
	}
	if cfg.Launcher == nil {
		cfg.Launcher = ExecLauncher{}
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewTicker
	}
	if cfg.CaptureID == nil {
		cfg.CaptureID = newCaptureID
	}
	if cfg.Classifier == nil {
		cfg.Classifier = outcome.NewClassifier()
	}
	return cfg
}

// Execute runs req to completion, delivering sanitized output to onOutput as
// it arrives. onOutput is never called after Execute returns. It returns an
// error only when the run could not take place; a script that ran and failed
// yields a Result with Succeeded false.
func (r *Runner) Execute(ctx context.Context, req Request, onOutput OnOutput) (*outcome.Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := r.cfg.Logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"script":   req.Script.Name,
		"elevated": req.Script.RequiresAdmin,
	})

	inv := invocation.Build(req.ScriptPath, req.Script.Parameters, req.Values)
	log.WithField("invocation", inv).Debug("Starting script")

	em := newEmitter(onOutput)
	defer em.close()
	var (
		ev  outcome.Evidence
		err error
	)
	if req.Script.RequiresAdmin {
		ev, err = r.runElevated(ctx, inv, em, log)
	} else {
		ev, err = r.runDirect(ctx, inv, em, log)
	}
	if err != nil {
		log.WithError(err).Warn("Script did not run")
		return nil, err
	}

	ev.Stdout = em.Output()
	ev.ForwardedErrors = em.Forwarded()
	ev.ScriptPath = req.ScriptPath

	res := r.cfg.Classifier.Classify(ev)
	res.RunID = runID
	res.Duration = time.Since(start)

	log.WithFields(logrus.Fields{
		"exit_code":    res.ExitCode,
		"raw_exit":     ev.ExitCode,
		"succeeded":    res.Succeeded,
		"duration_ms":  res.Duration.Milliseconds(),
		"has_guidance": res.Guidance != "",
	}).Info("Script finished")
	return res, nil
}
