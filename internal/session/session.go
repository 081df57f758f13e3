// Package session holds the state one user works with: the loaded catalog,
// the selected script, and the single execution that may be in flight.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dkoosis/scriptdeck/internal/history"
	"github.com/dkoosis/scriptdeck/internal/updates"
	"github.com/dkoosis/scriptdeck/pkg/catalog"
	"github.com/dkoosis/scriptdeck/pkg/outcome"
	"github.com/dkoosis/scriptdeck/pkg/runner"
)

var (
	// ErrBusy is returned when an execution is already in flight.
	ErrBusy = errors.New("a script is already running")
	// ErrNoCatalog is returned when there are no scripts to run.
	ErrNoCatalog = errors.New("no scripts available")
)

// Executor runs one request to completion.
type Executor interface {
	Execute(ctx context.Context, req runner.Request, onOutput runner.OnOutput) (*outcome.Result, error)
}

// Recorder persists completed runs.
type Recorder interface {
	Record(ctx context.Context, r history.Run) error
}

// Options configures a Session. Catalog, Layout and Executor are required.
type Options struct {
	Catalog  *catalog.Catalog
	Layout   catalog.Layout
	Executor Executor
	History  Recorder
	Updates  *updates.Service
	Logger   logrus.FieldLogger
}

// Session is safe for concurrent use; Execute admits one caller at a time.
type Session struct {
	catalog  *catalog.Catalog
	layout   catalog.Layout
	exec     Executor
	history  Recorder
	updates  *updates.Service
	log      logrus.FieldLogger
	running  atomic.Bool
	mu       sync.Mutex
	selected *catalog.ScriptDescriptor
}

// New returns a session over opts.
func New(opts Options) *Session {
	cat := opts.Catalog
	if cat == nil {
		cat = &catalog.Catalog{}
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Session{
		catalog: cat,
		layout:  opts.Layout,
		exec:    opts.Executor,
		history: opts.History,
		updates: opts.Updates,
		log:     log,
	}
}

func (s *Session) Catalog() *catalog.Catalog { return s.catalog }
func (s *Session) Layout() catalog.Layout    { return s.layout }

// Updates returns the update service, or nil when updates are disabled.
func (s *Session) Updates() *updates.Service { return s.updates }

// Running reports whether an execution is in flight.
func (s *Session) Running() bool { return s.running.Load() }

// Select makes the script named by key current.
func (s *Session) Select(key string) (catalog.ScriptDescriptor, error) {
	d, err := s.catalog.Find(key)
	if err != nil {
		return catalog.ScriptDescriptor{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &d
	return d, nil
}

// Selected returns the current script, if any.
func (s *Session) Selected() (catalog.ScriptDescriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return catalog.ScriptDescriptor{}, false
	}
	return *s.selected, true
}

// Execute runs d with values. A second call while one is in flight fails
// with ErrBusy rather than queueing.
func (s *Session) Execute(ctx context.Context, d catalog.ScriptDescriptor, values catalog.Values, onOutput runner.OnOutput) (*outcome.Result, error) {
	if s.catalog.Empty() {
		return nil, ErrNoCatalog
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	started := time.Now()
	req := runner.Request{Script: d, ScriptPath: s.layout.ScriptPath(d), Values: values}
	res, err := s.exec.Execute(ctx, req, onOutput)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", d.Name, err)
	}

	if s.history != nil {
		run := history.Run{
			RunID:       res.RunID,
			Timestamp:   started,
			Script:      d.Name,
			Repo:        d.Repo,
			Elevated:    d.RequiresAdmin,
			Succeeded:   res.Succeeded,
			ExitCode:    res.ExitCode,
			Duration:    res.Duration,
			HasGuidance: res.Guidance != "",
		}
		if err := s.history.Record(ctx, run); err != nil {
			s.log.WithError(err).WithField("run_id", res.RunID).Warn("Failed to record run history")
		}
	}
	return res, nil
}
