package runner

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

type fakeProcess struct {
	stdout  io.Reader
	stderr  io.Reader
	code    int
	waitErr error
	// release, when set, blocks Wait until closed.
	release chan struct{}
}

func (p *fakeProcess) Stdout() io.Reader { return p.stdout }
func (p *fakeProcess) Stderr() io.Reader { return p.stderr }

func (p *fakeProcess) Wait() (int, error) {
	if p.release != nil {
		<-p.release
	}
	return p.code, p.waitErr
}

func newFakeProcess(stdout, stderr string, code int) *fakeProcess {
	return &fakeProcess{stdout: strings.NewReader(stdout), stderr: strings.NewReader(stderr), code: code}
}

type fakeLauncher struct {
	mu   sync.Mutex
	argv []string
	proc Process
	err  error
}

func (l *fakeLauncher) Start(_ context.Context, argv []string) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.argv = append([]string(nil), argv...)
	if l.err != nil {
		return nil, l.err
	}
	return l.proc, nil
}

func (l *fakeLauncher) Argv() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.argv
}

type fakeTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func newFakeTicker() *fakeTicker { return &fakeTicker{c: make(chan time.Time)} }

func (t *fakeTicker) C() <-chan time.Time { return t.c }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Tick blocks until the poll loop has taken the tick.
func (t *fakeTicker) Tick() { t.c <- time.Now() }

type recorder struct {
	mu     sync.Mutex
	events []OutputEvent
	ch     chan OutputEvent
}

func newRecorder() *recorder { return &recorder{ch: make(chan OutputEvent, 64)} }

func (r *recorder) OnOutput(ev OutputEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
}

func (r *recorder) Events() []OutputEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OutputEvent(nil), r.events...)
}

func (r *recorder) Text(ch Channel) string {
	var b strings.Builder
	for _, ev := range r.Events() {
		if ev.Channel == ch {
			b.WriteString(ev.Text)
		}
	}
	return b.String()
}
