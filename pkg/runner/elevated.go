package runner

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dkoosis/scriptdeck/pkg/invocation"
	"github.com/dkoosis/scriptdeck/pkg/outcome"
)

// ElevationNotice is shown before the UAC prompt appears.
const ElevationNotice = "⚠️  This script requires administrator privileges.\nPlease approve the UAC prompt to continue...\n\n"

// uacCanceled is what Start-Process writes when the consent prompt is declined.
const uacCanceled = "canceled by the user"

// Ticker drives capture-file polling.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTicker returns a Ticker backed by time.Ticker.
func NewTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func newCaptureID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CapturePaths returns the output and error file names for one run.
func CapturePaths(dir, prefix, id string) invocation.Capture {
	return invocation.Capture{
		OutputFile: filepath.Join(dir, fmt.Sprintf("%s-output-%s.txt", prefix, id)),
		ErrorFile:  filepath.Join(dir, fmt.Sprintf("%s-error-%s.txt", prefix, id)),
	}
}

type waitResult struct {
	code int
	err  error
}

// runElevated goes Spawning, Polling, Draining, Complete. Both capture files
// are removed on every path out of this function, and it never returns while
// the wrapper process is still running.
func (r *Runner) runElevated(ctx context.Context, inv string, em *emitter, log logrus.FieldLogger) (outcome.Evidence, error) {
	id, err := r.cfg.CaptureID()
	if err != nil {
		return outcome.Evidence{}, fmt.Errorf("%w: capture id: %w", ErrSpawn, err)
	}
	capture := CapturePaths(r.cfg.TempDir, r.cfg.TempPrefix, id)
	log = log.WithField("capture_id", id)
	defer removeCapture(capture, log)

	argv := append([]string{r.cfg.Interpreter}, invocation.ElevatedArgs(r.cfg.Interpreter, inv, capture)...)
	proc, err := r.cfg.Launcher.Start(ctx, argv)
	if err != nil {
		return outcome.Evidence{}, fmt.Errorf("%w: %s: %w", ErrSpawn, argv[0], err)
	}
	em.Notice(ElevationNotice)

	out := newFileStream(capture.OutputFile, em.Stdout, log)
	errs := newFileStream(capture.ErrorFile, em.Stderr, log)

	var wrapperErr strings.Builder
	done := make(chan waitResult, 1)
	go func() {
		pumpPipes(proc, em.Stdout, func(chunk string) {
			wrapperErr.WriteString(chunk)
			if outcome.IsBenign(chunk) {
				return
			}
			em.Stderr(chunk)
		}, log)
		code, err := proc.Wait()
		done <- waitResult{code: code, err: err}
	}()

	ticker := r.cfg.NewTicker(r.cfg.PollInterval)
	var res waitResult
poll:
	for {
		select {
		case <-ticker.C():
			out.Poll()
			errs.Poll()
		case res = <-done:
			break poll
		case <-ctx.Done():
			// The wrapper keeps running, so hold until it exits and its pipes
			// are drained. Nothing it writes from here on is delivered.
			em.close()
			ticker.Stop()
			log.Info("Run canceled, waiting for interpreter to exit")
			<-done
			return outcome.Evidence{}, ctx.Err()
		}
	}
	ticker.Stop()

	out.Poll()
	errs.Poll()
	out.Flush()
	errs.Flush()

	if res.err != nil {
		return outcome.Evidence{}, fmt.Errorf("wait for %s: %w", argv[0], res.err)
	}
	if strings.Contains(wrapperErr.String(), uacCanceled) {
		return outcome.Evidence{}, ErrElevationDenied
	}

	// The wrapper merges 2>&1 into the output file, so script errors live there.
	full := errs.Raw() + wrapperErr.String() + out.Raw()
	return outcome.Evidence{ExitCode: res.code, FullErrors: full}, nil
}

func removeCapture(c invocation.Capture, log logrus.FieldLogger) {
	for _, path := range []string{c.OutputFile, c.ErrorFile} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).WithField("path", path).Warn("Failed to remove capture file")
		}
	}
}
