package runner

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dkoosis/scriptdeck/pkg/invocation"
	"github.com/dkoosis/scriptdeck/pkg/outcome"
)

// runDirect runs inv with piped output. Stderr blocks that carry a signature
// with its own guidance are withheld from display but kept for classification.
func (r *Runner) runDirect(ctx context.Context, inv string, em *emitter, log logrus.FieldLogger) (outcome.Evidence, error) {
	argv := append([]string{r.cfg.Interpreter}, invocation.DirectArgs(inv)...)
	proc, err := r.cfg.Launcher.Start(ctx, argv)
	if err != nil {
		return outcome.Evidence{}, fmt.Errorf("%w: %s: %w", ErrSpawn, argv[0], err)
	}

	var fullErr strings.Builder
	pumpPipes(proc, em.Stdout, func(chunk string) {
		fullErr.WriteString(chunk)
		if outcome.IsBenign(chunk) {
			log.Debug("Withholding stderr block with known signature")
			return
		}
		em.Stderr(chunk)
	}, log)

	code, err := proc.Wait()
	if err != nil {
		return outcome.Evidence{}, fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return outcome.Evidence{ExitCode: code, FullErrors: fullErr.String()}, nil
}

// pumpPipes reads both process pipes concurrently and returns once both hit
// EOF. Each sink is only ever called from its own reader goroutine.
func pumpPipes(proc Process, stdout, stderr func(string), log logrus.FieldLogger) {
	var wg sync.WaitGroup
	read := func(name string, src func() io.Reader, sink func(string)) {
		defer wg.Done()
		if err := readLines(src(), sink); err != nil {
			log.WithError(err).WithField("pipe", name).Debug("Pipe read ended with error")
		}
	}
	wg.Add(2)
	go read("stdout", proc.Stdout, stdout)
	go read("stderr", proc.Stderr, stderr)
	wg.Wait()
}
