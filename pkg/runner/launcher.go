package runner

import (
	"context"
	"errors"
	"io"
	"os/exec"
)

// Process is a started interpreter. Stdout and Stderr must be read to EOF
// before Wait is called.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	Wait() (exitCode int, err error)
}

// Launcher starts processes. argv[0] is the executable.
type Launcher interface {
	Start(ctx context.Context, argv []string) (Process, error)
}

// ExecLauncher starts real processes via os/exec. Stdin is left unconnected
// and no console window is shown.
type ExecLauncher struct{}

// Start launches argv. ctx is not used to kill the process; a run always
// goes to completion.
func (ExecLauncher) Start(_ context.Context, argv []string) (Process, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty argv")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	hideWindow(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code, ok := exitCodeFromError(exitErr); ok {
			return code, nil
		}
		return 1, nil
	}
	return -1, err
}

// exitCodeFromError extracts the exit code from an exec.ExitError.
func exitCodeFromError(exitErr *exec.ExitError) (int, bool) {
	if exitErr.ProcessState != nil {
		return exitErr.ProcessState.ExitCode(), true
	}
	return 0, false
}
