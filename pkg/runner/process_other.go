//go:build !windows

package runner

import "os/exec"

// hideWindow is a no-op where processes have no console window.
func hideWindow(cmd *exec.Cmd) {}
