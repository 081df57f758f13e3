package invocation

import (
	"fmt"
	"strings"
)

// DefaultInterpreter is Windows PowerShell. pwsh also accepts these flags.
const DefaultInterpreter = "powershell.exe"

// Capture names the files an elevated process writes its output into.
type Capture struct {
	OutputFile string
	ErrorFile  string
}

// DirectArgs is the interpreter argv for a non-elevated run: no profile, no
// interactive input, signing policy bypassed for this one command.
func DirectArgs(inv string) []string {
	return []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-Command", inv}
}

// Wrapper is the script fragment the elevated process runs. Output and errors
// go to the capture files as UTF-8; the fragment exits with the script's code.
func Wrapper(inv string, c Capture) string {
	return fmt.Sprintf(
		`try { %s 2>&1 | Out-File -FilePath "%s" -Encoding UTF8 -Force; exit $LASTEXITCODE } catch { $_ | Out-File -FilePath "%s" -Encoding UTF8 -Force; exit 1 }`,
		inv, escape(c.OutputFile), escape(c.ErrorFile))
}

// Elevate wraps inv in a Start-Process -Verb RunAs launch that triggers the
// UAC consent prompt, runs hidden, and blocks until the elevated process exits.
// The outer process exits with the elevated process's code.
func Elevate(interpreter, inv string, c Capture) string {
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	inner := argumentEscaper.Replace(Wrapper(inv, c))
	return fmt.Sprintf(
		"$process = Start-Process %s -ArgumentList '-NoProfile','-NonInteractive','-ExecutionPolicy','Bypass','-Command','%s' -Verb RunAs -PassThru -Wait -WindowStyle Hidden; exit $process.ExitCode",
		interpreter, inner)
}

// ElevatedArgs is the argv of the outer, non-elevated launcher process.
func ElevatedArgs(interpreter, inv string, c Capture) []string {
	return DirectArgs(Elevate(interpreter, inv, c))
}

// argumentEscaper prepares text for a single-quoted Start-Process argument
// that the elevated interpreter re-parses as a command line.
var argumentEscaper = strings.NewReplacer(`"`, `\"`, "'", "''", "\n", "; ")
