package outcome

import (
	"path/filepath"
	"strings"
	"time"
)

// Result is the terminal value of one execution.
type Result struct {
	Succeeded      bool          `json:"succeeded"`
	ExitCode       int           `json:"exit_code"`
	CombinedOutput string        `json:"combined_output"`
	ErrorText      string        `json:"error_text,omitempty"`
	Guidance       string        `json:"guidance,omitempty"`
	RunID          string        `json:"run_id,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// Evidence is everything collected from a finished process.
type Evidence struct {
	ExitCode int
	// Stdout is the forwarded, sanitized stdout.
	Stdout string
	// ForwardedErrors is the stderr that was shown live.
	ForwardedErrors string
	// FullErrors holds every raw error byte, withheld or not.
	FullErrors string
	// ScriptPath locates the script for remediation text.
	ScriptPath string
}

// Combined is stdout plus every error byte.
func (e Evidence) Combined() string {
	return e.Stdout + e.FullErrors
}

// Rule attaches guidance to failures whose evidence matches.
type Rule struct {
	Name     string
	Match    func(Evidence) bool
	Guidance func(Evidence) string
}

// Classifier turns evidence into a Result. Rules are checked in order and
// every matching rule contributes its guidance.
type Classifier struct {
	Rules []Rule
}

// NewClassifier returns a classifier with the default remediation rules.
func NewClassifier() *Classifier {
	return &Classifier{Rules: DefaultRules()}
}

// Classify applies the decision rule:
//
//   - exit 0 succeeds, whatever stderr said;
//   - exit 1 whose only problem is a Read-Host prompt in a non-interactive
//     host succeeds with exit code 0, unless an authorization or
//     execution-policy signature is also present;
//   - anything else fails with its real exit code and any guidance.
//
// Only exit code 1 is ever reclassified.
func (c *Classifier) Classify(ev Evidence) *Result {
	res := &Result{CombinedOutput: ev.Stdout, ExitCode: ev.ExitCode}

	if ev.ExitCode == 0 || onlyReadHost(ev) {
		res.Succeeded = true
		res.ExitCode = 0
		res.ErrorText = ev.ForwardedErrors
		return res
	}

	var guidance strings.Builder
	for _, r := range c.Rules {
		if r.Match(ev) {
			guidance.WriteString(r.Guidance(ev))
		}
	}
	res.Guidance = guidance.String()
	res.ErrorText = ev.ForwardedErrors + res.Guidance
	return res
}

func onlyReadHost(ev Evidence) bool {
	return ev.ExitCode == 1 &&
		ReadHost.In(ev.FullErrors) &&
		!Authorization.In(ev.FullErrors) &&
		!ExecutionPolicy.In(ev.FullErrors)
}

// DefaultRules returns the unblock, license and execution-policy rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     Blocked.Name,
			Match:    func(ev Evidence) bool { return Blocked.In(ev.FullErrors) },
			Guidance: unblockGuidance,
		},
		{
			Name:     License.Name,
			Match:    func(ev Evidence) bool { return License.In(ev.Combined()) },
			Guidance: func(Evidence) string { return licenseGuidance },
		},
		{
			Name: ExecutionPolicy.Name,
			Match: func(ev Evidence) bool {
				return ExecutionPolicy.In(ev.FullErrors) || ScriptsDisabled.In(ev.Combined())
			},
			Guidance: func(Evidence) string { return policyGuidance },
		},
	}
}

func unblockGuidance(ev Evidence) string {
	path := ev.ScriptPath
	if path == "" {
		path = "<script path>"
	}
	pattern := filepath.Join(filepath.Dir(path), "*.ps1")
	return "\n\n⚠️  SCRIPT BLOCKED BY WINDOWS SECURITY\n\n" +
		"Windows has blocked this script because it was downloaded from the internet.\n\n" +
		"To fix this:\n" +
		"1. Right-click the script file in Windows Explorer:\n" +
		"   " + path + "\n" +
		"2. Select \"Properties\"\n" +
		"3. Check the \"Unblock\" box at the bottom\n" +
		"4. Click \"OK\"\n" +
		"5. Try running the script again\n\n" +
		"OR run this PowerShell command to unblock all scripts:\n" +
		"   Unblock-File -Path \"" + pattern + "\"\n"
}

const licenseGuidance = "\n\n⚠️  WINGET LICENSE AGREEMENT REQUIRED\n\n" +
	"Winget requires you to accept the license agreement on first use.\n\n" +
	"To fix this:\n" +
	"1. Open PowerShell or Command Prompt\n" +
	"2. Run this command:\n" +
	"   winget list\n" +
	"3. When prompted, press \"Y\" to accept the source agreements\n" +
	"4. Try running this script again\n\n" +
	"OR run this to accept all agreements automatically:\n" +
	"   winget list --accept-source-agreements\n"

const policyGuidance = "\n\n⚠️  POWERSHELL EXECUTION POLICY RESTRICTION\n\n" +
	"PowerShell is blocking script execution on this system.\n\n" +
	"To fix this permanently:\n" +
	"1. Open PowerShell as Administrator\n" +
	"2. Run this command:\n" +
	"   Set-ExecutionPolicy -Scope CurrentUser RemoteSigned\n" +
	"3. Press \"Y\" to confirm\n" +
	"4. Close and reopen this application\n\n" +
	"OR for less restrictive (use with caution):\n" +
	"   Set-ExecutionPolicy -Scope CurrentUser Unrestricted\n\n" +
	"Note: scripts are launched with \"-ExecutionPolicy Bypass\" but group policy can still block them.\n"
