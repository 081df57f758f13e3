// Package outcome decides whether a finished script run succeeded and attaches
// remediation guidance for known failure signatures.
//
// Signatures are plain, case-sensitive substrings taken from English-locale
// Windows PowerShell 5.1 output. They are incomplete and locale-dependent;
// extend them only with a recorded reason.
package outcome

import "strings"

// Signature is a named set of substrings; any one of them matches.
type Signature struct {
	Name     string
	Patterns []string
}

// In reports whether text contains any of the signature's patterns.
func (s Signature) In(text string) bool {
	for _, p := range s.Patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

var (
	// ReadHost marks a script that tried to prompt in a non-interactive host.
	ReadHost = Signature{Name: "read-host-in-noninteractive", Patterns: []string{
		"Read-Host",
		"NonInteractive mode",
		"PSInvalidOperationException",
		"InvalidOperation,Microsoft.PowerShell.Commands.ReadHostCommand",
	}}

	// Authorization marks a downloaded script blocked from running.
	Authorization = Signature{Name: "authorization-unblock", Patterns: []string{
		"AuthorizationManager",
		"UnauthorizedAccess",
		"PSSecurityException",
	}}

	// ExecutionPolicy marks an execution-policy restriction.
	ExecutionPolicy = Signature{Name: "execution-policy", Patterns: []string{
		"execution policy",
		"ExecutionPolicy",
	}}

	// Blocked is the narrower signature that gets unblock guidance.
	Blocked = Signature{Name: "downloaded-file-blocked", Patterns: []string{
		"AuthorizationManager check failed",
		"UnauthorizedAccess",
	}}

	// License marks winget waiting for source agreement acceptance.
	License = Signature{Name: "winget-license", Patterns: []string{
		"accept the source agreements",
		"msstore source agreement",
		"accept source agreement",
		"Terms of Transaction",
	}}

	// ScriptsDisabled is how an execution-policy block reads in script output.
	ScriptsDisabled = Signature{Name: "scripts-disabled", Patterns: []string{
		"cannot be loaded because running scripts is disabled",
	}}
)

// benign signatures have dedicated guidance, so their raw stderr is withheld
// from the live stream.
var benign = []Signature{ReadHost, Authorization, ExecutionPolicy}

// IsBenign reports whether a stderr block should be withheld from display.
func IsBenign(chunk string) bool {
	for _, s := range benign {
		if s.In(chunk) {
			return true
		}
	}
	return false
}
