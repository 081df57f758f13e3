// Package sanitize strips terminal artifacts from captured PowerShell output.
//
// PowerShell and package managers such as winget redraw progress with carriage
// returns and render glyphs that turn into mojibake once captured as text.
// None of it is meaningful in a static console, so it is removed before display.
package sanitize

import (
	"regexp"
	"strings"
)

// lineFilters drop a whole line when any of them matches.
var lineFilters = []*regexp.Regexp{
	// spinner frames: -, \, |, /
	regexp.MustCompile(`^\s*[-\\|/]+\s*$`),
	// progress bars: box drawing and block elements, or their CP437 mojibake
	regexp.MustCompile(`ΓûÆ|Γûê|ΓûÇ|[\x{2500}-\x{259F}]`),
	// download size lines such as "12.3 MB / 45.6 MB"
	regexp.MustCompile(`\d+(\.\d+)?\s*(KB|MB|GB)\s*/\s*\d+(\.\d+)?\s*(KB|MB|GB)`),
	regexp.MustCompile(`^\s{20,}[-\\|/]\s*$`),
	regexp.MustCompile(`^Downloading https?://`),
	regexp.MustCompile(`^Starting package install\.\.\.[-\\|/]`),
}

type replacement struct {
	re   *regexp.Regexp
	with string
}

// textFilters run in order over the rejoined text.
var textFilters = []replacement{
	{regexp.MustCompile(`At line:\d+\s+char:\d+\s*\n`), ""},
	{regexp.MustCompile(`At [^\n]+\.ps1:\d+\s+char:\d+\s*\n`), ""},
	{regexp.MustCompile(`Read-Host : Windows PowerShell is in NonInteractive mode\. Read and Prompt functionality is not available\.\s*\n`), ""},
	{regexp.MustCompile(`\+\s+\$null\s*=\s*Read-Host[^\n]*\n`), ""},
	{regexp.MustCompile(`\+\s+~+\s*\n`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*\+[ \t]+CategoryInfo[ \t]+:[^\n]+\n`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*\+[ \t]+FullyQualifiedErrorId[ \t]+:[^\n]+\n`), ""},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

var (
	ansiSequence = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
)

// Clean removes terminal artifacts from raw output and trims the result. It
// is pure and idempotent.
func Clean(raw string) string {
	return fixpoint(raw, pass)
}

// Chunk cleans one streamed block. Unlike Clean it keeps indentation and
// blank lines, since the block is one slice of a longer stream and callers
// concatenate blocks verbatim. A block whose only content was artifacts
// yields "".
func Chunk(raw string) string {
	text := fixpoint(strings.ReplaceAll(raw, "\r\n", "\n"), strip)
	if strings.TrimSpace(text) == "" && strings.TrimSpace(raw) != "" {
		return ""
	}
	return text
}

// fixpoint repeats f until the text stops changing. Every pass only removes
// or shortens text, so the loop terminates.
func fixpoint(text string, f func(string) string) string {
	for {
		next := f(text)
		if next == text {
			return next
		}
		text = next
	}
}

func pass(text string) string {
	return strings.TrimSpace(strip(text))
}

func strip(text string) string {
	// Control characters go first so that removing them cannot expose new
	// blank-line runs after the collapse step.
	text = ansiSequence.ReplaceAllString(text, "")
	text = controlChars.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !dropLine(line) {
			kept = append(kept, line)
		}
	}
	text = strings.Join(kept, "\n")

	for _, f := range textFilters {
		text = f.re.ReplaceAllString(text, f.with)
	}
	return text
}

func dropLine(line string) bool {
	for _, re := range lineFilters {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
