// Package render formats scripts, live output and run results for the
// terminal and for automation.
package render

import (
	"fmt"
	"time"

	"github.com/mattn/go-runewidth"
)

// ScriptRow is one line of a script listing.
type ScriptRow struct {
	Name          string `json:"name"`
	Repo          string `json:"repo"`
	Description   string `json:"description,omitempty"`
	RequiresAdmin bool   `json:"requires_admin"`
	Installed     bool   `json:"installed"`
	Version       string `json:"version,omitempty"`
	HasUpdate     bool   `json:"has_update"`
}

// HistoryRow is one past run.
type HistoryRow struct {
	When      time.Time     `json:"when"`
	Script    string        `json:"script"`
	Elevated  bool          `json:"elevated"`
	Succeeded bool          `json:"succeeded"`
	ExitCode  int           `json:"exit_code"`
	Duration  time.Duration `json:"duration"`
}

// Truncate shortens s to at most width terminal cells, ending in an ellipsis
// when cut. East Asian wide runes count as two cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Pad right-fills s with spaces to width cells.
func Pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// FormatDuration shows milliseconds below a second, tenths above.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Round(100*time.Millisecond).Seconds())
}
