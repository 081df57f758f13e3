package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dkoosis/scriptdeck/pkg/outcome"
	"github.com/dkoosis/scriptdeck/pkg/runner"
)

// Terminal renders styled output via lipgloss.
type Terminal struct {
	theme Theme
	width int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width}
}

// Theme returns the renderer's theme.
func (t *Terminal) Theme() Theme { return t.theme }

// Scripts renders a listing, one script per line, with name and repo columns
// sized to the widest entry and descriptions cut to the remaining width.
func (t *Terminal) Scripts(rows []ScriptRow) string {
	if len(rows) == 0 {
		return t.theme.Muted.Render("No scripts available.") + "\n"
	}
	nameW, repoW := 0, 0
	for _, r := range rows {
		nameW = max(nameW, runewidth.StringWidth(r.Name))
		repoW = max(repoW, runewidth.StringWidth(r.Repo))
	}
	// icon, two flag cells, separators
	descW := t.width - nameW - repoW - 8

	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(t.stateIcon(r))
		sb.WriteString(" ")
		if r.RequiresAdmin {
			sb.WriteString(t.theme.Warning.Render(t.theme.Icons.Admin))
		} else {
			sb.WriteString(" ")
		}
		sb.WriteString(" ")
		sb.WriteString(t.theme.Bold.Render(Pad(r.Name, nameW)))
		sb.WriteString("  ")
		sb.WriteString(t.theme.Muted.Render(Pad(r.Repo, repoW)))
		if r.Description != "" && descW > 0 {
			sb.WriteString("  ")
			sb.WriteString(Truncate(r.Description, descW))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) stateIcon(r ScriptRow) string {
	switch {
	case !r.Installed:
		return t.theme.Muted.Render(t.theme.Icons.Missing)
	case r.HasUpdate:
		return t.theme.Warning.Render(t.theme.Icons.Update)
	default:
		return t.theme.Success.Render(t.theme.Icons.Pass)
	}
}

// Event renders one live output event. Stderr text is styled as an error.
func (t *Terminal) Event(ev runner.OutputEvent) string {
	if ev.Channel == runner.Stderr {
		return t.theme.Error.Render(strings.TrimRight(ev.Text, "\n")) + trailingNewline(ev.Text)
	}
	return ev.Text
}

func trailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return "\n"
	}
	return ""
}

// Result renders the closing summary of a run. Guidance, when present, is
// shown under the status line.
func (t *Terminal) Result(name string, res *outcome.Result) string {
	var sb strings.Builder
	if res.Succeeded {
		sb.WriteString(t.theme.Success.Render(fmt.Sprintf("%s %s completed", t.theme.Icons.Pass, name)))
	} else {
		sb.WriteString(t.theme.Error.Render(fmt.Sprintf("%s %s failed (exit code %d)", t.theme.Icons.Fail, name, res.ExitCode)))
	}
	sb.WriteString(t.theme.Muted.Render(" " + FormatDuration(res.Duration)))
	sb.WriteString("\n")
	if g := strings.TrimSpace(res.Guidance); g != "" {
		sb.WriteString("\n")
		sb.WriteString(t.theme.Warning.Render(g))
		sb.WriteString("\n")
	}
	return sb.String()
}

// History renders past runs, newest first as given.
func (t *Terminal) History(rows []HistoryRow) string {
	if len(rows) == 0 {
		return t.theme.Muted.Render("No runs recorded.") + "\n"
	}
	nameW := 0
	for _, r := range rows {
		nameW = max(nameW, runewidth.StringWidth(r.Script))
	}
	var sb strings.Builder
	for _, r := range rows {
		icon := t.theme.Success.Render(t.theme.Icons.Pass)
		if !r.Succeeded {
			icon = t.theme.Error.Render(t.theme.Icons.Fail)
		}
		fmt.Fprintf(&sb, "%s %s  %s  exit %-3d %s",
			icon,
			t.theme.Muted.Render(r.When.Local().Format("2006-01-02 15:04:05")),
			Pad(r.Script, nameW),
			r.ExitCode,
			t.theme.Muted.Render(FormatDuration(r.Duration)))
		if r.Elevated {
			sb.WriteString(" " + t.theme.Warning.Render(t.theme.Icons.Admin))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Status renders one line for an update check.
func (t *Terminal) Status(repo, current, latest string, hasUpdate bool) string {
	switch {
	case current == "":
		return fmt.Sprintf("%s %s  not installed (latest %s)\n", t.theme.Muted.Render(t.theme.Icons.Missing), repo, latest)
	case hasUpdate:
		return fmt.Sprintf("%s %s  %s -> %s\n", t.theme.Warning.Render(t.theme.Icons.Update), repo, current, latest)
	default:
		return fmt.Sprintf("%s %s  up to date (%s)\n", t.theme.Success.Render(t.theme.Icons.Pass), repo, current)
	}
}
