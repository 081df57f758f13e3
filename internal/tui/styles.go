package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dkoosis/scriptdeck/pkg/render"
)

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	accent    lipgloss.Style
	muted     lipgloss.Style
	success   lipgloss.Style
	warning   lipgloss.Style
	errorText lipgloss.Style
	selected  lipgloss.Style
	panel     lipgloss.Style
	statusBar lipgloss.Style
	icons     render.ThemeIcons
}

func newStyles(t render.Theme) styles {
	s := styles{
		title:     t.Bold.Inherit(t.Primary).Padding(0, 1),
		header:    t.Bold,
		accent:    t.Primary,
		muted:     t.Muted,
		success:   t.Success,
		warning:   t.Warning,
		errorText: t.Error,
		selected:  t.Bold.Inherit(t.Primary),
		panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		statusBar: t.Muted,
		icons:     t.Icons,
	}
	if t.Name == "mono" {
		s.panel = lipgloss.NewStyle().Padding(0, 1)
	}
	return s
}
