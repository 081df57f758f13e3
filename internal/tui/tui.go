// Package tui is the interactive scriptdeck shell: a script list, a parameter
// form and a live output pane.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/dkoosis/scriptdeck/internal/config"
	"github.com/dkoosis/scriptdeck/internal/session"
	"github.com/dkoosis/scriptdeck/internal/updates"
	"github.com/dkoosis/scriptdeck/pkg/catalog"
	"github.com/dkoosis/scriptdeck/pkg/outcome"
	"github.com/dkoosis/scriptdeck/pkg/render"
	"github.com/dkoosis/scriptdeck/pkg/runner"
)

// Options configures the shell.
type Options struct {
	Session  *session.Session
	Branding config.Branding
	Theme    render.Theme
	Logger   logrus.FieldLogger
}

// Run shows the shell until the user quits.
func Run(ctx context.Context, opts Options) error {
	program := tea.NewProgram(newModel(ctx, opts), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

type state int

const (
	stateList state = iota
	stateForm
	stateRunning
	stateDone
)

type outputMsg runner.OutputEvent

type finishedMsg struct {
	res *outcome.Result
	err error
}

type checkedMsg struct {
	repo   string
	status updates.Status
	err    error
}

type downloadedMsg struct {
	name string
	dl   updates.Download
	err  error
}

type model struct {
	ctx      context.Context
	sess     *session.Session
	branding config.Branding
	theme    render.Theme
	styles   styles
	log      logrus.FieldLogger

	state   state
	cursor  int
	form    *form
	running catalog.ScriptDescriptor
	events  chan tea.Msg
	cancel  context.CancelFunc
	output  string
	result  *outcome.Result
	runErr  error
	notice  string

	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int
	ready    bool
}

func newModel(ctx context.Context, opts Options) model {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	theme := opts.Theme
	if theme.Name == "" {
		theme = render.DefaultTheme()
	}
	branding := opts.Branding
	if branding.AppName == "" {
		branding = config.DefaultBranding()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	vp := viewport.New(0, 0)
	vp.SetContent(branding.WelcomeSubtitle)
	return model{
		ctx:      ctx,
		sess:     opts.Session,
		branding: branding,
		theme:    theme,
		styles:   newStyles(theme),
		log:      log,
		spinner:  sp,
		viewport: vp,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) scripts() []catalog.ScriptDescriptor {
	return m.sess.Catalog().Scripts
}

func (m model) current() (catalog.ScriptDescriptor, bool) {
	s := m.scripts()
	if m.cursor < 0 || m.cursor >= len(s) {
		return catalog.ScriptDescriptor{}, false
	}
	return s[m.cursor], true
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(m.detailWidth()-4, 10)
		m.viewport.Height = max(msg.Height-8, 3)
		m.ready = true
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		if m.state != stateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case outputMsg:
		m.output += render.NewTerminal(m.theme, m.viewport.Width).Event(runner.OutputEvent(msg))
		m.refreshOutput()
		return m, listen(m.events)
	case finishedMsg:
		m.finish(msg)
		return m, nil
	case checkedMsg:
		if msg.err != nil {
			m.notice = m.styles.errorText.Render(fmt.Sprintf("Update check failed: %v", msg.err))
		} else {
			m.notice = strings.TrimRight(render.NewTerminal(m.theme, m.width).Status(msg.repo, msg.status.CurrentVersion, msg.status.LatestVersion, msg.status.HasUpdate), "\n")
		}
		return m, nil
	case downloadedMsg:
		if msg.err != nil {
			m.notice = m.styles.errorText.Render(fmt.Sprintf("Download of %s failed: %v", msg.name, msg.err))
		} else {
			m.notice = m.styles.success.Render(fmt.Sprintf("%s %s downloaded (%s)", m.styles.icons.Pass, msg.name, msg.dl.Version))
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if m.state == stateRunning && m.cancel != nil {
			m.cancel()
			return m, nil
		}
		return m, tea.Quit
	}

	switch m.state {
	case stateList:
		return m.handleListKey(msg)
	case stateForm:
		if msg.String() == "esc" {
			m.state = stateList
			m.form = nil
			return m, nil
		}
		submit, cmd := m.form.update(msg)
		if !submit {
			return m, cmd
		}
		if errs := m.form.Validate(); len(errs) > 0 {
			return m, nil
		}
		return m.start(m.form.script, m.form.Values())
	case stateRunning:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case stateDone:
		switch msg.String() {
		case "esc", "enter":
			m.state = stateList
			return m, nil
		case "q":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.scripts())-1 {
			m.cursor++
		}
	case "enter":
		d, ok := m.current()
		if !ok {
			return m, nil
		}
		if _, err := m.sess.Select(d.Repo); err != nil {
			m.notice = m.styles.errorText.Render(err.Error())
			return m, nil
		}
		if len(d.Parameters) == 0 {
			return m.start(d, catalog.Values{})
		}
		m.form = newForm(d)
		m.state = stateForm
		return m, m.form.focusField(0)
	case "u":
		if d, ok := m.current(); ok && m.sess.Updates() != nil {
			m.notice = m.styles.muted.Render("Checking " + d.Repo + "...")
			return m, checkUpdate(m.ctx, m.sess.Updates(), d.Repo)
		}
	case "d":
		if d, ok := m.current(); ok && m.sess.Updates() != nil {
			m.notice = m.styles.muted.Render("Downloading " + d.Name + "...")
			return m, download(m.ctx, m.sess.Updates(), d)
		}
	}
	return m, nil
}

// start launches the run in the background and streams its events back
// through m.events.
func (m model) start(d catalog.ScriptDescriptor, values catalog.Values) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(m.ctx)
	events := make(chan tea.Msg, 64)
	m.state = stateRunning
	m.running = d
	m.events = events
	m.cancel = cancel
	m.output = ""
	m.result = nil
	m.runErr = nil
	m.notice = ""
	m.refreshOutput()

	sess := m.sess
	go func() {
		defer close(events)
		defer cancel()
		res, err := sess.Execute(ctx, d, values, func(ev runner.OutputEvent) {
			events <- outputMsg(ev)
		})
		events <- finishedMsg{res: res, err: err}
	}()
	return m, tea.Batch(listen(events), m.spinner.Tick)
}

func (m *model) finish(msg finishedMsg) {
	m.state = stateDone
	m.result = msg.res
	m.runErr = msg.err
	m.events = nil
	m.cancel = nil
	term := render.NewTerminal(m.theme, m.viewport.Width)
	if msg.err != nil {
		m.log.WithError(msg.err).WithField("script", m.running.Name).Error("Run failed")
		m.output += "\n" + m.styles.errorText.Render(msg.err.Error()) + "\n"
	} else {
		m.output += "\n" + term.Result(m.running.Name, msg.res)
	}
	m.refreshOutput()
}

func (m *model) refreshOutput() {
	m.viewport.SetContent(m.output)
	m.viewport.GotoBottom()
}

// listen waits for the next event of a run.
func listen(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func checkUpdate(ctx context.Context, svc *updates.Service, repo string) tea.Cmd {
	return func() tea.Msg {
		st, err := svc.Refresh(ctx, repo)
		return checkedMsg{repo: repo, status: st, err: err}
	}
}

func download(ctx context.Context, svc *updates.Service, d catalog.ScriptDescriptor) tea.Cmd {
	return func() tea.Msg {
		dl, err := svc.Download(ctx, d)
		return downloadedMsg{name: d.Name, dl: dl, err: err}
	}
}

func (m model) listWidth() int {
	w := 22
	for _, s := range m.scripts() {
		w = max(w, len(s.Name)+6)
	}
	return min(w, max(m.width/3, 22))
}

func (m model) detailWidth() int {
	return m.width - m.listWidth() - 2
}

func (m model) View() string {
	if !m.ready {
		return "Loading " + m.branding.AppName + "..."
	}

	title := m.styles.title.Render(m.branding.AppName)
	contentHeight := max(m.height-4, 5)

	list := m.styles.panel.Width(m.listWidth()).Render(fit(m.renderList(), contentHeight-2))
	detail := m.styles.panel.Width(m.detailWidth()).Render(fit(m.renderDetail(), contentHeight-2))
	panels := lipgloss.JoinHorizontal(lipgloss.Top, list, detail)

	return lipgloss.JoinVertical(lipgloss.Left, title, panels, m.renderStatus())
}

func (m model) renderList() string {
	scripts := m.scripts()
	if len(scripts) == 0 {
		return m.styles.muted.Render("No scripts available.")
	}
	layout := m.sess.Layout()
	width := m.listWidth() - 6
	lines := make([]string, 0, len(scripts))
	for i, s := range scripts {
		icon := m.styles.success.Render(m.styles.icons.Pass)
		if !layout.Installed(s) {
			icon = m.styles.muted.Render(m.styles.icons.Missing)
		} else if m.sess.Updates() != nil {
			if st, ok := m.sess.Updates().Cached(s.Repo); ok && st.HasUpdate {
				icon = m.styles.warning.Render(m.styles.icons.Update)
			}
		}
		name := render.Truncate(s.Name, width)
		if i == m.cursor {
			lines = append(lines, m.styles.selected.Render("▸ ")+icon+" "+m.styles.selected.Render(name))
		} else {
			lines = append(lines, "  "+icon+" "+name)
		}
	}
	return strings.Join(lines, "\n")
}

func (m model) renderDetail() string {
	switch m.state {
	case stateForm:
		return m.form.view(m.styles)
	case stateRunning:
		return m.styles.header.Render(m.spinner.View()+" "+m.running.Name) + "\n\n" + m.viewport.View()
	case stateDone:
		return m.styles.header.Render(m.running.Name) + "\n\n" + m.viewport.View()
	}
	d, ok := m.current()
	if !ok {
		return m.styles.header.Render(m.branding.WelcomeTitle) + "\n" + m.styles.muted.Render(m.branding.WelcomeSubtitle)
	}
	var sb strings.Builder
	sb.WriteString(m.styles.header.Render(d.Name) + "\n")
	sb.WriteString(m.styles.muted.Render(d.Repo+"/"+d.File) + "\n\n")
	if d.Description != "" {
		sb.WriteString(d.Description + "\n\n")
	}
	if d.RequiresAdmin {
		sb.WriteString(m.styles.warning.Render(m.styles.icons.Admin+" Requires administrator privileges") + "\n")
	}
	if len(d.Parameters) > 0 {
		fmt.Fprintf(&sb, "%d parameter(s)\n", len(d.Parameters))
	}
	return sb.String()
}

func (m model) renderStatus() string {
	var help string
	switch m.state {
	case stateList:
		help = "↑/↓ navigate • enter run • u check update • d download • q quit"
	case stateForm:
		help = "tab next • space toggle • ←/→ choose • enter next/run • esc back"
	case stateRunning:
		help = "ctrl+c cancel • pgup/pgdn scroll"
	case stateDone:
		help = "enter back • pgup/pgdn scroll • q quit"
	}
	if m.notice != "" {
		return m.notice + "\n" + m.styles.statusBar.Render(help)
	}
	return "\n" + m.styles.statusBar.Render(help)
}

// fit pads or cuts content to exactly height lines.
func fit(content string, height int) string {
	lines := strings.Split(content, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}
