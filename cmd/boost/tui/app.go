package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/sequencer"
	"github.com/jamesainslie/boost/pkg/boost/sysinfo"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
	"github.com/jamesainslie/boost/pkg/client"
)

// Backend is the part of the daemon client the dashboard uses.
type Backend interface {
	Status(ctx context.Context) (*client.DaemonStatus, error)
	Toggle(ctx context.Context, wait bool) (sequencer.Snapshot, error)
	Deactivate(ctx context.Context, wait bool) (sequencer.Snapshot, error)
	WatchSession(ctx context.Context) (<-chan sequencer.Snapshot, error)

	Tweaks(ctx context.Context) ([]tweak.Tweak, error)
	SetTweak(ctx context.Context, id string, enabled bool) ([]tweak.Tweak, error)

	Profiles(ctx context.Context) ([]profile.Profile, int, error)
	ToggleFavorite(ctx context.Context, id int64) (profile.Profile, error)
	ApplyProfile(ctx context.Context, id int64) (profile.ApplyReport, error)

	Log(ctx context.Context, limit int) ([]activity.Entry, error)
	WatchLog(ctx context.Context) (<-chan activity.Entry, error)
	WatchMetrics(ctx context.Context) (<-chan sysinfo.Metrics, error)
}

var _ Backend = (*client.Client)(nil)

// Options configures the dashboard.
type Options struct {
	Backend Backend

	// LogLimit is how many activity entries are loaded and kept.
	LogLimit int
}

// pane is the list that has keyboard focus.
type pane int

const (
	paneTweaks pane = iota
	paneProfiles
)

// Model is the dashboard's Bubble Tea model.
type Model struct {
	backend Backend
	ctx     context.Context
	cancel  context.CancelFunc

	session   sequencer.Snapshot
	detecting []string
	tweaks    []tweak.Tweak
	profiles  []profile.Profile
	quick     []profile.Profile
	metrics   sysinfo.Metrics
	log       *entryBuffer
	logScroll int

	focus         pane
	tweakCursor   int
	profileCursor int

	// status is the one-line outcome of the last action.
	status    string
	statusErr bool

	loaded   bool
	quitting bool
	// reverting is set once the exit deactivation was sent.
	reverting bool

	sessionCh <-chan sequencer.Snapshot
	logCh     <-chan activity.Entry
	metricsCh <-chan sysinfo.Metrics

	spinner spinner.Model
	bar     progress.Model

	width  int
	height int
}

// NewModel creates the dashboard model.
func NewModel(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(warningColor)

	limit := opts.LogLimit
	if limit <= 0 {
		limit = 50
	}

	return Model{
		backend: opts.Backend,
		ctx:     ctx,
		cancel:  cancel,
		log:     newEntryBuffer(limit),
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		width:   80,
		height:  24,
	}
}

// refreshEvery bounds how stale the detection summary in the header can be.
const refreshEvery = 5 * time.Second

// Messages.
type (
	loadedMsg struct {
		status     *client.DaemonStatus
		tweaks     []tweak.Tweak
		profiles   []profile.Profile
		quickLimit int
		entries    []activity.Entry
		sessionCh  <-chan sequencer.Snapshot
		logCh      <-chan activity.Entry
		metricsCh  <-chan sysinfo.Metrics
	}
	sessionMsg  sequencer.Snapshot
	entryMsg    activity.Entry
	metricsMsg  sysinfo.Metrics
	tweaksMsg   []tweak.Tweak
	profilesMsg struct {
		profiles   []profile.Profile
		quickLimit int
	}
	statusMsg struct {
		text string
		err  error
	}
	// streamClosedMsg means the daemon went away.
	streamClosedMsg struct{}
	refreshTickMsg  struct{}
	detectingMsg    []string
	revertedMsg     struct{ err error }
	fatalMsg        struct{ err error }
)

// Init loads the initial state and opens the streams.
func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	b, ctx, limit := m.backend, m.ctx, m.log.maxEntries
	return func() tea.Msg {
		var msg loadedMsg
		var err error
		// Subscribe first so nothing appended during the load is lost.
		if msg.sessionCh, err = b.WatchSession(ctx); err != nil {
			return fatalMsg{err}
		}
		if msg.logCh, err = b.WatchLog(ctx); err != nil {
			return fatalMsg{err}
		}
		if msg.metricsCh, err = b.WatchMetrics(ctx); err != nil {
			return fatalMsg{err}
		}
		if msg.status, err = b.Status(ctx); err != nil {
			return fatalMsg{err}
		}
		if msg.tweaks, err = b.Tweaks(ctx); err != nil {
			return fatalMsg{err}
		}
		if msg.profiles, msg.quickLimit, err = b.Profiles(ctx); err != nil {
			return fatalMsg{err}
		}
		if msg.entries, err = b.Log(ctx, limit); err != nil {
			return fatalMsg{err}
		}
		return msg
	}
}

func listen[T any, M tea.Msg](ch <-chan T, wrap func(T) M) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return wrap(v)
	}
}

func (m Model) listenSession() tea.Cmd {
	return listen(m.sessionCh, func(s sequencer.Snapshot) sessionMsg { return sessionMsg(s) })
}

func (m Model) listenLog() tea.Cmd {
	return listen(m.logCh, func(e activity.Entry) entryMsg { return entryMsg(e) })
}

func (m Model) listenMetrics() tea.Cmd {
	return listen(m.metricsCh, func(s sysinfo.Metrics) metricsMsg { return metricsMsg(s) })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(min(msg.Width-30, 60), 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case loadedMsg:
		m.loaded = true
		m.session = msg.status.Session
		m.detecting = msg.status.Detecting
		m.tweaks = msg.tweaks
		m.setProfiles(msg.profiles, msg.quickLimit)
		m.log.Reset(msg.entries)
		m.sessionCh, m.logCh, m.metricsCh = msg.sessionCh, msg.logCh, msg.metricsCh
		cmds := []tea.Cmd{m.listenSession(), m.listenLog(), m.listenMetrics(), refreshTick()}
		if m.session.InProgress() {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case sessionMsg:
		wasBusy := m.session.InProgress()
		m.session = sequencer.Snapshot(msg)
		cmds := []tea.Cmd{m.listenSession()}
		if !wasBusy && m.session.InProgress() {
			cmds = append(cmds, m.spinner.Tick)
		}
		if m.quitting && !m.session.InProgress() {
			cmds = append(cmds, m.finishQuit())
		}
		return m, tea.Batch(cmds...)

	case entryMsg:
		m.log.Add(activity.Entry(msg))
		if m.logScroll > 0 {
			m.logScroll++
		}
		// Profile changes and detection log an entry; boost cycles only
		// touch tweaks.
		if m.session.InProgress() {
			return m, m.listenLog()
		}
		return m, tea.Batch(m.listenLog(), m.refreshProfiles())

	case metricsMsg:
		m.metrics = sysinfo.Metrics(msg)
		return m, m.listenMetrics()

	case refreshTickMsg:
		return m, tea.Batch(m.refreshDetecting(), refreshTick())

	case detectingMsg:
		m.detecting = msg
		return m, nil

	case tweaksMsg:
		m.tweaks = msg
		return m, nil

	case profilesMsg:
		m.setProfiles(msg.profiles, msg.quickLimit)
		return m, nil

	case statusMsg:
		m.status, m.statusErr = msg.text, msg.err != nil
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.session.InProgress() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case streamClosedMsg:
		if m.quitting {
			return m, tea.Quit
		}
		m.status, m.statusErr = "lost connection to boostd", true
		return m, nil

	case revertedMsg:
		m.cancel()
		return m, tea.Quit

	case fatalMsg:
		m.status, m.statusErr = msg.err.Error(), true
		m.cancel()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) setProfiles(ps []profile.Profile, quickLimit int) {
	m.profiles = ps
	m.quick = profile.Quick(ps, quickLimit)
	if m.profileCursor >= len(ps) {
		m.profileCursor = max(len(ps)-1, 0)
	}
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.cancel()
		return m, tea.Quit
	}
	if m.quitting || !m.loaded {
		return m, nil
	}

	switch key {
	case "q", "esc":
		return m.startQuit()
	case "b":
		m.status = ""
		return m, m.toggleBoost()
	case "tab":
		m.focus = (m.focus + 1) % 2
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "pgup":
		m.logScroll = clampScroll(m.logScroll+5, m.log.Len(), m.activityRows()-1)
	case "pgdown":
		m.logScroll = clampScroll(m.logScroll-5, m.log.Len(), m.activityRows()-1)
	case " ":
		if m.focus == paneTweaks && m.tweakCursor < len(m.tweaks) {
			t := m.tweaks[m.tweakCursor]
			return m, m.setTweak(t.ID, !t.Enabled)
		}
	case "enter":
		if m.focus == paneProfiles && m.profileCursor < len(m.profiles) {
			return m, m.applyProfile(m.profiles[m.profileCursor])
		}
	case "f":
		if m.focus == paneProfiles && m.profileCursor < len(m.profiles) {
			return m, m.toggleFavorite(m.profiles[m.profileCursor].ID)
		}
	default:
		// 1-9 launch the quick profiles.
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.quick) {
			return m, m.applyProfile(m.quick[n-1])
		}
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	switch m.focus {
	case paneTweaks:
		m.tweakCursor = min(max(m.tweakCursor+delta, 0), max(len(m.tweaks)-1, 0))
	case paneProfiles:
		m.profileCursor = min(max(m.profileCursor+delta, 0), max(len(m.profiles)-1, 0))
	}
}

// startQuit leaves immediately when boost is off. Otherwise boost is
// reverted first; a running cycle is allowed to settle before that.
func (m Model) startQuit() (tea.Model, tea.Cmd) {
	m.quitting = true
	switch {
	case m.session.InProgress():
		m.status = "Waiting for the current cycle to finish..."
		return m, nil
	case m.session.Active():
		m.status = "Reverting tweaks before exit..."
		return m, m.finishQuit()
	}
	m.cancel()
	return m, tea.Quit
}

// finishQuit runs once the session has settled during quit.
func (m *Model) finishQuit() tea.Cmd {
	if !m.session.Active() {
		m.cancel()
		return tea.Quit
	}
	if m.reverting {
		return nil
	}
	m.reverting = true
	b, ctx := m.backend, m.ctx
	return func() tea.Msg {
		_, err := b.Deactivate(ctx, true)
		return revertedMsg{err}
	}
}

func (m Model) toggleBoost() tea.Cmd {
	b, ctx := m.backend, m.ctx
	return func() tea.Msg {
		if _, err := b.Toggle(ctx, false); err != nil {
			return statusMsg{err: err}
		}
		return nil
	}
}

func (m Model) setTweak(id string, enabled bool) tea.Cmd {
	b, ctx := m.backend, m.ctx
	return func() tea.Msg {
		ts, err := b.SetTweak(ctx, id, enabled)
		if err != nil {
			return statusMsg{err: err}
		}
		return tweaksMsg(ts)
	}
}

func (m Model) applyProfile(p profile.Profile) tea.Cmd {
	b, ctx := m.backend, m.ctx
	return func() tea.Msg {
		rep, err := b.ApplyProfile(ctx, p.ID)
		if err != nil {
			return statusMsg{err: err}
		}
		if !rep.OK() {
			return statusMsg{err: fmt.Errorf("%s: %d of %d processes failed",
				p.Name, len(rep.Failed), len(rep.Failed)+len(rep.Applied))}
		}
		return statusMsg{text: fmt.Sprintf("Optimized %s", p.Name)}
	}
}

func (m Model) toggleFavorite(id int64) tea.Cmd {
	b, ctx := m.backend, m.ctx
	return func() tea.Msg {
		if _, err := b.ToggleFavorite(ctx, id); err != nil {
			return statusMsg{err: err}
		}
		ps, limit, err := b.Profiles(ctx)
		if err != nil {
			return statusMsg{err: err}
		}
		return profilesMsg{ps, limit}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshEvery, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func (m Model) refreshDetecting() tea.Cmd {
	b, ctx := m.backend, m.ctx
	return func() tea.Msg {
		st, err := b.Status(ctx)
		if err != nil {
			return nil
		}
		return detectingMsg(st.Detecting)
	}
}

func (m Model) refreshProfiles() tea.Cmd {
	b, ctx := m.backend, m.ctx
	return func() tea.Msg {
		ps, limit, err := b.Profiles(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return statusMsg{err: err}
		}
		return profilesMsg{ps, limit}
	}
}

// activityRows is the height left for the activity pane.
func (m Model) activityRows() int {
	used := 6 + max(len(m.tweaks), len(m.profiles)) + 2
	return max(m.height-used-4, 4)
}

// View renders the dashboard.
func (m Model) View() string {
	if !m.loaded {
		if m.statusErr {
			return errorTextStyle.Render("  " + m.status)
		}
		return "  Connecting to boostd..."
	}

	contentWidth := max(m.width-4, 40)
	var b strings.Builder

	b.WriteString(renderHeader(m.session, m.detecting))
	b.WriteString("\n")
	if cycle := renderCycle(m.session, m.bar, m.spinner); cycle != "" {
		b.WriteString(cycle)
	} else {
		b.WriteString(renderMetrics(m.metrics))
	}
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")

	colWidth := contentWidth / 2
	left := m.renderTweaks(colWidth)
	right := m.renderProfiles(contentWidth - colWidth)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")

	b.WriteString(m.renderQuickLaunch())
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(renderActivity(m.log.Entries(), m.logScroll, contentWidth, m.activityRows()))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

func paneTitle(title string, focused bool) string {
	if focused {
		return focusedPaneTitleStyle.Render(title)
	}
	return paneTitleStyle.Render(title)
}

func (m Model) renderTweaks(width int) string {
	var b strings.Builder
	b.WriteString(paneTitle(" Tweaks", m.focus == paneTweaks))
	b.WriteString("\n")

	armed := make(map[string]bool, len(m.session.Armed))
	for _, id := range m.session.Armed {
		armed[id] = true
	}
	for i, t := range m.tweaks {
		check := uncheckedStyle.Render("[ ]")
		if t.Enabled {
			check = checkedStyle.Render("[x]")
		}
		label := truncate(t.Label, width-10)
		if armed[t.ID] {
			label += successTextStyle.Render(" ●")
		}
		b.WriteString(m.listLine(check+" "+label, width, m.focus == paneTweaks && i == m.tweakCursor))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderProfiles(width int) string {
	var b strings.Builder
	b.WriteString(paneTitle(" Profiles", m.focus == paneProfiles))
	b.WriteString("\n")
	if len(m.profiles) == 0 {
		b.WriteString(mutedTextStyle.Render("   none; add one with 'boost profile add'"))
		return b.String()
	}
	for i, p := range m.profiles {
		star := " "
		if p.IsFavorite {
			star = favoriteStyle.Render("★")
		}
		status := ""
		switch p.Status {
		case profile.Optimized:
			status = successTextStyle.Render(" " + p.Status.String())
		case profile.Active:
			status = warningTextStyle.Render(" " + p.Status.String())
		}
		line := fmt.Sprintf("%s %s %s%s", star, truncate(p.Name, width-24),
			mutedTextStyle.Render(p.MainProcess.Priority.String()), status)
		b.WriteString(m.listLine(line, width, m.focus == paneProfiles && i == m.profileCursor))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) listLine(content string, width int, selected bool) string {
	if selected {
		return cursorStyle.Render("▸ ") + selectedItemStyle.Render(padRight(content, width-4))
	}
	return "  " + normalItemStyle.Render(padRight(content, width-4))
}

func (m Model) renderQuickLaunch() string {
	if len(m.quick) == 0 {
		return mutedTextStyle.Render(" Quick launch: favorite a profile with [f]")
	}
	parts := make([]string, len(m.quick))
	for i, p := range m.quick {
		parts[i] = keyStyle.Render(fmt.Sprintf("[%d]", i+1)) + " " + p.Name
	}
	return " Quick launch: " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	if m.status != "" {
		if m.statusErr {
			return errorTextStyle.Render(" " + m.status)
		}
		return successTextStyle.Render(" " + m.status)
	}
	boostKey := "boost on"
	if m.session.Active() {
		boostKey = "boost off"
	}
	hints := []string{
		keyHint("b", boostKey),
		keyHint("tab", "switch"),
		keyHint("space", "toggle tweak"),
		keyHint("enter", "apply"),
		keyHint("f", "favorite"),
		keyHint("q", "quit"),
	}
	return " " + strings.Join(hints, "  ")
}

// Run starts the dashboard and blocks until it exits.
func Run(opts Options) error {
	model := NewModel(opts)
	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && !fm.loaded && fm.statusErr {
		return errors.New(fm.status)
	}
	return nil
}
