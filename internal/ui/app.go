package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/webhelper/internal/config"
	"github.com/five82/webhelper/internal/player"
	"github.com/five82/webhelper/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewNowPlaying View = iota
	ViewEvents
	ViewLogs
)

const (
	seekStep       = 10.0
	commandTimeout = 5 * time.Second
	logFetchLimit  = 500
)

// Controller is the part of the player the UI drives.
type Controller interface {
	Playback() player.PlaybackState
	Pause(ctx context.Context, resume bool) error
	SeekTo(ctx context.Context, seconds float64) error
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller Controller
	Store      *state.Store
	Config     *config.Config
	PollTick   time.Duration
	ThemeName  string
	PrefsPath  string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	ctrl      Controller
	store     *state.Store
	config    *config.Config
	prefsPath string
	pollTick  time.Duration
	keys      keyMap

	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	snapshot    state.Snapshot
	playback    player.PlaybackState
	lastUpdated time.Time
	commandErr  error

	progress       progress.Model
	eventsViewport viewport.Model
	logViewport    viewport.Model
	logLines       []string
	logFollow      bool
	logErr         error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = 250 * time.Millisecond
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = config.DefaultPrefsPath()
	}
	theme := GetTheme(opts.ThemeName)

	return Model{
		ctx:       ctx,
		ctrl:      opts.Controller,
		store:     opts.Store,
		config:    opts.Config,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		keys:      DefaultKeyMap(),
		theme:     theme,
		progress:  newProgress(theme),
		logFollow: true,
	}
}

func newProgress(theme Theme) progress.Model {
	return progress.New(
		progress.WithSolidFill(theme.Accent),
		progress.WithoutPercentage(),
	)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.pollTick),
		m.fetchSnapshot(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.eventsViewport = viewport.New(0, 0)
			m.logViewport = viewport.New(0, 0)
		}
		m.ready = true
		m.resize()
		m.updateEventsViewport()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.playback = msg.playback
		m.lastUpdated = time.Now()
		m.updateEventsViewport()
		return m, nil

	case logBatchMsg:
		m.logLines = msg.lines
		m.logErr = nil
		m.updateLogViewport()
		return m, nil

	case logErrorMsg:
		m.logErr = msg.err
		return m, nil

	case commandResultMsg:
		m.commandErr = msg.err
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.progress = newProgress(m.theme)
		m.resize()
		m.updateEventsViewport()
		m.updateLogViewport()
		_ = config.SavePrefs(m.prefsPath, config.Prefs{Theme: m.theme.Name})
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView((m.currentView + 1) % 3)
	case key.Matches(msg, m.keys.ViewNowPlaying):
		return m.switchView(ViewNowPlaying)
	case key.Matches(msg, m.keys.ViewEvents):
		return m.switchView(ViewEvents)
	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)

	case key.Matches(msg, m.keys.TogglePlay):
		return m, m.togglePlay()
	case key.Matches(msg, m.keys.SeekBack):
		return m.seek(-seekStep)
	case key.Matches(msg, m.keys.SeekForward):
		return m.seek(seekStep)
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewEvents:
		m.eventsViewport, cmd = m.eventsViewport.Update(msg)
	case ViewLogs:
		if key.Matches(msg, m.keys.ToggleFollow) {
			m.logFollow = !m.logFollow
			if m.logFollow {
				m.logViewport.GotoBottom()
			}
			return m, nil
		}
		m.logViewport, cmd = m.logViewport.Update(msg)
	}
	return m, cmd
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	if v == ViewLogs {
		return m, m.fetchLogs()
	}
	return m, nil
}

// togglePlay pauses when playing and resumes otherwise.
func (m Model) togglePlay() tea.Cmd {
	if m.ctrl == nil || m.playback.Status == nil {
		return nil
	}
	resume := !m.playback.Status.Playing
	ctrl := m.ctrl
	return m.command("pause", func(ctx context.Context) error {
		return ctrl.Pause(ctx, resume)
	})
}

// seek moves the local position by delta seconds, clamped to the track.
func (m Model) seek(delta float64) (tea.Model, tea.Cmd) {
	st := m.playback.Status
	if m.ctrl == nil || st == nil || st.Track == nil {
		return m, nil
	}
	target := m.playback.Position + delta
	if target < 0 {
		target = 0
	}
	if length := st.Track.Length; length > 0 && target > length {
		target = length
	}
	m.playback.Position = target
	ctrl := m.ctrl
	return m, m.command("seek", func(ctx context.Context) error {
		return ctrl.SeekTo(ctx, target)
	})
}

func (m Model) command(op string, fn func(context.Context) error) tea.Cmd {
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, commandTimeout)
		defer cancel()
		return commandResultMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.fetchSnapshot()}
	if m.currentView == ViewLogs && m.logFollow {
		cmds = append(cmds, m.fetchLogs())
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// resize recomputes component sizes. The content box takes everything
// below the header and command bar.
func (m *Model) resize() {
	innerWidth := max(m.width-4, 0)
	innerHeight := max(m.height-5, 0)
	m.eventsViewport.Width = innerWidth
	m.eventsViewport.Height = innerHeight
	m.logViewport.Width = innerWidth
	m.logViewport.Height = innerHeight
	m.progress.Width = max(innerWidth-16, 10)
}

func (m Model) renderContent() string {
	height := m.height - 2
	switch m.currentView {
	case ViewEvents:
		return m.renderBox("Events", m.eventsViewport.View(), m.width, height)
	case ViewLogs:
		return m.renderBox(m.logTitle(), m.logViewport.View(), m.width, height)
	default:
		return m.renderBox("Now Playing", m.renderNowPlaying(), m.width, height)
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	snapshot state.Snapshot
	playback player.PlaybackState
}

type commandResultMsg struct {
	op  string
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchSnapshot() tea.Cmd {
	store, ctrl := m.store, m.ctrl
	return func() tea.Msg {
		var msg snapshotMsg
		if store != nil {
			msg.snapshot = store.Snapshot()
		}
		if ctrl != nil {
			msg.playback = ctrl.Playback()
		}
		return msg
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
