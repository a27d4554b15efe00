package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/wrldshot/internal/prefs"
	"github.com/five82/wrldshot/internal/state"
)

// Opener launches external handlers for folders and web pages.
type Opener interface {
	OpenURL(ctx context.Context, u string) error
	OpenFolder(ctx context.Context, path string) error
}

// Options configures the UI.
type Options struct {
	Store     *state.Store
	Opener    Opener
	CopyText  func(string) error // nil uses the system clipboard
	Prefs     prefs.Prefs
	SavePrefs func(prefs.Prefs) error // optional
}

// Model is the bubbletea model for the monitor screen.
type Model struct {
	opts     Options
	keys     keyMap
	help     help.Model
	theme    Theme
	prefs    prefs.Prefs
	snapshot state.Snapshot
	cursor   int
	trace    viewport.Model
	width    int
	height   int
	flash    string
	flashErr bool
}

type snapshotMsg struct{ snap state.Snapshot }

type actionMsg struct {
	text string
	err  error
}

var errNoOpener = errors.New("no desktop opener available")

// New creates the model from the store's current snapshot.
func New(opts Options) Model {
	if opts.CopyText == nil {
		opts.CopyText = clipboard.WriteAll
	}
	if opts.Prefs.Theme == "" {
		opts.Prefs = prefs.Default()
	}
	m := Model{
		opts:  opts,
		keys:  defaultKeys(),
		help:  help.New(),
		theme: GetTheme(opts.Prefs.Theme),
		prefs: opts.Prefs,
		trace: viewport.New(0, 0),
	}
	if opts.Store != nil {
		m.applySnapshot(opts.Store.Snapshot())
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case snapshotMsg:
		m.applySnapshot(msg.snap)
		return m, nil

	case actionMsg:
		m.flashErr = msg.err != nil
		if msg.err != nil {
			m.flash = msg.err.Error()
		} else {
			m.flash = msg.text
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.trace, cmd = m.trace.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snapshot.Recent)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Folder):
		path, ok := m.selected()
		if !ok {
			return m, flash("nothing renamed yet")
		}
		return m, m.openFolder(path)

	case key.Matches(msg, m.keys.World):
		u := m.snapshot.WorldURL()
		if u == "" {
			return m, flash("no world joined yet")
		}
		return m, m.openURL(u)

	case key.Matches(msg, m.keys.Copy):
		text, ok := m.selected()
		if !ok {
			text = m.snapshot.WorldURL()
		}
		if text == "" {
			return m, flash("nothing to copy")
		}
		copyText := m.opts.CopyText
		return m, func() tea.Msg {
			if err := copyText(text); err != nil {
				return actionMsg{err: fmt.Errorf("copy: %w", err)}
			}
			return actionMsg{text: "copied " + text}
		}

	case key.Matches(msg, m.keys.Theme):
		m.prefs.Theme = NextTheme(m.prefs.Theme)
		m.theme = GetTheme(m.prefs.Theme)
		return m, m.savePrefs("theme " + m.prefs.Theme)

	case key.Matches(msg, m.keys.Trace):
		m.prefs.HideTrace = !m.prefs.HideTrace
		m.layout()
		label := "trace shown"
		if m.prefs.HideTrace {
			label = "trace hidden"
		}
		return m, m.savePrefs(label)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	}

	var cmd tea.Cmd
	m.trace, cmd = m.trace.Update(msg)
	return m, cmd
}

func (m Model) selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snapshot.Recent) {
		return "", false
	}
	return m.snapshot.Recent[m.cursor], true
}

func (m Model) openFolder(path string) tea.Cmd {
	opener := m.opts.Opener
	return func() tea.Msg {
		if opener == nil {
			return actionMsg{err: errNoOpener}
		}
		if err := opener.OpenFolder(context.Background(), path); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "opened " + filepath.Dir(path)}
	}
}

func (m Model) openURL(u string) tea.Cmd {
	opener := m.opts.Opener
	return func() tea.Msg {
		if opener == nil {
			return actionMsg{err: errNoOpener}
		}
		if err := opener.OpenURL(context.Background(), u); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "opened " + u}
	}
}

func (m Model) savePrefs(label string) tea.Cmd {
	save := m.opts.SavePrefs
	p := m.prefs
	return func() tea.Msg {
		if save == nil {
			return actionMsg{text: label}
		}
		if err := save(p); err != nil {
			return actionMsg{err: fmt.Errorf("save prefs: %w", err)}
		}
		return actionMsg{text: label}
	}
}

func flash(text string) tea.Cmd {
	return func() tea.Msg { return actionMsg{text: text} }
}

func (m *Model) applySnapshot(snap state.Snapshot) {
	// A new newest entry moves the selection back to the top.
	if len(snap.Recent) > 0 && (len(m.snapshot.Recent) == 0 || snap.Recent[0] != m.snapshot.Recent[0]) {
		m.cursor = 0
	}
	traceChanged := !slices.Equal(snap.Trace, m.snapshot.Trace)
	m.snapshot = snap
	m.cursor = min(m.cursor, max(len(snap.Recent)-1, 0))

	m.layout()
	if traceChanged {
		follow := m.trace.AtBottom()
		m.trace.SetContent(m.renderTraceLines())
		if follow {
			m.trace.GotoBottom()
		}
	}
}

// layout sizes the trace viewport to the space left by the fixed sections.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	fixed := 1 + m.recentHeight() + m.footerHeight()
	if !m.prefs.HideTrace {
		fixed++ // trace title
	}
	m.trace.Width = m.width
	m.trace.Height = max(m.height-fixed, 1)
}

func (m Model) recentHeight() int {
	return 1 + max(len(m.snapshot.Recent), 1)
}

func (m Model) footerHeight() int {
	if m.help.ShowAll {
		return 1 + len(m.keys.FullHelp()[0])
	}
	return 2
}
