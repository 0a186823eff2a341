// Package tui follows a subtitle file in the terminal against a wall-clock
// player.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MimeLyc/subview/internal/subtitle"
	"github.com/MimeLyc/subview/internal/timecode"
	"github.com/MimeLyc/subview/internal/viewer"
)

const tickInterval = 100 * time.Millisecond

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	timeStyle     = lipgloss.NewStyle().Faint(true)
	statusStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("9"))
)

// Model is the bubbletea model of the follower.
type Model struct {
	ctx     context.Context
	session *viewer.Session
	media   *viewer.ClockMedia

	entries    []subtitle.Entry
	name       string
	selected   int // index into entries
	activeID   int
	autoScroll bool
	resume     bool

	keys keyMap
	help help.Model

	width  int
	height int
	status string
}

type Option func(*Model)

// WithResume seeks to the stored position when the follower starts.
func WithResume(enabled bool) Option {
	return func(m *Model) {
		m.resume = enabled
	}
}

func WithAutoScroll(enabled bool) Option {
	return func(m *Model) {
		m.autoScroll = enabled
	}
}

// New builds a follower for a session whose media is media.
func New(ctx context.Context, session *viewer.Session, media *viewer.ClockMedia, opts ...Option) Model {
	snap := session.Snapshot()
	m := Model{
		ctx:        ctx,
		session:    session,
		media:      media,
		entries:    snap.Entries,
		name:       snap.Name,
		autoScroll: true,
		keys:       defaultKeyMap(),
		help:       help.New(),
		height:     20,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts playback, from the stored position when resume is on.
func (m Model) Init() tea.Cmd {
	if m.resume {
		if snap := m.session.Snapshot(); snap.ResumeMs != nil {
			_ = m.session.SeekTime(m.ctx, *snap.ResumeMs)
		}
	}
	m.media.Play()
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		m.media.Tick()
		m.sync()
		return m, tick()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.savePosition()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		if m.media.Playing() {
			m.media.Pause()
		} else {
			m.media.Play()
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.entries)-1 {
			m.selected++
		}
		m.autoScroll = false
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		m.autoScroll = false
	case key.Matches(msg, m.keys.Seek):
		if len(m.entries) == 0 {
			return m, nil
		}
		if _, err := m.session.SeekTo(m.ctx, m.entries[m.selected].ID); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = ""
		m.autoScroll = true
		m.sync()
	case key.Matches(msg, m.keys.Restart):
		if err := m.session.SeekTime(m.ctx, 0); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.sync()
	case key.Matches(msg, m.keys.AutoScroll):
		m.autoScroll = !m.autoScroll
		if m.autoScroll {
			m.sync()
		}
	}
	return m, nil
}

// sync pulls the active line from the session and follows it when
// auto-scroll is on.
func (m *Model) sync() {
	m.activeID = m.session.ActiveID()
	if !m.autoScroll || m.activeID == 0 {
		return
	}
	for i, e := range m.entries {
		if e.ID == m.activeID {
			m.selected = i
			return
		}
	}
}

func (m *Model) savePosition() {
	ms := int64(math.Round(m.media.CurrentTime() * 1000))
	if err := m.session.SavePosition(m.ctx, ms); err != nil {
		m.status = fmt.Sprintf("position not saved: %v", err)
	}
}

func (m Model) View() string {
	var b strings.Builder

	state := "paused"
	if m.media.Playing() {
		state = "playing"
	}
	now := int64(m.media.CurrentTime() * 1000)
	b.WriteString(titleStyle.Render(m.name))
	b.WriteString("  ")
	b.WriteString(timeStyle.Render(fmt.Sprintf("%s  %s", timecode.Format(now), state)))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString("No subtitles.\n")
	}

	first, last := m.window()
	for i := first; i < last; i++ {
		e := m.entries[i]
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		text := strings.ReplaceAll(e.Text, "\n", " / ")
		line := fmt.Sprintf("%s %s", timeStyle.Render(e.StartText), text)
		switch {
		case e.ID == m.activeID:
			line = activeStyle.Render(line)
		case i == m.selected:
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursor)
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	scroll := "auto-scroll on"
	if !m.autoScroll {
		scroll = "auto-scroll off"
	}
	b.WriteString("\n")
	b.WriteString(timeStyle.Render(scroll))
	b.WriteString("  ")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// window returns the slice of entries that fits the terminal, keeping the
// selected line in view.
func (m Model) window() (int, int) {
	rows := m.height - 6
	if rows < 1 {
		rows = 1
	}
	if len(m.entries) <= rows {
		return 0, len(m.entries)
	}
	first := m.selected - rows/2
	if first < 0 {
		first = 0
	}
	if first+rows > len(m.entries) {
		first = len(m.entries) - rows
	}
	return first, first + rows
}

// Run follows until the user quits or ctx ends.
func Run(ctx context.Context, session *viewer.Session, media *viewer.ClockMedia, opts ...Option) error {
	p := tea.NewProgram(New(ctx, session, media, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
