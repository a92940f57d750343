// Package tui provides the Bubble Tea timer interface.
package tui

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/splitclock/internal/input"
	"github.com/verte-zerg/splitclock/internal/model"
	"github.com/verte-zerg/splitclock/internal/stats"
	"github.com/verte-zerg/splitclock/internal/timing"
)

const defaultFPS = 60

type tickMsg time.Time

// Options configures the timer UI.
type Options struct {
	Config model.Config
	Stats  []stats.Kind
	// Terminal receives key events when the timer reads keys from the
	// terminal. Nil when a global backend such as xinput is used.
	Terminal *input.Terminal
	Logger   *slog.Logger
}

// Model implements the Bubble Tea timer UI. All timer access happens on the
// Bubble Tea update goroutine.
type Model struct {
	timer    *timing.Timer
	stats    *stats.Stats
	kinds    []stats.Kind
	config   model.Config
	terminal *input.Terminal
	logger   *slog.Logger

	palette palette
	keys    keyMap
	help    help.Model

	width  int
	height int

	frame    time.Duration
	lastTick time.Time
	status   string
}

// NewModel constructs a timer TUI model.
func NewModel(timer *timing.Timer, opts Options) *Model {
	fps := opts.Config.FPS
	if fps <= 0 {
		fps = defaultFPS
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Model{
		timer:    timer,
		stats:    stats.New(timer),
		kinds:    opts.Stats,
		config:   opts.Config,
		terminal: opts.Terminal,
		logger:   logger,
		palette:  newPalette(opts.Config.Colors),
		keys:     newKeyMap(opts.Config.Keys, opts.Terminal == nil),
		help:     help.New(),
		frame:    time.Second / time.Duration(fps),
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.lastTick = time.Now()
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		m.advance(time.Time(msg))
		return m, m.tick()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, m.quit()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		if m.terminal != nil {
			m.terminal.Feed(msg.String())
		}
		return m, nil
	default:
		return m, nil
	}
}

// advance runs one timer frame with the wall time elapsed since the last one.
func (m *Model) advance(now time.Time) {
	dt := now.Sub(m.lastTick)
	if dt < 0 || m.lastTick.IsZero() {
		dt = 0
	}
	m.lastTick = now
	if err := m.timer.Update(dt); err != nil {
		m.status = err.Error()
		return
	}
	// A save error stays up until the next run starts.
	if m.timer.HasStarted() && m.status != "" {
		m.status = ""
	}
}

func (m *Model) quit() tea.Cmd {
	if err := m.timer.AutoSave(); err != nil {
		m.status = err.Error()
		m.logger.Error("autosave on quit failed", "err", err)
	}
	m.logger.Info("timer closed", "attempts", m.timer.AttemptCount())
	return tea.Quit
}

// View implements tea.Model.
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	sep := m.palette.separator.Render(rule(width))
	lines := []string{m.renderHeader(width), sep}
	lines = append(lines, m.renderSegments(width)...)
	lines = append(lines, sep, m.renderClock(width))
	if m.timer.Locked() && m.config.LockingMessage != "" {
		lines = append(lines, m.palette.muted.Render(center(m.config.LockingMessage, width)))
	}
	if len(m.kinds) > 0 {
		lines = append(lines, sep)
		lines = append(lines, m.renderStats(width)...)
	}
	lines = append(lines, sep, m.help.View(m.keys))
	if m.status != "" {
		lines = append(lines, m.palette.errStyle.Render(fit(m.status, width)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHeader(width int) string {
	title := m.timer.Game() + " · " + m.timer.Category()
	attempts := strconv.Itoa(m.timer.AttemptCount())
	return m.palette.title.Render(spread(title, attempts, width))
}

func (m *Model) renderSegments(width int) []string {
	segments := m.timer.Segments()
	current := m.timer.CurrentSegment()
	start, end := visibleSegments(current, len(segments), m.config.SegmentsOnScreen, m.config.MinSegmentsAhead)
	nameWidth := max(width-deltaWidth-timeWidth-2, 1)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		seg := segments[i]
		nameStyle := m.palette.base
		if i == current {
			nameStyle = m.palette.current
		}
		delta := seg.DeltaText()
		deltaStyle := m.palette.base
		if seg.IsCompleted() {
			deltaStyle = m.palette.paceStyle(seg.PickColor(), true)
		}
		line := nameStyle.Render(fit(seg.Name(), nameWidth)) + " " +
			deltaStyle.Render(fmt.Sprintf("%*s", deltaWidth, delta)) + " " +
			m.palette.base.Render(fmt.Sprintf("%*s", timeWidth, seg.TimeText()))
		lines = append(lines, line)
	}
	return lines
}

// renderClock draws the run time, coloured by pace, with tenths in the
// detailed-timer colour.
func (m *Model) renderClock(width int) string {
	text := timing.FormatDuration(m.timer.DisplayTime(), true)
	whole, tenths, _ := strings.Cut(text, ".")
	style := m.palette.paceStyle(m.timer.Pace())
	pad := max(width-len(text), 0) / 2
	return strings.Repeat(" ", pad) + style.Bold(true).Render(whole) + m.palette.detailed.Render("."+tenths)
}

func (m *Model) renderStats(width int) []string {
	lines := make([]string, 0, len(m.kinds))
	for _, kind := range m.kinds {
		lines = append(lines, m.palette.base.Render(spread(kind.Name(), m.stats.Text(kind), width)))
	}
	return lines
}
