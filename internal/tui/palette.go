package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/splitclock/internal/model"
	"github.com/verte-zerg/splitclock/internal/timing"
)

type palette struct {
	base      lipgloss.Style
	title     lipgloss.Style
	muted     lipgloss.Style
	current   lipgloss.Style
	separator lipgloss.Style
	detailed  lipgloss.Style
	errStyle  lipgloss.Style
	pace      map[timing.Pace]lipgloss.Style
}

func newPalette(c model.Colors) palette {
	fg := func(hex string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(hexColor(hex))
	}
	base := fg(c.Base)
	return palette{
		base:      base,
		title:     base.Bold(true),
		muted:     fg(c.DetailedTimer),
		current:   base.Bold(true).Underline(true),
		separator: fg(c.Separator),
		detailed:  fg(c.DetailedTimer),
		errStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
		pace: map[timing.Pace]lipgloss.Style{
			timing.PaceAheadGaining:  fg(c.AheadGaining),
			timing.PaceAheadLosing:   fg(c.AheadLosing),
			timing.PaceBehindGaining: fg(c.BehindGaining),
			timing.PaceBehindLosing:  fg(c.BehindLosing),
			timing.PaceBest:          fg(c.Best),
		},
	}
}

// paceStyle returns the colour of a pace, or the base colour when ok is false.
func (p palette) paceStyle(pace timing.Pace, ok bool) lipgloss.Style {
	if !ok {
		return p.base
	}
	if s, found := p.pace[pace]; found {
		return s
	}
	return p.base
}

// hexColor drops the alpha channel of #rrggbbaa; terminals have no alpha.
func hexColor(hex string) lipgloss.Color {
	if len(hex) == 9 {
		hex = hex[:7]
	}
	return lipgloss.Color(hex)
}
