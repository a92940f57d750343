package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	defaultWidth = 40
	deltaWidth   = 9
	timeWidth    = 8
)

// visibleSegments returns the [start, end) slice of segments to draw so that at
// least minAhead segments after the current one stay on screen.
func visibleSegments(current, total, perScreen, minAhead int) (int, int) {
	shown := total
	if perScreen > 0 && perScreen < total {
		shown = perScreen
	}
	offset := max(current-(shown-minAhead), 0)
	offset = min(offset, total-shown)
	return offset, offset + shown
}

// fit pads or truncates s to exactly width terminal columns.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// spread places left and right on one line of the given width, truncating
// left when both do not fit.
func spread(left, right string, width int) string {
	rw := runewidth.StringWidth(right)
	if rw >= width {
		return runewidth.Truncate(right, width, "")
	}
	return fit(left, width-rw-1) + " " + right
}

func rule(width int) string {
	return strings.Repeat("─", max(width, 1))
}

// center pads s on both sides to width columns.
func center(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}
