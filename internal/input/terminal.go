package input

import (
	"strings"
	"unicode"
)

// ShiftKey is the pseudo key the terminal backend reports with shifted keys.
const ShiftKey = "shift"

// Terminal is a Backend fed from terminal key events. Each fed key is down for
// exactly one poll, since terminals report presses rather than held state.
type Terminal struct {
	pending []string
}

// NewTerminal returns an empty terminal backend.
func NewTerminal() *Terminal {
	return &Terminal{}
}

// Feed queues a key event such as "space", "r", "R" or "shift+left".
func (t *Terminal) Feed(key string) {
	if key == " " {
		key = "space"
	}
	if rest, ok := strings.CutPrefix(key, "shift+"); ok {
		t.pending = append(t.pending, rest, ShiftKey)
		return
	}
	if r := []rune(key); len(r) == 1 && unicode.IsUpper(r[0]) {
		t.pending = append(t.pending, string(unicode.ToLower(r[0])), ShiftKey)
		return
	}
	t.pending = append(t.pending, key)
}

// PressedKeys drains the queued events.
func (t *Terminal) PressedKeys() ([]string, error) {
	keys := t.pending
	t.pending = nil
	return keys, nil
}

// ShiftKeys implements Backend.
func (t *Terminal) ShiftKeys() []string {
	return []string{ShiftKey}
}
