package input

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// X11 keycodes of the left and right shift keys.
const (
	lShiftKeyCode = "50"
	rShiftKeyCode = "62"
)

const xinputTimeout = 500 * time.Millisecond

// XInput is a Backend that polls `xinput query-state` for global key state
// under X11. Keys are identified by their decimal X keycode.
type XInput struct {
	keyboardID int
	run        func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewXInput returns a backend reading the keyboard with the given xinput id.
func NewXInput(keyboardID int) *XInput {
	return &XInput{keyboardID: keyboardID, run: runCommand}
}

// XInputAvailable reports whether the xinput binary is on PATH.
func XInputAvailable() bool {
	_, err := exec.LookPath("xinput")
	return err == nil
}

// PressedKeys implements Backend.
func (x *XInput) PressedKeys() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), xinputTimeout)
	defer cancel()
	out, err := x.run(ctx, "xinput", "query-state", strconv.Itoa(x.keyboardID))
	if err != nil {
		return nil, fmt.Errorf("xinput query-state %d: %w", x.keyboardID, err)
	}
	return parseQueryState(out), nil
}

// ShiftKeys implements Backend.
func (x *XInput) ShiftKeys() []string {
	return []string{lShiftKeyCode, rShiftKeyCode}
}

// parseQueryState extracts the keycodes of lines like "key[38]=down".
func parseQueryState(out []byte) []string {
	var keys []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasSuffix(line, "=down") {
			continue
		}
		_, rest, ok := strings.Cut(line, "key[")
		if !ok {
			continue
		}
		code, _, ok := strings.Cut(rest, "]")
		if !ok {
			continue
		}
		if _, err := strconv.Atoi(code); err != nil {
			continue
		}
		keys = append(keys, code)
	}
	return keys
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
