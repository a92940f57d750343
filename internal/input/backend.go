package input

import (
	"errors"
	"fmt"
	"os"
)

// Backend names accepted in the config.
const (
	BackendAuto     = "auto"
	BackendTerminal = "terminal"
	BackendXInput   = "xinput"
)

// ErrXInputUnavailable is returned when the xinput backend is requested but
// the xinput binary cannot be found.
var ErrXInputUnavailable = errors.New("can't read global input: xinput not found")

// NewBackend picks the backend by name. "auto" prefers xinput under X11.
func NewBackend(name string, keyboardID int) (Backend, error) {
	switch name {
	case BackendTerminal:
		return NewTerminal(), nil
	case BackendXInput:
		if !XInputAvailable() {
			return nil, ErrXInputUnavailable
		}
		return NewXInput(keyboardID), nil
	case BackendAuto, "":
		if keyboardID > 0 && os.Getenv("DISPLAY") != "" && XInputAvailable() {
			return NewXInput(keyboardID), nil
		}
		return NewTerminal(), nil
	default:
		return nil, fmt.Errorf("unknown input backend %q (valid: auto, terminal, xinput)", name)
	}
}
