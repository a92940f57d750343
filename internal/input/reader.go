// Package input turns polled keyboard state into debounced timer key events.
package input

import (
	"io"
	"log/slog"
	"time"

	"github.com/verte-zerg/splitclock/internal/model"
)

const (
	// DefaultKeyDelay is the minimum interval between two presses of a held key.
	DefaultKeyDelay = time.Second
	// DefaultResetMin and DefaultResetMax bound the double-tap reset window.
	DefaultResetMin = 100 * time.Millisecond
	DefaultResetMax = 500 * time.Millisecond

	resetKeyDelay = 100 * time.Millisecond
)

// Backend reports which keys are down right now.
type Backend interface {
	PressedKeys() ([]string, error)
	ShiftKeys() []string
}

// Options configures a Reader. Zero durations take the defaults.
type Options struct {
	KeyDelay time.Duration
	ResetMin time.Duration
	ResetMax time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Reader polls a Backend once per frame and debounces key presses.
// It is not safe for concurrent use.
type Reader struct {
	backend  Backend
	keyDelay time.Duration
	resetMin time.Duration
	resetMax time.Duration
	logger   *slog.Logger
	now      func() time.Time

	down        map[string]bool
	lastPress   map[string]time.Time
	lastReset   time.Time
	backendFail bool
}

// NewReader returns a Reader over backend.
func NewReader(backend Backend, opts Options) *Reader {
	r := &Reader{
		backend:   backend,
		keyDelay:  opts.KeyDelay,
		resetMin:  opts.ResetMin,
		resetMax:  opts.ResetMax,
		logger:    opts.Logger,
		now:       opts.Now,
		down:      map[string]bool{},
		lastPress: map[string]time.Time{},
	}
	if r.keyDelay <= 0 {
		r.keyDelay = DefaultKeyDelay
	}
	if r.resetMin <= 0 {
		r.resetMin = DefaultResetMin
	}
	if r.resetMax <= 0 {
		r.resetMax = DefaultResetMax
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// UpdateKeyboardState polls the backend. Call it once per frame.
func (r *Reader) UpdateKeyboardState() {
	keys, err := r.backend.PressedKeys()
	clear(r.down)
	if err != nil {
		if !r.backendFail {
			r.logger.Error("failed to read keyboard state", "err", err)
		}
		r.backendFail = true
		return
	}
	if r.backendFail {
		r.logger.Info("keyboard state readable again")
	}
	r.backendFail = false
	for _, k := range keys {
		r.down[k] = true
	}
}

// IsKeyPressed reports a press of key, at most once per key delay while held.
func (r *Reader) IsKeyPressed(key model.KeyBinding) bool {
	return r.pressed(key, r.keyDelay, r.now())
}

// IsAskingForReset reports the second tap of a double-tapped reset key.
func (r *Reader) IsAskingForReset(key model.KeyBinding) bool {
	now := r.now()
	if !r.pressed(key, resetKeyDelay, now) {
		return false
	}
	elapsed := now.Sub(r.lastReset)
	asking := !r.lastReset.IsZero() && elapsed > r.resetMin && elapsed <= r.resetMax
	r.lastReset = now
	return asking
}

func (r *Reader) pressed(key model.KeyBinding, delay time.Duration, now time.Time) bool {
	if !r.keyDown(key) {
		return false
	}
	if last, ok := r.lastPress[key.Key]; ok && !now.After(last.Add(delay)) {
		return false
	}
	r.lastPress[key.Key] = now
	return true
}

func (r *Reader) keyDown(key model.KeyBinding) bool {
	if key.Key == "" || !r.down[key.Key] {
		return false
	}
	return !key.RequiresShift || r.shiftDown()
}

func (r *Reader) shiftDown() bool {
	for _, k := range r.backend.ShiftKeys() {
		if r.down[k] {
			return true
		}
	}
	return false
}
