// Package model defines shared data structures.
package model

import "time"

// Config defines timer settings resolved from flags and the config file.
type Config struct {
	SplitsName       string
	FPS              int
	Runner           string
	SegmentsOnScreen int
	MinSegmentsAhead int
	ExtraStats       []string
	LockingMessage   string

	InputBackend string
	KeyboardID   int
	KeyDelay     time.Duration
	ResetMin     time.Duration
	ResetMax     time.Duration
	Keys         Keybindings
	Colors       Colors
}

// KeyBinding identifies a key by backend-specific id.
type KeyBinding struct {
	Key           string
	RequiresShift bool
}

// Keybindings maps timer actions to keys.
type Keybindings struct {
	Split KeyBinding
	Reset KeyBinding
	Undo  KeyBinding
	Redo  KeyBinding
	Lock  KeyBinding
}

// Colors holds hex colors (#rrggbb or #rrggbbaa) for the timer display.
type Colors struct {
	Base          string
	AheadGaining  string
	AheadLosing   string
	BehindGaining string
	BehindLosing  string
	Best          string
	Separator     string
	DetailedTimer string
}

// HistoryConfig defines filters for the history view.
type HistoryConfig struct {
	Game     string
	Category string
	Last     int
	Window   int
}

// RunRecord is the persisted form of a run: splits plus run-level metadata.
// Optional durations are nil when no value was ever recorded.
type RunRecord struct {
	Game               string
	Category           string
	Segments           []SegmentRecord
	AttemptCount       int
	CompletedRunBefore bool
	WorldRecord        *time.Duration
	WorldRecordOwner   string
}

// SegmentRecord is the persisted form of one segment.
type SegmentRecord struct {
	Name       string
	PB         *time.Duration
	Best       *time.Duration
	ResetCount int
}

// AttemptRecord captures one attempt that ended with a reset.
type AttemptRecord struct {
	ID            int64
	EndedAt       time.Time
	Reached       int
	Finished      bool
	Time          time.Duration
	PersonalBest  bool
	SegmentsTotal int
}

// SegmentNames returns the segment names in run order.
func (r RunRecord) SegmentNames() []string {
	names := make([]string, len(r.Segments))
	for i, s := range r.Segments {
		names[i] = s.Name
	}
	return names
}
