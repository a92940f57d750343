// Package timing implements the speedrun clock: segments, split/undo/redo/reset
// transitions and personal best bookkeeping.
package timing

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/verte-zerg/splitclock/internal/model"
)

const clearedIndex = -1

// Input is polled once per frame for timer key events.
type Input interface {
	UpdateKeyboardState()
	IsKeyPressed(key model.KeyBinding) bool
	IsAskingForReset(key model.KeyBinding) bool
}

// Sink persists the run after a reset or on exit.
type Sink interface {
	Save(run model.RunRecord) error
}

// AttemptLogger is optionally implemented by a Sink that keeps attempt history.
type AttemptLogger interface {
	LogAttempt(game, category string, attempt model.AttemptRecord) error
}

// Options configures a Timer.
type Options struct {
	Keys   model.Keybindings
	Runner string
	Logger *slog.Logger
	Now    func() time.Time
}

// Timer is the speedrun state machine. It is not safe for concurrent use;
// a renderer on another goroutine must read it through the owner.
type Timer struct {
	game               string
	category           string
	segments           []*Segment
	attemptCount       int
	completedRunBefore bool
	worldRecord        OptDuration
	worldRecordOwner   string

	currentSegment int
	currentTime    time.Duration
	finishTime     time.Duration
	pbTime         OptDuration
	locked         bool

	history History
	input   Input
	sink    Sink
	keys    model.Keybindings
	runner  string
	logger  *slog.Logger
	now     func() time.Time
}

// New builds a timer from a persisted run, starting idle.
func New(run model.RunRecord, input Input, sink Sink, opts Options) *Timer {
	t := &Timer{
		game:               run.Game,
		category:           run.Category,
		attemptCount:       run.AttemptCount,
		completedRunBefore: run.CompletedRunBefore,
		worldRecord:        FromPtr(run.WorldRecord),
		worldRecordOwner:   run.WorldRecordOwner,
		currentSegment:     clearedIndex,
		input:              input,
		sink:               sink,
		keys:               opts.Keys,
		runner:             opts.Runner,
		logger:             opts.Logger,
		now:                opts.Now,
	}
	for _, rec := range run.Segments {
		t.segments = append(t.segments, NewSegment(rec))
	}
	if t.runner == "" {
		t.runner = "me"
	}
	if t.logger == nil {
		t.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if t.now == nil {
		t.now = time.Now
	}
	t.initializeSegments()
	return t
}

// Game returns the game name.
func (t *Timer) Game() string { return t.game }

// Category returns the run category.
func (t *Timer) Category() string { return t.category }

// Segments returns the segments in run order. Callers must not mutate them.
func (t *Timer) Segments() []*Segment { return t.segments }

// CurrentSegment returns -1 when idle, len(Segments()) when finished.
func (t *Timer) CurrentSegment() int { return t.currentSegment }

// CurrentTime returns the elapsed run time.
func (t *Timer) CurrentTime() time.Duration { return t.currentTime }

// DisplayTime is the clock readout; it stays on the finish time once finished.
func (t *Timer) DisplayTime() time.Duration {
	if t.IsRunFinished() {
		return t.finishTime
	}
	return t.currentTime
}

// PBTime returns the total personal best time.
func (t *Timer) PBTime() OptDuration { return t.pbTime }

// HasPB reports whether a personal best exists.
func (t *Timer) HasPB() bool { return t.pbTime.Valid() }

// AttemptCount returns the number of finished or reset attempts.
func (t *Timer) AttemptCount() int { return t.attemptCount }

// CompletedRunBefore reports whether any run was ever finished.
func (t *Timer) CompletedRunBefore() bool { return t.completedRunBefore }

// WorldRecord returns the world record time and owner.
func (t *Timer) WorldRecord() (OptDuration, string) { return t.worldRecord, t.worldRecordOwner }

// HasStarted reports whether an attempt is in progress or finished.
func (t *Timer) HasStarted() bool { return t.currentSegment > clearedIndex }

// IsRunFinished reports whether every segment was split.
func (t *Timer) IsRunFinished() bool { return t.currentSegment >= len(t.segments) }

// IsRunning reports whether the clock is accumulating time.
func (t *Timer) IsRunning() bool {
	return t.currentSegment >= 0 && t.currentSegment < len(t.segments)
}

// Locked reports whether key input other than the lock key is ignored.
func (t *Timer) Locked() bool { return t.locked }

// CanRedo reports whether an undone split can be redone.
func (t *Timer) CanRedo() bool {
	return t.HasStarted() && !t.IsRunFinished() && t.history.CanRedo()
}

// Update polls input, applies any requested transition and advances the clock.
// A returned error comes from persistence; the timer state is already updated.
func (t *Timer) Update(dt time.Duration) error {
	err := t.handleInput()
	if t.IsRunning() {
		t.currentTime += dt
	}
	return err
}

func (t *Timer) handleInput() error {
	if t.input == nil {
		return nil
	}
	t.input.UpdateKeyboardState()
	if t.keys.Lock.Key != "" && t.input.IsKeyPressed(t.keys.Lock) {
		t.locked = !t.locked
		t.logger.Info("timer lock toggled", "locked", t.locked)
	}
	if t.locked {
		return nil
	}
	var err error
	if t.input.IsKeyPressed(t.keys.Split) {
		t.Split()
	}
	if t.input.IsAskingForReset(t.keys.Reset) {
		err = t.Reset()
	}
	if t.input.IsKeyPressed(t.keys.Undo) {
		t.Undo()
	}
	if t.input.IsKeyPressed(t.keys.Redo) {
		t.Redo()
	}
	return err
}

// Split finishes the current segment and begins the next, or starts the run.
func (t *Timer) Split() {
	if t.IsRunFinished() {
		return
	}
	if t.HasStarted() {
		t.segments[t.currentSegment].Finish(t.currentTime)
	}
	t.currentSegment++
	if t.currentSegment < len(t.segments) {
		t.segments[t.currentSegment].Begin(t.currentTime)
	} else {
		t.finishTime = t.currentTime
	}
	t.history.Clear()
	t.logger.Debug("split", "segment", t.currentSegment, "time", t.currentTime)
}

// Undo reverts the last split. Undoing at the first segment does nothing.
func (t *Timer) Undo() {
	if t.currentSegment <= 0 {
		return
	}
	t.currentSegment--
	seg := t.segments[t.currentSegment]
	t.history.Push(seg.CompletedAt())
	seg.UndoSplit()
	t.logger.Debug("undo", "segment", t.currentSegment)
}

// Redo re-applies the most recently undone split at the time it was first made.
func (t *Timer) Redo() {
	if !t.HasStarted() || t.IsRunFinished() {
		return
	}
	splitAt, ok := t.history.Pop()
	if !ok {
		return
	}
	t.segments[t.currentSegment].Finish(splitAt)
	t.currentSegment++
	// The clock kept running after the undo of the final split; roll it back.
	if t.currentSegment == len(t.segments) {
		t.currentTime = splitAt
		t.finishTime = splitAt
	}
	t.logger.Debug("redo", "segment", t.currentSegment)
}

// Reset ends the attempt, saves the times and returns to idle. Resetting an
// idle timer does nothing.
func (t *Timer) Reset() error {
	if !t.HasStarted() {
		return nil
	}
	t.attemptCount++
	finished := t.IsRunFinished()
	if !finished {
		t.segments[t.currentSegment].resetCount++
	}
	attempt := model.AttemptRecord{
		EndedAt:       t.now(),
		Reached:       t.currentSegment,
		Finished:      finished,
		Time:          t.currentTime,
		SegmentsTotal: len(t.segments),
	}
	pb, err := t.saveTimes()
	attempt.PersonalBest = pb
	if lerr := t.logAttempt(attempt); lerr != nil && err == nil {
		err = lerr
	}

	t.currentTime = 0
	t.finishTime = 0
	t.currentSegment = clearedIndex
	t.history.Clear()
	t.initializeSegments()
	t.logger.Info("reset", "attempts", t.attemptCount, "finished", finished)
	return err
}

// AutoSave persists an attempt in progress, e.g. when the program exits.
func (t *Timer) AutoSave() error {
	if !t.HasStarted() {
		return nil
	}
	_, err := t.saveTimes()
	return err
}

// Run returns the persisted form of the current run data.
func (t *Timer) Run() model.RunRecord {
	run := model.RunRecord{
		Game:               t.game,
		Category:           t.category,
		AttemptCount:       t.attemptCount,
		CompletedRunBefore: t.completedRunBefore,
		WorldRecord:        t.worldRecord.Ptr(),
		WorldRecordOwner:   t.worldRecordOwner,
		Segments:           make([]model.SegmentRecord, len(t.segments)),
	}
	for i, s := range t.segments {
		run.Segments[i] = s.Record()
	}
	return run
}

// Pace returns the clock colour classification, or false for the base colour.
func (t *Timer) Pace() (Pace, bool) {
	if t.currentTime == 0 || len(t.segments) == 0 || !t.ranAllSegmentsBefore() {
		return 0, false
	}
	now := t.DisplayTime()
	last := t.segments[len(t.segments)-1]
	if !last.IsAhead(now) {
		return PaceBehindLosing, true
	}
	idx := min(t.currentSegment, len(t.segments)-1)
	if t.segments[idx].IsAhead(now) {
		return PaceAheadGaining, true
	}
	if t.currentSegment >= len(t.segments)-1 {
		return PaceBehindLosing, true
	}
	return PaceBehindGaining, true
}

func (t *Timer) ranAllSegmentsBefore() bool {
	for _, s := range t.segments {
		if !s.RanBefore() {
			return false
		}
	}
	return true
}

// saveTimes records best segments, a new PB or world record, and hands the
// run to the sink. It reports whether the attempt set a new personal best.
func (t *Timer) saveTimes() (bool, error) {
	for _, s := range t.segments {
		s.UpdateBest()
	}
	newPB := false
	if t.IsRunFinished() {
		if pb, ok := t.pbTime.Get(); !ok || t.currentTime < pb {
			for _, s := range t.segments {
				s.SetPersonalBest()
			}
			newPB = true
		}
		if wr, ok := t.worldRecord.Get(); !ok || t.currentTime < wr {
			t.worldRecord = Some(t.currentTime)
			t.worldRecordOwner = t.runner
		}
		t.completedRunBefore = true
	}
	if t.sink == nil {
		return newPB, nil
	}
	if err := t.sink.Save(t.Run()); err != nil {
		t.logger.Error("failed to save run", "err", err)
		return newPB, fmt.Errorf("failed to save run: %w", err)
	}
	return newPB, nil
}

func (t *Timer) logAttempt(attempt model.AttemptRecord) error {
	al, ok := t.sink.(AttemptLogger)
	if !ok {
		return nil
	}
	if err := al.LogAttempt(t.game, t.category, attempt); err != nil {
		t.logger.Error("failed to log attempt", "err", err)
		return fmt.Errorf("failed to log attempt: %w", err)
	}
	return nil
}

// initializeSegments recomputes each segment's cumulative PB split by walking
// back to the first segment. Any segment without history voids the sum.
func (t *Timer) initializeSegments() {
	abs := None
	for i, seg := range t.segments {
		var sum time.Duration
		abs = None
		complete := true
		for j := i; j >= 0; j-- {
			prev := t.segments[j]
			pb, ok := prev.pbRel.Get()
			if !prev.RanBefore() || !ok {
				complete = false
				break
			}
			sum += pb
		}
		if complete {
			abs = Some(sum)
		}
		seg.Construct(abs, t.completedRunBefore)
	}
	t.pbTime = abs
}
