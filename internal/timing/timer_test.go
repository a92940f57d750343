package timing

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/splitclock/internal/model"
)

type fakeSink struct {
	saved    []model.RunRecord
	attempts []model.AttemptRecord
	err      error
}

func (f *fakeSink) Save(run model.RunRecord) error {
	f.saved = append(f.saved, run)
	return f.err
}

func (f *fakeSink) LogAttempt(_, _ string, attempt model.AttemptRecord) error {
	f.attempts = append(f.attempts, attempt)
	return nil
}

type fakeInput struct {
	pressed map[string]bool
	reset   bool
	polls   int
}

func (f *fakeInput) UpdateKeyboardState() { f.polls++ }

func (f *fakeInput) IsKeyPressed(key model.KeyBinding) bool {
	return f.pressed[key.Key]
}

func (f *fakeInput) IsAskingForReset(model.KeyBinding) bool {
	return f.reset
}

var testKeys = model.Keybindings{
	Split: model.KeyBinding{Key: "split"},
	Reset: model.KeyBinding{Key: "reset"},
	Undo:  model.KeyBinding{Key: "undo"},
	Redo:  model.KeyBinding{Key: "redo"},
	Lock:  model.KeyBinding{Key: "lock"},
}

func secs(n int) *time.Duration {
	d := time.Duration(n) * time.Second
	return &d
}

// scenarioRun has PB segments [10, 20, 15] and bests [9, 19, 14].
func scenarioRun() model.RunRecord {
	return model.RunRecord{
		Game:     "Game",
		Category: "Any%",
		Segments: []model.SegmentRecord{
			{Name: "one", PB: secs(10), Best: secs(9)},
			{Name: "two", PB: secs(20), Best: secs(19)},
			{Name: "three", PB: secs(15), Best: secs(14)},
		},
		AttemptCount:       10,
		CompletedRunBefore: true,
		WorldRecord:        secs(40),
		WorldRecordOwner:   "wr-holder",
	}
}

func freshRun(n int) model.RunRecord {
	run := model.RunRecord{Game: "Game", Category: "Any%"}
	for i := 0; i < n; i++ {
		run.Segments = append(run.Segments, model.SegmentRecord{Name: "seg"})
	}
	return run
}

func newTestTimer(run model.RunRecord, sink Sink) *Timer {
	return New(run, nil, sink, Options{Keys: testKeys, Runner: "tester"})
}

// advanceTo runs the clock forward to an absolute time.
func advanceTo(t *testing.T, tm *Timer, at time.Duration) {
	t.Helper()
	if err := tm.Update(at - tm.CurrentTime()); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestNewTimerIsIdle(t *testing.T) {
	tm := newTestTimer(scenarioRun(), nil)
	if tm.CurrentSegment() != -1 || tm.CurrentTime() != 0 || tm.HasStarted() {
		t.Fatalf("expected idle timer, got segment %d time %v", tm.CurrentSegment(), tm.CurrentTime())
	}
	pb, ok := tm.PBTime().Get()
	if !ok || pb != 45*time.Second {
		t.Fatalf("expected PB of 45s, got %v %v", pb, ok)
	}
	wantAbs := []time.Duration{10 * time.Second, 30 * time.Second, 45 * time.Second}
	for i, seg := range tm.Segments() {
		got, ok := seg.PBCompletedAt().Get()
		if !ok || got != wantAbs[i] {
			t.Fatalf("segment %d: expected PB split %v, got %v", i, wantAbs[i], got)
		}
	}
}

func TestInitializeSegmentsMissingHistory(t *testing.T) {
	run := scenarioRun()
	run.Segments[1].Best = nil
	tm := newTestTimer(run, nil)
	if tm.HasPB() {
		t.Fatalf("a segment without history voids the PB")
	}
	if !tm.Segments()[0].PBCompletedAt().Valid() {
		t.Fatalf("segments before the gap keep their PB split")
	}
	if tm.Segments()[1].PBCompletedAt().Valid() || tm.Segments()[2].PBCompletedAt().Valid() {
		t.Fatalf("segments at or after the gap have no PB split")
	}
}

func TestIdleClockDoesNotRun(t *testing.T) {
	tm := newTestTimer(freshRun(2), nil)
	if err := tm.Update(time.Second); err != nil {
		t.Fatalf("update: %v", err)
	}
	if tm.CurrentTime() != 0 {
		t.Fatalf("idle clock must stay at zero, got %v", tm.CurrentTime())
	}
}

func TestSplitNTimesFinishes(t *testing.T) {
	for n := 1; n <= 5; n++ {
		tm := newTestTimer(freshRun(n), nil)
		tm.Split()
		for i := 0; i < n; i++ {
			advanceTo(t, tm, time.Duration(i+1)*time.Second)
			tm.Split()
		}
		if !tm.IsRunFinished() {
			t.Fatalf("n=%d: expected finished run", n)
		}
		completed := 0
		for _, seg := range tm.Segments() {
			if seg.IsCompleted() {
				completed++
			}
		}
		if completed != n {
			t.Fatalf("n=%d: expected %d completed segments, got %d", n, n, completed)
		}
		tm.Split()
		if tm.CurrentSegment() != n {
			t.Fatalf("n=%d: split after finish must be a no-op", n)
		}
	}
}

func TestFinishedClockStops(t *testing.T) {
	tm := newTestTimer(freshRun(1), nil)
	tm.Split()
	advanceTo(t, tm, 5*time.Second)
	tm.Split()
	if err := tm.Update(3 * time.Second); err != nil {
		t.Fatalf("update: %v", err)
	}
	if tm.CurrentTime() != 5*time.Second || tm.DisplayTime() != 5*time.Second {
		t.Fatalf("finished clock must stay at 5s, got %v / %v", tm.CurrentTime(), tm.DisplayTime())
	}
}

func TestScenarioNewPersonalBest(t *testing.T) {
	sink := &fakeSink{}
	tm := newTestTimer(scenarioRun(), sink)

	tm.Split()
	advanceTo(t, tm, 9*time.Second)
	tm.Split()
	seg0 := tm.Segments()[0]
	if seg0.RelativeTime() != 9*time.Second || !seg0.IsBest() || seg0.PickColor() != PaceBest {
		t.Fatalf("segment 0: expected 9s best, got %v %v", seg0.RelativeTime(), seg0.PickColor())
	}

	advanceTo(t, tm, 28*time.Second)
	tm.Split()
	seg1 := tm.Segments()[1]
	if seg1.RelativeTime() != 19*time.Second || seg1.PickColor() != PaceBest {
		t.Fatalf("segment 1: expected 19s best, got %v %v", seg1.RelativeTime(), seg1.PickColor())
	}

	advanceTo(t, tm, 44*time.Second)
	tm.Split()
	seg2 := tm.Segments()[2]
	if seg2.RelativeTime() != 16*time.Second || seg2.IsBest() {
		t.Fatalf("segment 2: expected 16s non-best, got %v", seg2.RelativeTime())
	}
	if got := seg2.PickColor(); got != PaceAheadLosing {
		t.Fatalf("segment 2: expected ahead-losing, got %v", got)
	}
	if !tm.IsRunFinished() || tm.CurrentTime() != 44*time.Second {
		t.Fatalf("expected finished run at 44s")
	}

	if err := tm.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(sink.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(sink.saved))
	}
	saved := sink.saved[0]
	wantPB := []time.Duration{9 * time.Second, 19 * time.Second, 16 * time.Second}
	wantBest := []time.Duration{9 * time.Second, 19 * time.Second, 14 * time.Second}
	for i, seg := range saved.Segments {
		if *seg.PB != wantPB[i] {
			t.Fatalf("segment %d: expected PB %v, got %v", i, wantPB[i], *seg.PB)
		}
		if *seg.Best != wantBest[i] {
			t.Fatalf("segment %d: expected best %v, got %v", i, wantBest[i], *seg.Best)
		}
	}
	if saved.AttemptCount != 11 || !saved.CompletedRunBefore {
		t.Fatalf("unexpected saved metadata: %+v", saved)
	}
	if *saved.WorldRecord != 40*time.Second || saved.WorldRecordOwner != "wr-holder" {
		t.Fatalf("44s must not beat a 40s world record")
	}
	if pb, _ := tm.PBTime().Get(); pb != 44*time.Second {
		t.Fatalf("expected new PB of 44s, got %v", pb)
	}
	if len(sink.attempts) != 1 || !sink.attempts[0].Finished || !sink.attempts[0].PersonalBest {
		t.Fatalf("expected a finished PB attempt, got %+v", sink.attempts)
	}
}

func TestSlowerFinishKeepsPB(t *testing.T) {
	sink := &fakeSink{}
	tm := newTestTimer(scenarioRun(), sink)
	tm.Split()
	for _, at := range []int{12, 33, 50} {
		advanceTo(t, tm, time.Duration(at)*time.Second)
		tm.Split()
	}
	if err := tm.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	for i, seg := range sink.saved[0].Segments {
		if *seg.PB != *scenarioRun().Segments[i].PB {
			t.Fatalf("segment %d: PB must be unchanged", i)
		}
	}
	if sink.attempts[0].PersonalBest {
		t.Fatalf("slower run is not a PB")
	}
}

func TestFirstFinishSetsPBAndWorldRecord(t *testing.T) {
	sink := &fakeSink{}
	tm := newTestTimer(freshRun(2), sink)
	tm.Split()
	advanceTo(t, tm, 3*time.Second)
	tm.Split()
	advanceTo(t, tm, 8*time.Second)
	tm.Split()
	if err := tm.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	saved := sink.saved[0]
	if *saved.Segments[0].PB != 3*time.Second || *saved.Segments[1].PB != 5*time.Second {
		t.Fatalf("unexpected PB segments: %+v", saved.Segments)
	}
	if saved.WorldRecord == nil || *saved.WorldRecord != 8*time.Second || saved.WorldRecordOwner != "tester" {
		t.Fatalf("expected runner to take the empty world record, got %+v", saved)
	}
	if !tm.CompletedRunBefore() || !tm.HasPB() {
		t.Fatalf("expected completed run and PB after finishing")
	}
}

func TestResetMidRunCountsReset(t *testing.T) {
	sink := &fakeSink{}
	tm := newTestTimer(scenarioRun(), sink)
	tm.Split()
	advanceTo(t, tm, 8*time.Second)
	tm.Split()
	advanceTo(t, tm, 10*time.Second)
	if err := tm.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if tm.CurrentSegment() != -1 || tm.CurrentTime() != 0 || tm.CanRedo() {
		t.Fatalf("reset must clear the timer")
	}
	if got := tm.Segments()[1].ResetCount(); got != 1 {
		t.Fatalf("expected reset counted on segment 1, got %d", got)
	}
	if best, _ := tm.Segments()[0].BestRel().Get(); best != 8*time.Second {
		t.Fatalf("expected new best of 8s on segment 0, got %v", best)
	}
	if pb, _ := tm.PBTime().Get(); pb != 45*time.Second {
		t.Fatalf("unfinished run must not change PB, got %v", pb)
	}
	if tm.AttemptCount() != 11 {
		t.Fatalf("expected attempt count 11, got %d", tm.AttemptCount())
	}
}

func TestResetIdleIsNoop(t *testing.T) {
	sink := &fakeSink{}
	tm := newTestTimer(scenarioRun(), sink)
	if err := tm.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(sink.saved) != 0 || tm.AttemptCount() != 10 {
		t.Fatalf("idle reset must not save or count an attempt")
	}
}

func TestResetSaveFailureStillResets(t *testing.T) {
	sink := &fakeSink{err: errors.New("disk full")}
	tm := newTestTimer(scenarioRun(), sink)
	tm.Split()
	advanceTo(t, tm, time.Second)
	if err := tm.Reset(); err == nil {
		t.Fatalf("expected save error")
	}
	if tm.HasStarted() || tm.CurrentTime() != 0 {
		t.Fatalf("timer must reset even when saving fails")
	}
	sink.err = nil
	tm.Split()
	if err := tm.AutoSave(); err != nil {
		t.Fatalf("retry save: %v", err)
	}
	if got := sink.saved[len(sink.saved)-1].AttemptCount; got != 11 {
		t.Fatalf("retry must persist latest state, got attempt count %d", got)
	}
}

func TestUndoAtFirstSegmentIsNoop(t *testing.T) {
	tm := newTestTimer(scenarioRun(), nil)
	tm.Split()
	advanceTo(t, tm, 4*time.Second)
	beforeSeg := *tm.Segments()[0]
	tm.Undo()
	if tm.CurrentSegment() != 0 || tm.CurrentTime() != 4*time.Second || tm.CanRedo() {
		t.Fatalf("undo at segment 0 must not change the timer")
	}
	if !reflect.DeepEqual(beforeSeg, *tm.Segments()[0]) {
		t.Fatalf("undo at segment 0 must not change the segment")
	}
}

func TestUndoIdleIsNoop(t *testing.T) {
	tm := newTestTimer(scenarioRun(), nil)
	tm.Undo()
	if tm.CurrentSegment() != -1 || tm.CanRedo() {
		t.Fatalf("undo while idle must do nothing")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	tm := newTestTimer(scenarioRun(), nil)
	tm.Split()
	advanceTo(t, tm, 9*time.Second)
	tm.Split()
	advanceTo(t, tm, 28*time.Second)
	tm.Split()
	advanceTo(t, tm, 30*time.Second)

	seg := tm.Segments()[1]
	completedAt := seg.CompletedAt()
	tm.Undo()
	if tm.CurrentSegment() != 1 || seg.IsCompleted() {
		t.Fatalf("undo must reopen segment 1")
	}
	if !tm.CanRedo() {
		t.Fatalf("expected redo to be available")
	}
	tm.Redo()
	if tm.CurrentSegment() != 2 || !seg.IsCompleted() || seg.CompletedAt() != completedAt {
		t.Fatalf("redo must restore segment 1 at %v, got %v", completedAt, seg.CompletedAt())
	}
	if tm.CurrentTime() != 30*time.Second {
		t.Fatalf("redo mid-run must not touch the clock, got %v", tm.CurrentTime())
	}
}

func TestUndoRedoMultiple(t *testing.T) {
	tm := newTestTimer(scenarioRun(), nil)
	tm.Split()
	advanceTo(t, tm, 9*time.Second)
	tm.Split()
	advanceTo(t, tm, 28*time.Second)
	tm.Split()
	tm.Undo()
	tm.Undo()
	if tm.CurrentSegment() != 0 {
		t.Fatalf("expected segment 0 after two undos")
	}
	tm.Redo()
	tm.Redo()
	if tm.CurrentSegment() != 2 {
		t.Fatalf("expected segment 2 after two redos")
	}
	if tm.Segments()[0].CompletedAt() != 9*time.Second || tm.Segments()[1].CompletedAt() != 28*time.Second {
		t.Fatalf("redo must restore the undone split times")
	}
	tm.Redo()
	if tm.CurrentSegment() != 2 {
		t.Fatalf("redo with empty history must be a no-op")
	}
}

func TestSplitClosesRedoWindow(t *testing.T) {
	tm := newTestTimer(scenarioRun(), nil)
	tm.Split()
	advanceTo(t, tm, 9*time.Second)
	tm.Split()
	tm.Undo()
	tm.Split()
	if tm.CanRedo() {
		t.Fatalf("split must clear the redo history")
	}
	tm.Redo()
	if tm.CurrentSegment() != 1 {
		t.Fatalf("redo after split must be a no-op")
	}
}

func TestUndoRedoFinalSplitRestoresClock(t *testing.T) {
	tm := newTestTimer(scenarioRun(), nil)
	tm.Split()
	for _, at := range []int{9, 28, 44} {
		advanceTo(t, tm, time.Duration(at)*time.Second)
		tm.Split()
	}
	tm.Undo()
	if tm.IsRunFinished() {
		t.Fatalf("undo of the final split reopens the run")
	}
	if err := tm.Update(5 * time.Second); err != nil {
		t.Fatalf("update: %v", err)
	}
	if tm.CurrentTime() != 49*time.Second {
		t.Fatalf("clock must run again after undo, got %v", tm.CurrentTime())
	}
	tm.Redo()
	if !tm.IsRunFinished() || tm.CurrentTime() != 44*time.Second || tm.DisplayTime() != 44*time.Second {
		t.Fatalf("redo of final split must roll the clock back to 44s, got %v", tm.CurrentTime())
	}
}

func TestRedoIdleOrFinishedIsNoop(t *testing.T) {
	tm := newTestTimer(freshRun(1), nil)
	tm.Redo()
	if tm.HasStarted() {
		t.Fatalf("redo while idle must do nothing")
	}
	tm.Split()
	tm.Split()
	tm.Redo()
	if tm.CurrentSegment() != 1 {
		t.Fatalf("redo after finish must do nothing")
	}
}

func TestUpdateDispatchesInput(t *testing.T) {
	in := &fakeInput{pressed: map[string]bool{"split": true}}
	sink := &fakeSink{}
	tm := New(freshRun(2), in, sink, Options{Keys: testKeys})

	if err := tm.Update(time.Second); err != nil {
		t.Fatalf("update: %v", err)
	}
	if tm.CurrentSegment() != 0 || tm.CurrentTime() != time.Second {
		t.Fatalf("split should start the run before the clock advances, got %d %v", tm.CurrentSegment(), tm.CurrentTime())
	}
	in.pressed = map[string]bool{}
	in.reset = true
	if err := tm.Update(time.Second); err != nil {
		t.Fatalf("update: %v", err)
	}
	if tm.HasStarted() || len(sink.saved) != 1 {
		t.Fatalf("reset request must reset and save")
	}
	if in.polls != 2 {
		t.Fatalf("expected one poll per frame, got %d", in.polls)
	}
}

func TestLockIgnoresInput(t *testing.T) {
	in := &fakeInput{pressed: map[string]bool{"lock": true}}
	tm := New(freshRun(2), in, nil, Options{Keys: testKeys})
	if err := tm.Update(0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !tm.Locked() {
		t.Fatalf("expected timer to be locked")
	}
	in.pressed = map[string]bool{"split": true}
	if err := tm.Update(0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if tm.HasStarted() {
		t.Fatalf("locked timer must ignore split")
	}
	in.pressed = map[string]bool{"lock": true, "split": true}
	if err := tm.Update(0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if tm.Locked() || !tm.HasStarted() {
		t.Fatalf("unlocking must allow input in the same frame")
	}
}

func TestTimerPace(t *testing.T) {
	tm := newTestTimer(scenarioRun(), nil)
	if _, ok := tm.Pace(); ok {
		t.Fatalf("idle timer uses the base colour")
	}
	tm.Split()
	advanceTo(t, tm, 5*time.Second)
	if p, ok := tm.Pace(); !ok || p != PaceAheadGaining {
		t.Fatalf("expected ahead-gaining, got %v %v", p, ok)
	}
	advanceTo(t, tm, 12*time.Second)
	if p, _ := tm.Pace(); p != PaceBehindGaining {
		t.Fatalf("expected behind-gaining, got %v", p)
	}
	advanceTo(t, tm, 50*time.Second)
	if p, _ := tm.Pace(); p != PaceBehindLosing {
		t.Fatalf("expected behind-losing past the PB, got %v", p)
	}

	fresh := newTestTimer(freshRun(2), nil)
	fresh.Split()
	advanceTo(t, fresh, time.Second)
	if _, ok := fresh.Pace(); ok {
		t.Fatalf("segments without history use the base colour")
	}
}

func TestHistoryStack(t *testing.T) {
	var h History
	if h.CanRedo() {
		t.Fatalf("empty history cannot redo")
	}
	if _, ok := h.Pop(); ok {
		t.Fatalf("pop on empty history must report false")
	}
	h.Push(time.Second)
	h.Push(2 * time.Second)
	if got, _ := h.Pop(); got != 2*time.Second {
		t.Fatalf("expected last pushed value, got %v", got)
	}
	h.Clear()
	if h.CanRedo() || h.Len() != 0 {
		t.Fatalf("clear must empty the stack")
	}
}
