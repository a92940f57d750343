package timing

import "time"

// History holds the completion times of undone splits, most recent on top.
// A split or reset clears it, so redo is only possible right after undo.
type History struct {
	undone []time.Duration
}

// Clear empties the stack.
func (h *History) Clear() {
	h.undone = h.undone[:0]
}

// Push records the completion time of a split being undone.
func (h *History) Push(t time.Duration) {
	h.undone = append(h.undone, t)
}

// Pop returns the most recently undone completion time. It returns false
// when there is nothing to redo.
func (h *History) Pop() (time.Duration, bool) {
	if len(h.undone) == 0 {
		return 0, false
	}
	t := h.undone[len(h.undone)-1]
	h.undone = h.undone[:len(h.undone)-1]
	return t, true
}

// CanRedo reports whether Pop would return a value.
func (h *History) CanRedo() bool {
	return len(h.undone) > 0
}

// Len returns the number of undone splits.
func (h *History) Len() int {
	return len(h.undone)
}
