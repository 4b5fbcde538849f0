// Package history provides a bounded, linear undo/redo stack of editor
// state snapshots.
package history

import "github.com/MeKo-Tech/photofilter/internal/editor"

// MaxEntries is the number of snapshots kept before the oldest is evicted.
const MaxEntries = 30

// History is an ordered list of snapshots with a cursor pointing at the
// snapshot that matches the currently applied state.
//
// The zero value is not usable; create one with New.
type History struct {
	snapshots []editor.State
	cursor    int
	limit     int
}

// New returns an empty history holding at most limit snapshots.
// A non-positive limit selects MaxEntries.
func New(limit int) *History {
	if limit <= 0 {
		limit = MaxEntries
	}
	return &History{
		snapshots: make([]editor.State, 0, limit+1),
		cursor:    -1,
		limit:     limit,
	}
}

// Record appends a copy of s. Any snapshots after the cursor (the redo
// branch) are discarded first. When the limit is exceeded the oldest
// snapshot is evicted and the cursor stays on the last index; the evicted
// state cannot be reached again.
func (h *History) Record(s editor.State) {
	if h.cursor < len(h.snapshots)-1 {
		h.snapshots = h.snapshots[:h.cursor+1]
	}

	h.snapshots = append(h.snapshots, s.Clone())

	if len(h.snapshots) > h.limit {
		copy(h.snapshots, h.snapshots[1:])
		h.snapshots = h.snapshots[:len(h.snapshots)-1]
		return
	}
	h.cursor++
}

// Undo moves the cursor back one step and returns a copy of the snapshot
// there. It reports false, leaving the cursor untouched, when there is
// nothing to undo.
func (h *History) Undo() (editor.State, bool) {
	if h.cursor <= 0 {
		return editor.State{}, false
	}
	h.cursor--
	return h.snapshots[h.cursor].Clone(), true
}

// Redo moves the cursor forward one step and returns a copy of the
// snapshot there. It reports false when the cursor is already at the end.
func (h *History) Redo() (editor.State, bool) {
	if h.cursor >= len(h.snapshots)-1 {
		return editor.State{}, false
	}
	h.cursor++
	return h.snapshots[h.cursor].Clone(), true
}

// Current returns a copy of the snapshot under the cursor.
func (h *History) Current() (editor.State, bool) {
	if h.cursor < 0 || h.cursor >= len(h.snapshots) {
		return editor.State{}, false
	}
	return h.snapshots[h.cursor].Clone(), true
}

// CanUndo reports whether Undo would move the cursor.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether Redo would move the cursor.
func (h *History) CanRedo() bool { return h.cursor < len(h.snapshots)-1 }

// Len returns the number of stored snapshots.
func (h *History) Len() int { return len(h.snapshots) }

// Cursor returns the index of the current snapshot, or -1 when empty.
func (h *History) Cursor() int { return h.cursor }

// Limit returns the maximum number of snapshots.
func (h *History) Limit() int { return h.limit }

// Reset drops every snapshot.
func (h *History) Reset() {
	h.snapshots = h.snapshots[:0]
	h.cursor = -1
}
