package history

import (
	"testing"

	"github.com/MeKo-Tech/photofilter/internal/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateWithBrightness(v float64) editor.State {
	s := editor.Default()
	s.Filters.Brightness = v
	return s
}

func TestNewHistoryIsEmpty(t *testing.T) {
	h := New(0)
	assert.Equal(t, MaxEntries, h.Limit())
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, -1, h.Cursor())
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	_, ok := h.Undo()
	assert.False(t, ok)
	_, ok = h.Redo()
	assert.False(t, ok)
	_, ok = h.Current()
	assert.False(t, ok)
}

func TestUndoReturnsToInitialState(t *testing.T) {
	// the initial snapshot plus n edits must fit in MaxEntries
	for n := 1; n <= MaxEntries-1; n++ {
		h := New(MaxEntries)
		initial := editor.Default()
		h.Record(initial)

		for i := 1; i <= n; i++ {
			h.Record(stateWithBrightness(float64(100 + i)))
		}

		var got editor.State
		for i := 0; i < n; i++ {
			s, ok := h.Undo()
			require.True(t, ok, "n=%d undo %d", n, i)
			got = s
		}
		assert.Equal(t, initial, got, "n=%d", n)
		assert.False(t, h.CanUndo())
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	h := New(MaxEntries)
	h.Record(stateWithBrightness(100))
	h.Record(stateWithBrightness(110))
	h.Record(stateWithBrightness(120))

	s, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, 110.0, s.Filters.Brightness)

	s, ok = h.Redo()
	require.True(t, ok)
	assert.Equal(t, 120.0, s.Filters.Brightness)

	_, ok = h.Redo()
	assert.False(t, ok, "redo at end must be a no-op")
	assert.Equal(t, 2, h.Cursor())
}

func TestRecordAfterUndoDropsRedoBranch(t *testing.T) {
	h := New(MaxEntries)
	h.Record(stateWithBrightness(100))
	h.Record(stateWithBrightness(110))
	h.Record(stateWithBrightness(120))

	_, ok := h.Undo()
	require.True(t, ok)
	_, ok = h.Undo()
	require.True(t, ok)
	require.True(t, h.CanRedo())

	h.Record(stateWithBrightness(150))

	assert.False(t, h.CanRedo())
	_, ok = h.Redo()
	assert.False(t, ok)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.Cursor())

	cur, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, 150.0, cur.Filters.Brightness)
}

func TestHistoryNeverExceedsLimit(t *testing.T) {
	h := New(MaxEntries)
	for i := 0; i < 100; i++ {
		h.Record(stateWithBrightness(float64(i)))
		require.LessOrEqual(t, h.Len(), MaxEntries)
	}

	assert.Equal(t, MaxEntries, h.Len())
	assert.Equal(t, MaxEntries-1, h.Cursor())

	cur, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, 99.0, cur.Filters.Brightness)
}

func TestEvictionLosesOldestState(t *testing.T) {
	h := New(MaxEntries)
	for i := 0; i <= MaxEntries; i++ {
		h.Record(stateWithBrightness(float64(i)))
	}

	var last editor.State
	undos := 0
	for {
		s, ok := h.Undo()
		if !ok {
			break
		}
		last = s
		undos++
	}

	assert.Equal(t, MaxEntries-1, undos)
	assert.Equal(t, 1.0, last.Filters.Brightness, "state 0 must have been evicted")
}

func TestSnapshotsAreNotAliased(t *testing.T) {
	h := New(MaxEntries)
	s := editor.Default()
	h.Record(s)

	s.Filters.Sepia = 80
	h.Record(s)

	prev, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, 0.0, prev.Filters.Sepia)

	prev.Filters.Sepia = 55
	again, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, 0.0, again.Filters.Sepia)
}

func TestReset(t *testing.T) {
	h := New(3)
	h.Record(editor.Default())
	h.Record(stateWithBrightness(50))
	h.Reset()

	assert.Equal(t, 0, h.Len())
	assert.Equal(t, -1, h.Cursor())

	h.Record(editor.Default())
	assert.Equal(t, 0, h.Cursor())
	assert.False(t, h.CanUndo())
}
