package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMaxPages(t *testing.T) {
	assert.Equal(t, DefaultMaxPages, NormalizeMaxPages(0))
	assert.Equal(t, DefaultMaxPages, NormalizeMaxPages(-3))
	assert.Equal(t, 7, NormalizeMaxPages(7))
	assert.Equal(t, MaxMaxPages, NormalizeMaxPages(MaxMaxPages+1))
}

func TestWalkerFollowsCursorUntilExhausted(t *testing.T) {
	w := NewWalker(10)
	assert.Equal(t, "", w.Cursor())

	assert.Equal(t, StopNone, w.Advance("c1", true))
	assert.Equal(t, "c1", w.Cursor())
	assert.Equal(t, StopNone, w.Advance("c2", true))
	assert.Equal(t, StopExhausted, w.Advance("", false))
	assert.Equal(t, 3, w.Pages())
	assert.False(t, StopExhausted.Truncated())
}

func TestWalkerStopsAtMaxPages(t *testing.T) {
	w := NewWalker(2)
	assert.Equal(t, StopNone, w.Advance("c1", true))
	reason := w.Advance("c2", true)
	assert.Equal(t, StopMaxPages, reason)
	assert.True(t, reason.Truncated())
}

func TestWalkerDetectsRepeatedCursor(t *testing.T) {
	w := NewWalker(0)
	assert.Equal(t, StopNone, w.Advance("c1", true))
	assert.Equal(t, StopRepeatCursor, w.Advance("c1", true))

	w = NewWalker(0)
	assert.Equal(t, StopNone, w.Advance("a", true))
	assert.Equal(t, StopNone, w.Advance("b", true))
	assert.Equal(t, StopRepeatCursor, w.Advance("a", true))
}

func TestWalkerStopsOnMissingCursor(t *testing.T) {
	w := NewWalker(0)
	reason := w.Advance("", true)
	assert.Equal(t, StopMissingCursor, reason)
	assert.True(t, reason.Truncated())
}
