package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"codetab/types"
)

func TestCursorTracker(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := NewCursorTracker(time.Minute)
	defer tr.Stop()

	_, ok := tr.LastPosition("file:///a.go")
	assert.False(t, ok)

	tr.TrackPosition("file:///a.go", types.Position{Line: 3, Character: 7})
	tr.TrackPosition("file:///a.go", types.Position{Line: 4, Character: 0})

	pos, ok := tr.LastPosition("file:///a.go")
	assert.True(t, ok)
	assert.Equal(t, types.Position{Line: 4, Character: 0}, pos)

	_, ok = tr.LastPosition("file:///b.go")
	assert.False(t, ok)
}

func TestCursorTrackerExpiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := NewCursorTracker(10 * time.Millisecond)
	defer tr.Stop()

	tr.TrackPosition("file:///a.go", types.Position{Line: 1})
	assert.Eventually(t, func() bool {
		_, ok := tr.LastPosition("file:///a.go")
		return !ok
	}, time.Second, 5*time.Millisecond)
}
