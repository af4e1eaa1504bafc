package tracker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"codetab/document"
	"codetab/types"
)

func TestCheckDiff(t *testing.T) {
	cases := []struct {
		name     string
		current  string
		accepted string
		want     float64
	}{
		{"empty current", "", "foo", 1},
		{"empty accepted", "foo", "", 1},
		{"identical", "foo()", "foo()", 0},
		{"fully replaced", "aaaa", "bbbb", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CheckDiff(tc.current, tc.accepted))
		})
	}

	partial := CheckDiff("foo(bar)", "foo(baz)")
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)
}

func TestUnmodifiedAcceptedCharacterCount(t *testing.T) {
	assert.Equal(t, 5, UnmodifiedAcceptedCharacterCount("hello", "hello"))
	assert.Equal(t, 0, UnmodifiedAcceptedCharacterCount("aaaa", "bbbb"))
	assert.Equal(t, 4, UnmodifiedAcceptedCharacterCount("hello", "hell"))
}

func trackedEntry(uri, original string, at time.Time, end types.Position) AcceptedSuggestionEntry {
	return AcceptedSuggestionEntry{
		FileURI:        uri,
		Time:           at,
		OriginalString: original,
		StartPosition:  types.Position{Line: 0, Character: 0},
		EndPosition:    end,
		SessionID:      "s1",
	}
}

func TestCodeDiffTrackerFlushMeasuresMaturedEntries(t *testing.T) {
	defer goleak.VerifyNone(t)

	ws := document.NewMemoryWorkspace()
	ws.Put(document.New("file:///a.go", "go", 1, "foo(bar)\n"))

	var mu sync.Mutex
	var recorded []float64
	tracker := NewCodeDiffTracker(ws, func(entry AcceptedSuggestionEntry, pct float64, unmodified int) {
		mu.Lock()
		recorded = append(recorded, pct)
		mu.Unlock()
	}, CodeDiffTrackerOptions{
		FlushInterval:        time.Hour,
		TimeElapsedThreshold: time.Minute,
	})
	defer tracker.Shutdown()

	end := types.Position{Line: 0, Character: 8}
	tracker.Enqueue(trackedEntry("file:///a.go", "foo(bar)", time.Now().Add(-2*time.Minute), end))
	tracker.Enqueue(trackedEntry("file:///a.go", "foo(bar)", time.Now(), end))
	require.Equal(t, 2, tracker.QueueLength())

	tracker.Flush()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, recorded, 1)
	assert.Equal(t, 0.0, recorded[0])
	assert.Equal(t, 1, tracker.QueueLength())
}

func TestCodeDiffTrackerSkipsMissingDocuments(t *testing.T) {
	defer goleak.VerifyNone(t)

	ws := document.NewMemoryWorkspace()
	calls := 0
	tracker := NewCodeDiffTracker(ws, func(entry AcceptedSuggestionEntry, pct float64, unmodified int) {
		calls++
	}, CodeDiffTrackerOptions{FlushInterval: time.Hour})
	defer tracker.Shutdown()

	tracker.Enqueue(trackedEntry("file:///gone.go", "x", time.Now().Add(-10*time.Minute), types.Position{Character: 1}))
	tracker.Flush()

	assert.Zero(t, calls)
	assert.Zero(t, tracker.QueueLength())
}

func TestCodeDiffTrackerEvictsOldestWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	ws := document.NewMemoryWorkspace()
	tracker := NewCodeDiffTracker(ws, func(entry AcceptedSuggestionEntry, pct float64, unmodified int) {},
		CodeDiffTrackerOptions{FlushInterval: time.Hour, MaxQueueSize: 2})
	defer tracker.Shutdown()

	for i := 0; i < 5; i++ {
		tracker.Enqueue(trackedEntry("file:///a.go", "x", time.Now(), types.Position{Character: 1}))
	}
	assert.Equal(t, 2, tracker.QueueLength())
}

func TestCodeDiffTrackerEnqueueAfterShutdownDropped(t *testing.T) {
	defer goleak.VerifyNone(t)

	ws := document.NewMemoryWorkspace()
	tracker := NewCodeDiffTracker(ws, func(entry AcceptedSuggestionEntry, pct float64, unmodified int) {},
		CodeDiffTrackerOptions{})
	tracker.Shutdown()

	tracker.Enqueue(trackedEntry("file:///a.go", "x", time.Now(), types.Position{Character: 1}))
	assert.Zero(t, tracker.QueueLength())
}

func TestCodeDiffTrackerTimerFlushes(t *testing.T) {
	defer goleak.VerifyNone(t)

	ws := document.NewMemoryWorkspace()
	ws.Put(document.New("file:///a.go", "go", 1, "abc"))

	done := make(chan struct{})
	var once sync.Once
	tracker := NewCodeDiffTracker(ws, func(entry AcceptedSuggestionEntry, pct float64, unmodified int) {
		once.Do(func() { close(done) })
	}, CodeDiffTrackerOptions{
		FlushInterval:        5 * time.Millisecond,
		TimeElapsedThreshold: time.Nanosecond,
	})
	defer tracker.Shutdown()

	tracker.Enqueue(trackedEntry("file:///a.go", "abc", time.Now().Add(-time.Second), types.Position{Character: 3}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer flush never fired")
	}
}
