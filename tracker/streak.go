// Package tracker holds the post-decision bookkeeping: acceptance streaks,
// deferred edit-distance measurement of accepted suggestions, recent cursor
// positions and rejected-edit suppression.
package tracker

import "sync"

// StreakTracker counts consecutive accepted suggestions. The streak length
// is reported once, on the rejection that breaks it.
type StreakTracker struct {
	mu     sync.Mutex
	streak int
}

func NewStreakTracker() *StreakTracker {
	return &StreakTracker{}
}

// GetAndUpdateStreakLength updates the streak with one decision and returns
// the finished streak length, or -1 while a streak is still building.
func (t *StreakTracker) GetAndUpdateStreakLength(accepted bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if accepted {
		t.streak++
		return -1
	}
	if t.streak > 0 {
		length := t.streak
		t.streak = 0
		return length
	}
	return -1
}
