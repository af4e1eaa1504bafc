package telemetry

import (
	"sync"
	"time"
)

const codePercentageFlushInterval = 5 * time.Minute

type codePercentageCounters struct {
	totalCharacters     int
	suggestedCharacters int
	invocationCount     int
	acceptanceCount     int
}

// CodePercentageTracker measures, per language, what share of typed code
// came from accepted suggestions. Counters flush on a fixed interval and
// reset after each flush.
type CodePercentageTracker struct {
	emitter Emitter

	mu       sync.Mutex
	counters map[string]*codePercentageCounters

	done chan struct{}
	once sync.Once
}

func NewCodePercentageTracker(emitter Emitter, interval time.Duration) *CodePercentageTracker {
	if interval <= 0 {
		interval = codePercentageFlushInterval
	}
	t := &CodePercentageTracker{
		emitter:  emitter,
		counters: make(map[string]*codePercentageCounters),
		done:     make(chan struct{}),
	}
	go t.loop(interval)
	return t
}

func (t *CodePercentageTracker) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.Flush()
		case <-t.done:
			return
		}
	}
}

func (t *CodePercentageTracker) get(language string) *codePercentageCounters {
	c, ok := t.counters[language]
	if !ok {
		c = &codePercentageCounters{}
		t.counters[language] = c
	}
	return c
}

// CountTotalCharacters records characters typed into a document, whatever
// their origin.
func (t *CodePercentageTracker) CountTotalCharacters(language string, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(language).totalCharacters += count
}

// CountAcceptedCharacters records characters inserted by an acceptance. The
// accepted characters count toward the total as well.
func (t *CodePercentageTracker) CountAcceptedCharacters(language string, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.get(language)
	c.suggestedCharacters += count
	c.totalCharacters += count
	c.acceptanceCount++
}

// CountInvocation records one suggestion request for a language.
func (t *CodePercentageTracker) CountInvocation(language string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(language).invocationCount++
}

// Flush emits one codePercentage event per language with activity and
// resets the counters.
func (t *CodePercentageTracker) Flush() {
	t.mu.Lock()
	snapshot := t.counters
	t.counters = make(map[string]*codePercentageCounters)
	t.mu.Unlock()

	for language, c := range snapshot {
		if c.invocationCount == 0 && c.totalCharacters == 0 {
			continue
		}
		percentage := 0.0
		if c.totalCharacters > 0 {
			percentage = float64(c.suggestedCharacters) / float64(c.totalCharacters) * 100
		}
		t.emitter.EmitMetric(MetricEvent{
			Name:   "codePercentage",
			Result: "Succeeded",
			Data: map[string]any{
				"language":            language,
				"totalCharacters":     c.totalCharacters,
				"suggestedCharacters": c.suggestedCharacters,
				"invocationCount":     c.invocationCount,
				"acceptanceCount":     c.acceptanceCount,
				"percentage":          percentage,
			},
		})
	}
}

// Shutdown stops the flush loop and emits any remaining counters.
func (t *CodePercentageTracker) Shutdown() {
	t.once.Do(func() { close(t.done) })
	t.Flush()
}
