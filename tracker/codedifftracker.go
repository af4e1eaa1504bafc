package tracker

import (
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"codetab/document"
	"codetab/logger"
	"codetab/types"
)

const (
	defaultFlushInterval        = time.Minute
	defaultTimeElapsedThreshold = 5 * time.Minute
	defaultMaxQueueSize         = 10000
)

// AcceptedSuggestionEntry identifies an accepted suggestion and where it
// landed in the document, so the tracker can re-read that range later.
type AcceptedSuggestionEntry struct {
	FileURI          string
	Time             time.Time
	OriginalString   string
	StartPosition    types.Position
	EndPosition      types.Position
	CustomizationARN string
	CompletionType   string
	TriggerType      string
	Language         string
	SessionID        string
	RequestID        string
}

// Base lets AcceptedSuggestionEntry satisfy TrackedEntry directly and via
// embedding in richer entry types.
func (e AcceptedSuggestionEntry) Base() AcceptedSuggestionEntry { return e }

// TrackedEntry is anything carrying an AcceptedSuggestionEntry.
type TrackedEntry interface {
	Base() AcceptedSuggestionEntry
}

// RecordFunc receives the measurement for one matured entry.
type RecordFunc[T TrackedEntry] func(entry T, percentageModified float64, unmodifiedAcceptedCharacterCount int)

// CodeDiffTrackerOptions tune queue and timing behavior; zero values take
// the defaults above.
type CodeDiffTrackerOptions struct {
	FlushInterval        time.Duration
	TimeElapsedThreshold time.Duration
	MaxQueueSize         int
}

func (o CodeDiffTrackerOptions) withDefaults() CodeDiffTrackerOptions {
	if o.FlushInterval <= 0 {
		o.FlushInterval = defaultFlushInterval
	}
	if o.TimeElapsedThreshold <= 0 {
		o.TimeElapsedThreshold = defaultTimeElapsedThreshold
	}
	if o.MaxQueueSize <= 0 {
		o.MaxQueueSize = defaultMaxQueueSize
	}
	return o
}

// CodeDiffTracker measures how much accepted suggestions were edited after
// the fact. Entries sit in a queue until a dwell threshold passes, then the
// current document text in the accepted range is compared against what was
// accepted. The flush timer runs only while the queue is non-empty.
type CodeDiffTracker[T TrackedEntry] struct {
	workspace document.Workspace
	record    RecordFunc[T]
	opts      CodeDiffTrackerOptions

	mu     sync.Mutex
	queue  []T
	timer  *time.Timer
	closed bool
}

func NewCodeDiffTracker[T TrackedEntry](workspace document.Workspace, record RecordFunc[T], opts CodeDiffTrackerOptions) *CodeDiffTracker[T] {
	return &CodeDiffTracker[T]{
		workspace: workspace,
		record:    record,
		opts:      opts.withDefaults(),
	}
}

// Enqueue adds an accepted suggestion for later measurement. When the queue
// is full the oldest entry is evicted; losing old samples beats unbounded
// growth. The first entry arms the flush timer.
func (t *CodeDiffTracker[T]) Enqueue(entry T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.queue = append(t.queue, entry)
	if len(t.queue) > t.opts.MaxQueueSize {
		t.queue = t.queue[len(t.queue)-t.opts.MaxQueueSize:]
	}
	t.armLocked()
}

func (t *CodeDiffTracker[T]) armLocked() {
	if t.timer != nil || t.closed || len(t.queue) == 0 {
		return
	}
	t.timer = time.AfterFunc(t.opts.FlushInterval, t.onTimer)
}

func (t *CodeDiffTracker[T]) onTimer() {
	t.Flush()
	t.mu.Lock()
	t.timer = nil
	t.armLocked()
	t.mu.Unlock()
}

// Flush measures every entry whose dwell threshold has passed and keeps the
// rest queued.
func (t *CodeDiffTracker[T]) Flush() {
	now := time.Now()

	t.mu.Lock()
	var due, keep []T
	for _, entry := range t.queue {
		if now.Sub(entry.Base().Time) >= t.opts.TimeElapsedThreshold {
			due = append(due, entry)
		} else {
			keep = append(keep, entry)
		}
	}
	t.queue = keep
	t.mu.Unlock()

	for _, entry := range due {
		t.measure(entry)
	}
}

func (t *CodeDiffTracker[T]) measure(entry T) {
	base := entry.Base()
	doc, err := t.workspace.GetTextDocument(base.FileURI)
	if err != nil {
		logger.Debug("code diff tracker: document %s gone: %v", base.FileURI, err)
		return
	}
	currentString := doc.GetText(&types.Range{Start: base.StartPosition, End: base.EndPosition})
	percentage := CheckDiff(currentString, base.OriginalString)
	unmodified := UnmodifiedAcceptedCharacterCount(base.OriginalString, currentString)
	t.record(entry, percentage, unmodified)
}

// QueueLength reports the number of pending entries.
func (t *CodeDiffTracker[T]) QueueLength() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Shutdown stops the timer and runs one final flush of matured entries.
func (t *CodeDiffTracker[T]) Shutdown() {
	t.mu.Lock()
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
	t.Flush()
}

// CheckDiff returns the edit distance between the current text and the
// accepted text as a fraction of the accepted length, capped at 1. Either
// side being empty counts as fully modified.
func CheckDiff(currentString, acceptedString string) float64 {
	if currentString == "" || acceptedString == "" {
		return 1
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(currentString, acceptedString, false)
	distance := float64(dmp.DiffLevenshtein(diffs))
	ratio := distance / float64(len(acceptedString))
	if ratio > 1 {
		return 1
	}
	return ratio
}

// UnmodifiedAcceptedCharacterCount is the number of accepted characters that
// survived later editing.
func UnmodifiedAcceptedCharacterCount(acceptedString, currentString string) int {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(acceptedString, currentString, false)
	longer := len(acceptedString)
	if len(currentString) > longer {
		longer = len(currentString)
	}
	return longer - dmp.DiffLevenshtein(diffs)
}
