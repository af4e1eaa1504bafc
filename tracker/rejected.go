package tracker

import (
	"strings"
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	// Similarity at or above which a candidate edit counts as a re-offer of
	// something the user already turned down.
	DefaultRejectedSimilarityThreshold = 0.95

	defaultMaxRejectedPerDocument = 50
)

type rejectedEdit struct {
	content string
	at      time.Time
}

// RejectedEditTracker suppresses re-suggesting edits the user rejected.
// Rejections are kept per document, newest first, bounded.
type RejectedEditTracker struct {
	mu        sync.Mutex
	perDoc    map[string][]rejectedEdit
	maxPerDoc int
	threshold float64
}

func NewRejectedEditTracker() *RejectedEditTracker {
	return &RejectedEditTracker{
		perDoc:    make(map[string][]rejectedEdit),
		maxPerDoc: defaultMaxRejectedPerDocument,
		threshold: DefaultRejectedSimilarityThreshold,
	}
}

// RecordRejection remembers a rejected edit for a document.
func (t *RejectedEditTracker) RecordRejection(uri, content string) {
	content = normalizeEdit(content)
	if content == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	edits := append(t.perDoc[uri], rejectedEdit{content: content, at: time.Now()})
	if len(edits) > t.maxPerDoc {
		edits = edits[len(edits)-t.maxPerDoc:]
	}
	t.perDoc[uri] = edits
}

// IsSimilarToRejected reports whether content is close enough to a previous
// rejection in the same document to be withheld.
func (t *RejectedEditTracker) IsSimilarToRejected(uri, content string) bool {
	content = normalizeEdit(content)
	if content == "" {
		return false
	}
	t.mu.Lock()
	edits := t.perDoc[uri]
	t.mu.Unlock()

	for _, edit := range edits {
		if editSimilarity(edit.content, content) >= t.threshold {
			return true
		}
	}
	return false
}

// ClearDocument drops rejections for a document, e.g. when it closes.
func (t *RejectedEditTracker) ClearDocument(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.perDoc, uri)
}

func normalizeEdit(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

// editSimilarity is 1 minus the normalized edit distance.
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 1
	}
	dmp := diffmatchpatch.New()
	distance := dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
	return 1 - float64(distance)/float64(longer)
}
