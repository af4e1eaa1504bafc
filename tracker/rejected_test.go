package tracker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRejectedEditTracker(t *testing.T) {
	tr := NewRejectedEditTracker()
	uri := "file:///a.go"
	edit := "if err != nil {\n\treturn fmt.Errorf(\"load config: %w\", err)\n}"

	assert.False(t, tr.IsSimilarToRejected(uri, edit))

	tr.RecordRejection(uri, edit)
	assert.True(t, tr.IsSimilarToRejected(uri, edit))

	// Near-identical re-offer is suppressed too.
	assert.True(t, tr.IsSimilarToRejected(uri, edit+" "))

	// A materially different edit is not.
	assert.False(t, tr.IsSimilarToRejected(uri, "return nil"))

	// Rejections are scoped per document.
	assert.False(t, tr.IsSimilarToRejected("file:///b.go", edit))

	tr.ClearDocument(uri)
	assert.False(t, tr.IsSimilarToRejected(uri, edit))
}

func TestRejectedEditTrackerIgnoresWhitespaceOnly(t *testing.T) {
	tr := NewRejectedEditTracker()
	tr.RecordRejection("file:///a.go", "   \n\t")
	assert.False(t, tr.IsSimilarToRejected("file:///a.go", "   "))
}

func TestRejectedEditTrackerBounded(t *testing.T) {
	tr := NewRejectedEditTracker()
	uri := "file:///a.go"

	oldest := "the very first rejected edit content"
	tr.RecordRejection(uri, oldest)
	for i := 0; i < defaultMaxRejectedPerDocument; i++ {
		tr.RecordRejection(uri, strings.Repeat("x", 20)+string(rune('a'+i%26)))
	}

	assert.False(t, tr.IsSimilarToRejected(uri, oldest))
}
