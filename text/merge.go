// Package text holds the string-level helpers shared by the completion
// engine: right-context overlap merging and diff accounting.
package text

import (
	"strings"

	"codetab/types"
)

// Right context beyond this many characters cannot overlap a suggestion and
// is not scanned.
const rightContextScanLimit = 5000

// PrefixSuffixOverlap returns the longest suffix of left that is also a
// prefix of right.
func PrefixSuffixOverlap(left, right string) string {
	max := len(left)
	if len(right) < max {
		max = len(right)
	}
	for i := max; i > 0; i-- {
		if left[len(left)-i:] == right[:i] {
			return left[len(left)-i:]
		}
	}
	return ""
}

// TruncateOverlapWithRightContext trims the tail of a suggestion that merely
// repeats what is already right of the cursor. Returns "" when the remainder
// is whitespace only; the caller filters such items out.
func TruncateOverlapWithRightContext(rightFileContent, suggestion string) string {
	right := strings.ReplaceAll(rightFileContent, "\r\n", "\n")
	if len(right) > rightContextScanLimit {
		right = right[:rightContextScanLimit]
	}
	// Leading spaces right of the cursor do not block a merge; a leading
	// newline is kept since the overlap must be on the same line.
	trimmed := strings.TrimLeft(right, " \t")

	overlap := PrefixSuffixOverlap(suggestion, trimmed)
	merged := suggestion[:len(suggestion)-len(overlap)]
	if strings.TrimSpace(merged) == "" {
		return ""
	}
	return merged
}

// TrimReferenceSpans clips reference spans to the kept portion of a merged
// suggestion and drops spans that fall entirely in the truncated tail.
func TrimReferenceSpans(refs []types.Reference, keptLength int) []types.Reference {
	if len(refs) == 0 {
		return refs
	}
	out := make([]types.Reference, 0, len(refs))
	for _, ref := range refs {
		span := ref.RecommendationContentSpan
		if span == nil {
			out = append(out, ref)
			continue
		}
		if span.Start >= keptLength {
			continue
		}
		clipped := *span
		if clipped.End > keptLength {
			clipped.End = keptLength
		}
		ref.RecommendationContentSpan = &clipped
		out = append(out, ref)
	}
	return out
}
