package text

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	sgdiff "github.com/sourcegraph/go-diff/diff"
)

// AddedAndDeletedLines extracts the inserted and removed lines from a
// unified diff. Proper diffs with file headers are parsed structurally;
// header-less hunks fall back to a line scan.
func AddedAndDeletedLines(unifiedDiff string) (added, deleted []string) {
	if fileDiffs, err := sgdiff.ParseMultiFileDiff([]byte(unifiedDiff)); err == nil && len(fileDiffs) > 0 {
		for _, fd := range fileDiffs {
			for _, hunk := range fd.Hunks {
				a, d := scanHunkBody(string(hunk.Body))
				added = append(added, a...)
				deleted = append(deleted, d...)
			}
		}
		return added, deleted
	}
	return scanDiffLines(unifiedDiff)
}

func scanHunkBody(body string) (added, deleted []string) {
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			added = append(added, line[1:])
		case strings.HasPrefix(line, "-"):
			deleted = append(deleted, line[1:])
		}
	}
	return added, deleted
}

func scanDiffLines(unifiedDiff string) (added, deleted []string) {
	for _, line := range strings.Split(strings.ReplaceAll(unifiedDiff, "\r\n", "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added = append(added, line[1:])
		case strings.HasPrefix(line, "-"):
			deleted = append(deleted, line[1:])
		}
	}
	return added, deleted
}

// CharacterDifferences counts characters inserted and deleted when oldText
// becomes newText.
func CharacterDifferences(oldText, newText string) (added, deleted int) {
	dmp := diffmatchpatch.New()
	for _, d := range dmp.DiffMain(oldText, newText, true) {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += len(d.Text)
		case diffmatchpatch.DiffDelete:
			deleted += len(d.Text)
		}
	}
	return added, deleted
}
