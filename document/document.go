// Package document provides the workspace document accessor used by the
// engine: position/offset math over immutable text snapshots and an
// in-memory workspace keyed by URI.
package document

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"codetab/types"
)

// Document is an immutable snapshot of an open editor document.
type Document struct {
	URI        string
	LanguageID string
	Version    int

	text        string
	lineOffsets []int
}

// New builds a document snapshot. Line offsets are precomputed once since
// the text never changes.
func New(uri, languageID string, version int, text string) *Document {
	return &Document{
		URI:         uri,
		LanguageID:  languageID,
		Version:     version,
		text:        text,
		lineOffsets: computeLineOffsets(text),
	}
}

func computeLineOffsets(text string) []int {
	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// Text returns the full document content.
func (d *Document) Text() string {
	return d.text
}

// GetText returns the content of the given range, or the whole document when
// r is nil. Out-of-bounds positions are clamped.
func (d *Document) GetText(r *types.Range) string {
	if r == nil {
		return d.text
	}
	start := d.OffsetAt(r.Start)
	end := d.OffsetAt(r.End)
	if end < start {
		start, end = end, start
	}
	return d.text[start:end]
}

// OffsetAt converts a position into a byte offset, clamping to the document.
func (d *Document) OffsetAt(p types.Position) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(d.lineOffsets) {
		return len(d.text)
	}
	lineStart := d.lineOffsets[p.Line]
	lineEnd := len(d.text)
	if p.Line+1 < len(d.lineOffsets) {
		lineEnd = d.lineOffsets[p.Line+1]
	}
	offset := lineStart + p.Character
	if offset < lineStart {
		return lineStart
	}
	if offset > lineEnd {
		return lineEnd
	}
	return offset
}

// PositionAt converts a byte offset into a position, clamping to the document.
func (d *Document) PositionAt(offset int) types.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	// First line whose start is past the offset; the offset's line precedes it.
	line := sort.Search(len(d.lineOffsets), func(i int) bool {
		return d.lineOffsets[i] > offset
	}) - 1
	return types.Position{Line: line, Character: offset - d.lineOffsets[line]}
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.lineOffsets)
}

// Workspace resolves open documents by URI.
type Workspace interface {
	GetTextDocument(uri string) (*Document, error)
}

// MemoryWorkspace is a thread-safe in-memory Workspace. The host process
// feeds it from the editor's didOpen/didChange stream.
type MemoryWorkspace struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

func NewMemoryWorkspace() *MemoryWorkspace {
	return &MemoryWorkspace{docs: make(map[string]*Document)}
}

// Put stores or replaces a document snapshot.
func (w *MemoryWorkspace) Put(doc *Document) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs[doc.URI] = doc
}

// Remove drops a document, if present.
func (w *MemoryWorkspace) Remove(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, uri)
}

// GetTextDocument implements Workspace.
func (w *MemoryWorkspace) GetTextDocument(uri string) (*Document, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.docs[uri]
	if !ok {
		return nil, fmt.Errorf("document %q not found", uri)
	}
	return doc, nil
}

// RelativeFilename strips the workspace folder prefix from a URI, falling
// back to the URI's base name.
func RelativeFilename(workspaceFolder, uri string) string {
	if workspaceFolder != "" {
		prefix := strings.TrimSuffix(workspaceFolder, "/") + "/"
		if rel, ok := strings.CutPrefix(uri, prefix); ok {
			return rel
		}
	}
	if idx := strings.LastIndexByte(uri, '/'); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}
