// Package types holds the shared domain types for the inline-completion
// engine: file context, suggestions, the backend request/response envelopes
// and the editor-facing parameter shapes.
package types

// Position is a zero-indexed line/character location, LSP conventions.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open [Start, End) span in a document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// TriggerKind says whether the editor asked for completions explicitly or
// detected a keystroke trigger.
type TriggerKind int

const (
	TriggerKindInvoked TriggerKind = iota
	TriggerKindAutomatic
)

// SuggestionType distinguishes plain completions from edit predictions,
// whose content is a unified diff rather than inserted text.
type SuggestionType string

const (
	SuggestionTypeCompletion SuggestionType = "COMPLETION"
	SuggestionTypeEdit       SuggestionType = "EDIT"
)

// ProgrammingLanguage wraps the normalized language name sent to the backend.
type ProgrammingLanguage struct {
	LanguageName string `json:"languageName"`
}

// FileContext is the text around the invocation position.
type FileContext struct {
	FileURI             string              `json:"fileUri"`
	Filename            string              `json:"filename"`
	ProgrammingLanguage ProgrammingLanguage `json:"programmingLanguage"`
	LeftFileContent     string              `json:"leftFileContent"`
	RightFileContent    string              `json:"rightFileContent"`
}

// ReferenceSpan is a character span into a suggestion's content.
type ReferenceSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Reference is licensing attribution attached to a suggestion.
type Reference struct {
	LicenseName               string         `json:"licenseName,omitempty"`
	Repository                string         `json:"repository,omitempty"`
	URL                       string         `json:"url,omitempty"`
	RecommendationContentSpan *ReferenceSpan `json:"recommendationContentSpan,omitempty"`
}

// Import is a missing-import recommendation accompanying a suggestion.
type Import struct {
	Statement string `json:"statement"`
}

// Suggestion is one candidate completion returned by the backend.
// InsertText is populated after right-context merging and may differ from
// Content; for EDIT suggestions Content is a unified diff.
type Suggestion struct {
	ItemID                     string      `json:"itemId"`
	Content                    string      `json:"content"`
	InsertText                 string      `json:"insertText,omitempty"`
	References                 []Reference `json:"references,omitempty"`
	MostRelevantMissingImports []Import    `json:"mostRelevantMissingImports,omitempty"`
}

// SupplementalContextItem is extra context shipped with a request.
type SupplementalContextItem struct {
	Content  string `json:"content"`
	FilePath string `json:"filePath"`
	Type     string `json:"type,omitempty"`
}

// GenerateSuggestionsRequest is the backend suggestion call payload.
type GenerateSuggestionsRequest struct {
	FileContext          FileContext               `json:"fileContext"`
	MaxResults           int                       `json:"maxResults"`
	NextToken            string                    `json:"nextToken,omitempty"`
	SupplementalContexts []SupplementalContextItem `json:"supplementalContexts,omitempty"`
	PredictionTypes      []string                  `json:"predictionTypes,omitempty"`
	WorkspaceID          string                    `json:"workspaceId,omitempty"`
}

// ResponseContext carries backend correlation metadata. A non-empty
// NextToken means more pages are available for the same session.
type ResponseContext struct {
	RequestID        string `json:"requestId"`
	ServiceSessionID string `json:"sessionId"`
	NextToken        string `json:"nextToken,omitempty"`
}

// GenerateSuggestionsResponse is one page of backend suggestions.
type GenerateSuggestionsResponse struct {
	Suggestions     []Suggestion    `json:"suggestions"`
	ResponseContext ResponseContext `json:"responseContext"`
	SuggestionType  SuggestionType  `json:"suggestionType"`
}

// ContentChange is a single document edit reported by the editor.
type ContentChange struct {
	Text string `json:"text"`
}

// DocumentChangeParams carries the edits that preceded an automatic trigger,
// used to infer the just-typed character.
type DocumentChangeParams struct {
	ContentChanges []ContentChange `json:"contentChanges"`
}

// SelectedCompletionInfo describes the editor's own completion popup state.
type SelectedCompletionInfo struct {
	Text  string `json:"text"`
	Range *Range `json:"range,omitempty"`
}

// InlineCompletionContext is the trigger metadata on a completion request.
type InlineCompletionContext struct {
	TriggerKind            TriggerKind             `json:"triggerKind"`
	SelectedCompletionInfo *SelectedCompletionInfo `json:"selectedCompletionInfo,omitempty"`
}

// TextDocumentIdentifier names a document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// InlineCompletionParams is the editor-facing completion request.
type InlineCompletionParams struct {
	TextDocument         TextDocumentIdentifier  `json:"textDocument"`
	Position             Position                `json:"position"`
	Context              InlineCompletionContext `json:"context"`
	PartialResultToken   string                  `json:"partialResultToken,omitempty"`
	DocumentChangeParams *DocumentChangeParams   `json:"documentChangeParams,omitempty"`
	FileContextOverride  *FileContext            `json:"fileContextOverride,omitempty"`
}

// InlineCompletionItem is one display-ready suggestion returned to the editor.
type InlineCompletionItem struct {
	ItemID                     string      `json:"itemId"`
	InsertText                 string      `json:"insertText"`
	Range                      *Range      `json:"range,omitempty"`
	References                 []Reference `json:"references,omitempty"`
	MostRelevantMissingImports []Import    `json:"mostRelevantMissingImports,omitempty"`
	IsInlineEdit               bool        `json:"isInlineEdit,omitempty"`
}

// InlineCompletionList is the editor-facing completion response. The empty
// sentinel is {Items: nil, SessionID: ""}.
type InlineCompletionList struct {
	SessionID          string                 `json:"sessionId"`
	Items              []InlineCompletionItem `json:"items"`
	PartialResultToken string                 `json:"partialResultToken,omitempty"`
}

// CompletionState is the client-reported final state of one shown item.
type CompletionState struct {
	Seen      bool `json:"seen"`
	Accepted  bool `json:"accepted"`
	Discarded bool `json:"discarded"`
}

// Diagnostic is an editor diagnostic reported alongside session results.
type Diagnostic struct {
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
	Range    Range  `json:"range"`
}

// SessionResultParams is the editor's final report of what the user did
// with the suggestions shown for a session.
type SessionResultParams struct {
	SessionID                     string                     `json:"sessionId"`
	CompletionSessionResult       map[string]CompletionState `json:"completionSessionResult"`
	FirstCompletionDisplayLatency int64                      `json:"firstCompletionDisplayLatency,omitempty"`
	TotalSessionDisplayTime       int64                      `json:"totalSessionDisplayTime,omitempty"`
	TypeaheadLength               int                        `json:"typeaheadLength,omitempty"`
	IsInlineEdit                  bool                       `json:"isInlineEdit,omitempty"`
	AddedDiagnostics              []Diagnostic               `json:"addedDiagnostics,omitempty"`
	RemovedDiagnostics            []Diagnostic               `json:"removedDiagnostics,omitempty"`
	// Reason disambiguates implicit from explicit rejection; either
	// "IMPLICIT_REJECT" or empty.
	Reason string `json:"reason,omitempty"`
}
