// Package engine ties the pieces together: it owns the request handlers for
// inline completions and edit predictions and the session-result handler
// that finishes each session's lifecycle.
package engine

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"codetab/document"
	"codetab/logger"
	"codetab/service"
	"codetab/session"
	"codetab/telemetry"
	"codetab/text"
	"codetab/tracker"
	"codetab/trigger"
	"codetab/types"
)

// emptyResult is returned whenever no suggestion should reach the editor;
// the editor treats a blank session id as "nothing to show".
var emptyResult = types.InlineCompletionList{}

// Engine serves inline completion requests against a suggestion backend and
// tracks what happens to every suggestion it hands out.
type Engine struct {
	cfg       Config
	svc       service.SuggestionService
	workspace document.Workspace
	emitter   telemetry.Emitter

	sessions      *session.Registry
	streaks       *tracker.StreakTracker
	codeDiff      *tracker.CodeDiffTracker[tracker.AcceptedSuggestionEntry]
	codePct       *telemetry.CodePercentageTracker
	cursors       *tracker.CursorTracker
	rejectedEdits *tracker.RejectedEditTracker

	// Admission guard: a request arriving while another is in flight is
	// answered with the empty result, never queued.
	inflight atomic.Bool
}

// New builds an engine with its full tracker set.
func New(cfg Config, svc service.SuggestionService, workspace document.Workspace, emitter telemetry.Emitter) *Engine {
	if cfg.OS == "" {
		cfg.OS = trigger.NormalizeOSName()
	}
	if emitter == nil {
		emitter = telemetry.NopEmitter{}
	}
	e := &Engine{
		cfg:           cfg,
		svc:           svc,
		workspace:     workspace,
		emitter:       emitter,
		sessions:      session.NewRegistry(),
		streaks:       tracker.NewStreakTracker(),
		codePct:       telemetry.NewCodePercentageTracker(emitter, 0),
		cursors:       tracker.NewCursorTracker(0),
		rejectedEdits: tracker.NewRejectedEditTracker(),
	}
	e.codeDiff = tracker.NewCodeDiffTracker(workspace, e.recordModification, tracker.CodeDiffTrackerOptions{})
	return e
}

// Sessions exposes the session registry, mainly for tests and host shutdown.
func (e *Engine) Sessions() *session.Registry {
	return e.sessions
}

// Shutdown flushes trackers and stops their background work.
func (e *Engine) Shutdown() {
	e.codeDiff.Shutdown()
	e.codePct.Shutdown()
	e.cursors.Stop()
}

func (e *Engine) recordModification(entry tracker.AcceptedSuggestionEntry, percentageModified float64, unmodifiedCount int) {
	e.emitter.EmitMetric(telemetry.UserModification(
		entry.SessionID,
		entry.RequestID,
		entry.Language,
		percentageModified,
		unmodifiedCount,
		len(entry.OriginalString),
		time.Since(entry.Time),
	))
}

// OnInlineCompletion handles one editor completion request.
func (e *Engine) OnInlineCompletion(ctx context.Context, params types.InlineCompletionParams) (types.InlineCompletionList, error) {
	defer logger.Trace("engine.OnInlineCompletion")()

	if !e.inflight.CompareAndSwap(false, true) {
		logger.Debug("skip concurrent inline completion")
		return emptyResult, nil
	}
	defer e.inflight.Store(false)

	if e.svc == nil {
		logger.Error("inline completion: suggestion backend not configured")
		return emptyResult, nil
	}

	manager := e.sessions.Get(session.KindCompletions)

	if params.PartialResultToken != "" {
		return e.nextPage(ctx, manager, params)
	}

	doc, err := e.workspace.GetTextDocument(params.TextDocument.URI)
	if err != nil {
		logger.Error("inline completion: %v", err)
		return emptyResult, nil
	}
	language, ok := document.SupportedLanguage(doc)
	if !ok {
		logger.Debug("inline completion: unsupported language %q", doc.LanguageID)
		return emptyResult, nil
	}

	e.cursors.TrackPosition(doc.URI, params.Position)

	fc, ok := e.buildFileContext(doc, language, params)
	if !ok {
		return emptyResult, nil
	}

	data := session.Data{
		Document:      doc,
		StartPosition: params.Position,
		TriggerType:   session.TriggerTypeOnDemand,
		Language:      language,
		StartTime:     time.Now(),
	}

	if params.Context.TriggerKind == types.TriggerKindAutomatic {
		data.TriggerType = session.TriggerTypeAuto
		triggerType, char, ok := e.classifyTrigger(fc, params)
		if !ok {
			return emptyResult, nil
		}
		data.AutoTriggerType = triggerType
		data.TriggerCharacter = char

		result := trigger.AutoTrigger(trigger.Params{
			FileContext:      fc,
			Char:             char,
			TriggerType:      string(triggerType),
			OS:               e.cfg.OS,
			PreviousDecision: e.recentDecision(manager),
			IDE:              e.cfg.IDE,
			LineNum:          params.Position.Line,
		})
		data.ClassifierResult = result.ClassifierResult
		data.ClassifierThreshold = result.ClassifierThreshold
		if triggerType == trigger.TriggerClassifier && !result.ShouldTrigger {
			logger.Debug("auto trigger declined: score=%f", result.ClassifierResult)
			return emptyResult, nil
		}
	}

	e.preCloseCurrentSession(manager)

	maxResults := maxResultsInvoked
	if params.Context.TriggerKind == types.TriggerKindAutomatic {
		maxResults = maxResultsAutomatic
	}
	data.RequestContext = types.GenerateSuggestionsRequest{
		FileContext: fc,
		MaxResults:  maxResults,
		WorkspaceID: e.cfg.WorkspaceID,
	}
	if e.cfg.EditsEnabled {
		data.RequestContext.PredictionTypes = []string{"COMPLETIONS"}
	}
	data.CustomizationARN = e.cfg.CustomizationARN

	s := manager.CreateSession(data)

	resp, err := e.svc.GenerateSuggestions(ctx, data.RequestContext)
	if err != nil {
		return e.handleSuggestionError(manager, s, err)
	}
	return e.processSuggestionResponse(manager, s, resp, true), nil
}

// OnEditPrediction handles one edit-prediction request. Edits have their own
// session stream; suggestions are unified diffs shown one at a time.
func (e *Engine) OnEditPrediction(ctx context.Context, params types.InlineCompletionParams) (types.InlineCompletionList, error) {
	defer logger.Trace("engine.OnEditPrediction")()

	if !e.cfg.EditsEnabled {
		return emptyResult, nil
	}
	if !e.inflight.CompareAndSwap(false, true) {
		logger.Debug("skip concurrent edit prediction")
		return emptyResult, nil
	}
	defer e.inflight.Store(false)

	if e.svc == nil {
		logger.Error("edit prediction: suggestion backend not configured")
		return emptyResult, nil
	}

	manager := e.sessions.Get(session.KindEdits)

	doc, err := e.workspace.GetTextDocument(params.TextDocument.URI)
	if err != nil {
		logger.Error("edit prediction: %v", err)
		return emptyResult, nil
	}
	language, ok := document.SupportedLanguage(doc)
	if !ok {
		return emptyResult, nil
	}
	fc, ok := e.buildFileContext(doc, language, params)
	if !ok {
		return emptyResult, nil
	}

	e.preCloseCurrentSession(manager)

	data := session.Data{
		Document:      doc,
		StartPosition: params.Position,
		TriggerType:   session.TriggerTypeAuto,
		Language:      language,
		StartTime:     time.Now(),
		RequestContext: types.GenerateSuggestionsRequest{
			FileContext:     fc,
			MaxResults:      maxResultsAutomatic,
			PredictionTypes: []string{"EDITS"},
			WorkspaceID:     e.cfg.WorkspaceID,
		},
		CustomizationARN: e.cfg.CustomizationARN,
	}
	s := manager.CreateSession(data)

	resp, err := e.svc.GenerateSuggestions(ctx, data.RequestContext)
	if err != nil {
		return e.handleSuggestionError(manager, s, err)
	}
	return e.processSuggestionResponse(manager, s, resp, true), nil
}

// nextPage continues an existing session with the backend's pagination token.
func (e *Engine) nextPage(ctx context.Context, manager *session.Manager, params types.InlineCompletionParams) (types.InlineCompletionList, error) {
	s := manager.CurrentSession()
	if s == nil || s.State() != session.StateActive ||
		s.ResponseContext == nil || s.ResponseContext.NextToken == "" ||
		s.ID != params.PartialResultToken {
		logger.Debug("pagination token %q does not match an active session", params.PartialResultToken)
		return emptyResult, nil
	}

	req := s.RequestContext
	req.NextToken = s.ResponseContext.NextToken
	resp, err := e.svc.GenerateSuggestions(ctx, req)
	if err != nil {
		return e.handleSuggestionError(manager, s, err)
	}
	return e.processSuggestionResponse(manager, s, resp, false), nil
}

// buildFileContext assembles the truncated left/right context around the
// invocation position. FileContextOverride substitutes host-provided context
// wholesale.
func (e *Engine) buildFileContext(doc *document.Document, language string, params types.InlineCompletionParams) (types.FileContext, bool) {
	if override := params.FileContextOverride; override != nil {
		fc := *override
		if fc.ProgrammingLanguage.LanguageName == "" {
			fc.ProgrammingLanguage = types.ProgrammingLanguage{LanguageName: language}
		}
		return truncateFileContext(fc)
	}

	offset := doc.OffsetAt(params.Position)
	full := doc.Text()
	fc := types.FileContext{
		FileURI:             doc.URI,
		Filename:            document.RelativeFilename(e.cfg.WorkspaceFolder, doc.URI),
		ProgrammingLanguage: types.ProgrammingLanguage{LanguageName: language},
		LeftFileContent:     full[:offset],
		RightFileContent:    full[offset:],
	}
	return truncateFileContext(fc)
}

func truncateFileContext(fc types.FileContext) (types.FileContext, bool) {
	if len(fc.FileURI) > fileURILimit {
		logger.Error("file uri exceeds %d characters, skipping request", fileURILimit)
		return fc, false
	}
	if len(fc.Filename) > filenameLimit {
		fc.Filename = fc.Filename[len(fc.Filename)-filenameLimit:]
	}
	fc.LeftFileContent = strings.ReplaceAll(fc.LeftFileContent, "\r\n", "\n")
	fc.RightFileContent = strings.ReplaceAll(fc.RightFileContent, "\r\n", "\n")
	if len(fc.LeftFileContent) > contextCharactersLimit {
		fc.LeftFileContent = fc.LeftFileContent[len(fc.LeftFileContent)-contextCharactersLimit:]
	}
	if len(fc.RightFileContent) > contextCharactersLimit {
		fc.RightFileContent = fc.RightFileContent[:contextCharactersLimit]
	}
	return fc, true
}

// classifyTrigger derives the auto-trigger type and the just-typed character
// from the reported document changes, falling back to file-context shape.
func (e *Engine) classifyTrigger(fc types.FileContext, params types.InlineCompletionParams) (trigger.AutomatedTriggerType, string, bool) {
	if params.DocumentChangeParams != nil && len(params.DocumentChangeParams.ContentChanges) > 0 {
		changes := params.DocumentChangeParams.ContentChanges
		triggerType, ok := trigger.AutoTriggerTypeFrom(changes)
		if !ok {
			return "", "", false
		}
		char := ""
		if len(changes) == 1 {
			char = changes[0].Text
		}
		return triggerType, char, true
	}

	// No change report: classify from the file context shape, taking the
	// last non-whitespace character as the trigger character.
	triggerType := trigger.TriggerType(fc)
	char := ""
	if trimmed := strings.TrimSpace(fc.LeftFileContent); trimmed != "" {
		char = trimmed[len(trimmed)-1:]
	}
	return triggerType, char, true
}

// recentDecision returns the latest session's aggregated decision when that
// session finished recently enough to still be predictive.
func (e *Engine) recentDecision(manager *session.Manager) string {
	s := manager.CurrentSession()
	if s == nil {
		return ""
	}
	decision := s.AggregatedUserTriggerDecision()
	if decision == "" {
		return ""
	}
	if time.Since(s.CloseTime()) > previousDecisionWindow {
		return ""
	}
	return string(decision)
}

// preCloseCurrentSession finishes off the predecessor before a new session
// starts: an ACTIVE one is discarded and reported, a REQUESTING one is
// flagged so its late response discards itself.
func (e *Engine) preCloseCurrentSession(manager *session.Manager) {
	current := manager.CurrentSession()
	if current == nil {
		return
	}
	switch current.State() {
	case session.StateRequesting:
		current.DiscardInflightSessionOnNewInvocation = true
	case session.StateActive:
		if e.cfg.skipPreClose() {
			return
		}
		manager.DiscardSession(current)
		e.emitUserTriggerDecision(current, telemetry.UserTriggerDecisionParams{
			Decision:     string(current.AggregatedUserTriggerDecision()),
			StreakLength: e.discardStreakLength(),
		})
	}
}

// discardStreakLength breaks the acceptance streak when a session ends
// without a user decision.
func (e *Engine) discardStreakLength() int {
	if !e.cfg.EditsEnabled {
		return -1
	}
	return e.streaks.GetAndUpdateStreakLength(false)
}

func (e *Engine) handleSuggestionError(manager *session.Manager, s *session.Session, err error) (types.InlineCompletionList, error) {
	reason := service.ReasonForError(err)
	logger.Error("generate suggestions failed: reason=%s: %v", reason, err)
	e.emitter.EmitMetric(telemetry.ServiceInvocationFailure(s, reason, err))
	manager.CloseSession(s)
	if service.IsConnectionExpired(err) {
		return emptyResult, err
	}
	return emptyResult, nil
}

// processSuggestionResponse records one backend response page on the session
// and turns it into editor-visible items. Invocation telemetry is recorded
// for every page regardless of outcome.
func (e *Engine) processSuggestionResponse(manager *session.Manager, s *session.Session, resp *types.GenerateSuggestionsResponse, isNewSession bool) types.InlineCompletionList {
	e.codePct.CountInvocation(s.Language)

	s.ResponseContext = &resp.ResponseContext
	if isNewSession {
		s.ServiceSessionID = resp.ResponseContext.ServiceSessionID
		s.PredictionType = resp.SuggestionType
		s.Suggestions = resp.Suggestions
		s.IncludeImportsWithSuggestions = e.cfg.IncludeImportsWithSuggestions
		s.SetTimeToFirstRecommendation()
	} else {
		s.Suggestions = append(s.Suggestions, resp.Suggestions...)
	}
	for _, suggestion := range resp.Suggestions {
		if len(suggestion.MostRelevantMissingImports) > 0 {
			s.SuggestionImportCount += len(suggestion.MostRelevantMissingImports)
		}
	}

	e.emitter.EmitMetric(telemetry.ServiceInvocation(s))

	if s.DiscardInflightSessionOnNewInvocation {
		logger.Debug("discarding superseded session %s", s.ID)
		manager.DiscardSession(s)
		e.emitUserTriggerDecision(s, telemetry.UserTriggerDecisionParams{
			Decision:     string(s.AggregatedUserTriggerDecision()),
			StreakLength: e.discardStreakLength(),
		})
		return emptyResult
	}

	if isNewSession {
		manager.ActivateSession(s)
	}
	if s.State() != session.StateActive {
		manager.DiscardSession(s)
		return emptyResult
	}

	items := e.mergeSuggestions(s, resp.Suggestions, resp.SuggestionType)
	s.SuggestionsAfterRightContextMerge = append(s.SuggestionsAfterRightContextMerge, items...)

	if len(s.SuggestionsAfterRightContextMerge) == 0 && e.partialToken(s) == "" {
		manager.CloseSession(s)
		e.emitUserTriggerDecision(s, telemetry.UserTriggerDecisionParams{
			Decision:     string(s.AggregatedUserTriggerDecision()),
			StreakLength: -1,
		})
		return emptyResult
	}

	return types.InlineCompletionList{
		SessionID:          s.ID,
		Items:              items,
		PartialResultToken: e.partialToken(s),
	}
}

// The session id doubles as the pagination token while more pages exist.
func (e *Engine) partialToken(s *session.Session) string {
	if s.ResponseContext != nil && s.ResponseContext.NextToken != "" {
		return s.ID
	}
	return ""
}

// mergeSuggestions filters empty and already-rejected suggestions and trims
// right-context overlap, recording the filtering decisions on the session.
func (e *Engine) mergeSuggestions(s *session.Session, suggestions []types.Suggestion, suggestionType types.SuggestionType) []types.InlineCompletionItem {
	var items []types.InlineCompletionItem
	for _, suggestion := range suggestions {
		if suggestion.Content == "" {
			s.SetSuggestionState(suggestion.ItemID, session.DecisionEmpty)
			continue
		}

		if suggestionType == types.SuggestionTypeEdit {
			if e.rejectedEdits.IsSimilarToRejected(s.Document.URI, suggestion.Content) {
				logger.Debug("suggestion %s filtered: similar to a rejected edit", suggestion.ItemID)
				s.SetSuggestionState(suggestion.ItemID, session.DecisionFilter)
				continue
			}
			items = append(items, types.InlineCompletionItem{
				ItemID:       suggestion.ItemID,
				InsertText:   suggestion.Content,
				IsInlineEdit: true,
			})
			continue
		}

		if len(suggestion.References) > 0 && !e.cfg.IncludeSuggestionsWithCodeReferences {
			logger.Debug("suggestion %s filtered: carries code references", suggestion.ItemID)
			s.SetSuggestionState(suggestion.ItemID, session.DecisionFilter)
			continue
		}

		merged := text.TruncateOverlapWithRightContext(s.RequestContext.FileContext.RightFileContent, suggestion.Content)
		if merged == "" {
			s.SetSuggestionState(suggestion.ItemID, session.DecisionDiscard)
			continue
		}
		item := types.InlineCompletionItem{
			ItemID:     suggestion.ItemID,
			InsertText: merged,
			References: text.TrimReferenceSpans(suggestion.References, len(merged)),
			Range: &types.Range{
				Start: s.StartPosition,
				End:   s.StartPosition,
			},
		}
		if e.cfg.IncludeImportsWithSuggestions {
			item.MostRelevantMissingImports = suggestion.MostRelevantMissingImports
		}
		items = append(items, item)
	}
	return items
}
