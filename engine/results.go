package engine

import (
	"fmt"
	"strings"
	"time"

	"codetab/logger"
	"codetab/session"
	"codetab/telemetry"
	"codetab/text"
	"codetab/tracker"
	"codetab/types"
)

// OnSessionResult finishes a session from the editor's decision report: it
// records per-item outcomes, feeds the trackers, closes the session and
// emits the trigger-decision telemetry.
func (e *Engine) OnSessionResult(params types.SessionResultParams) error {
	defer logger.Trace("engine.OnSessionResult")()

	manager, s := e.findSession(params)
	if s == nil {
		logger.Error("ERROR: Session ID %s was not found", params.SessionID)
		return fmt.Errorf("session %s not found", params.SessionID)
	}
	if s.State() != session.StateActive {
		logger.Error("session %s is not active, ignoring results", params.SessionID)
		return fmt.Errorf("session %s is not active", params.SessionID)
	}

	acceptedID, accepted := acceptedItem(params.CompletionSessionResult)
	if accepted {
		e.recordAcceptance(s, acceptedID)
	} else if params.IsInlineEdit {
		for _, item := range s.SuggestionsAfterRightContextMerge {
			e.rejectedEdits.RecordRejection(s.Document.URI, item.InsertText)
		}
	}

	s.SetClientResultData(
		params.CompletionSessionResult,
		params.FirstCompletionDisplayLatency,
		params.TotalSessionDisplayTime,
		params.TypeaheadLength,
	)

	if params.FirstCompletionDisplayLatency > 0 {
		e.emitter.EmitMetric(telemetry.PerceivedLatency(s,
			s.TimeToFirstRecommendation.Milliseconds()+params.FirstCompletionDisplayLatency))
	}

	manager.CloseSession(s)

	streakLength := -1
	if e.cfg.EditsEnabled {
		streakLength = e.streaks.GetAndUpdateStreakLength(accepted)
	}

	decision := s.AggregatedUserTriggerDecision()
	if params.IsInlineEdit {
		// Edits are shown one at a time; the session decision is the
		// decision for the reported item, accepted or not.
		if itemID, ok := reportedEditItem(acceptedID, params.CompletionSessionResult); ok {
			decision = s.UserTriggerDecisionFor(itemID)
		}
	}

	e.emitUserTriggerDecision(s, telemetry.UserTriggerDecisionParams{
		Decision:                string(decision),
		StreakLength:            streakLength,
		AddedDiagnosticsCount:   len(params.AddedDiagnostics),
		RemovedDiagnosticsCount: len(params.RemovedDiagnostics),
		RejectionReason:         rejectionReason(s, decision, params),
	})
	return nil
}

// findSession resolves the reported session id, preferring the stream the
// report claims it belongs to but falling back to the other.
func (e *Engine) findSession(params types.SessionResultParams) (*session.Manager, *session.Session) {
	kinds := []session.Kind{session.KindCompletions, session.KindEdits}
	if params.IsInlineEdit {
		kinds[0], kinds[1] = kinds[1], kinds[0]
	}
	for _, kind := range kinds {
		manager := e.sessions.Get(kind)
		if s := manager.GetSessionByID(params.SessionID); s != nil {
			return manager, s
		}
	}
	return nil, nil
}

// reportedEditItem picks the item an edit report is about: the accepted one,
// or the single shown item when nothing was accepted.
func reportedEditItem(acceptedID string, result map[string]types.CompletionState) (string, bool) {
	if acceptedID != "" {
		return acceptedID, true
	}
	if len(result) == 1 {
		for itemID := range result {
			return itemID, true
		}
	}
	return "", false
}

func acceptedItem(result map[string]types.CompletionState) (string, bool) {
	for itemID, states := range result {
		if states.Accepted {
			return itemID, true
		}
	}
	return "", false
}

// recordAcceptance feeds the acceptance into the code-percentage counters
// and queues the accepted range for later modification measurement.
func (e *Engine) recordAcceptance(s *session.Session, acceptedID string) {
	var item *types.InlineCompletionItem
	for i := range s.SuggestionsAfterRightContextMerge {
		if s.SuggestionsAfterRightContextMerge[i].ItemID == acceptedID {
			item = &s.SuggestionsAfterRightContextMerge[i]
			break
		}
	}
	if item == nil {
		return
	}

	entry := tracker.AcceptedSuggestionEntry{
		FileURI:          s.Document.URI,
		Time:             time.Now(),
		StartPosition:    s.StartPosition,
		CustomizationARN: s.CustomizationARN,
		CompletionType:   string(s.PredictionType),
		TriggerType:      s.TriggerType,
		Language:         s.Language,
		SessionID:        s.ID,
	}
	if s.ResponseContext != nil {
		entry.RequestID = s.ResponseContext.RequestID
	}

	if item.IsInlineEdit {
		// Edit suggestions are diffs; the accepted code is the added side,
		// net of what the edit removed.
		added, deleted := text.AddedAndDeletedLines(item.InsertText)
		addedText := strings.Join(added, "\n")
		addedChars, _ := text.CharacterDifferences(strings.Join(deleted, "\n"), addedText)
		e.codePct.CountAcceptedCharacters(s.Language, addedChars)
		entry.OriginalString = addedText
	} else {
		e.codePct.CountAcceptedCharacters(s.Language, len(item.InsertText))
		entry.OriginalString = item.InsertText
	}

	startOffset := s.Document.OffsetAt(s.StartPosition)
	entry.EndPosition = s.Document.PositionAt(startOffset + len(entry.OriginalString))
	e.codeDiff.Enqueue(entry)
}

// rejectionReason classifies a rejection as implicit (the user typed on) or
// explicit (dismissed), but only when the suggestion was actually seen.
func rejectionReason(s *session.Session, decision session.UserTriggerDecision, params types.SessionResultParams) string {
	if decision != session.TriggerDecisionReject {
		return ""
	}
	seen := false
	for _, states := range params.CompletionSessionResult {
		if states.Seen {
			seen = true
			break
		}
	}
	if !seen {
		return ""
	}
	if params.Reason == "IMPLICIT_REJECT" {
		return "IMPLICIT_REJECT"
	}
	return "EXPLICIT_REJECT"
}

// emitUserTriggerDecision emits the final decision for a session exactly once.
func (e *Engine) emitUserTriggerDecision(s *session.Session, p telemetry.UserTriggerDecisionParams) {
	if s.ReportedUserDecision {
		return
	}
	s.ReportedUserDecision = true
	e.emitter.EmitMetric(telemetry.UserTriggerDecision(s, p))
}
