// Package telemetry shapes the metric events emitted around suggestion
// sessions and aggregates the code-percentage counters.
package telemetry

import (
	"sync"
	"time"

	"codetab/session"
)

// MetricEvent is one emitted metric with its dimensions.
type MetricEvent struct {
	Name      string
	Result    string
	Data      map[string]any
	ErrorData map[string]any
}

// Emitter receives metric events. The host wires this to its telemetry
// transport; tests use Recorder.
type Emitter interface {
	EmitMetric(event MetricEvent)
}

// NopEmitter drops all events.
type NopEmitter struct{}

func (NopEmitter) EmitMetric(MetricEvent) {}

// Recorder captures events for assertions.
type Recorder struct {
	mu     sync.Mutex
	events []MetricEvent
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) EmitMetric(event MetricEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []MetricEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MetricEvent(nil), r.events...)
}

// Named returns recorded events with the given name.
func (r *Recorder) Named(name string) []MetricEvent {
	var out []MetricEvent
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// ServiceInvocation reports one successful backend call.
func ServiceInvocation(s *session.Session) MetricEvent {
	data := map[string]any{
		"serviceSessionId":     s.ServiceSessionID,
		"triggerType":          s.TriggerType,
		"automatedTriggerType": string(s.AutoTriggerType),
		"language":             s.Language,
		"suggestionCount":      len(s.Suggestions),
		"latencyMs":            s.TimeToFirstRecommendation.Milliseconds(),
		"lineNumber":           s.StartPosition.Line,
	}
	if s.ResponseContext != nil {
		data["requestId"] = s.ResponseContext.RequestID
	}
	if s.CustomizationARN != "" {
		data["customizationArn"] = s.CustomizationARN
	}
	return MetricEvent{Name: "serviceInvocation", Result: "Succeeded", Data: data}
}

// ServiceInvocationFailure reports one failed backend call.
func ServiceInvocationFailure(s *session.Session, reason string, err error) MetricEvent {
	return MetricEvent{
		Name:   "serviceInvocation",
		Result: "Failed",
		Data: map[string]any{
			"triggerType":          s.TriggerType,
			"automatedTriggerType": string(s.AutoTriggerType),
			"language":             s.Language,
			"reason":               reason,
		},
		ErrorData: map[string]any{
			"reason":  reason,
			"message": err.Error(),
		},
	}
}

// UserTriggerDecisionParams is the extra context reported with the final
// decision for a session.
type UserTriggerDecisionParams struct {
	Decision                string
	StreakLength            int
	AddedDiagnosticsCount   int
	RemovedDiagnosticsCount int
	// "IMPLICIT_REJECT" or "EXPLICIT_REJECT" when the decision is a
	// rejection of a seen suggestion, otherwise empty.
	RejectionReason string
}

// UserTriggerDecision reports the aggregated outcome of one session.
func UserTriggerDecision(s *session.Session, p UserTriggerDecisionParams) MetricEvent {
	data := map[string]any{
		"sessionId":                     s.ID,
		"serviceSessionId":              s.ServiceSessionID,
		"decision":                      p.Decision,
		"triggerType":                   s.TriggerType,
		"automatedTriggerType":          string(s.AutoTriggerType),
		"triggerCharacter":              s.TriggerCharacter,
		"language":                      s.Language,
		"suggestionCount":               len(s.Suggestions),
		"classifierResult":              s.ClassifierResult,
		"classifierThreshold":           s.ClassifierThreshold,
		"firstCompletionDisplayLatency": s.FirstCompletionDisplayLatency,
		"totalSessionDisplayTime":       s.TotalSessionDisplayTime,
		"typeaheadLength":               s.TypeaheadLength,
		"previousDecision":              string(s.PreviousTriggerDecision),
	}
	if p.StreakLength >= 0 {
		data["streakLength"] = p.StreakLength
	}
	if p.AddedDiagnosticsCount > 0 {
		data["addedDiagnosticsCount"] = p.AddedDiagnosticsCount
	}
	if p.RemovedDiagnosticsCount > 0 {
		data["removedDiagnosticsCount"] = p.RemovedDiagnosticsCount
	}
	if p.RejectionReason != "" {
		data["rejectionReason"] = p.RejectionReason
	}
	return MetricEvent{Name: "userTriggerDecision", Result: "Succeeded", Data: data}
}

// PerceivedLatency reports time from trigger to first visible suggestion.
func PerceivedLatency(s *session.Session, latencyMs int64) MetricEvent {
	return MetricEvent{
		Name:   "perceivedLatency",
		Result: "Succeeded",
		Data: map[string]any{
			"sessionId":   s.ID,
			"latencyMs":   latencyMs,
			"language":    s.Language,
			"triggerType": s.TriggerType,
		},
	}
}

// UserModification reports how much an accepted suggestion was edited after
// the dwell window.
func UserModification(sessionID, requestID, language string, percentageModified float64, unmodifiedCount int, acceptedLength int, since time.Duration) MetricEvent {
	return MetricEvent{
		Name:   "userModification",
		Result: "Succeeded",
		Data: map[string]any{
			"sessionId":                        sessionID,
			"requestId":                        requestID,
			"language":                         language,
			"percentageModified":               percentageModified,
			"unmodifiedAcceptedCharacterCount": unmodifiedCount,
			"acceptedCharacterCount":           acceptedLength,
			"dwellTimeMs":                      since.Milliseconds(),
		},
	}
}
