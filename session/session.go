// Package session implements the per-invocation completion session state
// machine and the registry that owns sessions per prediction kind.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"codetab/document"
	"codetab/logger"
	"codetab/trigger"
	"codetab/types"
)

// State is the session lifecycle state. Transitions are monotonic:
// REQUESTING -> ACTIVE -> CLOSED | DISCARD; terminal states never re-enter.
type State string

const (
	StateRequesting State = "REQUESTING"
	StateActive     State = "ACTIVE"
	StateClosed     State = "CLOSED"
	StateDiscard    State = "DISCARD"
)

// UserDecision is the per-suggestion outcome recorded on a session.
type UserDecision string

const (
	DecisionEmpty   UserDecision = "Empty"
	DecisionFilter  UserDecision = "Filter"
	DecisionDiscard UserDecision = "Discard"
	DecisionAccept  UserDecision = "Accept"
	DecisionIgnore  UserDecision = "Ignore"
	DecisionReject  UserDecision = "Reject"
	DecisionUnseen  UserDecision = "Unseen"
)

// UserTriggerDecision is the session-level aggregate fed to telemetry and to
// the next classifier call. Empty string means "not decidable yet".
type UserTriggerDecision string

const (
	TriggerDecisionAccept  UserTriggerDecision = "Accept"
	TriggerDecisionReject  UserTriggerDecision = "Reject"
	TriggerDecisionEmpty   UserTriggerDecision = "Empty"
	TriggerDecisionDiscard UserTriggerDecision = "Discard"
)

// TriggerType values for Session.TriggerType.
const (
	TriggerTypeAuto     = "AutoTrigger"
	TriggerTypeOnDemand = "OnDemand"
)

// Data is everything known about an invocation at session-creation time.
type Data struct {
	Document            *document.Document
	StartPosition       types.Position
	TriggerType         string
	AutoTriggerType     trigger.AutomatedTriggerType
	TriggerCharacter    string
	ClassifierResult    float64
	ClassifierThreshold float64
	Language            string
	RequestContext      types.GenerateSuggestionsRequest
	CustomizationARN    string
	StartTime           time.Time
}

// Session is one inline-completion request/response/decision lifecycle.
// Mutating methods are safe for concurrent use; the plain fields are written
// only by the handler that owns the in-flight request.
type Session struct {
	ID            string
	Document      *document.Document
	StartTime     time.Time
	StartPosition types.Position

	TriggerType         string
	AutoTriggerType     trigger.AutomatedTriggerType
	TriggerCharacter    string
	ClassifierResult    float64
	ClassifierThreshold float64
	Language            string
	RequestContext      types.GenerateSuggestionsRequest
	CustomizationARN    string

	// Set when a newer invocation arrives while this one is still
	// REQUESTING; the late response discards the session instead of
	// activating it.
	DiscardInflightSessionOnNewInvocation bool

	ServiceSessionID string
	ResponseContext  *types.ResponseContext
	PredictionType   types.SuggestionType

	Suggestions                       []types.Suggestion
	SuggestionsAfterRightContextMerge []types.InlineCompletionItem
	SuggestionImportCount             int
	IncludeImportsWithSuggestions     bool

	TimeToFirstRecommendation time.Duration

	CompletionSessionResult       map[string]types.CompletionState
	FirstCompletionDisplayLatency int64
	TotalSessionDisplayTime       int64
	TypeaheadLength               int
	AcceptedSuggestionID          string

	PreviousTriggerDecision     UserTriggerDecision
	PreviousTriggerDecisionTime time.Time

	// One-shot latch guarding duplicate trigger-decision telemetry.
	ReportedUserDecision bool

	mu               sync.Mutex
	state            State
	closeTime        time.Time
	suggestionStates map[string]UserDecision
}

// NewSession builds a session in REQUESTING state.
func NewSession(data Data) *Session {
	start := data.StartTime
	if start.IsZero() {
		start = time.Now()
	}
	return &Session{
		ID:                  uuid.NewString(),
		Document:            data.Document,
		StartTime:           start,
		StartPosition:       data.StartPosition,
		TriggerType:         data.TriggerType,
		AutoTriggerType:     data.AutoTriggerType,
		TriggerCharacter:    data.TriggerCharacter,
		ClassifierResult:    data.ClassifierResult,
		ClassifierThreshold: data.ClassifierThreshold,
		Language:            data.Language,
		RequestContext:      data.RequestContext,
		CustomizationARN:    data.CustomizationARN,
		state:               StateRequesting,
		suggestionStates:    make(map[string]UserDecision),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CloseTime returns when the session reached a terminal state.
func (s *Session) CloseTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeTime
}

// Activate transitions REQUESTING -> ACTIVE. Activating a terminal session
// is an invariant violation and is logged, not silently absorbed.
func (s *Session) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed || s.state == StateDiscard {
		logger.Error("session %s: activate called in terminal state %s", s.ID, s.state)
		return
	}
	s.state = StateActive
}

// Close transitions to CLOSED. Suggestions with no recorded client result
// default to Discard: the session does not wait for the result report, and
// the trigger decision is derived from server-known states only.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed || s.state == StateDiscard {
		return
	}
	if s.CompletionSessionResult == nil {
		for _, suggestion := range s.Suggestions {
			if _, ok := s.suggestionStates[suggestion.ItemID]; !ok {
				s.suggestionStates[suggestion.ItemID] = DecisionDiscard
			}
		}
	}
	s.closeTime = time.Now()
	s.state = StateClosed
}

// Discard marks the session superseded before any user decision. Every
// suggestion is forced to Discard. Idempotent once terminal.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDiscard {
		return
	}
	for _, suggestion := range s.Suggestions {
		s.suggestionStates[suggestion.ItemID] = DecisionDiscard
	}
	s.closeTime = time.Now()
	s.state = StateDiscard
}

// SetSuggestionState records the outcome of one item.
func (s *Session) SetSuggestionState(itemID string, decision UserDecision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestionStates[itemID] = decision
}

// SuggestionState returns the recorded outcome of one item, if any.
func (s *Session) SuggestionState(itemID string) (UserDecision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	decision, ok := s.suggestionStates[itemID]
	return decision, ok
}

// SetTimeToFirstRecommendation stamps the first-response latency.
func (s *Session) SetTimeToFirstRecommendation() {
	s.TimeToFirstRecommendation = time.Since(s.StartTime)
}

// SetClientResultData records the client-reported per-item states and the
// display timing metrics. Called at most once per session before the trigger
// decision telemetry fires; repeated calls on COMPLETION sessions and calls
// on terminal sessions are ignored.
func (s *Session) SetClientResultData(
	result map[string]types.CompletionState,
	firstCompletionDisplayLatency int64,
	totalSessionDisplayTime int64,
	typeaheadLength int,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed || s.state == StateDiscard {
		return
	}
	if s.CompletionSessionResult != nil && s.PredictionType == types.SuggestionTypeCompletion {
		return
	}

	s.CompletionSessionResult = result

	hasAccepted := false
	for itemID, states := range result {
		if states.Accepted {
			s.AcceptedSuggestionID = itemID
			hasAccepted = true
		}
	}

	valid := make(map[string]bool, len(s.Suggestions))
	for _, suggestion := range s.Suggestions {
		valid[suggestion.ItemID] = true
	}

	for itemID, states := range result {
		// Ignore item ids that were never recorded for this session.
		if !valid[itemID] {
			continue
		}
		switch {
		case states.Discarded:
			s.suggestionStates[itemID] = DecisionDiscard
		case !states.Seen:
			s.suggestionStates[itemID] = DecisionUnseen
		case states.Accepted:
			s.suggestionStates[itemID] = DecisionAccept
		case hasAccepted && s.AcceptedSuggestionID != itemID:
			// Seen, but the user accepted a different suggestion.
			s.suggestionStates[itemID] = DecisionIgnore
		default:
			s.suggestionStates[itemID] = DecisionReject
		}
	}

	s.FirstCompletionDisplayLatency = firstCompletionDisplayLatency
	s.TotalSessionDisplayTime = totalSessionDisplayTime
	s.TypeaheadLength = typeaheadLength
}

// AggregatedUserTriggerDecision summarizes the whole session: Accept wins
// over Reject, Reject over everything else; all-Empty is Empty; anything
// else is Discard. Returns "" until the session reaches a terminal state.
func (s *Session) AggregatedUserTriggerDecision() UserTriggerDecision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDiscard {
		return TriggerDecisionDiscard
	}
	if s.state != StateClosed {
		return ""
	}

	isEmpty := true
	sawReject := false
	for _, decision := range s.suggestionStates {
		switch decision {
		case DecisionAccept:
			return TriggerDecisionAccept
		case DecisionReject:
			sawReject = true
		}
		if decision != DecisionEmpty {
			isEmpty = false
		}
	}
	if sawReject {
		return TriggerDecisionReject
	}
	if isEmpty {
		return TriggerDecisionEmpty
	}
	return TriggerDecisionDiscard
}

// UserTriggerDecisionFor reports a single-item decision. EDIT sessions show
// suggestions one at a time, so the session-level decision is the decision
// for the item at the current pagination step.
func (s *Session) UserTriggerDecisionFor(itemID string) UserTriggerDecision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDiscard {
		return TriggerDecisionDiscard
	}
	if itemID == "" {
		return ""
	}
	switch s.suggestionStates[itemID] {
	case DecisionAccept:
		return TriggerDecisionAccept
	case DecisionReject:
		return TriggerDecisionReject
	case DecisionEmpty:
		return TriggerDecisionEmpty
	default:
		return TriggerDecisionDiscard
	}
}
