package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"codetab/types"
)

func sessionWithSuggestions(ids ...string) *Session {
	s := NewSession(Data{TriggerType: TriggerTypeAuto, Language: "go"})
	for _, id := range ids {
		s.Suggestions = append(s.Suggestions, types.Suggestion{ItemID: id, Content: "x"})
	}
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := sessionWithSuggestions("a")
	require.Equal(t, StateRequesting, s.State())

	s.Activate()
	assert.Equal(t, StateActive, s.State())

	s.Close()
	assert.Equal(t, StateClosed, s.State())
	assert.False(t, s.CloseTime().IsZero())

	// Terminal states stick.
	s.Activate()
	assert.Equal(t, StateClosed, s.State())
	s.Discard()
	assert.Equal(t, StateDiscard, s.State())
	s.Activate()
	assert.Equal(t, StateDiscard, s.State())
}

func TestSessionCloseDefaultsUnresolvedToDiscard(t *testing.T) {
	s := sessionWithSuggestions("a", "b")
	s.Activate()
	s.SetSuggestionState("a", DecisionFilter)
	s.Close()

	got, ok := s.SuggestionState("a")
	require.True(t, ok)
	assert.Equal(t, DecisionFilter, got)

	got, ok = s.SuggestionState("b")
	require.True(t, ok)
	assert.Equal(t, DecisionDiscard, got)
}

func TestSessionDiscardForcesAllSuggestions(t *testing.T) {
	s := sessionWithSuggestions("a", "b")
	s.SetSuggestionState("a", DecisionAccept)
	s.Discard()

	for _, id := range []string{"a", "b"} {
		got, ok := s.SuggestionState(id)
		require.True(t, ok)
		assert.Equal(t, DecisionDiscard, got, id)
	}
	assert.Equal(t, TriggerDecisionDiscard, s.AggregatedUserTriggerDecision())
}

func TestSetClientResultData(t *testing.T) {
	s := sessionWithSuggestions("a", "b", "c", "d")
	s.Activate()
	s.SetClientResultData(map[string]types.CompletionState{
		"a":       {Seen: true, Accepted: true},
		"b":       {Seen: true},
		"c":       {Seen: false},
		"d":       {Seen: true, Discarded: true},
		"unknown": {Seen: true, Accepted: true},
	}, 120, 4000, 3)

	assert.Equal(t, "a", s.AcceptedSuggestionID)

	cases := map[string]UserDecision{
		"a": DecisionAccept,
		"b": DecisionIgnore,
		"c": DecisionUnseen,
		"d": DecisionDiscard,
	}
	for id, want := range cases {
		got, ok := s.SuggestionState(id)
		require.True(t, ok, id)
		assert.Equal(t, want, got, id)
	}
	_, ok := s.SuggestionState("unknown")
	assert.False(t, ok)

	assert.Equal(t, int64(120), s.FirstCompletionDisplayLatency)
	assert.Equal(t, int64(4000), s.TotalSessionDisplayTime)
	assert.Equal(t, 3, s.TypeaheadLength)
}

func TestSetClientResultDataRejectWithoutAccept(t *testing.T) {
	s := sessionWithSuggestions("a")
	s.Activate()
	s.SetClientResultData(map[string]types.CompletionState{
		"a": {Seen: true},
	}, 0, 0, 0)

	got, _ := s.SuggestionState("a")
	assert.Equal(t, DecisionReject, got)
}

func TestSetClientResultDataIgnoredWhenTerminal(t *testing.T) {
	s := sessionWithSuggestions("a")
	s.Activate()
	s.Close()
	s.SetClientResultData(map[string]types.CompletionState{
		"a": {Seen: true, Accepted: true},
	}, 0, 0, 0)

	got, _ := s.SuggestionState("a")
	assert.Equal(t, DecisionDiscard, got)
}

func TestSetClientResultDataSecondReportIgnoredForCompletions(t *testing.T) {
	s := sessionWithSuggestions("a")
	s.PredictionType = types.SuggestionTypeCompletion
	s.Activate()
	s.SetClientResultData(map[string]types.CompletionState{"a": {Seen: true}}, 0, 0, 0)
	s.SetClientResultData(map[string]types.CompletionState{"a": {Seen: true, Accepted: true}}, 0, 0, 0)

	got, _ := s.SuggestionState("a")
	assert.Equal(t, DecisionReject, got)
}

func TestAggregatedUserTriggerDecision(t *testing.T) {
	cases := []struct {
		name   string
		states map[string]UserDecision
		want   UserTriggerDecision
	}{
		{"accept wins", map[string]UserDecision{"a": DecisionReject, "b": DecisionAccept}, TriggerDecisionAccept},
		{"reject over others", map[string]UserDecision{"a": DecisionReject, "b": DecisionIgnore}, TriggerDecisionReject},
		{"all empty", map[string]UserDecision{"a": DecisionEmpty, "b": DecisionEmpty}, TriggerDecisionEmpty},
		{"no suggestions", map[string]UserDecision{}, TriggerDecisionEmpty},
		{"otherwise discard", map[string]UserDecision{"a": DecisionUnseen, "b": DecisionFilter}, TriggerDecisionDiscard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession(Data{})
			for id, d := range tc.states {
				s.Suggestions = append(s.Suggestions, types.Suggestion{ItemID: id})
				s.SetSuggestionState(id, d)
			}
			assert.Equal(t, UserTriggerDecision(""), s.AggregatedUserTriggerDecision())
			s.Close()
			assert.Equal(t, tc.want, s.AggregatedUserTriggerDecision())
		})
	}
}

func TestUserTriggerDecisionFor(t *testing.T) {
	s := sessionWithSuggestions("a", "b")
	s.Activate()
	s.SetSuggestionState("a", DecisionAccept)
	s.SetSuggestionState("b", DecisionReject)
	s.Close()

	assert.Equal(t, TriggerDecisionAccept, s.UserTriggerDecisionFor("a"))
	assert.Equal(t, TriggerDecisionReject, s.UserTriggerDecisionFor("b"))
	assert.Equal(t, TriggerDecisionDiscard, s.UserTriggerDecisionFor("missing"))
	assert.Equal(t, UserTriggerDecision(""), s.UserTriggerDecisionFor(""))
}

// Terminal states are absorbing regardless of the order of transitions.
func TestSessionTerminalStatesAbsorbing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := sessionWithSuggestions("a")
		ops := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 20).Draw(t, "ops")

		terminal := State("")
		for _, op := range ops {
			switch op {
			case 0:
				s.Activate()
			case 1:
				s.Close()
			case 2:
				s.Discard()
			}
			state := s.State()
			if terminal == StateClosed || terminal == StateDiscard {
				// Close followed by Discard is the one legal terminal move.
				if !(terminal == StateClosed && state == StateDiscard) && state != terminal {
					t.Fatalf("terminal state %s mutated to %s", terminal, state)
				}
			}
			terminal = state
		}
	})
}

func TestManagerCurrentAndPrevious(t *testing.T) {
	m := NewManager()
	assert.Nil(t, m.CurrentSession())
	assert.Nil(t, m.PreviousSession())

	first := m.CreateSession(Data{Language: "go"})
	second := m.CreateSession(Data{Language: "go"})

	assert.Same(t, second, m.CurrentSession())
	assert.Same(t, first, m.PreviousSession())
	assert.Same(t, first, m.GetSessionByID(first.ID))
	assert.Same(t, second, m.GetSessionByID(second.ID))
	assert.Nil(t, m.GetSessionByID("nope"))
}

func TestManagerPreviousDecisionStamping(t *testing.T) {
	m := NewManager()

	first := m.CreateSession(Data{})
	first.Suggestions = append(first.Suggestions, types.Suggestion{ItemID: "a"})
	first.Activate()
	first.SetSuggestionState("a", DecisionAccept)
	m.CloseSession(first)

	second := m.CreateSession(Data{})
	assert.Equal(t, TriggerDecisionAccept, second.PreviousTriggerDecision)
	assert.Equal(t, first.CloseTime(), second.PreviousTriggerDecisionTime)
}

func TestManagerNoDecisionFromOpenPredecessor(t *testing.T) {
	m := NewManager()
	first := m.CreateSession(Data{})
	first.Activate()

	second := m.CreateSession(Data{})
	assert.Equal(t, UserTriggerDecision(""), second.PreviousTriggerDecision)
	assert.True(t, second.PreviousTriggerDecisionTime.IsZero())
	_ = first
}

func TestManagerHistoryBounded(t *testing.T) {
	m := NewManager()
	var ids []string
	for i := 0; i < maxHistorySize+3; i++ {
		ids = append(ids, m.CreateSession(Data{}).ID)
	}
	for _, id := range ids[:3] {
		assert.Nil(t, m.GetSessionByID(id))
	}
	for _, id := range ids[3:] {
		assert.NotNil(t, m.GetSessionByID(id))
	}
}

func TestManagerActivateOnlyCurrent(t *testing.T) {
	m := NewManager()
	stale := m.CreateSession(Data{})
	m.CreateSession(Data{})

	m.ActivateSession(stale)
	assert.Equal(t, StateRequesting, stale.State())
	assert.Nil(t, m.ActiveSession())

	m.ActivateSession(m.CurrentSession())
	assert.Same(t, m.CurrentSession(), m.ActiveSession())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	completions := r.Get(KindCompletions)
	edits := r.Get(KindEdits)
	assert.NotSame(t, completions, edits)
	assert.Same(t, completions, r.Get(KindCompletions))

	completions.CreateSession(Data{})
	r.Reset()
	assert.Nil(t, r.Get(KindCompletions).CurrentSession())
}
