package session

import (
	"sync"
)

// Kind separates session bookkeeping per prediction type; completions and
// edits each get their own manager so their decision streams do not mix.
type Kind string

const (
	KindCompletions Kind = "COMPLETIONS"
	KindEdits       Kind = "EDITS"
)

// History depth for previous-decision lookups and telemetry.
const maxHistorySize = 5

// Manager owns the current session and a bounded log of recent sessions.
type Manager struct {
	mu      sync.Mutex
	current *Session
	log     []*Session
}

func NewManager() *Manager {
	return &Manager{}
}

// CreateSession builds a new REQUESTING session, stamps it with the previous
// session's aggregated decision, and makes it current. The caller discards
// any still-active predecessor before calling.
func (m *Manager) CreateSession(data Data) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := NewSession(data)

	if prev := m.lastLogged(); prev != nil {
		if decision := prev.AggregatedUserTriggerDecision(); decision != "" {
			s.PreviousTriggerDecision = decision
			s.PreviousTriggerDecisionTime = prev.CloseTime()
		}
	}

	m.log = append(m.log, s)
	if len(m.log) > maxHistorySize {
		m.log = m.log[len(m.log)-maxHistorySize:]
	}
	m.current = s
	return s
}

func (m *Manager) lastLogged() *Session {
	if len(m.log) == 0 {
		return nil
	}
	return m.log[len(m.log)-1]
}

// CurrentSession returns the most recently created session, terminal or not.
func (m *Manager) CurrentSession() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// PreviousSession returns the session created before the current one.
func (m *Manager) PreviousSession() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.log) < 2 {
		return nil
	}
	return m.log[len(m.log)-2]
}

// ActiveSession returns the current session only while it is ACTIVE.
func (m *Manager) ActiveSession() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.State() == StateActive {
		return m.current
	}
	return nil
}

// GetSessionByID finds a session in the retained history.
func (m *Manager) GetSessionByID(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.log {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// CloseSession closes s. Closing a non-current session is allowed; result
// reports can arrive after a newer session started.
func (m *Manager) CloseSession(s *Session) {
	s.Close()
}

// DiscardSession discards s.
func (m *Manager) DiscardSession(s *Session) {
	s.Discard()
}

// ActivateSession activates s only if it is still the current session; a
// response for a superseded request must not resurrect it.
func (m *Manager) ActivateSession(s *Session) {
	m.mu.Lock()
	isCurrent := m.current == s
	m.mu.Unlock()
	if isCurrent {
		s.Activate()
	}
}

// Registry hands out one Manager per prediction kind. It replaces ambient
// global state so tests and hosts can scope session bookkeeping explicitly.
type Registry struct {
	mu       sync.Mutex
	managers map[Kind]*Manager
}

func NewRegistry() *Registry {
	return &Registry{managers: make(map[Kind]*Manager)}
}

// Get returns the manager for kind, creating it on first use.
func (r *Registry) Get(kind Kind) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.managers[kind]
	if !ok {
		m = NewManager()
		r.managers[kind] = m
	}
	return m
}

// Reset drops all managers and their session history.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers = make(map[Kind]*Manager)
}
