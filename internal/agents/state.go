package agents

import (
	"sync"
	"time"
)

// Message is one chat message attached to a portfolio session.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentState is the per-portfolio session state shared by all agents.
// Access is serialized by the StateStore's per-portfolio lock.
type AgentState struct {
	PortfolioID    string         `json:"portfolio_id"`
	UserID         string         `json:"user_id"`
	CreatedAt      time.Time      `json:"created_at"`
	Messages       []Message      `json:"messages"`
	Context        map[string]any `json:"context"`
	Results        map[string]any `json:"results"`
	CompletedSteps []string       `json:"completed_steps"`
}

// AddMessage appends a chat message
func (s *AgentState) AddMessage(role, content string) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// SetResult stores a named result
func (s *AgentState) SetResult(key string, value any) {
	s.Results[key] = value
}

// GetResult returns a named result if present
func (s *AgentState) GetResult(key string) (any, bool) {
	v, ok := s.Results[key]
	return v, ok
}

// CompleteStep records a finished workflow step
func (s *AgentState) CompleteStep(step string) {
	s.CompletedSteps = append(s.CompletedSteps, step)
}

// StateStore holds session state per portfolio and serializes orchestrator
// operations on the same portfolio via per-portfolio locks. Operations on
// different portfolios proceed concurrently.
type StateStore struct {
	mu     sync.Mutex
	states map[string]*AgentState
	locks  map[string]*sync.Mutex
}

// NewStateStore creates an empty state store
func NewStateStore() *StateStore {
	return &StateStore{
		states: make(map[string]*AgentState),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Get returns the state for a portfolio, creating it on first use
func (s *StateStore) Get(portfolioID, userID string) *AgentState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[portfolioID]
	if !ok {
		state = &AgentState{
			PortfolioID: portfolioID,
			UserID:      userID,
			CreatedAt:   time.Now().UTC(),
			Context: map[string]any{
				"portfolio_id": portfolioID,
				"user_id":      userID,
				"created_at":   time.Now().UTC(),
			},
			Results: make(map[string]any),
		}
		s.states[portfolioID] = state
	}
	return state
}

// Lock acquires the per-portfolio lock and returns its release func
func (s *StateStore) Lock(portfolioID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[portfolioID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[portfolioID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
