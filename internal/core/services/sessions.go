package services

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

// Session cache configuration.
const (
	// DefaultSessionCapacity bounds the number of concurrent chat sessions.
	// The least-recently-touched session is evicted beyond this; the next
	// query for an evicted project silently re-seeds a fresh session.
	DefaultSessionCapacity = 100

	// DefaultMaxSessionTurns bounds one session's history; the oldest
	// exchanges after the seed pair are dropped beyond this many turns.
	DefaultMaxSessionTurns = 50
)

// Session preamble: a fixed exchange pair that establishes assistant framing
// for every new project conversation.
const (
	sessionSeedUser  = "Hello, I need help understanding my codebase and the project as a whole."
	sessionSeedModel = "I'm ready to help you understand your codebase. What would you like to know?"
)

// Session is one project's conversation history. It is ephemeral: it lives
// only in the session cache and is lost on eviction, explicit clear, or
// process restart.
//
// All access goes through Begin/Commit/Abort, which hold the session lock
// for the full exchange so concurrent queries for the same project cannot
// interleave their history writes.
type Session struct {
	mu       sync.Mutex
	history  []domain.ChatMessage
	maxTurns int
	pending  string
}

func newSession(maxTurns int) *Session {
	return &Session{
		history: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: sessionSeedUser},
			{Role: domain.RoleModel, Content: sessionSeedModel},
		},
		maxTurns: maxTurns,
	}
}

// Begin locks the session for one exchange and returns the message list to
// send: the history so far plus the new user turn. The caller must follow
// with exactly one Commit or Abort.
func (s *Session) Begin(userContent string) []domain.ChatMessage {
	s.mu.Lock()
	s.pending = userContent

	messages := make([]domain.ChatMessage, len(s.history), len(s.history)+1)
	copy(messages, s.history)
	return append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: userContent})
}

// Commit appends the completed exchange to the history, trims it to the turn
// bound, and releases the session.
func (s *Session) Commit(modelContent string) {
	s.history = append(s.history,
		domain.ChatMessage{Role: domain.RoleUser, Content: s.pending},
		domain.ChatMessage{Role: domain.RoleModel, Content: modelContent},
	)

	// Keep the seed pair, drop the oldest exchanges beyond the bound.
	if bound := 2 + s.maxTurns*2; len(s.history) > bound {
		excess := len(s.history) - bound
		s.history = append(s.history[:2], s.history[2+excess:]...)
	}

	s.pending = ""
	s.mu.Unlock()
}

// Abort releases the session without recording the exchange. Used when the
// generation stream fails: a failed answer leaves no trace in history.
func (s *Session) Abort() {
	s.pending = ""
	s.mu.Unlock()
}

// Turns returns the number of completed exchanges beyond the seed pair.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (len(s.history) - 2) / 2
}

// SessionCache is a bounded, synchronized cache of chat sessions keyed by
// project ID. It is an injected dependency of the chat orchestrator, not
// ambient state. Lookups touch recency; inserting beyond capacity evicts
// the least-recently-used session.
type SessionCache struct {
	mu       sync.Mutex
	cache    *lru.Cache[string, *Session]
	maxTurns int
}

// NewSessionCache creates a session cache. Non-positive arguments fall back
// to the defaults.
func NewSessionCache(capacity, maxTurns int) *SessionCache {
	if capacity <= 0 {
		capacity = DefaultSessionCapacity
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxSessionTurns
	}
	cache, _ := lru.New[string, *Session](capacity)
	return &SessionCache{
		cache:    cache,
		maxTurns: maxTurns,
	}
}

// GetOrCreate returns the project's session, creating and seeding one when
// absent. Either way the session becomes the most recently used entry.
func (c *SessionCache) GetOrCreate(projectID string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if session, ok := c.cache.Get(projectID); ok {
		return session
	}
	session := newSession(c.maxTurns)
	c.cache.Add(projectID, session)
	return session
}

// Get returns the project's session without creating one.
func (c *SessionCache) Get(projectID string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Get(projectID)
}

// Clear removes the project's session and reports whether one existed.
func (c *SessionCache) Clear(projectID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Remove(projectID)
}

// Len returns the number of live sessions.
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
