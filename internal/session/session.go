// Package session holds the in-memory editing sessions the server
// serves. Each session owns one project graph, its blueprint, and its
// blocking relationship list.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/commands"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
)

// Session is one live editing session. All access goes through methods
// holding the session lock; velocity passes read a snapshot taken under
// the lock so an engine never observes a half-applied edit.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time

	mu         sync.Mutex
	blueprint  *models.Blueprint
	nodes      *models.NodeSet
	blocking   []models.BlockingRelationship
	dispatcher *commands.Dispatcher
}

// Snapshot returns the session's current state for one evaluation pass.
// The relationship slice is copied; the node set and blueprint are
// shared read-only.
func (s *Session) Snapshot() (*models.NodeSet, *models.Blueprint, []models.BlockingRelationship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rels := append([]models.BlockingRelationship(nil), s.blocking...)
	return s.nodes, s.blueprint, rels
}

// Node looks up a node in the session's graph.
func (s *Session) Node(id string) (*models.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes.Get(id)
}

// UpdateBlocking sets or replaces the blocker for blockedNodeID through
// the command dispatcher. An empty blockerID clears the relationship.
func (s *Session) UpdateBlocking(blockedNodeID, blockerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatcher.Execute(commands.NewUpdateBlockingRelationship(&s.blocking, blockedNodeID, blockerID))
}

// UndoBlocking reverts the most recent blocking edit.
func (s *Session) UndoBlocking() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatcher.Undo()
}

// Relationships returns a copy of the current blocking list.
func (s *Session) Relationships() []models.BlockingRelationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.BlockingRelationship(nil), s.blocking...)
}

// Store is a concurrency-safe registry of sessions.
type Store struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session for a project and blueprint, assigning
// it a fresh UUID.
func (st *Store) Create(project *models.Project, bp *models.Blueprint) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		Name:       project.Name,
		CreatedAt:  time.Now(),
		blueprint:  bp,
		nodes:      project.NodeSet(),
		blocking:   append([]models.BlockingRelationship(nil), project.Blocking...),
		dispatcher: commands.NewDispatcher(st.logger),
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	st.logger.Info("session created", "session_id", s.ID, "nodes", s.nodes.Len())
	return s
}

// Get returns a session by ID.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
