// Package session keeps the processed results of each logged-in user in memory.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown or expired sessions
var ErrNotFound = errors.New("session not found")

// Session is one user's working set
type Session struct {
	ID        string
	Username  string
	Results   []models.ProcessedInvoice
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is an in-memory session registry. Sessions idle for longer than the
// TTL are dropped on access and by Sweep.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewStore creates a new session store. A non-positive ttl never expires sessions.
func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Create starts an empty session for username
func (s *Store) Create(username string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Username:  username,
		Results:   []models.ProcessedInvoice{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = sess

	s.logger.Info("Session created",
		zap.String("session_id", sess.ID),
		zap.String("username", username))

	return sess.copy()
}

// Get returns a snapshot of the session and refreshes its idle timer
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	return sess.copy(), nil
}

// Replace swaps the session's results for a new batch
func (s *Store) Replace(id string, results []models.ProcessedInvoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.Results = append([]models.ProcessedInvoice(nil), results...)
	sess.UpdatedAt = s.now()

	s.logger.Debug("Session results replaced",
		zap.String("session_id", id),
		zap.Int("results", len(results)))
	return nil
}

// Clear empties the session's results but keeps the session
func (s *Store) Clear(id string) error {
	return s.Replace(id, nil)
}

// Delete ends a session. Unknown ids are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		s.logger.Info("Session deleted", zap.String("session_id", id))
	}
}

// Sweep removes every expired session and returns how many were removed
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("Expired sessions removed", zap.Int("count", removed))
	}
	return removed
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// lookup must be called with mu held
func (s *Store) lookup(id string) (*Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.expired(sess) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl
}

func (sess *Session) copy() *Session {
	out := *sess
	out.Results = append([]models.ProcessedInvoice(nil), sess.Results...)
	return &out
}
