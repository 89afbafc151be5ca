// Package memory provides an in-memory SessionStore for tests and
// single-process development runs. It honors the same version-stamp
// compare-and-update contract as the durable store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/midgame-live/midgame/internal/match/domain"
	"github.com/midgame-live/midgame/internal/match/storage"
)

// Store is an in-memory SessionStore.
type Store struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	moves    map[string][]domain.MoveRecord
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		sessions: make(map[string]domain.Session),
		moves:    make(map[string][]domain.MoveRecord),
	}
}

// clone copies a session so callers never alias stored state. EndedAt is the
// only pointer field.
func clone(session domain.Session) domain.Session {
	if session.EndedAt != nil {
		ended := *session.EndedAt
		session.EndedAt = &ended
	}
	return session
}

// CreateSession persists a new session at version 1.
func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; ok {
		return domain.Session{}, storage.ErrAlreadyExists
	}
	session.Version = 1
	s.sessions[session.ID] = clone(session)
	return clone(session), nil
}

// GetSession loads a session by id.
func (s *Store) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, storage.ErrNotFound
	}
	return clone(session), nil
}

// UpdateSession replaces the session if the stored version matches.
func (s *Store) UpdateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.casLocked(session)
}

// CommitMove applies the session update and appends the move atomically.
func (s *Store) CommitMove(ctx context.Context, session domain.Session, record domain.MoveRecord) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.casLocked(session)
	if err != nil {
		return domain.Session{}, err
	}
	s.moves[session.ID] = append(s.moves[session.ID], record)
	return updated, nil
}

// ListMoves returns the move log in sequence order.
func (s *Store) ListMoves(ctx context.Context, sessionID string) ([]domain.MoveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, storage.ErrNotFound
	}
	records := make([]domain.MoveRecord, len(s.moves[sessionID]))
	copy(records, s.moves[sessionID])
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	return records, nil
}

func (s *Store) casLocked(session domain.Session) (domain.Session, error) {
	stored, ok := s.sessions[session.ID]
	if !ok {
		return domain.Session{}, storage.ErrNotFound
	}
	if stored.Version != session.Version {
		return domain.Session{}, storage.ErrVersionConflict
	}
	session.Version++
	s.sessions[session.ID] = clone(session)
	return clone(session), nil
}
