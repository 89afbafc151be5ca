// Package storage defines the persistence contract for match sessions and
// their move logs.
//
// The mutable session fields are guarded by a version stamp: UpdateSession
// and CommitMove are compare-and-update operations that fail with
// ErrVersionConflict when another writer committed first. This serializes
// concurrent writers per session without requiring the store to be local.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/midgame-live/midgame/internal/match/domain"
)

var (
	// ErrNotFound indicates the requested session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a create collided with an existing session id.
	ErrAlreadyExists = errors.New("already exists")
	// ErrVersionConflict indicates a compare-and-update lost a commit race.
	ErrVersionConflict = errors.New("version conflict")
)

// SessionStore persists sessions and their append-only move logs.
type SessionStore interface {
	// CreateSession persists a new session. The stored record starts at
	// version 1 regardless of the input's Version field.
	CreateSession(ctx context.Context, session domain.Session) (domain.Session, error)

	// GetSession loads a session by id, including its current version stamp.
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)

	// UpdateSession replaces the session's mutable fields if and only if the
	// stored version still equals session.Version. On success the returned
	// session carries the incremented version.
	UpdateSession(ctx context.Context, session domain.Session) (domain.Session, error)

	// CommitMove atomically performs UpdateSession and appends the move
	// record. Either both happen or neither does.
	CommitMove(ctx context.Context, session domain.Session, record domain.MoveRecord) (domain.Session, error)

	// ListMoves returns the session's move log in sequence order.
	ListMoves(ctx context.Context, sessionID string) ([]domain.MoveRecord, error)
}

// IsTransient reports whether a storage error is worth retrying: lock
// contention or connectivity hiccups rather than a contract violation.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrVersionConflict) {
		return false
	}
	value := strings.ToLower(err.Error())
	for _, marker := range []string{"database is locked", "busy", "i/o error", "connection refused", "connection reset"} {
		if strings.Contains(value, marker) {
			return true
		}
	}
	return false
}
