// Package retrystore wraps a SessionStore with bounded retries for
// transient failures such as lock contention or connectivity hiccups.
// Contract errors (not found, conflicts) pass through untouched; once
// the retry budget is exhausted the failure surfaces as UNAVAILABLE.
package retrystore

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	errs "github.com/midgame-live/midgame/internal/errors"
	"github.com/midgame-live/midgame/internal/match/domain"
	"github.com/midgame-live/midgame/internal/match/storage"
)

// Defaults for the retry policy when an Option does not override them.
const (
	defaultMaxTries        = 4
	defaultInitialInterval = 50 * time.Millisecond
	defaultMaxInterval     = time.Second
)

// Store decorates a SessionStore with retries.
type Store struct {
	inner           storage.SessionStore
	maxTries        uint
	initialInterval time.Duration
	maxInterval     time.Duration
}

// Option configures the retry policy.
type Option func(*Store)

// WithMaxTries sets the total number of attempts per call, including the
// first one.
func WithMaxTries(n uint) Option {
	return func(s *Store) { s.maxTries = n }
}

// WithIntervals sets the initial and maximum delay between attempts.
func WithIntervals(initial, max time.Duration) Option {
	return func(s *Store) {
		s.initialInterval = initial
		s.maxInterval = max
	}
}

// New wraps inner with the retry policy described by opts.
func New(inner storage.SessionStore, opts ...Option) *Store {
	s := &Store{
		inner:           inner,
		maxTries:        defaultMaxTries,
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// retry runs op with exponential backoff. Non-transient errors abort
// immediately; transient errors that outlive the budget are reported as
// UNAVAILABLE so callers can distinguish them from contract failures.
func retry[T any](ctx context.Context, s *Store, op func() (T, error)) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.initialInterval
	policy.MaxInterval = s.maxInterval

	value, err := backoff.Retry(ctx, func() (T, error) {
		value, err := op()
		if err != nil && !storage.IsTransient(err) {
			return value, backoff.Permanent(err)
		}
		return value, err
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(s.maxTries))
	if err != nil && storage.IsTransient(err) {
		return value, errs.Wrap(errs.CodeUnavailable, "storage unavailable", err)
	}
	return value, err
}

func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	return retry(ctx, s, func() (domain.Session, error) {
		return s.inner.CreateSession(ctx, session)
	})
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	return retry(ctx, s, func() (domain.Session, error) {
		return s.inner.GetSession(ctx, sessionID)
	})
}

func (s *Store) UpdateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	return retry(ctx, s, func() (domain.Session, error) {
		return s.inner.UpdateSession(ctx, session)
	})
}

func (s *Store) CommitMove(ctx context.Context, session domain.Session, record domain.MoveRecord) (domain.Session, error) {
	return retry(ctx, s, func() (domain.Session, error) {
		return s.inner.CommitMove(ctx, session, record)
	})
}

func (s *Store) ListMoves(ctx context.Context, sessionID string) ([]domain.MoveRecord, error) {
	return retry(ctx, s, func() ([]domain.MoveRecord, error) {
		return s.inner.ListMoves(ctx, sessionID)
	})
}
