package retrystore

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "github.com/midgame-live/midgame/internal/errors"
	"github.com/midgame-live/midgame/internal/match/domain"
	"github.com/midgame-live/midgame/internal/match/storage"
)

// flakyStore fails the first n calls with a transient error before
// delegating to a fixed response.
type flakyStore struct {
	failures int
	calls    int
	session  domain.Session
	err      error
}

func (f *flakyStore) respond() (domain.Session, error) {
	f.calls++
	if f.calls <= f.failures {
		return domain.Session{}, errors.New("database is locked")
	}
	return f.session, f.err
}

func (f *flakyStore) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	return f.respond()
}

func (f *flakyStore) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	return f.respond()
}

func (f *flakyStore) UpdateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	return f.respond()
}

func (f *flakyStore) CommitMove(ctx context.Context, session domain.Session, record domain.MoveRecord) (domain.Session, error) {
	return f.respond()
}

func (f *flakyStore) ListMoves(ctx context.Context, sessionID string) ([]domain.MoveRecord, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("database is locked")
	}
	return nil, f.err
}

func fastOptions() []Option {
	return []Option{WithIntervals(time.Millisecond, 2*time.Millisecond)}
}

func TestRetriesTransientFailures(t *testing.T) {
	inner := &flakyStore{failures: 2, session: domain.Session{ID: "s1", Version: 3}}
	store := New(inner, fastOptions()...)

	session, err := store.GetSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("expected recovery after transient failures, got %v", err)
	}
	if session.ID != "s1" || session.Version != 3 {
		t.Fatalf("unexpected session: %+v", session)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestContractErrorsAreNotRetried(t *testing.T) {
	inner := &flakyStore{err: storage.ErrVersionConflict}
	store := New(inner, fastOptions()...)

	_, err := store.UpdateSession(context.Background(), domain.Session{ID: "s1"})
	if !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", inner.calls)
	}
}

func TestExhaustedBudgetSurfacesUnavailable(t *testing.T) {
	inner := &flakyStore{failures: 100}
	store := New(inner, append(fastOptions(), WithMaxTries(3))...)

	_, err := store.GetSession(context.Background(), "s1")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if errs.CodeOf(err) != errs.CodeUnavailable {
		t.Fatalf("expected UNAVAILABLE, got %s", errs.CodeOf(err))
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}
