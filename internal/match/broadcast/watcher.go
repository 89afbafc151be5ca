package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/midgame-live/midgame/internal/match/domain"
)

// SnapshotFunc loads the authoritative snapshot for a session.
type SnapshotFunc func(ctx context.Context, sessionID string) (domain.Snapshot, error)

// Watcher is the poll strategy: it periodically loads the authoritative
// snapshot and emits it to the observer whenever the version advances.
// It serves environments where no push channel to the observer exists;
// the per-subscriber stream carries the same monotonic ordering the
// Broker provides.
type Watcher struct {
	load     SnapshotFunc
	interval time.Duration
}

// NewWatcher polls load every interval for each subscription.
func NewWatcher(load SnapshotFunc, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{load: load, interval: interval}
}

// Subscribe starts a polling loop for the session. The first snapshot is
// loaded immediately so the observer does not wait a full interval for
// its initial state. Load errors are skipped; the next tick retries.
func (w *Watcher) Subscribe(ctx context.Context, sessionID string) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &watcherSubscription{
		ch:     make(chan domain.Snapshot, 1),
		cancel: cancel,
	}
	go w.poll(ctx, sessionID, sub)
	return sub, nil
}

func (w *Watcher) poll(ctx context.Context, sessionID string, sub *watcherSubscription) {
	defer sub.finish()

	var lastSeen uint64
	emit := func() {
		snapshot, err := w.load(ctx, sessionID)
		if err != nil || snapshot.Version <= lastSeen {
			return
		}
		lastSeen = snapshot.Version
		// Replace any undelivered snapshot; only the newest matters.
		select {
		case sub.ch <- snapshot:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- snapshot
		}
	}

	emit()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			emit()
		}
	}
}

type watcherSubscription struct {
	ch     chan domain.Snapshot
	cancel context.CancelFunc
	once   sync.Once
}

// finish closes the stream once the polling goroutine has exited, so no
// send can race the close.
func (s *watcherSubscription) finish() {
	s.once.Do(func() { close(s.ch) })
}

func (s *watcherSubscription) Snapshots() <-chan domain.Snapshot {
	return s.ch
}

func (s *watcherSubscription) Close() {
	s.cancel()
}
