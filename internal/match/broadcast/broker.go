package broadcast

import (
	"context"
	"sync"

	"github.com/midgame-live/midgame/internal/match/domain"
)

// defaultBufferSize is the per-subscriber channel depth. When a slow
// subscriber falls behind, the oldest undelivered snapshot is evicted;
// the subscriber still converges because every later snapshot carries
// the full state.
const defaultBufferSize = 16

// Broker is the push strategy: an in-process fan-out of published
// snapshots to per-session subscriber sets. It retains the latest
// snapshot per session so a subscriber attaching mid-game (or after a
// reconnect) immediately receives the current state.
type Broker struct {
	mu     sync.Mutex
	topics map[string]*topic
	buffer int
}

type topic struct {
	latest *domain.Snapshot
	subs   map[*brokerSubscription]struct{}
}

type brokerSubscription struct {
	broker    *Broker
	sessionID string
	ch        chan domain.Snapshot
	lastSeen  uint64
	closed    bool
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{
		topics: make(map[string]*topic),
		buffer: defaultBufferSize,
	}
}

// Publish fans the snapshot out to the session's subscribers. Snapshots
// older than the latest retained one are dropped so the retained state
// never moves backwards, regardless of publisher interleaving.
func (b *Broker) Publish(_ context.Context, snapshot domain.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.topics[snapshot.SessionID]
	if t == nil {
		t = &topic{subs: make(map[*brokerSubscription]struct{})}
		b.topics[snapshot.SessionID] = t
	}
	if t.latest != nil && snapshot.Version < t.latest.Version {
		return
	}
	t.latest = &snapshot

	for sub := range t.subs {
		sub.deliverLocked(snapshot)
	}

	// Terminal snapshot with nobody listening: the session will never
	// publish again, so retaining it only leaks the topic.
	if snapshot.Lifecycle == domain.LifecycleFinished && len(t.subs) == 0 {
		delete(b.topics, snapshot.SessionID)
	}
}

// Subscribe attaches an observer to the session's snapshot stream. If a
// snapshot has already been published for the session it is delivered
// immediately, which is what lets a reconnecting client resync without
// waiting for the next move.
func (b *Broker) Subscribe(_ context.Context, sessionID string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.topics[sessionID]
	if t == nil {
		t = &topic{subs: make(map[*brokerSubscription]struct{})}
		b.topics[sessionID] = t
	}

	sub := &brokerSubscription{
		broker:    b,
		sessionID: sessionID,
		ch:        make(chan domain.Snapshot, b.buffer),
	}
	t.subs[sub] = struct{}{}
	if t.latest != nil {
		sub.deliverLocked(*t.latest)
	}
	return sub, nil
}

// deliverLocked enqueues the snapshot for this subscriber, dropping the
// oldest queued snapshot when the buffer is full. Out-of-order snapshots
// are skipped so the subscriber's stream stays monotonic by version.
// Callers must hold the broker mutex.
func (s *brokerSubscription) deliverLocked(snapshot domain.Snapshot) {
	if s.closed || snapshot.Version < s.lastSeen {
		return
	}
	s.lastSeen = snapshot.Version
	for {
		select {
		case s.ch <- snapshot:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

func (s *brokerSubscription) Snapshots() <-chan domain.Snapshot {
	return s.ch
}

// Close detaches the subscriber and closes its channel. Safe to call
// more than once.
func (s *brokerSubscription) Close() {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if t := s.broker.topics[s.sessionID]; t != nil {
		delete(t.subs, s)
		// A finished session gets no further publishes, so once the last
		// subscriber is gone the retained snapshot has no reader left.
		if len(t.subs) == 0 && t.latest != nil && t.latest.Lifecycle == domain.LifecycleFinished {
			delete(s.broker.topics, s.sessionID)
		}
	}
	close(s.ch)
}
