// Package broadcast propagates session snapshots to observers.
//
// Two delivery strategies implement the same contract. The Broker pushes
// snapshots to in-process subscribers as they are published, while the
// Watcher polls an authoritative snapshot source on an interval. Both
// guarantee that each observer sees snapshots in non-decreasing version
// order and receives the latest known snapshot when it attaches.
package broadcast

import (
	"context"

	"github.com/midgame-live/midgame/internal/match/domain"
)

// Publisher accepts authoritative snapshots for fan-out.
type Publisher interface {
	Publish(ctx context.Context, snapshot domain.Snapshot)
}

// Subscriber attaches observers to a session's snapshot stream.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) (Subscription, error)
}

// Subscription is one observer's snapshot stream. Close releases the
// observer's resources; after Close the channel is drained and closed.
type Subscription interface {
	Snapshots() <-chan domain.Snapshot
	Close()
}

// NopPublisher discards snapshots. Useful when no observer transport is
// wired, and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.Snapshot) {}
