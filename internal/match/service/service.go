// Package service implements the session operations: creating sessions
// from the catalog, seat assignment, serialized move submission, and
// snapshot reads. Every state change is published for propagation after
// it has been durably stored.
package service

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/midgame-live/midgame/internal/catalog"
	errs "github.com/midgame-live/midgame/internal/errors"
	"github.com/midgame-live/midgame/internal/match/broadcast"
	"github.com/midgame-live/midgame/internal/match/domain"
	"github.com/midgame-live/midgame/internal/match/storage"
	"github.com/midgame-live/midgame/internal/rules"
	"github.com/midgame-live/midgame/internal/token"
)

// bindRetries bounds the reload-and-retry loop for seat binds and
// abandons. These mutations are commutative with concurrent moves, so a
// lost compare-and-update is retried against the fresh session instead
// of being surfaced to the client.
const bindRetries = 3

// Config carries the service dependencies. Clock, IDGenerator and
// PickHostColor are seams with production defaults.
type Config struct {
	Store     storage.SessionStore
	Engine    rules.Engine
	Catalog   *catalog.Catalog
	Publisher broadcast.Publisher
	Tokens    *token.Minter
	Logger    *log.Logger

	Clock         func() time.Time
	IDGenerator   func() (string, error)
	PickHostColor func() domain.Color
}

// Service coordinates session state changes against the store and the
// rules engine.
type Service struct {
	store         storage.SessionStore
	engine        rules.Engine
	catalog       *catalog.Catalog
	publisher     broadcast.Publisher
	tokens        *token.Minter
	logger        *log.Logger
	clock         func() time.Time
	idGenerator   func() (string, error)
	pickHostColor func() domain.Color
	tracer        trace.Tracer
}

// New validates the config and builds a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errs.New(errs.CodeInternal, "session store is required")
	}
	if cfg.Engine == nil {
		return nil, errs.New(errs.CodeInternal, "rules engine is required")
	}
	if cfg.Tokens == nil {
		return nil, errs.New(errs.CodeInternal, "token minter is required")
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.New()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = broadcast.NopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.PickHostColor == nil {
		cfg.PickHostColor = func() domain.Color {
			if rand.Intn(2) == 0 {
				return domain.ColorWhite
			}
			return domain.ColorBlack
		}
	}
	return &Service{
		store:         cfg.Store,
		engine:        cfg.Engine,
		catalog:       cfg.Catalog,
		publisher:     cfg.Publisher,
		tokens:        cfg.Tokens,
		logger:        cfg.Logger,
		clock:         cfg.Clock,
		idGenerator:   cfg.IDGenerator,
		pickHostColor: cfg.PickHostColor,
		tracer:        otel.Tracer("midgame/match/service"),
	}, nil
}

// publish pushes the post-mutation snapshot to observers. Publication is
// best effort and happens only after the mutation is stored, so
// observers never see state the store could still reject.
func (s *Service) publish(ctx context.Context, session domain.Session) {
	s.publisher.Publish(ctx, session.Snapshot())
}

func (s *Service) span(ctx context.Context, name, sessionID string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	if sessionID != "" {
		span.SetAttributes(attribute.String("session.id", sessionID))
	}
	return ctx, span
}

func isVersionConflict(err error) bool {
	return errors.Is(err, storage.ErrVersionConflict)
}

// mapStoreError normalizes storage sentinels into coded errors. A lost
// compare-and-update surfaces as STALE_POSITION: the caller acted on
// state that is no longer current and must resync.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return errs.Wrap(errs.CodeNotFound, "session not found", err)
	case errors.Is(err, storage.ErrVersionConflict):
		return errs.Wrap(errs.CodeStalePosition, "session state changed since it was read", err)
	case errs.CodeOf(err) != errs.CodeUnknown:
		return err
	default:
		return errs.Wrap(errs.CodeInternal, "storage failure", err)
	}
}
