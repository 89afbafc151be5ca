package service

import (
	"context"
	"strings"

	"github.com/midgame-live/midgame/internal/catalog"
	errs "github.com/midgame-live/midgame/internal/errors"
	"github.com/midgame-live/midgame/internal/match/domain"
)

// CreateSessionInput describes a new session. An explicit Position takes
// precedence; otherwise a seed position is drawn from the catalog using
// Criteria.
type CreateSessionInput struct {
	Position    string
	Description string
	Criteria    catalog.Criteria
}

// CreateSessionResult carries the new session, the side the creating
// participant will play, and the occupant token that claims it.
type CreateSessionResult struct {
	Snapshot  domain.Snapshot
	HostColor domain.Color
	HostToken string
}

// CreateSession creates a waiting session. The host's color is chosen at
// random and fixed for the session's life; the returned token is minted
// but not yet bound, so the host claims the seat through JoinSession
// like any other participant.
func (s *Service) CreateSession(ctx context.Context, input CreateSessionInput) (CreateSessionResult, error) {
	ctx, span := s.span(ctx, "CreateSession", "")
	defer span.End()

	position := strings.TrimSpace(input.Position)
	description := strings.TrimSpace(input.Description)
	if position == "" {
		seed := s.catalog.Pick(input.Criteria)
		position = seed.FEN
		if description == "" {
			description = seed.Description
		}
	}

	session, err := domain.CreateSession(domain.CreateSessionInput{
		Position:    position,
		Description: description,
		HostColor:   s.pickHostColor(),
		FirstTurn:   firstTurnFromPosition(position),
	}, s.clock, s.idGenerator)
	if err != nil {
		return CreateSessionResult{}, err
	}

	stored, err := s.store.CreateSession(ctx, session)
	if err != nil {
		return CreateSessionResult{}, mapStoreError(err)
	}

	hostToken, _, err := s.tokens.Mint()
	if err != nil {
		return CreateSessionResult{}, errs.Wrap(errs.CodeInternal, "mint host token", err)
	}

	s.logger.Printf("session %s created host=%s position=%q", stored.ID, stored.HostColor, position)
	s.publish(ctx, stored)
	return CreateSessionResult{
		Snapshot:  stored.Snapshot(),
		HostColor: stored.HostColor,
		HostToken: hostToken,
	}, nil
}

// JoinSessionInput claims a seat. Token is optional: an empty token
// mints a fresh identity, while a previously issued token reclaims the
// seat it already holds.
type JoinSessionInput struct {
	SessionID string
	Role      domain.SeatRole
	Token     string
}

// JoinSessionResult reports the bound seat. Reconnect is true when the
// token already held the seat.
type JoinSessionResult struct {
	Snapshot  domain.Snapshot
	Color     domain.Color
	Token     string
	Reconnect bool
}

// JoinSession binds an occupant to the seat of the requested role. When
// the second seat binds, the session activates in the same store write.
// A lost compare-and-update against a concurrent writer is retried on
// the reloaded session.
func (s *Service) JoinSession(ctx context.Context, input JoinSessionInput) (JoinSessionResult, error) {
	ctx, span := s.span(ctx, "JoinSession", input.SessionID)
	defer span.End()

	occupantToken := strings.TrimSpace(input.Token)
	var subject string
	var err error
	if occupantToken == "" {
		occupantToken, subject, err = s.tokens.Mint()
		if err != nil {
			return JoinSessionResult{}, errs.Wrap(errs.CodeInternal, "mint occupant token", err)
		}
	} else {
		subject, err = s.tokens.Verify(occupantToken)
		if err != nil {
			return JoinSessionResult{}, errs.Wrap(errs.CodeInvalidArgument, "occupant token is not valid", err)
		}
	}

	var result JoinSessionResult
	err = s.withBindRetry(ctx, input.SessionID, func(session *domain.Session) error {
		color, err := session.ColorForRole(input.Role)
		if err != nil {
			return err
		}
		reconnect, err := session.BindSeat(color, subject, s.clock())
		if err != nil {
			return err
		}
		result.Color = color
		result.Reconnect = reconnect
		return nil
	}, func(session domain.Session) {
		result.Snapshot = session.Snapshot()
	})
	if err != nil {
		return JoinSessionResult{}, err
	}

	result.Token = occupantToken
	s.logger.Printf("session %s seat %s bound reconnect=%t", input.SessionID, result.Color, result.Reconnect)
	return result, nil
}

// LeaveSession abandons the session on behalf of a participant. Both
// seats' occupants may abandon at any point before the session finishes.
func (s *Service) LeaveSession(ctx context.Context, sessionID, occupantToken string) (domain.Snapshot, error) {
	ctx, span := s.span(ctx, "LeaveSession", sessionID)
	defer span.End()

	subject, err := s.tokens.Verify(occupantToken)
	if err != nil {
		return domain.Snapshot{}, errs.Wrap(errs.CodeInvalidArgument, "occupant token is not valid", err)
	}

	var snapshot domain.Snapshot
	err = s.withBindRetry(ctx, sessionID, func(session *domain.Session) error {
		if _, ok := session.SeatByToken(subject); !ok {
			return domain.ErrNotAParticipant
		}
		return session.Abandon(s.clock())
	}, func(session domain.Session) {
		snapshot = session.Snapshot()
	})
	if err != nil {
		return domain.Snapshot{}, err
	}

	s.logger.Printf("session %s abandoned", sessionID)
	return snapshot, nil
}

// GetSnapshot loads the authoritative snapshot. It satisfies the poll
// propagation strategy's loader contract.
func (s *Service) GetSnapshot(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	ctx, span := s.span(ctx, "GetSnapshot", sessionID)
	defer span.End()

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, mapStoreError(err)
	}
	return session.Snapshot(), nil
}

// ListMoves returns the session's move log in sequence order.
func (s *Service) ListMoves(ctx context.Context, sessionID string) ([]domain.MoveRecord, error) {
	ctx, span := s.span(ctx, "ListMoves", sessionID)
	defer span.End()

	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, mapStoreError(err)
	}
	records, err := s.store.ListMoves(ctx, sessionID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return records, nil
}

// withBindRetry loads the session, applies mutate, and stores the result
// with a compare-and-update, retrying against a reloaded session when a
// concurrent writer won. The stored session (with its new version) is
// handed to done before publication.
func (s *Service) withBindRetry(ctx context.Context, sessionID string, mutate func(*domain.Session) error, done func(domain.Session)) error {
	var lastErr error
	for attempt := 0; attempt < bindRetries; attempt++ {
		session, err := s.store.GetSession(ctx, sessionID)
		if err != nil {
			return mapStoreError(err)
		}
		if err := mutate(&session); err != nil {
			return err
		}
		stored, err := s.store.UpdateSession(ctx, session)
		if err == nil {
			done(stored)
			s.publish(ctx, stored)
			return nil
		}
		lastErr = err
		if !isVersionConflict(err) {
			return mapStoreError(err)
		}
	}
	return mapStoreError(lastErr)
}

// firstTurnFromPosition reads the side to move from the position's
// second field. Positions without one default to white.
func firstTurnFromPosition(position string) domain.Color {
	fields := strings.Fields(position)
	if len(fields) > 1 && fields[1] == "b" {
		return domain.ColorBlack
	}
	return domain.ColorWhite
}
