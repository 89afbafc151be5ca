package service

import (
	"context"
	"strings"

	errs "github.com/midgame-live/midgame/internal/errors"
	"github.com/midgame-live/midgame/internal/match/domain"
	"github.com/midgame-live/midgame/internal/rules"
)

// SubmitMoveInput is a move proposal from a seat occupant. The claimed
// fields carry the client's own computation of the move's result; the
// rules engine decides what is actually committed.
type SubmitMoveInput struct {
	SessionID       string
	Token           string
	From            string
	To              string
	Promotion       string
	ClaimedPosition string
	ClaimedNotation string
}

// SubmitMoveResult reports the committed move and the session state it
// produced.
type SubmitMoveResult struct {
	Snapshot domain.Snapshot
	Record   domain.MoveRecord
}

// SubmitMove validates, evaluates, and commits one move.
//
// The commit is a compare-and-update against the session version read at
// the start, so two occupants submitting concurrently cannot both win:
// the loser's write fails and surfaces as STALE_POSITION, prompting a
// resync rather than a silent overwrite. Out-of-turn and non-participant
// submissions are rejected before the engine runs.
func (s *Service) SubmitMove(ctx context.Context, input SubmitMoveInput) (SubmitMoveResult, error) {
	ctx, span := s.span(ctx, "SubmitMove", input.SessionID)
	defer span.End()

	subject, err := s.tokens.Verify(input.Token)
	if err != nil {
		return SubmitMoveResult{}, errs.Wrap(errs.CodeInvalidArgument, "occupant token is not valid", err)
	}

	session, err := s.store.GetSession(ctx, input.SessionID)
	if err != nil {
		return SubmitMoveResult{}, mapStoreError(err)
	}

	color, err := session.ResolveMover(subject)
	if err != nil {
		return SubmitMoveResult{}, err
	}

	verdict, err := s.engine.Evaluate(ctx, rules.Candidate{
		Color:           string(color),
		From:            strings.TrimSpace(input.From),
		To:              strings.TrimSpace(input.To),
		Promotion:       strings.TrimSpace(input.Promotion),
		Position:        session.CurrentPosition,
		ClaimedPosition: strings.TrimSpace(input.ClaimedPosition),
		ClaimedNotation: strings.TrimSpace(input.ClaimedNotation),
	})
	if err != nil {
		return SubmitMoveResult{}, errs.Wrap(errs.CodeInternal, "rules evaluation failed", err)
	}
	if !verdict.Accepted {
		return SubmitMoveResult{}, errs.WithMetadata(errs.CodeIllegalMove, "move rejected by rules", map[string]string{
			"Reason": verdict.Reason,
		})
	}

	payload := domain.MovePayload{
		From:      strings.TrimSpace(input.From),
		To:        strings.TrimSpace(input.To),
		Promotion: strings.TrimSpace(input.Promotion),
	}
	record := session.CommitMove(color, payload, verdict.Notation, verdict.ResultingPosition, verdict.Terminal, verdict.Outcome, s.clock())

	stored, err := s.store.CommitMove(ctx, session, record)
	if err != nil {
		return SubmitMoveResult{}, mapStoreError(err)
	}

	s.logger.Printf("session %s move %d by %s committed terminal=%t", stored.ID, record.Seq, color, verdict.Terminal)
	s.publish(ctx, stored)
	return SubmitMoveResult{Snapshot: stored.Snapshot(), Record: record}, nil
}
