package domain

import (
	"fmt"
	"strings"
	"time"

	errs "github.com/midgame-live/midgame/internal/errors"
	"github.com/midgame-live/midgame/internal/platform/id"
)

// Color identifies one of the two sides of a session. White always moves first.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// Valid reports whether the color is one of the two playable sides.
func (c Color) Valid() bool {
	return c == ColorWhite || c == ColorBlack
}

// SeatRole names the two occupancy slots of a session. The creating
// participant holds the host seat; the invited participant holds the guest
// seat. Which color each role plays is fixed at session creation.
type SeatRole string

const (
	SeatHost  SeatRole = "host"
	SeatGuest SeatRole = "guest"
)

// Valid reports whether the role is one of the two seat roles.
func (r SeatRole) Valid() bool {
	return r == SeatHost || r == SeatGuest
}

// Lifecycle describes the session lifecycle state.
type Lifecycle string

const (
	// LifecycleWaiting indicates fewer than two seats are occupied.
	LifecycleWaiting Lifecycle = "waiting"
	// LifecycleActive indicates both seats are occupied and play is ongoing.
	LifecycleActive Lifecycle = "active"
	// LifecycleFinished indicates a terminal condition or abandonment.
	LifecycleFinished Lifecycle = "finished"
)

// Domain errors shared by seat assignment and move submission.
var (
	ErrSessionEnded    = errs.New(errs.CodeSessionEnded, "session has ended")
	ErrSeatTaken       = errs.New(errs.CodeSeatTaken, "seat is occupied by another participant")
	ErrNotActive       = errs.New(errs.CodeNotActive, "session is not active")
	ErrNotAParticipant = errs.New(errs.CodeNotAParticipant, "occupant is not a participant of this session")
	ErrOutOfTurn       = errs.New(errs.CodeOutOfTurn, "it is not this side's turn")
)

// Seat is one occupancy slot of a session. A seat with an empty occupant
// token is vacant.
type Seat struct {
	OccupantToken string
	JoinedAt      time.Time
	LastSeen      time.Time
}

// Occupied reports whether the seat has an occupant.
func (s Seat) Occupied() bool {
	return s.OccupantToken != ""
}

// Session is one instance of a two-party game. The mutable fields (seats,
// lifecycle, turn, position, sequence) are guarded by Version: every store
// mutation is a compare-and-update against the version read, so concurrent
// writers serialize per session without a process-wide lock.
type Session struct {
	ID        string
	HostColor Color
	Lifecycle Lifecycle

	CurrentTurn Color
	White       Seat
	Black       Seat

	InitialPosition string
	CurrentPosition string
	Description     string

	LastSeq uint64
	Version uint64
	Outcome string

	CreatedAt time.Time
	UpdatedAt time.Time
	EndedAt   *time.Time
}

// CreateSessionInput describes the seed data needed to create a session.
type CreateSessionInput struct {
	Position    string
	Description string
	HostColor   Color
	FirstTurn   Color
}

// CreateSession creates a waiting session with a generated ID and timestamps.
// FirstTurn defaults to white when unspecified; the seed position's
// side-to-move convention is the caller's concern.
func CreateSession(input CreateSessionInput, now func() time.Time, idGenerator func() (string, error)) (Session, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.Position = strings.TrimSpace(input.Position)
	if input.Position == "" {
		return Session{}, errs.New(errs.CodeInvalidArgument, "initial position is required")
	}
	if !input.HostColor.Valid() {
		return Session{}, errs.New(errs.CodeInvalidArgument, "host color is required")
	}
	if input.FirstTurn == "" {
		input.FirstTurn = ColorWhite
	}
	if !input.FirstTurn.Valid() {
		return Session{}, errs.New(errs.CodeInvalidArgument, "first turn must be a playable side")
	}

	sessionID, err := idGenerator()
	if err != nil {
		return Session{}, fmt.Errorf("generate session id: %w", err)
	}

	createdAt := now().UTC()
	return Session{
		ID:              sessionID,
		HostColor:       input.HostColor,
		Lifecycle:       LifecycleWaiting,
		CurrentTurn:     input.FirstTurn,
		InitialPosition: input.Position,
		CurrentPosition: input.Position,
		Description:     strings.TrimSpace(input.Description),
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}, nil
}

// GuestColor returns the side the guest seat plays.
func (s Session) GuestColor() Color {
	return s.HostColor.Opponent()
}

// ColorForRole maps a seat role through the session's fixed seat map.
func (s Session) ColorForRole(role SeatRole) (Color, error) {
	switch role {
	case SeatHost:
		return s.HostColor, nil
	case SeatGuest:
		return s.GuestColor(), nil
	default:
		return "", errs.New(errs.CodeInvalidArgument, "requested seat must be host or guest")
	}
}

// Seat returns the seat playing the given color.
func (s *Session) Seat(color Color) *Seat {
	if color == ColorBlack {
		return &s.Black
	}
	return &s.White
}

// SeatByToken resolves the side occupied by an occupant token.
func (s Session) SeatByToken(token string) (Color, bool) {
	if token == "" {
		return "", false
	}
	if s.White.OccupantToken == token {
		return ColorWhite, true
	}
	if s.Black.OccupantToken == token {
		return ColorBlack, true
	}
	return "", false
}

// BothSeatsOccupied reports whether both sides have an occupant.
func (s Session) BothSeatsOccupied() bool {
	return s.White.Occupied() && s.Black.Occupied()
}

// BindSeat binds an occupant token to the seat playing color.
//
// Binding is idempotent for the same token (a reconnect updates last-seen
// only). Binding the second seat transitions the lifecycle to active in the
// same mutation, so no reader observes two occupied seats on a waiting
// session.
func (s *Session) BindSeat(color Color, occupantToken string, now time.Time) (reconnect bool, err error) {
	if s.Lifecycle == LifecycleFinished {
		return false, ErrSessionEnded
	}
	occupantToken = strings.TrimSpace(occupantToken)
	if occupantToken == "" {
		return false, errs.New(errs.CodeInvalidArgument, "occupant token is required")
	}
	if !color.Valid() {
		return false, errs.New(errs.CodeInvalidArgument, "seat color must be a playable side")
	}

	now = now.UTC()
	seat := s.Seat(color)
	if seat.Occupied() {
		if seat.OccupantToken != occupantToken {
			return false, ErrSeatTaken
		}
		seat.LastSeen = now
		s.UpdatedAt = now
		return true, nil
	}

	seat.OccupantToken = occupantToken
	seat.JoinedAt = now
	seat.LastSeen = now
	s.UpdatedAt = now

	if s.Lifecycle == LifecycleWaiting && s.BothSeatsOccupied() {
		s.Lifecycle = LifecycleActive
	}
	return false, nil
}

// ResolveMover resolves the side an occupant token plays and checks that the
// session and turn state permit that side to move right now. The returned
// color is only valid when err is nil.
func (s Session) ResolveMover(occupantToken string) (Color, error) {
	if s.Lifecycle != LifecycleActive {
		return "", ErrNotActive
	}
	color, ok := s.SeatByToken(strings.TrimSpace(occupantToken))
	if !ok {
		return "", ErrNotAParticipant
	}
	if color != s.CurrentTurn {
		return "", ErrOutOfTurn
	}
	return color, nil
}

// CommitMove appends an accepted move to the session state: assigns the next
// sequence number, replaces the current position, flips the turn, and records
// a terminal outcome when the rules engine signaled one. The caller persists
// the returned record and the mutated session in one atomic store operation.
func (s *Session) CommitMove(color Color, payload MovePayload, notation, resultingPosition string, terminal bool, outcome string, now time.Time) MoveRecord {
	now = now.UTC()

	s.LastSeq++
	record := MoveRecord{
		SessionID:     s.ID,
		Seq:           s.LastSeq,
		Color:         color,
		Payload:       payload,
		Notation:      notation,
		PositionAfter: resultingPosition,
		CommittedAt:   now,
	}

	s.CurrentPosition = resultingPosition
	s.CurrentTurn = color.Opponent()
	s.UpdatedAt = now
	if seat := s.Seat(color); seat.Occupied() {
		seat.LastSeen = now
	}

	if terminal {
		s.Lifecycle = LifecycleFinished
		s.Outcome = outcome
		ended := now
		s.EndedAt = &ended
	}

	return record
}

// Abandon marks the session finished without a played terminal condition.
func (s *Session) Abandon(now time.Time) error {
	if s.Lifecycle == LifecycleFinished {
		return ErrSessionEnded
	}
	now = now.UTC()
	s.Lifecycle = LifecycleFinished
	s.Outcome = "abandoned"
	s.UpdatedAt = now
	ended := now
	s.EndedAt = &ended
	return nil
}

// SeatView is the externally visible occupancy state of one seat. Occupant
// tokens are never exposed.
type SeatView struct {
	Occupied bool
	JoinedAt time.Time
	LastSeen time.Time
}

// Snapshot is the full externally visible state of a session at a point in
// time. Version orders snapshots across every mutation (including seat binds,
// which do not advance Seq).
type Snapshot struct {
	SessionID       string
	Lifecycle       Lifecycle
	CurrentTurn     Color
	HostColor       Color
	GuestColor      Color
	InitialPosition string
	CurrentPosition string
	Description     string
	Seq             uint64
	Version         uint64
	Outcome         string
	White           SeatView
	Black           SeatView
	UpdatedAt       time.Time
}

// Snapshot derives the externally visible state from the session.
func (s Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID:       s.ID,
		Lifecycle:       s.Lifecycle,
		CurrentTurn:     s.CurrentTurn,
		HostColor:       s.HostColor,
		GuestColor:      s.GuestColor(),
		InitialPosition: s.InitialPosition,
		CurrentPosition: s.CurrentPosition,
		Description:     s.Description,
		Seq:             s.LastSeq,
		Version:         s.Version,
		Outcome:         s.Outcome,
		White:           SeatView{Occupied: s.White.Occupied(), JoinedAt: s.White.JoinedAt, LastSeen: s.White.LastSeen},
		Black:           SeatView{Occupied: s.Black.Occupied(), JoinedAt: s.Black.JoinedAt, LastSeen: s.Black.LastSeen},
		UpdatedAt:       s.UpdatedAt,
	}
}
