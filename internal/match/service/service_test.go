package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/midgame-live/midgame/internal/catalog"
	errs "github.com/midgame-live/midgame/internal/errors"
	"github.com/midgame-live/midgame/internal/match/broadcast"
	"github.com/midgame-live/midgame/internal/match/domain"
	"github.com/midgame-live/midgame/internal/match/storage/memory"
	"github.com/midgame-live/midgame/internal/rules"
	"github.com/midgame-live/midgame/internal/token"
)

const (
	startFEN     = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	afterE4FEN   = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	afterE4E5FEN = "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2"
)

// stubEngine returns a fixed verdict. The optional entered/release
// channels let a test hold several evaluations at the same point.
type stubEngine struct {
	result  rules.Result
	err     error
	entered chan struct{}
	release chan struct{}
}

func (e *stubEngine) Evaluate(ctx context.Context, candidate rules.Candidate) (rules.Result, error) {
	if e.entered != nil {
		e.entered <- struct{}{}
		<-e.release
	}
	return e.result, e.err
}

// capturePublisher records published snapshots in order.
type capturePublisher struct {
	mu        sync.Mutex
	snapshots []domain.Snapshot
}

func (p *capturePublisher) Publish(_ context.Context, snapshot domain.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snapshot)
}

func (p *capturePublisher) versions() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	versions := make([]uint64, len(p.snapshots))
	for i, snapshot := range p.snapshots {
		versions[i] = snapshot.Version
	}
	return versions
}

type testHarness struct {
	service   *Service
	publisher *capturePublisher
}

func newTestService(t *testing.T, overrides func(*Config)) *testHarness {
	t.Helper()
	minter, err := token.NewMinter([]byte("test-secret"), nil)
	if err != nil {
		t.Fatalf("new minter: %v", err)
	}
	publisher := &capturePublisher{}
	cfg := Config{
		Store:         memory.New(),
		Engine:        rules.Default(),
		Publisher:     publisher,
		Tokens:        minter,
		Clock:         func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
		PickHostColor: func() domain.Color { return domain.ColorWhite },
	}
	if overrides != nil {
		overrides(&cfg)
	}
	service, err := New(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &testHarness{service: service, publisher: publisher}
}

// activeSession creates a session from startFEN and binds both seats.
// The returned tokens are the white (host) and black (guest) occupant
// credentials.
func activeSession(t *testing.T, h *testHarness) (sessionID, whiteToken, blackToken string) {
	t.Helper()
	ctx := context.Background()

	created, err := h.service.CreateSession(ctx, CreateSessionInput{Position: startFEN})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	host, err := h.service.JoinSession(ctx, JoinSessionInput{
		SessionID: created.Snapshot.SessionID,
		Role:      domain.SeatHost,
		Token:     created.HostToken,
	})
	if err != nil {
		t.Fatalf("host join: %v", err)
	}
	guest, err := h.service.JoinSession(ctx, JoinSessionInput{
		SessionID: created.Snapshot.SessionID,
		Role:      domain.SeatGuest,
	})
	if err != nil {
		t.Fatalf("guest join: %v", err)
	}
	if guest.Snapshot.Lifecycle != domain.LifecycleActive {
		t.Fatalf("expected active after second bind, got %s", guest.Snapshot.Lifecycle)
	}
	return created.Snapshot.SessionID, host.Token, guest.Token
}

func TestCreateSessionDrawsFromCatalog(t *testing.T) {
	seed := catalog.Position{FEN: afterE4FEN, Description: "seed", WhitePlayer: "A", BlackPlayer: "B", Interest: 5}
	h := newTestService(t, func(cfg *Config) {
		cfg.Catalog = catalog.New(
			catalog.WithPositions([]catalog.Position{seed}),
			catalog.WithIntn(func(n int) int { return 0 }),
		)
	})

	result, err := h.service.CreateSession(context.Background(), CreateSessionInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Snapshot.CurrentPosition != afterE4FEN {
		t.Fatalf("expected catalog position, got %q", result.Snapshot.CurrentPosition)
	}
	if result.Snapshot.Description != "seed" {
		t.Fatalf("expected seed description, got %q", result.Snapshot.Description)
	}
	if result.Snapshot.CurrentTurn != domain.ColorBlack {
		t.Fatalf("expected first turn derived from the position, got %s", result.Snapshot.CurrentTurn)
	}
	if result.Snapshot.Lifecycle != domain.LifecycleWaiting {
		t.Fatalf("expected waiting session, got %s", result.Snapshot.Lifecycle)
	}
	if result.HostColor != domain.ColorWhite {
		t.Fatalf("expected host color from the seam, got %s", result.HostColor)
	}
	if result.HostToken == "" {
		t.Fatal("expected a minted host token")
	}
}

func TestJoinAssignsComplementaryColors(t *testing.T) {
	h := newTestService(t, nil)
	ctx := context.Background()

	created, err := h.service.CreateSession(ctx, CreateSessionInput{Position: startFEN})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	host, err := h.service.JoinSession(ctx, JoinSessionInput{
		SessionID: created.Snapshot.SessionID,
		Role:      domain.SeatHost,
		Token:     created.HostToken,
	})
	if err != nil {
		t.Fatalf("host join: %v", err)
	}
	if host.Color != domain.ColorWhite {
		t.Fatalf("expected host to play white, got %s", host.Color)
	}
	if host.Snapshot.Lifecycle != domain.LifecycleWaiting {
		t.Fatalf("expected waiting with one seat bound, got %s", host.Snapshot.Lifecycle)
	}

	guest, err := h.service.JoinSession(ctx, JoinSessionInput{
		SessionID: created.Snapshot.SessionID,
		Role:      domain.SeatGuest,
	})
	if err != nil {
		t.Fatalf("guest join: %v", err)
	}
	if guest.Color != domain.ColorBlack {
		t.Fatalf("expected guest to play black, got %s", guest.Color)
	}
	if guest.Token == host.Token {
		t.Fatal("expected distinct occupant tokens")
	}
}

func TestJoinOccupiedSeatIsRejected(t *testing.T) {
	h := newTestService(t, nil)
	sessionID, _, _ := activeSession(t, h)

	_, err := h.service.JoinSession(context.Background(), JoinSessionInput{
		SessionID: sessionID,
		Role:      domain.SeatHost,
	})
	if errs.CodeOf(err) != errs.CodeSeatTaken {
		t.Fatalf("expected SEAT_TAKEN, got %v", err)
	}
}

func TestRejoinWithSameTokenIsReconnect(t *testing.T) {
	h := newTestService(t, nil)
	sessionID, whiteToken, _ := activeSession(t, h)

	result, err := h.service.JoinSession(context.Background(), JoinSessionInput{
		SessionID: sessionID,
		Role:      domain.SeatHost,
		Token:     whiteToken,
	})
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if !result.Reconnect {
		t.Fatal("expected reconnect for the seat's own token")
	}
	if result.Snapshot.Lifecycle != domain.LifecycleActive {
		t.Fatalf("reconnect must not disturb the lifecycle, got %s", result.Snapshot.Lifecycle)
	}
}

func TestJoinUnknownSessionIsNotFound(t *testing.T) {
	h := newTestService(t, nil)

	_, err := h.service.JoinSession(context.Background(), JoinSessionInput{
		SessionID: "missing",
		Role:      domain.SeatHost,
	})
	if errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestSubmitMoveAlternatesTurns(t *testing.T) {
	h := newTestService(t, nil)
	sessionID, whiteToken, blackToken := activeSession(t, h)
	ctx := context.Background()

	first, err := h.service.SubmitMove(ctx, SubmitMoveInput{
		SessionID:       sessionID,
		Token:           whiteToken,
		From:            "e2",
		To:              "e4",
		ClaimedPosition: afterE4FEN,
		ClaimedNotation: "e4",
	})
	if err != nil {
		t.Fatalf("white move: %v", err)
	}
	if first.Record.Seq != 1 || first.Record.Color != domain.ColorWhite {
		t.Fatalf("unexpected first record: %+v", first.Record)
	}
	if first.Snapshot.CurrentTurn != domain.ColorBlack {
		t.Fatalf("expected turn to flip to black, got %s", first.Snapshot.CurrentTurn)
	}
	if first.Snapshot.CurrentPosition != afterE4FEN {
		t.Fatalf("expected committed position, got %q", first.Snapshot.CurrentPosition)
	}

	second, err := h.service.SubmitMove(ctx, SubmitMoveInput{
		SessionID:       sessionID,
		Token:           blackToken,
		From:            "e7",
		To:              "e5",
		ClaimedPosition: afterE4E5FEN,
		ClaimedNotation: "e5",
	})
	if err != nil {
		t.Fatalf("black move: %v", err)
	}
	if second.Record.Seq != 2 {
		t.Fatalf("expected gapless seq 2, got %d", second.Record.Seq)
	}
	if second.Snapshot.CurrentTurn != domain.ColorWhite {
		t.Fatalf("expected turn back to white, got %s", second.Snapshot.CurrentTurn)
	}
}

func TestSubmitMoveOutOfTurnIsRejected(t *testing.T) {
	h := newTestService(t, nil)
	sessionID, _, blackToken := activeSession(t, h)

	_, err := h.service.SubmitMove(context.Background(), SubmitMoveInput{
		SessionID:       sessionID,
		Token:           blackToken,
		ClaimedPosition: afterE4E5FEN,
	})
	if errs.CodeOf(err) != errs.CodeOutOfTurn {
		t.Fatalf("expected OUT_OF_TURN, got %v", err)
	}
}

func TestSubmitMoveByNonParticipantIsRejected(t *testing.T) {
	h := newTestService(t, nil)
	sessionID, _, _ := activeSession(t, h)

	stranger, _, err := h.service.tokens.Mint()
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	_, err = h.service.SubmitMove(context.Background(), SubmitMoveInput{
		SessionID:       sessionID,
		Token:           stranger,
		ClaimedPosition: afterE4FEN,
	})
	if errs.CodeOf(err) != errs.CodeNotAParticipant {
		t.Fatalf("expected NOT_A_PARTICIPANT, got %v", err)
	}
}

func TestSubmitMoveOnWaitingSessionIsRejected(t *testing.T) {
	h := newTestService(t, nil)
	ctx := context.Background()

	created, err := h.service.CreateSession(ctx, CreateSessionInput{Position: startFEN})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	host, err := h.service.JoinSession(ctx, JoinSessionInput{
		SessionID: created.Snapshot.SessionID,
		Role:      domain.SeatHost,
		Token:     created.HostToken,
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	_, err = h.service.SubmitMove(ctx, SubmitMoveInput{
		SessionID:       created.Snapshot.SessionID,
		Token:           host.Token,
		ClaimedPosition: afterE4FEN,
	})
	if errs.CodeOf(err) != errs.CodeNotActive {
		t.Fatalf("expected NOT_ACTIVE, got %v", err)
	}
}

func TestIllegalMoveCarriesEngineReason(t *testing.T) {
	h := newTestService(t, nil)
	sessionID, whiteToken, _ := activeSession(t, h)

	// Claimed position keeps white on the move, which the default
	// evaluation rejects.
	_, err := h.service.SubmitMove(context.Background(), SubmitMoveInput{
		SessionID:       sessionID,
		Token:           whiteToken,
		ClaimedPosition: afterE4E5FEN,
	})
	if errs.CodeOf(err) != errs.CodeIllegalMove {
		t.Fatalf("expected ILLEGAL_MOVE, got %v", err)
	}
	var coded *errs.Error
	if !errors.As(err, &coded) || coded.Metadata["Reason"] == "" {
		t.Fatalf("expected a rejection reason, got %v", err)
	}
}

func TestConcurrentSubmissionsHaveOneWinner(t *testing.T) {
	engine := &stubEngine{
		result:  rules.Result{Accepted: true, ResultingPosition: afterE4FEN, Notation: "e4"},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	h := newTestService(t, func(cfg *Config) { cfg.Engine = engine })
	sessionID, whiteToken, _ := activeSession(t, h)
	ctx := context.Background()

	// Hold both submissions at the engine so each has read the same
	// session version before either commits.
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := h.service.SubmitMove(ctx, SubmitMoveInput{
				SessionID:       sessionID,
				Token:           whiteToken,
				ClaimedPosition: afterE4FEN,
			})
			results <- err
		}()
	}
	<-engine.entered
	<-engine.entered
	close(engine.release)

	var wins, stale int
	for i := 0; i < 2; i++ {
		switch err := <-results; errs.CodeOf(err) {
		case errs.CodeUnknown:
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			wins++
		case errs.CodeStalePosition:
			stale++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || stale != 1 {
		t.Fatalf("expected exactly one winner and one stale loser, got wins=%d stale=%d", wins, stale)
	}

	snapshot, err := h.service.GetSnapshot(ctx, sessionID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.Seq != 1 {
		t.Fatalf("expected a single committed move, got seq %d", snapshot.Seq)
	}
}

func TestTerminalMoveFinishesSession(t *testing.T) {
	engine := &stubEngine{result: rules.Result{
		Accepted:          true,
		ResultingPosition: afterE4FEN,
		Notation:          "Qh5#",
		Terminal:          true,
		Outcome:           "white wins",
	}}
	h := newTestService(t, func(cfg *Config) { cfg.Engine = engine })
	sessionID, whiteToken, blackToken := activeSession(t, h)
	ctx := context.Background()

	result, err := h.service.SubmitMove(ctx, SubmitMoveInput{
		SessionID:       sessionID,
		Token:           whiteToken,
		ClaimedPosition: afterE4FEN,
	})
	if err != nil {
		t.Fatalf("terminal move: %v", err)
	}
	if result.Snapshot.Lifecycle != domain.LifecycleFinished {
		t.Fatalf("expected finished session, got %s", result.Snapshot.Lifecycle)
	}
	if result.Snapshot.Outcome != "white wins" {
		t.Fatalf("unexpected outcome %q", result.Snapshot.Outcome)
	}

	_, err = h.service.SubmitMove(ctx, SubmitMoveInput{
		SessionID:       sessionID,
		Token:           blackToken,
		ClaimedPosition: afterE4E5FEN,
	})
	if errs.CodeOf(err) != errs.CodeNotActive {
		t.Fatalf("expected NOT_ACTIVE after finish, got %v", err)
	}

	_, err = h.service.JoinSession(ctx, JoinSessionInput{SessionID: sessionID, Role: domain.SeatGuest})
	if errs.CodeOf(err) != errs.CodeSessionEnded {
		t.Fatalf("expected SESSION_ENDED on join after finish, got %v", err)
	}
}

func TestLeaveSessionAbandons(t *testing.T) {
	h := newTestService(t, nil)
	sessionID, whiteToken, _ := activeSession(t, h)
	ctx := context.Background()

	stranger, _, err := h.service.tokens.Mint()
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := h.service.LeaveSession(ctx, sessionID, stranger); errs.CodeOf(err) != errs.CodeNotAParticipant {
		t.Fatalf("expected NOT_A_PARTICIPANT, got %v", err)
	}

	snapshot, err := h.service.LeaveSession(ctx, sessionID, whiteToken)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if snapshot.Lifecycle != domain.LifecycleFinished || snapshot.Outcome != "abandoned" {
		t.Fatalf("expected abandoned finish, got %+v", snapshot)
	}

	if _, err := h.service.LeaveSession(ctx, sessionID, whiteToken); errs.CodeOf(err) != errs.CodeSessionEnded {
		t.Fatalf("expected SESSION_ENDED on second leave, got %v", err)
	}
}

func TestMoveLogListsCommittedMoves(t *testing.T) {
	h := newTestService(t, nil)
	sessionID, whiteToken, _ := activeSession(t, h)
	ctx := context.Background()

	if _, err := h.service.SubmitMove(ctx, SubmitMoveInput{
		SessionID:       sessionID,
		Token:           whiteToken,
		From:            "e2",
		To:              "e4",
		ClaimedPosition: afterE4FEN,
		ClaimedNotation: "e4",
	}); err != nil {
		t.Fatalf("move: %v", err)
	}

	records, err := h.service.ListMoves(ctx, sessionID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].Notation != "e4" {
		t.Fatalf("unexpected move log: %+v", records)
	}

	if _, err := h.service.ListMoves(ctx, "missing"); errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestPublishedSnapshotsAreVersionOrdered(t *testing.T) {
	h := newTestService(t, nil)
	sessionID, whiteToken, _ := activeSession(t, h)

	if _, err := h.service.SubmitMove(context.Background(), SubmitMoveInput{
		SessionID:       sessionID,
		Token:           whiteToken,
		ClaimedPosition: afterE4FEN,
	}); err != nil {
		t.Fatalf("move: %v", err)
	}

	versions := h.publisher.versions()
	if len(versions) < 4 {
		t.Fatalf("expected a publish per mutation, got %d", len(versions))
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Fatalf("non-monotonic publish order: %v", versions)
		}
	}
}

func TestLateSubscriberReceivesLatestState(t *testing.T) {
	broker := broadcast.NewBroker()
	h := newTestService(t, func(cfg *Config) { cfg.Publisher = broker })
	sessionID, whiteToken, _ := activeSession(t, h)
	ctx := context.Background()

	if _, err := h.service.SubmitMove(ctx, SubmitMoveInput{
		SessionID:       sessionID,
		Token:           whiteToken,
		ClaimedPosition: afterE4FEN,
	}); err != nil {
		t.Fatalf("move: %v", err)
	}

	// A subscriber attaching after the move still sees the current
	// state immediately.
	sub, err := broker.Subscribe(ctx, sessionID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case snapshot := <-sub.Snapshots():
		if snapshot.CurrentPosition != afterE4FEN || snapshot.Seq != 1 {
			t.Fatalf("expected the post-move snapshot, got %+v", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the retained snapshot")
	}
}
