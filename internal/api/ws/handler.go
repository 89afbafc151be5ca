// Package ws streams session snapshots to observers over a WebSocket.
// It is the push propagation surface: a client subscribes to one
// session and receives every state change in version order, starting
// with the current state.
package ws

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	errs "github.com/midgame-live/midgame/internal/errors"
	"github.com/midgame-live/midgame/internal/match/broadcast"
	"github.com/midgame-live/midgame/internal/match/domain"
)

const pingInterval = 15 * time.Second

// Handler upgrades subscribe requests and streams snapshots.
type Handler struct {
	subscriber broadcast.Subscriber
	load       broadcast.SnapshotFunc
	logger     *log.Logger
}

// NewHandler builds a Handler. load verifies the session exists before
// the connection is upgraded.
func NewHandler(subscriber broadcast.Subscriber, load broadcast.SnapshotFunc, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{subscriber: subscriber, load: load, logger: logger}
}

// Register mounts the subscribe route on the router.
func (h *Handler) Register(router gin.IRouter) {
	router.GET("/ws/games/:id", h.subscribe)
}

// stateMessage is the wire envelope for one snapshot.
type stateMessage struct {
	Type string    `json:"type"`
	Game gameState `json:"game"`
}

type gameState struct {
	ID              string           `json:"id"`
	Lifecycle       domain.Lifecycle `json:"lifecycle"`
	CurrentTurn     domain.Color     `json:"current_turn"`
	HostColor       domain.Color     `json:"host_color"`
	GuestColor      domain.Color     `json:"guest_color"`
	InitialPosition string           `json:"initial_position"`
	CurrentPosition string           `json:"current_position"`
	Description     string           `json:"description"`
	Seq             uint64           `json:"seq"`
	Version         uint64           `json:"version"`
	Outcome         string           `json:"outcome"`
	WhiteOccupied   bool             `json:"white_occupied"`
	BlackOccupied   bool             `json:"black_occupied"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func toGameState(snapshot domain.Snapshot) gameState {
	return gameState{
		ID:              snapshot.SessionID,
		Lifecycle:       snapshot.Lifecycle,
		CurrentTurn:     snapshot.CurrentTurn,
		HostColor:       snapshot.HostColor,
		GuestColor:      snapshot.GuestColor,
		InitialPosition: snapshot.InitialPosition,
		CurrentPosition: snapshot.CurrentPosition,
		Description:     snapshot.Description,
		Seq:             snapshot.Seq,
		Version:         snapshot.Version,
		Outcome:         snapshot.Outcome,
		WhiteOccupied:   snapshot.White.Occupied,
		BlackOccupied:   snapshot.Black.Occupied,
		UpdatedAt:       snapshot.UpdatedAt,
	}
}

func (h *Handler) subscribe(c *gin.Context) {
	sessionID := c.Param("id")
	ctx := c.Request.Context()

	// Reject unknown sessions before upgrading.
	current, err := h.load(ctx, sessionID)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": gin.H{
			"code":    errs.CodeOf(err),
			"message": err.Error(),
		}})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	subscription, err := h.subscriber.Subscribe(ctx, sessionID)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer subscription.Close()

	// The client is not expected to send anything; the reader exists to
	// notice the connection closing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	// The loaded state is the first frame. The subscription may replay
	// the same snapshot (the broker retains the latest per session), so
	// the loop drops anything at or below the version already written.
	if err := wsjson.Write(ctx, conn, stateMessage{Type: "state", Game: toGameState(current)}); err != nil {
		h.logger.Printf("ws session %s write: %v", sessionID, err)
		return
	}
	lastSent := current.Version

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ping.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case snapshot, ok := <-subscription.Snapshots():
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "session stream ended")
				return
			}
			if snapshot.Version <= lastSent {
				continue
			}
			lastSent = snapshot.Version
			if err := wsjson.Write(ctx, conn, stateMessage{Type: "state", Game: toGameState(snapshot)}); err != nil {
				h.logger.Printf("ws session %s write: %v", sessionID, err)
				return
			}
		}
	}
}
