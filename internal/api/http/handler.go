// Package http exposes the session operations over a JSON HTTP API.
// Responses carry session snapshots; errors use a single envelope with
// the machine-readable code and a message.
package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/midgame-live/midgame/internal/catalog"
	errs "github.com/midgame-live/midgame/internal/errors"
	"github.com/midgame-live/midgame/internal/match/domain"
	"github.com/midgame-live/midgame/internal/match/service"
)

// Handler serves the match API.
type Handler struct {
	service *service.Service
	logger  *log.Logger
}

// NewHandler builds a Handler over the service.
func NewHandler(svc *service.Service, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{service: svc, logger: logger}
}

// Register mounts the API routes on the router.
func (h *Handler) Register(router gin.IRouter) {
	router.GET("/healthz", h.health)

	games := router.Group("/api/games")
	games.POST("", h.createGame)
	games.GET("/:id", h.getGame)
	games.POST("/:id/join", h.joinGame)
	games.POST("/:id/moves", h.submitMove)
	games.GET("/:id/moves", h.listMoves)
	games.POST("/:id/leave", h.leaveGame)
}

// NewRouter builds a gin engine with the API mounted, recovery, and
// request logging.
func NewRouter(svc *service.Service, logger *log.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	NewHandler(svc, logger).Register(router)
	return router
}

type criteriaRequest struct {
	Player      string `json:"player"`
	Opening     string `json:"opening"`
	Theme       string `json:"theme"`
	Complexity  string `json:"complexity"`
	YearFrom    int    `json:"year_from"`
	YearTo      int    `json:"year_to"`
	MinInterest int    `json:"min_interest"`
}

func (r criteriaRequest) toCriteria() catalog.Criteria {
	return catalog.Criteria{
		Player:      r.Player,
		Opening:     r.Opening,
		Theme:       r.Theme,
		Complexity:  r.Complexity,
		YearFrom:    r.YearFrom,
		YearTo:      r.YearTo,
		MinInterest: r.MinInterest,
	}
}

type createGameRequest struct {
	Position    string           `json:"position"`
	Description string           `json:"description"`
	Criteria    *criteriaRequest `json:"criteria"`
}

type joinGameRequest struct {
	Role  string `json:"role" binding:"required,oneof=host guest"`
	Token string `json:"token"`
}

type submitMoveRequest struct {
	Token     string `json:"token" binding:"required"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
	Position  string `json:"position"`
	Notation  string `json:"notation"`
}

type leaveGameRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) createGame(c *gin.Context) {
	var req createGameRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeError(c, errs.Wrap(errs.CodeInvalidArgument, "malformed request body", err))
			return
		}
	}

	input := service.CreateSessionInput{
		Position:    req.Position,
		Description: req.Description,
	}
	if req.Criteria != nil {
		input.Criteria = req.Criteria.toCriteria()
	}

	result, err := h.service.CreateSession(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"game":       snapshotResponse(result.Snapshot),
		"host_color": result.HostColor,
		"host_token": result.HostToken,
	})
}

func (h *Handler) getGame(c *gin.Context) {
	snapshot, err := h.service.GetSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": snapshotResponse(snapshot)})
}

func (h *Handler) joinGame(c *gin.Context) {
	var req joinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errs.Wrap(errs.CodeInvalidArgument, "malformed request body", err))
		return
	}

	result, err := h.service.JoinSession(c.Request.Context(), service.JoinSessionInput{
		SessionID: c.Param("id"),
		Role:      domain.SeatRole(req.Role),
		Token:     req.Token,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"game":      snapshotResponse(result.Snapshot),
		"color":     result.Color,
		"token":     result.Token,
		"reconnect": result.Reconnect,
	})
}

func (h *Handler) submitMove(c *gin.Context) {
	var req submitMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errs.Wrap(errs.CodeInvalidArgument, "malformed request body", err))
		return
	}

	result, err := h.service.SubmitMove(c.Request.Context(), service.SubmitMoveInput{
		SessionID:       c.Param("id"),
		Token:           req.Token,
		From:            req.From,
		To:              req.To,
		Promotion:       req.Promotion,
		ClaimedPosition: req.Position,
		ClaimedNotation: req.Notation,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"game": snapshotResponse(result.Snapshot),
		"move": moveResponse(result.Record),
	})
}

func (h *Handler) listMoves(c *gin.Context) {
	records, err := h.service.ListMoves(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	moves := make([]gin.H, 0, len(records))
	for _, record := range records {
		moves = append(moves, moveResponse(record))
	}
	c.JSON(http.StatusOK, gin.H{"moves": moves})
}

func (h *Handler) leaveGame(c *gin.Context) {
	var req leaveGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errs.Wrap(errs.CodeInvalidArgument, "malformed request body", err))
		return
	}

	snapshot, err := h.service.LeaveSession(c.Request.Context(), c.Param("id"), req.Token)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": snapshotResponse(snapshot)})
}

// writeError renders the error envelope. Internal details stay in the
// log; clients get the code and message only.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Printf("http %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    errs.CodeOf(err),
			"message": err.Error(),
		},
	})
}

type seatResponse struct {
	Occupied bool       `json:"occupied"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

func seatView(view domain.SeatView) seatResponse {
	resp := seatResponse{Occupied: view.Occupied}
	if view.Occupied {
		joined, seen := view.JoinedAt, view.LastSeen
		resp.JoinedAt = &joined
		resp.LastSeen = &seen
	}
	return resp
}

func snapshotResponse(snapshot domain.Snapshot) gin.H {
	return gin.H{
		"id":               snapshot.SessionID,
		"lifecycle":        snapshot.Lifecycle,
		"current_turn":     snapshot.CurrentTurn,
		"host_color":       snapshot.HostColor,
		"guest_color":      snapshot.GuestColor,
		"initial_position": snapshot.InitialPosition,
		"current_position": snapshot.CurrentPosition,
		"description":      snapshot.Description,
		"seq":              snapshot.Seq,
		"version":          snapshot.Version,
		"outcome":          snapshot.Outcome,
		"white":            seatView(snapshot.White),
		"black":            seatView(snapshot.Black),
		"updated_at":       snapshot.UpdatedAt,
	}
}

func moveResponse(record domain.MoveRecord) gin.H {
	return gin.H{
		"session_id":     record.SessionID,
		"seq":            record.Seq,
		"color":          record.Color,
		"from":           record.Payload.From,
		"to":             record.Payload.To,
		"promotion":      record.Payload.Promotion,
		"notation":       record.Notation,
		"position_after": record.PositionAfter,
		"committed_at":   record.CommittedAt,
	}
}
