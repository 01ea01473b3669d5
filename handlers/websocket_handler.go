package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tripbites/tournament-ranking/brackets"
	"github.com/tripbites/tournament-ranking/middleware"
	"github.com/tripbites/tournament-ranking/services"
)

type WebSocketHandler struct {
	hub               *brackets.Hub
	upgrader          websocket.Upgrader
	tournamentService services.TournamentService
	logger            *slog.Logger
}

// NewWebSocketHandler accepts connections from allowedOrigins; an empty
// list allows any origin.
func NewWebSocketHandler(hub *brackets.Hub, ts services.TournamentService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return len(allowed) == 0 || allowed[r.Header.Get("Origin")]
			},
		},
		tournamentService: ts,
		logger:            logger,
	}
}

// ServeWs godoc
// @Summary Live vote feed of a tournament
// @Description Upgrades to a websocket that receives VOTE_RECORDED events.
// @Tags tournaments
// @Param tournamentID path string true "Tournament ID"
// @Param token query string false "JWT when the Authorization header cannot be set"
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string "Not a trip member"
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /ws/tournaments/{tournamentID} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to follow a tournament")
		return
	}
	// Membership is checked before the upgrade so refusals are plain HTTP.
	if _, err := h.tournamentService.Get(r.Context(), tournamentID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Warn("websocket upgrade failed", slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	room := brackets.RoomForTournament(tournamentID)
	h.hub.Serve(brackets.NewClient(h.hub, conn, room))
	h.logger.Debug("websocket connected", slog.String("room", room))
}
