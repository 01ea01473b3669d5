package handlers

import (
	"net/http"

	"github.com/tripbites/tournament-ranking/middleware"
	"github.com/tripbites/tournament-ranking/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

// CreateHandler godoc
// @Summary Start an elimination tournament for a trip
// @Tags tournaments
// @Produce json
// @Param tripID path string true "Trip ID"
// @Success 201 {object} map[string]interface{} "Tournament created"
// @Failure 400 {object} map[string]string "Fewer than 2 entries"
// @Failure 401 {object} map[string]string "Unauthenticated"
// @Failure 403 {object} map[string]string "Not a trip member"
// @Failure 409 {object} map[string]string "A tournament is already running"
// @Security BearerAuth
// @Router /trips/{tripID}/tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	tripID, err := getIDFromURL(r, "tripID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create a tournament")
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), tripID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetActiveHandler godoc
// @Summary Get the trip's running tournament
// @Tags tournaments
// @Produce json
// @Param tripID path string true "Trip ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Not a trip member"
// @Failure 404 {object} map[string]string "No active tournament"
// @Security BearerAuth
// @Router /trips/{tripID}/tournaments/active [get]
func (h *TournamentHandler) GetActiveHandler(w http.ResponseWriter, r *http.Request) {
	tripID, err := getIDFromURL(r, "tripID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to view tournaments")
		return
	}

	tournament, err := h.tournamentService.GetActive(r.Context(), tripID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
