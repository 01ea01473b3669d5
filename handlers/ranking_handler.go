package handlers

import (
	"net/http"

	"github.com/tripbites/tournament-ranking/middleware"
	"github.com/tripbites/tournament-ranking/services"
)

type RankingHandler struct {
	rankingService services.RankingService
}

func NewRankingHandler(rs services.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rs}
}

// GenerateHandler godoc
// @Summary Recompute the trip's composite ranking
// @Description Sentiment failures fall back to neutral scores. "saved" is false when the snapshot could not be stored.
// @Tags rankings
// @Produce json
// @Param tripID path string true "Trip ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Fewer than 2 rated entries"
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string "Not a trip member"
// @Failure 503 {object} map[string]string
// @Security BearerAuth
// @Router /trips/{tripID}/rankings [post]
func (h *RankingHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	tripID, err := getIDFromURL(r, "tripID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to generate a ranking")
		return
	}

	result, err := h.rankingService.Generate(r.Context(), tripID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ranking": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LatestHandler godoc
// @Summary Get the last stored ranking of a trip
// @Tags rankings
// @Produce json
// @Param tripID path string true "Trip ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string "Not a trip member"
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /trips/{tripID}/rankings [get]
func (h *RankingHandler) LatestHandler(w http.ResponseWriter, r *http.Request) {
	tripID, err := getIDFromURL(r, "tripID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to view rankings")
		return
	}

	snapshot, err := h.rankingService.Latest(r.Context(), tripID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ranking": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
