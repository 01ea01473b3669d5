package handlers

import (
	"net/http"
	"strings"

	"github.com/tripbites/tournament-ranking/middleware"
	"github.com/tripbites/tournament-ranking/services"
)

type VoteHandler struct {
	votingService services.VotingService
}

func NewVoteHandler(vs services.VotingService) *VoteHandler {
	return &VoteHandler{votingService: vs}
}

type castVoteInput struct {
	WinnerID string `json:"winner_id"`
}

// StateHandler godoc
// @Summary Get the caller's current match
// @Description Pending byes are recorded before the state is returned.
// @Tags votes
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/state [get]
func (h *VoteHandler) StateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	sess, err := h.votingService.Load(r.Context(), tournamentID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": sess.State()}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CastHandler godoc
// @Summary Vote for the winner of the caller's current match
// @Tags votes
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param input body castVoteInput true "Winner"
// @Success 201 {object} map[string]interface{} "Next state"
// @Failure 400 {object} map[string]string "Winner not in the current match"
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string "Bracket complete or vote in flight"
// @Failure 503 {object} map[string]string "Vote not recorded, retry"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/votes [post]
func (h *VoteHandler) CastHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to vote")
		return
	}

	var input castVoteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.votingService.CastVote(r.Context(), tournamentID, currentUserID, strings.TrimSpace(input.WinnerID))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResultsHandler godoc
// @Summary Win tallies across every voter
// @Tags votes
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string "Not a trip member"
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/results [get]
func (h *VoteHandler) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to view results")
		return
	}

	results, err := h.votingService.Results(r.Context(), tournamentID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
