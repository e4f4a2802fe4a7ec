package handlers

import (
	"net/http"

	"github.com/Dosada05/bracket-engine/middleware"
	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// Report handles POST /tournaments/{tournamentID}/matches/{matchID}/report.
func (h *MatchHandler) Report(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	matchID := chi.URLParam(r, "matchID")

	var input services.ReportInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.matchService.ReportResult(r.Context(), tournamentID, matchID, input, middleware.ActorIDFromContext(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, bracket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Override handles POST /tournaments/{tournamentID}/matches/{matchID}/override.
func (h *MatchHandler) Override(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	matchID := chi.URLParam(r, "matchID")

	var input services.OverrideInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.matchService.OverrideResult(r.Context(), tournamentID, matchID, input, middleware.ActorIDFromContext(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, bracket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type editScoreRequest struct {
	Score1 int `json:"score1"`
	Score2 int `json:"score2"`
}

// EditScore handles PATCH /tournaments/{tournamentID}/matches/{matchID}/score.
// Only the numbers may change; an edit that would flip the winner is rejected.
func (h *MatchHandler) EditScore(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	matchID := chi.URLParam(r, "matchID")

	var req editScoreRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.matchService.EditScore(r.Context(), tournamentID, matchID, req.Score1, req.Score2, middleware.ActorIDFromContext(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, bracket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Reset handles POST /tournaments/{tournamentID}/matches/{matchID}/reset.
func (h *MatchHandler) Reset(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	matchID := chi.URLParam(r, "matchID")

	bracket, err := h.matchService.ResetResult(r.Context(), tournamentID, matchID, middleware.ActorIDFromContext(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, bracket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
