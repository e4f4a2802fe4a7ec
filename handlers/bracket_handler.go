package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
)

type BracketHandler struct {
	bracketService services.BracketService
	payoutService  services.PayoutService
}

func NewBracketHandler(bracketService services.BracketService, payoutService services.PayoutService) *BracketHandler {
	return &BracketHandler{
		bracketService: bracketService,
		payoutService:  payoutService,
	}
}

type createBracketRequest struct {
	Seeds []string `json:"seeds"`
	Kind  string   `json:"kind"`
}

// CreateBracket handles POST /tournaments/{tournamentID}/bracket.
// Idempotent: repeat calls return the already-stored bracket.
func (h *BracketHandler) CreateBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")

	var req createBracketRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.CreateBracket(r.Context(), tournamentID, req.Seeds, models.BracketKind(req.Kind))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, bracket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")

	bracket, err := h.bracketService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, bracket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")

	summary, err := h.payoutService.GetSummary(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, summary, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")

	var input services.FinalizeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	payout, err := h.payoutService.Finalize(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, payout, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) GetPayout(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")

	payout, err := h.payoutService.GetPayout(r.Context(), tournamentID)
	if err != nil {
		if errors.Is(err, services.ErrPayoutNotFound) {
			notFoundResponse(w, r)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, payout, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
