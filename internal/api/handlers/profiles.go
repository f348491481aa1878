package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starpool/starpool-backend/internal/api/httpx"
	"github.com/starpool/starpool-backend/internal/services"
)

type ProfileHandler struct {
	Balance *services.BalanceService
}

func NewProfileHandler(bs *services.BalanceService) *ProfileHandler {
	return &ProfileHandler{Balance: bs}
}

// Get returns the profile, creating an empty one on first sight.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Balance.GetOrCreateProfile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Balance.Transactions(r.Context(), chi.URLParam(r, "userID"), queryInt(r, "limit", 0))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *ProfileHandler) Contributions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Balance.Contributions(r.Context(), chi.URLParam(r, "userID"), queryInt(r, "limit", 0))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

type balanceReq struct {
	UserID      string `json:"user_id" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description"`
}

func (h *ProfileHandler) AddBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceReq
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid request", validationDetails(err))
		return
	}
	p, err := h.Balance.AddBalance(r.Context(), req.UserID, req.Amount, req.Description)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) DeductBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceReq
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid request", validationDetails(err))
		return
	}
	p, err := h.Balance.DeductBalance(r.Context(), req.UserID, req.Amount, req.Description)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}
