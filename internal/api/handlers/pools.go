package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starpool/starpool-backend/internal/api/httpx"
	"github.com/starpool/starpool-backend/internal/middleware"
	"github.com/starpool/starpool-backend/internal/models"
	"github.com/starpool/starpool-backend/internal/services"
)

type PoolHandler struct {
	Pools    *services.PoolService
	Contribs *services.ContributionService
}

func NewPoolHandler(ps *services.PoolService, cs *services.ContributionService) *PoolHandler {
	return &PoolHandler{Pools: ps, Contribs: cs}
}

type poolResponse struct {
	models.Pool
	CompletionPercentage float64 `json:"completion_percentage"`
}

func toPoolResponse(p models.Pool) poolResponse {
	return poolResponse{Pool: p, CompletionPercentage: p.CompletionPercent()}
}

type createPoolReq struct {
	CreatorName        string  `json:"creator_name" validate:"required"`
	ContentTitle       string  `json:"content_title" validate:"required"`
	ContentDescription string  `json:"content_description"`
	ContentType        string  `json:"content_type"`
	TotalCost          int64   `json:"total_cost" validate:"required,gt=0"`
	DurationDays       int     `json:"duration_days" validate:"omitempty,gt=0"`
	MaxContributors    int     `json:"max_contributors" validate:"omitempty,gt=0"`
	RequestID          *string `json:"request_id"`
}

func (h *PoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPoolReq
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid request", validationDetails(err))
		return
	}
	createdBy, _ := middleware.UserID(r.Context())
	p, err := h.Pools.Create(r.Context(), services.CreatePoolInput{
		CreatorName:        req.CreatorName,
		ContentTitle:       req.ContentTitle,
		ContentDescription: req.ContentDescription,
		ContentType:        req.ContentType,
		TotalCost:          req.TotalCost,
		CreatedBy:          createdBy,
		DurationDays:       req.DurationDays,
		MaxContributors:    req.MaxContributors,
		RequestID:          req.RequestID,
	})
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toPoolResponse(p))
}

func (h *PoolHandler) List(w http.ResponseWriter, r *http.Request) {
	pools, err := h.Pools.ListActive(r.Context(), queryInt(r, "limit", 0), r.URL.Query().Get("creator"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	out := make([]poolResponse, 0, len(pools))
	for _, p := range pools {
		out = append(out, toPoolResponse(p))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *PoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Pools.Get(r.Context(), chi.URLParam(r, "poolID"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPoolResponse(p))
}

func (h *PoolHandler) Contributors(w http.ResponseWriter, r *http.Request) {
	list, err := h.Pools.Contributors(r.Context(), chi.URLParam(r, "poolID"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *PoolHandler) Events(w http.ResponseWriter, r *http.Request) {
	list, err := h.Pools.EventsFor(r.Context(), chi.URLParam(r, "poolID"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

type contributeReq struct {
	UserID           string `json:"user_id" validate:"required"`
	PaymentReference string `json:"payment_reference"`
}

type contributeResp struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	AmountCharged int64  `json:"amount_charged,omitempty"`
	NextPrice     int64  `json:"next_price,omitempty"`
	PoolCompleted bool   `json:"pool_completed"`
	Error         string `json:"error,omitempty"`
}

// Contribute reports business failures in the structured contribution body
// rather than the generic error envelope, so clients always get success plus
// a human-readable message.
func (h *PoolHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	var req contributeReq
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid request", validationDetails(err))
		return
	}
	out, err := h.Contribs.Contribute(r.Context(), chi.URLParam(r, "poolID"), req.UserID, req.PaymentReference)
	if err != nil {
		status, code := httpx.ErrorStatus(err)
		if status == http.StatusInternalServerError {
			httpx.WriteServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, status, contributeResp{Success: false, Error: code, Message: err.Error()})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, contributeResp{
		Success:       true,
		Message:       out.Message,
		AmountCharged: out.AmountCharged,
		NextPrice:     out.NextPrice,
		PoolCompleted: out.PoolCompleted,
	})
}

type completePoolReq struct {
	ContentURL    string  `json:"content_url" validate:"required"`
	LandingPageID *string `json:"landing_page_id"`
}

func (h *PoolHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completePoolReq
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid request", validationDetails(err))
		return
	}
	p, err := h.Pools.Complete(r.Context(), chi.URLParam(r, "poolID"), req.ContentURL, req.LandingPageID)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPoolResponse(p))
}

type cancelPoolReq struct {
	Reason string `json:"reason"`
}

type cancelPoolResp struct {
	Success  bool `json:"success"`
	Refunded int  `json:"refunded"`
}

func (h *PoolHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelPoolReq
	_ = json.NewDecoder(r.Body).Decode(&req) // body (and reason) optional

	refunded, err := h.Pools.Cancel(r.Context(), chi.URLParam(r, "poolID"), req.Reason)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cancelPoolResp{Success: true, Refunded: refunded})
}

type cleanupResp struct {
	Cleaned int `json:"cleaned"`
}

func (h *PoolHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	cleaned, err := h.Pools.CleanupExpired(r.Context())
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cleanupResp{Cleaned: cleaned})
}
