// internal/api/handlers/auth.go
package handlers

import (
	"net/http"
	"time"

	"github.com/starpool/starpool-backend/internal/api/httpx"
	"github.com/starpool/starpool-backend/internal/auth"
	"github.com/starpool/starpool-backend/internal/config"
)

type AuthHandler struct {
	TM  *auth.TokenManager
	Cfg config.Config
}

func NewAuthHandler(tm *auth.TokenManager, cfg config.Config) *AuthHandler {
	return &AuthHandler{TM: tm, Cfg: cfg}
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}

// Login authenticates the configured admin principal.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid request", validationDetails(err))
		return
	}

	// no hash configured means admin login is switched off
	if h.Cfg.AdminPasswordHash == "" {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "admin login disabled", nil)
		return
	}
	if req.Username != h.Cfg.AdminUsername ||
		auth.VerifyPassword(req.Password, h.Cfg.AdminPasswordHash) != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
		return
	}

	access, refresh, exp, err := h.TM.GeneratePair(req.Username, "admin")
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "token generation failed", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(exp).Seconds()),
	})
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid request", validationDetails(err))
		return
	}
	claims, isRefresh, err := h.TM.ParseAny(req.RefreshToken)
	if err != nil || !isRefresh {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
		return
	}
	access, refresh, exp, err := h.TM.GeneratePair(claims.UserID, claims.Role)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "token generation failed", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(exp).Seconds()),
	})
}
