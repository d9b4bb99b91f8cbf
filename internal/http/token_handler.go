package http

import (
	"log/slog"
	"net/http"

	"github.com/amanshu0143/backend/internal/auth"
)

type TokenIssuer interface {
	Issue() (string, *auth.Claims, error)
}

type TokenHandler struct {
	issuer TokenIssuer
	log    *slog.Logger
}

func NewTokenHandler(issuer TokenIssuer, log *slog.Logger) *TokenHandler {
	return &TokenHandler{issuer: issuer, log: log}
}

type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	token, claims, err := h.issuer.Issue()
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	h.log.InfoContext(r.Context(), "token issued", "client_id", claims.ClientID)
	respondJSON(w, http.StatusOK, TokenResponse{Success: true, Token: token})
}
