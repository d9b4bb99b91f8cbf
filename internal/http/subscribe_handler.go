package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/amanshu0143/backend/internal/domain"
)

type Subscriber interface {
	Subscribe(ctx context.Context, email string) (*domain.Subscriber, error)
}

type SubscribeHandler struct {
	svc     Subscriber
	timeout time.Duration
	log     *slog.Logger
}

func NewSubscribeHandler(svc Subscriber, timeout time.Duration, log *slog.Logger) *SubscribeHandler {
	return &SubscribeHandler{svc: svc, timeout: timeout, log: log}
}

type SubscribeRequestDTO struct {
	Email string `json:"email"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SubscribeRequestDTO
	if err := decodeJSON(r, subscribeLoader, &req); err != nil {
		respondDecodeError(w, err, "Please enter a valid email address")
		return
	}

	if _, err := h.svc.Subscribe(ctx, req.Email); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, MessageResponse{Message: "Subscription successful!"})
}

func respondDecodeError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, errBodyTooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	respondError(w, http.StatusBadRequest, message)
}
