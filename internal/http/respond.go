package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/amanshu0143/backend/internal/sanitize"
	"github.com/amanshu0143/backend/internal/service"
)

const (
	msgServerError      = "Server error. Please try again later."
	msgInvalidRequest   = "Invalid request."
	msgIntegrityFailure = "Order verification failed. The order data may have been tampered with."
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Error repeats Message for clients that read the older envelope.
	Error string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Success: false,
		Message: message,
		Error:   message,
	})
}

// errorStatus maps a domain error to its status and client message. Internal
// detail never reaches the client.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrIntegrity):
		return http.StatusBadRequest, msgIntegrityFailure
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusNotFound, "No valid products found for cart"
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, service.ErrAlreadySubscribed):
		return http.StatusConflict, "This email is already subscribed"
	case errors.Is(err, service.ErrCartRequired):
		return http.StatusBadRequest, "Invalid request. Cart items are required."
	case errors.Is(err, service.ErrAddressRequired):
		return http.StatusBadRequest, "Invalid request. Address details are required."
	case errors.Is(err, service.ErrEmailRequired):
		return http.StatusBadRequest, "Email is required"
	case errors.Is(err, service.ErrEmailInvalid):
		return http.StatusBadRequest, "Please enter a valid email address"
	case errors.Is(err, service.ErrProductRequired):
		return http.StatusBadRequest, "Product name and size are required"
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, sanitize.ErrOperatorKey),
		errors.Is(err, sanitize.ErrNotScalar):
		return http.StatusBadRequest, msgInvalidRequest
	default:
		return http.StatusInternalServerError, msgServerError
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		log.InfoContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	respondError(w, status, message)
}
