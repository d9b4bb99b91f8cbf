package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/amanshu0143/backend/internal/sanitize"
	"github.com/amanshu0143/backend/internal/service"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"integrity", service.ErrIntegrity, http.StatusBadRequest},
		{"empty cart", service.ErrEmptyCart, http.StatusNotFound},
		{"product not found", service.ErrProductNotFound, http.StatusNotFound},
		{"already subscribed", service.ErrAlreadySubscribed, http.StatusConflict},
		{"cart required", service.ErrCartRequired, http.StatusBadRequest},
		{"address required", service.ErrAddressRequired, http.StatusBadRequest},
		{"email invalid", service.ErrEmailInvalid, http.StatusBadRequest},
		{"operator key", fmt.Errorf("wrapped: %w", sanitize.ErrOperatorKey), http.StatusBadRequest},
		{"not scalar", sanitize.ErrNotScalar, http.StatusBadRequest},
		{"product lookup", fmt.Errorf("%w: %w", service.ErrProductLookup, errors.New("dial tcp")), http.StatusInternalServerError},
		{"storage", fmt.Errorf("%w: %w", service.ErrStorage, errors.New("write concern")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := errorStatus(tt.err)
			if status != tt.status {
				t.Errorf("Expected status code %d, got %d", tt.status, status)
			}
			if message == "" {
				t.Error("Expected a client message")
			}
		})
	}
}

func TestErrorStatus_DoesNotLeakDetail(t *testing.T) {
	_, message := errorStatus(fmt.Errorf("%w: %w", service.ErrStorage, errors.New("mongo: secret-host:27017 unreachable")))
	if message != msgServerError {
		t.Errorf("Expected generic message, got %q", message)
	}
}
