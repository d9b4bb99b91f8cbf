package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amanshu0143/backend/internal/domain"
)

type ProductLookup interface {
	LookupProduct(ctx context.Context, code, size string) (*domain.Product, error)
}

type CollectionHandler struct {
	catalog ProductLookup
	timeout time.Duration
	log     *slog.Logger
}

func NewCollectionHandler(catalog ProductLookup, timeout time.Duration, log *slog.Logger) *CollectionHandler {
	return &CollectionHandler{catalog: catalog, timeout: timeout, log: log}
}

// AddToCollectionRequestDTO names the product by its code in productName.
type AddToCollectionRequestDTO struct {
	ProductName string `json:"productName"`
	Size        string `json:"size"`
}

type AddToCollectionResponse struct {
	Success bool            `json:"success"`
	Product *domain.Product `json:"product"`
	Size    string          `json:"size"`
}

func (h *CollectionHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddToCollectionRequestDTO
	if err := decodeJSON(r, addToCollectionLoader, &req); err != nil {
		respondDecodeError(w, err, "Product name and size are required")
		return
	}

	product, err := h.catalog.LookupProduct(ctx, req.ProductName, req.Size)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, AddToCollectionResponse{
		Success: true,
		Product: product,
		Size:    strings.TrimSpace(req.Size),
	})
}
