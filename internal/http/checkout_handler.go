package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/amanshu0143/backend/internal/domain"
	"github.com/amanshu0143/backend/internal/sanitize"
	"github.com/amanshu0143/backend/internal/service"
	"github.com/shopspring/decimal"
)

type Checkouter interface {
	Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.SignedOrder, error)
	VerifyAndPersist(ctx context.Context, order domain.SignedOrder) (*domain.PersistedOrder, error)
}

type CheckoutHandler struct {
	svc       Checkouter
	sanitizer *sanitize.Sanitizer
	timeout   time.Duration
	log       *slog.Logger
}

func NewCheckoutHandler(svc Checkouter, sanitizer *sanitize.Sanitizer, timeout time.Duration, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		svc:       svc,
		sanitizer: sanitizer,
		timeout:   timeout,
		log:       log,
	}
}

type CheckoutRequestDTO struct {
	Cart    interface{} `json:"cart"`
	Address interface{} `json:"address"`
}

type CheckoutResponse struct {
	Success   bool                `json:"success"`
	Order     *domain.SignedOrder `json:"order"`
	OrderHash string              `json:"orderHash"`
}

// Checkout prices the submitted cart and returns it signed. The cart and
// address arrive untyped and are cleaned here, before pricing and signing.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := decodeJSON(r, nil, &req); err != nil {
		respondDecodeError(w, err, msgInvalidRequest)
		return
	}

	rawCart, ok := req.Cart.([]interface{})
	if !ok || len(rawCart) == 0 {
		handleServiceError(w, r, h.log, service.ErrCartRequired)
		return
	}
	rawAddress, ok := req.Address.(map[string]interface{})
	if !ok {
		handleServiceError(w, r, h.log, service.ErrAddressRequired)
		return
	}

	if err := sanitize.RejectOperators(rawCart); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	address, err := h.sanitizer.Address(rawAddress)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	order, err := h.svc.Checkout(ctx, domain.CheckoutRequest{
		Cart:    cartLines(rawCart),
		Address: address,
	})
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponse{
		Success:   true,
		Order:     order,
		OrderHash: order.Hash,
	})
}

// cartLines keeps only string codes and sizes. Anything else becomes blank
// and the line is dropped during pricing.
func cartLines(raw []interface{}) []domain.CartLineInput {
	lines := make([]domain.CartLineInput, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			lines = append(lines, domain.CartLineInput{})
			continue
		}
		lines = append(lines, domain.CartLineInput{
			ProductCode: sanitize.Text(m["productCode"]),
			Size:        sanitize.Text(m["size"]),
		})
	}
	return lines
}

type SignedLineDTO struct {
	ID          string          `json:"_id"`
	ProductCode string          `json:"productCode"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Size        string          `json:"size"`
}

type SignedOrderDTO struct {
	Cart    []SignedLineDTO        `json:"cart"`
	Address map[string]interface{} `json:"address"`
	Pricing domain.PricingSummary  `json:"pricing"`
}

type VerifyAndSaveRequestDTO struct {
	SignedOrderDTO
	Hash string `json:"hash"`
}

type SaveOrderRequestDTO struct {
	Order     SignedOrderDTO `json:"order"`
	OrderHash string         `json:"orderHash"`
}

type VerifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

// VerifyAndSave accepts {cart, address, pricing, hash}.
func (h *CheckoutHandler) VerifyAndSave(w http.ResponseWriter, r *http.Request) {
	var req VerifyAndSaveRequestDTO
	if err := decodeJSON(r, verifyAndSaveLoader, &req); err != nil {
		h.rejectVerification(w, r, err)
		return
	}
	h.verify(w, r, req.SignedOrderDTO, req.Hash)
}

// SaveOrder accepts {order: {cart, address, pricing}, orderHash}.
func (h *CheckoutHandler) SaveOrder(w http.ResponseWriter, r *http.Request) {
	var req SaveOrderRequestDTO
	if err := decodeJSON(r, saveOrderLoader, &req); err != nil {
		h.rejectVerification(w, r, err)
		return
	}
	h.verify(w, r, req.Order, req.OrderHash)
}

func (h *CheckoutHandler) verify(w http.ResponseWriter, r *http.Request, dto SignedOrderDTO, hash string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// address text is hashed as received, cleaning happens after verification
	address, err := sanitize.CoerceAddress(dto.Address)
	if err != nil {
		h.rejectVerification(w, r, err)
		return
	}

	if !dto.Pricing.InRange() {
		h.rejectVerification(w, r, errAmountRange)
		return
	}

	cart := make([]domain.PricedLine, 0, len(dto.Cart))
	for _, l := range dto.Cart {
		if !domain.AmountInRange(l.Price) {
			h.rejectVerification(w, r, errAmountRange)
			return
		}
		cart = append(cart, domain.PricedLine{
			ProductID:   l.ID,
			ProductCode: l.ProductCode,
			ProductName: l.ProductName,
			Price:       l.Price,
			ImageURL:    l.ImageURL,
			Size:        l.Size,
		})
	}

	persisted, err := h.svc.VerifyAndPersist(ctx, domain.SignedOrder{
		Cart:    cart,
		Address: address,
		Pricing: dto.Pricing,
		Hash:    hash,
	})
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, VerifyResponse{
		Success: true,
		Message: "Order verified and saved successfully",
		OrderID: persisted.ID,
	})
}

// rejectVerification answers malformed verification requests exactly like a
// hash mismatch.
func (h *CheckoutHandler) rejectVerification(w http.ResponseWriter, r *http.Request, err error) {
	h.log.InfoContext(r.Context(), "verification request rejected", "error", err)
	respondError(w, http.StatusBadRequest, msgIntegrityFailure)
}
