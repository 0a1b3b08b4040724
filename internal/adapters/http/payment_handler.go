package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"property-brokerage-system/internal/app"
	"property-brokerage-system/internal/core/domain"
)

// PaymentHandler serves the payment boundary: session initialization for
// returning buyers and the gateway's confirmation webhook.
type PaymentHandler struct {
	payments *app.PaymentService
	logger   *slog.Logger
}

func NewPaymentHandler(payments *app.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

type initializePaymentRequest struct {
	PropertyID  uuid.UUID `json:"propertyId"`
	PaymentType string    `json:"paymentType"`
}

// HandleInitialize serves POST /api/payments/initialize.
func (h *PaymentHandler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSONError(w, h.logger, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req initializePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PropertyID == uuid.Nil {
		writeJSONError(w, h.logger, "propertyId is required", http.StatusBadRequest)
		return
	}

	url, err := h.payments.Reinitialize(r.Context(), req.PropertyID, identity.UserID, req.PaymentType)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{
		"data": map[string]any{"paymentUrl": url},
	})
}

type webhookRequest struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// HandleWebhook serves POST /api/payments/webhook, the external gateway's
// callback. Delivery is at-least-once, so the confirmation path is
// idempotent per reference; a replay gets the same 200 as the original.
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reference == "" {
		writeJSONError(w, h.logger, "invalid callback payload", http.StatusBadRequest)
		return
	}

	var outcome domain.PaymentStatus
	switch req.Status {
	case "success", "completed":
		outcome = domain.PaymentCompleted
	case "failed", "cancelled":
		outcome = domain.PaymentFailed
	default:
		writeJSONError(w, h.logger, "unknown callback status", http.StatusBadRequest)
		return
	}

	if err := h.payments.Confirm(r.Context(), req.Reference, outcome); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{"message": "callback processed"})
}
