package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"property-brokerage-system/internal/app"
	"property-brokerage-system/internal/core/domain"
	"property-brokerage-system/internal/core/ports"
)

// PropertyHandler serves the property lifecycle surface: viewing and listing
// properties, placing orders, moderation, broker assignment and completion.
type PropertyHandler struct {
	listings   *app.ListingService
	orders     *app.OrderService
	moderation *app.ModerationService
	assignment *app.AssignmentService
	logger     *slog.Logger
}

func NewPropertyHandler(
	listings *app.ListingService,
	orders *app.OrderService,
	moderation *app.ModerationService,
	assignment *app.AssignmentService,
	logger *slog.Logger,
) *PropertyHandler {
	return &PropertyHandler{
		listings:   listings,
		orders:     orders,
		moderation: moderation,
		assignment: assignment,
		logger:     logger,
	}
}

// propertyResponse is the canonical wire shape; every endpoint returns this
// one representation instead of the shape-per-endpoint responses of old.
type propertyResponse struct {
	ID             uuid.UUID                  `json:"id"`
	Owner          uuid.UUID                  `json:"owner"`
	AssignedBroker *uuid.UUID                 `json:"assignedBroker,omitempty"`
	Status         domain.PropertyStatus      `json:"status"`
	Purpose        domain.Purpose             `json:"purpose"`
	Kind           domain.PropertyKind        `json:"propertyType"`
	Title          string                     `json:"title"`
	Price          float64                    `json:"price"`
	Currency       string                     `json:"currency"`
	Home           *domain.HomeDetails        `json:"home,omitempty"`
	Car            *domain.CarDetails         `json:"car,omitempty"`
	Electronics    *domain.ElectronicsDetails `json:"electronics,omitempty"`
	Images         []string                   `json:"images,omitempty"`
	FinalPrice     *float64                   `json:"finalPrice,omitempty"`
	CreatedAt      time.Time                  `json:"createdAt"`
	UpdatedAt      time.Time                  `json:"updatedAt"`
}

func toPropertyResponse(p *domain.Property) propertyResponse {
	return propertyResponse{
		ID:             p.ID,
		Owner:          p.OwnerID,
		AssignedBroker: p.AssignedBrokerID,
		Status:         p.Status,
		Purpose:        p.Purpose,
		Kind:           p.Kind,
		Title:          p.Title,
		Price:          p.Price,
		Currency:       p.Currency,
		Home:           p.Home,
		Car:            p.Car,
		Electronics:    p.Electronics,
		Images:         p.Images,
		FinalPrice:     p.FinalPrice,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toPropertyResponses(props []domain.Property) []propertyResponse {
	out := make([]propertyResponse, 0, len(props))
	for i := range props {
		out = append(out, toPropertyResponse(&props[i]))
	}
	return out
}

func (h *PropertyHandler) identity(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSONError(w, h.logger, "Unauthorized", http.StatusUnauthorized)
	}
	return id, ok
}

func (h *PropertyHandler) propertyID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, h.logger, "invalid property id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// HandleView serves GET /api/property/view/{id}.
func (h *PropertyHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	id, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	prop, err := h.listings.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{"property": toPropertyResponse(prop)})
}

type createPropertyRequest struct {
	Title       string                     `json:"title"`
	Purpose     domain.Purpose             `json:"purpose"`
	Kind        domain.PropertyKind        `json:"propertyType"`
	Price       float64                    `json:"price"`
	Currency    string                     `json:"currency"`
	Home        *domain.HomeDetails        `json:"home,omitempty"`
	Car         *domain.CarDetails         `json:"car,omitempty"`
	Electronics *domain.ElectronicsDetails `json:"electronics,omitempty"`
	Images      []string                   `json:"images,omitempty"`
}

// HandleCreate serves POST /api/property.
func (h *PropertyHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req createPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	prop, err := h.listings.Create(r.Context(), identity.UserID, identity.Role, app.NewListing{
		Title:       req.Title,
		Purpose:     req.Purpose,
		Kind:        req.Kind,
		Price:       req.Price,
		Currency:    req.Currency,
		Home:        req.Home,
		Car:         req.Car,
		Electronics: req.Electronics,
		Images:      req.Images,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusCreated, map[string]any{"property": toPropertyResponse(prop)})
}

// HandleList serves GET /api/property with optional status and limit query
// parameters. It doubles as the fallback behind the admin listing endpoint.
func (h *PropertyHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var filter ports.PropertyFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.PropertyStatus(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSONError(w, h.logger, "invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	props, err := h.listings.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{"properties": toPropertyResponses(props)})
}

// HandleListMine serves GET /api/property/my.
func (h *PropertyHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	props, err := h.listings.ListMine(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{"properties": toPropertyResponses(props)})
}

// HandleAdminListAll serves GET /api/property/admin/all-properties.
func (h *PropertyHandler) HandleAdminListAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	props, err := h.listings.ListAll(r.Context(), identity.Role)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{"properties": toPropertyResponses(props)})
}

// HandleBrokerAssigned serves GET /api/property/broker/assigned.
func (h *PropertyHandler) HandleBrokerAssigned(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	props, err := h.listings.ListAssigned(r.Context(), identity.UserID, identity.Role)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{"properties": toPropertyResponses(props)})
}

type placeOrderRequest struct {
	PaymentType string `json:"paymentType"`
}

// HandlePlaceOrder serves POST /api/property/{id}/order.
func (h *PropertyHandler) HandlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	var req placeOrderRequest
	if r.Body != nil {
		// Body is optional; paymentType defaults downstream.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	placed, err := h.orders.PlaceOrder(r.Context(), id, identity.UserID, identity.Role, req.PaymentType)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"orderId":    placed.Order.ID,
			"reference":  placed.Order.PaymentReference,
			"paymentUrl": placed.PaymentURL,
		},
	})
}

// HandleApprove serves PATCH /api/property/{id}/approve.
func (h *PropertyHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.moderation.Approve)
}

type updateStatusRequest struct {
	Status domain.PropertyStatus `json:"status"`
}

// HandleUpdateStatus serves PATCH /api/property/{id}, the generic
// moderation update used for both reject and cancel.
func (h *PropertyHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	prop, err := h.moderation.UpdateStatus(r.Context(), id, req.Status, identity.UserID, identity.Role)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{"property": toPropertyResponse(prop)})
}

type assignBrokerRequest struct {
	BrokerID uuid.UUID `json:"brokerId"`
}

// HandleAssignBroker serves PATCH /api/property/{id}/assign-broker.
func (h *PropertyHandler) HandleAssignBroker(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	var req assignBrokerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BrokerID == uuid.Nil {
		writeJSONError(w, h.logger, "brokerId is required", http.StatusBadRequest)
		return
	}

	assignment, err := h.assignment.Assign(r.Context(), id, req.BrokerID, identity.UserID, identity.Role)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{
		"data": map[string]any{
			"assignmentId": assignment.ID,
			"propertyId":   assignment.PropertyID,
			"brokerId":     assignment.BrokerID,
			"assignedBy":   assignment.AssignedBy,
			"assignedAt":   assignment.AssignedAt,
		},
	})
}

// HandleComplete serves PATCH /api/property/{id}/complete.
func (h *PropertyHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	prop, commission, err := h.moderation.CompleteOrder(r.Context(), id, identity.UserID, identity.Role)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{
		"property": toPropertyResponse(prop),
		"data":     map[string]any{"commission": commission},
	})
}

// HandleDelete serves DELETE /api/property/{id}.
func (h *PropertyHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	if err := h.moderation.Delete(r.Context(), id, identity.UserID, identity.Role); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{"message": "property deleted"})
}

// HandleCommission serves GET /api/property/{id}/commission.
func (h *PropertyHandler) HandleCommission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	view, err := h.listings.Commission(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{
		"data": map[string]any{
			"commission": view.Commission,
			"projection": view.Projection,
		},
	})
}

func (h *PropertyHandler) moderate(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, propertyID, actorID uuid.UUID, role domain.Role) (*domain.Property, error),
) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	prop, err := op(r.Context(), id, identity.UserID, identity.Role)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeSuccess(w, h.logger, http.StatusOK, map[string]any{"property": toPropertyResponse(prop)})
}
