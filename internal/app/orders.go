package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"property-brokerage-system/internal/core/domain"
	"property-brokerage-system/internal/core/ports"
	"property-brokerage-system/internal/observability"
)

// OrderService orchestrates buyer-initiated ordering: eligibility checks,
// the atomic Available→Ordered flip, order creation and payment session
// initialization. A lost compare-and-set is surfaced as ErrAlreadyOrdered
// and is never retried here; the caller decides.
type OrderService struct {
	props     ports.PropertyRepository
	orders    ports.OrderRepository
	gateway   ports.PaymentGateway
	publisher ports.EventPublisher
	screener  ports.OrderScreener
	logger    *slog.Logger
}

func NewOrderService(
	props ports.PropertyRepository,
	orders ports.OrderRepository,
	gateway ports.PaymentGateway,
	publisher ports.EventPublisher,
	screener ports.OrderScreener,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		props:     props,
		orders:    orders,
		gateway:   gateway,
		publisher: publisher,
		screener:  screener,
		logger:    logger,
	}
}

// PlacedOrder is the result of a successful placement: the order row plus
// the checkout URL the buyer is redirected to.
type PlacedOrder struct {
	Order      *domain.Order
	PaymentURL string
}

// PlaceOrder claims an available property for the buyer. All-or-nothing: if
// the payment session cannot be opened, the status flip and the order row
// are both rolled back and the property is observable as Available again.
func (s *OrderService) PlaceOrder(ctx context.Context, propertyID, buyerID uuid.UUID, buyerRole domain.Role, paymentType string) (*PlacedOrder, error) {
	if buyerRole == domain.RoleAdmin || buyerRole == domain.RoleBroker {
		return nil, fmt.Errorf("%w: %s accounts cannot place orders", domain.ErrRoleNotAllowed, buyerRole)
	}

	prop, err := s.props.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop.OwnerID == buyerID {
		return nil, domain.ErrOwnProperty
	}

	if _, err := domain.Transition(prop.Status, domain.EventOrder, buyerRole, prop.Purpose); err != nil {
		// A listing already claimed by another buyer reads as a conflict,
		// not a generic bad transition.
		switch prop.Status {
		case domain.StatusOrdered, domain.StatusPaymentPending, domain.StatusSold, domain.StatusRented:
			return nil, domain.ErrAlreadyOrdered
		}
		return nil, err
	}

	// The compare-and-set is what guarantees at most one successful order:
	// of N concurrent placements exactly one flip succeeds.
	if err := s.props.UpdateStatus(ctx, prop.ID, domain.StatusAvailable, domain.StatusOrdered); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return nil, domain.ErrAlreadyOrdered
		}
		return nil, err
	}

	order := &domain.Order{
		ID:               uuid.New(),
		PropertyID:       prop.ID,
		BuyerID:          buyerID,
		PaymentReference: uuid.NewString(),
		PaymentStatus:    domain.PaymentPending,
		Amount:           prop.Price,
		Currency:         prop.Currency,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.revert(ctx, prop.ID)
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	paymentURL, err := s.gateway.Initialize(ctx, order, paymentType)
	if err != nil {
		// Partial success must not be observable: drop the order row and
		// put the listing back on the market.
		if derr := s.orders.Delete(ctx, order.ID); derr != nil {
			s.logger.Error("rollback: failed to delete order", "order_id", order.ID, "error", derr)
		}
		s.revert(ctx, prop.ID)
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentInit, err)
	}

	screening := s.screener.ScreenOrder(ctx, buyerID, order.Amount)
	if screening.Flagged {
		s.logger.Warn("order flagged by screening",
			"order_id", order.ID, "buyer_id", buyerID, "reason", screening.Reason)
	}

	observability.OrdersPlaced.Inc()
	s.publish(ctx, domain.LifecycleEvent{
		Type:            domain.PropertyOrdered,
		PropertyID:      prop.ID,
		ActorID:         buyerID,
		ActorRole:       buyerRole,
		Status:          domain.StatusOrdered,
		Purpose:         prop.Purpose,
		OrderID:         &order.ID,
		Flagged:         screening.Flagged,
		ScreeningReason: screening.Reason,
		OccurredAt:      order.CreatedAt,
	})

	return &PlacedOrder{Order: order, PaymentURL: paymentURL}, nil
}

// revert undoes the placement's status flip. Losing this compare-and-set
// means an admin already moved the property elsewhere; in that case the
// admin's change stands.
func (s *OrderService) revert(ctx context.Context, propertyID uuid.UUID) {
	if err := s.props.UpdateStatus(ctx, propertyID, domain.StatusOrdered, domain.StatusAvailable); err != nil {
		s.logger.Error("rollback: failed to revert property status",
			"property_id", propertyID, "error", err)
	}
}

func (s *OrderService) publish(ctx context.Context, ev domain.LifecycleEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Error("failed to publish lifecycle event", "type", ev.Type, "error", err)
	}
}
