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

// PaymentService handles the two sides of the payment boundary: opening a
// session for an existing pending order, and processing gateway callbacks.
// Callbacks arrive at-least-once; Confirm is keyed by payment reference and
// is a no-op on a replay of an already-applied outcome.
type PaymentService struct {
	props      ports.PropertyRepository
	orders     ports.OrderRepository
	gateway    ports.PaymentGateway
	publisher  ports.EventPublisher
	autoSettle bool
	logger     *slog.Logger
}

func NewPaymentService(
	props ports.PropertyRepository,
	orders ports.OrderRepository,
	gateway ports.PaymentGateway,
	publisher ports.EventPublisher,
	autoSettle bool,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		props:      props,
		orders:     orders,
		gateway:    gateway,
		publisher:  publisher,
		autoSettle: autoSettle,
		logger:     logger,
	}
}

// Reinitialize opens a fresh payment session for a property's pending order,
// for buyers returning to an unfinished checkout. Only the buyer who placed
// the order may reopen it.
func (s *PaymentService) Reinitialize(ctx context.Context, propertyID, callerID uuid.UUID, paymentType string) (string, error) {
	order, err := s.orders.ActiveByProperty(ctx, propertyID)
	if err != nil {
		return "", err
	}
	if order.BuyerID != callerID {
		return "", fmt.Errorf("%w: order belongs to another buyer", domain.ErrRoleNotAllowed)
	}
	if order.PaymentStatus != domain.PaymentPending {
		return "", fmt.Errorf("%w: payment already %s", domain.ErrInvalidTransition, order.PaymentStatus)
	}

	url, err := s.gateway.Initialize(ctx, order, paymentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPaymentInit, err)
	}
	return url, nil
}

// Confirm applies a gateway callback. The compare-and-set on the order's
// payment status is the exactly-once gate: of two concurrent deliveries of
// the same reference, one applies the transition and the other observes the
// recorded outcome and returns nil without side effects. A replay carrying a
// different outcome than recorded is rejected.
func (s *PaymentService) Confirm(ctx context.Context, paymentReference string, outcome domain.PaymentStatus) error {
	if outcome != domain.PaymentCompleted && outcome != domain.PaymentFailed {
		return fmt.Errorf("%w: unsupported callback outcome %q", domain.ErrInvalidInput, outcome)
	}

	order, err := s.orders.GetByPaymentReference(ctx, paymentReference)
	if err != nil {
		return err
	}

	if order.PaymentStatus != domain.PaymentPending {
		if order.PaymentStatus == outcome {
			observability.PaymentCallbacks.WithLabelValues("replay").Inc()
			return nil
		}
		return fmt.Errorf("%w: recorded %s, callback says %s",
			domain.ErrInconsistentCallback, order.PaymentStatus, outcome)
	}

	if err := s.orders.SetPaymentStatus(ctx, order.ID, domain.PaymentPending, outcome); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			// Lost to a concurrent delivery; re-read and judge the replay.
			current, gerr := s.orders.Get(ctx, order.ID)
			if gerr != nil {
				return gerr
			}
			if current.PaymentStatus == outcome {
				observability.PaymentCallbacks.WithLabelValues("replay").Inc()
				return nil
			}
			return fmt.Errorf("%w: recorded %s, callback says %s",
				domain.ErrInconsistentCallback, current.PaymentStatus, outcome)
		}
		return err
	}

	prop, err := s.props.Get(ctx, order.PropertyID)
	if err != nil {
		return err
	}

	if outcome == domain.PaymentFailed {
		return s.applyFailure(ctx, prop, order)
	}
	return s.applyCompletion(ctx, prop, order)
}

func (s *PaymentService) applyFailure(ctx context.Context, prop *domain.Property, order *domain.Order) error {
	next, err := domain.Transition(prop.Status, domain.EventPaymentFailed, domain.RoleSystem, prop.Purpose)
	if err != nil {
		// An admin cancelled the listing while the callback was in flight;
		// the order is closed either way.
		s.logger.Warn("payment failed on a property no longer ordered",
			"property_id", prop.ID, "status", prop.Status)
		return nil
	}
	if err := s.props.UpdateStatus(ctx, prop.ID, prop.Status, next); err != nil && !errors.Is(err, domain.ErrStatusConflict) {
		return err
	}

	observability.PaymentCallbacks.WithLabelValues("failed").Inc()
	s.publishEvent(ctx, domain.LifecycleEvent{
		Type:       domain.PropertyPaymentFailed,
		PropertyID: prop.ID,
		ActorID:    order.BuyerID,
		ActorRole:  domain.RoleSystem,
		Status:     next,
		Purpose:    prop.Purpose,
		OrderID:    &order.ID,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

func (s *PaymentService) applyCompletion(ctx context.Context, prop *domain.Property, order *domain.Order) error {
	next, err := domain.Transition(prop.Status, domain.EventPaymentConfirmed, domain.RoleSystem, prop.Purpose)
	if err != nil {
		return err
	}
	if err := s.props.UpdateStatus(ctx, prop.ID, prop.Status, next); err != nil {
		return err
	}
	prop.Status = next

	observability.PaymentCallbacks.WithLabelValues("completed").Inc()
	s.publishEvent(ctx, domain.LifecycleEvent{
		Type:       domain.PropertyPaymentConfirmed,
		PropertyID: prop.ID,
		ActorID:    order.BuyerID,
		ActorRole:  domain.RoleSystem,
		Status:     next,
		Purpose:    prop.Purpose,
		OrderID:    &order.ID,
		OccurredAt: time.Now().UTC(),
	})

	if !s.autoSettle {
		return nil
	}
	// The order's payment status already flipped above, so a replayed
	// callback can never reach this settlement a second time.
	if _, _, err := settleProperty(ctx, s.props, s.orders, s.publisher, s.logger, prop, order.BuyerID, domain.RoleSystem); err != nil {
		return err
	}
	return nil
}

func (s *PaymentService) publishEvent(ctx context.Context, ev domain.LifecycleEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Error("failed to publish lifecycle event", "type", ev.Type, "error", err)
	}
}
