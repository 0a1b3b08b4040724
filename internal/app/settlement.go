package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"property-brokerage-system/internal/core/domain"
	"property-brokerage-system/internal/core/ports"
	"property-brokerage-system/internal/observability"
)

// settleProperty completes a transaction: flips the property to its terminal
// Sold/Rented status while freezing the final price in the same conditional
// write, closes the order, and publishes the settlement event carrying the
// commission breakdown. Shared by admin completion and auto-settle.
func settleProperty(
	ctx context.Context,
	props ports.PropertyRepository,
	orders ports.OrderRepository,
	publisher ports.EventPublisher,
	logger *slog.Logger,
	prop *domain.Property,
	actorID uuid.UUID,
	actorRole domain.Role,
) (*domain.Property, domain.Commission, error) {
	next, err := domain.Transition(prop.Status, domain.EventComplete, actorRole, prop.Purpose)
	if err != nil {
		return nil, domain.Commission{}, err
	}

	finalPrice := prop.SettlementPrice()
	if err := props.Settle(ctx, prop.ID, prop.Status, next, finalPrice); err != nil {
		return nil, domain.Commission{}, err
	}

	settled := *prop
	settled.Status = next
	settled.FinalPrice = &finalPrice

	// An admin force-completing an order that never got its payment callback
	// records the payment as completed; a callback-driven settlement finds
	// the order already completed and this is a no-op.
	var orderID *uuid.UUID
	order, err := orders.ActiveByProperty(ctx, prop.ID)
	if err == nil {
		orderID = &order.ID
		if order.PaymentStatus == domain.PaymentPending {
			if serr := orders.SetPaymentStatus(ctx, order.ID, domain.PaymentPending, domain.PaymentCompleted); serr != nil {
				logger.Warn("settlement: could not mark order completed",
					"order_id", order.ID, "error", serr)
			}
		}
	} else {
		logger.Warn("settlement: no active order found", "property_id", prop.ID, "error", err)
	}

	commission, err := domain.CalculateCommission(&settled)
	if err != nil {
		// Unreachable after a successful settle; keep the guard anyway.
		return nil, domain.Commission{}, err
	}

	observability.Settlements.WithLabelValues(string(next)).Inc()
	ev := domain.LifecycleEvent{
		Type:       domain.PropertySettled,
		PropertyID: settled.ID,
		ActorID:    actorID,
		ActorRole:  actorRole,
		Status:     next,
		Purpose:    settled.Purpose,
		OrderID:    orderID,
		BrokerID:   settled.AssignedBrokerID,
		FinalPrice: &finalPrice,
		Commission: &commission,
		OccurredAt: time.Now().UTC(),
	}
	if perr := publisher.Publish(ctx, ev); perr != nil {
		logger.Error("failed to publish settlement event", "property_id", settled.ID, "error", perr)
	}

	return &settled, commission, nil
}
