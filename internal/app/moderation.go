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
)

// ModerationService carries the admin-only operations: approving and
// rejecting new listings, cancelling, deleting, and force-completing
// transactions. Every status change goes through the transition engine and
// is applied with a compare-and-set keyed on the status that was read.
type ModerationService struct {
	props     ports.PropertyRepository
	orders    ports.OrderRepository
	publisher ports.EventPublisher
	logger    *slog.Logger
}

func NewModerationService(
	props ports.PropertyRepository,
	orders ports.OrderRepository,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *ModerationService {
	return &ModerationService{
		props:     props,
		orders:    orders,
		publisher: publisher,
		logger:    logger,
	}
}

// Approve releases a pending listing onto the market.
func (s *ModerationService) Approve(ctx context.Context, propertyID, actorID uuid.UUID, actorRole domain.Role) (*domain.Property, error) {
	return s.applyEvent(ctx, propertyID, actorID, actorRole, domain.EventApprove, domain.PropertyApproved)
}

// Reject turns down a pending listing.
func (s *ModerationService) Reject(ctx context.Context, propertyID, actorID uuid.UUID, actorRole domain.Role) (*domain.Property, error) {
	return s.applyEvent(ctx, propertyID, actorID, actorRole, domain.EventReject, domain.PropertyRejected)
}

// Cancel withdraws any non-terminal listing. A pending order on the property
// is closed as failed so the listing no longer blocks deletion.
func (s *ModerationService) Cancel(ctx context.Context, propertyID, actorID uuid.UUID, actorRole domain.Role) (*domain.Property, error) {
	prop, err := s.applyEvent(ctx, propertyID, actorID, actorRole, domain.EventCancel, domain.PropertyCancelled)
	if err != nil {
		return nil, err
	}

	if order, oerr := s.orders.ActiveByProperty(ctx, propertyID); oerr == nil &&
		order.PaymentStatus == domain.PaymentPending {
		if serr := s.orders.SetPaymentStatus(ctx, order.ID, domain.PaymentPending, domain.PaymentFailed); serr != nil {
			s.logger.Warn("cancel: could not close pending order",
				"order_id", order.ID, "error", serr)
		}
	}
	return prop, nil
}

// UpdateStatus is the generic moderation entry behind PATCH with a target
// status in the body. Only a move to Cancelled is accepted; it maps to
// reject for pending listings and cancel for everything else, so the
// published event names the actual decision.
func (s *ModerationService) UpdateStatus(ctx context.Context, propertyID uuid.UUID, target domain.PropertyStatus, actorID uuid.UUID, actorRole domain.Role) (*domain.Property, error) {
	if target != domain.StatusCancelled {
		return nil, fmt.Errorf("%w: properties can only be moved to %s through this operation",
			domain.ErrInvalidTransition, domain.StatusCancelled)
	}
	prop, err := s.props.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop.Status == domain.StatusPending {
		return s.Reject(ctx, propertyID, actorID, actorRole)
	}
	return s.Cancel(ctx, propertyID, actorID, actorRole)
}

// Delete removes a listing outright. Denied while an order with a pending or
// completed payment references it; the audit trail must not be orphaned.
func (s *ModerationService) Delete(ctx context.Context, propertyID, actorID uuid.UUID, actorRole domain.Role) error {
	if actorRole != domain.RoleAdmin {
		return fmt.Errorf("%w: only admins can delete listings", domain.ErrRoleNotAllowed)
	}
	prop, err := s.props.Get(ctx, propertyID)
	if err != nil {
		return err
	}

	if _, err := s.orders.ActiveByProperty(ctx, propertyID); err == nil {
		return domain.ErrActiveOrderExists
	} else if !errors.Is(err, domain.ErrOrderNotFound) {
		return err
	}

	if err := s.props.Delete(ctx, propertyID); err != nil {
		return err
	}
	s.publish(ctx, domain.LifecycleEvent{
		Type:       domain.PropertyDeleted,
		PropertyID: prop.ID,
		ActorID:    actorID,
		ActorRole:  actorRole,
		Status:     prop.Status,
		Purpose:    prop.Purpose,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// CompleteOrder settles an ordered transaction: terminal status by purpose,
// frozen final price, commission computed and published for the ledger.
func (s *ModerationService) CompleteOrder(ctx context.Context, propertyID, actorID uuid.UUID, actorRole domain.Role) (*domain.Property, domain.Commission, error) {
	prop, err := s.props.Get(ctx, propertyID)
	if err != nil {
		return nil, domain.Commission{}, err
	}
	return settleProperty(ctx, s.props, s.orders, s.publisher, s.logger, prop, actorID, actorRole)
}

func (s *ModerationService) applyEvent(ctx context.Context, propertyID, actorID uuid.UUID, actorRole domain.Role, ev domain.Event, evType domain.LifecycleEventType) (*domain.Property, error) {
	prop, err := s.props.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	next, err := domain.Transition(prop.Status, ev, actorRole, prop.Purpose)
	if err != nil {
		return nil, err
	}
	if err := s.props.UpdateStatus(ctx, prop.ID, prop.Status, next); err != nil {
		return nil, err
	}
	prop.Status = next

	s.publish(ctx, domain.LifecycleEvent{
		Type:       evType,
		PropertyID: prop.ID,
		ActorID:    actorID,
		ActorRole:  actorRole,
		Status:     next,
		Purpose:    prop.Purpose,
		OccurredAt: time.Now().UTC(),
	})
	return prop, nil
}

func (s *ModerationService) publish(ctx context.Context, ev domain.LifecycleEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Error("failed to publish lifecycle event", "type", ev.Type, "error", err)
	}
}
