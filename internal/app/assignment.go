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

// AssignmentService designates the broker shepherding a property. Both the
// property and the broker come from the invoking request, never from shared
// scratch state. Assignment only touches the broker field; the conditional
// write in the repository serializes it against concurrent status changes.
type AssignmentService struct {
	props       ports.PropertyRepository
	assignments ports.AssignmentRepository
	users       ports.UserDirectory
	publisher   ports.EventPublisher
	logger      *slog.Logger
}

func NewAssignmentService(
	props ports.PropertyRepository,
	assignments ports.AssignmentRepository,
	users ports.UserDirectory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *AssignmentService {
	return &AssignmentService{
		props:       props,
		assignments: assignments,
		users:       users,
		publisher:   publisher,
		logger:      logger,
	}
}

// assignableStatuses are the states a new assignment may be made in.
var assignableStatuses = []domain.PropertyStatus{
	domain.StatusPending, domain.StatusAvailable,
}

// Assign sets or replaces the property's broker. Reassigning the same broker
// is a no-op returning the current assignment record; replacing a different
// one appends a new history record, latest wins.
func (s *AssignmentService) Assign(ctx context.Context, propertyID, brokerID, actorID uuid.UUID, actorRole domain.Role) (*domain.BrokerAssignment, error) {
	if actorRole != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins assign brokers", domain.ErrRoleNotAllowed)
	}

	broker, err := s.users.Get(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	if broker.Role != domain.RoleBroker {
		return nil, fmt.Errorf("%w: %s has role %s", domain.ErrInvalidBrokerTarget, brokerID, broker.Role)
	}

	prop, err := s.props.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !statusIn(prop.Status, assignableStatuses) {
		return nil, fmt.Errorf("%w: status %s", domain.ErrPropertyNotAssignable, prop.Status)
	}

	if prop.AssignedBrokerID != nil && *prop.AssignedBrokerID == brokerID {
		existing, err := s.assignments.LatestByProperty(ctx, propertyID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrAssignmentNotFound) {
			return nil, err
		}
		// Broker field set but no history record: fall through and write one.
	}

	if err := s.props.SetBroker(ctx, propertyID, brokerID, assignableStatuses); err != nil {
		return nil, err
	}

	assignment := &domain.BrokerAssignment{
		ID:         uuid.New(),
		PropertyID: propertyID,
		BrokerID:   brokerID,
		AssignedBy: actorID,
		AssignedAt: time.Now().UTC(),
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, err
	}

	ev := domain.LifecycleEvent{
		Type:       domain.BrokerAssigned,
		PropertyID: propertyID,
		ActorID:    actorID,
		ActorRole:  actorRole,
		Status:     prop.Status,
		Purpose:    prop.Purpose,
		BrokerID:   &brokerID,
		OccurredAt: assignment.AssignedAt,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Error("failed to publish lifecycle event", "type", ev.Type, "error", err)
	}
	return assignment, nil
}

func statusIn(s domain.PropertyStatus, set []domain.PropertyStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}
