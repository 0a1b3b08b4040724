package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"property-brokerage-system/internal/core/domain"
	"property-brokerage-system/internal/core/ports"
)

// ListingService is the read-and-create surface of the Property Registry:
// owners list items, everyone views them, admins and brokers get their
// tailored listings. No status transitions happen here.
type ListingService struct {
	props     ports.PropertyRepository
	publisher ports.EventPublisher
	logger    *slog.Logger
}

func NewListingService(props ports.PropertyRepository, publisher ports.EventPublisher, logger *slog.Logger) *ListingService {
	return &ListingService{props: props, publisher: publisher, logger: logger}
}

// NewListing is the creation payload for a property.
type NewListing struct {
	Title       string
	Purpose     domain.Purpose
	Kind        domain.PropertyKind
	Price       float64
	Currency    string
	Home        *domain.HomeDetails
	Car         *domain.CarDetails
	Electronics *domain.ElectronicsDetails
	Images      []string
}

func (n *NewListing) validate() error {
	if n.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if n.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
	}
	if n.Purpose != domain.PurposeSell && n.Purpose != domain.PurposeRent {
		return fmt.Errorf("%w: purpose must be %s or %s", domain.ErrInvalidInput, domain.PurposeSell, domain.PurposeRent)
	}
	switch n.Kind {
	case domain.KindHome:
		if n.Home == nil {
			return fmt.Errorf("%w: home details are required", domain.ErrInvalidInput)
		}
	case domain.KindCar:
		if n.Car == nil {
			return fmt.Errorf("%w: car details are required", domain.ErrInvalidInput)
		}
	case domain.KindElectronics:
		if n.Electronics == nil {
			return fmt.Errorf("%w: electronics details are required", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown property kind %q", domain.ErrInvalidInput, n.Kind)
	}
	return nil
}

// Create registers a new listing in Pending, awaiting admin approval.
func (s *ListingService) Create(ctx context.Context, ownerID uuid.UUID, ownerRole domain.Role, in NewListing) (*domain.Property, error) {
	if ownerRole != domain.RoleClient {
		return nil, fmt.Errorf("%w: only clients list properties", domain.ErrRoleNotAllowed)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}
	prop := &domain.Property{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Status:      domain.StatusPending,
		Purpose:     in.Purpose,
		Kind:        in.Kind,
		Title:       in.Title,
		Price:       in.Price,
		Currency:    currency,
		Home:        in.Home,
		Car:         in.Car,
		Electronics: in.Electronics,
		Images:      in.Images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.props.Create(ctx, prop); err != nil {
		return nil, err
	}

	ev := domain.LifecycleEvent{
		Type:       domain.PropertyCreated,
		PropertyID: prop.ID,
		ActorID:    ownerID,
		ActorRole:  ownerRole,
		Status:     prop.Status,
		Purpose:    prop.Purpose,
		OccurredAt: now,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Error("failed to publish lifecycle event", "type", ev.Type, "error", err)
	}
	return prop, nil
}

func (s *ListingService) Get(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	return s.props.Get(ctx, id)
}

func (s *ListingService) List(ctx context.Context, f ports.PropertyFilter) ([]domain.Property, error) {
	return s.props.List(ctx, f)
}

func (s *ListingService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]domain.Property, error) {
	return s.props.ListByOwner(ctx, ownerID)
}

// ListAll is the admin listing surface: every property regardless of status.
func (s *ListingService) ListAll(ctx context.Context, actorRole domain.Role) ([]domain.Property, error) {
	if actorRole != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: admin listing requires the admin role", domain.ErrRoleNotAllowed)
	}
	return s.props.List(ctx, ports.PropertyFilter{})
}

// ListAssigned returns the properties whose active assignment targets the
// calling broker.
func (s *ListingService) ListAssigned(ctx context.Context, brokerID uuid.UUID, actorRole domain.Role) ([]domain.Property, error) {
	if actorRole != domain.RoleBroker {
		return nil, fmt.Errorf("%w: assigned listing requires the broker role", domain.ErrRoleNotAllowed)
	}
	return s.props.ListByBroker(ctx, brokerID)
}

// CommissionView resolves the commission figure to show for a property: the
// authoritative settled commission, or the display-only projection for
// in-flight transactions (marked as such).
type CommissionView struct {
	Commission domain.Commission
	Projection bool
}

func (s *ListingService) Commission(ctx context.Context, id uuid.UUID) (*CommissionView, error) {
	prop, err := s.props.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if prop.Status.Settled() {
		commission, err := domain.CalculateCommission(prop)
		if err != nil {
			return nil, err
		}
		return &CommissionView{Commission: commission}, nil
	}
	if projected, ok := domain.ProjectCommission(prop); ok {
		return &CommissionView{Commission: projected, Projection: true}, nil
	}
	return nil, domain.ErrNotSettled
}
