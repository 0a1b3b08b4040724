package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"property-brokerage-system/internal/core/domain"
)

// PropertyFilter narrows listing queries.
type PropertyFilter struct {
	Status *domain.PropertyStatus
	Limit  int
}

// PropertyRepository is the outgoing port of the Property Registry. Every
// status-changing method is a single atomic read-modify-write: the
// implementation must guarantee that a conditional update observing a stale
// status fails with domain.ErrStatusConflict instead of overwriting.
type PropertyRepository interface {
	Create(ctx context.Context, p *domain.Property) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Property, error)
	List(ctx context.Context, f PropertyFilter) ([]domain.Property, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Property, error)
	ListByBroker(ctx context.Context, brokerID uuid.UUID) ([]domain.Property, error)

	// UpdateStatus is the compare-and-set: the write applies only if the row
	// still carries `from`. Zero rows affected means a lost race.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PropertyStatus) error

	// Settle atomically flips the status and freezes the final price in the
	// same conditional write.
	Settle(ctx context.Context, id uuid.UUID, from, to domain.PropertyStatus, finalPrice float64) error

	// SetBroker writes the active broker reference, conditional on the
	// current status being one of `allowed`. Serialized per property by the
	// underlying store; the status itself is untouched.
	SetBroker(ctx context.Context, id uuid.UUID, brokerID uuid.UUID, allowed []domain.PropertyStatus) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderRepository persists buyer claims. Orders survive as an audit trail;
// Delete exists solely for the placement rollback path.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByPaymentReference(ctx context.Context, ref string) (*domain.Order, error)
	// ActiveByProperty returns the one order with a pending or completed
	// payment, or domain.ErrOrderNotFound when none exists.
	ActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*domain.Order, error)
	// SetPaymentStatus is a compare-and-set on the payment status; it is the
	// exactly-once trigger guarding idempotent callback processing.
	SetPaymentStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus) error
}

// AssignmentRepository keeps the append-only broker assignment history.
type AssignmentRepository interface {
	Create(ctx context.Context, a *domain.BrokerAssignment) error
	LatestByProperty(ctx context.Context, propertyID uuid.UUID) (*domain.BrokerAssignment, error)
}

// UserDirectory resolves user references against the identity collaborator's
// store. Read-only from this service's point of view.
type UserDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// PaymentGateway is the outgoing port to the external checkout service.
type PaymentGateway interface {
	// Initialize opens a payment session for the order and returns the URL
	// the buyer is redirected to.
	Initialize(ctx context.Context, o *domain.Order, paymentType string) (string, error)
}

// EventPublisher pushes lifecycle events onto the stream. Publishing is
// best-effort relative to the core invariants: a failed publish is logged,
// never rolled back into the transaction.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.LifecycleEvent) error
}

// RateLimiterRepository answers whether a key may proceed within a window.
type RateLimiterRepository interface {
	IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// OrderScreener flags suspicious placement patterns. Advisory: a flagged
// order still goes through.
type OrderScreener interface {
	ScreenOrder(ctx context.Context, buyerID uuid.UUID, amount float64) domain.ScreeningResult
}
