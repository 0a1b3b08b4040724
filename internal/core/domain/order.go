package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks the order through the external payment boundary.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Order is a buyer's claim on a property. Orders are never deleted once a
// payment outcome has been recorded; they are the audit trail. The single
// exception is the rollback of a placement whose payment session could not
// be initialized, which must leave no trace.
type Order struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	BuyerID    uuid.UUID
	// PaymentReference is the opaque id the external gateway keys its
	// callbacks by. Generated once at placement.
	PaymentReference string
	PaymentStatus    PaymentStatus
	Amount           float64
	Currency         string
	CreatedAt        time.Time
}

// Active reports whether this order still blocks the property: a pending or
// completed payment. A failed order is closed and blocks nothing.
func (o *Order) Active() bool {
	return o.PaymentStatus == PaymentPending || o.PaymentStatus == PaymentCompleted
}
