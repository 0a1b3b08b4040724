package domain

import (
	"time"

	"github.com/google/uuid"
)

// LifecycleEventType names the Kafka events published on successful
// mutations. The settlement recorder consumes PropertySettled to feed the
// commission ledger.
type LifecycleEventType string

const (
	PropertyCreated          LifecycleEventType = "property.created"
	PropertyApproved         LifecycleEventType = "property.approved"
	PropertyRejected         LifecycleEventType = "property.rejected"
	PropertyCancelled        LifecycleEventType = "property.cancelled"
	PropertyOrdered          LifecycleEventType = "property.ordered"
	PropertyPaymentConfirmed LifecycleEventType = "property.payment_confirmed"
	PropertyPaymentFailed    LifecycleEventType = "property.payment_failed"
	PropertySettled          LifecycleEventType = "property.settled"
	PropertyDeleted          LifecycleEventType = "property.deleted"
	BrokerAssigned           LifecycleEventType = "broker.assigned"
)

// LifecycleEvent is the wire shape published to the event stream.
type LifecycleEvent struct {
	Type       LifecycleEventType `json:"type"`
	PropertyID uuid.UUID          `json:"property_id"`
	ActorID    uuid.UUID          `json:"actor_id"`
	ActorRole  Role               `json:"actor_role"`
	Status     PropertyStatus     `json:"status"`
	Purpose    Purpose            `json:"purpose,omitempty"`
	OrderID    *uuid.UUID         `json:"order_id,omitempty"`
	BrokerID   *uuid.UUID         `json:"broker_id,omitempty"`
	FinalPrice *float64           `json:"final_price,omitempty"`
	Commission *Commission        `json:"commission,omitempty"`
	// Screening annotations; advisory only.
	Flagged         bool      `json:"flagged,omitempty"`
	ScreeningReason string    `json:"screening_reason,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
