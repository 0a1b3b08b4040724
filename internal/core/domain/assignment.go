package domain

import (
	"time"

	"github.com/google/uuid"
)

// BrokerAssignment designates the broker shepherding a property's
// transaction. Records are append-only history; the latest one per property
// is the active assignment and is mirrored in Property.AssignedBrokerID.
type BrokerAssignment struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	BrokerID   uuid.UUID
	AssignedBy uuid.UUID
	AssignedAt time.Time
}

// User is the slice of the identity collaborator's user record this service
// needs: enough to resolve a reference and gate on role.
type User struct {
	ID   uuid.UUID
	Name string
	Role Role
}
