package domain

import (
	"time"

	"github.com/google/uuid"
)

// PropertyStatus is our own type for statuses to avoid "magic strings".
type PropertyStatus string

const (
	StatusPending        PropertyStatus = "PENDING"
	StatusAvailable      PropertyStatus = "AVAILABLE"
	StatusOrdered        PropertyStatus = "ORDERED"
	StatusPaymentPending PropertyStatus = "PAYMENT_PENDING"
	StatusSold           PropertyStatus = "SOLD"
	StatusRented         PropertyStatus = "RENTED"
	StatusCancelled      PropertyStatus = "CANCELLED"
)

// AllStatuses lists every property status; used by exhaustive table tests
// and by the admin listing fallback that queries per status.
var AllStatuses = []PropertyStatus{
	StatusPending, StatusAvailable, StatusOrdered, StatusPaymentPending,
	StatusSold, StatusRented, StatusCancelled,
}

// Terminal reports whether no further status transition is possible.
func (s PropertyStatus) Terminal() bool {
	switch s {
	case StatusSold, StatusRented, StatusCancelled:
		return true
	}
	return false
}

// Settled reports whether the property completed a transaction.
func (s PropertyStatus) Settled() bool {
	return s == StatusSold || s == StatusRented
}

// Purpose is what the owner listed the property for.
type Purpose string

const (
	PurposeSell Purpose = "SELL"
	PurposeRent Purpose = "RENT"
)

// Role of the acting user, as supplied by the identity collaborator.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleBroker Role = "broker"
	RoleClient Role = "client"
	// RoleSystem marks transitions triggered by the service itself,
	// e.g. a payment callback or automatic settlement.
	RoleSystem Role = "system"
)

// PropertyKind tags the type-specific detail variant carried by a property.
type PropertyKind string

const (
	KindHome        PropertyKind = "HOME"
	KindCar         PropertyKind = "CAR"
	KindElectronics PropertyKind = "ELECTRONICS"
)

type HomeDetails struct {
	Bedrooms  int     `json:"bedrooms"`
	Bathrooms int     `json:"bathrooms"`
	AreaSqFt  float64 `json:"area_sq_ft"`
	Furnished bool    `json:"furnished"`
}

type CarDetails struct {
	Make    string `json:"make"`
	Model   string `json:"model"`
	Year    int    `json:"year"`
	Mileage int    `json:"mileage"`
}

type ElectronicsDetails struct {
	Brand          string `json:"brand"`
	Model          string `json:"model"`
	WarrantyMonths int    `json:"warranty_months"`
}

// Property is the central entity of the brokerage domain. It is a pure
// business model: no JSON or database tags on purpose-critical fields live
// here beyond the detail variants serialized as payloads.
//
// Exactly one of Home/Car/Electronics is non-nil, matching Kind.
type Property struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	AssignedBrokerID *uuid.UUID
	Status           PropertyStatus
	Purpose          Purpose
	Kind             PropertyKind
	Title            string
	Price            float64
	Currency         string
	Home             *HomeDetails
	Car              *CarDetails
	Electronics      *ElectronicsDetails
	Images           []string
	// FinalPrice is frozen at settlement and never changes afterwards.
	FinalPrice *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SettlementPrice is the price commission is computed from: the negotiated
// final price when one was recorded, the listing price otherwise.
func (p *Property) SettlementPrice() float64 {
	if p.FinalPrice != nil {
		return *p.FinalPrice
	}
	return p.Price
}
