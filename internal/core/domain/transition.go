package domain

import "fmt"

// Event is a requested change to a property's lifecycle.
type Event string

const (
	EventApprove          Event = "approve"
	EventReject           Event = "reject"
	EventOrder            Event = "order"
	EventPaymentConfirmed Event = "payment_confirmed"
	EventPaymentFailed    Event = "payment_failed"
	EventComplete         Event = "complete"
	EventCancel           Event = "cancel"
)

// AllEvents lists every lifecycle event; used by exhaustive table tests.
var AllEvents = []Event{
	EventApprove, EventReject, EventOrder, EventPaymentConfirmed,
	EventPaymentFailed, EventComplete, EventCancel,
}

// Transition is the pure decision function of the status machine: given the
// current status, a requested event and the actor's role, it either returns
// the resulting status or denies with ErrInvalidTransition. It never touches
// persistence; the orchestrating services own atomicity and apply the result
// with a compare-and-set keyed on the status read here.
//
// Ownership ("a buyer may not order their own listing") is checked by the
// Order Placement Service, not here: the engine only knows roles.
func Transition(current PropertyStatus, ev Event, actor Role, purpose Purpose) (PropertyStatus, error) {
	switch ev {
	case EventApprove:
		if current == StatusPending && actor == RoleAdmin {
			return StatusAvailable, nil
		}

	case EventReject:
		if current == StatusPending && actor == RoleAdmin {
			return StatusCancelled, nil
		}

	case EventOrder:
		if current == StatusAvailable && actor == RoleClient {
			return StatusOrdered, nil
		}

	case EventPaymentConfirmed:
		if current == StatusOrdered && (actor == RoleSystem || actor == RoleAdmin) {
			return StatusPaymentPending, nil
		}

	case EventPaymentFailed:
		// Payment declined by the gateway: the order closes and the listing
		// goes back on the market. System-only, triggered by the callback.
		if (current == StatusOrdered || current == StatusPaymentPending) && actor == RoleSystem {
			return StatusAvailable, nil
		}

	case EventComplete:
		if (current == StatusOrdered || current == StatusPaymentPending) &&
			(actor == RoleAdmin || actor == RoleSystem) {
			return settledStatus(purpose)
		}

	case EventCancel:
		if !current.Terminal() && actor == RoleAdmin {
			return StatusCancelled, nil
		}
	}

	return current, fmt.Errorf("%w: %s cannot %s a property in status %s",
		ErrInvalidTransition, actor, ev, current)
}

func settledStatus(purpose Purpose) (PropertyStatus, error) {
	switch purpose {
	case PurposeSell:
		return StatusSold, nil
	case PurposeRent:
		return StatusRented, nil
	}
	return "", fmt.Errorf("%w: unknown purpose %q", ErrInvalidInput, purpose)
}
