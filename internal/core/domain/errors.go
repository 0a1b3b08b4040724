package domain

import "errors"

var (
	// Not found.
	ErrPropertyNotFound   = errors.New("property not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAssignmentNotFound = errors.New("broker assignment not found")

	// Validation: role, ownership, malformed input.
	ErrRoleNotAllowed = errors.New("role is not allowed to perform this operation")
	ErrOwnProperty    = errors.New("cannot order your own property")
	ErrInvalidInput   = errors.New("invalid input")

	// State conflicts.
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyOrdered    = errors.New("property already ordered")
	// ErrStatusConflict is a lost compare-and-set: someone else changed the
	// row between our read and our conditional write. Callers decide whether
	// to retry; the services never do.
	ErrStatusConflict = errors.New("concurrent status change detected")

	// Payment boundary.
	ErrPaymentInit          = errors.New("payment session initialization failed")
	ErrInconsistentCallback = errors.New("callback outcome conflicts with recorded outcome")

	// Broker assignment.
	ErrInvalidBrokerTarget   = errors.New("target user is not a broker")
	ErrPropertyNotAssignable = errors.New("property status does not allow broker assignment")

	// Moderation.
	ErrActiveOrderExists = errors.New("an active order references this property")

	// Commission.
	ErrNotSettled = errors.New("property transaction is not settled")

	// Infrastructure.
	ErrStorageUnavailable = errors.New("storage is unavailable")
)
