package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_Approve(t *testing.T) {
	next, err := Transition(StatusPending, EventApprove, RoleAdmin, PurposeSell)

	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, next)
}

func TestTransition_Reject(t *testing.T) {
	next, err := Transition(StatusPending, EventReject, RoleAdmin, PurposeSell)

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, next)
}

func TestTransition_Order(t *testing.T) {
	next, err := Transition(StatusAvailable, EventOrder, RoleClient, PurposeSell)

	require.NoError(t, err)
	assert.Equal(t, StatusOrdered, next)
}

func TestTransition_OrderDeniedForAdminAndBroker(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleBroker, RoleSystem} {
		_, err := Transition(StatusAvailable, EventOrder, role, PurposeSell)
		assert.ErrorIs(t, err, ErrInvalidTransition, "role %s must not order", role)
	}
}

func TestTransition_PaymentConfirmed(t *testing.T) {
	next, err := Transition(StatusOrdered, EventPaymentConfirmed, RoleSystem, PurposeSell)

	require.NoError(t, err)
	assert.Equal(t, StatusPaymentPending, next)
}

func TestTransition_PaymentFailedRelists(t *testing.T) {
	for _, current := range []PropertyStatus{StatusOrdered, StatusPaymentPending} {
		next, err := Transition(current, EventPaymentFailed, RoleSystem, PurposeSell)
		require.NoError(t, err)
		assert.Equal(t, StatusAvailable, next)
	}

	// Only the system reacts to gateway callbacks.
	_, err := Transition(StatusOrdered, EventPaymentFailed, RoleAdmin, PurposeSell)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_CompleteFollowsPurpose(t *testing.T) {
	next, err := Transition(StatusPaymentPending, EventComplete, RoleAdmin, PurposeSell)
	require.NoError(t, err)
	assert.Equal(t, StatusSold, next)

	next, err = Transition(StatusPaymentPending, EventComplete, RoleSystem, PurposeRent)
	require.NoError(t, err)
	assert.Equal(t, StatusRented, next)

	// Admin may force-complete straight from Ordered.
	next, err = Transition(StatusOrdered, EventComplete, RoleAdmin, PurposeSell)
	require.NoError(t, err)
	assert.Equal(t, StatusSold, next)
}

func TestTransition_CancelFromAnyNonTerminal(t *testing.T) {
	for _, current := range AllStatuses {
		next, err := Transition(current, EventCancel, RoleAdmin, PurposeSell)
		if current.Terminal() {
			assert.ErrorIs(t, err, ErrInvalidTransition, "cancel from %s must fail", current)
			continue
		}
		require.NoError(t, err, "cancel from %s", current)
		assert.Equal(t, StatusCancelled, next)
	}
}

func TestTransition_TerminalStatesAreFinal(t *testing.T) {
	for _, current := range []PropertyStatus{StatusSold, StatusRented, StatusCancelled} {
		for _, ev := range AllEvents {
			for _, actor := range []Role{RoleAdmin, RoleBroker, RoleClient, RoleSystem} {
				_, err := Transition(current, ev, actor, PurposeSell)
				assert.ErrorIs(t, err, ErrInvalidTransition,
					"%s must not leave terminal status %s for %s", actor, current, ev)
			}
		}
	}
}

// allowed enumerates the complete transition table. Everything the table
// does not name must be denied.
func TestTransition_EverythingElseDenied(t *testing.T) {
	type key struct {
		current PropertyStatus
		ev      Event
		actor   Role
	}
	allowed := map[key]PropertyStatus{
		{StatusPending, EventApprove, RoleAdmin}:               StatusAvailable,
		{StatusPending, EventReject, RoleAdmin}:                StatusCancelled,
		{StatusAvailable, EventOrder, RoleClient}:              StatusOrdered,
		{StatusOrdered, EventPaymentConfirmed, RoleSystem}:     StatusPaymentPending,
		{StatusOrdered, EventPaymentConfirmed, RoleAdmin}:      StatusPaymentPending,
		{StatusOrdered, EventPaymentFailed, RoleSystem}:        StatusAvailable,
		{StatusPaymentPending, EventPaymentFailed, RoleSystem}: StatusAvailable,
		{StatusOrdered, EventComplete, RoleAdmin}:              StatusSold,
		{StatusOrdered, EventComplete, RoleSystem}:             StatusSold,
		{StatusPaymentPending, EventComplete, RoleAdmin}:       StatusSold,
		{StatusPaymentPending, EventComplete, RoleSystem}:      StatusSold,
		{StatusPending, EventCancel, RoleAdmin}:                StatusCancelled,
		{StatusAvailable, EventCancel, RoleAdmin}:              StatusCancelled,
		{StatusOrdered, EventCancel, RoleAdmin}:                StatusCancelled,
		{StatusPaymentPending, EventCancel, RoleAdmin}:         StatusCancelled,
	}

	for _, current := range AllStatuses {
		for _, ev := range AllEvents {
			for _, actor := range []Role{RoleAdmin, RoleBroker, RoleClient, RoleSystem} {
				next, err := Transition(current, ev, actor, PurposeSell)
				want, ok := allowed[key{current, ev, actor}]
				if !ok {
					assert.ErrorIs(t, err, ErrInvalidTransition,
						"%s/%s/%s must be denied", current, ev, actor)
					continue
				}
				require.NoError(t, err, "%s/%s/%s", current, ev, actor)
				assert.Equal(t, want, next)
			}
		}
	}
}

func TestTransition_CompleteWithUnknownPurpose(t *testing.T) {
	_, err := Transition(StatusPaymentPending, EventComplete, RoleAdmin, Purpose("LEASE"))

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransition_DeniedErrorNamesTheAttempt(t *testing.T) {
	_, err := Transition(StatusSold, EventOrder, RoleClient, PurposeSell)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), string(StatusSold))
	assert.Contains(t, err.Error(), string(EventOrder))
}
