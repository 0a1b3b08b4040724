package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-brokerage-system/internal/adapters/storage/memory"
	"property-brokerage-system/internal/core/domain"
)

func newModerationService(store *memory.Store) *ModerationService {
	return NewModerationService(store.Properties(), store.Orders(), noopPublisher{}, testLogger())
}

func TestApprove(t *testing.T) {
	store := memory.NewStore()
	service := newModerationService(store)
	ctx := context.Background()

	prop := newAvailableProperty(uuid.New(), domain.PurposeSell, 100_000)
	prop.Status = domain.StatusPending
	require.NoError(t, store.Properties().Create(ctx, prop))

	admin := uuid.New()
	approved, err := service.Approve(ctx, prop.ID, admin, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAvailable, approved.Status)

	// Approval is not idempotent; the second attempt finds no pending listing.
	_, err = service.Approve(ctx, prop.ID, admin, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestApprove_NonAdminDenied(t *testing.T) {
	store := memory.NewStore()
	service := newModerationService(store)
	ctx := context.Background()

	prop := newAvailableProperty(uuid.New(), domain.PurposeSell, 100_000)
	prop.Status = domain.StatusPending
	require.NoError(t, store.Properties().Create(ctx, prop))

	for _, role := range []domain.Role{domain.RoleClient, domain.RoleBroker} {
		_, err := service.Approve(ctx, prop.ID, uuid.New(), role)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "role %s", role)
	}
}

func TestReject(t *testing.T) {
	store := memory.NewStore()
	service := newModerationService(store)
	ctx := context.Background()

	prop := newAvailableProperty(uuid.New(), domain.PurposeSell, 100_000)
	prop.Status = domain.StatusPending
	require.NoError(t, store.Properties().Create(ctx, prop))

	rejected, err := service.Reject(ctx, prop.ID, uuid.New(), domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, rejected.Status)
}

func TestCancel_ClosesPendingOrder(t *testing.T) {
	store := memory.NewStore()
	service := newModerationService(store)
	ctx := context.Background()

	prop, order := placeTestOrder(t, store, domain.PurposeSell)

	cancelled, err := service.Cancel(ctx, prop.ID, uuid.New(), domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	closed, err := store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, closed.PaymentStatus)
}

func TestUpdateStatus_OnlyCancellationAccepted(t *testing.T) {
	store := memory.NewStore()
	service := newModerationService(store)
	ctx := context.Background()

	prop := newAvailableProperty(uuid.New(), domain.PurposeSell, 100_000)
	require.NoError(t, store.Properties().Create(ctx, prop))

	for _, target := range []domain.PropertyStatus{
		domain.StatusAvailable, domain.StatusSold, domain.StatusOrdered,
	} {
		_, err := service.UpdateStatus(ctx, prop.ID, target, uuid.New(), domain.RoleAdmin)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "target %s", target)
	}

	updated, err := service.UpdateStatus(ctx, prop.ID, domain.StatusCancelled, uuid.New(), domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)
}

func TestDelete_DeniedWhileOrderActive(t *testing.T) {
	store := memory.NewStore()
	service := newModerationService(store)
	ctx := context.Background()

	prop, _ := placeTestOrder(t, store, domain.PurposeSell)
	admin := uuid.New()

	err := service.Delete(ctx, prop.ID, admin, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrActiveOrderExists)

	// Cancelling closes the order; deletion then goes through.
	_, err = service.Cancel(ctx, prop.ID, admin, domain.RoleAdmin)
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, prop.ID, admin, domain.RoleAdmin))
	_, err = store.Properties().Get(ctx, prop.ID)
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)
}

func TestDelete_AdminOnly(t *testing.T) {
	store := memory.NewStore()
	service := newModerationService(store)
	ctx := context.Background()

	prop := newAvailableProperty(uuid.New(), domain.PurposeSell, 100_000)
	require.NoError(t, store.Properties().Create(ctx, prop))

	err := service.Delete(ctx, prop.ID, prop.OwnerID, domain.RoleClient)
	assert.ErrorIs(t, err, domain.ErrRoleNotAllowed)
}

func TestCompleteOrder_ForceCompletesBeforeCallback(t *testing.T) {
	store := memory.NewStore()
	service := newModerationService(store)
	ctx := context.Background()

	prop, order := placeTestOrder(t, store, domain.PurposeSell)

	settled, commission, err := service.CompleteOrder(ctx, prop.ID, uuid.New(), domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSold, settled.Status)
	assert.Equal(t, prop.Price*0.04, commission.Total)

	// The never-confirmed order is recorded as completed.
	got, err := store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, got.PaymentStatus)
}

func TestCompleteOrder_RequiresOrderedState(t *testing.T) {
	store := memory.NewStore()
	service := newModerationService(store)
	ctx := context.Background()

	prop := newAvailableProperty(uuid.New(), domain.PurposeSell, 100_000)
	require.NoError(t, store.Properties().Create(ctx, prop))

	_, _, err := service.CompleteOrder(ctx, prop.ID, uuid.New(), domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
