package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"property-brokerage-system/internal/adapters/storage/memory"
	"property-brokerage-system/internal/core/domain"
	"property-brokerage-system/internal/core/ports"
)

func validListing() NewListing {
	return NewListing{
		Title:    "Downtown studio",
		Purpose:  domain.PurposeRent,
		Kind:     domain.KindHome,
		Price:    1200,
		Currency: "USD",
		Home:     &domain.HomeDetails{Bedrooms: 1, Bathrooms: 1, AreaSqFt: 420},
	}
}

func TestCreateListing(t *testing.T) {
	// --- Arrange ---
	store := memory.NewStore()
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("domain.LifecycleEvent")).Return(nil)
	service := NewListingService(store.Properties(), publisher, testLogger())

	ctx := context.Background()
	owner := uuid.New()

	// --- Act ---
	prop, err := service.Create(ctx, owner, domain.RoleClient, validListing())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, prop.Status)
	assert.Equal(t, owner, prop.OwnerID)
	assert.NotEqual(t, uuid.Nil, prop.ID)
	publisher.AssertExpectations(t)
}

func TestCreateListing_ClientsOnly(t *testing.T) {
	store := memory.NewStore()
	service := NewListingService(store.Properties(), noopPublisher{}, testLogger())

	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleBroker} {
		_, err := service.Create(context.Background(), uuid.New(), role, validListing())
		assert.ErrorIs(t, err, domain.ErrRoleNotAllowed, "role %s", role)
	}
}

func TestCreateListing_Validation(t *testing.T) {
	store := memory.NewStore()
	service := NewListingService(store.Properties(), noopPublisher{}, testLogger())
	ctx := context.Background()
	owner := uuid.New()

	missingTitle := validListing()
	missingTitle.Title = ""
	_, err := service.Create(ctx, owner, domain.RoleClient, missingTitle)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	badPrice := validListing()
	badPrice.Price = 0
	_, err = service.Create(ctx, owner, domain.RoleClient, badPrice)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	badPurpose := validListing()
	badPurpose.Purpose = "LEASE"
	_, err = service.Create(ctx, owner, domain.RoleClient, badPurpose)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	detailMismatch := validListing()
	detailMismatch.Kind = domain.KindCar
	_, err = service.Create(ctx, owner, domain.RoleClient, detailMismatch)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListFiltersByStatus(t *testing.T) {
	store := memory.NewStore()
	service := NewListingService(store.Properties(), noopPublisher{}, testLogger())
	ctx := context.Background()

	available := newAvailableProperty(uuid.New(), domain.PurposeSell, 100_000)
	pending := newAvailableProperty(uuid.New(), domain.PurposeSell, 90_000)
	pending.Status = domain.StatusPending
	require.NoError(t, store.Properties().Create(ctx, available))
	require.NoError(t, store.Properties().Create(ctx, pending))

	status := domain.StatusAvailable
	got, err := service.List(ctx, ports.PropertyFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, available.ID, got[0].ID)
}

func TestListAll_AdminOnly(t *testing.T) {
	store := memory.NewStore()
	service := NewListingService(store.Properties(), noopPublisher{}, testLogger())

	_, err := service.ListAll(context.Background(), domain.RoleClient)
	assert.ErrorIs(t, err, domain.ErrRoleNotAllowed)
}

func TestListAssigned_BrokerOnly(t *testing.T) {
	store := memory.NewStore()
	service := NewListingService(store.Properties(), noopPublisher{}, testLogger())
	ctx := context.Background()

	broker := uuid.New()
	prop := newAvailableProperty(uuid.New(), domain.PurposeSell, 100_000)
	prop.AssignedBrokerID = &broker
	require.NoError(t, store.Properties().Create(ctx, prop))

	got, err := service.ListAssigned(ctx, broker, domain.RoleBroker)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, prop.ID, got[0].ID)

	_, err = service.ListAssigned(ctx, broker, domain.RoleClient)
	assert.ErrorIs(t, err, domain.ErrRoleNotAllowed)
}

func TestCommissionView(t *testing.T) {
	store := memory.NewStore()
	service := NewListingService(store.Properties(), noopPublisher{}, testLogger())
	ctx := context.Background()

	// Settled: authoritative figure from the frozen final price.
	final := 240_000.0
	sold := newAvailableProperty(uuid.New(), domain.PurposeSell, 250_000)
	sold.Status = domain.StatusSold
	sold.FinalPrice = &final
	require.NoError(t, store.Properties().Create(ctx, sold))

	view, err := service.Commission(ctx, sold.ID)
	require.NoError(t, err)
	assert.False(t, view.Projection)
	assert.Equal(t, final*0.04, view.Commission.Total)

	// In flight: display-only projection from the listing price.
	ordered := newAvailableProperty(uuid.New(), domain.PurposeSell, 250_000)
	ordered.Status = domain.StatusOrdered
	require.NoError(t, store.Properties().Create(ctx, ordered))

	view, err = service.Commission(ctx, ordered.ID)
	require.NoError(t, err)
	assert.True(t, view.Projection)
	assert.Equal(t, ordered.Price*0.04, view.Commission.Total)

	// Anything else has no commission figure.
	listed := newAvailableProperty(uuid.New(), domain.PurposeSell, 250_000)
	require.NoError(t, store.Properties().Create(ctx, listed))

	_, err = service.Commission(ctx, listed.ID)
	assert.ErrorIs(t, err, domain.ErrNotSettled)
}
