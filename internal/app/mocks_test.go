package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"property-brokerage-system/internal/core/domain"
	"property-brokerage-system/internal/screening"
)

// Mock implementation of the payment gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Initialize(ctx context.Context, o *domain.Order, paymentType string) (string, error) {
	args := m.Called(ctx, o, paymentType)
	return args.String(0), args.Error(1)
}

// Mock implementation of the event publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev domain.LifecycleEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// noopPublisher is for tests that do not assert on events.
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.LifecycleEvent) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var noScreening = screening.NoopScreener{}

func newAvailableProperty(ownerID uuid.UUID, purpose domain.Purpose, price float64) *domain.Property {
	now := time.Now().UTC()
	return &domain.Property{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Status:   domain.StatusAvailable,
		Purpose:  purpose,
		Kind:     domain.KindHome,
		Title:    "Two-bedroom apartment",
		Price:    price,
		Currency: "USD",
		Home: &domain.HomeDetails{
			Bedrooms: 2, Bathrooms: 1, AreaSqFt: 870,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
