package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-brokerage-system/internal/adapters/storage/memory"
	"property-brokerage-system/internal/app"
	"property-brokerage-system/internal/core/domain"
	"property-brokerage-system/internal/screening"
)

var testSecret = []byte("test-secret")

// fakeGateway satisfies the payment gateway port without network calls.
type fakeGateway struct{}

func (fakeGateway) Initialize(context.Context, *domain.Order, string) (string, error) {
	return "https://pay.example/session/test", nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.LifecycleEvent) error { return nil }

type fixture struct {
	store  *memory.Store
	router *chi.Mux
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	listings := app.NewListingService(store.Properties(), noopPublisher{}, logger)
	orders := app.NewOrderService(store.Properties(), store.Orders(), fakeGateway{}, noopPublisher{}, screening.NoopScreener{}, logger)
	payments := app.NewPaymentService(store.Properties(), store.Orders(), fakeGateway{}, noopPublisher{}, true, logger)
	moderation := app.NewModerationService(store.Properties(), store.Orders(), noopPublisher{}, logger)
	assignment := app.NewAssignmentService(store.Properties(), store.Assignments(), store.Users(), noopPublisher{}, logger)

	propertyHandler := NewPropertyHandler(listings, orders, moderation, assignment, logger)
	paymentHandler := NewPaymentHandler(payments, logger)

	r := chi.NewRouter()
	r.Post("/api/payments/webhook", paymentHandler.HandleWebhook)
	r.Group(func(r chi.Router) {
		r.Use(JWTMiddleware(testSecret, logger))
		r.Route("/api/property", func(r chi.Router) {
			r.Get("/", propertyHandler.HandleList)
			r.Post("/", propertyHandler.HandleCreate)
			r.Get("/my", propertyHandler.HandleListMine)
			r.Get("/view/{id}", propertyHandler.HandleView)
			r.Get("/admin/all-properties", propertyHandler.HandleAdminListAll)
			r.Get("/broker/assigned", propertyHandler.HandleBrokerAssigned)
			r.Post("/{id}/order", propertyHandler.HandlePlaceOrder)
			r.Patch("/{id}/approve", propertyHandler.HandleApprove)
			r.Patch("/{id}/assign-broker", propertyHandler.HandleAssignBroker)
			r.Patch("/{id}/complete", propertyHandler.HandleComplete)
			r.Get("/{id}/commission", propertyHandler.HandleCommission)
			r.Patch("/{id}", propertyHandler.HandleUpdateStatus)
			r.Delete("/{id}", propertyHandler.HandleDelete)
		})
		r.Post("/api/payments/initialize", paymentHandler.HandleInitialize)
	})

	return &fixture{store: store, router: r}
}

func signToken(t *testing.T, userID uuid.UUID, role domain.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestAuth_MissingAndInvalidTokens(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/property", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = f.do(t, http.MethodGet, "/api/property", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)

	owner := uuid.New()
	admin := uuid.New()
	buyer := uuid.New()
	ownerToken := signToken(t, owner, domain.RoleClient)
	adminToken := signToken(t, admin, domain.RoleAdmin)
	buyerToken := signToken(t, buyer, domain.RoleClient)

	// Create: lands in PENDING.
	rec := f.do(t, http.MethodPost, "/api/property", ownerToken, map[string]any{
		"title":        "Lakeside cottage",
		"purpose":      "SELL",
		"propertyType": "HOME",
		"price":        320000,
		"home":         map[string]any{"bedrooms": 3, "bathrooms": 2, "area_sq_ft": 1400},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	prop := created["property"].(map[string]any)
	propID := prop["id"].(string)
	assert.Equal(t, "PENDING", prop["status"])

	// Buyer cannot order an unapproved listing.
	rec = f.do(t, http.MethodPost, "/api/property/"+propID+"/order", buyerToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Admin approves.
	rec = f.do(t, http.MethodPatch, "/api/property/"+propID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "AVAILABLE", decode(t, rec)["property"].(map[string]any)["status"])

	// Owner may not buy their own listing.
	rec = f.do(t, http.MethodPost, "/api/property/"+propID+"/order", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Buyer places the order and gets a checkout URL.
	rec = f.do(t, http.MethodPost, "/api/property/"+propID+"/order", buyerToken, map[string]any{"paymentType": "card"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]any)
	reference := data["reference"].(string)
	assert.Equal(t, "https://pay.example/session/test", data["paymentUrl"])
	assert.NotEmpty(t, reference)

	// A second buyer is turned away.
	rec = f.do(t, http.MethodPost, "/api/property/"+propID+"/order", signToken(t, uuid.New(), domain.RoleClient), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Deletion is blocked while the order is live.
	rec = f.do(t, http.MethodDelete, "/api/property/"+propID, adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Projection is available while in flight.
	rec = f.do(t, http.MethodGet, "/api/property/"+propID+"/commission", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	commissionData := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, true, commissionData["projection"])

	// Gateway confirms; auto-settle completes the sale.
	rec = f.do(t, http.MethodPost, "/api/payments/webhook", "", map[string]any{
		"reference": reference, "status": "success",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/property/view/"+propID, buyerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	viewed := decode(t, rec)["property"].(map[string]any)
	assert.Equal(t, "SOLD", viewed["status"])
	assert.Equal(t, 320000.0, viewed["finalPrice"])

	// Replayed callback still succeeds and changes nothing.
	rec = f.do(t, http.MethodPost, "/api/payments/webhook", "", map[string]any{
		"reference": reference, "status": "success",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Contradictory replay is rejected.
	rec = f.do(t, http.MethodPost, "/api/payments/webhook", "", map[string]any{
		"reference": reference, "status": "failed",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Settled commission is authoritative now.
	rec = f.do(t, http.MethodGet, "/api/property/"+propID+"/commission", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	commissionData = decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, false, commissionData["projection"])
	commission := commissionData["commission"].(map[string]any)
	assert.Equal(t, 12800.0, commission["total"])
}

func TestAssignBrokerOverHTTP(t *testing.T) {
	f := newFixture(t)

	admin := uuid.New()
	broker := uuid.New()
	f.store.AddUser(domain.User{ID: admin, Name: "Admin", Role: domain.RoleAdmin})
	f.store.AddUser(domain.User{ID: broker, Name: "Broker", Role: domain.RoleBroker})
	adminToken := signToken(t, admin, domain.RoleAdmin)

	// Seed an available property.
	ownerToken := signToken(t, uuid.New(), domain.RoleClient)
	rec := f.do(t, http.MethodPost, "/api/property", ownerToken, map[string]any{
		"title":        "Hatchback",
		"purpose":      "SELL",
		"propertyType": "CAR",
		"price":        9000,
		"car":          map[string]any{"make": "Honda", "model": "Fit", "year": 2019, "mileage": 42000},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	propID := decode(t, rec)["property"].(map[string]any)["id"].(string)

	rec = f.do(t, http.MethodPatch, "/api/property/"+propID+"/assign-broker", adminToken,
		map[string]any{"brokerId": broker.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, broker.String(), data["brokerId"])

	// Non-admin callers are refused.
	rec = f.do(t, http.MethodPatch, "/api/property/"+propID+"/assign-broker", ownerToken,
		map[string]any{"brokerId": broker.String()})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The broker sees the property on their assigned list.
	rec = f.do(t, http.MethodGet, "/api/property/broker/assigned", signToken(t, broker, domain.RoleBroker), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	props := decode(t, rec)["properties"].([]any)
	require.Len(t, props, 1)
	assert.Equal(t, propID, props[0].(map[string]any)["id"])
}

func TestCancelViaGenericUpdate(t *testing.T) {
	f := newFixture(t)

	admin := uuid.New()
	adminToken := signToken(t, admin, domain.RoleAdmin)
	ownerToken := signToken(t, uuid.New(), domain.RoleClient)

	rec := f.do(t, http.MethodPost, "/api/property", ownerToken, map[string]any{
		"title":        "Old laptop",
		"purpose":      "SELL",
		"propertyType": "ELECTRONICS",
		"price":        400,
		"electronics":  map[string]any{"brand": "Lenovo", "model": "T480", "warranty_months": 0},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	propID := decode(t, rec)["property"].(map[string]any)["id"].(string)

	// Moving anywhere but CANCELLED through the generic update is refused.
	rec = f.do(t, http.MethodPatch, "/api/property/"+propID, adminToken, map[string]any{"status": "SOLD"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/property/"+propID, adminToken, map[string]any{"status": "CANCELLED"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", decode(t, rec)["property"].(map[string]any)["status"])

	// Cancelled listings can be deleted.
	rec = f.do(t, http.MethodDelete, "/api/property/"+propID, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/property/view/"+propID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
