package http

import (
	"context"

	"github.com/google/uuid"

	"property-brokerage-system/internal/core/domain"
)

// contextKey is a typed context key.
type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the (userID, role) pair the external identity collaborator
// yields for each request.
type Identity struct {
	UserID uuid.UUID
	Role   domain.Role
}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext extracts the authenticated identity, if present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}
