package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"property-brokerage-system/internal/core/domain"
)

// JWTMiddleware verifies the bearer token the identity collaborator issued
// and stores the (userID, role) identity in the request context. Token
// issuance happens elsewhere; this service only reads claims.
func JWTMiddleware(jwtSecret []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, logger, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeJSONError(w, logger, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				// Only HS256 is accepted.
				if token.Method.Alg() != "HS256" {
					return nil, errors.New("unexpected signing method")
				}
				return jwtSecret, nil
			})
			if err != nil || !token.Valid {
				logger.Warn("JWT validation failed", "error", err)
				writeJSONError(w, logger, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeJSONError(w, logger, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			identity, err := identityFromClaims(claims)
			if err != nil {
				logger.Warn("JWT claims rejected", "error", err)
				writeJSONError(w, logger, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

func identityFromClaims(claims jwt.MapClaims) (Identity, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return Identity{}, err
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Identity{}, err
	}

	roleClaim, _ := claims["role"].(string)
	role := domain.Role(roleClaim)
	switch role {
	case domain.RoleAdmin, domain.RoleBroker, domain.RoleClient:
	default:
		return Identity{}, errors.New("unknown or missing role claim")
	}

	return Identity{UserID: userID, Role: role}, nil
}
