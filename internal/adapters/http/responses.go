package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"property-brokerage-system/internal/core/domain"
)

// All responses follow the `{success, message?, ...}` envelope the
// collaborating UI expects. Failure is `success: false` plus an HTTP error
// status, never partial data.

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to write json response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, logger *slog.Logger, status int, fields map[string]any) {
	payload := map[string]any{"success": true}
	for k, v := range fields {
		payload[k] = v
	}
	writeJSON(w, logger, status, payload)
}

func writeJSONError(w http.ResponseWriter, logger *slog.Logger, message string, status int) {
	writeJSON(w, logger, status, map[string]any{"success": false, "message": message})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Unknown
// errors are logged and masked as a generic 500; operations are
// all-or-nothing so a generic message never leaks partial state.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrPropertyNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAssignmentNotFound):
		writeJSONError(w, logger, err.Error(), http.StatusNotFound)

	case errors.Is(err, domain.ErrRoleNotAllowed),
		errors.Is(err, domain.ErrOwnProperty):
		writeJSONError(w, logger, err.Error(), http.StatusForbidden)

	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidBrokerTarget):
		writeJSONError(w, logger, err.Error(), http.StatusBadRequest)

	case errors.Is(err, domain.ErrAlreadyOrdered),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStatusConflict),
		errors.Is(err, domain.ErrPropertyNotAssignable),
		errors.Is(err, domain.ErrActiveOrderExists),
		errors.Is(err, domain.ErrInconsistentCallback),
		errors.Is(err, domain.ErrNotSettled):
		writeJSONError(w, logger, err.Error(), http.StatusConflict)

	case errors.Is(err, domain.ErrPaymentInit):
		writeJSONError(w, logger, "payment session could not be opened", http.StatusBadGateway)

	case errors.Is(err, domain.ErrStorageUnavailable):
		logger.Warn("temporary failure in external dependency", "error", err)
		writeJSONError(w, logger, "service temporarily unavailable", http.StatusServiceUnavailable)

	default:
		logger.Error("unexpected error", "error", err)
		writeJSONError(w, logger, "internal server error", http.StatusInternalServerError)
	}
}
