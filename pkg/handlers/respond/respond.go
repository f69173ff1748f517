// Package respond writes JSON responses and maps errors onto status codes.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chris/spot-booking-ledger/pkg/api"
	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/storage"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", slog.Any("error", err))
	}
}

// Error writes the error envelope. Internal faults are logged and their
// detail is withheld from the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		msg = "internal server error"
	}
	JSON(w, status, api.Error{Error: msg})
}

// Status maps domain and storage errors onto HTTP status codes.
func Status(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, storage.ErrUnitsInUse):
		return http.StatusBadRequest
	default:
		return apperrors.HTTPStatus(err)
	}
}

// Decode reads a JSON body into v. Malformed bodies are InvalidArgument.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", apperrors.ErrInvalidArgument, err)
	}
	return nil
}
