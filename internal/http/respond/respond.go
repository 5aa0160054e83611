// Package respond writes JSON bodies and maps domain errors to HTTP statuses.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrJamesThe3rd/ledgerly/internal/auth"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/user"
)

type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type detailKey struct{}

// Detail makes Error include the full error chain in responses. Enable it outside production.
func Detail(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), detailKey{}, enabled)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Message: msg})
}

// Error writes err with the status its kind maps to. Server errors are logged and
// their message is hidden from the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
	}

	body := errorBody{Message: msg}
	if enabled, _ := r.Context().Value(detailKey{}).(bool); enabled {
		body.Detail = err.Error()
	}

	JSON(w, status, body)
}

// BadRequest reports a malformed request that never reached a service.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string, err error) {
	body := errorBody{Message: msg}
	if enabled, _ := r.Context().Value(detailKey{}).(bool); enabled && err != nil {
		body.Detail = err.Error()
	}

	JSON(w, http.StatusBadRequest, body)
}

func classify(err error) (int, string) {
	var (
		txValidation   *transaction.ValidationError
		userValidation *user.ValidationError
		rowErr         *importer.RowError
	)

	switch {
	case errors.As(err, &rowErr):
		return http.StatusBadRequest, rowErr.Error()
	case errors.As(err, &txValidation):
		return http.StatusBadRequest, txValidation.Error()
	case errors.As(err, &userValidation):
		return http.StatusBadRequest, userValidation.Error()
	case errors.Is(err, importer.ErrNoHeader):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, transaction.ErrNotFound):
		return http.StatusNotFound, "transaction not found"
	case errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, transaction.ErrNotOwner):
		return http.StatusUnauthorized, "not authorized"
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "not authorized, token failed"
	case errors.Is(err, user.ErrEmailTaken):
		return http.StatusConflict, "user already exists"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
