package respond_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/auth"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/user"
)

type body struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func serve(t *testing.T, detail bool, err error) (*httptest.ResponseRecorder, body) {
	t.Helper()

	h := respond.Detail(detail)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, err)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var b body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))

	return rec, b
}

func TestError_Status(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"TxValidation", &transaction.ValidationError{Field: "title", Message: "is required"}, http.StatusBadRequest},
		{"UserValidation", &user.ValidationError{Field: "email", Message: "bad"}, http.StatusBadRequest},
		{"RowError", &importer.RowError{Line: 3, Err: errors.New("bad")}, http.StatusBadRequest},
		{"NoHeader", importer.ErrNoHeader, http.StatusBadRequest},
		{"NotFound", fmt.Errorf("loading: %w", transaction.ErrNotFound), http.StatusNotFound},
		{"UserNotFound", user.ErrNotFound, http.StatusNotFound},
		{"NotOwner", transaction.ErrNotOwner, http.StatusUnauthorized},
		{"Credentials", user.ErrInvalidCredentials, http.StatusUnauthorized},
		{"Token", fmt.Errorf("%w: expired", auth.ErrInvalidToken), http.StatusUnauthorized},
		{"EmailTaken", user.ErrEmailTaken, http.StatusConflict},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, b := serve(t, false, tt.err)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, b.Message)
			assert.Empty(t, b.Detail)
		})
	}
}

func TestError_RowErrorKeepsLine(t *testing.T) {
	err := &importer.RowError{Line: 4, Err: &transaction.ValidationError{Field: "category", Message: "bad"}}

	rec, b := serve(t, false, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "line 4: category: bad", b.Message)
}

func TestError_HidesInternalMessage(t *testing.T) {
	_, b := serve(t, false, errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", b.Message)
}

func TestError_Detail(t *testing.T) {
	err := fmt.Errorf("listing transactions: %w", errors.New("connection refused"))

	_, b := serve(t, true, err)
	assert.Equal(t, "internal server error", b.Message)
	assert.Equal(t, "listing transactions: connection refused", b.Detail)
}
