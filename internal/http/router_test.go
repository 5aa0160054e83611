package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/ledgerly/internal/auth"
	"github.com/MrJamesThe3rd/ledgerly/internal/categorize"
	"github.com/MrJamesThe3rd/ledgerly/internal/export"
	ledgerlyHttp "github.com/MrJamesThe3rd/ledgerly/internal/http"
	authHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/auth"
	categorizeHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/categorize"
	exportHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/importcsv"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/middleware"
	statsHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/stats"
	txHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/stats"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/user"
)

const origin = "http://localhost:3000"

type fixture struct {
	router  http.Handler
	users   *user.MockRepository
	txs     *transaction.MockRepository
	tokens  *auth.Tokens
	current *user.User
}

func setup(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{
		users:   user.NewMockRepository(ctrl),
		txs:     transaction.NewMockRepository(ctrl),
		tokens:  auth.NewTokens("0123456789abcdef0123456789abcdef", time.Hour),
		current: &user.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"},
	}

	var (
		userService        = user.NewService(f.users, auth.NewPasswords(bcrypt.MinCost))
		transactionService = transaction.NewService(f.txs)
		categorizeService  = categorize.NewService(categorize.NewMockRepository(ctrl))
	)

	f.router = ledgerlyHttp.New(
		ledgerlyHttp.Options{
			CORSOrigins:  []string{origin},
			Authenticate: middleware.Authenticate(f.tokens, userService),
		},
		authHandler.NewHandler(userService, f.tokens, false),
		txHandler.NewHandler(transactionService),
		statsHandler.NewHandler(stats.NewService(transactionService), stats.DefaultSpendingThreshold),
		importHandler.NewHandler(importer.NewService(categorizeService), transactionService),
		exportHandler.NewHandler(export.NewService(transactionService)),
		categorizeHandler.NewHandler(categorizeService),
	)

	return f
}

func (f *fixture) request(method, path string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authed {
		token, _ := f.tokens.Issue(f.current.ID)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func TestHealth(t *testing.T) {
	f := setup(t)

	rec := f.request(http.MethodGet, "/", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := setup(t)

	for _, path := range []string{
		"/api/transactions",
		"/api/transactions/stats/summary",
		"/api/transactions/export",
		"/api/categories",
		"/api/auth/me",
	} {
		rec := f.request(http.MethodGet, path, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestDeletedUserTokenRejected(t *testing.T) {
	f := setup(t)
	f.users.EXPECT().GetUser(gomock.Any(), f.current.ID).Return(nil, user.ErrNotFound)

	rec := f.request(http.MethodGet, "/api/transactions", true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatsRouteIsNotAnID(t *testing.T) {
	f := setup(t)
	f.users.EXPECT().GetUser(gomock.Any(), f.current.ID).Return(f.current, nil)
	f.txs.EXPECT().ListTransactions(gomock.Any(), f.current.ID, transaction.ListFilter{}).Return(nil, nil)

	rec := f.request(http.MethodGet, "/api/transactions/stats/summary", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"transactionCount":0`)
}

func TestCategoriesAuthenticated(t *testing.T) {
	f := setup(t)
	f.users.EXPECT().GetUser(gomock.Any(), f.current.ID).Return(f.current, nil)

	rec := f.request(http.MethodGet, "/api/categories", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Other Income"`)
}

func TestCreateRequiresJSON(t *testing.T) {
	f := setup(t)
	f.users.EXPECT().GetUser(gomock.Any(), f.current.ID).Return(f.current, nil)

	token, _ := f.tokens.Issue(f.current.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader("title=x"))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t,
		`{"message":"unsupported content type \"application/x-www-form-urlencoded\""}`,
		rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	f := setup(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
