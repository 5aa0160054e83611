package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/ledgerly/internal/http/auth"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/categorize"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/export"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/importcsv"
	apimw "github.com/MrJamesThe3rd/ledgerly/internal/http/middleware"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/stats"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/transaction"
)

type Options struct {
	CORSOrigins []string
	// Detail adds the wrapped error chain to error responses.
	Detail bool
	// Authenticate guards every route that acts on a user's data.
	Authenticate func(http.Handler) http.Handler
}

func New(
	opts Options,
	authV1 *auth.Handler,
	transactionsV1 *transaction.Handler,
	statsV1 *stats.Handler,
	importV1 *importcsv.Handler,
	exportV1 *export.Handler,
	categoriesV1 *categorize.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(respond.Detail(opts.Detail))

	router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		respond.Message(w, http.StatusOK, "Ledgerly API is running")
	})

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			authV1.Routes(r, opts.Authenticate)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Use(opts.Authenticate)

			r.Route("/stats", statsV1.Routes)
			r.Route("/import", importV1.Routes)
			r.Route("/export", exportV1.Routes)

			r.Group(func(r chi.Router) {
				r.Use(apimw.AllowContentType("application/json"))
				transactionsV1.Routes(r)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(opts.Authenticate)
			categoriesV1.Routes(r)
		})
	})

	return router
}
