package categorize

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/categorize"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/middleware"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type Handler struct {
	svc *categorize.Service
}

func NewHandler(svc *categorize.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/suggest", h.suggest)
	r.Post("/rules", h.createRule)
}

type categoriesResponse struct {
	Income  []transaction.Category `json:"income"`
	Expense []transaction.Category `json:"expense"`
}

type suggestResponse struct {
	Title    string               `json:"title"`
	Category transaction.Category `json:"category"`
}

type ruleRequest struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
}

type ruleResponse struct {
	ID        uuid.UUID            `json:"id"`
	Pattern   string               `json:"pattern"`
	Category  transaction.Category `json:"category"`
	CreatedAt time.Time            `json:"createdAt"`
}

func (h *Handler) list(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, categoriesResponse{
		Income:  transaction.Categories(transaction.TypeIncome),
		Expense: transaction.Categories(transaction.TypeExpense),
	})
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	owner, _ := middleware.UserID(r.Context())

	category, err := h.svc.Suggest(r.Context(), owner, title)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, suggestResponse{Title: title, Category: category})
}

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "invalid request body", err)
		return
	}

	owner, _ := middleware.UserID(r.Context())

	rule, err := h.svc.Learn(r.Context(), owner, req.Pattern, transaction.Category(req.Category))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, ruleResponse{
		ID:        rule.ID,
		Pattern:   rule.Pattern,
		Category:  rule.Category,
		CreatedAt: rule.CreatedAt,
	})
}
