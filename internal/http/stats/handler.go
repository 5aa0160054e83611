package stats

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/http/middleware"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/stats"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type Handler struct {
	svc       *stats.Service
	threshold decimal.Decimal
}

func NewHandler(svc *stats.Service, threshold decimal.Decimal) *Handler {
	return &Handler{svc: svc, threshold: threshold}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/trend", h.trend)
}

type alertResponse struct {
	Ratio     float64 `json:"ratio"`
	Threshold float64 `json:"threshold"`
	Triggered bool    `json:"triggered"`
}

type summaryResponse struct {
	TotalIncome       float64                          `json:"totalIncome"`
	TotalExpense      float64                          `json:"totalExpense"`
	Balance           float64                          `json:"balance"`
	CategoryBreakdown map[transaction.Category]float64 `json:"categoryBreakdown"`
	TransactionCount  int                              `json:"transactionCount"`
	SpendingAlert     alertResponse                    `json:"spendingAlert"`
}

type pointResponse struct {
	Label   string  `json:"label"`
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.UserID(r.Context())

	s, err := h.svc.Summary(r.Context(), owner)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	breakdown := make(map[transaction.Category]float64, len(s.CategoryBreakdown))
	for c, v := range s.CategoryBreakdown {
		breakdown[c] = v.InexactFloat64()
	}

	alert := stats.CheckSpending(s, h.threshold)

	respond.JSON(w, http.StatusOK, summaryResponse{
		TotalIncome:       s.TotalIncome.InexactFloat64(),
		TotalExpense:      s.TotalExpense.InexactFloat64(),
		Balance:           s.Balance.InexactFloat64(),
		CategoryBreakdown: breakdown,
		TransactionCount:  s.TransactionCount,
		SpendingAlert: alertResponse{
			Ratio:     alert.Ratio.InexactFloat64(),
			Threshold: alert.Threshold.InexactFloat64(),
			Triggered: alert.Triggered,
		},
	})
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	months := stats.DefaultTrendMonths

	if s := r.URL.Query().Get("months"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			respond.Error(w, r, &transaction.ValidationError{Field: "months", Message: "must be a number"})
			return
		}

		months = n
	}

	owner, _ := middleware.UserID(r.Context())

	points, err := h.svc.Trend(r.Context(), owner, months)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]pointResponse, len(points))
	for i, p := range points {
		resp[i] = pointResponse{
			Label:   p.Label(),
			Year:    p.Year,
			Month:   int(p.Month),
			Income:  p.Income.InexactFloat64(),
			Expense: p.Expense.InexactFloat64(),
		}
	}

	respond.JSON(w, http.StatusOK, resp)
}
