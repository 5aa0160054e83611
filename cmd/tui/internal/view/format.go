package view

import (
	"context"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

const requestTimeout = 10 * time.Second

var (
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func FormatAmount(d decimal.Decimal) string {
	return "€" + d.StringFixed(2)
}

// FormatSigned prefixes expenses with "-" and income with "+".
func FormatSigned(tx *transaction.Transaction) string {
	if tx.Type == transaction.TypeIncome {
		return "+" + FormatAmount(tx.Amount)
	}

	return "-" + FormatAmount(tx.Amount)
}

// FormatDate renders a transaction's calendar day.
func FormatDate(t time.Time) string {
	return transaction.CalendarDate(t)
}

// RequestCtx returns a context with a standard timeout for API calls.
func RequestCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}
