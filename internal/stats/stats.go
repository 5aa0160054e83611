// Package stats derives totals, per-category breakdowns and monthly trends from
// a set of transactions. The aggregation functions are pure; Service only loads
// the owner's transactions before calling them.
package stats

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

const (
	DefaultTrendMonths = 6
	MaxTrendMonths     = 24
)

// DefaultSpendingThreshold is the expense/income ratio at which a spending alert fires.
var DefaultSpendingThreshold = decimal.RequireFromString("0.8")

type Summary struct {
	TotalIncome       decimal.Decimal
	TotalExpense      decimal.Decimal
	Balance           decimal.Decimal
	CategoryBreakdown map[transaction.Category]decimal.Decimal
	TransactionCount  int
}

// Summarize totals txs by type and by category.
func Summarize(txs []*transaction.Transaction) Summary {
	s := Summary{
		CategoryBreakdown: make(map[transaction.Category]decimal.Decimal),
		TransactionCount:  len(txs),
	}

	for _, tx := range txs {
		switch tx.Type {
		case transaction.TypeIncome:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case transaction.TypeExpense:
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
		}

		s.CategoryBreakdown[tx.Category] = s.CategoryBreakdown[tx.Category].Add(tx.Amount)
	}

	s.Balance = s.TotalIncome.Sub(s.TotalExpense)

	return s
}

// MonthPoint holds one calendar month of the trend.
type MonthPoint struct {
	Year    int
	Month   time.Month
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Label renders the point the way charts show it, e.g. "Jan 2024".
func (p MonthPoint) Label() string {
	return fmt.Sprintf("%s %d", p.Month.String()[:3], p.Year)
}

// Trend returns exactly months points, oldest first, ending with now's month.
// now's month is read in now's location; transaction dates are bucketed by their
// UTC calendar day. Months without activity are zero.
func Trend(txs []*transaction.Transaction, now time.Time, months int) []MonthPoint {
	if months <= 0 {
		return []MonthPoint{}
	}

	first := TrendStart(now, months)

	points := make([]MonthPoint, months)
	index := make(map[[2]int]int, months)

	for i := range points {
		m := first.AddDate(0, i, 0)
		points[i] = MonthPoint{Year: m.Year(), Month: m.Month()}
		index[[2]int{m.Year(), int(m.Month())}] = i
	}

	for _, tx := range txs {
		d := tx.Date.UTC()

		i, ok := index[[2]int{d.Year(), int(d.Month())}]
		if !ok {
			continue
		}

		switch tx.Type {
		case transaction.TypeIncome:
			points[i].Income = points[i].Income.Add(tx.Amount)
		case transaction.TypeExpense:
			points[i].Expense = points[i].Expense.Add(tx.Amount)
		}
	}

	return points
}

// TrendStart is midnight UTC on the first day of the oldest month Trend covers.
func TrendStart(now time.Time, months int) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
}

type SpendingAlert struct {
	Ratio     decimal.Decimal
	Threshold decimal.Decimal
	Triggered bool
}

// CheckSpending compares expenses to income. With no income there is no ratio and
// the alert never triggers.
func CheckSpending(s Summary, threshold decimal.Decimal) SpendingAlert {
	alert := SpendingAlert{Threshold: threshold}

	if !s.TotalIncome.IsPositive() {
		return alert
	}

	alert.Ratio = s.TotalExpense.DivRound(s.TotalIncome, 4)
	alert.Triggered = alert.Ratio.GreaterThanOrEqual(threshold)

	return alert
}
