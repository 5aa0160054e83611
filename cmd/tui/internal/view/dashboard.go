package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/cmd/tui/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/stats"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

const barWidth = 30

type DashboardModel struct {
	CommonModel
	client *client.Client
	now    func() time.Time

	summary stats.Summary
	alert   stats.SpendingAlert
	trend   []stats.MonthPoint

	loading bool
	err     error
}

func NewDashboardModel(c *client.Client) DashboardModel {
	return DashboardModel{client: c, now: time.Now, loading: true}
}

func (m DashboardModel) Title() string     { return "Dashboard" }
func (m DashboardModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m DashboardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardMsg:
		m.loading = false
		m.err = msg.err

		if msg.err != nil {
			if client.IsUnauthorized(msg.err) {
				return m, func() tea.Msg { return SessionExpiredMsg{} }
			}

			return m, nil
		}

		m.summary, m.alert, m.trend = msg.summary, msg.alert, msg.trend

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	return m, nil
}

func (m DashboardModel) View() string {
	style := lipgloss.NewStyle().Padding(1, 2)

	if m.loading {
		return style.Render("Loading dashboard...")
	}

	if m.err != nil {
		return style.Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	sections := []string{
		m.cardsView(),
		m.alertView(),
		m.breakdownView(),
		m.trendView(),
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m DashboardModel) cardsView() string {
	card := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 2).
		MarginRight(1).
		Width(22)

	balanceStyle := incomeStyle
	if m.summary.Balance.IsNegative() {
		balanceStyle = expenseStyle
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		card.Render("Income\n"+incomeStyle.Render(FormatAmount(m.summary.TotalIncome))),
		card.Render("Expenses\n"+expenseStyle.Render(FormatAmount(m.summary.TotalExpense))),
		card.Render("Balance\n"+balanceStyle.Render(FormatAmount(m.summary.Balance))),
		card.Render(fmt.Sprintf("Transactions\n%d", m.summary.TransactionCount)),
	)
}

func (m DashboardModel) alertView() string {
	if !m.alert.Triggered {
		return ""
	}

	pct := m.alert.Ratio.Mul(decimal.NewFromInt(100)).StringFixed(0)

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true).
		MarginTop(1).
		Render(fmt.Sprintf("⚠ You have spent %s%% of your income.", pct))
}

func (m DashboardModel) breakdownView() string {
	var sb strings.Builder

	sb.WriteString(lipgloss.NewStyle().Bold(true).MarginTop(1).Render("By category") + "\n")

	if len(m.summary.CategoryBreakdown) == 0 {
		sb.WriteString(faintStyle.Render("No transactions yet."))
		return sb.String()
	}

	type row struct {
		category transaction.Category
		amount   decimal.Decimal
	}

	rows := make([]row, 0, len(m.summary.CategoryBreakdown))
	for c, a := range m.summary.CategoryBreakdown {
		rows = append(rows, row{category: c, amount: a})
	}

	slices.SortFunc(rows, func(a, b row) int {
		if c := b.amount.Cmp(a.amount); c != 0 {
			return c
		}

		return cmp.Compare(a.category, b.category)
	})

	largest := rows[0].amount

	for _, r := range rows {
		style := expenseStyle
		if r.category.Type() == transaction.TypeIncome {
			style = incomeStyle
		}

		fmt.Fprintf(&sb, "%-15s %s %s\n", r.category, style.Render(bar(r.amount, largest)), FormatAmount(r.amount))
	}

	return sb.String()
}

func (m DashboardModel) trendView() string {
	var sb strings.Builder

	sb.WriteString(lipgloss.NewStyle().Bold(true).MarginTop(1).Render(
		fmt.Sprintf("Last %d months", len(m.trend))) + "\n")

	largest := decimal.Zero
	for _, p := range m.trend {
		largest = decimal.Max(largest, p.Income, p.Expense)
	}

	for _, p := range m.trend {
		fmt.Fprintf(&sb, "%-9s %s %s\n", p.Label(), incomeStyle.Render(bar(p.Income, largest)), FormatAmount(p.Income))
		fmt.Fprintf(&sb, "%-9s %s %s\n", "", expenseStyle.Render(bar(p.Expense, largest)), FormatAmount(p.Expense))
	}

	return sb.String()
}

// bar renders v as a share of top, at least one cell for any positive value.
func bar(v, top decimal.Decimal) string {
	if !top.IsPositive() || !v.IsPositive() {
		return strings.Repeat(" ", barWidth)
	}

	n := int(v.Div(top).Mul(decimal.NewFromInt(barWidth)).IntPart())
	n = min(max(n, 1), barWidth)

	return strings.Repeat("█", n) + strings.Repeat(" ", barWidth-n)
}

type dashboardMsg struct {
	summary stats.Summary
	alert   stats.SpendingAlert
	trend   []stats.MonthPoint
	err     error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	now := m.now()

	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		summary, alert, err := m.client.Summary(ctx)
		if err != nil {
			return dashboardMsg{err: err}
		}

		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
			AddDate(0, -(stats.DefaultTrendMonths - 1), 0)

		txs, err := m.client.List(ctx, transaction.ListFilter{StartDate: &start})
		if err != nil {
			return dashboardMsg{err: err}
		}

		return dashboardMsg{
			summary: summary,
			alert:   alert,
			trend:   stats.Trend(txs, now, stats.DefaultTrendMonths),
		}
	}
}
