package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/cmd/tui/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

// txSavedMsg reports the outcome of the add/edit form.
type txSavedMsg struct {
	tx  *transaction.Transaction
	err error
}

type txFormCancelledMsg struct{}

// TxFormModel adds a transaction, or edits one when editing is set.
type TxFormModel struct {
	client  *client.Client
	editing *transaction.Transaction

	form   *huh.Form
	fields *txFields
	saving bool
}

type txFields struct {
	title    string
	amount   string
	txType   transaction.Type
	category transaction.Category
	date     string
	remember bool
}

func NewTxFormModel(c *client.Client, editing *transaction.Transaction) TxFormModel {
	f := &txFields{
		txType: transaction.TypeExpense,
		date:   time.Now().Format(time.DateOnly),
	}

	if editing != nil {
		f.title = editing.Title
		f.amount = editing.Amount.StringFixed(2)
		f.txType = editing.Type
		f.category = editing.Category
		f.date = FormatDate(editing.Date)
	}

	m := TxFormModel{client: c, editing: editing, fields: f}
	m.form = m.buildForm()

	return m
}

func (m TxFormModel) buildForm() *huh.Form {
	f := m.fields

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[transaction.Type]().
				Title("Type").
				Options(
					huh.NewOption("Expense", transaction.TypeExpense),
					huh.NewOption("Income", transaction.TypeIncome),
				).
				Value(&f.txType),

			huh.NewSelect[transaction.Category]().
				Title("Category").
				OptionsFunc(func() []huh.Option[transaction.Category] {
					categories := transaction.Categories(f.txType)

					options := make([]huh.Option[transaction.Category], len(categories))
					for i, c := range categories {
						options[i] = huh.NewOption(string(c), c)
					}

					return options
				}, &f.txType).
				Value(&f.category),

			huh.NewInput().
				Title("Title").
				Value(&f.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title cannot be empty")
					}

					return nil
				}),

			huh.NewInput().
				Title("Amount").
				Placeholder("0.00").
				Value(&f.amount).
				Validate(func(s string) error {
					_, err := parseAmountInput(s)
					return err
				}),

			huh.NewInput().
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&f.date).
				Validate(func(s string) error {
					if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
						return errors.New("use YYYY-MM-DD")
					}

					return nil
				}),

			huh.NewConfirm().
				Title("Use this category for similar titles?").
				Affirmative("Yes").
				Negative("No").
				Value(&f.remember),
		),
	).WithWidth(50).WithShowHelp(false)
}

func parseAmountInput(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, errors.New("enter a number like 12.50")
	}

	if d.IsNegative() {
		return decimal.Zero, errors.New("amount cannot be negative")
	}

	return d, nil
}

func (m TxFormModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m TxFormModel) Update(msg tea.Msg) (TxFormModel, tea.Cmd) {
	if m.saving {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, func() tea.Msg { return txFormCancelledMsg{} }
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.saving = true

	return m, m.saveCmd()
}

func (m TxFormModel) View() string {
	title := "New transaction"
	if m.editing != nil {
		title = "Edit transaction"
	}

	body := m.form.View()
	if m.saving {
		body = "Saving..."
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(lipgloss.NewStyle().Bold(true).Render(title) + "\n\n" + body)
}

func (m TxFormModel) saveCmd() tea.Cmd {
	f := *m.fields
	editing := m.editing

	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		amount, err := parseAmountInput(f.amount)
		if err != nil {
			return txSavedMsg{err: err}
		}

		date, err := time.Parse(time.DateOnly, strings.TrimSpace(f.date))
		if err != nil {
			return txSavedMsg{err: err}
		}

		title := strings.TrimSpace(f.title)

		var tx *transaction.Transaction

		if editing == nil {
			tx, err = m.client.Create(ctx, transaction.CreateParams{
				Title:    title,
				Amount:   decimal.NewNullDecimal(amount),
				Category: f.category,
				Type:     f.txType,
				Date:     date,
			})
		} else {
			tx, err = m.client.Update(ctx, editing.ID, transaction.UpdateParams{
				Title:    &title,
				Amount:   &amount,
				Category: &f.category,
				Type:     &f.txType,
				Date:     &date,
			})
		}

		if err != nil {
			return txSavedMsg{err: err}
		}

		if f.remember {
			if err := m.client.Learn(ctx, title, f.category); err != nil {
				return txSavedMsg{tx: tx, err: fmt.Errorf("saved, but remembering the category failed: %w", err)}
			}
		}

		return txSavedMsg{tx: tx}
	}
}
