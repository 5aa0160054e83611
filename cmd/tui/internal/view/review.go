package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerly/cmd/tui/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type reviewState int

const (
	reviewStateTimeframe reviewState = iota
	reviewStateLoading
	reviewStateReviewing
	reviewStateDone
)

// skipCategory is the select value that leaves a transaction untouched.
const skipCategory transaction.Category = ""

type reviewFields struct {
	category transaction.Category
	remember bool
}

// ReviewModel walks through transactions still filed under a catch-all
// category and lets the user pick a real one, optionally learning a rule.
type ReviewModel struct {
	CommonModel
	client *client.Client

	state           reviewState
	timeframePicker TimeframePicker

	queue      []*transaction.Transaction
	current    *transaction.Transaction
	suggestion transaction.Category
	total      int
	updated    int

	form   *huh.Form
	fields *reviewFields

	status string
	err    error
}

func NewReviewModel(c *client.Client) ReviewModel {
	return ReviewModel{
		client:          c,
		timeframePicker: NewTimeframePicker(TimeframeThisMonth),
	}
}

func (m ReviewModel) Title() string { return "Review Categories" }

func (m ReviewModel) ShortHelp() string {
	if m.state == reviewStateReviewing {
		return "Enter: save & next | Esc: stop"
	}

	return "Esc: back | Enter: select"
}

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// NeedsReview reports whether tx sits in its type's fallback category.
func NeedsReview(tx *transaction.Transaction) bool {
	return tx.Category == transaction.CategoryOtherIncome || tx.Category == transaction.CategoryOtherExpense
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		var filter transaction.ListFilter
		msg.Apply(&filter)
		m.state = reviewStateLoading

		return m, m.loadCmd(filter)

	case reviewLoadedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}

		m.queue = msg.txs
		m.total = len(msg.txs)
		m.updated = 0

		cmd := m.next()

		return m, cmd

	case suggestionMsg:
		if msg.tx != m.current {
			return m, nil
		}

		m.suggestion = msg.category
		m.fields = &reviewFields{category: msg.category, remember: msg.category == ""}

		if m.fields.category == "" {
			m.fields.category = m.current.Category
		}

		m.form = m.buildForm()
		m.state = reviewStateReviewing

		return m, m.form.Init()

	case reviewSavedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}

		if msg.changed {
			m.updated++
		}

		cmd := m.next()

		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}
	}

	switch m.state {
	case reviewStateTimeframe:
		var cmd tea.Cmd
		m.timeframePicker, cmd = m.timeframePicker.Update(msg)

		return m, cmd

	case reviewStateReviewing:
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State == huh.StateCompleted {
			m.state = reviewStateLoading
			return m, m.saveCmd()
		}

		return m, cmd
	}

	return m, nil
}

func (m ReviewModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case reviewStateTimeframe:
		if m.timeframePicker.IsSelecting() {
			return m, Back
		}

		var cmd tea.Cmd
		m.timeframePicker, cmd = m.timeframePicker.Update(tea.KeyMsg{Type: tea.KeyEsc})

		return m, cmd

	case reviewStateReviewing:
		m.queue = nil
		m.current = nil
		m.state = reviewStateDone
		m.status = m.summary()

		return m, nil

	case reviewStateDone:
		m.state = reviewStateTimeframe
		m.timeframePicker.Reset()
		m.err = nil

		return m, nil
	}

	return m, nil
}

func (m ReviewModel) fail(err error) (tea.Model, tea.Cmd) {
	if client.IsUnauthorized(err) {
		return m, func() tea.Msg { return SessionExpiredMsg{} }
	}

	m.state = reviewStateDone
	m.err = err
	m.status = fmt.Sprintf("Error: %v", err)

	return m, nil
}

// next pops the queue and fetches a suggestion for the popped transaction.
func (m *ReviewModel) next() tea.Cmd {
	if len(m.queue) == 0 {
		m.current = nil
		m.state = reviewStateDone
		m.status = m.summary()

		return nil
	}

	m.current = m.queue[0]
	m.queue = m.queue[1:]
	m.state = reviewStateLoading

	return m.suggestCmd(m.current)
}

func (m ReviewModel) summary() string {
	if m.total == 0 {
		return "Nothing to review: every transaction has a specific category."
	}

	return fmt.Sprintf("Reviewed %d of %d transactions, %d recategorized.",
		m.total-len(m.queue), m.total, m.updated)
}

func (m ReviewModel) buildForm() *huh.Form {
	options := []huh.Option[transaction.Category]{huh.NewOption("(skip)", skipCategory)}
	for _, c := range transaction.Categories(m.current.Type) {
		label := string(c)
		if c == m.suggestion {
			label += " (suggested)"
		}

		options = append(options, huh.NewOption(label, c))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[transaction.Category]().
				Title("Category").
				Options(options...).
				Value(&m.fields.category),
			huh.NewConfirm().
				Title("Remember for similar titles?").
				Value(&m.fields.remember),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ReviewModel) View() string {
	switch m.state {
	case reviewStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())

	case reviewStateLoading:
		return lipgloss.NewStyle().Padding(2).Render("Loading...")

	case reviewStateReviewing:
		tx := m.current
		info := fmt.Sprintf("%s  %s  %s\n%s",
			FormatDate(tx.Date),
			FormatSigned(tx),
			tx.Title,
			faintStyle.Render("currently: "+string(tx.Category)),
		)
		progress := fmt.Sprintf("Reviewing %d/%d", m.total-len(m.queue), m.total)

		return lipgloss.NewStyle().Padding(1).Render(
			lipgloss.JoinVertical(lipgloss.Left, progress, "", info, "", m.form.View()),
		)

	case reviewStateDone:
		style := incomeStyle
		if m.err != nil {
			style = errorStyle
		}

		return lipgloss.NewStyle().Padding(2).Render(style.Render(m.status) + "\n\n(Esc to go back)")
	}

	return ""
}

type reviewLoadedMsg struct {
	txs []*transaction.Transaction
	err error
}

type suggestionMsg struct {
	tx       *transaction.Transaction
	category transaction.Category
}

type reviewSavedMsg struct {
	changed bool
	err     error
}

func (m ReviewModel) loadCmd(filter transaction.ListFilter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		txs, err := m.client.List(ctx, filter)
		if err != nil {
			return reviewLoadedMsg{err: err}
		}

		var pending []*transaction.Transaction

		for _, tx := range txs {
			if NeedsReview(tx) {
				pending = append(pending, tx)
			}
		}

		return reviewLoadedMsg{txs: pending}
	}
}

// suggestCmd ignores lookup failures and suggestions of the wrong type.
func (m ReviewModel) suggestCmd(tx *transaction.Transaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		category, err := m.client.Suggest(ctx, tx.Title)
		if err != nil || category.Type() != tx.Type || category == tx.Category {
			category = ""
		}

		return suggestionMsg{tx: tx, category: category}
	}
}

func (m ReviewModel) saveCmd() tea.Cmd {
	tx := m.current
	category := m.fields.category
	remember := m.fields.remember

	return func() tea.Msg {
		if category == skipCategory || category == tx.Category {
			return reviewSavedMsg{}
		}

		ctx, cancel := RequestCtx()
		defer cancel()

		if _, err := m.client.Update(ctx, tx.ID, transaction.UpdateParams{Category: &category}); err != nil {
			return reviewSavedMsg{err: err}
		}

		if remember {
			if err := m.client.Learn(ctx, tx.Title, category); err != nil {
				return reviewSavedMsg{err: fmt.Errorf("save rule: %w", err)}
			}
		}

		return reviewSavedMsg{changed: true}
	}
}
