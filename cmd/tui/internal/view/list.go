package view

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerly/cmd/tui/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateSearch
	listStateForm
	listStateConfirmDelete
)

var typeFilters = []struct {
	label string
	t     transaction.Type
}{
	{label: "All"},
	{label: "Income", t: transaction.TypeIncome},
	{label: "Expense", t: transaction.TypeExpense},
}

type ListModel struct {
	CommonModel
	client *client.Client

	state  listState
	table  table.Model
	search textinput.Model
	form   TxFormModel
	remove *huh.Form
	sure   *bool
	txs    []*transaction.Transaction

	typeFilterIdx int
	timeframe     Timeframe

	filter  transaction.ListFilter
	loading bool
	err     error
	status  string
}

func NewListModel(c *client.Client) ListModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Title", Width: 32},
		{Title: "Category", Width: 15},
		{Title: "Amount", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	search := textinput.New()
	search.Placeholder = "Search titles"
	search.Prompt = "/ "
	search.Width = 30

	return ListModel{
		client:  c,
		table:   t,
		search:  search,
		loading: true,
	}
}

func (m ListModel) Title() string { return "Transactions" }

func (m ListModel) ShortHelp() string {
	switch m.state {
	case listStateSearch:
		return "Enter: apply | Esc: clear"
	case listStateForm, listStateConfirmDelete:
		return "Esc: cancel"
	}

	return "Esc: back | a: add | e: edit | x: delete | t: type | d: dates | /: search | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadTxsCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err)
		}

		m.err = nil
		m.txs = msg.txs
		m.refreshTable()

		return m, nil

	case txSavedMsg:
		m.state = listStateBrowse
		m.table.Focus()

		m.status = "Saved."
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		}

		return m, m.loadTxsCmd()

	case txFormCancelledMsg:
		m.state = listStateBrowse
		m.table.Focus()

		return m, nil

	case deleteResultMsg:
		m.state = listStateBrowse
		m.table.Focus()

		m.status = "Transaction deleted."
		if msg.err != nil {
			m.status = fmt.Sprintf("Error deleting: %v", msg.err)
		}

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case listStateSearch:
		return m.updateSearch(msg)
	case listStateForm:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)

		return m, cmd
	case listStateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	return m.updateBrowse(msg)
}

func (m ListModel) fail(err error) (tea.Model, tea.Cmd) {
	if client.IsUnauthorized(err) {
		return m, func() tea.Msg { return SessionExpiredMsg{} }
	}

	m.err = err

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadTxsCmd()
		case "a":
			return m.openForm(nil)
		case "e":
			if tx := m.selected(); tx != nil {
				return m.openForm(tx)
			}

			return m, nil
		case "x":
			return m.confirmDelete()
		case "t":
			m.typeFilterIdx = (m.typeFilterIdx + 1) % len(typeFilters)
			m.applyFilter()

			return m, m.loadTxsCmd()
		case "d":
			m.timeframe = Timeframe((int(m.timeframe) + 1) % presetTimeframes)
			m.applyFilter()

			return m, m.loadTxsCmd()
		case "/":
			m.state = listStateSearch
			m.table.Blur()

			return m, m.search.Focus()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			m.search.SetValue("")
			fallthrough
		case tea.KeyEnter:
			m.state = listStateBrowse
			m.search.Blur()
			m.table.Focus()
			m.applyFilter()

			return m, m.loadTxsCmd()
		}
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)

	return m, cmd
}

func (m ListModel) openForm(tx *transaction.Transaction) (tea.Model, tea.Cmd) {
	m.form = NewTxFormModel(m.client, tx)
	m.state = listStateForm
	m.status = ""
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) confirmDelete() (tea.Model, tea.Cmd) {
	tx := m.selected()
	if tx == nil {
		return m, nil
	}

	m.sure = new(false)
	m.remove = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q (%s)?", tx.Title, FormatSigned(tx))).
				Affirmative("Delete").
				Negative("Keep").
				Value(m.sure),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = listStateConfirmDelete
	m.table.Blur()

	return m, m.remove.Init()
}

func (m ListModel) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = listStateBrowse
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.remove.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.remove = f
	}

	if m.remove.State != huh.StateCompleted {
		return m, cmd
	}

	if !*m.sure {
		m.state = listStateBrowse
		m.table.Focus()

		return m, nil
	}

	return m, m.deleteCmd(m.selected())
}

func (m ListModel) selected() *transaction.Transaction {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	return m.txs[idx]
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf(
		"[t] Type: %s | [d] Dates: %s | [/] Search: %s",
		activeStyle(typeFilters[m.typeFilterIdx].label),
		activeStyle(m.timeframe.String()),
		activeStyle(cmp.Or(m.filter.Search, "-")),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	switch m.state {
	case listStateSearch:
		content = lipgloss.JoinVertical(lipgloss.Left, m.search.View(), content)
	case listStateForm:
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, m.form.View())
	case listStateConfirmDelete:
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.remove.View())
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ListModel) applyFilter() {
	m.filter.Type = nil
	if t := typeFilters[m.typeFilterIdx].t; t != "" {
		m.filter.Type = &t
	}

	m.filter.Search = strings.TrimSpace(m.search.Value())
	m.timeframe.Apply(&m.filter, time.Now())
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			tx.Title,
			string(tx.Category),
			FormatSigned(tx),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadListMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m ListModel) loadTxsCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		txs, err := m.client.List(ctx, filter)

		return loadListMsg{txs: txs, err: err}
	}
}

type deleteResultMsg struct {
	err error
}

func (m ListModel) deleteCmd(tx *transaction.Transaction) tea.Cmd {
	if tx == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		return deleteResultMsg{err: m.client.Delete(ctx, tx.ID)}
	}
}
