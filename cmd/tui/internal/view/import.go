package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerly/cmd/tui/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

const uploadTimeout = 2 * time.Minute

type importStep int

const (
	stepPickFile importStep = iota
	stepUploading
	stepResolve
	stepDone
)

// ImportModel uploads a CSV file and, when the server reports rows that
// already exist, lets the user pick which of them to import anyway.
type ImportModel struct {
	CommonModel
	client *client.Client

	step    importStep
	picker  filepicker.Model
	spinner spinner.Model
	file    string

	pending    []transaction.CreateParams
	duplicates []transaction.Conflict
	keep       map[int]bool
	dupList    list.Model

	imported int
	skipped  int
	err      error
}

func NewImportModel(c *client.Client) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".CSV", ".txt"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	s := spinner.New()
	s.Spinner = spinner.Dot

	return ImportModel{
		client:  c,
		picker:  fp,
		spinner: s,
		keep:    make(map[int]bool),
	}
}

func (m ImportModel) Title() string { return "Import CSV" }

func (m ImportModel) ShortHelp() string {
	switch m.step {
	case stepResolve:
		return "Space: keep/drop | a: keep all | n: drop all | Enter: import | Esc: cancel"
	case stepDone:
		return "Esc: import another file"
	}

	return "Esc: back | Enter: open"
}

func (m ImportModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.back()
		}

		if m.step == stepResolve {
			return m.resolveKey(msg)
		}

	case uploadedMsg:
		return m.onUploaded(msg)

	case confirmedMsg:
		m.step = stepDone
		m.err = msg.err
		m.imported = msg.count
		m.skipped = msg.skipped

		if client.IsUnauthorized(msg.err) {
			return m, func() tea.Msg { return SessionExpiredMsg{} }
		}

		return m, nil

	case spinner.TickMsg:
		if m.step != stepUploading {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	if m.step != stepPickFile {
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.step = stepUploading
		m.file = path

		return m, tea.Batch(m.spinner.Tick, m.uploadCmd(path))
	}

	return m, cmd
}

func (m ImportModel) onUploaded(msg uploadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if client.IsUnauthorized(msg.err) {
			return m, func() tea.Msg { return SessionExpiredMsg{} }
		}

		m.step = stepDone
		m.err = msg.err

		return m, nil
	}

	if len(msg.result.Conflicts) == 0 {
		m.step = stepDone
		m.imported = len(msg.result.Imported)

		return m, nil
	}

	m.step = stepResolve
	m.pending = msg.result.New
	m.duplicates = msg.result.Conflicts
	m.keep = make(map[int]bool)
	m.dupList = newDuplicateList(m.duplicates, m.keep, len(m.pending))

	return m, nil
}

func newDuplicateList(conflicts []transaction.Conflict, keep map[int]bool, fresh int) list.Model {
	items := make([]list.Item, 0, len(conflicts))
	for i, c := range conflicts {
		items = append(items, duplicateItem{Conflict: c, pos: i})
	}

	l := list.New(items, duplicateDelegate{keep: keep}, 80, 20)
	l.Title = fmt.Sprintf("%d rows already exist, %d are new", len(conflicts), fresh)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

func (m ImportModel) back() (tea.Model, tea.Cmd) {
	if m.step == stepPickFile || m.step == stepUploading {
		return m, Back
	}

	fresh := NewImportModel(m.client)
	fresh.picker.CurrentDirectory = m.picker.CurrentDirectory

	return fresh, fresh.Init()
}

func (m ImportModel) resolveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		pos := m.dupList.Index()
		m.keep[pos] = !m.keep[pos]

		return m, nil
	case "a":
		for pos := range m.duplicates {
			m.keep[pos] = true
		}

		return m, nil
	case "n":
		clear(m.keep)
		return m, nil
	case "enter":
		m.step = stepUploading
		return m, tea.Batch(m.spinner.Tick, m.confirmCmd())
	}

	var cmd tea.Cmd
	m.dupList, cmd = m.dupList.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	pad := lipgloss.NewStyle().Padding(1)

	switch m.step {
	case stepPickFile:
		return pad.Render("Pick a ledgerly export or a bank statement:\n\n" + m.picker.View())
	case stepUploading:
		return pad.Render(fmt.Sprintf("%s Importing %s...", m.spinner.View(), m.file))
	case stepResolve:
		return pad.Render(m.dupList.View() + "\n" + faintStyle.Render("Kept rows are imported as additional transactions."))
	case stepDone:
		return pad.Render(m.doneView())
	}

	return ""
}

func (m ImportModel) doneView() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Import failed: %v", m.err))
	}

	s := incomeStyle.Render(fmt.Sprintf("Imported %d transactions.", m.imported))
	if m.skipped > 0 {
		s += "\n" + faintStyle.Render(fmt.Sprintf("Skipped %d duplicates.", m.skipped))
	}

	return s
}

type uploadedMsg struct {
	result *client.ImportResult
	err    error
}

type confirmedMsg struct {
	count   int
	skipped int
	err     error
}

func (m ImportModel) uploadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		defer cancel()

		result, err := m.client.Import(ctx, path)

		return uploadedMsg{result: result, err: err}
	}
}

// confirmCmd imports every new row plus the duplicates marked to keep.
func (m ImportModel) confirmCmd() tea.Cmd {
	rows := make([]transaction.CreateParams, 0, len(m.pending)+len(m.keep))
	rows = append(rows, m.pending...)

	for pos, c := range m.duplicates {
		if m.keep[pos] {
			rows = append(rows, c.Incoming)
		}
	}

	skipped := len(m.pending) + len(m.duplicates) - len(rows)

	return func() tea.Msg {
		if len(rows) == 0 {
			return confirmedMsg{skipped: skipped}
		}

		ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		defer cancel()

		created, err := m.client.ConfirmImport(ctx, rows)

		return confirmedMsg{count: len(created), skipped: skipped, err: err}
	}
}

type duplicateItem struct {
	transaction.Conflict
	pos int
}

func (i duplicateItem) Title() string       { return i.Incoming.Title }
func (i duplicateItem) Description() string { return i.Existing.Title }
func (i duplicateItem) FilterValue() string { return i.Incoming.Title }

type duplicateDelegate struct {
	keep map[int]bool
}

func (d duplicateDelegate) Height() int                             { return 2 }
func (d duplicateDelegate) Spacing() int                            { return 1 }
func (d duplicateDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d duplicateDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	item, ok := li.(duplicateItem)
	if !ok {
		return
	}

	mark := "[ ]"
	if d.keep[item.pos] {
		mark = "[x]"
	}

	line := fmt.Sprintf("%s %s  %-7s %10s  %s",
		mark,
		FormatDate(item.Incoming.Date),
		item.Incoming.Type,
		FormatAmount(item.Incoming.Amount.Decimal),
		item.Incoming.Title,
	)

	if index == m.Index() {
		line = activeStyle("> " + line)
	} else {
		line = "  " + line
	}

	fmt.Fprintln(w, line)
	fmt.Fprint(w, faintStyle.Render(fmt.Sprintf("      matches %s %s %q (%s)",
		FormatDate(item.Existing.Date),
		FormatSigned(item.Existing),
		item.Existing.Title,
		item.Existing.Category,
	)))
}
