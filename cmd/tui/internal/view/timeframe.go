package view

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

// Timeframe is a predefined or custom date range over whole days.
type Timeframe int

const (
	TimeframeAll Timeframe = iota
	TimeframeThisMonth
	TimeframeLastMonth
	TimeframeLastThreeMonths
	TimeframeThisYear
	TimeframeCustom
)

// presetTimeframes excludes Custom, which needs user input.
const presetTimeframes = int(TimeframeCustom)

func (t Timeframe) String() string {
	switch t {
	case TimeframeAll:
		return "All Time"
	case TimeframeThisMonth:
		return "This Month"
	case TimeframeLastMonth:
		return "Last Month"
	case TimeframeLastThreeMonths:
		return "Last 3 Months"
	case TimeframeThisYear:
		return "This Year"
	case TimeframeCustom:
		return "Custom Range"
	}

	return "Unknown"
}

// Range returns the first and last day of t relative to now. ok is false for
// All and Custom, which have no fixed bounds.
func (t Timeframe) Range(now time.Time) (start, end time.Time, ok bool) {
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	switch t {
	case TimeframeThisMonth:
		return month, month.AddDate(0, 1, -1), true
	case TimeframeLastMonth:
		return month.AddDate(0, -1, 0), month.AddDate(0, 0, -1), true
	case TimeframeLastThreeMonths:
		return month.AddDate(0, -2, 0), month.AddDate(0, 1, -1), true
	case TimeframeThisYear:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), time.Date(now.Year(), 12, 31, 0, 0, 0, 0, now.Location()), true
	}

	return time.Time{}, time.Time{}, false
}

// Apply sets filter's date bounds for t.
func (t Timeframe) Apply(filter *transaction.ListFilter, now time.Time) {
	start, end, ok := t.Range(now)
	if !ok {
		filter.StartDate, filter.EndDate = nil, nil
		return
	}

	filter.StartDate, filter.EndDate = &start, &end
}

// TimeframeSelectedMsg is emitted once a range is chosen. Start and End are zero when All is set.
type TimeframeSelectedMsg struct {
	Start time.Time
	End   time.Time
	All   bool
}

// Apply sets filter's date bounds from the selection.
func (msg TimeframeSelectedMsg) Apply(filter *transaction.ListFilter) {
	if msg.All {
		filter.StartDate, filter.EndDate = nil, nil
		return
	}

	start, end := msg.Start, msg.End
	filter.StartDate, filter.EndDate = &start, &end
}

type timeframeState int

const (
	timeframeStateSelect timeframeState = iota
	timeframeStateCustom
)

// TimeframePicker lets the user choose a preset or type a custom range.
type TimeframePicker struct {
	state    timeframeState
	selected Timeframe
	initial  Timeframe

	startInput textinput.Model
	endInput   textinput.Model
	focusIndex int

	err error
}

func NewTimeframePicker(initial Timeframe) TimeframePicker {
	newInput := func(prompt string) textinput.Model {
		in := textinput.New()
		in.Placeholder = "YYYY-MM-DD"
		in.CharLimit = 10
		in.Width = 12
		in.Prompt = prompt

		return in
	}

	return TimeframePicker{
		selected:   initial,
		initial:    initial,
		startInput: newInput("From: "),
		endInput:   newInput("To:   "),
	}
}

func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.state == timeframeStateSelect {
			return m.updateSelect(keyMsg)
		}

		return m.updateCustom(keyMsg)
	}

	if m.state == timeframeStateCustom {
		return m.updateInputs(msg)
	}

	return m, nil
}

func (m TimeframePicker) updateSelect(msg tea.KeyMsg) (TimeframePicker, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selected > TimeframeAll {
			m.selected--
		}
	case "down", "j":
		if m.selected < TimeframeCustom {
			m.selected++
		}
	case "enter":
		if m.selected == TimeframeCustom {
			m.state = timeframeStateCustom
			m.focusIndex = 0
			m.startInput.Focus()

			return m, textinput.Blink
		}

		start, end, ok := m.selected.Range(time.Now())
		selected := TimeframeSelectedMsg{Start: start, End: end, All: !ok}

		return m, func() tea.Msg { return selected }
	}

	return m, nil
}

func (m TimeframePicker) updateCustom(msg tea.KeyMsg) (TimeframePicker, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusIndex = 1 - m.focusIndex
		m.startInput.Blur()
		m.endInput.Blur()

		if m.focusIndex == 0 {
			m.startInput.Focus()
		} else {
			m.endInput.Focus()
		}

		return m, textinput.Blink

	case "enter":
		start, end, err := parseRange(m.startInput.Value(), m.endInput.Value())
		if err != nil {
			m.err = err
			return m, nil
		}

		m.err = nil
		selected := TimeframeSelectedMsg{Start: start, End: end}

		return m, func() tea.Msg { return selected }

	case "esc":
		m.state = timeframeStateSelect
		m.err = nil

		return m, nil
	}

	return m.updateInputs(msg)
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(from), time.Local)
	if err != nil {
		return start, start, errors.New("invalid start date (YYYY-MM-DD)")
	}

	end, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(to), time.Local)
	if err != nil {
		return start, end, errors.New("invalid end date (YYYY-MM-DD)")
	}

	if end.Before(start) {
		return start, end, errors.New("end date is before start date")
	}

	return start, end, nil
}

func (m TimeframePicker) updateInputs(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	var startCmd, endCmd tea.Cmd

	m.startInput, startCmd = m.startInput.Update(msg)
	m.endInput, endCmd = m.endInput.Update(msg)

	return m, tea.Batch(startCmd, endCmd)
}

func (m TimeframePicker) View() string {
	var sb strings.Builder

	if m.state == timeframeStateCustom {
		sb.WriteString("Custom range:\n\n")
		sb.WriteString(m.startInput.View() + "\n")
		sb.WriteString(m.endInput.View() + "\n\n")
		sb.WriteString(faintStyle.Render("Enter: confirm | Tab: switch | Esc: back"))
	} else {
		sb.WriteString("Select timeframe:\n\n")

		for tf := TimeframeAll; tf <= TimeframeCustom; tf++ {
			cursor := "  "
			label := tf.String()

			if tf == m.selected {
				cursor = "> "
				label = lipgloss.NewStyle().Bold(true).Render(label)
			}

			sb.WriteString(cursor + label + "\n")
		}

		sb.WriteString("\n" + faintStyle.Render("Enter: select | Esc: back"))
	}

	if m.err != nil {
		sb.WriteString("\n\n" + errorStyle.Render("Error: "+m.err.Error()))
	}

	return sb.String()
}

// IsSelecting reports whether the picker shows the preset list rather than the custom inputs.
func (m TimeframePicker) IsSelecting() bool {
	return m.state == timeframeStateSelect
}

func (m *TimeframePicker) Reset() {
	m.state = timeframeStateSelect
	m.selected = m.initial
	m.err = nil
	m.startInput.SetValue("")
	m.endInput.SetValue("")
}
