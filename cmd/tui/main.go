package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgerly/cmd/tui/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/ledgerly/internal/config"
)

const httpTimeout = 2 * time.Minute

type screen int

const (
	screenLogin screen = iota
	screenMenu
	screenView
)

type model struct {
	client *client.Client
	user   *client.User

	screen screen
	login  view.LoginModel
	active view.View
	notice string

	width, height int
}

var menu = []struct {
	key   string
	label string
	open  func(c *client.Client) view.View
}{
	{"1", "Dashboard", func(c *client.Client) view.View { return view.NewDashboardModel(c) }},
	{"2", "Transactions", func(c *client.Client) view.View { return view.NewListModel(c) }},
	{"3", "Import CSV", func(c *client.Client) view.View { return view.NewImportModel(c) }},
	{"4", "Export", func(c *client.Client) view.View { return view.NewExportModel(c) }},
	{"5", "Review Categories", func(c *client.Client) view.View { return view.NewReviewModel(c) }},
}

func initialModel(c *client.Client) model {
	return model{
		client: c,
		screen: screenLogin,
		login:  view.NewLoginModel(c),
	}
}

func (m model) Init() tea.Cmd {
	return m.login.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.screen == screenMenu {
			return m.updateMenu(msg)
		}

	case view.LoggedInMsg:
		m.user = msg.User
		m.screen = screenMenu
		m.notice = ""

		return m, nil

	case view.BackMsg:
		m.screen = screenMenu
		m.active = nil

		return m, nil

	case view.SessionExpiredMsg:
		return m.logout("Session expired, please log in again.")
	}

	var cmd tea.Cmd

	switch m.screen {
	case screenLogin:
		var next tea.Model
		next, cmd = m.login.Update(msg)
		m.login = next.(view.LoginModel)

	case screenView:
		var next tea.Model
		next, cmd = m.active.Update(msg)
		m.active = next.(view.View)
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "l":
		return m.logout("Logged out.")
	}

	for _, item := range menu {
		if msg.String() == item.key {
			m.active = item.open(m.client)
			m.screen = screenView

			return m, m.active.Init()
		}
	}

	return m, nil
}

func (m model) logout(notice string) (tea.Model, tea.Cmd) {
	m.client.Logout()
	m.user = nil
	m.active = nil
	m.screen = screenLogin
	m.notice = notice
	m.login = view.NewLoginModel(m.client)

	return m, m.login.Init()
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func (m model) View() string {
	switch m.screen {
	case screenLogin:
		if m.notice != "" {
			return noticeStyle.Render(m.notice) + "\n" + m.login.View()
		}

		return m.login.View()

	case screenView:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Padding(1, 2, 0).Render(m.active.Title()),
			m.active.View(),
			helpStyle.PaddingLeft(2).Render(m.active.ShortHelp()),
		)
	}

	s := titleStyle.Render("Ledgerly") + "\n"
	if m.user != nil {
		s += helpStyle.Render(fmt.Sprintf("Signed in as %s <%s>", m.user.Name, m.user.Email)) + "\n"
	}

	s += "\n"
	for _, item := range menu {
		s += fmt.Sprintf("%s. %s\n", item.key, item.label)
	}

	s += "\nl. Logout\nq. Quit"

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	c := client.New(cfg.Client.BaseURL, httpTimeout)

	p := tea.NewProgram(initialModel(c), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
