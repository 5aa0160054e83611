package view

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerly/cmd/tui/internal/client"
)

const (
	modeLogin    = "login"
	modeRegister = "register"
)

// LoggedInMsg carries the user of a new session.
type LoggedInMsg struct {
	User *client.User
}

type LoginModel struct {
	CommonModel
	client *client.Client

	form    *huh.Form
	fields  *loginFields
	working bool
	err     error
}

// loginFields lives behind a pointer so the form's bindings survive model copies.
type loginFields struct {
	mode     string
	name     string
	email    string
	password string
}

func NewLoginModel(c *client.Client) LoginModel {
	m := LoginModel{client: c, fields: &loginFields{mode: modeLogin}}
	m.form = m.buildForm()

	return m
}

func (m LoginModel) buildForm() *huh.Form {
	f := m.fields

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Welcome to Ledgerly").
				Options(
					huh.NewOption("Log in", modeLogin),
					huh.NewOption("Create an account", modeRegister),
				).
				Value(&f.mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&f.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}

					return nil
				}),
		).WithHideFunc(func() bool { return f.mode != modeRegister }),
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&f.email).
				Validate(func(s string) error {
					if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
						return errors.New("enter a valid email")
					}

					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&f.password).
				Validate(func(s string) error {
					if len(s) < 6 {
						return errors.New("password must be at least 6 characters")
					}

					return nil
				}),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m LoginModel) Title() string     { return "Login" }
func (m LoginModel) ShortHelp() string { return "Enter: next | Ctrl+C: quit" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(loginResultMsg); ok {
		m.working = false

		if result.err != nil {
			m.err = result.err
			m.fields.password = ""
			m.form = m.buildForm()

			return m, m.form.Init()
		}

		return m, func() tea.Msg { return LoggedInMsg{User: result.user} }
	}

	if m.working {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.working = true
	m.err = nil

	return m, m.submitCmd()
}

func (m LoginModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Render("Ledgerly")

	body := m.form.View()
	if m.working {
		body = "Signing in..."
	}

	if m.err != nil {
		body = errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + body
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(header + "\n\n" + body)
}

type loginResultMsg struct {
	user *client.User
	err  error
}

func (m LoginModel) submitCmd() tea.Cmd {
	f := *m.fields

	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		var (
			u   *client.User
			err error
		)

		if f.mode == modeRegister {
			u, err = m.client.Register(ctx, f.name, f.email, f.password)
		} else {
			u, err = m.client.Login(ctx, f.email, f.password)
		}

		return loginResultMsg{user: u, err: err}
	}
}
