package tui

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	loginFailedMessage    = "Login failed. Please try again."
	registerFailedMessage = "Registration failed. Please try again."
	missingFieldsMessage  = "All fields are required"
	usernameLenMessage    = "Username must be 3 to 50 characters"
	passwordLenMessage    = "Password must be at least 8 characters"
)

type loginMode int

const (
	signIn loginMode = iota
	signUp
)

// inputs of the form, username is shown only on sign up
const (
	usernameInput = iota
	emailInput
	passwordInput
)

type loginModel struct {
	ctx     context.Context
	client  *client.Client
	mode    loginMode
	inputs  []textinput.Model
	cursor  int
	spinner spinner.Model
	// status is the line under the form, an error when failed is set
	status          string
	failed, loading bool
}

func initialLoginModel(ctx context.Context, c *client.Client) loginModel {
	inputs := make([]textinput.Model, 3)
	for i, placeholder := range []string{"Username", "Email", "Password"} {
		in := textinput.New()
		in.Placeholder = placeholder
		in.Prompt = ""
		in.CharLimit = 254
		in.Width = 36
		in.TextStyle = in.TextStyle.Foreground(highlightColor)
		in.PlaceholderStyle = in.PlaceholderStyle.Foreground(midHighlightColor).Faint(true)
		in.Cursor.Style = lipgloss.NewStyle().Foreground(highlightColor)
		in.Cursor.SetMode(cursorMode)
		inputs[i] = in
	}
	inputs[passwordInput].EchoMode = textinput.EchoPassword
	inputs[passwordInput].EchoCharacter = '•'
	m := loginModel{
		ctx:     ctx,
		client:  c,
		inputs:  inputs,
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(lipgloss.NewStyle().Foreground(highlightColor))),
	}
	m.cursor = m.firstInput()
	m.inputs[m.cursor].Focus()
	return m
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		switch msg.String() {

		case "ctrl+n":
			m.mode = (m.mode + 1) % 2
			m.status, m.failed = "", false
			return m, m.moveCursor(m.firstInput())

		case "tab", "down":
			return m, m.moveCursor(m.nextInput(1))

		case "shift+tab", "up":
			return m, m.moveCursor(m.nextInput(-1))

		case "enter":
			if m.cursor != passwordInput {
				return m, m.moveCursor(m.nextInput(1))
			}
			return m.submit()
		}
		var cmd tea.Cmd
		m.inputs[m.cursor], cmd = m.inputs[m.cursor].Update(msg)
		return m, cmd

	case authFailedMsg:
		m.loading = false
		m.status, m.failed = msg.status, true
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// cursor blinks
	var cmd tea.Cmd
	m.inputs[m.cursor], cmd = m.inputs[m.cursor].Update(msg)
	return m, cmd
}

func (m loginModel) View() string {
	title := "LOG IN"
	if m.mode == signUp {
		title = "REGISTER"
	}
	fields := make([]string, 0, 8)
	fields = append(fields, titleStyle.Render(title), "")
	for i := m.firstInput(); i < len(m.inputs); i++ {
		fields = append(fields, loginLabelStyle.Render(m.inputs[i].Placeholder), m.inputs[i].View())
	}

	btn := loginBtnStyle
	if m.cursor == passwordInput {
		btn = btn.Background(highlightColor).Foreground(subduedHighlightColor)
	}
	fields = append(fields, btn.Render(title))

	status := m.status
	switch {
	case m.loading:
		status = m.spinner.View() + " Processing..."
	case status == "" && m.mode == signIn:
		status = "ctrl+n to register"
	case status == "":
		status = "ctrl+n to log in"
	}
	style := statusBarStyle
	if m.failed && !m.loading {
		style = errStatusStyle
	}

	form := loginFormStyle.Render(lipgloss.JoinVertical(lipgloss.Left, fields...))
	return lipgloss.JoinVertical(lipgloss.Center, banner.String(), slogan.String(), "", form, style.Render(status))
}

// submit validates the form locally and starts the request.
func (m loginModel) submit() (loginModel, tea.Cmd) {
	username := strings.TrimSpace(m.inputs[usernameInput].Value())
	email := strings.TrimSpace(m.inputs[emailInput].Value())
	password := m.inputs[passwordInput].Value()

	if email == "" || password == "" || (m.mode == signUp && username == "") {
		m.status, m.failed = missingFieldsMessage, true
		return m, nil
	}
	if m.mode == signUp {
		if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
			m.status, m.failed = usernameLenMessage, true
			return m, nil
		}
		if utf8.RuneCountInString(password) < 8 {
			m.status, m.failed = passwordLenMessage, true
			return m, nil
		}
	}

	m.loading = true
	m.status, m.failed = "", false
	var req tea.Cmd
	if m.mode == signUp {
		req = m.register(client.RegisterRequest{Username: username, Email: email, Password: password})
	} else {
		req = m.signIn(email, password)
	}
	return m, tea.Batch(m.spinner.Tick, req)
}

func (m loginModel) signIn(email, password string) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Login(m.ctx, email, password); err != nil {
			return authFailedMsg{client.DetailOr(err, loginFailedMessage)}
		}
		return m.me()
	}
}

// register creates the account and logs straight into it.
func (m loginModel) register(r client.RegisterRequest) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.client.Register(m.ctx, r); err != nil {
			return authFailedMsg{client.DetailOr(err, registerFailedMessage)}
		}
		if err := m.client.Login(m.ctx, r.Email, r.Password); err != nil {
			return authFailedMsg{client.DetailOr(err, loginFailedMessage)}
		}
		return m.me()
	}
}

// verifySession confirms a restored credential before the explorer shows.
func (m loginModel) verifySession() tea.Cmd {
	return func() tea.Msg {
		return m.me()
	}
}

// me resolves the user behind the credential, the client clears the
// session when it cannot.
func (m loginModel) me() tea.Msg {
	u, err := m.client.Me(m.ctx)
	if err != nil {
		return authFailedMsg{sessionExpiredMessage}
	}
	return authenticatedMsg{u}
}

// reset clears the form but keeps the mode, passwords never outlive a login.
func (m loginModel) reset() loginModel {
	for i := range m.inputs {
		m.inputs[i].Reset()
		m.inputs[i].Blur()
	}
	m.loading = false
	m.status, m.failed = "", false
	m.cursor = m.firstInput()
	return m
}

func (m *loginModel) focus() tea.Cmd {
	return m.moveCursor(m.cursor)
}

func (m *loginModel) moveCursor(to int) tea.Cmd {
	m.inputs[m.cursor].Blur()
	m.cursor = to
	return m.inputs[m.cursor].Focus()
}

func (m loginModel) firstInput() int {
	if m.mode == signUp {
		return usernameInput
	}
	return emailInput
}

// nextInput wraps around the inputs visible in the current mode.
func (m loginModel) nextInput(step int) int {
	first := m.firstInput()
	n := len(m.inputs) - first
	return first + ((m.cursor-first+step)%n+n)%n
}
