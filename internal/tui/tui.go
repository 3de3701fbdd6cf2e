// Package tui is the Bubble Tea front end: a login screen, a folder explorer
// with a breadcrumb, and the dialogs floating over it.
package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/MuhamedUsman/letstore/internal/config"
	"github.com/MuhamedUsman/letstore/internal/domain"
	"github.com/MuhamedUsman/letstore/internal/tui/overlay"
	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const sessionExpiredMessage = "Session expired. Please log in again."

type focusSpace int

const (
	loginSpace focusSpace = iota
	explorerSpace
	shareSpace
	linkSpace
	promptSpace
	alert
)

// currentFocus decides which model receives key events
var currentFocus focusSpace

// cursorMode of every text input
var cursorMode = cursor.CursorBlink

type MainModel struct {
	client   *client.Client
	login    loginModel
	explorer explorerModel
	share    shareModel
	link     linkModel
	prompt   promptModel
	alert    alertDialogModel
	user     domain.User
	authed   bool
}

// InitialMainModel wires every screen to c. Requests derive from ctx,
// canceling it aborts whatever is in flight.
func InitialMainModel(ctx context.Context, c *client.Client, cfg config.Config) MainModel {
	currentFocus = loginSpace
	return MainModel{
		client:   c,
		login:    initialLoginModel(ctx, c),
		explorer: initialExplorerModel(ctx, c, cfg.Receive.DownloadFolder),
		share:    initialShareModel(ctx, c),
		link:     initialLinkModel(ctx, c, cfg.Origin(), cfg.Share.DefaultExpiryDays),
		prompt:   initialPromptModel(ctx, c),
		alert:    initialAlertDialogModel(),
	}
}

func (m MainModel) Init() tea.Cmd {
	if m.client.Session().Active() {
		return m.login.verifySession()
	}
	return m.login.Init()
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		termW, termH = msg.Width, msg.Height
		m.explorer.updateDimensions()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case authenticatedMsg:
		m.authed, m.user = true, msg.user
		m.login = m.login.reset()
		m.explorer.reset()
		currentFocus = explorerSpace
		slog.Info("authenticated", "user", msg.user.Username)
		return m, tea.Batch(m.explorer.load(), msgToCmd(spaceFocusSwitchMsg{}))

	case sessionExpiredMsg:
		return m.toLogin(sessionExpiredMessage)

	case logoutMsg:
		if err := m.client.Logout(); err != nil {
			slog.Error("logging out", "err", err)
		}
		return m.toLogin("")

	case errMsg:
		if errors.Is(msg.err, client.ErrUnauthorized) {
			return m.toLogin(sessionExpiredMessage)
		}
		slog.Error(msg.errStr, "err", msg.err)
		return m, msgToCmd(alertDialogMsg{header: msg.errHeader, body: msg.errStr})

	case alertDialogMsg:
		var cmd tea.Cmd
		m.alert, cmd = m.alert.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	cmds := make([]tea.Cmd, 0, 6)
	m.login, cmd = m.login.Update(msg)
	cmds = append(cmds, cmd)
	m.explorer, cmd = m.explorer.Update(msg)
	cmds = append(cmds, cmd)
	m.share, cmd = m.share.Update(msg)
	cmds = append(cmds, cmd)
	m.link, cmd = m.link.Update(msg)
	cmds = append(cmds, cmd)
	m.prompt, cmd = m.prompt.Update(msg)
	cmds = append(cmds, cmd)
	m.alert, cmd = m.alert.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m MainModel) handleKey(msg tea.KeyMsg) (MainModel, tea.Cmd) {
	var cmd tea.Cmd
	switch currentFocus {
	case alert:
		m.alert, cmd = m.alert.Update(msg)
	case shareSpace:
		m.share, cmd = m.share.Update(msg)
	case linkSpace:
		m.link, cmd = m.link.Update(msg)
	case promptSpace:
		m.prompt, cmd = m.prompt.Update(msg)
	case explorerSpace:
		m.explorer, cmd = m.explorer.Update(msg)
	default:
		m.login, cmd = m.login.Update(msg)
	}
	return m, cmd
}

func (m MainModel) View() string {
	var view string
	if m.authed {
		view = m.explorer.View(m.user)
	} else {
		view = m.login.View()
	}
	view = lipgloss.Place(workableW(), workableH(), lipgloss.Center, lipgloss.Top, view)
	view = mainContainerStyle.Render(view)
	if m.share.active {
		view = overlay.Place(lipgloss.Center, lipgloss.Center, view, m.share.View())
	}
	if m.link.active {
		view = overlay.Place(lipgloss.Center, lipgloss.Center, view, m.link.View())
	}
	if m.prompt.active {
		view = overlay.Place(lipgloss.Center, lipgloss.Center, view, m.prompt.View())
	}
	if m.alert.active {
		view = overlay.Place(lipgloss.Center, lipgloss.Center, view, m.alert.View())
	}
	return view
}

// toLogin drops everything tied to the credential and shows the login
// screen with status as its message.
func (m MainModel) toLogin(status string) (MainModel, tea.Cmd) {
	m.authed, m.user = false, domain.User{}
	m.explorer.reset()
	m.share.active, m.link.active = false, false
	m.prompt.close()
	m.alert.active = false
	m.alert.prevFocus = loginSpace
	m.login = m.login.reset()
	m.login.status, m.login.failed = status, status != ""
	currentFocus = loginSpace
	return m, tea.Batch(m.login.focus(), msgToCmd(spaceFocusSwitchMsg{}))
}

// sessionOr maps a rejected credential to sessionExpiredMsg and anything
// else to the message built by other.
func sessionOr(err error, other func() tea.Msg) tea.Msg {
	if errors.Is(err, client.ErrUnauthorized) {
		return sessionExpiredMsg{}
	}
	return other()
}
