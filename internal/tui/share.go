package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/MuhamedUsman/letstore/internal/sharing"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// shareModel wraps sharing.ShareDialog, it stays open after a success so the
// same item can be given to several users in a row.
type shareModel struct {
	ctx     context.Context
	client  *client.Client
	dialog  sharing.ShareDialog
	req     uint64
	input   textinput.Model
	spinner spinner.Model
	// shared is set once any grant succeeded, the listing is refreshed on close
	shared, active bool
}

func initialShareModel(ctx context.Context, c *client.Client) shareModel {
	return shareModel{
		ctx:     ctx,
		client:  c,
		input:   newDialogInputModel("User ID"),
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(lipgloss.NewStyle().Foreground(highlightColor))),
	}
}

func newDialogInputModel(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = "› "
	in.PromptStyle = in.PromptStyle.Foreground(highlightColor)
	in.TextStyle = in.TextStyle.Foreground(highlightColor)
	in.PlaceholderStyle = in.PlaceholderStyle.Foreground(midHighlightColor).Faint(true)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(highlightColor)
	in.Cursor.SetMode(cursorMode)
	return in
}

func (m shareModel) Update(msg tea.Msg) (shareModel, tea.Cmd) {
	switch msg := msg.(type) {

	case openShareMsg:
		m.dialog = sharing.NewShareDialog(msg.item)
		m.req++
		m.shared, m.active = false, true
		m.input.Reset()
		m.input.Width = max(0, dialogW()-dialogContainerStyle.GetHorizontalFrameSize()-dialogInputStyle.GetHorizontalFrameSize()-3)
		currentFocus = shareSpace
		return m, tea.Batch(m.input.Focus(), msgToCmd(spaceFocusSwitchMsg{}))

	case tea.KeyMsg:
		if !m.active {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, m.close()
		case "enter":
			d, grantee, err := m.dialog.Begin(m.input.Value())
			m.dialog = d
			if err != nil {
				return m, nil
			}
			m.req++
			return m, tea.Batch(m.spinner.Tick, m.submit(grantee))
		}
		if m.dialog.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case shareDoneMsg:
		if errors.Is(msg.err, client.ErrUnauthorized) {
			return m, msgToCmd(sessionExpiredMsg{})
		}
		if !m.active || msg.req != m.req {
			return m, nil
		}
		m.dialog = m.dialog.Finish(msg.err)
		if msg.err == nil {
			m.shared = true
			m.input.Reset()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.dialog.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if !m.active {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m shareModel) View() string {
	c := dialogContainerStyle.Width(dialogW())
	w := c.GetWidth() - c.GetHorizontalPadding()
	h := dialogHeaderStyle.Render("SHARE " + strings.ToUpper(m.dialog.Item.Kind.String()))
	b := dialogBodyStyle.Render(runewidth.Truncate("“"+m.dialog.Item.Name+"”", w, "…”"))
	in := dialogInputStyle.Width(max(0, w-dialogInputStyle.GetHorizontalBorderSize())).Render(m.input.View())

	var status string
	switch {
	case m.dialog.Loading:
		status = dialogSuccessStyle.Render(m.spinner.View() + " Sharing...")
	case m.dialog.Err != "":
		status = dialogErrStyle.Width(w).Render(m.dialog.Err)
	case m.dialog.Success:
		status = dialogSuccessStyle.Render(m.dialog.Message())
	}
	hint := dialogHintStyle.Render("enter share • esc close")
	return c.Render(lipgloss.JoinVertical(lipgloss.Left, h, b, in, status, hint))
}

func (m shareModel) submit(grantee string) tea.Cmd {
	item, req := m.dialog.Item, m.req
	return func() tea.Msg {
		return shareDoneMsg{req: req, err: m.client.Share(m.ctx, item, grantee)}
	}
}

func (m *shareModel) close() tea.Cmd {
	m.active = false
	m.input.Blur()
	currentFocus = explorerSpace
	cmds := []tea.Cmd{msgToCmd(spaceFocusSwitchMsg{})}
	if m.shared {
		cmds = append(cmds, msgToCmd(reloadMsg{}))
	}
	return tea.Batch(cmds...)
}
