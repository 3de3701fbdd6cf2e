package tui

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/MuhamedUsman/letstore/internal/sharing"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/mdp/qrterminal/v3"
	"github.com/muesli/reflow/wordwrap"
)

const (
	copiedMessage     = "Link copied to clipboard"
	copyFailedMessage = "Could not reach the clipboard, copy the link by hand"
)

// linkModel wraps sharing.LinkDialog: a days input, then the issued link
// with its expiry, an optional QR code and clipboard copy.
type linkModel struct {
	ctx     context.Context
	client  *client.Client
	origin  string
	dialog  sharing.LinkDialog
	req     uint64
	input   textinput.Model
	spinner spinner.Model
	// defaultDays pre-fills the input, 0 leaves it blank
	defaultDays int
	// notice is the outcome of the last copy attempt
	notice            string
	noticeErr, showQR bool
	active            bool
	// copyToClipboard is clipboard.WriteAll outside of tests
	copyToClipboard func(string) error
}

func initialLinkModel(ctx context.Context, c *client.Client, origin string, defaultDays int) linkModel {
	in := newDialogInputModel("Expires in days, blank for never")
	in.CharLimit = 5
	return linkModel{
		ctx:             ctx,
		client:          c,
		origin:          origin,
		input:           in,
		spinner:         spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(lipgloss.NewStyle().Foreground(highlightColor))),
		defaultDays:     defaultDays,
		copyToClipboard: clipboard.WriteAll,
	}
}

func (m linkModel) Update(msg tea.Msg) (linkModel, tea.Cmd) {
	switch msg := msg.(type) {

	case openLinkMsg:
		m.dialog = sharing.NewLinkDialog(msg.file, m.origin)
		m.req++
		m.active, m.showQR = true, false
		m.notice, m.noticeErr = "", false
		m.input.Reset()
		if m.defaultDays > 0 {
			m.input.SetValue(strconv.Itoa(m.defaultDays))
		}
		m.input.Width = max(0, dialogW()-dialogContainerStyle.GetHorizontalFrameSize()-dialogInputStyle.GetHorizontalFrameSize()-3)
		currentFocus = linkSpace
		return m, tea.Batch(m.input.Focus(), msgToCmd(spaceFocusSwitchMsg{}))

	case tea.KeyMsg:
		if !m.active {
			return m, nil
		}
		if msg.String() == "esc" {
			return m, m.close()
		}
		switch m.dialog.State {
		case sharing.LinkResult:
			return m.handleResultKey(msg)
		case sharing.LinkLoading:
			return m, nil
		}
		if msg.String() == "enter" {
			days, err := sharing.ParseDays(m.input.Value())
			if err != nil {
				m.dialog.Err = sharing.InvalidDaysMessage
				return m, nil
			}
			d, send, err := m.dialog.Begin(days)
			m.dialog = d
			if err != nil {
				return m, nil
			}
			m.input.Blur()
			m.req++
			return m, tea.Batch(m.spinner.Tick, m.submit(send))
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case linkDoneMsg:
		if errors.Is(msg.err, client.ErrUnauthorized) {
			return m, msgToCmd(sessionExpiredMsg{})
		}
		if !m.active || msg.req != m.req {
			return m, nil
		}
		m.dialog = m.dialog.Finish(msg.link, msg.err)
		if m.dialog.State == sharing.LinkForm {
			return m, m.input.Focus()
		}
		return m, nil

	case spinner.TickMsg:
		if m.dialog.State != sharing.LinkLoading {
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

func (m linkModel) handleResultKey(msg tea.KeyMsg) (linkModel, tea.Cmd) {
	switch msg.String() {
	case "c", "y":
		if err := m.copyToClipboard(m.dialog.URL); err != nil {
			slog.Error("copying public link", "err", err)
			m.notice, m.noticeErr = copyFailedMessage, true
		} else {
			m.notice, m.noticeErr = copiedMessage, false
		}
	case "q":
		m.showQR = !m.showQR
	case "enter":
		return m, m.close()
	}
	return m, nil
}

func (m linkModel) View() string {
	c := dialogContainerStyle.Width(dialogW())
	w := c.GetWidth() - c.GetHorizontalPadding()
	h := dialogHeaderStyle.Render("PUBLIC LINK")
	b := dialogBodyStyle.Render(runewidth.Truncate("“"+m.dialog.FileName+"”", w, "…”"))

	if m.dialog.State == sharing.LinkResult {
		url := lipgloss.NewStyle().Foreground(highlightColor).Render(wordwrap.String(m.dialog.URL, w))
		parts := []string{h, b, url, dialogSuccessStyle.MarginTop(1).Render(m.dialog.ExpiryMessage())}
		if m.showQR {
			parts = append(parts, renderQR(m.dialog.URL))
		}
		if m.notice != "" {
			style := dialogSuccessStyle
			if m.noticeErr {
				style = dialogErrStyle
			}
			parts = append(parts, style.Render(m.notice))
		}
		parts = append(parts, dialogHintStyle.Render("c copy • q qr code • esc close"))
		return c.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	}

	in := dialogInputStyle.Width(max(0, w-dialogInputStyle.GetHorizontalBorderSize())).Render(m.input.View())
	var status string
	switch {
	case m.dialog.State == sharing.LinkLoading:
		status = dialogSuccessStyle.Render(m.spinner.View() + " Creating...")
	case m.dialog.Err != "":
		status = dialogErrStyle.Width(w).Render(m.dialog.Err)
	}
	hint := dialogHintStyle.Render("enter create link • esc close")
	return c.Render(lipgloss.JoinVertical(lipgloss.Left, h, b, in, status, hint))
}

func (m linkModel) submit(days *int) tea.Cmd {
	fileID, req := m.dialog.FileID, m.req
	return func() tea.Msg {
		link, err := m.client.CreatePublicLink(m.ctx, fileID, days)
		return linkDoneMsg{req: req, link: link, err: err}
	}
}

// close refreshes the listing when a link was issued, the file became public.
func (m *linkModel) close() tea.Cmd {
	issued := m.dialog.State == sharing.LinkResult
	m.active = false
	m.input.Blur()
	currentFocus = explorerSpace
	if issued {
		return tea.Batch(msgToCmd(spaceFocusSwitchMsg{}), msgToCmd(reloadMsg{}))
	}
	return msgToCmd(spaceFocusSwitchMsg{})
}

func renderQR(s string) string {
	var sb strings.Builder
	qrterminal.GenerateHalfBlock(s, qrterminal.L, &sb)
	return strings.TrimRight(sb.String(), "\n")
}
