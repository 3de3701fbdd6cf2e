package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const defaultAlertDuration = 5 * time.Second

// cursor indicates current active button
type alertCursor int

const (
	negative alertCursor = iota
	positive
)

type alertDialogMsg struct {
	header, body string
	// without button texts the dialog is a plain alert that escapes on its own
	positiveBtnTxt, negativeBtnTxt string
	cursor                         alertCursor
	// alertDuration defaults to 5 seconds,
	// takes effect only for plain alerts
	alertDuration time.Duration
	positiveFunc  func() tea.Cmd
}

// confirmCmd asks a YUP!/NOPE question, yupFunc runs only on YUP!.
func confirmCmd(header, body string, yupFunc func() tea.Cmd) tea.Cmd {
	return msgToCmd(alertDialogMsg{
		header:         header,
		body:           body,
		cursor:         negative,
		positiveBtnTxt: "YUP!",
		negativeBtnTxt: "NOPE",
		positiveFunc:   yupFunc,
	})
}

type alertDialogModel struct {
	header, body                   string
	positiveBtnTxt, negativeBtnTxt string
	cursor                         alertCursor
	timer                          timer.Model
	// prevFocus is given the focus back on hide
	prevFocus focusSpace
	// active signals this model's view must be rendered
	active       bool
	positiveFunc func() tea.Cmd
}

func initialAlertDialogModel() alertDialogModel {
	return alertDialogModel{
		cursor: positive,
		timer:  timer.NewWithInterval(defaultAlertDuration, 100*time.Millisecond),
	}
}

func (m alertDialogModel) Update(msg tea.Msg) (alertDialogModel, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if !m.active {
			return m, nil
		}
		switch msg.String() {

		case "enter":
			var cmd tea.Cmd
			if m.cursor == positive && m.positiveFunc != nil {
				cmd = m.positiveFunc()
			}
			return m, tea.Batch(m.hide(), cmd)

		case "tab", "shift+tab":
			m.cursor = (m.cursor + 1) % 2

		case "left", "h":
			m.cursor = negative

		case "right", "l":
			m.cursor = positive

		case "esc": // same as NOPE
			return m, m.hide()
		}

	case alertDialogMsg:
		m.header, m.body = msg.header, msg.body
		m.positiveBtnTxt, m.negativeBtnTxt = msg.positiveBtnTxt, msg.negativeBtnTxt
		m.positiveFunc = msg.positiveFunc
		m.cursor = msg.cursor
		m.active = true
		if currentFocus != alert { // in-case multiple alert dialogs become active
			m.prevFocus = currentFocus
		}
		currentFocus = alert
		if m.isTimerAlert() {
			d := defaultAlertDuration
			if msg.alertDuration > 0 {
				d = msg.alertDuration
			}
			m.timer = timer.NewWithInterval(d, 100*time.Millisecond)
			return m, tea.Batch(m.timer.Init(), msgToCmd(spaceFocusSwitchMsg{}))
		}
		return m, msgToCmd(spaceFocusSwitchMsg{})

	case timer.TickMsg:
		if msg.ID == m.timer.ID() {
			var cmd tea.Cmd
			m.timer, cmd = m.timer.Update(msg)
			return m, cmd
		}

	case timer.TimeoutMsg:
		if msg.ID == m.timer.ID() && m.active {
			return m, m.hide()
		}
	}

	return m, nil
}

func (m alertDialogModel) View() string {
	c := dialogContainerStyle.Width(dialogW())
	w := c.GetWidth() - c.GetHorizontalPadding()
	h := dialogHeaderStyle.Render(m.header)
	b := dialogBodyStyle.Render(wordwrap.String(m.body, w))

	var footer string
	if !m.isTimerAlert() {
		negStyle, posStyle := dialogBtnStyle, dialogActiveBtnStyle
		if m.cursor == negative {
			negStyle, posStyle = posStyle, negStyle
		}
		footer = lipgloss.JoinHorizontal(lipgloss.Center, negStyle.Render(m.negativeBtnTxt), posStyle.Render(m.positiveBtnTxt))
	} else {
		style := lipgloss.NewStyle().Inline(true).Foreground(subduedHighlightColor)
		t := style.Foreground(midHighlightColor).Render(fmt.Sprintf("%.1f", m.timer.Timeout.Seconds()))
		footer = lipgloss.JoinHorizontal(lipgloss.Center, style.Render("Escaping in: "), t)
	}
	footer = lipgloss.PlaceHorizontal(w, lipgloss.Right, footer)
	return c.Render(lipgloss.JoinVertical(lipgloss.Left, h, b, footer))
}

func (m *alertDialogModel) hide() tea.Cmd {
	m.active = false
	m.header, m.body = "", ""
	m.positiveFunc = nil
	currentFocus = m.prevFocus
	return msgToCmd(spaceFocusSwitchMsg{})
}

func (m alertDialogModel) isTimerAlert() bool {
	return m.positiveBtnTxt == "" && m.negativeBtnTxt == ""
}
