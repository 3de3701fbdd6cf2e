package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	fgColor               = lipgloss.AdaptiveColor{Light: "#282828", Dark: "#fbf1c7"}
	redColor              = lipgloss.AdaptiveColor{Light: "#9d0006", Dark: "#fb4934"}
	highlightColor        = lipgloss.AdaptiveColor{Light: "#4e562a", Dark: "#ECFD65"}
	midHighlightColor     = lipgloss.AdaptiveColor{Light: "#9DA947", Dark: "#9DA947"}
	subduedHighlightColor = lipgloss.AdaptiveColor{Light: "#ECFD65", Dark: "#4e562a"}
	grayColor             = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#444444"}

	generateGradient = func(base, target lipgloss.AdaptiveColor, steps int) []lipgloss.AdaptiveColor {
		bLight, _ := colorful.Hex(base.Light)
		bDark, _ := colorful.Hex(base.Dark)
		tLight, _ := colorful.Hex(target.Light)
		tDark, _ := colorful.Hex(target.Dark)
		gradient := make([]lipgloss.AdaptiveColor, steps)
		for i := range steps {
			factor := float64(i) / float64(steps)
			gradient[i] = lipgloss.AdaptiveColor{
				Light: bLight.BlendLuv(tLight, factor).Hex(),
				Dark:  bDark.BlendLuv(tDark, factor).Hex(),
			}
		}
		return gradient
	}
)

// terminal dimensions, updated on every tea.WindowSizeMsg
var termW, termH int

var ( // Container width calculations

	workableW = func() int {
		return max(0, termW-mainContainerStyle.GetHorizontalFrameSize())
	}

	workableH = func() int {
		return max(0, termH-mainContainerStyle.GetVerticalFrameSize())
	}

	dialogW = func() int {
		w := 56
		if workableW() < w {
			w = workableW()
		}
		// keeps the dialog centered
		if !isEven(workableW()) {
			w -= 1
		}
		return max(0, w)
	}
)

var ( // Common Styles

	mainContainerStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(highlightColor)

	titleStyle = lipgloss.NewStyle().
			Background(highlightColor).
			Foreground(subduedHighlightColor).
			Italic(true).
			Height(1).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Margin(0, 1).
			Height(1).
			Italic(true).
			Foreground(highlightColor).
			Faint(true)

	errStatusStyle = statusBarStyle.
			Foreground(redColor).
			Faint(false)
)

var ( // loginModel Styles

	banner = lipgloss.NewStyle().
		AlignVertical(lipgloss.Center).
		SetString(renderBanner())

	slogan = lipgloss.NewStyle().
		Italic(true).
		Foreground(highlightColor).
		Faint(true).
		SetString("your files, from the terminal")

	loginFormStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(subduedHighlightColor).
			Padding(1, 2)

	loginLabelStyle = lipgloss.NewStyle().
			Foreground(midHighlightColor).
			Italic(true)

	loginBtnStyle = lipgloss.NewStyle().
			Background(grayColor).
			Foreground(fgColor).
			Padding(0, 2).
			MarginTop(1)
)

const bannerTxt = `
┬  ┌─┐┌┬┐┌─┐┌┬┐┌─┐┬─┐┌─┐
│  ├┤  │ └─┐ │ │ │├┬┘├┤
┴─┘└─┘ ┴ └─┘ ┴ └─┘┴└─└─┘`

// renderBanner paints each banner line with the next color of a gradient.
func renderBanner() string {
	lines := strings.Split(strings.TrimPrefix(bannerTxt, "\n"), "\n")
	colors := generateGradient(highlightColor, midHighlightColor, len(lines))
	for i, l := range lines {
		lines[i] = lipgloss.NewStyle().Foreground(colors[i]).Render(l)
	}
	return strings.Join(lines, "\n")
}

var ( // explorerModel Styles

	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(midHighlightColor).
			Margin(0, 1)

	breadcrumbIndexStyle = lipgloss.NewStyle().
				Foreground(highlightColor).
				Faint(true)

	breadcrumbCurrentStyle = lipgloss.NewStyle().
				Foreground(highlightColor).
				Bold(true)

	filterContainerStyle = lipgloss.NewStyle().
				Align(lipgloss.Center)

	customTableStyles = table.Styles{
		Header: table.DefaultStyles().Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			Foreground(highlightColor).
			BorderForeground(subduedHighlightColor).
			BorderBottom(true),
		Selected: table.DefaultStyles().Selected.
			Background(subduedHighlightColor).
			Foreground(highlightColor).
			Italic(true),
		Cell: table.DefaultStyles().Cell.Foreground(midHighlightColor),
	}
)

var ( // alertDialogModel and the other dialogs

	dialogContainerStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(highlightColor).
				Padding(1, 2)

	dialogHeaderStyle = lipgloss.NewStyle().
				Background(highlightColor).
				Foreground(subduedHighlightColor).
				Padding(0, 1).
				Faint(true)

	dialogBodyStyle = lipgloss.NewStyle().
			Italic(true).
			Padding(1, 0).
			Foreground(highlightColor)

	dialogBtnStyle = lipgloss.NewStyle().
			Background(grayColor).
			Foreground(fgColor).
			Padding(0, 2).
			MarginLeft(1)

	dialogActiveBtnStyle = dialogBtnStyle.
				Background(highlightColor).
				Foreground(subduedHighlightColor).
				Faint(true)

	dialogInputStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(subduedHighlightColor).
				Foreground(midHighlightColor).
				Padding(0, 1)

	dialogErrStyle = lipgloss.NewStyle().
			Foreground(redColor).
			Italic(true)

	dialogSuccessStyle = lipgloss.NewStyle().
				Foreground(midHighlightColor).
				Italic(true)

	dialogHintStyle = lipgloss.NewStyle().
			Foreground(grayColor).
			Italic(true).
			MarginTop(1)
)

func isEven(n int) bool {
	return n%2 == 0
}
