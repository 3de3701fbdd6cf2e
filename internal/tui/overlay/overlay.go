// Package overlay draws one rendered block over another, dialogs use it to
// float above the screen they were opened from.
package overlay

import (
	"math"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var ansiStyleRegexp = regexp.MustCompile(`\x1b[[\d;]*m`)

// Place puts fg over bg. hPos and vPos are lipgloss positions, anything
// between Left/Top and Right/Bottom is read as a fraction of the free space.
// Lines of fg that fall outside bg are dropped.
func Place(hPos, vPos lipgloss.Position, bg, fg string) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")
	width, height := maxWidth(bgLines), len(bgLines)

	hOffset := offset(hPos, width-maxWidth(fgLines))
	vOffset := offset(vPos, height-len(fgLines))

	out := make([]string, height)
	for i, line := range bgLines {
		if w := ansi.StringWidth(line); w < width {
			line += strings.Repeat(" ", width-w)
		}
		out[i] = line
	}

	for i, fgLine := range fgLines {
		row := i + vOffset
		if row >= len(out) {
			break
		}
		bgLine := out[row]
		if w := ansi.StringWidth(bgLine); w < hOffset {
			bgLine += strings.Repeat(" ", hOffset-w)
		}
		left := ansi.Truncate(bgLine, hOffset, "")
		right := truncateLeft(bgLine, hOffset+ansi.StringWidth(fgLine))
		out[row] = left + fgLine + right
	}

	return strings.Join(out, "\n")
}

func maxWidth(lines []string) int {
	w := 0
	for _, l := range lines {
		w = max(w, ansi.StringWidth(l))
	}
	return w
}

// offset of a block within gap free cells, never negative.
func offset(pos lipgloss.Position, gap int) int {
	if gap <= 0 {
		return 0
	}
	switch pos {
	case lipgloss.Left: // also lipgloss.Top
		return 0
	case lipgloss.Right: // also lipgloss.Bottom
		return gap
	default:
		return int(math.Round(float64(gap) * float64(pos)))
	}
}

// truncateLeft returns what follows the first width cells of line,
// carrying over the last ANSI style seen before the cut.
func truncateLeft(line string, width int) string {
	wrapped := strings.Split(ansi.Hardwrap(line, width, true), "\n")
	if len(wrapped) == 1 {
		return ""
	}
	var style string
	if styles := ansiStyleRegexp.FindAllString(wrapped[0], -1); len(styles) > 0 {
		style = styles[len(styles)-1]
	}
	return style + strings.Join(wrapped[1:], "")
}
