package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// PanelSize picks the interaction panel's outer size for a position hint on a
// cols x rows screen. Rows exclude the header and help lines.
func PanelSize(position string, cols, rows int) (int, int) {
	switch position {
	case "corner":
		return min(cols, 46), min(rows, 16)
	case "inline":
		return max(4, cols), min(rows, 20)
	default:
		return min(cols, 64), min(rows, 20)
	}
}

// drawPanel frames lines in a box with the title set into the top border.
// Lines are ANSI-aware padded or cut to the inner width.
func drawPanel(theme Theme, title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	top := "╭" + strings.Repeat("─", innerW) + "╮"
	if title != "" && innerW > 2 {
		t := " " + trimForWidth(title, innerW-2) + " "
		top = "╭─" + t + strings.Repeat("─", max(0, innerW-1-ansi.StringWidth(t))) + "╮"
	}

	out := make([]string, 0, height)
	out = append(out, theme.PanelBorder.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		v := theme.PanelBorder.Render("│")
		out = append(out, v+padWidth(line, innerW)+v)
	}
	out = append(out, theme.PanelBorder.Render("╰"+strings.Repeat("─", innerW)+"╯"))
	return strings.Join(out, "\n")
}

// padWidth cuts or pads s to exactly width cells, keeping escape sequences.
func padWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "")
	}
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// composeAt draws overlay over base with its top-left corner at row, col.
// Both may carry styling; base cells outside the overlay keep theirs.
func composeAt(base, overlay string, cols, rows, row, col int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		baseLines = append(baseLines, make([]string, rows-len(baseLines))...)
	}
	baseLines = baseLines[:rows]
	for i := range baseLines {
		baseLines[i] = padWidth(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	ow := 1
	for _, line := range overlayLines {
		ow = max(ow, ansi.StringWidth(line))
	}
	ow = min(ow, cols)
	col = min(max(0, col), cols-ow)

	for i, src := range overlayLines {
		r := row + i
		if r < 0 || r >= rows {
			continue
		}
		dst := baseLines[r]
		left := ansi.Truncate(dst, col, "")
		right := ansi.TruncateLeft(dst, col+ow, "")
		baseLines[r] = left + padWidth(src, ow) + right
	}
	return strings.Join(baseLines, "\n")
}

// composeCentered draws overlay in the middle of base.
func composeCentered(base, overlay string, cols, rows int) string {
	lines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	ow := 0
	for _, line := range lines {
		ow = max(ow, ansi.StringWidth(line))
	}
	return composeAt(base, overlay, cols, rows, max(0, (rows-len(lines))/2), max(0, (cols-ow)/2))
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
