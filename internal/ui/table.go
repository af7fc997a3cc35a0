package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Row is one line of a rendered table. Cells are plain text; Style, if set,
// is applied per column after padding.
type Row []string

// Column describes how a table column is rendered.
type Column struct {
	Header string
	Style  func(string) string
}

// RenderTable renders rows as aligned columns with a muted header line.
func RenderTable(cols []Column, rows []Row) string {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c.Header)
	}
	for _, r := range rows {
		for i := range cols {
			if i < len(r) {
				if w := lipgloss.Width(r[i]); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	var sb strings.Builder
	for i, c := range cols {
		sb.WriteString(Muted.Render(pad(c.Header, widths[i])))
		if i < len(cols)-1 {
			sb.WriteString("  ")
		}
	}
	sb.WriteString("\n")

	for _, r := range rows {
		for i, c := range cols {
			var cell string
			if i < len(r) {
				cell = r[i]
			}
			styled := cell
			if c.Style != nil {
				styled = c.Style(cell)
			}
			sb.WriteString(styled)
			if i < len(cols)-1 {
				// Pad based on the unstyled width so escape codes don't skew alignment.
				sb.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
