package view

import (
	"book-catalog/internal/core/model"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

const maxCellWidth = 32

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	cellStyle      = lipgloss.NewStyle().PaddingRight(2)
	editStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#1677ff"))
	highlightStyle = lipgloss.NewStyle().Background(lipgloss.Color("#ffc069")).Foreground(lipgloss.Color("#000000"))
	disabledStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4d4f")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Faint(true)
)

// Draw renders t for a terminal. Columns are sized to their widest cell and
// cell text is clipped at maxCellWidth runes.
func Draw(t Table) string {
	cols := make([][]string, len(t.Headers))
	for i, h := range t.Headers {
		title := h.Title
		switch h.Sorted {
		case model.SortAsc:
			title += " ▲"
		case model.SortDesc:
			title += " ▼"
		}
		cols[i] = append(cols[i], headerStyle.Render(title))
	}
	for _, row := range t.Rows {
		for i, c := range row.Cells {
			if i < len(cols) {
				cols[i] = append(cols[i], drawCell(c))
			}
		}
	}

	blocks := make([]string, len(cols))
	for i, lines := range cols {
		w := 0
		for _, l := range lines {
			w = max(w, lipgloss.Width(l))
		}
		style := cellStyle.Width(w + 2)
		for j, l := range lines {
			lines[j] = style.Render(l)
		}
		blocks[i] = lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	parts := []string{lipgloss.JoinHorizontal(lipgloss.Top, blocks...)}
	if len(t.Rows) == 0 {
		parts = append(parts, mutedStyle.Render("No data"))
	}
	if t.Loading {
		parts = append(parts, mutedStyle.Render("Loading..."))
	}
	if t.Error != "" {
		parts = append(parts, errorStyle.Render(t.Error))
	}
	parts = append(parts, mutedStyle.Render(t.Summary))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func drawCell(c Cell) string {
	if len(c.Actions) > 0 {
		labels := make([]string, 0, len(c.Actions))
		for _, a := range c.Actions {
			l := "[" + a.Label + "]"
			if a.Disabled {
				l = disabledStyle.Render(l)
			}
			labels = append(labels, l)
		}
		return strings.Join(labels, " ")
	}
	text, spans := clip(c.Text, c.Highlights, maxCellWidth)
	if c.Editing {
		return editStyle.Render(text)
	}
	return applyHighlights(text, spans)
}

// clip shortens s to at most n runes, ending in an ellipsis when cut, and
// drops or trims highlights past the cut.
func clip(s string, spans []Span, n int) (string, []Span) {
	if utf8.RuneCountInString(s) <= n {
		return s, spans
	}
	cut, runes := 0, 0
	for i := range s {
		if runes == n-1 {
			cut = i
			break
		}
		runes++
	}
	var kept []Span
	for _, sp := range spans {
		if sp.Start >= cut {
			break
		}
		sp.End = min(sp.End, cut)
		kept = append(kept, sp)
	}
	return s[:cut] + "…", kept
}

func applyHighlights(s string, spans []Span) string {
	if len(spans) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, sp := range spans {
		b.WriteString(s[last:sp.Start])
		b.WriteString(highlightStyle.Render(s[sp.Start:sp.End]))
		last = sp.End
	}
	b.WriteString(s[last:])
	return b.String()
}
