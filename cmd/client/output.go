package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/atinyakov/MineAdmin/internal/client/api"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
)

// table renders rows under a header with columns sized to their widest cell.
type table struct {
	title   string
	headers []string
	rows    [][]string
}

func newTable(title string, headers ...string) *table {
	return &table{title: title, headers: headers}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) error {
	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(titleStyle.Render(t.title))
		sb.WriteString("\n")
	}
	if len(t.rows) == 0 {
		sb.WriteString(mutedStyle.Render("No results."))
		sb.WriteString("\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	total := len(widths) - 1
	for i := range widths {
		// room for the cell padding
		widths[i] += 2
		total += widths[i]
	}

	sep := mutedStyle.Render("|")
	line := func(style lipgloss.Style, cells []string) {
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(style.Width(widths[i]).Render(cell))
			if i < len(widths)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	line(headerStyle, t.headers)
	sb.WriteString(mutedStyle.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")
	for _, row := range t.rows {
		line(cellStyle, row)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// fields renders label/value pairs, one per line.
func fields(w io.Writer, title string, pairs ...[2]string) error {
	t := newTable(title, "FIELD", "VALUE")
	for _, p := range pairs {
		t.add(p[0], p[1])
	}
	return t.render(w)
}

func pageFooter(w io.Writer, pg api.Pagination) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Page %d of %d (%d total)", pg.Page, max(pg.TotalPages, 1), pg.Total)))
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func when(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
