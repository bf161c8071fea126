package output

import (
	"bytes"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Title != "" {
		w.WriteString(HeaderBox.Render(TitleStyle.Render(r.Title)))
		w.WriteString("\n")
	}

	w.WriteString(f.formatTable(r))

	if len(r.Summary) > 0 {
		w.WriteString(f.formatFooter(r.Summary))
		w.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}

	return nil
}

// formatTable renders Columns and Rows. Two-column tables without headers
// are rendered as a label/value list.
func (f *PrettyFormatter) formatTable(r *Result) string {
	if len(r.Rows) == 0 {
		msg := r.Empty
		if msg == "" {
			msg = "Nothing to show"
		}
		return MutedStyle.Render("  "+msg) + "\n"
	}

	if len(r.Columns) == 0 {
		return f.formatPairs(r.Rows)
	}

	rows := r.Rows
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		Headers(r.Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			if row < 0 || row >= len(rows) || col >= len(rows[row]) {
				return TableRowStyle
			}
			return CellStyle(rows[row][col])
		})
	return t.Render() + "\n"
}

// formatPairs renders label/value rows with aligned labels.
func (f *PrettyFormatter) formatPairs(rows [][]string) string {
	width := 0
	for _, row := range rows {
		if len(row) > 0 {
			width = max(width, lipgloss.Width(row[0]))
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		label := LabelStyle.Render(padRight(row[0]+":", width+1))
		value := ValueStyle.Render(strings.Join(row[1:], " "))
		sb.WriteString("  " + label + " " + value + "\n")
	}
	return sb.String()
}

// formatFooter builds the footer box with summary information.
func (f *PrettyFormatter) formatFooter(summary []string) string {
	parts := make([]string, len(summary))
	for i, s := range summary {
		parts[i] = ValueStyle.Render(s)
	}
	return FooterBox.Render(strings.Join(parts, MutedStyle.Render("  ·  ")))
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	titleStyle := WarningStyle.Bold(true)
	sb.WriteString(titleStyle.Render("Warnings:"))
	sb.WriteString("\n")

	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}

	return sb.String()
}

// padRight pads a string with spaces on the right to achieve the desired width.
func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
