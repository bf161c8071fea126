package output

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// TSVFormatter formats output as tab-separated values.
// It produces a simple table with a header row followed by data rows.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	if len(r.Columns) > 0 {
		w.WriteString(strings.Join(r.Columns, "\t"))
		w.WriteByte('\n')
	}
	for _, row := range r.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.NewReplacer("\t", " ", "\n", " ").Replace(c)
		}
		w.WriteString(strings.Join(cells, "\t"))
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure TSVFormatter implements Formatter.
var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter formats output as comma-separated values with proper quoting.
// It uses encoding/csv for RFC 4180 compliant output.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	writer := csv.NewWriter(w)

	if len(r.Columns) > 0 {
		if err := writer.Write(r.Columns); err != nil {
			return err
		}
	}
	for _, row := range r.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)

// MarkdownFormatter formats output as a GitHub-flavored markdown table.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Title != "" {
		w.WriteString("### " + r.Title + "\n\n")
	}
	if len(r.Columns) == 0 {
		return nil
	}

	w.WriteString("| " + strings.Join(escapeAll(r.Columns), " | ") + " |\n")
	sep := make([]string, len(r.Columns))
	for i := range sep {
		sep[i] = "---"
	}
	w.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range r.Rows {
		w.WriteString("| " + strings.Join(escapeAll(row), " | ") + " |\n")
	}
	return nil
}

// escapeAll escapes pipe characters that would break the table.
func escapeAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", "\\|")
	}
	return out
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

// Ensure MarkdownFormatter implements Formatter.
var _ Formatter = (*MarkdownFormatter)(nil)
