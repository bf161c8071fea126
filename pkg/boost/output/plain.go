package output

import (
	"bytes"
	"strings"
	"text/tabwriter"
)

// PlainFormatter formats output as a simple aligned table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	// Use tabwriter for aligned columns
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(r.Columns) > 0 {
		if _, err := tw.Write([]byte(strings.Join(r.Columns, "\t") + "\n")); err != nil {
			return err
		}
	}
	for _, row := range r.Rows {
		if _, err := tw.Write([]byte(strings.Join(row, "\t") + "\n")); err != nil {
			return err
		}
	}

	// Flush tabwriter to buffer
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
