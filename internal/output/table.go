package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// TableFormatter formats output as a human-readable table.
type TableFormatter struct {
	writer *tabwriter.Writer
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
	}
}

// WriteHeader writes the header line and a separator under each column.
func (t *TableFormatter) WriteHeader(headers ...string) error {
	if err := t.WriteRow(headers...); err != nil {
		return err
	}
	seps := make([]string, len(headers))
	for i, h := range headers {
		seps[i] = strings.Repeat("-", len(h))
	}
	return t.WriteRow(seps...)
}

// WriteRow writes a table row.
func (t *TableFormatter) WriteRow(values ...string) error {
	_, err := fmt.Fprintln(t.writer, strings.Join(values, "\t"))
	return err
}

// Flush flushes the table output.
func (t *TableFormatter) Flush() error {
	return t.writer.Flush()
}
