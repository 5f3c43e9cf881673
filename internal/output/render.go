package output

import (
	"fmt"
	"io"
)

// Supported output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// ValidFormat reports whether format is one Render understands.
func ValidFormat(format string) bool {
	switch format {
	case FormatTable, FormatJSON, FormatCSV:
		return true
	}
	return false
}

// Render writes data for command in the requested format. CSV goes to
// csvPath when set, otherwise to w.
func Render(w io.Writer, format, command string, data any, csvPath string) error {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(w).WriteSuccess(command, data, nil)
	case FormatCSV:
		return renderCSV(w, command, data, csvPath)
	case FormatTable, "":
		return renderTable(w, data)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func renderTable(w io.Writer, data any) error {
	if list, ok := data.([]any); ok && len(list) == 0 {
		_, err := fmt.Fprintln(w, "(no results)")
		return err
	}
	headers, rows := Tabulate(data)
	if len(headers) == 0 {
		_, err := fmt.Fprintln(w, "(no content)")
		return err
	}

	t := NewTableFormatter(w)
	if err := t.WriteHeader(headers...); err != nil {
		return err
	}
	for _, row := range rows {
		if err := t.WriteRow(row...); err != nil {
			return err
		}
	}
	return t.Flush()
}

func renderCSV(w io.Writer, command string, data any, csvPath string) error {
	var c *CSVFormatter
	if csvPath != "" {
		var err error
		c, err = NewCSVFileFormatter(csvPath)
		if err != nil {
			return err
		}
	} else {
		c = NewCSVFormatter(w)
	}

	headers, rows := Tabulate(data)
	if csvPath != "" {
		if err := c.WriteMetadata([]string{"Command", "Rows"}, map[string]interface{}{
			"Command": command,
			"Rows":    len(rows),
		}); err != nil {
			_ = c.Close()
			return err
		}
	}
	if len(headers) > 0 {
		if err := c.WriteHeader(headers); err != nil {
			_ = c.Close()
			return err
		}
	}
	for _, row := range rows {
		if err := c.WriteRow(row); err != nil {
			_ = c.Close()
			return err
		}
	}
	if err := c.Close(); err != nil {
		return err
	}

	if csvPath != "" {
		_, err := fmt.Fprintf(w, "Wrote %d rows to %s\n", len(rows), csvPath)
		return err
	}
	return nil
}
