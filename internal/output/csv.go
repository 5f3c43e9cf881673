package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"
)

// CSVFormatter formats output as CSV with optional comment headers.
type CSVFormatter struct {
	out    io.Writer
	writer *csv.Writer
	file   *os.File
}

// NewCSVFormatter creates a CSV formatter writing to w.
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{out: w, writer: csv.NewWriter(w)}
}

// NewCSVFileFormatter creates a CSV formatter writing to filePath. Exports
// may contain end-user identities, so the file is created 0600.
func NewCSVFileFormatter(filePath string) (*CSVFormatter, error) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}
	f := NewCSVFormatter(file)
	f.file = file
	return f, nil
}

// WriteComment writes a "# ..." line. Call before any row.
func (c *CSVFormatter) WriteComment(comment string) error {
	c.writer.Flush()
	_, err := fmt.Fprintf(c.out, "# %s\n", comment)
	return err
}

// WriteMetadata writes export metadata as comment lines in the given key order.
func (c *CSVFormatter) WriteMetadata(keys []string, metadata map[string]interface{}) error {
	for _, key := range keys {
		if err := c.WriteComment(fmt.Sprintf("%s: %v", key, metadata[key])); err != nil {
			return err
		}
	}
	return c.WriteComment(fmt.Sprintf("Export Date: %s", time.Now().UTC().Format(time.RFC3339)))
}

// WriteHeader writes CSV column headers.
func (c *CSVFormatter) WriteHeader(headers []string) error {
	return c.writer.Write(headers)
}

// WriteRow writes a CSV data row.
func (c *CSVFormatter) WriteRow(row []string) error {
	return c.writer.Write(row)
}

// Flush flushes buffered rows.
func (c *CSVFormatter) Flush() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// Close flushes and closes the file, if the formatter owns one.
func (c *CSVFormatter) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}
