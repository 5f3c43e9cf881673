// Package output renders API results as JSON, tables or CSV.
package output

import (
	"encoding/json"
	"io"
	"time"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// Output is the JSON envelope written for every command.
type Output struct {
	Success   bool                   `json:"success"`
	Timestamp string                 `json:"timestamp"`
	Command   string                 `json:"command,omitempty"`
	Data      interface{}            `json:"data,omitempty"`
	Error     *ErrorOutput           `json:"error,omitempty"`
	Summary   map[string]interface{} `json:"summary,omitempty"`
}

// ErrorOutput represents error information in JSON output.
type ErrorOutput struct {
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Write outputs data as JSON.
func (j *JSONFormatter) Write(output Output) error {
	if output.Timestamp == "" {
		output.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	encoder := json.NewEncoder(j.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// WriteError outputs an error as JSON.
func (j *JSONFormatter) WriteError(cmd, code string, err error, suggestion string) error {
	return j.Write(Output{
		Success: false,
		Command: cmd,
		Error: &ErrorOutput{
			Message:    err.Error(),
			Code:       code,
			Suggestion: suggestion,
		},
	})
}

// WriteSuccess outputs a successful result as JSON.
func (j *JSONFormatter) WriteSuccess(cmd string, data interface{}, summary map[string]interface{}) error {
	return j.Write(Output{
		Success: true,
		Command: cmd,
		Data:    data,
		Summary: summary,
	})
}
