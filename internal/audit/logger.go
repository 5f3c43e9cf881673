// Package audit records an append-only JSON trail of event submissions made
// through the CLI: which event, for which identity, with which outcome.
package audit

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/otherjamesbrown/usercycle/logging"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Logger emits one JSON object per submission.
type Logger struct {
	mu       sync.Mutex
	output   *json.Encoder
	maskFunc func(string) string
}

// NewLogger creates a new audit logger writing to w, or stderr when w is nil.
func NewLogger(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		output: json.NewEncoder(w),
		maskFunc: func(s string) string {
			if len(s) <= 4 {
				return "***"
			}
			return "***" + s[len(s)-4:]
		},
	}
}

// LogEntry represents an audit log entry.
type LogEntry struct {
	Timestamp  string                 `json:"timestamp"`
	Operation  string                 `json:"operation"`
	Identity   string                 `json:"identity,omitempty"`
	Command    string                 `json:"command"`
	Endpoint   string                 `json:"endpoint,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Outcome    string                 `json:"outcome"`
	Duration   string                 `json:"duration,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// Operation describes one submission.
type Operation struct {
	Type       string // action name, e.g. signup
	Identity   string // end-user identity the event was recorded for
	Command    string
	Endpoint   string
	Parameters map[string]interface{} // masked before writing
	Outcome    string
	Duration   time.Duration
	Error      error
}

// LogOperation writes op as a single JSON line.
func (l *Logger) LogOperation(op Operation) error {
	entry := LogEntry{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Operation:  op.Type,
		Identity:   op.Identity,
		Command:    op.Command,
		Endpoint:   op.Endpoint,
		Parameters: l.maskParameters(op.Parameters),
		Outcome:    op.Outcome,
	}

	if op.Duration > 0 {
		entry.Duration = op.Duration.String()
	}

	if op.Error != nil {
		entry.Error = logging.RedactString(op.Error.Error())
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.output.Encode(entry)
}

// maskParameters keeps the last four characters of credentials and runs
// every other string through the log redaction patterns.
func (l *Logger) maskParameters(params map[string]interface{}) map[string]interface{} {
	if params == nil {
		return nil
	}

	masked := make(map[string]interface{}, len(params))
	for k, v := range params {
		if isCredential(k) && v != nil {
			if str, ok := v.(string); ok {
				masked[k] = l.maskFunc(str)
			} else {
				masked[k] = "***"
			}
			continue
		}
		if str, ok := v.(string); ok {
			// Property values are free-form and may embed secrets.
			masked[k] = logging.RedactString(str)
			continue
		}
		masked[k] = v
	}
	return masked
}

func isCredential(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"api_key", "access_token", "access-token", "token", "password", "secret", "credential"} {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}
