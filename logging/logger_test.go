package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name:   "default config",
			config: DefaultConfig().WithOutput(&bytes.Buffer{}),
		},
		{
			name: "console encoding",
			config: Config{
				ServiceName: "test-service",
				Environment: "production",
				LogLevel:    "debug",
				Encoding:    "console",
				Output:      &bytes.Buffer{},
			},
		},
		{
			name: "invalid log level defaults to info",
			config: Config{
				ServiceName: "test-service",
				LogLevel:    "invalid",
				Output:      &bytes.Buffer{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"invalid", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogger_StructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := MustNew(Config{
		ServiceName: "test-service",
		Environment: "production",
		LogLevel:    "info",
		Output:      &buf,
	})

	logger.WithIdentity("user-1").Info("event submitted", zap.String("action_name", "signup"))
	_ = logger.Sync()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	for key, want := range map[string]string{
		"msg":         "event submitted",
		"service":     "test-service",
		"environment": "production",
		"identity":    "user-1",
		"action_name": "signup",
		"level":       "info",
	} {
		if entry[key] != want {
			t.Errorf("entry[%q] = %v, want %q", key, entry[key], want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := MustNew(Config{LogLevel: "warn", Output: &buf})

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info line written at warn level: %q", buf.String())
	}
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := MustNew(Config{Environment: "production", LogLevel: "info", Output: &buf})

	if got := logger.WithContext(context.Background()); got != logger.Logger {
		t.Error("WithContext() without a span should return the base logger")
	}

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "test-span")
	defer span.End()

	logger.WithContext(ctx).Info("traced")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v, want %s", entry["trace_id"], span.SpanContext().TraceID())
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	if !(Config{Environment: "Development"}).IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
	if (Config{Environment: "production"}).IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
}
