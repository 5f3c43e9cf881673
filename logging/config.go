package logging

import (
	"io"
	"os"
	"strings"
)

// Config controls logger initialization.
type Config struct {
	// ServiceName identifies the component emitting logs.
	ServiceName string

	// Environment is the deployment environment (development, staging, production).
	Environment string

	// LogLevel controls verbosity (debug, info, warn, error).
	// Defaults to "info" if empty or invalid.
	LogLevel string

	// Encoding is "json" or "console". Defaults to "json".
	Encoding string

	// OutputPath is the log destination (stdout, stderr, or a file path).
	// Defaults to "stderr" so command output on stdout stays parseable.
	OutputPath string

	// Output, when set, takes precedence over OutputPath.
	Output io.Writer
}

// DefaultConfig returns a config populated from ENVIRONMENT and LOG_LEVEL.
func DefaultConfig() Config {
	return Config{
		ServiceName: "usercycle",
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		Encoding:    "json",
		OutputPath:  "stderr",
	}
}

// WithServiceName sets the service name.
func (c Config) WithServiceName(name string) Config {
	c.ServiceName = name
	return c
}

// WithLogLevel sets the log level.
func (c Config) WithLogLevel(level string) Config {
	c.LogLevel = level
	return c
}

// WithEncoding sets the encoder ("json" or "console").
func (c Config) WithEncoding(encoding string) Config {
	c.Encoding = encoding
	return c
}

// WithOutput sends logs to w.
func (c Config) WithOutput(w io.Writer) Config {
	c.Output = w
	return c
}

// IsDevelopment returns true if environment is development.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
