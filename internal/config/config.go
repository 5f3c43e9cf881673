// Package config loads the usercycle CLI configuration.
//
// Sources, highest precedence first: command-line flags, USERCYCLE_*
// environment variables (both the nested USERCYCLE_AUTH_ACCESS_TOKEN form and
// the client library's USERCYCLE_ACCESS_TOKEN form), a YAML config file, and the defaults in
// defaults.go. The config file is ~/.usercycle/config.yaml or ./config.yaml
// unless --config names one explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/otherjamesbrown/usercycle/usercycle"
)

// EnvPrefix namespaces the environment variables read by Load.
const EnvPrefix = "USERCYCLE"

// Config holds all CLI configuration.
type Config struct {
	// API
	Scheme     string
	Host       string
	APIVersion string

	// Authentication
	AccessToken string

	// HTTP
	Timeout time.Duration

	// Output
	OutputFormat string // table, json, csv
	Verbose      bool
	Quiet        bool

	LogLevel     string
	AuditEnabled bool

	// Telemetry; tracing is off when TelemetryEndpoint is empty.
	TelemetryEndpoint string
	TelemetryProtocol string
	TelemetryInsecure bool

	// ConfigFile is the file actually read, empty if none was found.
	ConfigFile string
}

// Load reads configuration from every source. configFile may be empty to use
// the default search path; a missing default file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	ApplyDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if err := bindClientEnv(v); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".usercycle"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{
		Scheme:            v.GetString("api.scheme"),
		Host:              v.GetString("api.host"),
		APIVersion:        v.GetString("api.version"),
		AccessToken:       v.GetString("auth.access-token"),
		Timeout:           v.GetDuration("http.timeout"),
		OutputFormat:      v.GetString("defaults.output-format"),
		Verbose:           v.GetBool("defaults.verbose"),
		Quiet:             v.GetBool("defaults.quiet"),
		LogLevel:          v.GetString("log.level"),
		AuditEnabled:      v.GetBool("audit.enabled"),
		TelemetryEndpoint: v.GetString("telemetry.endpoint"),
		TelemetryProtocol: v.GetString("telemetry.protocol"),
		TelemetryInsecure: v.GetBool("telemetry.insecure"),
		ConfigFile:        v.ConfigFileUsed(),
	}, nil
}

// clientEnv maps config keys to the variables usercycle.ConfigFromEnv reads,
// so the CLI honours them too. The nested names win when both are set.
var clientEnv = map[string]string{
	"auth.access-token": "ACCESS_TOKEN",
	"api.scheme":        "SCHEME",
	"api.host":          "HOST",
	"api.version":       "API_VERSION",
	"http.timeout":      "TIMEOUT",
}

func bindClientEnv(v *viper.Viper) error {
	replacer := strings.NewReplacer("-", "_", ".", "_")
	for key, short := range clientEnv {
		nested := EnvPrefix + "_" + strings.ToUpper(replacer.Replace(key))
		if err := v.BindEnv(key, nested, EnvPrefix+"_"+short); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

// LoadWithFlags loads configuration and applies flag overrides. Only flags
// the user actually set should be passed in.
func LoadWithFlags(configFile string, flagOverrides map[string]interface{}) (*Config, error) {
	cfg, err := Load(configFile)
	if err != nil {
		return nil, err
	}

	for key, value := range flagOverrides {
		switch key {
		case "scheme":
			if v, ok := value.(string); ok {
				cfg.Scheme = v
			}
		case "host":
			if v, ok := value.(string); ok {
				cfg.Host = v
			}
		case "api-version":
			if v, ok := value.(string); ok {
				cfg.APIVersion = v
			}
		case "access-token":
			if v, ok := value.(string); ok {
				cfg.AccessToken = v
			}
		case "timeout":
			if v, ok := value.(time.Duration); ok {
				cfg.Timeout = v
			}
		case "format":
			if v, ok := value.(string); ok {
				cfg.OutputFormat = v
			}
		case "verbose":
			if v, ok := value.(bool); ok {
				cfg.Verbose = v
			}
		case "quiet":
			if v, ok := value.(bool); ok {
				cfg.Quiet = v
			}
		case "audit":
			if v, ok := value.(bool); ok {
				cfg.AuditEnabled = v
			}
		}
	}

	return cfg, nil
}

// ClientConfig converts the CLI settings into a client configuration.
func (c *Config) ClientConfig() usercycle.Config {
	return usercycle.Config{
		AccessToken: c.AccessToken,
		Scheme:      c.Scheme,
		Host:        c.Host,
		Version:     c.APIVersion,
		Timeout:     c.Timeout,
	}
}
