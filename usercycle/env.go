package usercycle

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces the environment variables read by ConfigFromEnv.
const EnvPrefix = "USERCYCLE"

// ConfigFromEnv reads a Config from USERCYCLE_ACCESS_TOKEN, USERCYCLE_SCHEME,
// USERCYCLE_HOST, USERCYCLE_API_VERSION and USERCYCLE_TIMEOUT. The token is
// not checked here; NewClient does that.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("usercycle: load config from environment: %w", err)
	}
	return cfg, nil
}

// NewClientFromEnv is NewClient(ConfigFromEnv()).
func NewClientFromEnv() (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewClient(cfg)
}
