package config

import (
	"github.com/spf13/viper"

	"github.com/otherjamesbrown/usercycle/usercycle"
)

// ApplyDefaults sets default configuration values in the provided Viper instance.
func ApplyDefaults(v *viper.Viper) {
	// API
	v.SetDefault("api.scheme", usercycle.DefaultScheme)
	v.SetDefault("api.host", usercycle.DefaultHost)
	v.SetDefault("api.version", usercycle.DefaultVersion)

	// No default token; the client refuses to start without one.
	v.SetDefault("auth.access-token", "")

	v.SetDefault("http.timeout", "30s")

	// Output
	v.SetDefault("defaults.output-format", "table") // table, json, csv
	v.SetDefault("defaults.verbose", false)
	v.SetDefault("defaults.quiet", false)

	v.SetDefault("log.level", "warn")
	v.SetDefault("audit.enabled", false)

	// Telemetry
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.protocol", "grpc")
	v.SetDefault("telemetry.insecure", true)
}
