// Package commands implements the usercycle CLI command tree.
package commands

import (
	"time"

	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configFile  string
	accessToken string
	scheme      string
	host        string
	apiVersion  string
	timeout     time.Duration
	format      string
	outputPath  string
	verbose     bool
	quiet       bool
	audit       bool
}

// NewRootCommand builds the root command with every subcommand registered.
func NewRootCommand(version string) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "usercycle",
		Short: "Command-line client for the USERCycle analytics API",
		Long: `usercycle records user lifecycle events (signup, activation, purchases,
referrals, cancellations) with the USERCycle behavioral-analytics API and
reads back stored events and people.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "Config file (default ~/.usercycle/config.yaml or ./config.yaml)")
	pf.StringVar(&g.accessToken, "access-token", "", "API access token (overrides config)")
	pf.StringVar(&g.scheme, "scheme", "", "API scheme: http or https (overrides config)")
	pf.StringVar(&g.host, "host", "", "API host[:port] (overrides config)")
	pf.StringVar(&g.apiVersion, "api-version", "", "API version (overrides config)")
	pf.DurationVar(&g.timeout, "timeout", 0, "HTTP timeout (overrides config)")
	pf.StringVar(&g.format, "format", "", "Output format: table, json, csv")
	pf.StringVar(&g.outputPath, "output", "", "Write csv output to this file")
	pf.BoolVar(&g.verbose, "verbose", false, "Enable debug logging")
	pf.BoolVar(&g.quiet, "quiet", false, "Suppress non-error output")
	pf.BoolVar(&g.audit, "audit", false, "Write an audit record for every submission to stderr")

	root.AddCommand(EventCommand(g))
	root.AddCommand(EventsCommand(g))
	root.AddCommand(PeopleCommand(g))

	return root
}

// overrides collects the flags the user actually set, keyed the way
// config.LoadWithFlags expects.
func (g *globalFlags) overrides(cmd *cobra.Command) map[string]interface{} {
	flags := cmd.Flags()
	out := map[string]interface{}{}
	set := func(name string, value interface{}) {
		if flags.Changed(name) {
			out[name] = value
		}
	}
	set("access-token", g.accessToken)
	set("scheme", g.scheme)
	set("host", g.host)
	set("api-version", g.apiVersion)
	set("timeout", g.timeout)
	set("format", g.format)
	set("verbose", g.verbose)
	set("quiet", g.quiet)
	set("audit", g.audit)
	return out
}
