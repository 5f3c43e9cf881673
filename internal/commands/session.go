package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/otherjamesbrown/usercycle/internal/audit"
	"github.com/otherjamesbrown/usercycle/internal/config"
	"github.com/otherjamesbrown/usercycle/internal/errors"
	"github.com/otherjamesbrown/usercycle/internal/output"
	"github.com/otherjamesbrown/usercycle/logging"
	"github.com/otherjamesbrown/usercycle/observability"
	"github.com/otherjamesbrown/usercycle/usercycle"
)

const serviceName = "usercycle-cli"

// session holds everything a single command invocation needs.
type session struct {
	command  string
	cfg      *config.Config
	client   *usercycle.Client
	logger   *logging.Logger
	provider *observability.Provider
	audit    *audit.Logger
	out      io.Writer
	csvPath  string
}

func newSession(cmd *cobra.Command, g *globalFlags) (*session, error) {
	cfg, err := config.LoadWithFlags(g.configFile, g.overrides(cmd))
	if err != nil {
		return nil, errors.NewOperationError(
			fmt.Sprintf("failed to load configuration: %v", err),
			"Check your configuration file or environment variables.",
		)
	}

	if !output.ValidFormat(cfg.OutputFormat) {
		return nil, errors.NewUsageError(fmt.Sprintf("unsupported format %q (want table, json or csv)", cfg.OutputFormat))
	}

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.DefaultConfig().
		WithServiceName(serviceName).
		WithLogLevel(level).
		WithEncoding("console").
		WithOutput(cmd.ErrOrStderr()))
	if err != nil {
		return nil, errors.NewOperationError(fmt.Sprintf("failed to initialize logging: %v", err), "Check log.level in your configuration.")
	}

	s := &session{
		command: cmd.CommandPath(),
		cfg:     cfg,
		logger:  logger,
		out:     cmd.OutOrStdout(),
		csvPath: g.outputPath,
	}

	logger.Debug("resolved configuration", zap.Any("config", logging.RedactFields(map[string]any{
		"scheme":       cfg.Scheme,
		"host":         cfg.Host,
		"api_version":  cfg.APIVersion,
		"access_token": cfg.AccessToken,
		"timeout":      cfg.Timeout.String(),
		"config_file":  cfg.ConfigFile,
		"format":       cfg.OutputFormat,
	})))

	if cfg.TelemetryEndpoint != "" {
		provider, err := observability.Init(cmd.Context(), observability.Config{
			ServiceName:    serviceName,
			ServiceVersion: usercycle.Version,
			Environment:    logger.Config().Environment,
			Endpoint:       cfg.TelemetryEndpoint,
			Protocol:       cfg.TelemetryProtocol,
			Insecure:       cfg.TelemetryInsecure,
		})
		if err != nil {
			logger.Warn("telemetry disabled", zap.Error(err))
		} else if provider.Fallback() {
			logger.Warn("telemetry exporter unavailable, spans are dropped", zap.String("endpoint", cfg.TelemetryEndpoint))
		}
		s.provider = provider
	}

	if cfg.AuditEnabled {
		s.audit = audit.NewLogger(cmd.ErrOrStderr())
	}

	clientCfg := cfg.ClientConfig()
	clientCfg.Logger = logger.Logger
	client, err := usercycle.NewClient(clientCfg)
	if err != nil {
		s.close()
		return nil, errors.FromClientError(err, "")
	}
	s.client = client

	return s, nil
}

// start opens the command span that client request spans nest under.
func (s *session) start(cmd *cobra.Command) (context.Context, trace.Span) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return otel.Tracer(serviceName).Start(ctx, s.command)
}

// close flushes telemetry and logs.
func (s *session) close() {
	if s.provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.provider.Shutdown(ctx); err != nil {
			s.logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

// render prints a successful result in the configured format.
func (s *session) render(data any) error {
	if err := output.Render(s.out, s.cfg.OutputFormat, s.command, data, s.csvPath); err != nil {
		return errors.NewOperationError(fmt.Sprintf("failed to write output: %v", err), "")
	}
	return nil
}

// fail converts err to a CLIError, echoing it as JSON when that format is
// selected so scripts always get a parseable document.
func (s *session) fail(err error) error {
	cliErr := errors.FromClientError(err, s.client.BaseURL())
	if s.cfg.OutputFormat == output.FormatJSON {
		_ = output.NewJSONFormatter(s.out).WriteError(s.command, string(cliErr.Code), cliErr, cliErr.Suggestion)
	}

	var apiErr *usercycle.APIError
	if stderrors.As(err, &apiErr) {
		s.logger.Debug("api error body", zap.String("body", logging.RedactString(apiErr.Body)))
	}
	return cliErr
}

// recordAudit writes an audit entry for a submission when auditing is on.
func (s *session) recordAudit(ev usercycle.Event, start time.Time, err error) {
	if s.audit == nil {
		return
	}

	params := map[string]interface{}{}
	for k, v := range ev.Properties {
		params[k] = v
	}
	if ev.OccurredAt != nil {
		params["occurred_at"] = fmt.Sprint(ev.OccurredAt)
	}

	op := audit.Operation{
		Type:       ev.ActionName,
		Identity:   ev.Identity,
		Command:    s.command,
		Endpoint:   s.client.BaseURL(),
		Parameters: params,
		Outcome:    audit.OutcomeSuccess,
		Duration:   time.Since(start),
		Error:      err,
	}
	if err != nil {
		op.Outcome = audit.OutcomeFailure
	}
	if auditErr := s.audit.LogOperation(op); auditErr != nil {
		s.logger.Warn("failed to write audit entry", zap.Error(auditErr))
	}
}
