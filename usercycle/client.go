// Package usercycle is a client for the USERCycle behavioral-analytics API.
//
// It submits user lifecycle events (signup, activation, purchases, ...) and
// reads back stored events and people. Every request is a single blocking
// round trip: there is no retry, batching or queueing. Non-2xx responses are
// returned as *APIError values classified by HTTP status.
//
// Basic usage:
//
//	client, err := usercycle.NewClient(usercycle.Config{AccessToken: token})
//	if err != nil {
//		return err
//	}
//	_, err = client.Signup(ctx, "user-42", time.Now(), usercycle.Properties{
//		"plan_name": "pro",
//	})
package usercycle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/otherjamesbrown/usercycle/logging"
)

// Version is the client library version, sent in the User-Agent header.
const Version = "0.1.0"

const (
	DefaultScheme  = "http"
	DefaultHost    = "api.usercycle.com"
	DefaultVersion = "1"

	// AuthHeader carries the access token on every request.
	AuthHeader = "X-Usercycle-API-Key"

	// RequestIDHeader carries a fresh UUID per request for log correlation.
	RequestIDHeader = "X-Request-ID"

	tokenParam = "access_token"
	tracerName = "github.com/otherjamesbrown/usercycle"
)

// Config holds the connection settings for a Client.
type Config struct {
	// AccessToken authenticates every request (required).
	AccessToken string `envconfig:"ACCESS_TOKEN"`

	// Scheme is "http" or "https". Defaults to DefaultScheme.
	Scheme string `envconfig:"SCHEME" default:"http"`

	// Host is the API host, optionally with a port. Defaults to DefaultHost.
	Host string `envconfig:"HOST" default:"api.usercycle.com"`

	// Version selects the /api/v{Version} prefix. Defaults to DefaultVersion.
	Version string `envconfig:"API_VERSION" default:"1"`

	// Timeout applies to the default HTTP client. Zero leaves the transport
	// defaults in place. Ignored when HTTPClient is set.
	Timeout time.Duration `envconfig:"TIMEOUT"`

	// HTTPClient overrides the client used to send requests.
	HTTPClient *http.Client `ignored:"true"`

	// Logger receives debug request logs and warnings for failed calls.
	// nil disables logging.
	Logger *zap.Logger `ignored:"true"`
}

// Client talks to the USERCycle API. It holds no mutable state after
// construction and is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewClient validates cfg and returns a ready client. A missing access token
// fails here, never at request time.
func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, &ConfigError{Field: "access_token", Msg: "required"}
	}

	scheme := strings.ToLower(strings.TrimSpace(cfg.Scheme))
	if scheme == "" {
		scheme = DefaultScheme
	}
	if scheme != "http" && scheme != "https" {
		return nil, &ConfigError{Field: "scheme", Msg: fmt.Sprintf("must be http or https, got %q", cfg.Scheme)}
	}

	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = DefaultHost
	}
	if strings.ContainsAny(host, "/?#") {
		return nil, &ConfigError{Field: "host", Msg: fmt.Sprintf("must be a bare host[:port], got %q", cfg.Host)}
	}

	version := strings.TrimPrefix(strings.TrimSpace(cfg.Version), "v")
	if version == "" {
		version = DefaultVersion
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    &url.URL{Scheme: scheme, Host: host, Path: "/api/v" + version},
		token:      token,
		httpClient: httpClient,
		logger:     logger.Named("usercycle"),
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// BaseURL returns scheme://host/api/v{version}.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// call describes one outbound request. route is the path template used for
// span names and metric labels so IDs never become label values.
type call struct {
	method string
	route  string
	path   string
	query  url.Values
	form   url.Values
}

func (c *Client) do(ctx context.Context, cl call) (any, error) {
	// cl.path arrives escaped; keep RawPath so escaped IDs survive String().
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + cl.path
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return nil, fmt.Errorf("usercycle: bad path %q: %w", cl.path, err)
	}
	u.Path = unescaped
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "usercycle "+cl.method+" "+cl.route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("usercycle.route", cl.route),
			attribute.String("usercycle.request_id", requestID),
		),
	)
	defer span.End()

	var body io.Reader
	if cl.form != nil {
		body = strings.NewReader(cl.form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("usercycle: create request %s %s: %w", cl.method, cl.route, err)
	}
	req.Header.Set(AuthHeader, c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "usercycle-go/"+Version)
	req.Header.Set(RequestIDHeader, requestID)
	if cl.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	logger := c.logger.With(
		zap.String("method", cl.method),
		zap.String("url", logging.RedactString(u.String())),
		zap.String("request_id", requestID),
	)
	logger.Debug("sending request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		// *url.Error embeds the full URL, which carries the token on reads.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		recordRequest(cl.method, cl.route, "transport_error", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		logger.Error("request failed", zap.Error(err), zap.Duration("duration", elapsed))
		return nil, fmt.Errorf("usercycle: %s %s: %w", cl.method, cl.route, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		recordRequest(cl.method, cl.route, "read_error", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "read response")
		return nil, fmt.Errorf("usercycle: read response %s %s: %w", cl.method, cl.route, err)
	}

	recordRequest(cl.method, cl.route, strconv.Itoa(resp.StatusCode), elapsed)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, string(raw))
		APIErrorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()
		span.SetStatus(codes.Error, string(apiErr.Kind))
		logger.Warn("received non-2xx status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("kind", string(apiErr.Kind)),
			zap.Duration("duration", elapsed),
		)
		return nil, apiErr
	}

	logger.Debug("request succeeded", zap.Int("status_code", resp.StatusCode), zap.Duration("duration", elapsed))

	result, err := decodeBody(raw)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("usercycle: decode response %s %s: %w", cl.method, cl.route, err)
	}
	return result, nil
}

// decodeBody parses a JSON response as-is. Numbers stay json.Number so
// identifiers survive without float rounding. An empty body decodes to nil.
func decodeBody(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
