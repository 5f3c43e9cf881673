package commands

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/usercycle/internal/errors"
	"github.com/otherjamesbrown/usercycle/usercycle"
	"github.com/otherjamesbrown/usercycle/usercycle/usercycletest"
)

const testToken = "cli-token-5678"

// isolate keeps a developer's real config file and USERCYCLE_* variables
// out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, "USERCYCLE_") {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

func run(t *testing.T, srv *usercycletest.Server, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	if srv != nil {
		args = append(args,
			"--scheme", "http",
			"--host", strings.TrimPrefix(srv.URL, "http://"),
			"--access-token", srv.Token,
		)
	}
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func newServer(t *testing.T) *usercycletest.Server {
	t.Helper()
	isolate(t)
	srv := usercycletest.NewServer(testToken)
	t.Cleanup(srv.Close)
	return srv
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand("test")
	assert.Equal(t, "usercycle", root.Use)

	for _, path := range [][]string{
		{"event", "signup"},
		{"event", "activated"},
		{"event", "came-back"},
		{"event", "purchased"},
		{"event", "referred"},
		{"event", "canceled"},
		{"event", "set"},
		{"events", "list"},
		{"events", "get"},
		{"people", "list"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, "%v should exist", path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	signup, _, err := root.Find([]string{"event", "signup"})
	require.NoError(t, err)
	for _, flag := range []string{"identity", "occurred-at", "prop", "first-name", "campaign-source"} {
		assert.NotNil(t, signup.Flags().Lookup(flag), "signup should have --%s", flag)
	}
}

func TestEventSignup(t *testing.T) {
	srv := newServer(t)

	stdout, _, err := run(t, srv,
		"event", "signup",
		"--identity", "user-42",
		"--occurred-at", "2012-04-18 10:30:00 UTC",
		"--email", "ada@example.com",
		"--prop", "plan_name=pro",
		"--prop", "note=a=b",
		"--format", "json",
	)
	require.NoError(t, err)

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "signup", req.Form.Get("action_name"))
	assert.Equal(t, "user-42", req.Form.Get("identity"))
	assert.Equal(t, "2012-04-18 10:30:00 UTC", req.Form.Get("occurred_at"))
	assert.Equal(t, "ada@example.com", req.Form.Get("properties[email]"))
	assert.Equal(t, "pro", req.Form.Get("properties[plan_name]"))
	assert.Equal(t, "a=b", req.Form.Get("properties[note]"))
	assert.Equal(t, testToken, req.Header.Get(usercycle.AuthHeader))

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "usercycle event signup", out["command"])
}

func TestEventActions(t *testing.T) {
	srv := newServer(t)

	for use, action := range map[string]string{
		"activated": "activated",
		"came-back": "came_back",
		"purchased": "purchased",
		"referred":  "referred",
		"canceled":  "canceled",
	} {
		_, _, err := run(t, srv, "event", use, "--identity", "user-1", "--quiet")
		require.NoError(t, err, use)

		req, _ := srv.LastRequest()
		assert.Equal(t, action, req.Form.Get("action_name"))
	}
}

func TestEventSet(t *testing.T) {
	srv := newServer(t)

	stdout, _, err := run(t, srv, "event", "set", "--action", "upgraded", "--identity", "user-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "upgraded")

	req, _ := srv.LastRequest()
	assert.Equal(t, "upgraded", req.Form.Get("action_name"))

	_, _, err = run(t, srv, "event", "set", "--identity", "user-1")
	var cliErr *errors.CLIError
	require.True(t, stderrors.As(err, &cliErr))
	assert.Equal(t, errors.ExitUsage, cliErr.ExitCode)
}

func TestEventValidation(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing identity", args: []string{"event", "activated"}},
		{name: "bad prop", args: []string{"event", "activated", "--identity", "u", "--prop", "novalue"}},
		{name: "bad occurred-at", args: []string{"event", "activated", "--identity", "u", "--occurred-at", "yesterday"}},
		{name: "bad format", args: []string{"event", "activated", "--identity", "u", "--format", "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, srv, tt.args...)
			var cliErr *errors.CLIError
			require.True(t, stderrors.As(err, &cliErr), "got %v", err)
			assert.Equal(t, errors.ExitUsage, cliErr.ExitCode)
		})
	}
	assert.Empty(t, srv.Requests())
}

func TestMissingTokenExitCode(t *testing.T) {
	isolate(t)

	_, _, err := run(t, nil, "events", "list")
	var cliErr *errors.CLIError
	require.True(t, stderrors.As(err, &cliErr))
	assert.Equal(t, errors.ErrCodeConfiguration, cliErr.Code)
	assert.Equal(t, 2, cliErr.ExitCode)
	assert.ErrorIs(t, err, usercycle.ErrMissingAccessToken)
}

func TestUnauthorizedExitCode(t *testing.T) {
	srv := newServer(t)
	srv.Respond("GET", "/people.json", 401, `{"error":"unauthorized"}`)

	stdout, _, err := run(t, srv, "people", "list", "--format", "json")
	var cliErr *errors.CLIError
	require.True(t, stderrors.As(err, &cliErr))
	assert.Equal(t, errors.ErrCodeAuthenticationFailed, cliErr.Code)
	assert.Equal(t, 1, cliErr.ExitCode)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, false, out["success"])
}

func TestServerErrorExitCode(t *testing.T) {
	srv := newServer(t)
	srv.Respond("POST", "/events.json", 500, "boom")

	_, _, err := run(t, srv, "event", "purchased", "--identity", "user-1")
	var cliErr *errors.CLIError
	require.True(t, stderrors.As(err, &cliErr))
	assert.Equal(t, 3, cliErr.ExitCode)
	assert.ErrorIs(t, err, usercycle.ErrServerError)
}

func TestEventsListAndGet(t *testing.T) {
	srv := newServer(t)

	_, _, err := run(t, srv, "event", "signup", "--identity", "alice", "--quiet")
	require.NoError(t, err)
	_, _, err = run(t, srv, "event", "purchased", "--identity", "alice", "--quiet")
	require.NoError(t, err)

	stdout, _, err := run(t, srv, "events", "list", "--action", "purchased", "--count", "5", "--since", "2012-01-01 00:00:00 UTC")
	require.NoError(t, err)
	assert.Contains(t, stdout, "purchased")
	assert.NotContains(t, stdout, "signup")

	req, _ := srv.LastRequest()
	assert.Equal(t, "5", req.Query.Get("count"))
	assert.Equal(t, "1", req.Query.Get("page"))
	assert.Equal(t, "purchased", req.Query.Get("action_name"))
	assert.Equal(t, "2012-01-01 00:00:00 UTC", req.Query.Get("since"))
	assert.Equal(t, testToken, req.Query.Get("access_token"))

	stdout, _, err = run(t, srv, "events", "get", "2", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"action_name": "purchased"`)

	_, _, err = run(t, srv, "events", "get", "99")
	var cliErr *errors.CLIError
	require.True(t, stderrors.As(err, &cliErr))
	assert.Equal(t, errors.ErrCodeNotFound, cliErr.Code)
}

func TestEventsListBadSince(t *testing.T) {
	srv := newServer(t)

	for _, since := range []string{"last week", "2012-04-18 1:30:00 UTC", "2012-04-18T10:30:00Z"} {
		_, _, err := run(t, srv, "events", "list", "--since", since)
		var cliErr *errors.CLIError
		require.True(t, stderrors.As(err, &cliErr), "since %q", since)
		assert.Equal(t, errors.ExitUsage, cliErr.ExitCode, "since %q", since)
	}
	assert.Empty(t, srv.Requests())
}

func TestPeopleListCSV(t *testing.T) {
	srv := newServer(t)

	_, _, err := run(t, srv, "event", "signup", "--identity", "alice", "--quiet")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "people.csv")
	stdout, _, err := run(t, srv, "people", "list", "--format", "csv", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote 1 rows")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "identity,events\nalice,1\n")
}

func TestAuditTrail(t *testing.T) {
	srv := newServer(t)

	_, stderr, err := run(t, srv, "event", "referred", "--identity", "user-9", "--prop", "friend=bob", "--audit", "--quiet")
	require.NoError(t, err)

	var entry map[string]any
	line := strings.TrimSpace(stderr)
	require.NoError(t, json.Unmarshal([]byte(line), &entry), "stderr: %s", stderr)
	assert.Equal(t, "referred", entry["operation"])
	assert.Equal(t, "user-9", entry["identity"])
	assert.Equal(t, "success", entry["outcome"])
	assert.NotContains(t, stderr, testToken)
}

func TestVerboseLogsRedactToken(t *testing.T) {
	srv := newServer(t)

	_, stderr, err := run(t, srv, "events", "list", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stderr, "sending request")
	assert.Contains(t, stderr, "resolved configuration")
	assert.NotContains(t, stderr, testToken)
}

func TestConfigFileSuppliesToken(t *testing.T) {
	srv := newServer(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api:\n  host: " + strings.TrimPrefix(srv.URL, "http://") + "\nauth:\n  access-token: " + testToken + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	_, _, err := run(t, nil, "people", "list", "--config", path)
	require.NoError(t, err)

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, testToken, req.Header.Get(usercycle.AuthHeader))
}

func TestClientEnvSuppliesToken(t *testing.T) {
	srv := newServer(t)
	t.Setenv("USERCYCLE_ACCESS_TOKEN", testToken)
	t.Setenv("USERCYCLE_HOST", strings.TrimPrefix(srv.URL, "http://"))

	_, _, err := run(t, nil, "people", "list")
	require.NoError(t, err)

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, testToken, req.Header.Get(usercycle.AuthHeader))
}
