package logging

import (
	"regexp"
	"strings"
)

const redacted = "***REDACTED***"

// Redaction patterns for secrets that may end up in log lines.
var (
	// AccessTokenParamPattern matches access_token query or form values.
	AccessTokenParamPattern = regexp.MustCompile(`(?i)(access_token=)([^&\s"']+)`)

	// APIKeyHeaderPattern matches the API key header as it appears in dumps.
	APIKeyHeaderPattern = regexp.MustCompile(`(?i)(X-Usercycle-API-Key:\s*)(\S+)`)

	// PasswordPattern matches passwords in key=value or key: value form.
	PasswordPattern = regexp.MustCompile(`(?i)(password[=:]\s*)([^\s"',}]+)`)

	// BearerPattern matches bearer tokens.
	BearerPattern = regexp.MustCompile(`(?i)(Bearer\s+)([A-Za-z0-9\-_.]+)`)

	// TokenEnvPattern matches *_TOKEN=value environment assignments.
	TokenEnvPattern = regexp.MustCompile(`([A-Z][A-Z0-9_]*_TOKEN=)(\S+)`)
)

// RedactString masks every secret pattern found in s.
func RedactString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range []*regexp.Regexp{
		AccessTokenParamPattern,
		APIKeyHeaderPattern,
		PasswordPattern,
		BearerPattern,
		TokenEnvPattern,
	} {
		s = p.ReplaceAllString(s, "${1}"+redacted)
	}
	return s
}

// RedactFields returns a copy of fields with sensitive keys masked. Keys are
// matched case-insensitively against token, secret, password, key and auth.
func RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}

	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if isSensitiveKey(k) {
			out[k] = redacted
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = RedactString(s)
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "password", "key", "auth"} {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}
