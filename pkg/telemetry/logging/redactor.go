package logging

import (
	"regexp"
	"strings"

	"mercator-hq/turnstile/pkg/config"
)

// Redactor masks client identifiers and credentials in log fields.
type Redactor struct {
	// patterns are applied in order; built-in patterns come first
	patterns []*redactPattern
	enabled  bool
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternBearerToken = "bearer_token"
	PatternAPIKey      = "api_key"
	PatternEmail       = "email"
	PatternIPv4        = "ipv4"
	PatternIPv6        = "ipv6"
)

// defaultPatterns lists the built-in patterns. Bearer tokens are matched
// before API keys so the "Bearer" prefix survives.
var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{PatternBearerToken, `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternAPIKey, `\b(sk|pk|key)-[a-zA-Z0-9_]+`, "$1-***"},
	{PatternEmail, `\b([a-zA-Z0-9])[a-zA-Z0-9._%+-]*@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`, "${1}***@${2}"},
	{PatternIPv4, `\b(\d{1,3})\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`, "${1}.*.*.*"},
	{PatternIPv6, `\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`, "****:****:****:****:****:****:****:****"},
}

// clientKeys name fields that carry a client identifier verbatim.
var clientKeys = map[string]bool{
	"client":    true,
	"client_id": true,
	"clientid":  true,
}

// credentialKeys are matched as substrings of the lowercased key.
var credentialKeys = []string{
	"password", "passwd",
	"secret", "token",
	"api_key", "apikey",
	"authorization",
}

// NewRedactor creates a new Redactor with default and custom patterns.
// Custom patterns that fail to compile are skipped.
func NewRedactor(customPatterns []config.RedactPattern) *Redactor {
	r := &Redactor{
		patterns: make([]*redactPattern, 0, len(defaultPatterns)+len(customPatterns)),
		enabled:  true,
	}

	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}

	for _, p := range customPatterns {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		})
	}

	return r
}

// RedactString masks every pattern match in value.
func (r *Redactor) RedactString(value string) string {
	if !r.enabled || value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}

	return redacted
}

// RedactArgs redacts variadic log arguments.
// Args are in the form: key1, value1, key2, value2, ...
func (r *Redactor) RedactArgs(args ...any) []any {
	if !r.enabled || len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		if key, ok := redacted[i-1].(string); ok && isSensitiveKey(key) {
			redacted[i] = redactValue(redacted[i])
			continue
		}

		if str, ok := redacted[i].(string); ok {
			redacted[i] = r.RedactString(str)
		}
	}

	return redacted
}

// isSensitiveKey checks if a key name indicates a client identifier or
// a credential.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	if clientKeys[lowerKey] {
		return true
	}

	for _, sensitive := range credentialKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}

	return false
}

// redactValue masks a sensitive value, keeping a 4-character prefix of
// longer strings for correlation.
func redactValue(value any) any {
	v, ok := value.(string)
	if !ok {
		return "***"
	}
	if v == "" {
		return ""
	}
	return RedactClientID(v)
}

// RedactClientID masks a client identifier, keeping only a short prefix.
func RedactClientID(clientID string) string {
	if len(clientID) <= 4 {
		return "***"
	}
	return clientID[:4] + "***"
}
