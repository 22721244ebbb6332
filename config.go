package sindri

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://sindri.app"

	// Environment variables consulted when Config fields are left empty.
	EnvAPIKey  = "SINDRI_API_KEY"
	EnvBaseURL = "SINDRI_API_URL"

	defaultTimeout      = 30 * time.Second
	defaultMaxRetries   = 5
	defaultPollInterval = time.Second
)

// Config holds the client settings. All fields except APIKey are optional;
// the zero value of an optional field selects its documented default. A
// Config is copied into the client at construction and never read again, so
// mutating it afterwards has no effect.
type Config struct {
	// APIKey authorizes requests. Falls back to SINDRI_API_KEY.
	APIKey string

	// BaseURL is the scheme+host of the API deployment, without a path.
	// Falls back to SINDRI_API_URL, then to DefaultBaseURL. The client
	// appends /api/v1/ itself.
	BaseURL string

	// Timeout bounds each HTTP request (default 30s).
	Timeout time.Duration

	// MaxRetries is the number of attempts for requests that fail with a
	// transport error or HTTP 502/503/504 (default 5).
	MaxRetries int

	// PollInterval is the delay between status polls while waiting for a
	// circuit or proof to finish (default 1s).
	PollInterval time.Duration

	// UserAgent overrides the Sindri-Client header value.
	UserAgent string
}

func (c *Config) applyDefaults() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv(EnvAPIKey)
	}
	if c.BaseURL == "" {
		c.BaseURL = os.Getenv(EnvBaseURL)
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent()
	}
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return &ValidationError{Field: "APIKey", Reason: "API key is required (set Config.APIKey or " + EnvAPIKey + ")"}
	}
	if err := validateBaseURL(c.BaseURL); err != nil {
		return err
	}
	return nil
}

// validateBaseURL checks the base URL is absolute http(s) and carries no
// path. Trailing slashes are tolerated, anything else after the host is not.
func validateBaseURL(raw string) error {
	trimmed := strings.TrimRight(raw, "/")
	u, err := url.Parse(trimmed)
	if err != nil {
		return &ValidationError{Field: "BaseURL", Reason: fmt.Sprintf("invalid base URL %q: %v", raw, err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "BaseURL", Reason: fmt.Sprintf("invalid base URL %q: scheme must be http or https", raw)}
	}
	if u.Host == "" {
		return &ValidationError{Field: "BaseURL", Reason: fmt.Sprintf("invalid base URL %q: missing host", raw)}
	}
	if u.Path != "" {
		return &ValidationError{Field: "BaseURL", Reason: fmt.Sprintf("invalid base URL %q: must not include a path", raw)}
	}
	return nil
}

// apiRoot returns the versioned API root, e.g. https://sindri.app/api/v1/.
func (c *Config) apiRoot() string {
	return strings.TrimRight(c.BaseURL, "/") + "/api/v1/"
}
