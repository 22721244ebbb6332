package sindri

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"time"
)

// Client talks to the Sindri API. It is a stateless request/response
// mediator: construction validates the configuration once and every
// operation is an independent HTTP round trip. A Client is safe for
// concurrent use.
type Client struct {
	cfg     Config
	apiRoot string
	http    *http.Client
}

// NewClient builds a client from cfg. Empty optional fields fall back to
// environment variables and documented defaults; a missing API key or a
// malformed base URL returns a *ValidationError.
func NewClient(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:     cfg,
		apiRoot: cfg.apiRoot(),
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// BaseURL returns the configured base URL (without the /api/v1 suffix).
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

func defaultUserAgent() string {
	return fmt.Sprintf("sindri-go-sdk/%s (%s/%s) go_version:%s",
		Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// retryStatus reports whether a response status is worth another attempt.
// Mirrors the hosted API guidance: only gateway-level failures retry.
func retryStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// do performs one API call. body may be nil; when non-nil it is replayed
// from memory on every retry. On any status other than wantStatus the
// response is converted into an *APIError (404 into *NotFoundError) and out
// is left untouched.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body []byte, wantStatus int, out any) error {
	endpoint := c.apiRoot + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	resp, raw, err := c.send(ctx, method, endpoint, contentType, body)
	if err != nil {
		return err
	}

	if resp.StatusCode != wantStatus {
		return apiError(method, path, resp.StatusCode, serverMessage(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apiError(method, path, resp.StatusCode, fmt.Sprintf("unable to decode response as JSON: %v", err))
	}
	return nil
}

// send issues the request with retries: up to MaxRetries attempts on
// transport errors and 502/503/504 responses, backing off 0s, 2s, 4s, ...
// between attempts. The first retry is immediate.
func (c *Client) send(ctx context.Context, method, endpoint, contentType string, body []byte) (*http.Response, []byte, error) {
	var lastErr error
	backoff := time.Duration(0)

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, nil, &NetworkError{Method: method, URL: endpoint, Err: ctx.Err()}
			case <-time.After(backoff):
			}
			if backoff == 0 {
				backoff = 2 * time.Second
			} else {
				backoff *= 2
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, nil, &ValidationError{Reason: fmt.Sprintf("building request for %s: %v", endpoint, err)}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Sindri-Client", c.cfg.UserAgent)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if retryStatus(resp.StatusCode) && attempt < c.cfg.MaxRetries-1 {
			lastErr = fmt.Errorf("server returned %d", resp.StatusCode)
			continue
		}
		return resp, raw, nil
	}

	return nil, nil, &NetworkError{Method: method, URL: endpoint, Err: lastErr}
}

// serverMessage extracts the error text from an API error body. The API
// wraps errors as {"error": "..."}; anything else is passed through raw so
// the caller still sees what the server said.
func serverMessage(raw []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return string(bytes.TrimSpace(raw))
}
