package sindri

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports malformed local input. It is always returned
// before any network traffic happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NetworkError reports a transport-level failure: connection refused, DNS
// failure, timeout. The server was never reached or never answered.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError reports a non-success HTTP response from the API. Message holds
// the server-provided error text when the body could be decoded.
type APIError struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// NotFoundError is the APIError specialization for HTTP 404: the referenced
// circuit or proof is unknown to the service. errors.As matches it both as
// *NotFoundError and, through Unwrap, as *APIError.
type NotFoundError struct {
	APIError
}

func (e *NotFoundError) Unwrap() error { return &e.APIError }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAPIError reports whether err is (or wraps) an APIError and, if so,
// returns it.
func IsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// apiError builds the right error type for a response status code.
func apiError(method, path string, statusCode int, message string) error {
	ae := APIError{
		StatusCode: statusCode,
		Message:    message,
		Method:     method,
		Path:       path,
	}
	if statusCode == http.StatusNotFound {
		return &NotFoundError{APIError: ae}
	}
	return &ae
}
