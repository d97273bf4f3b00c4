package webhelper

import (
	"errors"
	"fmt"
	"slices"
)

// ErrDiscoveryTimeout is returned by a discovery attempt that saw no port
// answer before its deadline. Callers retry on it.
var ErrDiscoveryTimeout = errors.New("no companion port answered before timeout")

// ErrInvalidToken marks server errors that require a brand new session.
var ErrInvalidToken = errors.New("companion rejected session tokens")

// ErrNoUser is raised when a status carries no track and the no-track policy
// treats that as an error.
var ErrNoUser = errors.New("No user logged in")

// DefaultRestartMessages are the error messages that invalidate the session.
var DefaultRestartMessages = []string{
	"Invalid OAuth token",
	"Expired OAuth token",
	"Invalid Csrf token",
}

// AuthError is returned when either token cannot be obtained. Message holds
// the server supplied reason when there is one.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError is an error descriptor reported inside a successful response.
type APIError struct {
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (type %s)", e.Message, e.Type)
}

// TransportError covers anything that prevented a usable HTTP exchange:
// refused connections, timeouts and non-2xx statuses.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: execute request: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError is returned when a body cannot be decoded.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsRestartable reports whether err names one of the given restart messages.
func IsRestartable(err error, messages []string) bool {
	if errors.Is(err, ErrInvalidToken) {
		return true
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return slices.Contains(messages, apiErr.Message)
}

// Kind names the error class for logging.
func Kind(err error) string {
	var (
		authErr      *AuthError
		apiErr       *APIError
		transportErr *TransportError
		malformedErr *MalformedResponseError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDiscoveryTimeout):
		return "discovery_timeout"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.As(err, &authErr):
		return "auth_failure"
	case errors.As(err, &malformedErr):
		return "malformed_response"
	case errors.As(err, &transportErr):
		return "transport_failure"
	case errors.As(err, &apiErr):
		return "api_error"
	default:
		return "unknown"
	}
}
