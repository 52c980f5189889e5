package readwise

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyToken is returned when a client is built without a token
	ErrEmptyToken = errors.New("readwise access token is empty")

	// ErrInvalidToken matches an *AuthError caused by a 401 response
	ErrInvalidToken = errors.New("invalid or expired Readwise token")

	// ErrInvalidPage is returned for page numbers below 1
	ErrInvalidPage = errors.New("page number must be at least 1")

	// ErrMissingBody is returned when a POST or PATCH is dispatched without
	// a payload
	ErrMissingBody = errors.New("request body is required")
)

// TransportError wraps a failure below HTTP: DNS, refused connections, TLS,
// timeouts and cancelled contexts
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("readwise: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HeaderError is returned when the token cannot be used as an HTTP header
// value
type HeaderError struct {
	Header string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("readwise: invalid value for header %s", e.Header)
}

// StatusError is returned for any non-2xx response
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("readwise: %s %s: unexpected status %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// DecodeError is returned when a response body does not match the expected
// shape
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("readwise: failed to decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedMethodError is returned by the request signer for methods other
// than GET, POST, PATCH and DELETE
type UnsupportedMethodError struct {
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("readwise: unsupported request method %q", e.Method)
}

// AuthError is returned by Authenticate when the auth endpoint rejects the
// token
type AuthError struct {
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("readwise: authentication failed with status %d", e.StatusCode)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvalidToken) match 401 responses
func (e *AuthError) Is(target error) bool {
	return target == ErrInvalidToken && e.StatusCode == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, if any
func StatusCode(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.StatusCode, true
	}
	return 0, false
}
