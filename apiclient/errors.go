package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/clingclang/clingclang/authmodel"
)

// ErrAuthExpired is the condition behind a refresh: the server answered 401
// with the expired-authorization message. Callers only see it wrapped in a
// RefreshFailedError.
var ErrAuthExpired = errors.New("access token expired")

// ErrSessionEnded is returned when a request's credential went stale because the
// session was cleared while the request was in flight.
var ErrSessionEnded = errors.New("session ended while the request was in flight")

// TransportError means no HTTP response reached the client. It is never
// retried.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: server not responding: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RefreshFailedError is terminal for the session: the store has been cleared
// and a logout event emitted by the time a caller sees it.
type RefreshFailedError struct {
	Err error
}

func (e *RefreshFailedError) Error() string {
	return fmt.Sprintf("session refresh failed: %v", e.Err)
}

func (e *RefreshFailedError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrAuthExpired) match every refresh failure.
func (e *RefreshFailedError) Is(target error) bool {
	return target == ErrAuthExpired
}

// ApplicationError is any non-2xx response other than a recoverable 401. The
// pipeline hands it to the caller untouched.
type ApplicationError struct {
	StatusCode int
	Message    string // body "message", empty when the server sent none
	Code       string // body "code", empty when the server sent none
	Body       []byte
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func newApplicationError(resp *Response) *ApplicationError {
	body := resp.message()
	return &ApplicationError{
		StatusCode: resp.StatusCode,
		Message:    body.Message,
		Code:       body.Code,
		Body:       resp.Body,
	}
}

// Message derives the text to show a user for err. The server's message is
// used verbatim when the response carried one; transport failures get the
// standard "server not responding" text; everything else gets fallback.
func Message(err error, fallback string) string {
	var appErr *ApplicationError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return authmodel.MessageServerTimeout
	}
	return fallback
}

// IsStatus reports whether err is an ApplicationError with one of codes.
func IsStatus(err error, codes ...int) bool {
	var appErr *ApplicationError
	if !errors.As(err, &appErr) {
		return false
	}
	for _, code := range codes {
		if appErr.StatusCode == code {
			return true
		}
	}
	return false
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
