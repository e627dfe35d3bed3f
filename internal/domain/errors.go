package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure surfaced by the uploader and the job clients
// wraps exactly one of these so callers can branch with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrUpload     = errors.New("upload failed")
	ErrSubmission = errors.New("submission failed")
	ErrListing    = errors.New("listing failed")
	ErrDeletion   = errors.New("deletion failed")
	ErrNetwork    = errors.New("network failure")
)

// RemoteError carries the raw response of a non-success remote call.
type RemoteError struct {
	Kind       error
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%v: status %d", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%v: status %d: %s", e.Kind, e.StatusCode, body)
}

func (e *RemoteError) Unwrap() error { return e.Kind }

// NewRemoteError builds a RemoteError of the given kind from a raw response body.
func NewRemoteError(kind error, status int, raw []byte) error {
	return &RemoteError{Kind: kind, StatusCode: status, Body: string(raw)}
}

// Validationf reports invalid input detected before any remote call.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NetworkError wraps a transport failure (refused connection, timeout, ...).
func NetworkError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrNetwork, op, err)
}

// Diagnostic returns the text a user should see for err: the remote body when
// the remote service produced one, the error message otherwise.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		if body := strings.TrimSpace(remote.Body); body != "" {
			return body
		}
	}
	return err.Error()
}
