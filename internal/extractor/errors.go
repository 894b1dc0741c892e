package extractor

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnavailable       = errors.New("service unavailable")
	ErrMalformedResponse = errors.New("malformed response")
)

// AIError is returned by every analyzer failure. Kind is one of the sentinel
// errors above so callers can use errors.Is.
type AIError struct {
	Provider string
	Kind     error
	Err      error
}

func (e *AIError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

func (e *AIError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newAIError(provider string, kind, err error) *AIError {
	return &AIError{Provider: provider, Kind: kind, Err: err}
}

// KindLabel names the failure kind of err for logs and metrics.
func KindLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	}
	return "unknown"
}

// kindForStatus maps a non-2xx HTTP status to an error kind.
func kindForStatus(status int) error {
	if status == 401 || status == 403 {
		return ErrUnauthorized
	}
	return ErrUnavailable
}
