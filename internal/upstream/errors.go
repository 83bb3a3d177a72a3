package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a call to the App Server failed.
type Kind string

const (
	KindUnreachable     Kind = "unreachable"
	KindTimeout         Kind = "timeout"
	KindStatus          Kind = "status"
	KindCircuitOpen     Kind = "circuit_open"
	KindInvalidResponse Kind = "invalid_response"
	KindCanceled        Kind = "canceled"
)

// Error is the failure result of a call. Its message is what the Web Server
// embeds in its error body.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%d %s for url: %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
	case KindCircuitOpen:
		return fmt.Sprintf("%s for url: %s", e.Err, e.URL)
	default:
		if e.Err == nil {
			return fmt.Sprintf("%s error for url: %s", e.Kind, e.URL)
		}
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}
