package suggest

import (
	"errors"
	"fmt"
)

// Kind classifies a suggestion failure.
type Kind string

const (
	KindNetwork         Kind = "network"
	KindRemoteError     Kind = "remote_error"
	KindInvalidResponse Kind = "invalid_response"
	KindConfiguration   Kind = "configuration"
)

// Sentinels matched by errors.Is against an *Error of the same Kind.
var (
	ErrNetwork         = errors.New("suggest: network failure")
	ErrRemote          = errors.New("suggest: remote error")
	ErrInvalidResponse = errors.New("suggest: invalid response")
	ErrConfiguration   = errors.New("suggest: configuration error")
)

var kindSentinels = map[Kind]error{
	KindNetwork:         ErrNetwork,
	KindRemoteError:     ErrRemote,
	KindInvalidResponse: ErrInvalidResponse,
	KindConfiguration:   ErrConfiguration,
}

// Error is the failure side of a Result, and the error New returns for a bad
// configuration.
type Error struct {
	Kind    Kind
	Message string

	// StatusCode is set for KindRemoteError.
	StatusCode int
	// Fallback is the project name the endpoint offered in place of a suggestion.
	Fallback string

	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("suggest %s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("suggest %s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}
