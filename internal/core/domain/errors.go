package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingToken         = errors.New("missing authentication token")
	ErrInvalidToken         = errors.New("invalid authentication token")
	ErrUpstreamUnavailable  = errors.New("identity service unavailable")
	ErrUnauthenticated      = errors.New("request is not authenticated")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrRegistrationRejected = errors.New("registration rejected")
	ErrIdentityUnresolved   = errors.New("identity could not be resolved")
)

// AuthError carries the upstream diagnostics behind one of the sentinel
// errors above. Status and Body are zero when no response was received.
type AuthError struct {
	Kind    error
	Message string
	Status  int
	Body    string
	Cause   error
}

func (e *AuthError) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the transport cause to errors.Is/As.
func (e *AuthError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// UpstreamMessage returns the message reported by the identity service, or
// an empty string when err does not carry one.
func UpstreamMessage(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return ""
}
