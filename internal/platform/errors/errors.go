package errors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfig    Kind = "config"
	KindDomain    Kind = "domain"
	KindTransport Kind = "transport"
	KindPlatform  Kind = "platform"
	KindBootstrap Kind = "bootstrap"
	KindStorage   Kind = "storage"
	KindVision    Kind = "vision"
	KindAuth      Kind = "auth"
	KindUnknown   Kind = "unknown"
)

// Code identifies a terminal pipeline failure so callers can render a
// user-facing message and decide whether a retry makes sense.
type Code string

const (
	CodeNone               Code = ""
	CodeUnauthenticated    Code = "unauthenticated"
	CodeUnauthorized       Code = "unauthorized"
	CodeRateLimited        Code = "rate_limited"
	CodeQuotaExceeded      Code = "quota_exceeded"
	CodeProviderError      Code = "provider_error"
	CodeMalformedResponse  Code = "malformed_response"
	CodeStorageUnavailable Code = "storage_unavailable"
	CodePermissionDenied   Code = "permission_denied"
)

type Error struct {
	Kind    Kind
	Code    Code
	Op      string
	Message string
	// Status carries the upstream HTTP status for CodeProviderError.
	Status int
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// NewCoded builds a typed error carrying a failure code.
func NewCoded(kind Kind, code Code, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Op:      op,
		Message: message,
	}
}

// WithStatus attaches the upstream HTTP status to the error.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// IsKind checks whether any error in the chain matches the provided kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	for err != nil {
		if errors.As(err, &target) {
			return target.Kind == kind
		}
		err = errors.Unwrap(err)
	}
	return false
}

// CodeOf extracts the failure code from an error chain, CodeNone if untyped.
func CodeOf(err error) Code {
	var target *Error
	if errors.As(err, &target) {
		return target.Code
	}
	return CodeNone
}

// IsCode reports whether the error chain carries the given failure code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
