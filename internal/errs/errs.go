// Package errs defines the error taxonomy shared by the instance service
// client, the lifecycle manager and the admin api.
package errs

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Code classifies an error for callers and for the http layer.
type Code string

const (
	CodeTenantUnresolved       Code = "TENANT_UNRESOLVED"
	CodeCapacityExceeded       Code = "CAPACITY_EXCEEDED"
	CodeInvariantViolation     Code = "INVARIANT_VIOLATION"
	CodeRemoteCallFailed       Code = "REMOTE_CALL_FAILED"
	CodePartialDataUnavailable Code = "PARTIAL_DATA_UNAVAILABLE"
	CodeBusy                   Code = "BUSY"
	CodeInvalidState           Code = "INVALID_STATE"
	CodeNotFound               Code = "NOT_FOUND"
	CodeInternal               Code = "INTERNAL"
)

// Error is the concrete error type. Op names the operation that failed,
// Msg is operator-facing text, Cause is the wrapped underlying error.
type Error struct {
	Code  Code
	Op    string
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(strings.ToLower(strings.ReplaceAll(string(e.Code), "_", " ")))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on Code. A target carrying a Msg only matches errors with the
// same Msg, so specific sentinels (ErrMainDeviceConflict) stay distinguishable
// while still matching their category (ErrInvariantViolation).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Msg == "" || t.Msg == e.Msg
}

// Category sentinels.
var (
	ErrTenantUnresolved       = &Error{Code: CodeTenantUnresolved}
	ErrCapacityExceeded       = &Error{Code: CodeCapacityExceeded}
	ErrInvariantViolation     = &Error{Code: CodeInvariantViolation}
	ErrRemoteCallFailed       = &Error{Code: CodeRemoteCallFailed}
	ErrPartialDataUnavailable = &Error{Code: CodePartialDataUnavailable}
	ErrBusy                   = &Error{Code: CodeBusy}
	ErrInvalidState           = &Error{Code: CodeInvalidState}
	ErrNotFound               = &Error{Code: CodeNotFound}
)

// Invariant sentinels.
var (
	ErrMainDeviceConflict = &Error{Code: CodeInvariantViolation, Msg: "a main device already exists"}
	ErrAliasRequired      = &Error{Code: CodeInvariantViolation, Msg: "alias is required"}
	ErrUserRequired       = &Error{Code: CodeInvariantViolation, Msg: "a user must be selected"}
	ErrDuplicateName      = &Error{Code: CodeInvariantViolation, Msg: "instance name already in use"}
)

// New builds an error without a cause.
func New(code Code, op, msg string) *Error {
	return &Error{Code: code, Op: op, Msg: msg}
}

// Wrap builds an error around cause, attaching a stack to the cause.
func Wrap(code Code, op string, cause error, msg string) *Error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &Error{Code: code, Op: op, Msg: msg, Cause: cause}
}

// With returns a copy of a sentinel annotated with op.
func With(sentinel *Error, op string) *Error {
	e := *sentinel
	e.Op = op
	return &e
}

// CodeOf extracts the Code of err, CodeInternal for foreign errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the operator-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// HTTPStatus maps a code to the admin api status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeTenantUnresolved:
		return http.StatusPreconditionFailed
	case CodeCapacityExceeded, CodeBusy, CodeInvalidState:
		return http.StatusConflict
	case CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRemoteCallFailed:
		return http.StatusBadGateway
	case CodePartialDataUnavailable:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
