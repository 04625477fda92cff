package common

import (
	"errors"
	"fmt"
	"net/http"
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

// HTTP Error constructors

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

func HTTPErrorUnauthorized(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    messageOrDefault(msg, "Unauthorized"),
	}
}

// ErrorKind classifies orchestration failures so callers can tell retryable
// ones from terminal ones. The on-chain pipeline never maps one kind to
// another: an error keeps the kind of the step that produced it.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindConfig: required secret/URL/program ID missing or malformed.
	// Fatal at startup, never produced per-request.
	KindConfig
	// KindWalletMismatch: a loaded secret derives a public key other than
	// the one recorded for that wallet role.
	KindWalletMismatch
	// KindSimulationRejected: on-chain simulation reported failure. The
	// transaction was never submitted.
	KindSimulationRejected
	// KindConfirmationTimeout: the network did not confirm within the
	// deadline. Retryable by the caller.
	KindConfirmationTimeout
	// KindInsufficientBalance: a pre-flight balance check failed. The
	// request was rejected before any transaction was built.
	KindInsufficientBalance
	// KindPostStateInconsistent: the transaction confirmed but the expected
	// balance movement did not materialize. Needs manual investigation,
	// not a blind retry.
	KindPostStateInconsistent
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "CONFIG"
	case KindWalletMismatch:
		return "WALLET_MISMATCH"
	case KindSimulationRejected:
		return "SIMULATION_REJECTED"
	case KindConfirmationTimeout:
		return "CONFIRMATION_TIMEOUT"
	case KindInsufficientBalance:
		return "INSUFFICIENT_BALANCE"
	case KindPostStateInconsistent:
		return "POST_STATE_INCONSISTENT"
	default:
		return "UNKNOWN"
	}
}

// Error is a tagged domain error. Logs carries raw simulation output when
// the kind is KindSimulationRejected.
type Error struct {
	Kind    ErrorKind
	Message string
	Logs    []string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the kind from err, or KindUnknown for plain errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// Retryable reports whether the caller may safely resubmit the same request.
func Retryable(err error) bool {
	return KindOf(err) == KindConfirmationTimeout
}
