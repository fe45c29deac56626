package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a DomainError for reporting and metrics.
type Kind string

const (
	// KindProtocol covers malformed or oversized frames.
	KindProtocol Kind = "protocol"
	// KindCommand covers unknown commands, wrong arity and wrong argument kinds.
	KindCommand Kind = "command"
	// KindType covers operations against a value of the wrong shape.
	KindType Kind = "type"
	// KindIO covers disk and socket failures.
	KindIO Kind = "io"
	// KindLimit covers server-side admission limits.
	KindLimit Kind = "limit"
)

// Reply prefixes as seen by clients.
const (
	PrefixErr       = "ERR"
	PrefixWrongType = "WRONGTYPE"
)

// DomainError represents a keyspace or protocol error with a structured
// error code. Codes follow the KV-<AREA>-<NNNN> format and are unique.
type DomainError struct {
	Kind    Kind   // Error class
	Code    string // Error code (e.g., "KV-CMD-4001")
	Prefix  string // Reply prefix sent on the wire ("ERR", "WRONGTYPE")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Reply renders the error text carried by an Error frame.
func (e *DomainError) Reply() string {
	prefix := e.Prefix
	if prefix == "" {
		prefix = PrefixErr
	}
	if e.Details != "" {
		return prefix + " " + e.Message + " " + e.Details
	}
	return prefix + " " + e.Message
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the ERR reply prefix.
func NewDomainError(kind Kind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Prefix:  PrefixErr,
		Message: message,
	}
}

// WithPrefix returns a copy of the error replying with prefix.
func (e *DomainError) WithPrefix(prefix string) *DomainError {
	c := *e
	c.Prefix = prefix
	return &c
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ReplyText returns the wire error text for err. Errors that are not a
// DomainError are reported as a generic ERR.
func ReplyText(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Reply()
	}
	return PrefixErr + " " + err.Error()
}

// ============================================================================
// Protocol Errors (PROTO)
// ============================================================================

var (
	// ErrProtocol indicates the peer sent bytes that do not form a valid frame.
	ErrProtocol = NewDomainError(KindProtocol, "KV-PROTO-4000", "Protocol error:")

	// ErrNotArray indicates a request frame that is not an array.
	ErrNotArray = NewDomainError(KindProtocol, "KV-PROTO-4001", "Protocol error: expected array of bulk strings")

	// ErrFrameTooLarge indicates a frame exceeding the protocol limits.
	ErrFrameTooLarge = NewDomainError(KindProtocol, "KV-PROTO-4130", "Protocol error: frame exceeds limits")
)

// ============================================================================
// Command Errors (CMD)
// ============================================================================

var (
	// ErrMissingCommand indicates an empty request array.
	ErrMissingCommand = NewDomainError(KindCommand, "KV-CMD-4000", "missing command name")

	// ErrWrongArity indicates a missing or extra argument.
	ErrWrongArity = NewDomainError(KindCommand, "KV-CMD-4001", "wrong number of arguments")

	// ErrUnknownCommand indicates an unrecognized command name.
	ErrUnknownCommand = NewDomainError(KindCommand, "KV-CMD-4002", "unknown command")

	// ErrSyntax indicates an unrecognized or conflicting option.
	ErrSyntax = NewDomainError(KindCommand, "KV-CMD-4003", "syntax error")

	// ErrArgKind indicates an argument frame that is not string-like.
	ErrArgKind = NewDomainError(KindCommand, "KV-CMD-4004", "argument must be a string")

	// ErrNotInteger indicates an argument or value that is not a base-10 integer.
	ErrNotInteger = NewDomainError(KindCommand, "KV-CMD-4005", "value is not an integer or out of range")

	// ErrInvalidExpire indicates a non-positive or overflowing relative expiry.
	// Details name the command, e.g. "'set' command".
	ErrInvalidExpire = NewDomainError(KindCommand, "KV-CMD-4006", "invalid expire time in")

	// ErrExpireInPast indicates an absolute expiry not strictly later than now.
	ErrExpireInPast = NewDomainError(KindCommand, "KV-CMD-4007", "expiration must be in the future")
)

// ============================================================================
// Value Type Errors (TYPE)
// ============================================================================

var (
	// ErrWrongType indicates an operation against a value of the wrong shape.
	ErrWrongType = &DomainError{
		Kind:    KindType,
		Code:    "KV-TYPE-4000",
		Prefix:  PrefixWrongType,
		Message: "Operation against a key holding the wrong kind of value",
	}

	// ErrValueNotInteger indicates INCR/DECR on a value that is not an integer.
	ErrValueNotInteger = NewDomainError(KindType, "KV-TYPE-4001", "value is not an integer or out of range")

	// ErrOverflow indicates INCR/DECR would leave the int64 range.
	ErrOverflow = NewDomainError(KindType, "KV-TYPE-4002", "increment or decrement would overflow")
)

// ============================================================================
// I/O Errors (IO)
// ============================================================================

var (
	// ErrSnapshot indicates a snapshot could not be written or read.
	ErrSnapshot = NewDomainError(KindIO, "KV-IO-5000", "snapshot failed")

	// ErrSnapshotCorrupt indicates a snapshot file failed validation.
	ErrSnapshotCorrupt = NewDomainError(KindIO, "KV-IO-5001", "snapshot corrupt")
)

// ============================================================================
// Limit Errors (LIMIT)
// ============================================================================

var (
	// ErrMaxClients is sent to a connection refused by the max-clients limit.
	ErrMaxClients = NewDomainError(KindLimit, "KV-LIMIT-4290", "max number of clients reached")

	// ErrRateLimited is sent when a client IP exceeds its command rate.
	ErrRateLimited = NewDomainError(KindLimit, "KV-LIMIT-4291", "rate limit exceeded")
)
