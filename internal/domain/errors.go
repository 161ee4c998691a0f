package domain

import (
	"errors"
	"fmt"
)

// Local failures. These never reach the network: the caller gets an
// immediate answer and no remote call is made.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrSequenceViolation   = errors.New("obligation is not the next payable in its plan")
	ErrDuplicateSubmission = errors.New("a payment submission is already in flight for this session")
	ErrSessionNotFound     = errors.New("workflow session not found")
	ErrSessionClosed       = errors.New("workflow session is closed")
	ErrSessionSuspended    = errors.New("workflow session is suspended pending funding")
	ErrStaleState          = errors.New("local state is stale and must be refreshed before retrying")
)

// ValidationError is a local input failure resolved at the API boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// RemoteError is a failure declared by, or on the way to, a remote
// collaborator. Unavailable errors (network, timeout, 5xx) mean unknown
// outcome: state must be re-fetched before retrying. Rejected errors carry
// the server's business-rule reason and are surfaced verbatim.
type RemoteError struct {
	Code        string
	Message     string
	Unavailable bool
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "remote call failed: " + e.Code
	}
	return e.Message
}

// UserMessage returns the server's reason verbatim, or the generic fallback
// when the server gave none.
func (e *RemoteError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "Payment failed, please try again"
}

func NewRemoteRejected(code, message string) *RemoteError {
	return &RemoteError{Code: code, Message: message}
}

func NewRemoteUnavailable(message string) *RemoteError {
	return &RemoteError{Code: "unavailable", Message: message, Unavailable: true}
}

// IsUnknownOutcome reports whether err means the remote operation may or may
// not have happened.
func IsUnknownOutcome(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Unavailable
}
