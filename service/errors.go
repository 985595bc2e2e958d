package service

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies an error for callers deciding whether to retry or fix input
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindPrecondition ErrorKind = "precondition"
	KindConflict     ErrorKind = "conflict"
	KindNotFound     ErrorKind = "not_found"
	KindDependency   ErrorKind = "dependency"
)

// Error is a business error with a machine-readable code
type Error struct {
	Kind       ErrorKind         `json:"kind"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	RetryAfter time.Duration     `json:"-"`
	Cause      error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Copy returns a deep copy
func (e *Error) Copy() *Error {
	newErr := *e
	if e.Details != nil {
		newErr.Details = make(map[string]string, len(e.Details))
		for k, v := range e.Details {
			newErr.Details[k] = v
		}
	}
	return &newErr
}

// WithDetail returns a copy with an extra detail
func (e *Error) WithDetail(key, value string) *Error {
	newErr := e.Copy()
	if newErr.Details == nil {
		newErr.Details = make(map[string]string)
	}
	newErr.Details[key] = value
	return newErr
}

// WithMessagef returns a copy with a formatted message
func (e *Error) WithMessagef(format string, args ...any) *Error {
	newErr := e.Copy()
	newErr.Message = fmt.Sprintf(format, args...)
	return newErr
}

// WithRetryAfter returns a copy carrying a retry hint
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	newErr := e.Copy()
	newErr.RetryAfter = d
	return newErr
}

// WithCause returns a copy wrapping cause
func (e *Error) WithCause(cause error) *Error {
	newErr := e.Copy()
	newErr.Cause = cause
	return newErr
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation errors
var (
	ErrInvalidAmount            = newError(KindValidation, "InvalidAmount", "amount must be positive")
	ErrInvalidTier              = newError(KindValidation, "InvalidTier", "tier must be 1, 2 or 3")
	ErrInvalidTeam              = newError(KindValidation, "InvalidTeam", "team choice must be home or away")
	ErrInvalidParticipationType = newError(KindValidation, "InvalidParticipationType", "participation type must be watch_only or watch_and_party")
	ErrInvalidFee               = newError(KindValidation, "InvalidFee", "fee percentages must not be negative")
	ErrInvalidTierMultiplier    = newError(KindValidation, "InvalidTierMultiplier", "tier multipliers must be in (0, 1]")
	ErrInvalidEventWindow       = newError(KindValidation, "InvalidEventWindow", "event end time must be after start time")
	ErrInvalidRequest           = newError(KindValidation, "InvalidRequest", "invalid request")
)

// Precondition errors
var (
	ErrInsufficientBalance     = newError(KindPrecondition, "InsufficientBalance", "insufficient balance")
	ErrEventNotAcceptingStakes = newError(KindPrecondition, "EventNotAcceptingStakes", "event is not accepting stakes")
	ErrEventAlreadyStarted     = newError(KindPrecondition, "EventAlreadyStarted", "event has already started")
	ErrTokenInactive           = newError(KindPrecondition, "TokenInactive", "access token has been deactivated")
	ErrTokenExpired            = newError(KindPrecondition, "TokenExpired", "access token has expired")
	ErrTokenNotYetValid        = newError(KindPrecondition, "TokenNotYetValid", "access token is not valid yet")
	ErrEventNotApproved        = newError(KindPrecondition, "EventNotApproved", "event is not open for participation")
	ErrRateLimited             = newError(KindPrecondition, "RateLimited", "too many scans of this token")
	ErrNotApproved             = newError(KindPrecondition, "NotApproved", "application is not approved")
	ErrFeeCeilingExceeded      = newError(KindPrecondition, "FeeCeilingExceeded", "combined fee percentage exceeds the ceiling")
	ErrEventNotEnded           = newError(KindPrecondition, "EventNotEnded", "event has not ended")
	ErrNoActiveStakes          = newError(KindPrecondition, "NoActiveStakes", "event has no stakes to settle")
	ErrNoPoolFound             = newError(KindPrecondition, "NoPoolFound", "event has no completed pool injection")
	ErrZeroTotalStake          = newError(KindPrecondition, "ZeroTotalStake", "total staked amount is zero")
	ErrInvalidStatusTransition = newError(KindPrecondition, "InvalidStatusTransition", "event status does not allow this operation")
	ErrStakeNotCancellable     = newError(KindPrecondition, "StakeNotCancellable", "stake can no longer be cancelled")
)

// Conflict errors
var (
	ErrDuplicateStake       = newError(KindConflict, "DuplicateStake", "user already has an active stake for this event")
	ErrAlreadyInjected      = newError(KindConflict, "AlreadyInjected", "event already has a pool injection")
	ErrAlreadyParticipated  = newError(KindConflict, "AlreadyParticipated", "user already participated in this event")
	ErrSettlementInProgress = newError(KindConflict, "SettlementInProgress", "settlement is already running for this event")
)

// Not found errors
var (
	ErrEventNotFound   = newError(KindNotFound, "EventNotFound", "event not found")
	ErrAccountNotFound = newError(KindNotFound, "AccountNotFound", "account not found")
	ErrStakeNotFound   = newError(KindNotFound, "StakeNotFound", "stake not found")
	ErrInvalidToken    = newError(KindNotFound, "InvalidToken", "access token not recognised")
)

// Dependency errors
var (
	ErrDependency = newError(KindDependency, "DependencyUnavailable", "a required dependency is unavailable")
)

// AsError extracts a business error, wrapping anything else as a dependency failure
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var bizErr *Error
	if errors.As(err, &bizErr) {
		return bizErr
	}
	return ErrDependency.WithCause(err)
}
