/*
errors.go - Centralized error taxonomy for the leave engine

PURPOSE:
  All failure kinds the engine surfaces, in one place. Every rejection a
  caller can receive is typed and carries the numeric bounds involved, so
  transports can render actionable messages without string matching.

ERROR CATEGORIES:
  1. Validation errors - submission rule violations (missing fields, notice,
     duration, balance, document)
  2. Lifecycle errors  - state machine violations (approving a non-pending
     request, cancelling a past-dated one)
  3. Store errors      - lookup misses and lost optimistic-lock races

USAGE:
  Callers classify with errors.Is / errors.As:

    var ib *leave.InsufficientBalanceError
    if errors.As(err, &ib) {
        fmt.Printf("only %s days left, asked for %s", ib.Remaining, ib.Requested)
    }

RETRIES:
  ErrConcurrentModification is the only retryable kind. The balance ledger
  retries it a bounded number of times internally before surfacing it.
*/
package leave

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingFields is returned when a required field is absent on
	// submission or rejection.
	ErrMissingFields = errors.New("missing required fields")

	// ErrInvalidDateRange is returned when a request ends before it starts.
	ErrInvalidDateRange = errors.New("end date before start date")

	// ErrInsufficientNotice is returned when a request starts sooner than the
	// policy's advance-notice window allows.
	ErrInsufficientNotice = errors.New("insufficient advance notice")

	// ErrDurationExceeded is returned when a request is longer than the
	// policy's consecutive-day cap.
	ErrDurationExceeded = errors.New("maximum consecutive days exceeded")

	// ErrInsufficientBalance is returned when a request would drive the
	// remaining balance negative.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrDocumentRequired is returned when the policy demands a supporting
	// document for this request and none was attached.
	ErrDocumentRequired = errors.New("supporting document required")

	// ErrInvalidStateTransition is returned when an operation targets a
	// request that is not in the required source state.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrNotFound is returned for unknown request codes, users, teams or
	// leave types.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification is returned when a balance mutation lost an
	// optimistic-lock race. Callers should retry the submission.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the bounds involved
// =============================================================================

// MissingFieldsError lists which required fields were absent.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingFields }

// InvalidDateRangeError reports a request ending before it starts.
type InvalidDateRangeError struct {
	StartDate Date
	EndDate   Date
}

func (e *InvalidDateRangeError) Error() string {
	return fmt.Sprintf("invalid date range: end %s before start %s", e.EndDate, e.StartDate)
}

func (e *InvalidDateRangeError) Unwrap() error { return ErrInvalidDateRange }

// InsufficientNoticeError reports an advance-notice violation.
// ActualDays may be zero (starting today) or negative (already started).
type InsufficientNoticeError struct {
	RequiredDays int
	ActualDays   int
}

func (e *InsufficientNoticeError) Error() string {
	return fmt.Sprintf("insufficient notice: requires %d days, got %d", e.RequiredDays, e.ActualDays)
}

func (e *InsufficientNoticeError) Unwrap() error { return ErrInsufficientNotice }

// DurationExceededError reports a consecutive-day cap violation.
type DurationExceededError struct {
	MaxDays   int
	Requested Days
}

func (e *DurationExceededError) Error() string {
	return fmt.Sprintf("duration exceeded: max %d consecutive days, requested %s", e.MaxDays, e.Requested)
}

func (e *DurationExceededError) Unwrap() error { return ErrDurationExceeded }

// InsufficientBalanceError reports a balance shortage.
type InsufficientBalanceError struct {
	UserID    UserID
	TypeCode  TypeCode
	Year      int
	Remaining Days
	Requested Days
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s/%s/%d: remaining %s, requested %s",
		e.UserID, e.TypeCode, e.Year, e.Remaining, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// DocumentRequiredError reports a missing supporting document.
type DocumentRequiredError struct {
	TypeCode      TypeCode
	ThresholdDays Days // zero when the type always requires a document
	Requested     Days
}

func (e *DocumentRequiredError) Error() string {
	if e.ThresholdDays.IsZero() {
		return fmt.Sprintf("leave type %s requires a supporting document", e.TypeCode)
	}
	return fmt.Sprintf("leave type %s requires a supporting document for requests over %s days (requested %s)",
		e.TypeCode, e.ThresholdDays, e.Requested)
}

func (e *DocumentRequiredError) Unwrap() error { return ErrDocumentRequired }

// InvalidStateTransitionError reports a state machine violation.
type InvalidStateTransitionError struct {
	Code   RequestCode
	Status RequestStatus
	Op     string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s request %s in status %q", e.Op, e.Code, e.Status)
}

func (e *InvalidStateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// NotFoundError reports an unknown entity.
type NotFoundError struct {
	Kind string // "request", "employee", "team", "leave_type", "balance"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid caller input
// rather than an engine fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInsufficientNotice) ||
		errors.Is(err, ErrDurationExceeded) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrDocumentRequired) ||
		errors.Is(err, ErrInvalidStateTransition)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ErrorKind maps an engine error to a stable machine-readable kind string.
// Transports use this for structured error payloads.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return "missing_fields"
	case errors.Is(err, ErrInvalidDateRange):
		return "invalid_date_range"
	case errors.Is(err, ErrInsufficientNotice):
		return "insufficient_notice"
	case errors.Is(err, ErrDurationExceeded):
		return "duration_exceeded"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrDocumentRequired):
		return "document_required"
	case errors.Is(err, ErrInvalidStateTransition):
		return "invalid_state_transition"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConcurrentModification):
		return "concurrent_modification"
	default:
		return "internal"
	}
}
