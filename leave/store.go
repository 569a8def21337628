/*
store.go - Persistence interfaces for the leave engine

PURPOSE:
  Defines the contract between the engine and its persistence layer.
  Implementations exist for SQLite (store/sqlite) and in-memory
  (leave/store), both honoring the same concurrency semantics.

CONCURRENCY CONTRACT:
  UpdateBalance is a compare-and-swap on the balance row's version: it must
  fail with ErrConcurrentModification when the stored version differs from
  expectedVersion. TransitionRequest is a conditional write on status: it
  must fail with ErrInvalidStateTransition when the stored status differs
  from `from`. These two primitives are what make concurrent submissions and
  concurrent approve/reject races resolve deterministically.

SEE ALSO:
  - balance.go:        Ledger built on the CAS primitive
  - lifecycle.go:      State machine built on the conditional transition
  - leave/store:       In-memory implementation
  - store/sqlite:      SQLite implementation
*/
package leave

import (
	"context"
	"time"
)

// =============================================================================
// BALANCE STORE
// =============================================================================

// BalanceKey identifies the single row all balance mutations for one
// (user, leave type, year) serialize on.
type BalanceKey struct {
	UserID   UserID
	TypeCode TypeCode
	Year     int
}

// Balance is the accounting row for one key. RemainingDays is derived, never
// stored. Version backs optimistic locking.
type Balance struct {
	UserID      UserID
	TypeCode    TypeCode
	Year        int
	TotalDays   Days
	UsedDays    Days
	PendingDays Days
	Version     int64
}

func (b Balance) Key() BalanceKey {
	return BalanceKey{UserID: b.UserID, TypeCode: b.TypeCode, Year: b.Year}
}

// RemainingDays is total - used - pending. The ledger guarantees this never
// goes negative through any committed mutation.
func (b Balance) RemainingDays() Days {
	return b.TotalDays.Sub(b.UsedDays).Sub(b.PendingDays)
}

// BalanceStore persists balance rows with optimistic locking.
type BalanceStore interface {
	// GetBalance returns the row for key, or (nil, nil) when absent.
	GetBalance(ctx context.Context, key BalanceKey) (*Balance, error)

	// CreateBalance inserts a new row at version 1. Returns
	// ErrConcurrentModification if the row already exists (a concurrent
	// provisioner won the insert).
	CreateBalance(ctx context.Context, b Balance) error

	// UpdateBalance writes b if the stored version equals expectedVersion,
	// bumping the version. Returns ErrConcurrentModification on mismatch.
	UpdateBalance(ctx context.Context, b Balance, expectedVersion int64) error

	// ListBalances returns all rows for a user in a year, ordered by type code.
	ListBalances(ctx context.Context, userID UserID, year int) ([]Balance, error)
}

// =============================================================================
// REQUEST STORE
// =============================================================================

// Decision carries the reviewer fields written by a terminal transition.
type Decision struct {
	ReviewerID UserID
	Comments   string
	DecidedAt  time.Time
}

// RequestStore persists leave requests. Status may only change through
// TransitionRequest; everything else about a request is immutable once saved.
type RequestStore interface {
	// SaveRequest inserts a new request.
	SaveRequest(ctx context.Context, r LeaveRequest) error

	// GetRequest returns the request, or (nil, nil) when absent.
	GetRequest(ctx context.Context, code RequestCode) (*LeaveRequest, error)

	// TransitionRequest atomically moves a request from `from` to `to` and
	// records the decision. Returns ErrInvalidStateTransition when the stored
	// status is not `from`, ErrNotFound when the request does not exist.
	TransitionRequest(ctx context.Context, code RequestCode, from, to RequestStatus, d Decision) error

	// ListRequestsByUser returns a user's requests, newest first then by
	// code. A nil status returns all.
	ListRequestsByUser(ctx context.Context, userID UserID, status *RequestStatus) ([]LeaveRequest, error)

	// ListRequestsOverlapping returns all requests for the given users whose
	// [start, end] interval intersects [from, to], any status.
	ListRequestsOverlapping(ctx context.Context, userIDs []UserID, from, to Date) ([]LeaveRequest, error)
}

// =============================================================================
// EMPLOYEE / HOLIDAY / CATALOG STORES
// =============================================================================

type EmployeeStore interface {
	SaveEmployee(ctx context.Context, e Employee) error

	// GetEmployee returns the employee, or (nil, nil) when absent.
	GetEmployee(ctx context.Context, id UserID) (*Employee, error)

	ListEmployees(ctx context.Context) ([]Employee, error)

	// ListTeamMembers returns the employees on a team, ordered by ID.
	ListTeamMembers(ctx context.Context, teamID TeamID) ([]Employee, error)
}

type HolidayStore interface {
	SaveHoliday(ctx context.Context, h Holiday) error

	// ListHolidays returns holidays in a year, ordered by date.
	ListHolidays(ctx context.Context, year int) ([]Holiday, error)
}

// LeaveTypeRecord is a persisted leave-type policy. ConfigJSON is the
// factory-parsable definition (see factory package), stored verbatim so
// administrative edits survive restarts.
type LeaveTypeRecord struct {
	Code       string
	Name       string
	ConfigJSON string
	CreatedAt  time.Time
}

type CatalogStore interface {
	SaveLeaveType(ctx context.Context, rec LeaveTypeRecord) error
	ListLeaveTypes(ctx context.Context) ([]LeaveTypeRecord, error)
}

// =============================================================================
// COMBINED STORE
// =============================================================================

// Store is everything the engine needs from persistence.
type Store interface {
	BalanceStore
	RequestStore
	EmployeeStore
	HolidayStore
	CatalogStore

	// Reset clears all data. Development and scenario loading only.
	Reset(ctx context.Context) error
}
