/*
Package leave implements the leave request lifecycle and balance accounting engine.

PURPOSE:
  This package contains the core domain model and business rules for leave
  management: leave-type policies, per-employee balance accounting, the
  request validation pipeline, the request state machine, bulk approvals,
  and the team calendar read-model.

KEY CONCEPTS IN THIS FILE (types.go):
  - Days: A day quantity backed by decimal.Decimal (half days must be exact)
  - LeaveType: An immutable policy (notice window, duration cap, document rule)
  - LeaveRequest: A request moving through pending -> terminal states
  - Draft: The validated input to request submission
  - Balance: Per (user, type, year) accounting row

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all day amounts - 0.5 must never drift
  2. Type Safety: Strong typing for IDs prevents mixing user/team/type codes
  3. Explicit Time: "today" is always an explicit parameter, never ambient
  4. Closed Model: Drafts are validated structs, not loose field bags

SEE ALSO:
  - catalog.go:   LeaveType registry
  - balance.go:   Balance ledger with atomic reserve/commit/release
  - validate.go:  The submission rule pipeline
  - lifecycle.go: The request state machine
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DAYS - Day quantity with exact decimal arithmetic
// =============================================================================

// Days is a count of leave days. Half-day requests consume exactly 0.5,
// so float64 is not acceptable here.
type Days struct {
	value decimal.Decimal
}

func DaysFromInt(n int) Days       { return Days{value: decimal.NewFromInt(int64(n))} }
func DaysFromFloat(f float64) Days { return Days{value: decimal.NewFromFloat(f)} }

// HalfDay is the amount consumed by a half-day request.
func HalfDay() Days { return Days{value: decimal.NewFromFloat(0.5)} }

func ZeroDays() Days { return Days{value: decimal.Zero} }

func (d Days) Add(o Days) Days          { return Days{value: d.value.Add(o.value)} }
func (d Days) Sub(o Days) Days          { return Days{value: d.value.Sub(o.value)} }
func (d Days) IsNegative() bool         { return d.value.IsNegative() }
func (d Days) IsZero() bool             { return d.value.IsZero() }
func (d Days) IsPositive() bool         { return d.value.IsPositive() }
func (d Days) GreaterThan(o Days) bool  { return d.value.GreaterThan(o.value) }
func (d Days) LessThan(o Days) bool     { return d.value.LessThan(o.value) }
func (d Days) Equal(o Days) bool        { return d.value.Equal(o.value) }
func (d Days) Float64() float64         { f, _ := d.value.Float64(); return f }
func (d Days) String() string           { return d.value.String() }
func (d Days) Decimal() decimal.Decimal { return d.value }

// ParseDays parses a decimal string like "2.5". Used by stores.
func ParseDays(s string) (Days, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Days{}, err
	}
	return Days{value: v}, nil
}

// MarshalJSON renders Days as a bare JSON number, not decimal's quoted string.
func (d Days) MarshalJSON() ([]byte, error) {
	return []byte(d.value.String()), nil
}

func (d *Days) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	d.value = v
	return nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type TeamID string
type TypeCode string
type RequestCode string

// =============================================================================
// LEAVE TYPE - Immutable policy definition
// =============================================================================

// LeaveType is a leave policy. Instances are immutable at runtime; changes
// are administrative and go through the catalog factory.
type LeaveType struct {
	Code  TypeCode
	Name  string
	Color string

	// Requests must be submitted at least this many days before they start.
	MinAdvanceNoticeDays int

	// Longest allowed request in days. Zero means unlimited.
	MaxConsecutiveDays int

	// Whether a supporting document URL is required on submission.
	RequiresDocument bool

	// When RequiresDocument is set, a document is only required for requests
	// longer than this many days. Zero means always required.
	DocumentAfterDays Days

	// Days granted per (user, year) balance row.
	AnnualAllocationDays Days
}

// DocumentRequiredFor reports whether a request of the given length needs a
// supporting document under this policy.
func (lt LeaveType) DocumentRequiredFor(total Days) bool {
	if !lt.RequiresDocument {
		return false
	}
	if lt.DocumentAfterDays.IsZero() {
		return true
	}
	return total.GreaterThan(lt.DocumentAfterDays)
}

// =============================================================================
// HOLIDAY - Display-only calendar annotation
// =============================================================================

// Holiday marks a company holiday. Holidays do NOT reduce request durations;
// total days are computed from the raw calendar span.
type Holiday struct {
	ID         string
	Date       Date
	Name       string
	IsOptional bool
}

// =============================================================================
// EMPLOYEE - Minimal identity for team-scoped queries
// =============================================================================

// Employee carries just enough identity for balance ownership and team
// queries. Authentication and org management live outside this engine.
type Employee struct {
	ID        UserID
	Name      string
	Email     string
	TeamID    TeamID
	ManagerID UserID
	HireDate  Date
	CreatedAt time.Time
}

// =============================================================================
// LEAVE REQUEST - The state machine subject
// =============================================================================

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// ValidStatus reports whether s is a known status value.
func ValidStatus(s RequestStatus) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// HalfDaySlot tags which half of the day a half-day request covers.
type HalfDaySlot string

const (
	FirstHalf  HalfDaySlot = "first_half"
	SecondHalf HalfDaySlot = "second_half"
)

// LeaveRequest is immutable after creation except for Status, ReviewerID,
// ReviewerComments and DecidedAt, which the lifecycle owns exclusively.
type LeaveRequest struct {
	Code     RequestCode
	UserID   UserID
	TypeCode TypeCode

	// Inclusive calendar dates. EndDate >= StartDate.
	StartDate Date
	EndDate   Date

	IsHalfDay   bool
	HalfDaySlot *HalfDaySlot

	// 0.5 for half-day requests, otherwise the inclusive calendar span.
	TotalDays Days

	Status RequestStatus
	Reason string

	// Presence-only reference; the engine never fetches the document.
	DocumentURL string

	ReviewerID       UserID
	ReviewerComments string

	CreatedAt time.Time
	DecidedAt *time.Time
}

// BalanceKey returns the balance row this request draws against.
func (r *LeaveRequest) BalanceKey() BalanceKey {
	return BalanceKey{UserID: r.UserID, TypeCode: r.TypeCode, Year: r.StartDate.Year()}
}

// Occupies reports whether the request covers the given calendar date.
// Half-day requests still occupy their date for display purposes.
func (r *LeaveRequest) Occupies(d Date) bool {
	return !d.Before(r.StartDate) && !d.After(r.EndDate)
}

// =============================================================================
// DRAFT - Validated submission input
// =============================================================================

// Draft is the closed input to Submit. It is a plain value; all rule
// enforcement happens in the validation pipeline.
type Draft struct {
	TypeCode    TypeCode
	StartDate   Date
	EndDate     Date
	IsHalfDay   bool
	HalfDaySlot *HalfDaySlot
	Reason      string
	DocumentURL string
}

// TotalDays computes the days this draft would consume: exactly 0.5 for a
// half-day request regardless of the date span, otherwise the inclusive
// calendar-day count. Holidays inside the span are NOT subtracted.
func (d Draft) TotalDays() Days {
	if d.IsHalfDay {
		return HalfDay()
	}
	if d.StartDate.IsZero() || d.EndDate.IsZero() || d.EndDate.Before(d.StartDate) {
		return ZeroDays()
	}
	return DaysFromInt(DaysBetween(d.StartDate, d.EndDate) + 1)
}
