/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the external contract. Day amounts serialize as JSON numbers (leave.Days
  handles exact decimal rendering); dates serialize as "YYYY-MM-DD".

NAMING CONVENTION:
  - *DTO:      Response types returned to clients
  - *Request:  Request body types from clients
  - *Response: Complex response wrappers

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the uniform error payload. Kind is a stable
// machine-readable discriminator (see leave.ErrorKind).
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// =============================================================================
// CATALOG & HOLIDAYS
// =============================================================================

type LeaveTypeDTO struct {
	Code                 string     `json:"code"`
	Name                 string     `json:"name"`
	Color                string     `json:"color,omitempty"`
	MinAdvanceNoticeDays int        `json:"min_advance_notice_days"`
	MaxConsecutiveDays   int        `json:"max_consecutive_days"`
	RequiresDocument     bool       `json:"requires_document"`
	DocumentAfterDays    leave.Days `json:"document_after_days"`
	AnnualAllocationDays leave.Days `json:"annual_allocation_days"`
}

func toLeaveTypeDTO(lt leave.LeaveType) LeaveTypeDTO {
	return LeaveTypeDTO{
		Code:                 string(lt.Code),
		Name:                 lt.Name,
		Color:                lt.Color,
		MinAdvanceNoticeDays: lt.MinAdvanceNoticeDays,
		MaxConsecutiveDays:   lt.MaxConsecutiveDays,
		RequiresDocument:     lt.RequiresDocument,
		DocumentAfterDays:    lt.DocumentAfterDays,
		AnnualAllocationDays: lt.AnnualAllocationDays,
	}
}

type HolidayDTO struct {
	ID         string     `json:"id"`
	Date       leave.Date `json:"date"`
	Name       string     `json:"name"`
	IsOptional bool       `json:"is_optional"`
}

type CreateHolidayRequest struct {
	Date       leave.Date `json:"date"`
	Name       string     `json:"name"`
	IsOptional bool       `json:"is_optional"`
}

func toHolidayDTO(h leave.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date, Name: h.Name, IsOptional: h.IsOptional}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	TeamID    string `json:"team_id,omitempty"`
	ManagerID string `json:"manager_id,omitempty"`
	HireDate  string `json:"hire_date,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateEmployeeRequest struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	TeamID    string     `json:"team_id"`
	ManagerID string     `json:"manager_id"`
	HireDate  leave.Date `json:"hire_date"`
}

func toEmployeeDTO(e leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:        string(e.ID),
		Name:      e.Name,
		Email:     e.Email,
		TeamID:    string(e.TeamID),
		ManagerID: string(e.ManagerID),
		HireDate:  e.HireDate.String(),
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// BALANCES
// =============================================================================

type BalanceDTO struct {
	UserID        string     `json:"user_id"`
	LeaveTypeCode string     `json:"leave_type_code"`
	Year          int        `json:"year"`
	TotalDays     leave.Days `json:"total_days"`
	UsedDays      leave.Days `json:"used_days"`
	PendingDays   leave.Days `json:"pending_days"`
	RemainingDays leave.Days `json:"remaining_days"`
}

type BalanceSummaryDTO struct {
	TotalAllocated leave.Days `json:"total_allocated"`
	TotalUsed      leave.Days `json:"total_used"`
	TotalPending   leave.Days `json:"total_pending"`
	TotalRemaining leave.Days `json:"total_remaining"`
}

type BalancesResponse struct {
	Balances []BalanceDTO      `json:"balances"`
	Summary  BalanceSummaryDTO `json:"summary"`
}

func toBalanceDTO(b leave.Balance) BalanceDTO {
	return BalanceDTO{
		UserID:        string(b.UserID),
		LeaveTypeCode: string(b.TypeCode),
		Year:          b.Year,
		TotalDays:     b.TotalDays,
		UsedDays:      b.UsedDays,
		PendingDays:   b.PendingDays,
		RemainingDays: b.RemainingDays(),
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

type RequestDTO struct {
	Code             string     `json:"request_code"`
	UserID           string     `json:"user_id"`
	LeaveTypeCode    string     `json:"leave_type_code"`
	StartDate        leave.Date `json:"start_date"`
	EndDate          leave.Date `json:"end_date"`
	IsHalfDay        bool       `json:"is_half_day"`
	HalfDayType      *string    `json:"half_day_type,omitempty"`
	TotalDays        leave.Days `json:"total_days"`
	Status           string     `json:"status"`
	Reason           string     `json:"reason"`
	DocumentURL      string     `json:"supporting_document_url,omitempty"`
	ReviewerID       string     `json:"reviewer_id,omitempty"`
	ReviewerComments string     `json:"reviewer_comments,omitempty"`
	CreatedAt        string     `json:"created_at"`
	DecidedAt        *string    `json:"decided_at,omitempty"`
}

func toRequestDTO(r leave.LeaveRequest) RequestDTO {
	dto := RequestDTO{
		Code:             string(r.Code),
		UserID:           string(r.UserID),
		LeaveTypeCode:    string(r.TypeCode),
		StartDate:        r.StartDate,
		EndDate:          r.EndDate,
		IsHalfDay:        r.IsHalfDay,
		TotalDays:        r.TotalDays,
		Status:           string(r.Status),
		Reason:           r.Reason,
		DocumentURL:      r.DocumentURL,
		ReviewerID:       string(r.ReviewerID),
		ReviewerComments: r.ReviewerComments,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
	if r.HalfDaySlot != nil {
		slot := string(*r.HalfDaySlot)
		dto.HalfDayType = &slot
	}
	if r.DecidedAt != nil {
		decided := r.DecidedAt.Format(time.RFC3339)
		dto.DecidedAt = &decided
	}
	return dto
}

func toRequestDTOs(reqs []leave.LeaveRequest) []RequestDTO {
	out := make([]RequestDTO, len(reqs))
	for i, r := range reqs {
		out[i] = toRequestDTO(r)
	}
	return out
}

// SubmitRequestRequest is the draft submission body.
type SubmitRequestRequest struct {
	LeaveTypeCode string     `json:"leave_type_code"`
	StartDate     leave.Date `json:"start_date"`
	EndDate       leave.Date `json:"end_date"`
	IsHalfDay     bool       `json:"is_half_day"`
	HalfDayType   string     `json:"half_day_type,omitempty"`
	Reason        string     `json:"reason"`
	DocumentURL   string     `json:"supporting_document_url,omitempty"`
}

func (r SubmitRequestRequest) toDraft() leave.Draft {
	draft := leave.Draft{
		TypeCode:    leave.TypeCode(r.LeaveTypeCode),
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		IsHalfDay:   r.IsHalfDay,
		Reason:      r.Reason,
		DocumentURL: r.DocumentURL,
	}
	if r.HalfDayType != "" {
		slot := leave.HalfDaySlot(r.HalfDayType)
		draft.HalfDaySlot = &slot
	}
	return draft
}

// DecisionRequest is the approve body.
type DecisionRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Comments   string `json:"comments,omitempty"`
}

// RejectRequest is the reject body; Reason is mandatory.
type RejectRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Reason     string `json:"reason"`
}

// =============================================================================
// BULK OPERATIONS
// =============================================================================

type BulkApproveRequest struct {
	RequestCodes []string `json:"request_codes"`
	ReviewerID   string   `json:"reviewer_id"`
	Comments     string   `json:"comments,omitempty"`
}

type BulkFailureDTO struct {
	Code  string `json:"request_code"`
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type BulkApproveResponse struct {
	Approved       []string         `json:"approved"`
	Failed         []BulkFailureDTO `json:"failed"`
	TotalRequested int              `json:"total_requested"`
	TotalApproved  int              `json:"total_approved"`
	TotalFailed    int              `json:"total_failed"`
}

func toBulkResponse(out leave.BulkOutcome) BulkApproveResponse {
	resp := BulkApproveResponse{
		Approved:       make([]string, 0, len(out.Approved)),
		Failed:         make([]BulkFailureDTO, 0, len(out.Failed)),
		TotalRequested: out.TotalRequested,
		TotalApproved:  out.TotalApproved,
		TotalFailed:    out.TotalFailed,
	}
	for _, code := range out.Approved {
		resp.Approved = append(resp.Approved, string(code))
	}
	for _, f := range out.Failed {
		resp.Failed = append(resp.Failed, BulkFailureDTO{
			Code:  string(f.Code),
			Error: f.Err.Error(),
			Kind:  leave.ErrorKind(f.Err),
		})
	}
	return resp
}

// =============================================================================
// CALENDAR
// =============================================================================

type CalendarEntryDTO struct {
	Date     leave.Date   `json:"date"`
	Holidays []HolidayDTO `json:"holidays,omitempty"`
	Requests []RequestDTO `json:"requests,omitempty"`
}

func toCalendarDTOs(entries []leave.CalendarEntry) []CalendarEntryDTO {
	out := make([]CalendarEntryDTO, len(entries))
	for i, e := range entries {
		dto := CalendarEntryDTO{Date: e.Date}
		for _, h := range e.Holidays {
			dto.Holidays = append(dto.Holidays, toHolidayDTO(h))
		}
		if len(e.Requests) > 0 {
			dto.Requests = toRequestDTOs(e.Requests)
		}
		out[i] = dto
	}
	return out
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}
