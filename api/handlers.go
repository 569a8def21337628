/*
handlers.go - HTTP handlers for the leave engine

PURPOSE:
  Exposes the engine via REST. Handlers parse HTTP, delegate to
  leave.Service, and serialize results. No business rules live here.

ENDPOINTS:
  Catalog & holidays:
    GET  /api/leave-types                   List leave-type policies
    GET  /api/holidays?year=                List holidays
    POST /api/holidays                      Add a holiday

  Employees:
    GET  /api/employees                     List employees
    POST /api/employees                     Create employee
    GET  /api/employees/{id}                Get employee
    GET  /api/employees/{id}/balances?year= Balances + summary
    GET  /api/employees/{id}/requests       List own requests (?status=)
    POST /api/employees/{id}/requests       Submit a leave request

  Requests:
    GET  /api/requests/{code}               Get one request
    POST /api/requests/{code}/approve       Approve
    POST /api/requests/{code}/reject        Reject (reason required)
    POST /api/requests/{code}/cancel        Cancel (future-dated pending only)
    POST /api/requests/bulk-approve         Approve many, partial success

  Teams:
    GET  /api/teams/{id}/requests           Manager view (?status=)
    GET  /api/teams/{id}/calendar?year=&month=  Month grid

  Admin:
    POST /api/admin/allocations?year=       Provision annual balance rows

ERROR MAPPING:
  400 missing fields / malformed input      409 state conflicts, lost races
  404 unknown entities                      422 business-rule rejections
  500 everything else

AUTHORIZATION NOTE:
  reviewer_id is taken from the request body verbatim. Authenticating it
  and checking manager-of-team relationships belongs to the identity layer
  in front of this API.
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *leave.Service
	Store   leave.Store

	// Track currently loaded demo scenario.
	currentScenario string
}

func NewHandler(service *leave.Service, store leave.Store) *Handler {
	return &Handler{Service: service, Store: store}
}

// =============================================================================
// CATALOG & HOLIDAYS
// =============================================================================

func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types := h.Service.ListLeaveTypes()
	dtos := make([]LeaveTypeDTO, len(types))
	for i, lt := range types {
		dtos[i] = toLeaveTypeDTO(lt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r, time.Now().Year())
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	holidays, err := h.Service.ListHolidays(r.Context(), year)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if req.Date.IsZero() || strings.TrimSpace(req.Name) == "" {
		writeEngineError(w, &leave.MissingFieldsError{Fields: []string{"date", "name"}})
		return
	}
	hol := leave.Holiday{
		ID:         fmt.Sprintf("hol-%s-%s", req.Date, slug(req.Name)),
		Date:       req.Date,
		Name:       req.Name,
		IsOptional: req.IsOptional,
	}
	if err := h.Store.SaveHoliday(r.Context(), hol); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(hol))
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]EmployeeDTO, len(emps))
	for i, e := range emps {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Name) == "" {
		writeEngineError(w, &leave.MissingFieldsError{Fields: []string{"id", "name"}})
		return
	}
	emp := leave.Employee{
		ID:        leave.UserID(req.ID),
		Name:      req.Name,
		Email:     req.Email,
		TeamID:    leave.TeamID(req.TeamID),
		ManagerID: leave.UserID(req.ManagerID),
		HireDate:  req.HireDate,
		CreatedAt: time.Now(),
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := leave.UserID(chi.URLParam(r, "id"))
	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if emp == nil {
		writeEngineError(w, &leave.NotFoundError{Kind: "employee", ID: string(id)})
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	id := leave.UserID(chi.URLParam(r, "id"))
	year, err := yearParam(r, time.Now().Year())
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	balances, summary, err := h.Service.GetBalances(r.Context(), id, year)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := BalancesResponse{
		Summary: BalanceSummaryDTO{
			TotalAllocated: summary.TotalAllocated,
			TotalUsed:      summary.TotalUsed,
			TotalPending:   summary.TotalPending,
			TotalRemaining: summary.TotalRemaining,
		},
	}
	for _, b := range balances {
		resp.Balances = append(resp.Balances, toBalanceDTO(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// REQUEST SUBMISSION & QUERIES
// =============================================================================

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.UserID(chi.URLParam(r, "id"))

	var req SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	created, err := h.Service.SubmitLeaveRequest(r.Context(), id, req.toDraft(), leave.Today())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(*created))
}

func (h *Handler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	id := leave.UserID(chi.URLParam(r, "id"))
	status, err := statusParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	reqs, err := h.Service.ListMyRequests(r.Context(), id, status)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	code := leave.RequestCode(chi.URLParam(r, "code"))
	req, err := h.Service.GetRequest(r.Context(), code)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// =============================================================================
// DECISIONS
// =============================================================================

func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	code := leave.RequestCode(chi.URLParam(r, "code"))

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	approved, err := h.Service.ApproveLeaveRequest(r.Context(), code, leave.UserID(req.ReviewerID), req.Comments)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*approved))
}

func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	code := leave.RequestCode(chi.URLParam(r, "code"))

	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	rejected, err := h.Service.RejectLeaveRequest(r.Context(), code, leave.UserID(req.ReviewerID), req.Reason)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*rejected))
}

func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	code := leave.RequestCode(chi.URLParam(r, "code"))

	cancelled, err := h.Service.CancelLeaveRequest(r.Context(), code, leave.Today())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*cancelled))
}

func (h *Handler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	var req BulkApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	codes := make([]leave.RequestCode, len(req.RequestCodes))
	for i, c := range req.RequestCodes {
		codes[i] = leave.RequestCode(c)
	}

	outcome := h.Service.BulkApprove(r.Context(), codes, leave.UserID(req.ReviewerID), req.Comments)
	writeJSON(w, http.StatusOK, toBulkResponse(outcome))
}

// =============================================================================
// TEAMS
// =============================================================================

func (h *Handler) ListTeamRequests(w http.ResponseWriter, r *http.Request) {
	teamID := leave.TeamID(chi.URLParam(r, "id"))
	status, err := statusParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	reqs, err := h.Service.ListTeamRequests(r.Context(), teamID, status)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

func (h *Handler) GetTeamCalendar(w http.ResponseWriter, r *http.Request) {
	teamID := leave.TeamID(chi.URLParam(r, "id"))

	now := time.Now()
	year, err := yearParam(r, now.Year())
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	month := int(now.Month())
	if m := r.URL.Query().Get("month"); m != "" {
		month, err = strconv.Atoi(m)
		if err != nil || month < 1 || month > 12 {
			writeBadRequest(w, fmt.Errorf("invalid month %q", m))
			return
		}
	}

	entries, err := h.Service.GetTeamCalendar(r.Context(), teamID, year, time.Month(month))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCalendarDTOs(entries))
}

// =============================================================================
// ADMIN
// =============================================================================

func (h *Handler) TriggerAllocations(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r, time.Now().Year())
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	provisioned, err := h.Service.EnsureAnnualAllocations(r.Context(), year)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "provisioned": provisioned})
}

// =============================================================================
// HELPERS
// =============================================================================

func yearParam(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return fallback, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 3000 {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}

func statusParam(r *http.Request) (*leave.RequestStatus, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, nil
	}
	status := leave.RequestStatus(raw)
	if !leave.ValidStatus(status) {
		return nil, fmt.Errorf("invalid status %q", raw)
	}
	return &status, nil
}

func slug(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "bad_request"})
}

// writeEngineError maps engine error kinds to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), ErrorResponse{Error: err.Error(), Kind: leave.ErrorKind(err)})
}

func statusFor(err error) int {
	switch {
	case leave.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, leave.ErrInvalidStateTransition), leave.IsRetryable(err):
		return http.StatusConflict
	case errors.Is(err, leave.ErrMissingFields), errors.Is(err, leave.ErrInvalidDateRange):
		return http.StatusBadRequest
	case leave.IsClientError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
