/*
service.go - Transport-agnostic operation surface

PURPOSE:
  Service is the single entry point the surrounding application (HTTP,
  RPC, direct call) wraps. It wires the catalog, ledger, lifecycle,
  coordinator and calendar aggregator together and exposes the operation
  set as plain methods over the data model.

  Authorization is deliberately absent: resolving who may approve whose
  requests is the caller's identity provider's job.
*/
package leave

import (
	"context"
	"strings"
	"time"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	catalog     *Catalog
	store       Store
	ledger      *Ledger
	lifecycle   *Lifecycle
	coordinator *Coordinator
	aggregator  *Aggregator
}

func NewService(catalog *Catalog, store Store) *Service {
	ledger := NewLedger(store)
	lifecycle := NewLifecycle(catalog, ledger, store)
	return &Service{
		catalog:     catalog,
		store:       store,
		ledger:      ledger,
		lifecycle:   lifecycle,
		coordinator: NewCoordinator(lifecycle),
		aggregator:  NewAggregator(store, store, store),
	}
}

// Lifecycle exposes the underlying state machine, mainly for tests that
// need clock or code injection.
func (s *Service) Lifecycle() *Lifecycle { return s.lifecycle }

// Catalog returns the leave-type registry.
func (s *Service) Catalog() *Catalog { return s.catalog }

// =============================================================================
// CATALOG & HOLIDAYS
// =============================================================================

// ListLeaveTypes returns all policies in catalog order.
func (s *Service) ListLeaveTypes() []LeaveType {
	return s.catalog.List()
}

// ListHolidays returns the holidays of a year, ordered by date.
func (s *Service) ListHolidays(ctx context.Context, year int) ([]Holiday, error) {
	return s.store.ListHolidays(ctx, year)
}

// =============================================================================
// BALANCES
// =============================================================================

// BalanceSummary aggregates a user's rows across leave types for one year.
type BalanceSummary struct {
	TotalAllocated Days
	TotalUsed      Days
	TotalPending   Days
	TotalRemaining Days
}

// GetBalances returns one row per catalog leave type for (user, year),
// provisioning missing rows from each type's annual allocation, plus the
// cross-type summary.
func (s *Service) GetBalances(ctx context.Context, userID UserID, year int) ([]Balance, BalanceSummary, error) {
	if err := s.requireEmployee(ctx, userID); err != nil {
		return nil, BalanceSummary{}, err
	}

	var (
		balances []Balance
		summary  BalanceSummary
	)
	for _, lt := range s.catalog.List() {
		key := BalanceKey{UserID: userID, TypeCode: lt.Code, Year: year}
		b, err := s.ledger.Ensure(ctx, key, lt.AnnualAllocationDays)
		if err != nil {
			return nil, BalanceSummary{}, err
		}
		balances = append(balances, b)
		summary.TotalAllocated = summary.TotalAllocated.Add(b.TotalDays)
		summary.TotalUsed = summary.TotalUsed.Add(b.UsedDays)
		summary.TotalPending = summary.TotalPending.Add(b.PendingDays)
		summary.TotalRemaining = summary.TotalRemaining.Add(b.RemainingDays())
	}
	return balances, summary, nil
}

// =============================================================================
// REQUEST OPERATIONS
// =============================================================================

// SubmitLeaveRequest validates and submits a draft for userID.
func (s *Service) SubmitLeaveRequest(ctx context.Context, userID UserID, draft Draft, today Date) (*LeaveRequest, error) {
	if err := s.requireEmployee(ctx, userID); err != nil {
		return nil, err
	}
	return s.lifecycle.Submit(ctx, userID, draft, today)
}

// CancelLeaveRequest cancels a pending, future-dated request.
func (s *Service) CancelLeaveRequest(ctx context.Context, code RequestCode, today Date) (*LeaveRequest, error) {
	return s.lifecycle.Cancel(ctx, code, today)
}

// ApproveLeaveRequest approves a pending request.
func (s *Service) ApproveLeaveRequest(ctx context.Context, code RequestCode, reviewerID UserID, comments string) (*LeaveRequest, error) {
	return s.lifecycle.Approve(ctx, code, reviewerID, comments)
}

// RejectLeaveRequest rejects a pending request with a mandatory reason.
func (s *Service) RejectLeaveRequest(ctx context.Context, code RequestCode, reviewerID UserID, reason string) (*LeaveRequest, error) {
	return s.lifecycle.Reject(ctx, code, reviewerID, reason)
}

// BulkApprove approves many requests independently; see Coordinator.
func (s *Service) BulkApprove(ctx context.Context, codes []RequestCode, reviewerID UserID, comments string) BulkOutcome {
	return s.coordinator.BulkApprove(ctx, codes, reviewerID, comments)
}

// GetRequest returns one request by code.
func (s *Service) GetRequest(ctx context.Context, code RequestCode) (*LeaveRequest, error) {
	req, err := s.store.GetRequest(ctx, code)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &NotFoundError{Kind: "request", ID: string(code)}
	}
	return req, nil
}

// ListMyRequests returns a user's requests, optionally filtered by status.
func (s *Service) ListMyRequests(ctx context.Context, userID UserID, status *RequestStatus) ([]LeaveRequest, error) {
	if err := s.requireEmployee(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListRequestsByUser(ctx, userID, status)
}

// ListTeamRequests returns all requests of a team's members, optionally
// filtered by status. Manager view.
func (s *Service) ListTeamRequests(ctx context.Context, teamID TeamID, status *RequestStatus) ([]LeaveRequest, error) {
	members, err := s.store.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, &NotFoundError{Kind: "team", ID: string(teamID)}
	}

	var out []LeaveRequest
	for _, m := range members {
		reqs, err := s.store.ListRequestsByUser(ctx, m.ID, status)
		if err != nil {
			return nil, err
		}
		out = append(out, reqs...)
	}
	return out, nil
}

// GetTeamCalendar projects a team's visible requests onto a month grid.
func (s *Service) GetTeamCalendar(ctx context.Context, teamID TeamID, year int, month time.Month) ([]CalendarEntry, error) {
	return s.aggregator.TeamCalendar(ctx, teamID, year, month)
}

// =============================================================================
// PROVISIONING
// =============================================================================

// EnsureAnnualAllocations provisions the (employee, type, year) balance rows
// for every employee and catalog type. Idempotent; called by the allocation
// scheduler at year boundaries and harmless to re-run.
func (s *Service) EnsureAnnualAllocations(ctx context.Context, year int) (int, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return 0, err
	}

	provisioned := 0
	for _, emp := range employees {
		for _, lt := range s.catalog.List() {
			key := BalanceKey{UserID: emp.ID, TypeCode: lt.Code, Year: year}
			existing, err := s.store.GetBalance(ctx, key)
			if err != nil {
				return provisioned, err
			}
			if existing != nil {
				continue
			}
			if _, err := s.ledger.Ensure(ctx, key, lt.AnnualAllocationDays); err != nil {
				return provisioned, err
			}
			provisioned++
		}
	}
	return provisioned, nil
}

func (s *Service) requireEmployee(ctx context.Context, userID UserID) error {
	if strings.TrimSpace(string(userID)) == "" {
		return &MissingFieldsError{Fields: []string{"user_id"}}
	}
	emp, err := s.store.GetEmployee(ctx, userID)
	if err != nil {
		return err
	}
	if emp == nil {
		return &NotFoundError{Kind: "employee", ID: string(userID)}
	}
	return nil
}
