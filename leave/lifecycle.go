/*
lifecycle.go - The leave request state machine

PURPOSE:
  Owns every status transition a request can make and the balance side
  effects of each:

    submit:  validate -> reserve hold -> persist as pending
    approve: pending -> approved, hold becomes used days
    reject:  pending -> rejected,  hold released
    cancel:  pending -> cancelled, hold released (future-dated only)

  approved / rejected / cancelled are terminal; a request never re-enters
  pending.

TRANSITION GUARD:
  Terminal transitions go through the store's conditional status write, so
  of two concurrent decisions on the same request exactly one wins and the
  other observes InvalidStateTransition. Re-approving an already-approved
  request is a hard InvalidStateTransition, not a silent no-op: double
  submission of a decision is treated as a caller bug, and the strict
  contract guarantees the balance is never double-mutated.

SUBMIT ATOMICITY:
  Submission is validate + reserve + persist as one logical unit. The
  reserve is the atomic balance re-check (see balance.go); if persisting the
  request then fails, the hold is released before the error surfaces, so no
  balance days leak.
*/
package leave

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LIFECYCLE
// =============================================================================

// Lifecycle drives requests through the state machine. It is the only
// component that mutates request status or balance used/pending fields.
type Lifecycle struct {
	catalog  *Catalog
	ledger   *Ledger
	requests RequestStore

	// Injected for deterministic tests.
	now     func() time.Time
	newCode func() RequestCode
}

func NewLifecycle(catalog *Catalog, ledger *Ledger, requests RequestStore) *Lifecycle {
	return &Lifecycle{
		catalog:  catalog,
		ledger:   ledger,
		requests: requests,
		now:      time.Now,
		newCode:  func() RequestCode { return RequestCode("LV-" + uuid.NewString()) },
	}
}

// WithClock overrides the decision timestamp source. Tests only.
func (lc *Lifecycle) WithClock(now func() time.Time) *Lifecycle {
	lc.now = now
	return lc
}

// WithCodeFunc overrides request code generation. Tests only.
func (lc *Lifecycle) WithCodeFunc(fn func() RequestCode) *Lifecycle {
	lc.newCode = fn
	return lc
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates the draft, reserves the days against the user's balance
// and persists the request as pending. `today` anchors the advance-notice
// check and must come from the caller.
func (lc *Lifecycle) Submit(ctx context.Context, userID UserID, draft Draft, today Date) (*LeaveRequest, error) {
	if strings.TrimSpace(string(userID)) == "" {
		return nil, &MissingFieldsError{Fields: []string{"user_id"}}
	}

	// Shape first: malformed drafts must not provision balance rows.
	if err := validateShape(draft); err != nil {
		return nil, err
	}

	policy, ok := lc.catalog.Get(draft.TypeCode)
	if !ok {
		return nil, &NotFoundError{Kind: "leave_type", ID: string(draft.TypeCode)}
	}

	key := BalanceKey{UserID: userID, TypeCode: draft.TypeCode, Year: draft.StartDate.Year()}
	balance, err := lc.ledger.Ensure(ctx, key, policy.AnnualAllocationDays)
	if err != nil {
		return nil, err
	}

	if err := ValidateDraft(draft, policy, balance, today); err != nil {
		return nil, err
	}

	total := draft.TotalDays()

	// The reserve re-checks remaining atomically; a racing submission that
	// got here first will make this fail with InsufficientBalance.
	if _, err := lc.ledger.Reserve(ctx, key, total); err != nil {
		return nil, err
	}

	req := LeaveRequest{
		Code:        lc.newCode(),
		UserID:      userID,
		TypeCode:    draft.TypeCode,
		StartDate:   draft.StartDate,
		EndDate:     draft.EndDate,
		IsHalfDay:   draft.IsHalfDay,
		TotalDays:   total,
		Status:      StatusPending,
		Reason:      strings.TrimSpace(draft.Reason),
		DocumentURL: strings.TrimSpace(draft.DocumentURL),
		CreatedAt:   lc.now(),
	}
	if draft.IsHalfDay {
		slot := *draft.HalfDaySlot
		req.HalfDaySlot = &slot
	}

	if err := lc.requests.SaveRequest(ctx, req); err != nil {
		// Give the hold back; the request never existed.
		if _, relErr := lc.ledger.Release(ctx, key, total); relErr != nil {
			return nil, fmt.Errorf("save request failed (%v); releasing hold also failed: %w", err, relErr)
		}
		return nil, fmt.Errorf("save request: %w", err)
	}

	return &req, nil
}

// =============================================================================
// TERMINAL TRANSITIONS
// =============================================================================

// Approve moves a pending request to approved and converts its hold into
// used days. Comments are optional.
func (lc *Lifecycle) Approve(ctx context.Context, code RequestCode, reviewerID UserID, comments string) (*LeaveRequest, error) {
	req, err := lc.getRequest(ctx, code)
	if err != nil {
		return nil, err
	}

	decision := Decision{ReviewerID: reviewerID, Comments: comments, DecidedAt: lc.now()}
	if err := lc.transition(ctx, req, StatusApproved, "approve", decision); err != nil {
		return nil, err
	}

	if _, err := lc.ledger.CommitUsed(ctx, req.BalanceKey(), req.TotalDays); err != nil {
		// The status write won but the balance move failed. Put the request
		// back so the hold is not stranded; the caller can retry.
		_ = lc.requests.TransitionRequest(ctx, code, StatusApproved, StatusPending, Decision{})
		return nil, fmt.Errorf("commit balance for %s: %w", code, err)
	}

	return lc.applyDecision(req, StatusApproved, decision), nil
}

// Reject moves a pending request to rejected. A non-empty reason is
// required; the hold returns to the available pool.
func (lc *Lifecycle) Reject(ctx context.Context, code RequestCode, reviewerID UserID, reason string) (*LeaveRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &MissingFieldsError{Fields: []string{"reason"}}
	}

	req, err := lc.getRequest(ctx, code)
	if err != nil {
		return nil, err
	}

	decision := Decision{ReviewerID: reviewerID, Comments: strings.TrimSpace(reason), DecidedAt: lc.now()}
	if err := lc.transition(ctx, req, StatusRejected, "reject", decision); err != nil {
		return nil, err
	}

	if _, err := lc.ledger.Release(ctx, req.BalanceKey(), req.TotalDays); err != nil {
		_ = lc.requests.TransitionRequest(ctx, code, StatusRejected, StatusPending, Decision{})
		return nil, fmt.Errorf("release balance for %s: %w", code, err)
	}

	return lc.applyDecision(req, StatusRejected, decision), nil
}

// Cancel moves a pending, still-future request to cancelled and releases
// its hold. Requests starting today or earlier can no longer be cancelled.
func (lc *Lifecycle) Cancel(ctx context.Context, code RequestCode, today Date) (*LeaveRequest, error) {
	req, err := lc.getRequest(ctx, code)
	if err != nil {
		return nil, err
	}

	if !req.StartDate.After(today) {
		return nil, &InvalidStateTransitionError{Code: code, Status: req.Status, Op: "cancel"}
	}

	decision := Decision{DecidedAt: lc.now()}
	if err := lc.transition(ctx, req, StatusCancelled, "cancel", decision); err != nil {
		return nil, err
	}

	if _, err := lc.ledger.Release(ctx, req.BalanceKey(), req.TotalDays); err != nil {
		_ = lc.requests.TransitionRequest(ctx, code, StatusCancelled, StatusPending, Decision{})
		return nil, fmt.Errorf("release balance for %s: %w", code, err)
	}

	return lc.applyDecision(req, StatusCancelled, decision), nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (lc *Lifecycle) getRequest(ctx context.Context, code RequestCode) (*LeaveRequest, error) {
	req, err := lc.requests.GetRequest(ctx, code)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &NotFoundError{Kind: "request", ID: string(code)}
	}
	return req, nil
}

// transition performs the guarded pending->terminal write. On a lost race it
// re-reads the request so the error reports the status that actually won.
func (lc *Lifecycle) transition(ctx context.Context, req *LeaveRequest, to RequestStatus, op string, d Decision) error {
	err := lc.requests.TransitionRequest(ctx, req.Code, StatusPending, to, d)
	if err == nil {
		return nil
	}
	if !IsClientError(err) {
		return err
	}
	current := req.Status
	if fresh, ferr := lc.requests.GetRequest(ctx, req.Code); ferr == nil && fresh != nil {
		current = fresh.Status
	}
	return &InvalidStateTransitionError{Code: req.Code, Status: current, Op: op}
}

func (lc *Lifecycle) applyDecision(req *LeaveRequest, to RequestStatus, d Decision) *LeaveRequest {
	out := *req
	out.Status = to
	out.ReviewerID = d.ReviewerID
	out.ReviewerComments = d.Comments
	decidedAt := d.DecidedAt
	out.DecidedAt = &decidedAt
	return &out
}
