package leave_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// BULK APPROVAL
// =============================================================================

func TestCoordinator_BulkApprove_PartialSuccess(t *testing.T) {
	// GIVEN: Five pending requests from five users, one of which gets
	//        approved out-of-band before the bulk runs
	// WHEN: Bulk-approving all five codes
	// THEN: Four succeed, the pre-approved one fails with
	//       InvalidStateTransition, and every successful user's balance
	//       reflects exactly their own request

	e := newTestEngine(t)
	ctx := context.Background()
	coord := leave.NewCoordinator(e.lifecycle)

	users := []string{"emp-1", "emp-2", "emp-3", "emp-4", "emp-5"}
	codes := make([]leave.RequestCode, 0, len(users))
	for _, u := range users {
		draft := leave.Draft{
			TypeCode:  "ANNUAL",
			StartDate: today.AddDays(10),
			EndDate:   today.AddDays(11), // 2 days each
			Reason:    "Team offsite",
		}
		req, err := e.lifecycle.Submit(ctx, leave.UserID(u), draft, today)
		require.NoError(t, err)
		codes = append(codes, req.Code)
	}

	// One of them is decided before the bulk arrives.
	_, err := e.lifecycle.Approve(ctx, codes[2], "mgr-0", "early bird")
	require.NoError(t, err)

	out := coord.BulkApprove(ctx, codes, "mgr-1", "Approved for offsite")

	assert.Equal(t, 5, out.TotalRequested)
	assert.Equal(t, 4, out.TotalApproved)
	assert.Equal(t, 1, out.TotalFailed)
	assert.Len(t, out.Approved, 4)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, codes[2], out.Failed[0].Code)
	assert.ErrorIs(t, out.Failed[0].Err, leave.ErrInvalidStateTransition)

	for _, u := range users {
		b, err := e.ledger.Get(ctx, leave.BalanceKey{UserID: leave.UserID(u), TypeCode: "ANNUAL", Year: 2025})
		require.NoError(t, err)
		assert.True(t, b.UsedDays.Equal(leave.DaysFromInt(2)), "user %s", u)
		assert.True(t, b.PendingDays.IsZero(), "user %s", u)
	}
}

func TestCoordinator_BulkApprove_DuplicatesCollapsed(t *testing.T) {
	// GIVEN: The same code listed three times
	// WHEN: Bulk-approving
	// THEN: One approval, no spurious failures, balance committed once

	e := newTestEngine(t)
	ctx := context.Background()
	coord := leave.NewCoordinator(e.lifecycle)

	req := e.submit(t, "emp-1", validDraft())

	out := coord.BulkApprove(ctx, []leave.RequestCode{req.Code, req.Code, req.Code}, "mgr-1", "")

	assert.Equal(t, 1, out.TotalRequested)
	assert.Equal(t, 1, out.TotalApproved)
	assert.Equal(t, 0, out.TotalFailed)

	b := e.balance(t, "emp-1")
	assert.True(t, b.UsedDays.Equal(leave.DaysFromInt(3)))
}

func TestCoordinator_BulkApprove_ProcessesInSortedOrder(t *testing.T) {
	// Deterministic ordering: regardless of input order, approvals come
	// back sorted by code.

	e := newTestEngine(t)
	ctx := context.Background()
	coord := leave.NewCoordinator(e.lifecycle)

	var codes []leave.RequestCode
	for i, u := range []string{"emp-1", "emp-2", "emp-3"} {
		draft := validDraft()
		draft.StartDate = today.AddDays(10 + i)
		draft.EndDate = draft.StartDate
		req, err := e.lifecycle.Submit(ctx, leave.UserID(u), draft, today)
		require.NoError(t, err)
		codes = append(codes, req.Code)
	}

	shuffled := []leave.RequestCode{codes[2], codes[0], codes[1]}
	out := coord.BulkApprove(ctx, shuffled, "mgr-1", "")

	require.Len(t, out.Approved, 3)
	assert.Equal(t, codes[0], out.Approved[0])
	assert.Equal(t, codes[1], out.Approved[1])
	assert.Equal(t, codes[2], out.Approved[2])
}

func TestCoordinator_BulkApprove_UnknownCodesReportedIndividually(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	coord := leave.NewCoordinator(e.lifecycle)

	req := e.submit(t, "emp-1", validDraft())

	out := coord.BulkApprove(ctx, []leave.RequestCode{req.Code, "LV-ghost"}, "mgr-1", "")

	assert.Equal(t, 1, out.TotalApproved)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, leave.RequestCode("LV-ghost"), out.Failed[0].Code)
	assert.True(t, leave.IsNotFound(out.Failed[0].Err))
}

func TestCoordinator_BulkApprove_EmptyInput(t *testing.T) {
	e := newTestEngine(t)
	coord := leave.NewCoordinator(e.lifecycle)

	out := coord.BulkApprove(context.Background(), nil, "mgr-1", "")

	assert.Equal(t, 0, out.TotalRequested)
	assert.Empty(t, out.Approved)
	assert.Empty(t, out.Failed)
}

// =============================================================================
// BULK REJECTION
// =============================================================================

func TestCoordinator_BulkReject_ReleasesEveryHold(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	coord := leave.NewCoordinator(e.lifecycle)

	r1 := e.submit(t, "emp-1", validDraft())
	second := validDraft()
	second.StartDate = today.AddDays(20)
	second.EndDate = today.AddDays(22)
	r2 := e.submit(t, "emp-1", second)

	out := coord.BulkReject(ctx, []leave.RequestCode{r1.Code, r2.Code}, "mgr-1", "Hiring freeze week")

	assert.Equal(t, 2, out.TotalApproved)
	b := e.balance(t, "emp-1")
	assert.True(t, b.PendingDays.IsZero())
	assert.True(t, b.RemainingDays().Equal(leave.DaysFromInt(20)))
}
