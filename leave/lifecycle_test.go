package leave_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type engine struct {
	lifecycle *leave.Lifecycle
	ledger    *leave.Ledger
	mem       *store.Memory
}

var decidedAt = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) engine {
	t.Helper()

	catalog, err := leave.NewCatalog([]leave.LeaveType{
		annualPolicy(),
		sickPolicy(),
		{
			Code:                 "CASUAL",
			Name:                 "Casual Leave",
			MinAdvanceNoticeDays: 1,
			MaxConsecutiveDays:   3,
			AnnualAllocationDays: leave.DaysFromInt(7),
		},
	})
	require.NoError(t, err)

	mem := store.NewMemory()
	ledger := leave.NewLedger(mem)

	seq := 0
	lc := leave.NewLifecycle(catalog, ledger, mem).
		WithClock(func() time.Time { return decidedAt }).
		WithCodeFunc(func() leave.RequestCode {
			seq++
			return leave.RequestCode(fmt.Sprintf("LV-%04d", seq))
		})

	return engine{lifecycle: lc, ledger: ledger, mem: mem}
}

func (e engine) balance(t *testing.T, user string) leave.Balance {
	t.Helper()
	b, err := e.ledger.Get(context.Background(), key(user))
	require.NoError(t, err)
	return b
}

func (e engine) submit(t *testing.T, user string, draft leave.Draft) *leave.LeaveRequest {
	t.Helper()
	req, err := e.lifecycle.Submit(context.Background(), leave.UserID(user), draft, today)
	require.NoError(t, err)
	return req
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestLifecycle_Submit_CreatesPendingAndReservesDays(t *testing.T) {
	// GIVEN: A valid 3-day annual draft
	// WHEN: Submitted
	// THEN: The request is pending with a generated code, and the balance
	//       holds exactly those days

	e := newTestEngine(t)
	req := e.submit(t, "emp-1", validDraft())

	assert.Equal(t, leave.RequestCode("LV-0001"), req.Code)
	assert.Equal(t, leave.StatusPending, req.Status)
	assert.True(t, req.TotalDays.Equal(leave.DaysFromInt(3)))
	assert.Nil(t, req.DecidedAt)

	b := e.balance(t, "emp-1")
	assert.True(t, b.PendingDays.Equal(leave.DaysFromInt(3)))
	assert.True(t, b.TotalDays.Equal(leave.DaysFromInt(20)), "row provisioned from the annual allocation")
	assertAccounting(t, b)
}

func TestLifecycle_Submit_HalfDayReservesHalf(t *testing.T) {
	e := newTestEngine(t)
	slot := leave.FirstHalf
	d := today.AddDays(10)
	req := e.submit(t, "emp-1", leave.Draft{
		TypeCode:    "ANNUAL",
		StartDate:   d,
		EndDate:     d,
		IsHalfDay:   true,
		HalfDaySlot: &slot,
		Reason:      "Morning appointment",
	})

	assert.True(t, req.TotalDays.Equal(leave.DaysFromFloat(0.5)))
	require.NotNil(t, req.HalfDaySlot)
	assert.Equal(t, leave.FirstHalf, *req.HalfDaySlot)

	b := e.balance(t, "emp-1")
	assert.True(t, b.PendingDays.Equal(leave.DaysFromFloat(0.5)))
}

func TestLifecycle_Submit_UnknownTypeRejectedBeforeTouchingBalance(t *testing.T) {
	e := newTestEngine(t)
	draft := validDraft()
	draft.TypeCode = "SABBATICAL"

	_, err := e.lifecycle.Submit(context.Background(), "emp-1", draft, today)
	assert.True(t, leave.IsNotFound(err))

	_, err = e.ledger.Get(context.Background(), key("emp-1"))
	assert.True(t, leave.IsNotFound(err), "no balance row may be provisioned")
}

func TestLifecycle_Submit_ValidationFailureLeavesNoHold(t *testing.T) {
	e := newTestEngine(t)
	draft := validDraft()
	draft.StartDate = today.AddDays(2) // violates 7-day notice
	draft.EndDate = today.AddDays(4)

	_, err := e.lifecycle.Submit(context.Background(), "emp-1", draft, today)
	assert.ErrorIs(t, err, leave.ErrInsufficientNotice)

	b := e.balance(t, "emp-1") // row was provisioned, but untouched
	assert.True(t, b.PendingDays.IsZero())
}

func TestLifecycle_Submit_SequentialSubmissionsShareTheBalance(t *testing.T) {
	// GIVEN: total=20, a pending 15-day request
	// WHEN: Submitting another 6-day request
	// THEN: Rejected for balance even though both are only pending

	e := newTestEngine(t)
	first := validDraft()
	first.StartDate = today.AddDays(10)
	first.EndDate = today.AddDays(24) // 15 days
	e.submit(t, "emp-1", first)

	second := validDraft()
	second.StartDate = today.AddDays(40)
	second.EndDate = today.AddDays(45) // 6 days
	_, err := e.lifecycle.Submit(context.Background(), "emp-1", second, today)
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
}

// =============================================================================
// APPROVE
// =============================================================================

func TestLifecycle_Approve_CommitsHoldToUsed(t *testing.T) {
	// GIVEN: A pending 3-day request
	// WHEN: Approved
	// THEN: Status approved with reviewer fields, pending -> used

	e := newTestEngine(t)
	req := e.submit(t, "emp-1", validDraft())

	approved, err := e.lifecycle.Approve(context.Background(), req.Code, "mgr-1", "Have fun")
	require.NoError(t, err)

	assert.Equal(t, leave.StatusApproved, approved.Status)
	assert.Equal(t, leave.UserID("mgr-1"), approved.ReviewerID)
	assert.Equal(t, "Have fun", approved.ReviewerComments)
	require.NotNil(t, approved.DecidedAt)
	assert.Equal(t, decidedAt, *approved.DecidedAt)

	b := e.balance(t, "emp-1")
	assert.True(t, b.PendingDays.IsZero())
	assert.True(t, b.UsedDays.Equal(leave.DaysFromInt(3)))
	assert.True(t, b.RemainingDays().Equal(leave.DaysFromInt(17)))
	assertAccounting(t, b)
}

func TestLifecycle_Approve_Twice_SecondIsHardError(t *testing.T) {
	// GIVEN: An approved request
	// WHEN: Approving it again
	// THEN: InvalidStateTransition reporting the current status, and the
	//       balance is not double-committed

	e := newTestEngine(t)
	req := e.submit(t, "emp-1", validDraft())

	_, err := e.lifecycle.Approve(context.Background(), req.Code, "mgr-1", "")
	require.NoError(t, err)

	_, err = e.lifecycle.Approve(context.Background(), req.Code, "mgr-1", "")
	var ist *leave.InvalidStateTransitionError
	require.ErrorAs(t, err, &ist)
	assert.Equal(t, leave.StatusApproved, ist.Status)
	assert.Equal(t, "approve", ist.Op)

	b := e.balance(t, "emp-1")
	assert.True(t, b.UsedDays.Equal(leave.DaysFromInt(3)), "used must not double")
}

func TestLifecycle_Approve_UnknownCode_NotFound(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.lifecycle.Approve(context.Background(), "LV-nope", "mgr-1", "")
	assert.True(t, leave.IsNotFound(err))
}

// =============================================================================
// REJECT
// =============================================================================

func TestLifecycle_Reject_ReleasesHold(t *testing.T) {
	e := newTestEngine(t)
	req := e.submit(t, "emp-1", validDraft())

	rejected, err := e.lifecycle.Reject(context.Background(), req.Code, "mgr-1", "Release week")
	require.NoError(t, err)

	assert.Equal(t, leave.StatusRejected, rejected.Status)
	assert.Equal(t, "Release week", rejected.ReviewerComments)

	b := e.balance(t, "emp-1")
	assert.True(t, b.PendingDays.IsZero())
	assert.True(t, b.UsedDays.IsZero())
	assert.True(t, b.RemainingDays().Equal(leave.DaysFromInt(20)), "days return to the pool")
}

func TestLifecycle_Reject_EmptyReasonRefused(t *testing.T) {
	e := newTestEngine(t)
	req := e.submit(t, "emp-1", validDraft())

	_, err := e.lifecycle.Reject(context.Background(), req.Code, "mgr-1", "   ")
	assert.ErrorIs(t, err, leave.ErrMissingFields)

	// Request untouched.
	fresh, err := e.mem.GetRequest(context.Background(), req.Code)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, fresh.Status)
}

func TestLifecycle_RejectAfterApprove_IsHardError(t *testing.T) {
	e := newTestEngine(t)
	req := e.submit(t, "emp-1", validDraft())

	_, err := e.lifecycle.Approve(context.Background(), req.Code, "mgr-1", "")
	require.NoError(t, err)

	_, err = e.lifecycle.Reject(context.Background(), req.Code, "mgr-2", "Changed my mind")
	var ist *leave.InvalidStateTransitionError
	require.ErrorAs(t, err, &ist)
	assert.Equal(t, leave.StatusApproved, ist.Status)
}

// =============================================================================
// CANCEL
// =============================================================================

func TestLifecycle_Cancel_FutureDatedPendingReleasesHold(t *testing.T) {
	e := newTestEngine(t)
	req := e.submit(t, "emp-1", validDraft()) // starts today+10

	cancelled, err := e.lifecycle.Cancel(context.Background(), req.Code, today)
	require.NoError(t, err)

	assert.Equal(t, leave.StatusCancelled, cancelled.Status)
	b := e.balance(t, "emp-1")
	assert.True(t, b.PendingDays.IsZero())
	assert.True(t, b.RemainingDays().Equal(leave.DaysFromInt(20)))
}

func TestLifecycle_Cancel_StartingTodayRefused(t *testing.T) {
	// GIVEN: A pending request starting today+10
	// WHEN: Cancelling with "today" advanced to the start date
	// THEN: Refused; cancellation needs a strictly future start

	e := newTestEngine(t)
	req := e.submit(t, "emp-1", validDraft())

	_, err := e.lifecycle.Cancel(context.Background(), req.Code, today.AddDays(10))
	assert.ErrorIs(t, err, leave.ErrInvalidStateTransition)

	b := e.balance(t, "emp-1")
	assert.True(t, b.PendingDays.Equal(leave.DaysFromInt(3)), "hold must survive")
}

func TestLifecycle_Cancel_DayBeforeStartStillAllowed(t *testing.T) {
	e := newTestEngine(t)
	req := e.submit(t, "emp-1", validDraft())

	_, err := e.lifecycle.Cancel(context.Background(), req.Code, today.AddDays(9))
	assert.NoError(t, err)
}

func TestLifecycle_Cancel_ApprovedRequestRefused(t *testing.T) {
	e := newTestEngine(t)
	req := e.submit(t, "emp-1", validDraft())

	_, err := e.lifecycle.Approve(context.Background(), req.Code, "mgr-1", "")
	require.NoError(t, err)

	_, err = e.lifecycle.Cancel(context.Background(), req.Code, today)
	assert.ErrorIs(t, err, leave.ErrInvalidStateTransition)

	// Committed days stay committed.
	b := e.balance(t, "emp-1")
	assert.True(t, b.UsedDays.Equal(leave.DaysFromInt(3)))
}

// =============================================================================
// END-TO-END BALANCE ARITHMETIC
// =============================================================================

func TestLifecycle_MixedDecisions_BalanceAddsUp(t *testing.T) {
	// GIVEN: Three requests: 3d approved, 2d rejected, 4d still pending
	// THEN: used=3, pending=4, remaining=13 on the 20-day allocation

	e := newTestEngine(t)
	ctx := context.Background()

	a := e.submit(t, "emp-1", validDraft()) // 3 days
	rej := validDraft()
	rej.StartDate = today.AddDays(20)
	rej.EndDate = today.AddDays(21) // 2 days
	b := e.submit(t, "emp-1", rej)
	pend := validDraft()
	pend.StartDate = today.AddDays(30)
	pend.EndDate = today.AddDays(33) // 4 days
	e.submit(t, "emp-1", pend)

	_, err := e.lifecycle.Approve(ctx, a.Code, "mgr-1", "")
	require.NoError(t, err)
	_, err = e.lifecycle.Reject(ctx, b.Code, "mgr-1", "Coverage gap")
	require.NoError(t, err)

	row := e.balance(t, "emp-1")
	assert.True(t, row.UsedDays.Equal(leave.DaysFromInt(3)))
	assert.True(t, row.PendingDays.Equal(leave.DaysFromInt(4)))
	assert.True(t, row.RemainingDays().Equal(leave.DaysFromInt(13)))
	assertAccounting(t, row)
}
