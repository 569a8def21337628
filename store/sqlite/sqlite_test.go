package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testKey() leave.BalanceKey {
	return leave.BalanceKey{UserID: "emp-1", TypeCode: "ANNUAL", Year: 2025}
}

func testRequest(code string, status leave.RequestStatus) leave.LeaveRequest {
	return leave.LeaveRequest{
		Code:      leave.RequestCode(code),
		UserID:    "emp-1",
		TypeCode:  "ANNUAL",
		StartDate: leave.NewDate(2025, time.June, 10),
		EndDate:   leave.NewDate(2025, time.June, 12),
		TotalDays: leave.DaysFromInt(3),
		Status:    status,
		Reason:    "Vacation",
		CreatedAt: time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// BALANCES
// =============================================================================

func TestSQLite_Balance_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Absent row reads as nil, nil.
	got, err := store.GetBalance(ctx, testKey())
	require.NoError(t, err)
	assert.Nil(t, got)

	b := leave.Balance{
		UserID:      "emp-1",
		TypeCode:    "ANNUAL",
		Year:        2025,
		TotalDays:   leave.DaysFromInt(20),
		UsedDays:    leave.DaysFromFloat(2.5),
		PendingDays: leave.DaysFromFloat(0.5),
		Version:     1,
	}
	require.NoError(t, store.CreateBalance(ctx, b))

	got, err = store.GetBalance(ctx, testKey())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.TotalDays.Equal(leave.DaysFromInt(20)))
	assert.True(t, got.UsedDays.Equal(leave.DaysFromFloat(2.5)), "half days must round-trip exactly")
	assert.True(t, got.PendingDays.Equal(leave.DaysFromFloat(0.5)))
	assert.Equal(t, int64(1), got.Version)
}

func TestSQLite_Balance_DuplicateCreateRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := leave.Balance{UserID: "emp-1", TypeCode: "ANNUAL", Year: 2025, TotalDays: leave.DaysFromInt(20), Version: 1}
	require.NoError(t, store.CreateBalance(ctx, b))

	err := store.CreateBalance(ctx, b)
	assert.ErrorIs(t, err, leave.ErrConcurrentModification)
}

func TestSQLite_Balance_OptimisticLock(t *testing.T) {
	// GIVEN: A row at version 1
	// WHEN: An update carries the right expected version, then a stale one
	// THEN: The first wins, the stale one gets ErrConcurrentModification

	store := newTestStore(t)
	ctx := context.Background()

	b := leave.Balance{UserID: "emp-1", TypeCode: "ANNUAL", Year: 2025, TotalDays: leave.DaysFromInt(20), Version: 1}
	require.NoError(t, store.CreateBalance(ctx, b))

	b.PendingDays = leave.DaysFromInt(3)
	b.Version = 2
	require.NoError(t, store.UpdateBalance(ctx, b, 1))

	stale := b
	stale.PendingDays = leave.DaysFromInt(5)
	err := store.UpdateBalance(ctx, stale, 1)
	assert.ErrorIs(t, err, leave.ErrConcurrentModification)

	got, err := store.GetBalance(ctx, testKey())
	require.NoError(t, err)
	assert.True(t, got.PendingDays.Equal(leave.DaysFromInt(3)), "stale write must not land")
	assert.Equal(t, int64(2), got.Version)
}

func TestSQLite_ListBalances_ScopedToUserAndYear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rows := []leave.Balance{
		{UserID: "emp-1", TypeCode: "ANNUAL", Year: 2025, TotalDays: leave.DaysFromInt(20), Version: 1},
		{UserID: "emp-1", TypeCode: "SICK", Year: 2025, TotalDays: leave.DaysFromInt(10), Version: 1},
		{UserID: "emp-1", TypeCode: "ANNUAL", Year: 2024, TotalDays: leave.DaysFromInt(20), Version: 1},
		{UserID: "emp-2", TypeCode: "ANNUAL", Year: 2025, TotalDays: leave.DaysFromInt(20), Version: 1},
	}
	for _, b := range rows {
		require.NoError(t, store.CreateBalance(ctx, b))
	}

	got, err := store.ListBalances(ctx, "emp-1", 2025)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, leave.TypeCode("ANNUAL"), got[0].TypeCode)
	assert.Equal(t, leave.TypeCode("SICK"), got[1].TypeCode)
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestSQLite_Request_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	slot := leave.SecondHalf
	r := testRequest("LV-1", leave.StatusPending)
	r.IsHalfDay = true
	r.HalfDaySlot = &slot
	r.TotalDays = leave.HalfDay()
	r.EndDate = r.StartDate
	r.DocumentURL = "https://docs.example.com/note.pdf"
	require.NoError(t, store.SaveRequest(ctx, r))

	got, err := store.GetRequest(ctx, "LV-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsHalfDay)
	require.NotNil(t, got.HalfDaySlot)
	assert.Equal(t, leave.SecondHalf, *got.HalfDaySlot)
	assert.True(t, got.TotalDays.Equal(leave.DaysFromFloat(0.5)))
	assert.Equal(t, r.DocumentURL, got.DocumentURL)
	assert.True(t, got.CreatedAt.Equal(r.CreatedAt))
	assert.Nil(t, got.DecidedAt)

	missing, err := store.GetRequest(ctx, "LV-ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLite_TransitionRequest_GuardsSourceStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRequest(ctx, testRequest("LV-1", leave.StatusPending)))

	decidedAt := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	d := leave.Decision{ReviewerID: "mgr-1", Comments: "ok", DecidedAt: decidedAt}
	require.NoError(t, store.TransitionRequest(ctx, "LV-1", leave.StatusPending, leave.StatusApproved, d))

	got, err := store.GetRequest(ctx, "LV-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, got.Status)
	assert.Equal(t, leave.UserID("mgr-1"), got.ReviewerID)
	require.NotNil(t, got.DecidedAt)
	assert.True(t, got.DecidedAt.Equal(decidedAt))

	// Second decision loses: the row is no longer pending.
	err = store.TransitionRequest(ctx, "LV-1", leave.StatusPending, leave.StatusRejected, d)
	assert.ErrorIs(t, err, leave.ErrInvalidStateTransition)

	// Unknown code is a distinct failure.
	err = store.TransitionRequest(ctx, "LV-ghost", leave.StatusPending, leave.StatusApproved, d)
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

func TestSQLite_ListRequestsByUser_FilterAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := testRequest("LV-1", leave.StatusApproved)
	older.CreatedAt = time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)
	newer := testRequest("LV-2", leave.StatusPending)
	newer.CreatedAt = time.Date(2025, time.May, 2, 10, 0, 0, 0, time.UTC)
	other := testRequest("LV-3", leave.StatusPending)
	other.UserID = "emp-2"

	for _, r := range []leave.LeaveRequest{older, newer, other} {
		require.NoError(t, store.SaveRequest(ctx, r))
	}

	all, err := store.ListRequestsByUser(ctx, "emp-1", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, leave.RequestCode("LV-2"), all[0].Code, "newest first")

	pending := leave.StatusPending
	filtered, err := store.ListRequestsByUser(ctx, "emp-1", &pending)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, leave.RequestCode("LV-2"), filtered[0].Code)
}

func TestSQLite_ListRequestsOverlapping_WindowEdges(t *testing.T) {
	// Requests touching the window on either edge count as overlapping.

	store := newTestStore(t)
	ctx := context.Background()

	inside := testRequest("LV-in", leave.StatusPending)
	leftEdge := testRequest("LV-left", leave.StatusPending)
	leftEdge.StartDate = leave.NewDate(2025, time.May, 28)
	leftEdge.EndDate = leave.NewDate(2025, time.June, 1)
	outside := testRequest("LV-out", leave.StatusPending)
	outside.StartDate = leave.NewDate(2025, time.July, 1)
	outside.EndDate = leave.NewDate(2025, time.July, 3)

	for _, r := range []leave.LeaveRequest{inside, leftEdge, outside} {
		require.NoError(t, store.SaveRequest(ctx, r))
	}

	from := leave.NewDate(2025, time.June, 1)
	to := leave.NewDate(2025, time.June, 30)
	got, err := store.ListRequestsOverlapping(ctx, []leave.UserID{"emp-1"}, from, to)
	require.NoError(t, err)

	codes := make([]leave.RequestCode, len(got))
	for i, r := range got {
		codes[i] = r.Code
	}
	assert.ElementsMatch(t, []leave.RequestCode{"LV-in", "LV-left"}, codes)

	none, err := store.ListRequestsOverlapping(ctx, nil, from, to)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// =============================================================================
// EMPLOYEES, HOLIDAYS, LEAVE TYPES
// =============================================================================

func TestSQLite_Employee_UpsertAndTeamQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := leave.Employee{
		ID:        "emp-1",
		Name:      "Amy Chen",
		Email:     "amy@example.com",
		TeamID:    "team-eng",
		ManagerID: "emp-9",
		HireDate:  leave.NewDate(2023, time.April, 3),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.SaveEmployee(ctx, emp))

	// Upsert moves her to another team.
	emp.TeamID = "team-ops"
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, leave.TeamID("team-ops"), got.TeamID)
	assert.True(t, got.HireDate.Equal(leave.NewDate(2023, time.April, 3)))

	eng, err := store.ListTeamMembers(ctx, "team-eng")
	require.NoError(t, err)
	assert.Empty(t, eng)

	ops, err := store.ListTeamMembers(ctx, "team-ops")
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestSQLite_Holidays_FilteredByYear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	hols := []leave.Holiday{
		{ID: "h-2025a", Date: leave.NewDate(2025, time.December, 25), Name: "Winter Day"},
		{ID: "h-2025b", Date: leave.NewDate(2025, time.January, 1), Name: "New Year", IsOptional: false},
		{ID: "h-2024", Date: leave.NewDate(2024, time.December, 25), Name: "Winter Day"},
	}
	for _, h := range hols {
		require.NoError(t, store.SaveHoliday(ctx, h))
	}

	got, err := store.ListHolidays(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "New Year", got[0].Name, "ordered by date")
}

func TestSQLite_LeaveTypes_PersistConfigVerbatim(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cfg := `{"code":"ANNUAL","name":"Annual Leave","annual_allocation_days":20}`
	rec := leave.LeaveTypeRecord{
		Code:       "ANNUAL",
		Name:       "Annual Leave",
		ConfigJSON: cfg,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.SaveLeaveType(ctx, rec))

	got, err := store.ListLeaveTypes(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cfg, got[0].ConfigJSON)
}

func TestSQLite_Reset_ClearsEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateBalance(ctx, leave.Balance{
		UserID: "emp-1", TypeCode: "ANNUAL", Year: 2025,
		TotalDays: leave.DaysFromInt(20), Version: 1,
	}))
	require.NoError(t, store.SaveRequest(ctx, testRequest("LV-1", leave.StatusPending)))

	require.NoError(t, store.Reset(ctx))

	b, err := store.GetBalance(ctx, testKey())
	require.NoError(t, err)
	assert.Nil(t, b)
	r, err := store.GetRequest(ctx, "LV-1")
	require.NoError(t, err)
	assert.Nil(t, r)
}
