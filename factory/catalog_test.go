package factory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
)

// =============================================================================
// PARSING
// =============================================================================

func TestFactory_ParseLeaveType_FullDefinition(t *testing.T) {
	f := factory.NewCatalogFactory()

	lt, err := f.ParseLeaveType(`{
		"code": "sick",
		"name": "Sick Leave",
		"color": "#e07a5f",
		"min_advance_notice_days": 0,
		"max_consecutive_days": 0,
		"requires_document": true,
		"document_after_days": 3,
		"annual_allocation_days": 10
	}`)
	require.NoError(t, err)

	assert.Equal(t, leave.TypeCode("SICK"), lt.Code, "codes are normalized to upper case")
	assert.True(t, lt.RequiresDocument)
	assert.True(t, lt.DocumentAfterDays.Equal(leave.DaysFromInt(3)))
	assert.True(t, lt.AnnualAllocationDays.Equal(leave.DaysFromInt(10)))
}

func TestFactory_ParseLeaveType_MissingCodeRejected(t *testing.T) {
	f := factory.NewCatalogFactory()
	_, err := f.ParseLeaveType(`{"name": "Nameless", "annual_allocation_days": 5}`)
	assert.Error(t, err)
}

func TestFactory_ParseLeaveType_NegativeValuesRejected(t *testing.T) {
	f := factory.NewCatalogFactory()
	_, err := f.ParseLeaveType(`{"code": "X", "name": "X", "annual_allocation_days": -1}`)
	assert.Error(t, err)
}

func TestFactory_ParseCatalog_MalformedJSON(t *testing.T) {
	f := factory.NewCatalogFactory()
	_, err := f.ParseCatalog(`{"not": "an array"}`)
	assert.Error(t, err)
}

// =============================================================================
// DEFAULT CATALOG
// =============================================================================

func TestFactory_DefaultCatalog_PolicySet(t *testing.T) {
	catalog, err := factory.DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, 5, catalog.Len())

	annual, ok := catalog.Get("ANNUAL")
	require.True(t, ok)
	assert.Equal(t, 7, annual.MinAdvanceNoticeDays)
	assert.Equal(t, 15, annual.MaxConsecutiveDays)
	assert.True(t, annual.AnnualAllocationDays.Equal(leave.DaysFromInt(20)))

	sick, ok := catalog.Get("SICK")
	require.True(t, ok)
	assert.False(t, sick.DocumentRequiredFor(leave.DaysFromInt(2)))
	assert.False(t, sick.DocumentRequiredFor(leave.DaysFromInt(3)))
	assert.True(t, sick.DocumentRequiredFor(leave.DaysFromInt(4)))

	maternity, ok := catalog.Get("MATERNITY")
	require.True(t, ok)
	assert.True(t, maternity.DocumentRequiredFor(leave.HalfDay()), "zero threshold means always")
}

func TestFactory_MarshalRoundTrip(t *testing.T) {
	catalog, err := factory.DefaultCatalog()
	require.NoError(t, err)
	sick, _ := catalog.Get("SICK")

	raw, err := factory.MarshalLeaveType(sick)
	require.NoError(t, err)

	back, err := factory.NewCatalogFactory().ParseLeaveType(raw)
	require.NoError(t, err)
	assert.Equal(t, sick.Code, back.Code)
	assert.Equal(t, sick.RequiresDocument, back.RequiresDocument)
	assert.True(t, sick.DocumentAfterDays.Equal(back.DocumentAfterDays))
	assert.True(t, sick.AnnualAllocationDays.Equal(back.AnnualAllocationDays))
}

// =============================================================================
// LOAD OR SEED
// =============================================================================

func TestFactory_LoadOrSeed_SeedsEmptyStore(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: LoadOrSeed runs
	// THEN: The defaults are persisted and the catalog matches them

	mem := store.NewMemory()
	ctx := context.Background()

	catalog, err := factory.LoadOrSeed(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, 5, catalog.Len())

	recs, err := mem.ListLeaveTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 5)
}

func TestFactory_LoadOrSeed_LoadsPersistedTypes(t *testing.T) {
	// GIVEN: A store holding a single custom type
	// WHEN: LoadOrSeed runs
	// THEN: The persisted type wins and no defaults are seeded

	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.SaveLeaveType(ctx, leave.LeaveTypeRecord{
		Code:       "STUDY",
		Name:       "Study Leave",
		ConfigJSON: `{"code": "STUDY", "name": "Study Leave", "min_advance_notice_days": 14, "annual_allocation_days": 5}`,
	}))

	catalog, err := factory.LoadOrSeed(ctx, mem)
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.Len())
	study, ok := catalog.Get("STUDY")
	require.True(t, ok)
	assert.Equal(t, 14, study.MinAdvanceNoticeDays)
}

func TestFactory_LoadOrSeed_CorruptConfigSurfacesError(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.SaveLeaveType(ctx, leave.LeaveTypeRecord{
		Code:       "BROKEN",
		Name:       "Broken",
		ConfigJSON: `{not json`,
	}))

	_, err := factory.LoadOrSeed(ctx, mem)
	assert.Error(t, err)
}
