package exceptions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/capacity-engine/exceptions"
	"github.com/warp/capacity-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger() *exceptions.Ledger {
	return exceptions.NewLedger(memory.New(), nil)
}

// =============================================================================
// SPRINT EXCEPTION TESTS
// =============================================================================

func TestLedger_SaveAndLoadExceptions(t *testing.T) {
	// GIVEN: Exception entries for sprint 236
	// WHEN: Saving and loading them back
	// THEN: The entries round-trip intact

	ledger := newTestLedger()
	ctx := context.Background()

	entries := exceptions.PeriodExceptions{
		"ali": {VacationDays: 2, OnCall: true},
		"gul": {CustomerDelegate: true, CustomerDelegateDays: 3},
	}
	require.True(t, ledger.SaveExceptions(ctx, 236, entries))

	loaded := ledger.LoadExceptions(ctx, 236)
	assert.Equal(t, entries, loaded)
}

func TestLedger_LoadExceptions_UnknownSprint_Empty(t *testing.T) {
	// GIVEN: A ledger with nothing recorded
	// WHEN: Loading a sprint
	// THEN: An empty mapping comes back, not an error

	ledger := newTestLedger()

	loaded := ledger.LoadExceptions(context.Background(), 999)
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
}

func TestLedger_SaveReplacesWholesale(t *testing.T) {
	// GIVEN: Sprint 236 already has entries for two sprinters
	// WHEN: Saving a new set naming only one
	// THEN: The old set is replaced, not merged

	ledger := newTestLedger()
	ctx := context.Background()

	require.True(t, ledger.SaveExceptions(ctx, 236, exceptions.PeriodExceptions{
		"ali": {VacationDays: 2},
		"gul": {OnCall: true},
	}))
	require.True(t, ledger.SaveExceptions(ctx, 236, exceptions.PeriodExceptions{
		"ali": {VacationDays: 1},
	}))

	loaded := ledger.LoadExceptions(ctx, 236)
	assert.Len(t, loaded, 1)
	assert.Equal(t, 1, loaded["ali"].VacationDays)
}

func TestLedger_SprintsAreIndependent(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()

	require.True(t, ledger.SaveExceptions(ctx, 236, exceptions.PeriodExceptions{"ali": {OnCall: true}}))
	require.True(t, ledger.SaveExceptions(ctx, 237, exceptions.PeriodExceptions{"gul": {VacationDays: 5}}))

	assert.Len(t, ledger.LoadExceptions(ctx, 236), 1)
	assert.Len(t, ledger.LoadExceptions(ctx, 237), 1)
	assert.Contains(t, ledger.LoadExceptions(ctx, 236), "ali")
	assert.Contains(t, ledger.LoadExceptions(ctx, 237), "gul")
}

func TestLedger_ClearPeriod(t *testing.T) {
	// GIVEN: Sprint 236 has entries
	// WHEN: Clearing the sprint
	// THEN: Its entries are gone while other sprints keep theirs

	ledger := newTestLedger()
	ctx := context.Background()

	require.True(t, ledger.SaveExceptions(ctx, 236, exceptions.PeriodExceptions{"ali": {OnCall: true}}))
	require.True(t, ledger.SaveExceptions(ctx, 237, exceptions.PeriodExceptions{"gul": {OnCall: true}}))

	assert.True(t, ledger.ClearPeriod(ctx, 236))

	assert.Empty(t, ledger.LoadExceptions(ctx, 236))
	assert.Len(t, ledger.LoadExceptions(ctx, 237), 1)
}

func TestLedger_ClearPeriod_NothingRecorded_Succeeds(t *testing.T) {
	ledger := newTestLedger()
	assert.True(t, ledger.ClearPeriod(context.Background(), 999))
}

func TestLedger_Sprinters_DistinctAndSorted(t *testing.T) {
	// GIVEN: Entries across several sprints with overlapping sprinters
	// WHEN: Listing sprinters
	// THEN: Each id appears once, sorted

	ledger := newTestLedger()
	ctx := context.Background()

	require.True(t, ledger.SaveExceptions(ctx, 235, exceptions.PeriodExceptions{
		"zeynep": {OnCall: true},
		"ali":    {VacationDays: 1},
	}))
	require.True(t, ledger.SaveExceptions(ctx, 236, exceptions.PeriodExceptions{
		"ali": {VacationDays: 2},
		"gul": {CustomerDelegate: true},
	}))

	assert.Equal(t, []string{"ali", "gul", "zeynep"}, ledger.Sprinters(ctx))
}

func TestLedger_Sprinters_EmptyLedger(t *testing.T) {
	ledger := newTestLedger()
	assert.Empty(t, ledger.Sprinters(context.Background()))
}

// =============================================================================
// SETTINGS TESTS
// =============================================================================

func TestLedger_GetSettings_DefaultsWhenEmpty(t *testing.T) {
	// GIVEN: A ledger that has never been written
	// WHEN: Reading settings
	// THEN: The built-in defaults come back complete

	ledger := newTestLedger()

	settings := ledger.GetSettings(context.Background())
	assert.Equal(t, exceptions.DefaultSettings(), settings)
	assert.Equal(t, 21.0, settings[exceptions.SettingTargetSPPerPerson])

	// A second read with no intervening update yields the same mapping.
	assert.Equal(t, settings, ledger.GetSettings(context.Background()))
}

func TestLedger_UpdateSettings_PartialMerge(t *testing.T) {
	// GIVEN: Stored settings with a custom target
	// WHEN: Updating a different parameter
	// THEN: The custom target survives and untouched parameters stay default

	ledger := newTestLedger()
	ctx := context.Background()

	require.True(t, ledger.UpdateSettings(ctx, exceptions.Settings{
		exceptions.SettingTargetSPPerPerson: 25,
	}))
	require.True(t, ledger.UpdateSettings(ctx, exceptions.Settings{
		exceptions.SettingOnCallReductionSP: 4,
	}))

	settings := ledger.GetSettings(ctx)
	assert.Equal(t, 25.0, settings[exceptions.SettingTargetSPPerPerson])
	assert.Equal(t, 4.0, settings[exceptions.SettingOnCallReductionSP])
	assert.Equal(t, 0.7, settings[exceptions.SettingTargetPushFactor])
}

func TestLedger_UpdateSettings_DoesNotTouchExceptions(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()

	require.True(t, ledger.SaveExceptions(ctx, 236, exceptions.PeriodExceptions{"ali": {OnCall: true}}))
	require.True(t, ledger.UpdateSettings(ctx, exceptions.Settings{
		exceptions.SettingMinSPThreshold: 4,
	}))

	assert.Len(t, ledger.LoadExceptions(ctx, 236), 1)
}

// =============================================================================
// SETTINGS ACCESSOR TESTS
// =============================================================================

func TestSettings_AccessorsFallBackToDefaults(t *testing.T) {
	partial := exceptions.Settings{exceptions.SettingTargetSPPerPerson: 30}

	assert.Equal(t, 30.0, partial.Float(exceptions.SettingTargetSPPerPerson))
	assert.Equal(t, 5, partial.Int(exceptions.SettingSprintWorkingDays))
	assert.True(t, partial.Decimal(exceptions.SettingTargetPushFactor).Equal(
		exceptions.DefaultSettings().Decimal(exceptions.SettingTargetPushFactor)))
}

func TestSettings_MergeDoesNotMutateReceiver(t *testing.T) {
	base := exceptions.Settings{"a": 1}
	merged := base.Merge(exceptions.Settings{"a": 2, "b": 3})

	assert.Equal(t, 1.0, base["a"])
	assert.Equal(t, 2.0, merged["a"])
	assert.Equal(t, 3.0, merged["b"])
}
