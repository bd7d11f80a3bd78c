package benefit_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velferd/benefit-engine/benefit"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// testRateTable uses round numbers so that tier-scaled monthly amounts are
// exact: 30000 x 2.48 / 12 = 6200 (high), 30000 x 2.28 / 12 = 5700
// (ordinary), guarantee 24000 / 12 = 2000.
func testRateTable() *benefit.RateTable {
	return benefit.NewRateTable(
		[]benefit.RateEntry{
			{EffectiveFrom: date(2024, time.May, 1), YearlyAmount: decimal.NewFromInt(30000)},
			{EffectiveFrom: date(2025, time.May, 1), YearlyAmount: decimal.NewFromInt(36000)},
		},
		[]benefit.RateEntry{
			{EffectiveFrom: date(2024, time.May, 1), YearlyAmount: decimal.NewFromInt(24000)},
		},
	)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// LOOKUP TESTS
// =============================================================================

func TestYearlyRate_MostRecentAtOrBefore(t *testing.T) {
	// GIVEN: Two base entries, effective May 2024 and May 2025
	// WHEN: Looking up dates around the second effective date
	// THEN: Each date resolves to the most recent entry at or before it

	rates := testRateTable()

	before, err := rates.YearlyRate(benefit.RateBase, date(2025, time.April, 30))
	require.NoError(t, err)
	assert.True(t, before.Equal(decimal.NewFromInt(30000)), "got %s", before)

	onEffective, err := rates.YearlyRate(benefit.RateBase, date(2025, time.May, 1))
	require.NoError(t, err)
	assert.True(t, onEffective.Equal(decimal.NewFromInt(36000)), "got %s", onEffective)

	after, err := rates.YearlyRate(benefit.RateBase, date(2026, time.January, 1))
	require.NoError(t, err)
	assert.True(t, after.Equal(decimal.NewFromInt(36000)), "got %s", after)
}

func TestYearlyRate_BeforeEarliestEntry_Fails(t *testing.T) {
	// GIVEN: The earliest base entry is effective May 2024
	// WHEN: Looking up April 2024
	// THEN: Fails with RateNotDefinedError, never defaults to zero

	rates := testRateTable()

	_, err := rates.YearlyRate(benefit.RateBase, date(2024, time.April, 30))
	assert.ErrorIs(t, err, benefit.ErrRateNotDefinedYet)

	var rerr *benefit.RateNotDefinedError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, benefit.RateBase, rerr.Kind)
	assert.Equal(t, date(2024, time.May, 1), rerr.Earliest)
}

func TestYearlyRate_EmptyHistory_Fails(t *testing.T) {
	rates := benefit.NewRateTable(nil, nil)
	_, err := rates.YearlyRate(benefit.RateBase, date(2025, time.January, 1))
	assert.ErrorIs(t, err, benefit.ErrRateNotDefinedYet)
}

func TestYearlyRate_UnsortedInput_SortedOnConstruction(t *testing.T) {
	// GIVEN: Entries supplied newest-first
	// WHEN: Looking up a date between the two effective dates
	// THEN: The older entry is found

	rates := benefit.NewRateTable(
		[]benefit.RateEntry{
			{EffectiveFrom: date(2025, time.May, 1), YearlyAmount: decimal.NewFromInt(36000)},
			{EffectiveFrom: date(2024, time.May, 1), YearlyAmount: decimal.NewFromInt(30000)},
		},
		nil,
	)

	got, err := rates.YearlyRate(benefit.RateBase, date(2024, time.December, 1))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(30000)), "got %s", got)
}

// =============================================================================
// TIER SCALING TESTS
// =============================================================================

func TestMonthlyRate_TierScaling(t *testing.T) {
	// GIVEN: Base amount 30000 per year
	// WHEN: Computing the tier-scaled monthly rates
	// THEN: High = 30000 x 2.48 / 12 = 6200, Ordinary = 30000 x 2.28 / 12 = 5700

	rates := testRateTable()
	at := date(2024, time.June, 1)

	high, err := rates.MonthlyRate(benefit.TierHigh, at)
	require.NoError(t, err)
	assert.True(t, high.Equal(decimal.NewFromInt(6200)), "got %s", high)

	ordinary, err := rates.MonthlyRate(benefit.TierOrdinary, at)
	require.NoError(t, err)
	assert.True(t, ordinary.Equal(decimal.NewFromInt(5700)), "got %s", ordinary)
}

func TestMonthlyGuarantee(t *testing.T) {
	rates := testRateTable()

	monthly, err := rates.MonthlyGuarantee(date(2024, time.June, 1))
	require.NoError(t, err)
	assert.True(t, monthly.Equal(decimal.NewFromInt(2000)), "got %s", monthly)
}

// =============================================================================
// TIER SELECTION TESTS
// =============================================================================

func TestTierFor_CompositionMapping(t *testing.T) {
	// The composition alone decides the tier; the mapping is fixed.
	assert.Equal(t, benefit.TierHigh, benefit.TierFor(benefit.Alone))
	assert.Equal(t, benefit.TierHigh, benefit.TierFor(benefit.CoHabitantUnder67Other))
	assert.Equal(t, benefit.TierOrdinary, benefit.TierFor(benefit.CoHabitantOver67))
	assert.Equal(t, benefit.TierOrdinary, benefit.TierFor(benefit.CoHabitantUnder67Disabled))
}

func TestParseComposition(t *testing.T) {
	for _, c := range benefit.Compositions() {
		parsed, err := benefit.ParseComposition(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := benefit.ParseComposition("married")
	assert.Error(t, err)
}
