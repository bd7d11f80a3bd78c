package factory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velferd/benefit-engine/benefit"
	"github.com/velferd/benefit-engine/factory"
)

// =============================================================================
// PARSING TESTS
// =============================================================================

func TestParseRateConfig_ValidDocument(t *testing.T) {
	// GIVEN: A YAML document with both rate histories
	// WHEN: Parsing it
	// THEN: Lookups against the resulting table resolve the right amounts

	yaml := []byte(`
base_rate:
  - effective_from: 2024-05-01
    yearly_amount: "30000"
  - effective_from: 2025-05-01
    yearly_amount: "36000"
guarantee_rate:
  - effective_from: 2024-05-01
    yearly_amount: "24000"
`)

	rates, err := factory.ParseRateConfig(yaml)
	require.NoError(t, err)

	base, err := rates.YearlyRate(benefit.RateBase, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, base.Equal(decimal.NewFromInt(30000)), "got %s", base)

	guarantee, err := rates.YearlyRate(benefit.RateGuarantee, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, guarantee.Equal(decimal.NewFromInt(24000)), "got %s", guarantee)
}

func TestParseRateConfig_InvalidYAML_Rejected(t *testing.T) {
	_, err := factory.ParseRateConfig([]byte("base_rate: [not: valid"))
	assert.Error(t, err)
}

func TestParseRateConfig_InvalidDate_Rejected(t *testing.T) {
	yaml := []byte(`
base_rate:
  - effective_from: May 2024
    yearly_amount: "30000"
`)
	_, err := factory.ParseRateConfig(yaml)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "effective_from")
}

func TestParseRateConfig_DuplicateEffectiveDate_Rejected(t *testing.T) {
	// Two amounts in force on the same date is a config error, not a tiebreak.
	yaml := []byte(`
base_rate:
  - effective_from: 2024-05-01
    yearly_amount: "30000"
  - effective_from: 2024-05-01
    yearly_amount: "31000"
`)
	_, err := factory.ParseRateConfig(yaml)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestParseRateConfig_NegativeAmount_Rejected(t *testing.T) {
	yaml := []byte(`
base_rate:
  - effective_from: 2024-05-01
    yearly_amount: "-30000"
`)
	_, err := factory.ParseRateConfig(yaml)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func TestParseRateConfig_NoBaseEntries_Rejected(t *testing.T) {
	// A table without a base history cannot price a single month.
	yaml := []byte(`
guarantee_rate:
  - effective_from: 2024-05-01
    yearly_amount: "24000"
`)
	_, err := factory.ParseRateConfig(yaml)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base_rate")
}

// =============================================================================
// DEFAULT TABLE TESTS
// =============================================================================

func TestDefaultRateTable_CoversRecentHistory(t *testing.T) {
	rates := factory.DefaultRateTable()

	base, err := rates.YearlyRate(benefit.RateBase, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, base.Equal(decimal.NewFromInt(124028)), "got %s", base)

	// Before the earliest entry the table must fail loudly.
	_, err = rates.YearlyRate(benefit.RateBase, time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, benefit.ErrRateNotDefinedYet)
}
