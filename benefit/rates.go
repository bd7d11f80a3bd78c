/*
rates.go - Date-indexed rate table lookup

PURPOSE:
  The RateTable holds the enacted history of the two externally supplied
  rate kinds: the base amount and the guarantee rate. Both are yearly
  amounts with an effective-from date. Lookups always answer "what was
  the rate at this date", never "what is the rate now" - that is what
  makes historical calculations reproducible bit-for-bit.

SCALING:
  The benefit itself is a multiple of the base amount:
    High tier:     2.48 x base amount per year
    Ordinary tier: 2.28 x base amount per year
  Monthly amounts are the yearly amount divided by 12, kept as exact
  decimals; rounding to whole currency units happens only at the very
  end of a month's calculation.

READ-ONLY:
  The table is supplied wholesale by an external collaborator and never
  mutated here. A later table update is a new RateTable value.

SEE ALSO:
  - factory/rates.go: Builds a RateTable from a YAML config file
  - calculation.go: Looks up the rate "as of" each computed month
  - strategy.go: Derives free amounts from the same table
*/
package benefit

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE KINDS AND ENTRIES
// =============================================================================

// RateKind identifies which externally maintained rate history an entry
// belongs to.
type RateKind string

const (
	// RateBase is the base amount the benefit tiers scale from.
	RateBase RateKind = "base"

	// RateGuarantee is the minimum-guarantee rate used to derive the
	// co-habitant free amount for the over-67 composition.
	RateGuarantee RateKind = "guarantee"
)

// RateEntry is one enacted amendment: the yearly amount in force from
// EffectiveFrom until the next entry's EffectiveFrom.
type RateEntry struct {
	EffectiveFrom time.Time
	YearlyAmount  decimal.Decimal
}

// Tier scaling factors, fixed by regulation.
var (
	factorHigh     = decimal.RequireFromString("2.48")
	factorOrdinary = decimal.RequireFromString("2.28")

	twelve = decimal.NewFromInt(12)
)

// =============================================================================
// RATE TABLE
// =============================================================================

// RateTable is a read-only, date-ordered lookup over enacted rate changes.
type RateTable struct {
	entries map[RateKind][]RateEntry // sorted ascending by EffectiveFrom
}

// NewRateTable builds a table from base-amount and guarantee-rate histories.
// Entries may be supplied in any order; they are sorted by effective date.
func NewRateTable(base, guarantee []RateEntry) *RateTable {
	t := &RateTable{entries: map[RateKind][]RateEntry{
		RateBase:      sortEntries(base),
		RateGuarantee: sortEntries(guarantee),
	}}
	return t
}

func sortEntries(entries []RateEntry) []RateEntry {
	sorted := make([]RateEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})
	return sorted
}

// YearlyRate returns the most recent yearly amount effective at or before
// the given date. Fails with RateNotDefinedError for dates before the
// earliest entry - a missing rate is a configuration gap, never zero.
func (t *RateTable) YearlyRate(kind RateKind, at time.Time) (decimal.Decimal, error) {
	entries := t.entries[kind]
	if len(entries) == 0 {
		return decimal.Zero, &RateNotDefinedError{Kind: kind, Date: at}
	}
	if at.Before(entries[0].EffectiveFrom) {
		return decimal.Zero, &RateNotDefinedError{Kind: kind, Date: at, Earliest: entries[0].EffectiveFrom}
	}

	// Last entry with EffectiveFrom <= at.
	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].EffectiveFrom.After(at)
	}) - 1
	return entries[idx].YearlyAmount, nil
}

// MonthlyRate returns the tier-scaled monthly benefit rate at the date.
func (t *RateTable) MonthlyRate(tier RateTier, at time.Time) (decimal.Decimal, error) {
	base, err := t.YearlyRate(RateBase, at)
	if err != nil {
		return decimal.Zero, err
	}
	factor := factorOrdinary
	if tier == TierHigh {
		factor = factorHigh
	}
	return base.Mul(factor).Div(twelve), nil
}

// MonthlyGuarantee returns the monthly guarantee-rate amount at the date,
// used as the free amount for the over-67 co-habitant composition.
func (t *RateTable) MonthlyGuarantee(at time.Time) (decimal.Decimal, error) {
	yearly, err := t.YearlyRate(RateGuarantee, at)
	if err != nil {
		return decimal.Zero, err
	}
	return yearly.Div(twelve), nil
}
