/*
strategy.go - Per-composition deduction strategies

PURPOSE:
  One strategy variant per household composition. Given a month's sliced
  deductions, a strategy decides which deductions are actually considered
  against the benefit: applicant income precedence, co-habitant income
  consolidation, and free-amount capping.

SHARED PRE-STEP (all variants):
  For the applicant's own income, keep only the larger of
  {sum of earned income, sum of expected income} and drop the smaller.
  Actual income is used once known, a forecast otherwise - never both.

VARIANT STEPS:
  Alone:                     drop all co-habitant deductions
  CoHabitantOver67:          co-habitant income above the guarantee-rate
                             free amount becomes one computed entry
  CoHabitantUnder67Disabled: same capping, free amount from the ordinary
                             rate tier instead of the guarantee rate
  CoHabitantUnder67Other:    all co-habitant income consolidated into one
                             computed entry, no free amount

FREE AMOUNT:
  Every variant exposes FreeAmount(month) so letter generation can explain
  the threshold without running the strategy. It is derived from the same
  date-indexed tables as the strategy itself.

SEE ALSO:
  - household.go: TierFor uses the same composition value
  - calculation.go: Runs the strategy once per month
*/
package benefit

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// STRATEGY INTERFACE
// =============================================================================

// DeductionStrategy filters, merges and caps a month's sliced deductions.
// Implementations are pure: same inputs and rate table snapshot, same output.
type DeductionStrategy interface {
	// Composition identifies which variant this is.
	Composition() HouseholdComposition

	// Consider returns the deductions counted against the benefit for the
	// month. Input deductions must already be sliced to the month.
	Consider(month Period, deductions []Deduction) ([]Deduction, error)

	// FreeAmount returns the monthly co-habitant income threshold below
	// which no deduction applies. Zero for variants without capping.
	FreeAmount(month Period) (decimal.Decimal, error)
}

// StrategyFor returns the strategy variant for a household composition.
// The same composition value selects the rate tier via TierFor, so the
// two can never disagree.
func StrategyFor(c HouseholdComposition, rates *RateTable) DeductionStrategy {
	switch c {
	case CoHabitantOver67:
		return &coHabitantOver67Strategy{rates: rates}
	case CoHabitantUnder67Disabled:
		return &coHabitantUnder67DisabledStrategy{rates: rates}
	case CoHabitantUnder67Other:
		return &coHabitantUnder67OtherStrategy{}
	default:
		return &aloneStrategy{}
	}
}

// =============================================================================
// SHARED PRE-STEP - Applicant income precedence
// =============================================================================

// applyIncomePrecedence keeps the larger of the applicant's earned and
// expected income sums and drops the smaller category entirely.
// Ties keep earned income: actual income wins over the forecast.
func applyIncomePrecedence(deductions []Deduction) []Deduction {
	earned := decimal.Zero
	expected := decimal.Zero
	for _, d := range deductions {
		if d.Owner != OwnerApplicant {
			continue
		}
		switch d.Type {
		case EarnedIncome:
			earned = earned.Add(d.MonthlyAmount)
		case ExpectedIncome:
			expected = expected.Add(d.MonthlyAmount)
		}
	}

	drop := ExpectedIncome
	if expected.GreaterThan(earned) {
		drop = EarnedIncome
	}

	kept := make([]Deduction, 0, len(deductions))
	for _, d := range deductions {
		if d.Owner == OwnerApplicant && d.Type == drop {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// splitByOwner partitions a deduction set into applicant and co-habitant sets.
func splitByOwner(deductions []Deduction) (applicant, coHabitant []Deduction) {
	for _, d := range deductions {
		if d.Owner == OwnerCoHabitant {
			coHabitant = append(coHabitant, d)
		} else {
			applicant = append(applicant, d)
		}
	}
	return applicant, coHabitant
}

// computedCoHabitantEntry consolidates co-habitant income into the single
// entry the calculation considers.
func computedCoHabitantEntry(month Period, amount decimal.Decimal) Deduction {
	return Deduction{
		ID:            uuid.New(),
		Type:          ComputedForCoHabitant,
		MonthlyAmount: amount,
		Period:        month,
		Owner:         OwnerCoHabitant,
	}
}

// =============================================================================
// VARIANT: ALONE
// =============================================================================

type aloneStrategy struct{}

func (s *aloneStrategy) Composition() HouseholdComposition { return Alone }

func (s *aloneStrategy) Consider(month Period, deductions []Deduction) ([]Deduction, error) {
	applicant, _ := splitByOwner(applyIncomePrecedence(deductions))
	return applicant, nil
}

func (s *aloneStrategy) FreeAmount(month Period) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// =============================================================================
// VARIANT: CO-HABITANT OVER 67
// =============================================================================

type coHabitantOver67Strategy struct {
	rates *RateTable
}

func (s *coHabitantOver67Strategy) Composition() HouseholdComposition { return CoHabitantOver67 }

func (s *coHabitantOver67Strategy) Consider(month Period, deductions []Deduction) ([]Deduction, error) {
	return capCoHabitant(s, month, deductions)
}

func (s *coHabitantOver67Strategy) FreeAmount(month Period) (decimal.Decimal, error) {
	return s.rates.MonthlyGuarantee(month.From)
}

// =============================================================================
// VARIANT: CO-HABITANT UNDER 67, DISABLED
// =============================================================================

type coHabitantUnder67DisabledStrategy struct {
	rates *RateTable
}

func (s *coHabitantUnder67DisabledStrategy) Composition() HouseholdComposition {
	return CoHabitantUnder67Disabled
}

func (s *coHabitantUnder67DisabledStrategy) Consider(month Period, deductions []Deduction) ([]Deduction, error) {
	return capCoHabitant(s, month, deductions)
}

func (s *coHabitantUnder67DisabledStrategy) FreeAmount(month Period) (decimal.Decimal, error) {
	return s.rates.MonthlyRate(TierOrdinary, month.From)
}

// capCoHabitant implements the capped variants: co-habitant income up to
// the free amount is ignored; only the excess is considered, as a single
// computed entry.
func capCoHabitant(s DeductionStrategy, month Period, deductions []Deduction) ([]Deduction, error) {
	applicant, coHabitant := splitByOwner(applyIncomePrecedence(deductions))

	free, err := s.FreeAmount(month)
	if err != nil {
		return nil, err
	}

	excess := SumMonthlyAmounts(coHabitant).Sub(free)
	if excess.IsPositive() {
		applicant = append(applicant, computedCoHabitantEntry(month, excess))
	}
	return applicant, nil
}

// =============================================================================
// VARIANT: CO-HABITANT UNDER 67, OTHER
// =============================================================================

type coHabitantUnder67OtherStrategy struct{}

func (s *coHabitantUnder67OtherStrategy) Composition() HouseholdComposition {
	return CoHabitantUnder67Other
}

func (s *coHabitantUnder67OtherStrategy) Consider(month Period, deductions []Deduction) ([]Deduction, error) {
	applicant, coHabitant := splitByOwner(applyIncomePrecedence(deductions))

	// No cap: the full co-habitant income counts, consolidated per month.
	total := SumMonthlyAmounts(coHabitant)
	if total.IsPositive() {
		applicant = append(applicant, computedCoHabitantEntry(month, total))
	}
	return applicant, nil
}

func (s *coHabitantUnder67OtherStrategy) FreeAmount(month Period) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
