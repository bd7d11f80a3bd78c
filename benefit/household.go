/*
household.go - Household composition and rate tier selection

PURPOSE:
  HouseholdComposition is the single value that drives BOTH the rate tier
  and the deduction strategy. The two selections must always agree, so the
  mapping lives here and is never re-derived independently elsewhere.

THE FOUR COMPOSITIONS:
  Alone                    High tier, no co-habitant deductions
  CoHabitantOver67         Ordinary tier, co-habitant income capped at the
                           guarantee-rate free amount
  CoHabitantUnder67Disabled Ordinary tier, free amount from the ordinary tier
  CoHabitantUnder67Other   High tier, co-habitant income counted in full

SEE ALSO:
  - rates.go: Tier scaling factors
  - strategy.go: StrategyFor selects the deduction strategy from the
    same composition value
*/
package benefit

import "fmt"

// =============================================================================
// HOUSEHOLD COMPOSITION - Closed variant
// =============================================================================

// HouseholdComposition describes who the applicant lives with.
// It is a closed set: switch statements over it must be exhaustive.
type HouseholdComposition string

const (
	Alone                     HouseholdComposition = "alone"
	CoHabitantOver67          HouseholdComposition = "co_habitant_over_67"
	CoHabitantUnder67Disabled HouseholdComposition = "co_habitant_under_67_disabled"
	CoHabitantUnder67Other    HouseholdComposition = "co_habitant_under_67_other"
)

// Compositions lists every valid composition, for validation and iteration.
func Compositions() []HouseholdComposition {
	return []HouseholdComposition{
		Alone,
		CoHabitantOver67,
		CoHabitantUnder67Disabled,
		CoHabitantUnder67Other,
	}
}

// ParseComposition validates a raw string from the boundary.
func ParseComposition(s string) (HouseholdComposition, error) {
	for _, c := range Compositions() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown household composition %q", s)
}

// HasCoHabitant reports whether the composition includes a co-habitant.
func (c HouseholdComposition) HasCoHabitant() bool {
	return c != Alone
}

// =============================================================================
// RATE TIER - Two base monthly amounts, selected by composition
// =============================================================================

// RateTier selects which of the two scaled base amounts applies.
type RateTier string

const (
	TierHigh     RateTier = "high"
	TierOrdinary RateTier = "ordinary"
)

// TierFor maps a household composition to its rate tier.
// This mapping is a pure function and stays fixed even when the
// underlying rate table amounts change over time.
func TierFor(c HouseholdComposition) RateTier {
	switch c {
	case Alone, CoHabitantUnder67Other:
		return TierHigh
	case CoHabitantOver67, CoHabitantUnder67Disabled:
		return TierOrdinary
	default:
		// Unknown compositions cannot reach here: ParseComposition guards
		// the boundary. Defaulting to the lower tier keeps this total.
		return TierOrdinary
	}
}
