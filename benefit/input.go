/*
input.go - Validated calculation input

PURPOSE:
  CalculationInput pairs a period with a raw deduction list and can only
  be constructed through validation: an invalid combination cannot exist
  as a value. The calculation itself never re-checks these rules.

RULES (checked in order, first failure wins):
  1. Every deduction's period must lie within the calculation period.
  2. Exactly one applicant-owned expected income entry must cover every
     month of the period - no gaps, no overlaps between distinct entries.

WHY RULE 2?
  The engine must never silently assume zero forecast income for an
  unconsidered month. In a means-tested benefit that omission would
  overpay, so a gap is a hard validation failure.
*/
package benefit

// =============================================================================
// CALCULATION INPUT - Constructed only through validation
// =============================================================================

// CalculationInput is a period plus deductions that passed validation.
// Fields are unexported so the only way to obtain one is NewCalculationInput.
type CalculationInput struct {
	period     Period
	deductions []Deduction
}

// NewCalculationInput validates the raw deduction list against the period.
func NewCalculationInput(period Period, deductions []Deduction) (CalculationInput, error) {
	for _, d := range deductions {
		if !period.Contains(d.Period) {
			return CalculationInput{}, &DeductionOutsidePeriodError{
				DeductionID:     d.ID,
				DeductionPeriod: d.Period,
				InputPeriod:     period,
			}
		}
	}

	if err := validateExpectedIncomeCoverage(period, deductions); err != nil {
		return CalculationInput{}, err
	}

	return CalculationInput{period: period, deductions: deductions}, nil
}

// Period returns the validated calculation period.
func (in CalculationInput) Period() Period { return in.period }

// Deductions returns a copy of the validated deduction list.
func (in CalculationInput) Deductions() []Deduction {
	out := make([]Deduction, len(in.deductions))
	copy(out, in.deductions)
	return out
}

// validateExpectedIncomeCoverage requires every month of the period to be
// covered by exactly one applicant-owned expected income entry.
func validateExpectedIncomeCoverage(period Period, deductions []Deduction) error {
	var expected []Deduction
	for _, d := range deductions {
		if d.Owner == OwnerApplicant && d.Type == ExpectedIncome {
			expected = append(expected, d)
		}
	}

	for _, month := range period.Months() {
		covering := 0
		for _, d := range expected {
			if d.Period.Overlaps(month) {
				covering++
			}
		}
		if covering != 1 {
			return &ExpectedIncomeCoverageError{Month: month, Entries: covering}
		}
	}
	return nil
}
