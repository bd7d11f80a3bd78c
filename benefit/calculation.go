/*
calculation.go - Per-month benefit calculation

PURPOSE:
  Applies the rate table and the deduction strategy month by month to
  produce the per-month and aggregate result. This is the function every
  payment line ultimately derives from.

ALGORITHM (per month of the input period):
  1. Slice every deduction into its within-month contribution
  2. Run the composition's strategy to obtain the considered subset
  3. Look up the tier-scaled monthly rate "as of" the month's start
  4. totalDeduction = sum of considered amounts, capped at the rate
  5. grossBenefit  = max(0, rate - totalDeduction), rounded half-up to a
     whole currency unit

DETERMINISM:
  Pure function. All rate lookups are "as of" the month being computed,
  never "as of now", so recomputing a historical calculation against a
  later rate table snapshot reproduces the original result bit-for-bit.
  The only non-deterministic inputs (creation time, identity) are passed
  in explicitly and never touch the monthly results.

INVARIANTS (hold for every MonthlyResult):
  - grossBenefit >= 0
  - totalDeduction <= rateAmount (deductions are floored, never carried
    over into the next month)

SEE ALSO:
  - input.go: The validated input this consumes
  - ../ledger/strategy.go: Turns a Calculation into payment lines
*/
package benefit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// MonthlyResult is the outcome for one calendar month.
type MonthlyResult struct {
	Period         Period
	GrossBenefit   int64 // whole currency units, never negative
	TotalDeduction decimal.Decimal
	RateAmount     decimal.Decimal
	Considered     []Deduction
}

// Calculation is the immutable result of one calculation run.
// A new calculation replaces it; it is never mutated in place.
type Calculation struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	Period      Period
	Composition HouseholdComposition
	Tier        RateTier
	Deductions  []Deduction
	Months      []MonthlyResult
}

// TotalGross sums the gross benefit over all months.
func (c Calculation) TotalGross() int64 {
	var total int64
	for _, m := range c.Months {
		total += m.GrossBenefit
	}
	return total
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator binds a rate table snapshot. It holds no mutable state and is
// safe for concurrent use.
type Calculator struct {
	Rates *RateTable
}

// NewCalculator creates a calculator over a rate table snapshot.
func NewCalculator(rates *RateTable) *Calculator {
	return &Calculator{Rates: rates}
}

// Compute runs the calculation for a validated input and composition.
// now is only stamped on the result; it never influences the amounts.
func (c *Calculator) Compute(input CalculationInput, composition HouseholdComposition, now time.Time) (Calculation, error) {
	strategy := StrategyFor(composition, c.Rates)
	tier := TierFor(composition)

	deductions := input.Deductions()
	months := input.Period().Months()
	results := make([]MonthlyResult, 0, len(months))

	for _, month := range months {
		result, err := c.computeMonth(month, deductions, tier, strategy)
		if err != nil {
			return Calculation{}, err
		}
		results = append(results, result)
	}

	return Calculation{
		ID:          uuid.New(),
		CreatedAt:   now,
		Period:      input.Period(),
		Composition: composition,
		Tier:        tier,
		Deductions:  deductions,
		Months:      results,
	}, nil
}

func (c *Calculator) computeMonth(month Period, deductions []Deduction, tier RateTier, strategy DeductionStrategy) (MonthlyResult, error) {
	sliced := SliceAllToMonth(month, deductions)

	considered, err := strategy.Consider(month, sliced)
	if err != nil {
		return MonthlyResult{}, err
	}

	rate, err := c.Rates.MonthlyRate(tier, month.From)
	if err != nil {
		return MonthlyResult{}, err
	}

	// Deductions never push the result negative: they are capped at the
	// rate and floored, not carried over.
	total := SumMonthlyAmounts(considered)
	if total.GreaterThan(rate) {
		total = rate
	}

	gross := rate.Sub(total).Round(0).IntPart()
	if gross < 0 {
		gross = 0
	}

	return MonthlyResult{
		Period:         month,
		GrossBenefit:   gross,
		TotalDeduction: total,
		RateAmount:     rate,
		Considered:     considered,
	}, nil
}
