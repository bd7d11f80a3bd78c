/*
deduction.go - Typed, period-scoped monetary deductions

PURPOSE:
  A Deduction is an immutable monthly monetary item that reduces the
  benefit, attributed to either the applicant or the co-habitant. A raw
  list of deductions is the unit of input to calculation.

IMMUTABILITY:
  Deductions are created once and never mutated. Corrections are new
  values. Slicing a deduction to a month produces a new value with the
  same identity (same ID), so a monthly result can still point back at
  the originating deduction.

APPORTIONMENT:
  MonthlyAmount is a per-month amount. A deduction spanning several
  months contributes its full MonthlyAmount to each covered month - even
  calendar-month apportionment, never division by 30.

SEE ALSO:
  - strategy.go: Filters, merges and caps the per-month deduction set
  - input.go: Validates a raw deduction list against the period
*/
package benefit

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DEDUCTION TYPES AND OWNERSHIP
// =============================================================================

// DeductionType classifies the income source behind a deduction.
type DeductionType string

const (
	EarnedIncome   DeductionType = "earned_income"
	ExpectedIncome DeductionType = "expected_income"
	Pension        DeductionType = "pension"
	CapitalIncome  DeductionType = "capital_income"
	ForeignIncome  DeductionType = "foreign_income"

	// OtherIncome carries a free-text description of the source.
	OtherIncome DeductionType = "other"

	// ComputedForCoHabitant is never supplied by callers. It is produced by
	// deduction strategies when co-habitant income is consolidated or capped.
	ComputedForCoHabitant DeductionType = "computed_for_co_habitant"
)

// DeductionOwner attributes the income to a household member.
type DeductionOwner string

const (
	OwnerApplicant  DeductionOwner = "applicant"
	OwnerCoHabitant DeductionOwner = "co_habitant"
)

// ForeignIncomeDetails is opaque to the engine: it is carried through for
// letter generation but never enters the arithmetic (the converted
// MonthlyAmount does).
type ForeignIncomeDetails struct {
	Currency     string
	AnnualAmount decimal.Decimal
	ExchangeRate decimal.Decimal
}

// =============================================================================
// DEDUCTION - Immutable value
// =============================================================================

// Deduction is one monthly monetary item reducing the benefit over a period.
type Deduction struct {
	ID            uuid.UUID
	Type          DeductionType
	Description   string // free text, only meaningful for OtherIncome
	MonthlyAmount decimal.Decimal
	Period        Period
	Owner         DeductionOwner
	Foreign       *ForeignIncomeDetails
}

// NewDeduction creates a deduction with a fresh identity.
// The amount must be non-negative; negative income is not a deduction.
func NewDeduction(t DeductionType, monthly decimal.Decimal, period Period, owner DeductionOwner) (Deduction, error) {
	if monthly.IsNegative() {
		return Deduction{}, &InvalidDeductionError{Type: t, Amount: monthly}
	}
	return Deduction{
		ID:            uuid.New(),
		Type:          t,
		MonthlyAmount: monthly,
		Period:        period,
		Owner:         owner,
	}, nil
}

// SliceToMonth returns the deduction's contribution to a single month.
// The second return is false if the deduction does not touch the month.
// Identity and amount are preserved; only the period narrows.
func (d Deduction) SliceToMonth(month Period) (Deduction, bool) {
	if !d.Period.Overlaps(month) {
		return Deduction{}, false
	}
	sliced := d
	sliced.Period = month
	return sliced, true
}

// SliceAllToMonth slices every deduction that touches the month.
func SliceAllToMonth(month Period, deductions []Deduction) []Deduction {
	var sliced []Deduction
	for _, d := range deductions {
		if s, ok := d.SliceToMonth(month); ok {
			sliced = append(sliced, s)
		}
	}
	return sliced
}

// SumMonthlyAmounts totals the per-month amounts of a deduction set.
func SumMonthlyAmounts(deductions []Deduction) decimal.Decimal {
	total := decimal.Zero
	for _, d := range deductions {
		total = total.Add(d.MonthlyAmount)
	}
	return total
}

// InvalidDeductionError reports a deduction that could not be constructed.
type InvalidDeductionError struct {
	Type   DeductionType
	Amount decimal.Decimal
}

func (e *InvalidDeductionError) Error() string {
	return "invalid deduction of type " + string(e.Type) + ": amount " + e.Amount.String() + " is negative"
}
