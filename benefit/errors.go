/*
errors.go - Centralized error types for the calculation engine

PURPOSE:
  All expected failure modes of the calculation engine in one place.
  Every error here is a deterministic validation outcome returned as a
  value - never a panic. Callers match with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Input validation - the caller sent an inconsistent request and must
     fix and resubmit. Never retried automatically.
  2. Rate lookup - the rate table has no entry for the requested date.
     This is a data/config gap upstream, not a caller bug, and is
     surfaced as a hard failure rather than defaulted to zero.

SEE ALSO:
  - input.go: Uses the validation errors
  - rates.go: Uses RateNotDefinedError
  - ../ledger/errors.go: Ledger transition errors
*/
package benefit

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a period is inverted or not aligned
	// to whole calendar months.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrDeductionOutsidePeriod is returned when a deduction's period is not
	// contained within the calculation period.
	ErrDeductionOutsidePeriod = errors.New("deduction outside calculation period")

	// ErrExpectedIncomeCoverage is returned when the applicant's expected
	// income entries do not cover every month of the calculation period
	// exactly once.
	ErrExpectedIncomeCoverage = errors.New("missing or overlapping expected income")

	// ErrRateNotDefinedYet is returned when a rate lookup falls before the
	// table's earliest entry.
	ErrRateNotDefinedYet = errors.New("rate not defined for date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry enough context for a precise message
// =============================================================================

// InvalidPeriodError reports why a period could not be constructed.
type InvalidPeriodError struct {
	From   time.Time
	To     time.Time
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period [%s, %s]: %s",
		e.From.Format("2006-01-02"), e.To.Format("2006-01-02"), e.Reason)
}

func (e *InvalidPeriodError) Unwrap() error { return ErrInvalidPeriod }

// DeductionOutsidePeriodError identifies the offending deduction.
type DeductionOutsidePeriodError struct {
	DeductionID     uuid.UUID
	DeductionPeriod Period
	InputPeriod     Period
}

func (e *DeductionOutsidePeriodError) Error() string {
	return fmt.Sprintf("deduction %s covers %s which is outside the calculation period %s",
		e.DeductionID, e.DeductionPeriod, e.InputPeriod)
}

func (e *DeductionOutsidePeriodError) Unwrap() error { return ErrDeductionOutsidePeriod }

// ExpectedIncomeCoverageError identifies the first month where the
// applicant's expected income coverage breaks down.
type ExpectedIncomeCoverageError struct {
	Month   Period
	Entries int // expected income entries covering the month (0 = gap, >1 = overlap)
}

func (e *ExpectedIncomeCoverageError) Error() string {
	if e.Entries == 0 {
		return fmt.Sprintf("no expected income entry covers %s", e.Month)
	}
	return fmt.Sprintf("%d expected income entries overlap in %s", e.Entries, e.Month)
}

func (e *ExpectedIncomeCoverageError) Unwrap() error { return ErrExpectedIncomeCoverage }

// RateNotDefinedError reports a lookup before the table's earliest entry.
type RateNotDefinedError struct {
	Kind     RateKind
	Date     time.Time
	Earliest time.Time // zero when the table has no entries at all for the kind
}

func (e *RateNotDefinedError) Error() string {
	if e.Earliest.IsZero() {
		return fmt.Sprintf("no %s rate entries in table (lookup for %s)",
			e.Kind, e.Date.Format("2006-01-02"))
	}
	return fmt.Sprintf("no %s rate defined at %s (earliest entry is %s)",
		e.Kind, e.Date.Format("2006-01-02"), e.Earliest.Format("2006-01-02"))
}

func (e *RateNotDefinedError) Unwrap() error { return ErrRateNotDefinedYet }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidationError returns true if the error is due to invalid caller input.
// Rate lookup failures are NOT validation errors: they indicate a gap in the
// rate table configuration, not a request the caller can fix.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrDeductionOutsidePeriod) ||
		errors.Is(err, ErrExpectedIncomeCoverage)
}
