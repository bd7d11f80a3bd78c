/*
period.go - Month-aligned calendar periods

PURPOSE:
  Defines the Period value type used by every other component: a closed,
  inclusive calendar interval that always starts on the first day of a
  month and ends on the last day of a month.

WHY MONTH-ALIGNED?
  The benefit is granted and paid per calendar month. Rates are looked up
  per month, deductions apply per month, and payment lines cover whole
  months. Enforcing alignment at construction time means no downstream
  code ever has to handle a partial month.

VALUE SEMANTICS:
  Periods are immutable value objects. They are never mutated in place,
  only replaced. All operations return new values.

SEE ALSO:
  - deduction.go: Deductions carry a Period
  - calculation.go: Slices the input period into months
  - ../ledger/line.go: Payment lines carry a Period
*/
package benefit

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Closed, inclusive, month-aligned interval
// =============================================================================

// Period is a closed calendar interval [From, To], both inclusive.
//
// INVARIANTS (enforced by NewPeriod):
//   - From is the first day of a month
//   - To is the last day of a month
//   - From <= To
type Period struct {
	From time.Time
	To   time.Time
}

// NewPeriod creates a validated month-aligned period.
// Returns InvalidPeriodError if the range is inverted or not month-aligned.
func NewPeriod(from, to time.Time) (Period, error) {
	from = truncateToDay(from)
	to = truncateToDay(to)

	if to.Before(from) {
		return Period{}, &InvalidPeriodError{From: from, To: to, Reason: "from is after to"}
	}
	if from.Day() != 1 {
		return Period{}, &InvalidPeriodError{From: from, To: to, Reason: "from is not the first day of a month"}
	}
	if !isLastDayOfMonth(to) {
		return Period{}, &InvalidPeriodError{From: from, To: to, Reason: "to is not the last day of a month"}
	}
	return Period{From: from, To: to}, nil
}

// Month returns the single-month period for the given year and month.
func Month(year int, month time.Month) Period {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{From: from, To: lastDayOfMonth(from)}
}

// MonthOf returns the single-month period containing the given date.
func MonthOf(date time.Time) Period {
	return Month(date.Year(), date.Month())
}

// Contains returns true if other lies entirely within p.
func (p Period) Contains(other Period) bool {
	return !other.From.Before(p.From) && !other.To.After(p.To)
}

// ContainsDate returns true if the date falls within [From, To].
func (p Period) ContainsDate(date time.Time) bool {
	d := truncateToDay(date)
	return !d.Before(p.From) && !d.After(p.To)
}

// Overlaps returns true if p and other share at least one day.
func (p Period) Overlaps(other Period) bool {
	return !p.From.After(other.To) && !other.From.After(p.To)
}

// Months decomposes the period into single-month periods in ascending order.
// Concatenating the slices reconstructs the original period exactly, with
// no gaps and no overlaps.
func (p Period) Months() []Period {
	months := make([]Period, 0, p.MonthCount())
	current := p.From
	for !current.After(p.To) {
		months = append(months, Period{From: current, To: lastDayOfMonth(current)})
		current = current.AddDate(0, 1, 0)
	}
	return months
}

// MonthCount returns the number of calendar months in the period.
func (p Period) MonthCount() int {
	years := p.To.Year() - p.From.Year()
	return years*12 + int(p.To.Month()) - int(p.From.Month()) + 1
}

// IsSingleMonth reports whether the period covers exactly one calendar month.
func (p Period) IsSingleMonth() bool {
	return p.From.Year() == p.To.Year() && p.From.Month() == p.To.Month()
}

func (p Period) String() string {
	return fmt.Sprintf("[%s, %s]", p.From.Format("2006-01-02"), p.To.Format("2006-01-02"))
}

// =============================================================================
// DATE HELPERS
// =============================================================================

// IsFirstOfMonth reports whether the date is the first day of its month.
func IsFirstOfMonth(date time.Time) bool {
	return date.Day() == 1
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func lastDayOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

func isLastDayOfMonth(t time.Time) bool {
	return t.Equal(lastDayOfMonth(t))
}
