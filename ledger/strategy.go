/*
strategy.go - Payment transition generators

PURPOSE:
  The four transition variants that grow a case's payment-line chain:

    New          translate a fresh calculation into chained lines
    Stop         pause payments from a future month (reversible)
    Resume       re-emit the pre-stop amounts from a date forward
    Discontinue  terminate payments from a date (permanent)

  Each is a pure function of (existing batch history, parameters, clock).
  Nothing is mutated: a transition either returns a complete new batch
  for the caller to commit, or a validation error. Invalid transitions
  are rejected rather than silently producing bad financial data.

SERIALIZATION:
  Validity depends on the supplied history not changing underneath the
  transition, so the caller must serialize transitions per case. Two
  cases are fully independent.

SEE ALSO:
  - state.go: State inference and timeline replay these build on
  - errors.go: The full rejection taxonomy
  - ../api/handlers.go: The serializing caller
*/
package ledger

import (
	"time"

	"github.com/velferd/benefit-engine/benefit"
)

// =============================================================================
// GENERATOR
// =============================================================================

// Generator produces payment batches. It holds the clock and the
// reconciliation key source; all other inputs arrive per call.
type Generator struct {
	clock Clock
	keys  *KeyGenerator
}

// NewGenerator creates a generator over an explicit clock and key source.
func NewGenerator(clock Clock, keys *KeyGenerator) *Generator {
	return &Generator{clock: clock, keys: keys}
}

// lineSpec is an unchained line before identity and linking are assigned.
type lineSpec struct {
	period benefit.Period
	amount int64
}

// assemble stamps identity, chain links and the reconciliation key onto a
// non-empty set of line specs.
func (g *Generator) assemble(caseID CaseID, kind BatchKind, prev LineID, specs []lineSpec) Batch {
	now := g.clock.Now().UTC()
	lines := make([]PaymentLine, 0, len(specs))
	for _, spec := range specs {
		line := PaymentLine{
			ID:             newLineID(),
			CreatedAt:      now,
			Period:         spec.period,
			Amount:         spec.amount,
			PreviousLineID: prev,
			Kind:           kind,
		}
		lines = append(lines, line)
		prev = line.ID
	}
	return Batch{
		ID:        newBatchID(),
		CaseID:    caseID,
		Kind:      kind,
		Key:       g.keys.Next(),
		CreatedAt: now,
		Lines:     lines,
	}
}

// =============================================================================
// NEW - Translate a calculation into chained lines
// =============================================================================

// New emits one line per monthly result of the calculation, chained to the
// existing head. Legal on an empty ledger, to extend an active one, or to
// re-grant after a discontinuation. Fails with OverlapError if the
// calculation's period intersects any line not superseded by an explicit
// discontinuation.
func (g *Generator) New(caseID CaseID, history []Batch, calc benefit.Calculation) (Batch, error) {
	state := StateOf(history)
	if state.Kind == StateStopped {
		return Batch{}, &IllegalTransitionError{Requested: BatchNew, State: state.Kind}
	}

	timeline := BuildTimeline(history)
	for _, month := range calc.Period.Months() {
		if entry, ok := timeline.entryAt(month.From); ok && entry.Kind != BatchDiscontinue {
			return Batch{}, &OverlapError{Month: month.From, ConflictingLineID: entry.LineID}
		}
	}

	specs := make([]lineSpec, 0, len(calc.Months))
	for _, m := range calc.Months {
		specs = append(specs, lineSpec{period: m.Period, amount: m.GrossBenefit})
	}
	return g.assemble(caseID, BatchNew, headLineID(history), specs), nil
}

// =============================================================================
// STOP - Pause payments from a future month
// =============================================================================

// Stop zeroes every active line from stopDate onward; months before the
// boundary keep paying through their original lines. The stop date must
// be the first day of a month strictly after the current month.
func (g *Generator) Stop(caseID CaseID, history []Batch, stopDate time.Time) (Batch, error) {
	switch state := StateOf(history); state.Kind {
	case StateEmpty:
		return Batch{}, &NoActiveLinesError{From: stopDate}
	case StateStopped:
		return Batch{}, ErrAlreadyStopped
	case StateDiscontinued:
		return Batch{}, ErrCannotStopDiscontinued
	}

	if !benefit.IsFirstOfMonth(stopDate) {
		return Batch{}, &TransitionDateError{Date: stopDate, Reason: "must be the first day of a month"}
	}
	nextMonth := benefit.MonthOf(g.clock.Now()).To.AddDate(0, 0, 1)
	if stopDate.Before(nextMonth) {
		return Batch{}, &TransitionDateError{Date: stopDate, Reason: "must be strictly after the current month"}
	}

	specs := zeroedFrom(BuildTimeline(history), stopDate)
	if len(specs) == 0 {
		return Batch{}, &NoActiveLinesError{From: stopDate}
	}
	return g.assemble(caseID, BatchStop, headLineID(history), specs), nil
}

// =============================================================================
// RESUME - Re-emit the pre-stop amounts
// =============================================================================

// Resume re-emits the amounts that were in effect before the stop, from
// resumeDate forward, chained to the stop batch's lines. Legal only on a
// stopped ledger.
func (g *Generator) Resume(caseID CaseID, history []Batch, resumeDate time.Time) (Batch, error) {
	if state := StateOf(history); state.Kind != StateStopped {
		return Batch{}, ErrNotCurrentlyStopped
	}
	if !benefit.IsFirstOfMonth(resumeDate) {
		return Batch{}, &TransitionDateError{Date: resumeDate, Reason: "must be the first day of a month"}
	}

	// The amounts to restore are the effective timeline as it stood before
	// the trailing stop batch.
	preStop := BuildTimeline(history[:len(history)-1])

	var specs []lineSpec
	for _, seg := range preStop.SegmentsOnOrAfter(resumeDate) {
		period := seg.Period
		if period.From.Before(resumeDate) {
			period.From = resumeDate
		}
		specs = append(specs, lineSpec{period: period, amount: seg.Amount})
	}
	if len(specs) == 0 {
		return Batch{}, &NoActiveLinesError{From: resumeDate}
	}
	return g.assemble(caseID, BatchResume, headLineID(history), specs), nil
}

// =============================================================================
// DISCONTINUE - Terminate payments permanently
// =============================================================================

// Discontinue zeroes all amounts from fromDate onward, permanently: no
// resume is possible for that tail, only a later re-grant via New. Legal
// from an active or stopped ledger. Fails if the requested tail is still
// effectively discontinued; a discontinuation superseded by a re-grant no
// longer covers its months and does not conflict.
func (g *Generator) Discontinue(caseID CaseID, history []Batch, fromDate time.Time) (Batch, error) {
	if state := StateOf(history); state.Kind == StateEmpty {
		return Batch{}, &NoActiveLinesError{From: fromDate}
	}
	if !benefit.IsFirstOfMonth(fromDate) {
		return Batch{}, &TransitionDateError{Date: fromDate, Reason: "must be the first day of a month"}
	}

	// Conflicts live in the replayed timeline, not in raw batch ranges:
	// a month counts as already discontinued only while no later batch
	// has superseded it.
	timeline := BuildTimeline(history)
	for _, seg := range timeline.Segments() {
		if seg.Kind != BatchDiscontinue || seg.Period.To.Before(fromDate) {
			continue
		}
		return Batch{}, &DiscontinuationConflictError{
			RequestedFrom: fromDate,
			ExistingBatch: batchOfLine(history, seg.LineID),
			ExistingFrom:  seg.Period.From,
		}
	}

	specs := zeroedFrom(timeline, fromDate)
	if len(specs) == 0 {
		return Batch{}, &NoActiveLinesError{From: fromDate}
	}
	return g.assemble(caseID, BatchDiscontinue, headLineID(history), specs), nil
}

// batchOfLine returns the id of the batch that produced a line.
func batchOfLine(history []Batch, lineID LineID) BatchID {
	for _, b := range history {
		for _, l := range b.Lines {
			if l.ID == lineID {
				return b.ID
			}
		}
	}
	return ""
}

// zeroedFrom builds zeroed specs for every non-discontinued segment
// intersecting [from, infinity), clipped at the boundary. Months before
// the boundary are untouched: the replay keeps paying them through the
// original lines.
func zeroedFrom(timeline Timeline, from time.Time) []lineSpec {
	var specs []lineSpec
	for _, seg := range timeline.SegmentsOnOrAfter(from) {
		period := seg.Period
		if period.From.Before(from) {
			period.From = from
		}
		specs = append(specs, lineSpec{period: period, amount: 0})
	}
	return specs
}
