/*
state.go - Ledger state inference and timeline replay

PURPOSE:
  The ledger's state is never stored - it is inferred from the kind of
  the most recent batch. Likewise the "effective" payment per month is
  never stored: it is the result of replaying every batch in order, with
  later lines superseding earlier ones month by month. The chain itself
  is never rewritten; replay is how supersession is resolved.

STATES:
  Empty         no batches exist
  Active        latest batch is New or Resume
  Stopped       latest batch is Stop
  Discontinued  latest batch is Discontinue

TIMELINE:
  BuildTimeline folds batches into a per-month map of effective entries.
  Segments() regroups consecutive months that came from the same line,
  so transition generators can reason in line-shaped pieces again (a
  line partially superseded by a later batch shows up as fragments).

SEE ALSO:
  - strategy.go: Every transition validates against state and timeline
*/
package ledger

import (
	"sort"
	"time"

	"github.com/velferd/benefit-engine/benefit"
)

// =============================================================================
// STATE - Inferred from the most recent batch
// =============================================================================

type StateKind string

const (
	StateEmpty        StateKind = "empty"
	StateActive       StateKind = "active"
	StateStopped      StateKind = "stopped"
	StateDiscontinued StateKind = "discontinued"
)

// State is the ledger's current state plus the chain head.
type State struct {
	Kind     StateKind
	LastLine *PaymentLine
}

// StateOf infers the state from the batch history.
func StateOf(batches []Batch) State {
	if len(batches) == 0 {
		return State{Kind: StateEmpty}
	}
	last := batches[len(batches)-1]
	head := last.LastLine()

	var kind StateKind
	switch last.Kind {
	case BatchStop:
		kind = StateStopped
	case BatchDiscontinue:
		kind = StateDiscontinued
	default:
		kind = StateActive
	}
	return State{Kind: kind, LastLine: &head}
}

// =============================================================================
// TIMELINE - Effective per-month amounts after replay
// =============================================================================

type monthEntry struct {
	Amount int64
	Kind   BatchKind
	LineID LineID
}

// Timeline is the effective payment per month after replaying a batch
// history in order.
type Timeline struct {
	months map[time.Time]monthEntry // key: month start, UTC midnight
}

// BuildTimeline replays batches in creation order. Later lines supersede
// earlier ones for the months they cover.
func BuildTimeline(batches []Batch) Timeline {
	t := Timeline{months: make(map[time.Time]monthEntry)}
	for _, b := range batches {
		for _, line := range b.Lines {
			for _, m := range line.Period.Months() {
				t.months[m.From] = monthEntry{
					Amount: line.Amount,
					Kind:   line.Kind,
					LineID: line.ID,
				}
			}
		}
	}
	return t
}

// Segment is a maximal run of consecutive months that share the same
// effective line.
type Segment struct {
	Period benefit.Period
	Amount int64
	Kind   BatchKind
	LineID LineID
}

// Segments returns the timeline as ordered segments.
func (t Timeline) Segments() []Segment {
	if len(t.months) == 0 {
		return nil
	}

	starts := make([]time.Time, 0, len(t.months))
	for m := range t.months {
		starts = append(starts, m)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	var segments []Segment
	for _, start := range starts {
		entry := t.months[start]
		month := benefit.MonthOf(start)

		if n := len(segments); n > 0 {
			prev := &segments[n-1]
			contiguous := prev.Period.To.AddDate(0, 0, 1).Equal(month.From)
			if prev.LineID == entry.LineID && contiguous {
				prev.Period.To = month.To
				continue
			}
		}
		segments = append(segments, Segment{
			Period: month,
			Amount: entry.Amount,
			Kind:   entry.Kind,
			LineID: entry.LineID,
		})
	}
	return segments
}

// SegmentsOnOrAfter returns segments intersecting [from, infinity),
// excluding discontinued months. Segments straddling the boundary are
// returned whole; callers split at the boundary themselves.
func (t Timeline) SegmentsOnOrAfter(from time.Time) []Segment {
	var out []Segment
	for _, s := range t.Segments() {
		if s.Kind == BatchDiscontinue {
			continue
		}
		if !s.Period.To.Before(from) {
			out = append(out, s)
		}
	}
	return out
}

// entryAt returns the effective entry for the month containing the date.
func (t Timeline) entryAt(monthStart time.Time) (monthEntry, bool) {
	e, ok := t.months[monthStart]
	return e, ok
}

// End returns the last day covered by any effective line, or the zero
// time for an empty timeline.
func (t Timeline) End() time.Time {
	var end time.Time
	for m := range t.months {
		to := benefit.MonthOf(m).To
		if to.After(end) {
			end = to
		}
	}
	return end
}
