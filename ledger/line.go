/*
line.go - Payment lines and batches

PURPOSE:
  A PaymentLine is one immutable disbursement instruction for a
  month-aligned interval, linked to its predecessor. A case's full ledger
  is the concatenation of all batches ever produced for it, in creation
  order.

CRITICAL INVARIANTS:
  1. IMMUTABLE: Lines are created once and never modified.
  2. NEVER REWRITTEN: The chain only grows. Corrections are new lines
     referencing the line they logically supersede via PreviousLineID.
  3. NON-EMPTY BATCHES: A batch always carries at least one line.

WHY A CHAIN?
  The disbursement system and settlement reporting both need to replay
  history. With back-references and an append-only log, "why is this
  month paid X?" is always answerable from the lines alone.

SEE ALSO:
  - state.go: Replays batches into the effective per-month timeline
  - strategy.go: The only producer of new batches
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/velferd/benefit-engine/benefit"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CaseID string
type LineID string
type BatchID string

func newLineID() LineID   { return LineID(uuid.NewString()) }
func newBatchID() BatchID { return BatchID(uuid.NewString()) }

// =============================================================================
// BATCH KIND
// =============================================================================

// BatchKind tags which transition produced a batch. Lines inherit the tag
// for downstream interpretation; their period and amount fields are
// kind-agnostic.
type BatchKind string

const (
	BatchNew         BatchKind = "new"
	BatchStop        BatchKind = "stop"
	BatchResume      BatchKind = "resume"
	BatchDiscontinue BatchKind = "discontinue"
)

// =============================================================================
// PAYMENT LINE
// =============================================================================

// PaymentLine is one immutable disbursement instruction.
type PaymentLine struct {
	ID        LineID
	CreatedAt time.Time
	Period    benefit.Period
	Amount    int64 // whole currency units per month, never negative

	// PreviousLineID links to the predecessor in the case's chain.
	// Empty only for the very first line of a case.
	PreviousLineID LineID

	// Kind is inherited from the producing batch.
	Kind BatchKind
}

// =============================================================================
// PAYMENT BATCH
// =============================================================================

// Batch is one transition's output: a non-empty ordered list of lines
// stamped with a reconciliation key.
type Batch struct {
	ID        BatchID
	CaseID    CaseID
	Kind      BatchKind
	Key       ReconciliationKey
	CreatedAt time.Time
	Lines     []PaymentLine
}

// LastLine returns the final line of the batch (the chain head after the
// batch is appended).
func (b Batch) LastLine() PaymentLine {
	return b.Lines[len(b.Lines)-1]
}

// Period returns the interval spanned by the batch's lines.
func (b Batch) Period() benefit.Period {
	p := b.Lines[0].Period
	for _, l := range b.Lines[1:] {
		if l.Period.From.Before(p.From) {
			p.From = l.Period.From
		}
		if l.Period.To.After(p.To) {
			p.To = l.Period.To
		}
	}
	return p
}

// headLineID returns the id of the last line across a whole ledger, or ""
// for an empty ledger.
func headLineID(batches []Batch) LineID {
	if len(batches) == 0 {
		return ""
	}
	return batches[len(batches)-1].LastLine().ID
}
