/*
store.go - Persistence interface for payment batches

PURPOSE:
  Defines the boundary between the transition generators and storage.
  The generators themselves are pure; this interface is how their output
  is committed and how history is read back.

APPEND-ONLY CONTRACT:
  - Append() is the ONLY write operation. No Update, no Delete, ever.
  - Corrections are expressed as new batches superseding old lines.
  - Appending a batch whose reconciliation key already exists fails with
    ErrDuplicateBatch, which makes commit retries safe.

RECONCILIATION QUERIES:
  Settlement reporting reads batches by reconciliation key range and
  sorts by the key alone. The store must return them in key order.

IMPLEMENTATIONS:
  - store/memory.go: In-memory, for tests
  - ../store/sqlite:  SQLite-backed, for the server
*/
package ledger

import "context"

// BatchStore persists payment batches. APPEND-ONLY: no update, no delete.
type BatchStore interface {
	// Append persists a complete batch atomically. Fails with
	// ErrDuplicateBatch if the reconciliation key was already appended.
	Append(ctx context.Context, batch Batch) error

	// LoadLedger returns every batch for a case in creation order.
	// An unknown case yields an empty ledger, not an error: an empty
	// ledger is a valid state.
	LoadLedger(ctx context.Context, caseID CaseID) ([]Batch, error)

	// LoadByKeyRange returns all batches with from <= key <= to across all
	// cases, ordered by reconciliation key.
	LoadByKeyRange(ctx context.Context, from, to ReconciliationKey) ([]Batch, error)
}
