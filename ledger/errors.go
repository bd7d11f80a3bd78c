/*
errors.go - Ledger transition errors

PURPOSE:
  Every way a payment transition can be rejected, in one place. All of
  these are deterministic, pure validation outcomes: they mean the
  requested transition is inconsistent with the ledger history the caller
  supplied. None of them should be retried blindly - the caller must
  re-read the ledger and decide.

NO PARTIAL RESULTS:
  A transition either produces a complete batch or one of these errors.
  There is no partially generated batch, ever.

SEE ALSO:
  - strategy.go: Returns these from the transition generators
  - ../benefit/errors.go: Calculation-side errors
*/
package ledger

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrOverlapsExistingLines is returned when a new calculation's period
	// intersects lines not superseded by an explicit discontinuation.
	ErrOverlapsExistingLines = errors.New("calculation overlaps existing payment lines")

	// ErrNoActiveLines is returned when a stop or discontinuation finds
	// nothing to act on from the requested date.
	ErrNoActiveLines = errors.New("no active payment lines on or after date")

	// ErrAlreadyStopped is returned when stopping a ledger whose latest
	// batch is already a stop.
	ErrAlreadyStopped = errors.New("payments already stopped")

	// ErrCannotStopDiscontinued is returned when stopping a discontinued ledger.
	ErrCannotStopDiscontinued = errors.New("cannot stop discontinued payments")

	// ErrNotCurrentlyStopped is returned when resuming a ledger that is not stopped.
	ErrNotCurrentlyStopped = errors.New("payments are not currently stopped")

	// ErrConflictingDiscontinuation is returned when a discontinuation
	// overlaps a previously discontinued range. Guards against
	// double-termination bugs.
	ErrConflictingDiscontinuation = errors.New("conflicting prior discontinuation")

	// ErrIllegalTransition is returned when the requested transition kind is
	// not legal from the ledger's current state.
	ErrIllegalTransition = errors.New("transition not legal from current ledger state")

	// ErrInvalidTransitionDate is returned when a transition date is not the
	// first day of a month, or a stop date is not strictly after the
	// current month.
	ErrInvalidTransitionDate = errors.New("invalid transition date")

	// ErrDuplicateBatch is returned by stores when a batch with the same
	// reconciliation key was already appended.
	ErrDuplicateBatch = errors.New("duplicate batch")

	// ErrCaseNotFound is returned by stores when a case has no ledger.
	ErrCaseNotFound = errors.New("case not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the conflicting line and requested date
// =============================================================================

// OverlapError identifies the first month and line a new calculation collides with.
type OverlapError struct {
	Month             time.Time
	ConflictingLineID LineID
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("calculation overlaps existing line %s in %s",
		e.ConflictingLineID, e.Month.Format("2006-01"))
}

func (e *OverlapError) Unwrap() error { return ErrOverlapsExistingLines }

// NoActiveLinesError reports the date from which nothing was found to act on.
type NoActiveLinesError struct {
	From time.Time
}

func (e *NoActiveLinesError) Error() string {
	return fmt.Sprintf("no active payment lines on or after %s", e.From.Format("2006-01-02"))
}

func (e *NoActiveLinesError) Unwrap() error { return ErrNoActiveLines }

// TransitionDateError reports why a transition date was rejected.
type TransitionDateError struct {
	Date   time.Time
	Reason string
}

func (e *TransitionDateError) Error() string {
	return fmt.Sprintf("invalid transition date %s: %s", e.Date.Format("2006-01-02"), e.Reason)
}

func (e *TransitionDateError) Unwrap() error { return ErrInvalidTransitionDate }

// DiscontinuationConflictError identifies the prior discontinuation that
// overlaps the requested range.
type DiscontinuationConflictError struct {
	RequestedFrom time.Time
	ExistingBatch BatchID
	ExistingFrom  time.Time
}

func (e *DiscontinuationConflictError) Error() string {
	return fmt.Sprintf("discontinuation from %s conflicts with batch %s already discontinuing from %s",
		e.RequestedFrom.Format("2006-01-02"), e.ExistingBatch, e.ExistingFrom.Format("2006-01-02"))
}

func (e *DiscontinuationConflictError) Unwrap() error { return ErrConflictingDiscontinuation }

// IllegalTransitionError reports a transition attempted from the wrong state.
type IllegalTransitionError struct {
	Requested BatchKind
	State     StateKind
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot apply %s transition to %s ledger", e.Requested, e.State)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }
