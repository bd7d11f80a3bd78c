/*
reconciliation.go - Totally ordered batch keys

PURPOSE:
  Every payment batch is stamped with a ReconciliationKey before being
  handed to the disbursement boundary. Settlement reporting sorts
  exclusively by this key, so the total ordering is a contract, not an
  implementation detail: two keys generated in the same process are
  always distinguishable and ordered by generation time, even within the
  same nanosecond.

HOW:
  Wall-clock time plus a per-process monotonic counter. The counter breaks
  ties when the clock does not advance between generations.
*/
package ledger

import (
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// RECONCILIATION KEY
// =============================================================================

// ReconciliationKey is a totally ordered stamp: generation time plus a
// monotonic tiebreaker.
type ReconciliationKey struct {
	At  time.Time
	Seq uint64
}

// Compare orders keys by time, then by sequence. Returns -1, 0 or 1.
func (k ReconciliationKey) Compare(other ReconciliationKey) int {
	if k.At.Before(other.At) {
		return -1
	}
	if k.At.After(other.At) {
		return 1
	}
	switch {
	case k.Seq < other.Seq:
		return -1
	case k.Seq > other.Seq:
		return 1
	default:
		return 0
	}
}

// Less reports whether k orders strictly before other.
func (k ReconciliationKey) Less(other ReconciliationKey) bool {
	return k.Compare(other) < 0
}

// String renders the key in a form whose lexical order equals key order.
func (k ReconciliationKey) String() string {
	return fmt.Sprintf("%020d-%09d", k.At.UnixNano(), k.Seq)
}

// ParseKey parses the String() form back into a key.
func ParseKey(s string) (ReconciliationKey, error) {
	var nanos int64
	var seq uint64
	if _, err := fmt.Sscanf(s, "%d-%d", &nanos, &seq); err != nil {
		return ReconciliationKey{}, fmt.Errorf("invalid reconciliation key %q: %w", s, err)
	}
	return ReconciliationKey{At: time.Unix(0, nanos).UTC(), Seq: seq}, nil
}

// =============================================================================
// KEY GENERATOR
// =============================================================================

// KeyGenerator produces strictly increasing reconciliation keys for one
// process. Safe for concurrent use.
type KeyGenerator struct {
	clock Clock

	mu   sync.Mutex
	last ReconciliationKey
}

// NewKeyGenerator creates a generator over an explicit clock.
func NewKeyGenerator(clock Clock) *KeyGenerator {
	return &KeyGenerator{clock: clock}
}

// Next returns a key strictly greater than every key this generator has
// produced before, even if the clock stands still or steps backwards.
func (g *KeyGenerator) Next() ReconciliationKey {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := ReconciliationKey{At: g.clock.Now().UTC()}
	if !key.At.After(g.last.At) {
		key.At = g.last.At
		key.Seq = g.last.Seq + 1
	}
	g.last = key
	return key
}
