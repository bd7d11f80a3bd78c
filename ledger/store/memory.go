// Package store provides BatchStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/velferd/benefit-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	ledgers map[ledger.CaseID][]ledger.Batch
	keys    map[ledger.ReconciliationKey]bool
}

func NewMemory() *Memory {
	return &Memory{
		ledgers: make(map[ledger.CaseID][]ledger.Batch),
		keys:    make(map[ledger.ReconciliationKey]bool),
	}
}

// Append adds a batch. Append-only.
func (m *Memory) Append(_ context.Context, batch ledger.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.keys[batch.Key] {
		return ledger.ErrDuplicateBatch
	}
	m.keys[batch.Key] = true
	m.ledgers[batch.CaseID] = append(m.ledgers[batch.CaseID], batch)
	return nil
}

func (m *Memory) LoadLedger(_ context.Context, caseID ledger.CaseID) ([]ledger.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.Batch, len(m.ledgers[caseID]))
	copy(result, m.ledgers[caseID])
	return result, nil
}

func (m *Memory) LoadByKeyRange(_ context.Context, from, to ledger.ReconciliationKey) ([]ledger.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Batch
	for _, batches := range m.ledgers {
		for _, b := range batches {
			if from.Compare(b.Key) <= 0 && b.Key.Compare(to) <= 0 {
				result = append(result, b)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key.Less(result[j].Key) })
	return result, nil
}
