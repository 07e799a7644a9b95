// Package memory provides an in-memory Store implementation (for testing/dev).
package memory

import (
	"context"
	"sync"

	"github.com/paydesk/txn-entry/allocation"
	"github.com/paydesk/txn-entry/store"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	txns      []store.Transaction
	byID      map[string]int
	methods   []allocation.PaymentMethod
	platforms []allocation.Platform
}

// New creates a memory store seeded with the default reference data.
func New() *Store {
	return &Store{
		byID:      make(map[string]int),
		methods:   allocation.DefaultMethods(),
		platforms: allocation.DefaultPlatforms(),
	}
}

// SaveTransaction appends the transaction. Append-only.
func (m *Store) SaveTransaction(_ context.Context, txn store.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[txn.ID] = len(m.txns)
	m.txns = append(m.txns, cloneTxn(txn))
	return nil
}

func (m *Store) GetTransaction(_ context.Context, id string) (*store.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	txn := cloneTxn(m.txns[i])
	return &txn, nil
}

func (m *Store) ListTransactions(_ context.Context) ([]store.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Most recent first.
	result := make([]store.Transaction, 0, len(m.txns))
	for i := len(m.txns) - 1; i >= 0; i-- {
		result = append(result, cloneTxn(m.txns[i]))
	}
	return result, nil
}

func (m *Store) ListPaymentMethods(_ context.Context) ([]allocation.PaymentMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]allocation.PaymentMethod, len(m.methods))
	copy(result, m.methods)
	return result, nil
}

func (m *Store) ListPlatforms(_ context.Context) ([]allocation.Platform, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]allocation.Platform, len(m.platforms))
	copy(result, m.platforms)
	return result, nil
}

// cloneTxn copies the payment slice so callers never alias stored state.
func cloneTxn(txn store.Transaction) store.Transaction {
	out := txn
	out.Payments = make([]store.PaymentLeg, len(txn.Payments))
	copy(out.Payments, txn.Payments)
	if txn.UsedAt != nil {
		at := *txn.UsedAt
		out.UsedAt = &at
	}
	return out
}
