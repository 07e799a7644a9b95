/*
Package store defines the persistence interfaces and record types for
created transactions and reference data.

PURPOSE:
  The API layer depends on these interfaces only. Two implementations
  exist: sqlite (production) and memory (tests/dev). Records here are
  storage-shaped; the API layer owns the wire DTOs.

SEE ALSO:
  - store/sqlite: SQLite-backed implementation
  - store/memory: In-memory implementation
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/paydesk/txn-entry/allocation"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Transaction is a persisted transaction with its payment breakdown.
type Transaction struct {
	ID           string
	Merchant     string
	Memo         string
	UsedAt       *time.Time
	Amount       int64
	PlatformCode string
	Payments     []PaymentLeg
	CreatedAt    time.Time
}

// PaymentLeg is one method's share of a transaction, ordered by Sequence.
type PaymentLeg struct {
	Method   string
	Amount   int64
	Sequence int
}

// TransactionStore persists created transactions.
type TransactionStore interface {
	// SaveTransaction persists the transaction and all payment legs atomically.
	SaveTransaction(ctx context.Context, txn Transaction) error

	// GetTransaction returns a transaction by ID, or ErrNotFound.
	GetTransaction(ctx context.Context, id string) (*Transaction, error)

	// ListTransactions returns all transactions, most recent first.
	ListTransactions(ctx context.Context) ([]Transaction, error)
}

// ReferenceStore serves the immutable reference data the form offers.
type ReferenceStore interface {
	ListPaymentMethods(ctx context.Context) ([]allocation.PaymentMethod, error)
	ListPlatforms(ctx context.Context) ([]allocation.Platform, error)
}

// Store is the full persistence surface the API needs.
type Store interface {
	TransactionStore
	ReferenceStore
}
