/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements store.Store using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  txns:            Created transactions (append-only)
  txn_payments:    Per-method payment legs, ordered by seq
  payment_methods: Reference data, seeded on migrate
  platforms:       Reference data, seeded on migrate

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  st, err := sqlite.New("./data/txns.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - store: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/paydesk/txn-entry/allocation"
	"github.com/paydesk/txn-entry/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dbPath+sep+"_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the schema and seeds reference data.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS txns (
		id TEXT PRIMARY KEY,
		merchant TEXT NOT NULL,
		memo TEXT NOT NULL DEFAULT '',
		used_at TEXT,
		amount INTEGER NOT NULL,
		platform_code TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_txns_created_at ON txns(created_at);

	CREATE TABLE IF NOT EXISTS txn_payments (
		txn_id TEXT NOT NULL REFERENCES txns(id),
		method TEXT NOT NULL,
		amount INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		PRIMARY KEY (txn_id, seq)
	);

	-- A method appears at most once per transaction
	CREATE UNIQUE INDEX IF NOT EXISTS idx_txn_payments_method
		ON txn_payments(txn_id, method);

	CREATE TABLE IF NOT EXISTS payment_methods (
		code TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		sort_order INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS platforms (
		code TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		sort_order INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.seedReferenceData()
}

// seedReferenceData inserts the default method/platform sets. INSERT OR
// IGNORE keeps operator-customized rows intact across restarts.
func (s *Store) seedReferenceData() error {
	for i, m := range allocation.DefaultMethods() {
		_, err := s.db.Exec(
			`INSERT OR IGNORE INTO payment_methods (code, display_name, sort_order) VALUES (?, ?, ?)`,
			string(m.Code), m.DisplayName, i)
		if err != nil {
			return err
		}
	}
	for i, p := range allocation.DefaultPlatforms() {
		_, err := s.db.Exec(
			`INSERT OR IGNORE INTO platforms (code, display_name, sort_order) VALUES (?, ?, ?)`,
			string(p.Code), p.DisplayName, i)
		if err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// SaveTransaction persists the transaction and its payment legs atomically.
func (s *Store) SaveTransaction(ctx context.Context, txn store.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var usedAt *string
	if txn.UsedAt != nil {
		v := txn.UsedAt.UTC().Format(time.RFC3339)
		usedAt = &v
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO txns (id, merchant, memo, used_at, amount, platform_code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.Merchant, txn.Memo, usedAt, txn.Amount, txn.PlatformCode,
		txn.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	for _, leg := range txn.Payments {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO txn_payments (txn_id, method, amount, seq) VALUES (?, ?, ?, ?)`,
			txn.ID, leg.Method, leg.Amount, leg.Sequence)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetTransaction returns a transaction by ID, or store.ErrNotFound.
func (s *Store) GetTransaction(ctx context.Context, id string) (*store.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, merchant, memo, used_at, amount, platform_code, created_at
		 FROM txns WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadPayments(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// ListTransactions returns all transactions, most recent first.
func (s *Store) ListTransactions(ctx context.Context) ([]store.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, merchant, memo, used_at, amount, platform_code, created_at
		 FROM txns ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []store.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range txns {
		if err := s.loadPayments(ctx, &txns[i]); err != nil {
			return nil, err
		}
	}
	return txns, nil
}

func (s *Store) loadPayments(ctx context.Context, txn *store.Transaction) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT method, amount, seq FROM txn_payments WHERE txn_id = ? ORDER BY seq`, txn.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var leg store.PaymentLeg
		if err := rows.Scan(&leg.Method, &leg.Amount, &leg.Sequence); err != nil {
			return err
		}
		txn.Payments = append(txn.Payments, leg)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*store.Transaction, error) {
	var (
		txn       store.Transaction
		usedAt    sql.NullString
		createdAt string
	)
	err := row.Scan(&txn.ID, &txn.Merchant, &txn.Memo, &usedAt, &txn.Amount,
		&txn.PlatformCode, &createdAt)
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		at, err := time.Parse(time.RFC3339, usedAt.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt used_at for txn %s: %w", txn.ID, err)
		}
		txn.UsedAt = &at
	}
	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt created_at for txn %s: %w", txn.ID, err)
	}
	txn.CreatedAt = created
	return &txn, nil
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

// ListPaymentMethods returns the selectable payment methods in display order.
func (s *Store) ListPaymentMethods(ctx context.Context) ([]allocation.PaymentMethod, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, display_name FROM payment_methods ORDER BY sort_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []allocation.PaymentMethod
	for rows.Next() {
		var m allocation.PaymentMethod
		if err := rows.Scan(&m.Code, &m.DisplayName); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// ListPlatforms returns the known payment platforms in display order.
func (s *Store) ListPlatforms(ctx context.Context) ([]allocation.Platform, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, display_name FROM platforms ORDER BY sort_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var platforms []allocation.Platform
	for rows.Next() {
		var p allocation.Platform
		if err := rows.Scan(&p.Code, &p.DisplayName); err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}
	return platforms, rows.Err()
}
