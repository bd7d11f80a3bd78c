/*
Package sqlite provides a SQLite-backed implementation of the batch store.

PURPOSE:
  Implements ledger.BatchStore using SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on payment tables
  - No DELETE statements on payment tables
  - A unique index on the reconciliation key rejects double commits

KEY TABLES:
  payment_batches: One row per transition, stamped with the key
  payment_lines:   Immutable chain of disbursement instructions

ATOMICITY:
  Append() writes the batch row and all of its lines inside one database
  transaction. Either the whole batch is committed or none of it: a
  partially stored batch cannot exist.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, a single writer at a time.

USAGE:
  store, err := sqlite.New("./data/benefit.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definition
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/velferd/benefit-engine/benefit"
	"github.com/velferd/benefit-engine/ledger"
)

// Store implements ledger.BatchStore using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Payment batches (append-only)
	CREATE TABLE IF NOT EXISTS payment_batches (
		id TEXT PRIMARY KEY,
		case_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		key_at_unix_nano INTEGER NOT NULL,
		key_seq INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	-- One reconciliation key, one batch. Rejects double commits.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_batches_key
		ON payment_batches(key_at_unix_nano, key_seq);

	CREATE INDEX IF NOT EXISTS idx_batches_case
		ON payment_batches(case_id, key_at_unix_nano, key_seq);

	-- Payment lines (append-only, chained via previous_line_id)
	CREATE TABLE IF NOT EXISTS payment_lines (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL REFERENCES payment_batches(id),
		line_order INTEGER NOT NULL,
		period_from TEXT NOT NULL,
		period_to TEXT NOT NULL,
		amount INTEGER NOT NULL,
		previous_line_id TEXT,
		kind TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lines_batch
		ON payment_lines(batch_id, line_order);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITE PATH
// =============================================================================

// Append persists a batch and all of its lines atomically.
func (s *Store) Append(ctx context.Context, batch ledger.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payment_batches (id, case_id, kind, key_at_unix_nano, key_seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(batch.ID), string(batch.CaseID), string(batch.Kind),
		batch.Key.At.UnixNano(), batch.Key.Seq, batch.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ledger.ErrDuplicateBatch
		}
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	for i, line := range batch.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payment_lines (id, batch_id, line_order, period_from, period_to, amount, previous_line_id, kind, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(line.ID), string(batch.ID), i,
			line.Period.From.Format("2006-01-02"), line.Period.To.Format("2006-01-02"),
			line.Amount, string(line.PreviousLineID), string(line.Kind),
			line.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert line: %w", err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// READ PATH
// =============================================================================

// LoadLedger returns every batch for a case in creation (key) order.
func (s *Store) LoadLedger(ctx context.Context, caseID ledger.CaseID) ([]ledger.Batch, error) {
	return s.loadBatches(ctx, `
		SELECT id, case_id, kind, key_at_unix_nano, key_seq, created_at
		FROM payment_batches
		WHERE case_id = ?
		ORDER BY key_at_unix_nano, key_seq`,
		string(caseID))
}

// LoadByKeyRange returns batches with from <= key <= to, ordered by key.
func (s *Store) LoadByKeyRange(ctx context.Context, from, to ledger.ReconciliationKey) ([]ledger.Batch, error) {
	return s.loadBatches(ctx, `
		SELECT id, case_id, kind, key_at_unix_nano, key_seq, created_at
		FROM payment_batches
		WHERE (key_at_unix_nano > ? OR (key_at_unix_nano = ? AND key_seq >= ?))
		  AND (key_at_unix_nano < ? OR (key_at_unix_nano = ? AND key_seq <= ?))
		ORDER BY key_at_unix_nano, key_seq`,
		from.At.UnixNano(), from.At.UnixNano(), from.Seq,
		to.At.UnixNano(), to.At.UnixNano(), to.Seq)
}

func (s *Store) loadBatches(ctx context.Context, query string, args ...any) ([]ledger.Batch, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []ledger.Batch
	for rows.Next() {
		var (
			id, caseID, kind, createdAt string
			keyNano                     int64
			keySeq                      uint64
		)
		if err := rows.Scan(&id, &caseID, &kind, &keyNano, &keySeq, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}

		created, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse batch created_at: %w", err)
		}

		batches = append(batches, ledger.Batch{
			ID:        ledger.BatchID(id),
			CaseID:    ledger.CaseID(caseID),
			Kind:      ledger.BatchKind(kind),
			Key:       ledger.ReconciliationKey{At: time.Unix(0, keyNano).UTC(), Seq: keySeq},
			CreatedAt: created,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range batches {
		lines, err := s.loadLines(ctx, batches[i].ID)
		if err != nil {
			return nil, err
		}
		batches[i].Lines = lines
	}
	return batches, nil
}

func (s *Store) loadLines(ctx context.Context, batchID ledger.BatchID) ([]ledger.PaymentLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period_from, period_to, amount, previous_line_id, kind, created_at
		FROM payment_lines
		WHERE batch_id = ?
		ORDER BY line_order`,
		string(batchID))
	if err != nil {
		return nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	var lines []ledger.PaymentLine
	for rows.Next() {
		var (
			id, from, to, prev, kind, createdAt string
			amount                              int64
		)
		if err := rows.Scan(&id, &from, &to, &amount, &prev, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}

		period, err := parsePeriod(from, to)
		if err != nil {
			return nil, err
		}
		created, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse line created_at: %w", err)
		}

		lines = append(lines, ledger.PaymentLine{
			ID:             ledger.LineID(id),
			CreatedAt:      created,
			Period:         period,
			Amount:         amount,
			PreviousLineID: ledger.LineID(prev),
			Kind:           ledger.BatchKind(kind),
		})
	}
	return lines, rows.Err()
}

func parsePeriod(from, to string) (benefit.Period, error) {
	f, err := time.ParseInLocation("2006-01-02", from, time.UTC)
	if err != nil {
		return benefit.Period{}, fmt.Errorf("failed to parse period_from: %w", err)
	}
	t, err := time.ParseInLocation("2006-01-02", to, time.UTC)
	if err != nil {
		return benefit.Period{}, fmt.Errorf("failed to parse period_to: %w", err)
	}
	return benefit.NewPeriod(f, t)
}
