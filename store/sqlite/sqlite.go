/*
Package sqlite provides the durable sink behind the sync outbox.

PURPOSE:
  Mirrors the in-memory ledger into a local SQLite file so that a
  session can be restored after restart. The in-memory store remains the
  source of truth while the process lives; this sink only has to be
  eventually consistent with it.

WRITE MODEL:
  SaveCustomer is an idempotent full replacement: within one database
  transaction the customer row is upserted and the debt/payment rows are
  deleted and reinserted from the snapshot. That mirrors the engine's
  atomic debt-list swap, so a reader of the file never sees a partially
  cascaded state either.

WAL MODE:
  The database is opened with WAL for better crash recovery and so the
  export/read paths don't block the sync writer.

SEE ALSO:
  - outbox: The worker that feeds this sink
  - cmd/server: Restores the in-memory store from LoadAll at boot
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/warp/debt-engine/ledger"
	"github.com/warp/debt-engine/outbox"
)

// Store persists customer snapshots to SQLite.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	mu  sync.Mutex
}

var _ outbox.Sink = (*Store)(nil)

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, log: log.Named("sqlite")}
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

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS debts (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		date_borrowed TEXT NOT NULL,
		due_date TEXT,
		paid INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_debts_customer
		ON debts(customer_id, position);

	CREATE TABLE IF NOT EXISTS payments (
		debt_id TEXT NOT NULL REFERENCES debts(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (debt_id, position)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SINK
// =============================================================================

// SaveCustomer replaces the stored snapshot of one customer atomically.
func (s *Store) SaveCustomer(ctx context.Context, c ledger.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO customers (id, name, phone, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, phone = excluded.phone`,
		string(c.ID), c.Name, c.Phone, c.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}

	// Full replacement mirrors the engine's atomic debt-list swap.
	if _, err := tx.ExecContext(ctx, `DELETE FROM debts WHERE customer_id = ?`, string(c.ID)); err != nil {
		return err
	}

	for pos, d := range c.Debts {
		var due any
		if d.DueDate != nil {
			due = d.DueDate.UTC().Format(time.RFC3339Nano)
		}
		paid := 0
		if d.Paid {
			paid = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO debts (id, customer_id, amount, reason, date_borrowed, due_date, paid, created_at, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(d.ID), string(c.ID), d.Amount.String(), d.Reason,
			d.DateBorrowed.UTC().Format(time.RFC3339Nano), due, paid,
			d.CreatedAt.UTC().Format(time.RFC3339Nano), pos)
		if err != nil {
			return err
		}
		for ppos, p := range d.Payments {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO payments (debt_id, amount, date, kind, position) VALUES (?, ?, ?, ?, ?)`,
				string(d.ID), p.Amount.String(), p.Date.UTC().Format(time.RFC3339Nano), string(p.Kind), ppos)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Debug("customer snapshot saved",
		zap.String("customer_id", string(c.ID)),
		zap.Int("debts", len(c.Debts)))
	return nil
}

// DeleteCustomer removes a customer and, via cascade, all debt and
// payment rows.
func (s *Store) DeleteCustomer(ctx context.Context, id ledger.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, string(id))
	return err
}

// =============================================================================
// RESTORE
// =============================================================================

// LoadAll reads every persisted customer, ordered as they were saved.
// Used once at startup to seed the in-memory store.
func (s *Store) LoadAll(ctx context.Context) ([]ledger.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, phone, created_at FROM customers ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []ledger.Customer
	for rows.Next() {
		var c ledger.Customer
		var id, createdAt string
		if err := rows.Scan(&id, &c.Name, &c.Phone, &createdAt); err != nil {
			return nil, err
		}
		c.ID = ledger.CustomerID(id)
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range customers {
		debts, err := s.loadDebts(ctx, customers[i].ID)
		if err != nil {
			return nil, err
		}
		customers[i].Debts = debts
	}
	return customers, nil
}

func (s *Store) loadDebts(ctx context.Context, customerID ledger.CustomerID) ([]ledger.Debt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount, reason, date_borrowed, due_date, paid, created_at
		 FROM debts WHERE customer_id = ? ORDER BY position`, string(customerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	debts := []ledger.Debt{}
	for rows.Next() {
		var d ledger.Debt
		var id, amount, dateBorrowed, createdAt string
		var due sql.NullString
		var paid int
		if err := rows.Scan(&id, &amount, &d.Reason, &dateBorrowed, &due, &paid, &createdAt); err != nil {
			return nil, err
		}
		d.ID = ledger.DebtID(id)
		d.Paid = paid != 0
		if d.Amount, err = ledger.ParseMoney(amount); err != nil {
			return nil, fmt.Errorf("debt %s: bad amount %q: %w", id, amount, err)
		}
		if d.DateBorrowed, err = parseTime(dateBorrowed); err != nil {
			return nil, err
		}
		if d.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if due.Valid {
			t, err := parseTime(due.String)
			if err != nil {
				return nil, err
			}
			d.DueDate = &t
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range debts {
		payments, err := s.loadPayments(ctx, debts[i].ID)
		if err != nil {
			return nil, err
		}
		debts[i].Payments = payments
	}
	return debts, nil
}

func (s *Store) loadPayments(ctx context.Context, debtID ledger.DebtID) ([]ledger.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT amount, date, kind FROM payments WHERE debt_id = ? ORDER BY position`, string(debtID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []ledger.Payment{}
	for rows.Next() {
		var p ledger.Payment
		var amount, date, kind string
		if err := rows.Scan(&amount, &date, &kind); err != nil {
			return nil, err
		}
		if p.Amount, err = ledger.ParseMoney(amount); err != nil {
			return nil, err
		}
		if p.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		p.Kind = ledger.PaymentKind(kind)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
