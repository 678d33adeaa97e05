/*
Package ledger is the core debt ledger engine.

PURPOSE:
  Tracks customers, the debts they owe, and the payments made against
  those debts. The heart of the package is the payment allocator: when a
  payment exceeds what is owed on its target debt, the surplus cascades
  across the customer's other outstanding debts (most urgent first) and
  any leftover becomes a durable store-credit record.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: two-decimal monetary value (see money.go)
  - Customer: owns an ordered list of Debt records
  - Debt: positive amount = owed by customer, negative = store credit
  - Payment: append-only log entry; tagged Direct or AutoClear

DESIGN PRINCIPLES:
  1. Append-only payments: a Payment is never edited or removed
  2. Precision: decimal.Decimal everywhere, re-rounded at each step
  3. Tagged payment kinds: auto-clear redistribution entries are a
     distinct variant, not a magic string on a dynamic record
  4. Credit entries are Debts: surplus that no debt can absorb is stored
     as a Debt with negative amount, so one list holds the whole balance

SEE ALSO:
  - allocator.go: Payment application and the overflow cascade
  - store.go: In-memory customer/debt graph
  - summary.go: Read-side aggregation
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CustomerID string
type DebtID string

// NewDebtID generates a fresh debt identifier.
func NewDebtID() DebtID { return DebtID(uuid.NewString()) }

// NewCustomerID generates a fresh customer identifier.
func NewCustomerID() CustomerID { return CustomerID(uuid.NewString()) }

// =============================================================================
// PAYMENT - Append-only log entry
// =============================================================================

// PaymentKind tags how a payment entry came to exist.
type PaymentKind string

const (
	// PaymentDirect is money actually received from the customer.
	PaymentDirect PaymentKind = "direct"

	// PaymentAutoClear is synthesized by the allocator when it
	// redistributes overpayment surplus onto another debt. Excluded from
	// "money the customer actually paid" aggregates to avoid counting the
	// same cash twice.
	PaymentAutoClear PaymentKind = "overpayment_auto_clear"
)

// Payment is one entry in a debt's append-only payment log.
type Payment struct {
	Amount Money
	Date   time.Time
	Kind   PaymentKind
}

// IsAutoClear reports whether this entry was synthesized by the cascade.
func (p Payment) IsAutoClear() bool { return p.Kind == PaymentAutoClear }

// =============================================================================
// DEBT
// =============================================================================

// CreditReason is the synthesized reason on store-credit entries.
const CreditReason = "Store Credit (Overpayment)"

// creditDueDays is the nominal due date horizon for credit entries.
// Credit entries are not time-bound; the field is populated only for
// schema consistency.
const creditDueDays = 365

// Debt is a record of money owed by a customer, or, when Amount is
// negative, store credit owed to the customer.
//
// INVARIANTS:
//   - Amount > 0: Paid == (sum of payments >= Amount), unless forced
//     via MarkDebtAsPaid
//   - Amount < 0 (credit entry): Paid is always false; created only by
//     the allocator, never by a direct user action
//   - Payments is append-only; monetary fields carry two decimals
type Debt struct {
	ID           DebtID
	Amount       Money
	Reason       string
	DateBorrowed time.Time
	DueDate      *time.Time // nil = open-ended
	Paid         bool
	Payments     []Payment
	CreatedAt    time.Time
}

// IsCredit reports whether this record is a store-credit entry.
func (d Debt) IsCredit() bool { return d.Amount.IsNegative() }

// TotalPayments sums every payment on the debt, auto-clear included.
func (d Debt) TotalPayments() Money {
	total := Money{}
	for _, p := range d.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Remaining is what is still owed on the debt: max(0, amount - payments).
// Always zero for credit entries.
func (d Debt) Remaining() Money {
	if d.IsCredit() {
		return Money{}
	}
	return d.Amount.Sub(d.TotalPayments()).ClampZero()
}

// Outstanding reports whether this debt can still absorb payments:
// a positive-amount, unpaid debt with a non-zero remaining balance.
func (d Debt) Outstanding() bool {
	return d.Amount.IsPositive() && !d.Paid && d.Remaining().IsPositive()
}

// OverdueAt reports whether the debt's due date is strictly before now.
// Open-ended debts are never overdue.
func (d Debt) OverdueAt(now time.Time) bool {
	return d.DueDate != nil && d.DueDate.Before(now)
}

// Clone returns a deep copy, payment log included.
func (d Debt) Clone() Debt {
	out := d
	if d.DueDate != nil {
		due := *d.DueDate
		out.DueDate = &due
	}
	out.Payments = make([]Payment, len(d.Payments))
	copy(out.Payments, d.Payments)
	return out
}

// NewCreditEntry builds the store-credit Debt recording a surplus that no
// outstanding debt could absorb. Only the allocator calls this.
func NewCreditEntry(surplus Money, now time.Time) Debt {
	due := now.AddDate(0, 0, creditDueDays)
	return Debt{
		ID:           NewDebtID(),
		Amount:       surplus.Abs().Neg(),
		Reason:       CreditReason,
		DateBorrowed: now,
		DueDate:      &due,
		Paid:         false,
		Payments:     []Payment{},
		CreatedAt:    now,
	}
}

// =============================================================================
// CUSTOMER
// =============================================================================

// Customer owns an ordered list of debts. Insertion order is significant
// for display only; the allocator orders by urgency, not position.
type Customer struct {
	ID        CustomerID
	Name      string
	Phone     string
	Debts     []Debt
	CreatedAt time.Time
}

// Clone returns a deep copy of the customer and every debt.
func (c Customer) Clone() Customer {
	out := c
	out.Debts = make([]Debt, len(c.Debts))
	for i, d := range c.Debts {
		out.Debts[i] = d.Clone()
	}
	return out
}

// debtIndex returns the position of the debt with the given id, or -1.
func (c Customer) debtIndex(id DebtID) int {
	for i, d := range c.Debts {
		if d.ID == id {
			return i
		}
	}
	return -1
}
