/*
allocator.go - Payment application and the overpayment cascade

PURPOSE:
  Applies one incoming payment to one target debt. When the payment
  exceeds what is owed, the surplus cascades across the customer's other
  outstanding debts, most urgent first, and anything left over becomes a
  store-credit record.

ALGORITHM (all of it inside one Store.Update critical section, so
concurrent payments against the same customer serialize instead of
computing from the same stale balance):
  1. Resolve customer and target debt (typed not-found errors, never a
     partial mutation).
  2. Append the payment to the target's log; zero amounts are recorded
     too, matching the tolerant behavior of the surrounding product.
  3. Overpayment = max(0, amount - remaining owed before this payment).
  4. Candidates = the customer's other positive, unpaid debts with a
     remaining balance.
  5. Cascade order: overdue debts first, then by ascending due date;
     open-ended debts (no due date) sort last. Ties keep list order.
  6. Walk candidates, appending auto-clear payments of
     min(remaining surplus, candidate remaining), re-rounding after
     every step.
  7. Surplus that survives the walk becomes a negative-amount credit
     entry appended to the customer's list.
  8. The Update commit publishes target + siblings + credit together.

WHAT THE CASCADE NEVER DOES:
  - Touch pre-existing credit entries (they are not debts to pay down)
  - Edit or remove a payment once written
  - Leave a partially cascaded state visible to readers

MARK-AS-PAID:
  MarkDebtAsPaid force-sets Paid without reconciling the payment log and
  intentionally bypasses the cascade: no payment amount is known, so
  there is no surplus to redistribute.

SEE ALSO:
  - store.go: Update critical section
  - summary.go: Read-side totals that exclude auto-clear entries
*/
package ledger

import (
	"sort"
	"time"
)

// =============================================================================
// ALLOCATOR
// =============================================================================

// Allocator applies payments to the store. Construct one per Store.
type Allocator struct {
	store *Store
	clock Clock
}

// NewAllocator creates an allocator. A nil clock means the system clock.
func NewAllocator(store *Store, clock Clock) *Allocator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Allocator{store: store, clock: clock}
}

// AutoCleared describes one sibling debt touched by the cascade.
type AutoCleared struct {
	DebtID  DebtID
	Applied Money
	Paid    bool
}

// Allocation is the outcome of one RecordPayment call. Customer is the
// post-allocation snapshot, ready to hand to the sync outbox.
type Allocation struct {
	CustomerID   CustomerID
	DebtID       DebtID
	Amount       Money
	Overpayment  Money
	AutoCleared  []AutoCleared
	CreditIssued Money // zero when no credit entry was created
	Customer     Customer
}

// RecordPayment applies amount to the target debt and cascades any
// surplus. The whole read-compute-commit sequence runs inside one
// Store.Update critical section. Not-found returns a typed error with
// the store untouched.
func (a *Allocator) RecordPayment(customerID CustomerID, debtID DebtID, amount Money) (*Allocation, error) {
	now := a.clock.Now()

	// Negative input is treated as zero; the entry is still recorded,
	// matching the permissive contract at this layer.
	amount = amount.ClampZero()

	alloc := &Allocation{
		CustomerID: customerID,
		DebtID:     debtID,
		Amount:     amount,
	}

	updated, err := a.store.Update(customerID, func(cust *Customer) error {
		ti := cust.debtIndex(debtID)
		if ti < 0 {
			return ErrDebtNotFound
		}

		target := &cust.Debts[ti]
		paidBefore := target.TotalPayments()
		target.Payments = append(target.Payments, Payment{Amount: amount, Date: now, Kind: PaymentDirect})

		if !target.IsCredit() {
			target.Paid = paidBefore.Add(amount).GreaterThanOrEqual(target.Amount)
		}

		remainingBefore := target.Amount.Sub(paidBefore).ClampZero()
		surplus := amount.Sub(remainingBefore).ClampZero()
		alloc.Overpayment = surplus

		if !surplus.IsPositive() {
			return nil
		}

		for _, ci := range cascadeOrder(*cust, ti, now) {
			if !surplus.IsPositive() {
				break
			}
			sibling := &cust.Debts[ci]
			apply := surplus.Min(sibling.Remaining())
			if !apply.IsPositive() {
				continue
			}
			sibling.Payments = append(sibling.Payments, Payment{Amount: apply, Date: now, Kind: PaymentAutoClear})
			sibling.Paid = sibling.TotalPayments().GreaterThanOrEqual(sibling.Amount)
			surplus = surplus.Sub(apply)
			alloc.AutoCleared = append(alloc.AutoCleared, AutoCleared{
				DebtID:  sibling.ID,
				Applied: apply,
				Paid:    sibling.Paid,
			})
		}

		if surplus.IsPositive() {
			cust.Debts = append(cust.Debts, NewCreditEntry(surplus, now))
			alloc.CreditIssued = surplus
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	alloc.Customer = updated
	return alloc, nil
}

// cascadeOrder returns the indexes of the customer's other outstanding
// debts in the order the surplus should be applied: overdue first, then
// soonest due; open-ended debts last. Within a bucket, list order holds.
func cascadeOrder(cust Customer, targetIdx int, now time.Time) []int {
	var idxs []int
	for i, d := range cust.Debts {
		if i == targetIdx {
			continue
		}
		if d.Outstanding() {
			idxs = append(idxs, i)
		}
	}

	sort.SliceStable(idxs, func(x, y int) bool {
		dx, dy := cust.Debts[idxs[x]], cust.Debts[idxs[y]]
		ox, oy := dx.OverdueAt(now), dy.OverdueAt(now)
		if ox != oy {
			return ox
		}
		// Open-ended debts sort after anything with a due date.
		switch {
		case dx.DueDate == nil && dy.DueDate == nil:
			return false
		case dx.DueDate == nil:
			return false
		case dy.DueDate == nil:
			return true
		default:
			return dx.DueDate.Before(*dy.DueDate)
		}
	})
	return idxs
}

// MarkDebtAsPaid force-sets Paid on the target debt without requiring
// the payment log to reconcile to the amount. Bypasses the cascade by
// design: no amount is known, so no surplus can be computed. Credit
// entries are left untouched (their Paid flag is always false).
func (a *Allocator) MarkDebtAsPaid(customerID CustomerID, debtID DebtID) (Customer, error) {
	return a.store.Update(customerID, func(cust *Customer) error {
		i := cust.debtIndex(debtID)
		if i < 0 {
			return ErrDebtNotFound
		}
		if !cust.Debts[i].IsCredit() {
			cust.Debts[i].Paid = true
		}
		return nil
	})
}
