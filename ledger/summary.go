/*
summary.go - Read-side aggregation over the debt graph

PURPOSE:
  Pure functions answering "how much is owed, how much was paid" at any
  point in time. No mutation, safe to call whenever.

DOUBLE-COUNTING RULE:
  TotalPaid counts only direct payments. Auto-clear entries redistribute
  money that was already counted once as the original overpayment, so
  including them would count the same cash twice.

STORE CREDIT:
  StoreCredit is informational netting for display. It does not reduce
  TotalOwed and never retroactively closes debts; only payments moving
  through the allocator do that.
*/
package ledger

// Summary is the aggregate view of one customer (or the whole store).
type Summary struct {
	TotalOwed   Money
	TotalPaid   Money
	ActiveDebts int
	StoreCredit Money
	NetOwed     Money
}

// TotalOwed sums the remaining balance of every unpaid, positive-amount
// debt across all customers. Never negative.
func TotalOwed(customers []Customer) Money {
	total := Money{}
	for _, c := range customers {
		total = total.Add(customerOwed(c))
	}
	return total
}

// TotalPaid sums every direct payment across all customers. Auto-clear
// entries are excluded.
func TotalPaid(customers []Customer) Money {
	total := Money{}
	for _, c := range customers {
		total = total.Add(customerPaid(c))
	}
	return total
}

// CustomerSummary computes the per-customer aggregate view.
func CustomerSummary(c Customer) Summary {
	owed := customerOwed(c)
	credit := customerCredit(c)
	return Summary{
		TotalOwed:   owed,
		TotalPaid:   customerPaid(c),
		ActiveDebts: customerActiveDebts(c),
		StoreCredit: credit,
		NetOwed:     owed.Sub(credit).ClampZero(),
	}
}

// GlobalSummary aggregates every customer into one Summary.
func GlobalSummary(customers []Customer) Summary {
	out := Summary{}
	for _, c := range customers {
		s := CustomerSummary(c)
		out.TotalOwed = out.TotalOwed.Add(s.TotalOwed)
		out.TotalPaid = out.TotalPaid.Add(s.TotalPaid)
		out.ActiveDebts += s.ActiveDebts
		out.StoreCredit = out.StoreCredit.Add(s.StoreCredit)
	}
	out.NetOwed = out.TotalOwed.Sub(out.StoreCredit).ClampZero()
	return out
}

func customerOwed(c Customer) Money {
	total := Money{}
	for _, d := range c.Debts {
		if d.Amount.IsPositive() && !d.Paid {
			total = total.Add(d.Remaining())
		}
	}
	return total
}

func customerPaid(c Customer) Money {
	total := Money{}
	for _, d := range c.Debts {
		for _, p := range d.Payments {
			if !p.IsAutoClear() {
				total = total.Add(p.Amount)
			}
		}
	}
	return total
}

func customerCredit(c Customer) Money {
	total := Money{}
	for _, d := range c.Debts {
		if d.IsCredit() {
			total = total.Add(d.Amount.Abs())
		}
	}
	return total
}

func customerActiveDebts(c Customer) int {
	n := 0
	for _, d := range c.Debts {
		if d.Amount.IsPositive() && !d.Paid {
			n++
		}
	}
	return n
}
