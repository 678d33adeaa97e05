package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/debt-engine/ledger"
)

func TestTotalPaid_ExcludesAutoClearEntries(t *testing.T) {
	// GIVEN: An overpayment that cascaded onto a sibling
	// WHEN: Totals are computed
	// THEN: TotalPaid counts the original payment once, never the
	//       redistribution entry

	store, alloc, cust := newFixture(t)
	first := addDebt(t, store, cust.ID, 1000, dueOn(2024, time.February, 1))
	addDebt(t, store, cust.ID, 500, dueOn(2024, time.February, 15))

	_, err := alloc.RecordPayment(cust.ID, first.ID, ledger.NewMoney(1200))
	require.NoError(t, err)

	customers := store.Customers()
	assert.Equal(t, "1200.00", ledger.TotalPaid(customers).String())
	assert.Equal(t, "300.00", ledger.TotalOwed(customers).String())
}

func TestTotalOwed_NeverNegative(t *testing.T) {
	store, alloc, cust := newFixture(t)
	debt := addDebt(t, store, cust.ID, 100, nil)

	_, err := alloc.RecordPayment(cust.ID, debt.ID, ledger.NewMoney(500))
	require.NoError(t, err)

	total := ledger.TotalOwed(store.Customers())
	assert.False(t, total.IsNegative())
	assert.Equal(t, "0.00", total.String())
}

func TestSummary_PerCustomerTotalsAddUpToGlobal(t *testing.T) {
	// Additivity: summing TotalOwed per customer equals the global total.

	store := ledger.NewStore()
	alloc := ledger.NewAllocator(store, fixedClock{t: testNow})

	a, err := store.AddCustomer(ledger.Customer{Name: "Asha"})
	require.NoError(t, err)
	b, err := store.AddCustomer(ledger.Customer{Name: "Brian"})
	require.NoError(t, err)

	da := addDebt(t, store, a.ID, 800, nil)
	addDebt(t, store, a.ID, 200, nil)
	addDebt(t, store, b.ID, 450, nil)

	_, err = alloc.RecordPayment(a.ID, da.ID, ledger.NewMoney(300))
	require.NoError(t, err)

	customers := store.Customers()
	perCustomer := ledger.Money{}
	for _, c := range customers {
		perCustomer = perCustomer.Add(ledger.CustomerSummary(c).TotalOwed)
	}
	assert.True(t, perCustomer.Equal(ledger.TotalOwed(customers)))
	assert.Equal(t, "1150.00", perCustomer.String())

	global := ledger.GlobalSummary(customers)
	assert.Equal(t, "1150.00", global.TotalOwed.String())
	assert.Equal(t, "300.00", global.TotalPaid.String())
	assert.Equal(t, 3, global.ActiveDebts)
}

func TestCustomerSummary_StoreCreditNetting(t *testing.T) {
	// GIVEN: An open debt and a store credit
	// THEN: NetOwed nets the credit for display, but TotalOwed itself is
	//       untouched and the debt stays open

	store, alloc, cust := newFixture(t)
	first := addDebt(t, store, cust.ID, 100, nil)

	// Overpay to create a 50 credit.
	_, err := alloc.RecordPayment(cust.ID, first.ID, ledger.NewMoney(150))
	require.NoError(t, err)

	addDebt(t, store, cust.ID, 30, nil)

	s := ledger.CustomerSummary(mustCustomer(t, store, cust.ID))
	assert.Equal(t, "30.00", s.TotalOwed.String())
	assert.Equal(t, "50.00", s.StoreCredit.String())
	assert.Equal(t, "0.00", s.NetOwed.String(), "net never goes below zero")
	assert.Equal(t, 1, s.ActiveDebts)
}

func TestCustomerSummary_CreditEntriesAreNotActiveDebts(t *testing.T) {
	store, alloc, cust := newFixture(t)
	debt := addDebt(t, store, cust.ID, 100, nil)

	_, err := alloc.RecordPayment(cust.ID, debt.ID, ledger.NewMoney(250))
	require.NoError(t, err)

	c := mustCustomer(t, store, cust.ID)
	for _, d := range c.Debts {
		if d.IsCredit() {
			assert.False(t, d.Amount.IsPositive())
			assert.False(t, d.Paid)
		}
	}
	s := ledger.CustomerSummary(c)
	assert.Equal(t, 0, s.ActiveDebts)
	assert.Equal(t, "150.00", s.StoreCredit.String())
}

func TestSummary_EmptyStore(t *testing.T) {
	store := ledger.NewStore()
	s := ledger.GlobalSummary(store.Customers())
	assert.Equal(t, "0.00", s.TotalOwed.String())
	assert.Equal(t, "0.00", s.TotalPaid.String())
	assert.Equal(t, 0, s.ActiveDebts)
}
