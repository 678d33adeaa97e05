package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/debt-engine/ledger"
)

func TestStore_AddCustomer_Validation(t *testing.T) {
	store := ledger.NewStore()

	_, err := store.AddCustomer(ledger.Customer{Name: "   "})
	assert.ErrorIs(t, err, ledger.ErrEmptyName)

	c, err := store.AddCustomer(ledger.Customer{ID: "c-1", Name: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, ledger.CustomerID("c-1"), c.ID)

	_, err = store.AddCustomer(ledger.Customer{ID: "c-1", Name: "Asha again"})
	assert.ErrorIs(t, err, ledger.ErrDuplicateCustomer)
}

func TestStore_AddCustomer_AssignsID(t *testing.T) {
	store := ledger.NewStore()
	c, err := store.AddCustomer(ledger.Customer{Name: "Brian"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
}

func TestStore_AddDebt_DuplicateID(t *testing.T) {
	store := ledger.NewStore()
	c, err := store.AddCustomer(ledger.Customer{Name: "Asha"})
	require.NoError(t, err)

	_, err = store.AddDebt(c.ID, ledger.Debt{ID: "d-1", Amount: ledger.NewMoney(100)})
	require.NoError(t, err)
	_, err = store.AddDebt(c.ID, ledger.Debt{ID: "d-1", Amount: ledger.NewMoney(200)})
	assert.ErrorIs(t, err, ledger.ErrDuplicateDebt)

	_, err = store.AddDebt("missing", ledger.Debt{Amount: ledger.NewMoney(100)})
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)
}

func TestStore_ReadsReturnCopies(t *testing.T) {
	// Mutating a returned customer must not leak into the store.

	store := ledger.NewStore()
	c, err := store.AddCustomer(ledger.Customer{Name: "Asha"})
	require.NoError(t, err)
	_, err = store.AddDebt(c.ID, ledger.Debt{ID: "d-1", Amount: ledger.NewMoney(100)})
	require.NoError(t, err)

	got, err := store.FindCustomer(c.ID)
	require.NoError(t, err)
	got.Debts[0].Paid = true
	got.Debts[0].Payments = append(got.Debts[0].Payments, ledger.Payment{Amount: ledger.NewMoney(5)})

	fresh, err := store.FindDebt(c.ID, "d-1")
	require.NoError(t, err)
	assert.False(t, fresh.Paid)
	assert.Empty(t, fresh.Payments)
}

func TestStore_Update_AtomicCommit(t *testing.T) {
	// Update swaps the whole customer in one commit; a snapshot taken
	// before the commit keeps the old state.

	store := ledger.NewStore()
	c, err := store.AddCustomer(ledger.Customer{Name: "Asha"})
	require.NoError(t, err)
	_, err = store.AddDebt(c.ID, ledger.Debt{Amount: ledger.NewMoney(100)})
	require.NoError(t, err)

	before, err := store.FindCustomer(c.ID)
	require.NoError(t, err)

	got, err := store.Update(c.ID, func(cust *ledger.Customer) error {
		cust.Debts[0].Paid = true
		cust.Debts = append(cust.Debts, ledger.Debt{ID: "credit", Amount: ledger.NewMoney(-20), Reason: ledger.CreditReason})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, got.Debts, 2)

	after, err := store.FindCustomer(c.ID)
	require.NoError(t, err)
	assert.Len(t, after.Debts, 2)
	assert.True(t, after.Debts[0].Paid)

	assert.Len(t, before.Debts, 1)
	assert.False(t, before.Debts[0].Paid)

	_, err = store.Update("missing", func(*ledger.Customer) error { return nil })
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)
}

func TestStore_Update_ErrorAbandonsWorkingCopy(t *testing.T) {
	// When fn fails, its edits to the working copy must not be published.

	store := ledger.NewStore()
	c, err := store.AddCustomer(ledger.Customer{Name: "Asha"})
	require.NoError(t, err)
	_, err = store.AddDebt(c.ID, ledger.Debt{ID: "d-1", Amount: ledger.NewMoney(100)})
	require.NoError(t, err)

	_, err = store.Update(c.ID, func(cust *ledger.Customer) error {
		cust.Debts[0].Paid = true
		return ledger.ErrDebtNotFound
	})
	assert.ErrorIs(t, err, ledger.ErrDebtNotFound)

	d, err := store.FindDebt(c.ID, "d-1")
	require.NoError(t, err)
	assert.False(t, d.Paid)
}

func TestStore_DeleteDebtAndCustomer(t *testing.T) {
	store := ledger.NewStore()
	c, err := store.AddCustomer(ledger.Customer{Name: "Asha"})
	require.NoError(t, err)
	d, err := store.AddDebt(c.ID, ledger.Debt{Amount: ledger.NewMoney(100)})
	require.NoError(t, err)

	require.NoError(t, store.DeleteDebt(c.ID, d.ID))
	assert.ErrorIs(t, store.DeleteDebt(c.ID, d.ID), ledger.ErrDebtNotFound)

	require.NoError(t, store.DeleteCustomer(c.ID))
	assert.ErrorIs(t, store.DeleteCustomer(c.ID), ledger.ErrCustomerNotFound)
	assert.Empty(t, store.Customers())
}

func TestStore_CustomersPreservesInsertionOrder(t *testing.T) {
	store := ledger.NewStore()
	names := []string{"Asha", "Brian", "Chebet"}
	for _, n := range names {
		_, err := store.AddCustomer(ledger.Customer{Name: n})
		require.NoError(t, err)
	}

	customers := store.Customers()
	require.Len(t, customers, 3)
	for i, c := range customers {
		assert.Equal(t, names[i], c.Name)
	}
}
