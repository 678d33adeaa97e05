package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/debt-engine/ledger"
	"github.com/warp/debt-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleCustomer() ledger.Customer {
	borrowed := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	return ledger.Customer{
		ID:        "c-1",
		Name:      "Asha",
		Phone:     "+254700000001",
		CreatedAt: borrowed,
		Debts: []ledger.Debt{
			{
				ID:           "d-1",
				Amount:       ledger.NewMoney(1000),
				Reason:       "goods on credit",
				DateBorrowed: borrowed,
				DueDate:      &due,
				Paid:         true,
				CreatedAt:    borrowed,
				Payments: []ledger.Payment{
					{Amount: ledger.NewMoney(1000), Date: due, Kind: ledger.PaymentDirect},
				},
			},
			{
				ID:           "d-2",
				Amount:       ledger.NewMoney(-50),
				Reason:       ledger.CreditReason,
				DateBorrowed: due,
				CreatedAt:    due,
				Payments:     []ledger.Payment{},
			},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCustomer(ctx, sampleCustomer()))

	customers, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)

	got := customers[0]
	assert.Equal(t, ledger.CustomerID("c-1"), got.ID)
	assert.Equal(t, "Asha", got.Name)
	require.Len(t, got.Debts, 2)

	debt := got.Debts[0]
	assert.Equal(t, "1000.00", debt.Amount.String())
	assert.True(t, debt.Paid)
	require.NotNil(t, debt.DueDate)
	require.Len(t, debt.Payments, 1)
	assert.Equal(t, ledger.PaymentDirect, debt.Payments[0].Kind)
	assert.Equal(t, "1000.00", debt.Payments[0].Amount.String())

	credit := got.Debts[1]
	assert.True(t, credit.IsCredit())
	assert.Equal(t, "-50.00", credit.Amount.String())
	assert.Nil(t, credit.DueDate)
	assert.Empty(t, credit.Payments)
}

func TestSaveCustomer_IsIdempotentFullReplacement(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := sampleCustomer()
	require.NoError(t, s.SaveCustomer(ctx, c))
	require.NoError(t, s.SaveCustomer(ctx, c))

	// Save a shrunk snapshot: stale debt rows must disappear.
	c.Debts = c.Debts[:1]
	require.NoError(t, s.SaveCustomer(ctx, c))

	customers, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Len(t, customers[0].Debts, 1)
}

func TestDeleteCustomer_CascadesRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCustomer(ctx, sampleCustomer()))
	require.NoError(t, s.DeleteCustomer(ctx, "c-1"))

	customers, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, customers)

	// Deleting a missing customer is not an error for the sink.
	require.NoError(t, s.DeleteCustomer(ctx, "c-1"))
}

func TestLoadAll_PreservesDebtOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := sampleCustomer()
	c.Debts = append(c.Debts, ledger.Debt{
		ID:           "d-3",
		Amount:       ledger.NewMoney(75),
		DateBorrowed: c.CreatedAt,
		CreatedAt:    c.CreatedAt,
		Payments:     []ledger.Payment{},
	})
	require.NoError(t, s.SaveCustomer(ctx, c))

	customers, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, customers[0].Debts, 3)
	assert.Equal(t, ledger.DebtID("d-1"), customers[0].Debts[0].ID)
	assert.Equal(t, ledger.DebtID("d-2"), customers[0].Debts[1].ID)
	assert.Equal(t, ledger.DebtID("d-3"), customers[0].Debts[2].ID)
}
