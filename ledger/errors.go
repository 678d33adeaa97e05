/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All sentinel errors in one place. Callers match with errors.Is().

NOT-FOUND CONTRACT:
  RecordPayment and MarkDebtAsPaid return ErrCustomerNotFound or
  ErrDebtNotFound without mutating anything. The HTTP layer deliberately
  treats these as a benign no-op (stale UI references are tolerated),
  but the engine itself always says what happened.

SEE ALSO:
  - allocator.go: Primary producer of these errors
  - api/handlers.go: Maps them onto the tolerant HTTP contract
*/
package ledger

import "errors"

var (
	// ErrCustomerNotFound is returned when the referenced customer does
	// not exist in the store. The store is guaranteed unchanged.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrDebtNotFound is returned when the referenced debt does not exist
	// on the named customer. The store is guaranteed unchanged.
	ErrDebtNotFound = errors.New("debt not found")

	// ErrDuplicateCustomer is returned when adding a customer whose id
	// already exists.
	ErrDuplicateCustomer = errors.New("duplicate customer id")

	// ErrDuplicateDebt is returned when adding a debt whose id already
	// exists on the customer.
	ErrDuplicateDebt = errors.New("duplicate debt id")

	// ErrEmptyName is returned when creating a customer without a
	// display name.
	ErrEmptyName = errors.New("customer name required")
)

// IsNotFound reports whether the error indicates a missing customer or debt.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) || errors.Is(err, ErrDebtNotFound)
}
