/*
store.go - In-memory customer/debt graph

PURPOSE:
  The Store is the authoritative in-memory collection of customers and
  their debts for one session. All payment-state writes funnel through
  the allocator's single mutation surface, Update; everything else here
  is trivial CRUD.

UPDATE:
  Update runs a caller-supplied function against a working copy of the
  customer while holding the write lock, then swaps the copy in. The
  whole read-modify-write is one critical section, so two concurrent
  payments against the same customer cannot both start from the same
  remaining balance and lose one of the writes. A reader never observes
  a state where the payment target was updated but the cascade to
  sibling debts only partially applied.

COPY DISCIPLINE:
  Every read hands out deep copies and every write copies on the way in.
  Callers can hold results across mutations without aliasing the
  authoritative state.

PERSISTENCE:
  None here. Durability is the caller's concern: mutations are forwarded
  to the outbox after the in-memory swap, and a sink failure never rolls
  the swap back.

SEE ALSO:
  - allocator.go: The only writer of payment state
  - store/sqlite: Durable sink fed by the outbox
*/
package ledger

import (
	"strings"
	"sync"
)

// =============================================================================
// STORE
// =============================================================================

// Store holds the customer/debt graph for one session.
type Store struct {
	mu        sync.RWMutex
	customers map[CustomerID]*Customer
	order     []CustomerID // insertion order, for stable listing
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{customers: make(map[CustomerID]*Customer)}
}

// =============================================================================
// CUSTOMER CRUD
// =============================================================================

// AddCustomer inserts a new customer. An empty ID is assigned one.
func (s *Store) AddCustomer(c Customer) (Customer, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Customer{}, ErrEmptyName
	}
	if c.ID == "" {
		c.ID = NewCustomerID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID]; exists {
		return Customer{}, ErrDuplicateCustomer
	}
	stored := c.Clone()
	if stored.Debts == nil {
		stored.Debts = []Debt{}
	}
	s.customers[c.ID] = &stored
	s.order = append(s.order, c.ID)
	return stored.Clone(), nil
}

// DeleteCustomer removes a customer and all debts.
func (s *Store) DeleteCustomer(id CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[id]; !exists {
		return ErrCustomerNotFound
	}
	delete(s.customers, id)
	for i, cid := range s.order {
		if cid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// FindCustomer returns a deep copy of the customer.
func (s *Store) FindCustomer(id CustomerID) (Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	return c.Clone(), nil
}

// Customers returns deep copies of every customer in insertion order.
func (s *Store) Customers() []Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Customer, 0, len(s.order))
	for _, id := range s.order {
		if c, ok := s.customers[id]; ok {
			out = append(out, c.Clone())
		}
	}
	return out
}

// =============================================================================
// DEBT CRUD
// =============================================================================

// AddDebt appends a debt to the customer's list. An empty ID is assigned.
func (s *Store) AddDebt(customerID CustomerID, d Debt) (Debt, error) {
	if d.ID == "" {
		d.ID = NewDebtID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[customerID]
	if !ok {
		return Debt{}, ErrCustomerNotFound
	}
	if c.debtIndex(d.ID) >= 0 {
		return Debt{}, ErrDuplicateDebt
	}
	stored := d.Clone()
	if stored.Payments == nil {
		stored.Payments = []Payment{}
	}
	c.Debts = append(c.Debts, stored)
	return stored.Clone(), nil
}

// DeleteDebt removes a debt entirely. Deletion is the only way a debt
// leaves the list; payment state never transitions back to open.
func (s *Store) DeleteDebt(customerID CustomerID, debtID DebtID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[customerID]
	if !ok {
		return ErrCustomerNotFound
	}
	i := c.debtIndex(debtID)
	if i < 0 {
		return ErrDebtNotFound
	}
	c.Debts = append(c.Debts[:i], c.Debts[i+1:]...)
	return nil
}

// FindDebt returns a deep copy of one debt.
func (s *Store) FindDebt(customerID CustomerID, debtID DebtID) (Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[customerID]
	if !ok {
		return Debt{}, ErrCustomerNotFound
	}
	i := c.debtIndex(debtID)
	if i < 0 {
		return Debt{}, ErrDebtNotFound
	}
	return c.Debts[i].Clone(), nil
}

// =============================================================================
// MUTATION SURFACE FOR THE ALLOCATOR
// =============================================================================

// Update runs fn against a working copy of the customer and swaps the
// copy in, all under the write lock. fn returning an error abandons the
// copy and leaves the stored state untouched; otherwise the committed
// state carries everything fn did, and Update returns a copy of it.
func (s *Store) Update(id CustomerID, fn func(c *Customer) error) (Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.customers[id]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	working := stored.Clone()
	if err := fn(&working); err != nil {
		return Customer{}, err
	}
	committed := working.Clone()
	s.customers[id] = &committed
	return working, nil
}
