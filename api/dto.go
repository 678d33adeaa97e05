/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures decoupling the domain model from the API contract.
  DTOs are pure data carriers; validation happens in handlers.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
*/
package api

import (
	"time"

	"github.com/warp/debt-engine/ledger"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// CustomerDTO represents a customer in API responses.
type CustomerDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Debts     []DebtDTO `json:"debts"`
	CreatedAt string    `json:"created_at,omitempty"`
}

// DebtDTO represents one debt (or store-credit entry).
type DebtDTO struct {
	ID           string       `json:"id"`
	Amount       float64      `json:"amount"`
	Remaining    float64      `json:"remaining"`
	Reason       string       `json:"reason"`
	DateBorrowed string       `json:"date_borrowed"`
	DueDate      *string      `json:"due_date,omitempty"`
	Paid         bool         `json:"paid"`
	Credit       bool         `json:"credit"`
	Payments     []PaymentDTO `json:"payments"`
	CreatedAt    string       `json:"created_at,omitempty"`
}

// PaymentDTO represents one payment log entry.
type PaymentDTO struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
	Kind   string  `json:"kind"`
}

// SummaryDTO is the aggregate view of a customer or the whole store.
type SummaryDTO struct {
	TotalOwed   float64 `json:"total_owed"`
	TotalPaid   float64 `json:"total_paid"`
	ActiveDebts int     `json:"active_debts"`
	StoreCredit float64 `json:"store_credit"`
	NetOwed     float64 `json:"net_owed"`
}

// AllocationDTO reports what one payment did. Applied is false when the
// referenced customer or debt no longer exists (tolerated, not an error).
type AllocationDTO struct {
	Applied      bool             `json:"applied"`
	Amount       float64          `json:"amount"`
	Overpayment  float64          `json:"overpayment"`
	AutoCleared  []AutoClearedDTO `json:"auto_cleared,omitempty"`
	CreditIssued float64          `json:"credit_issued"`
	Customer     *CustomerDTO     `json:"customer,omitempty"`
}

// AutoClearedDTO describes one sibling debt touched by the cascade.
type AutoClearedDTO struct {
	DebtID  string  `json:"debt_id"`
	Applied float64 `json:"applied"`
	Paid    bool    `json:"paid"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateCustomerRequest creates a customer.
type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CreateDebtRequest adds a debt to a customer.
type CreateDebtRequest struct {
	Amount       any     `json:"amount"`
	Reason       string  `json:"reason"`
	DateBorrowed string  `json:"date_borrowed,omitempty"` // YYYY-MM-DD, default today
	DueDate      *string `json:"due_date,omitempty"`      // YYYY-MM-DD, absent = open-ended
}

// RecordPaymentRequest applies a payment to a debt. Amount is loosely
// typed on purpose: clients send numbers or numeric strings.
type RecordPaymentRequest struct {
	Amount any `json:"amount"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toCustomerDTO(c ledger.Customer) CustomerDTO {
	dto := CustomerDTO{
		ID:        string(c.ID),
		Name:      c.Name,
		Phone:     c.Phone,
		Debts:     make([]DebtDTO, len(c.Debts)),
		CreatedAt: formatTime(c.CreatedAt),
	}
	for i, d := range c.Debts {
		dto.Debts[i] = toDebtDTO(d)
	}
	return dto
}

func toDebtDTO(d ledger.Debt) DebtDTO {
	dto := DebtDTO{
		ID:           string(d.ID),
		Amount:       d.Amount.Float64(),
		Remaining:    d.Remaining().Float64(),
		Reason:       d.Reason,
		DateBorrowed: d.DateBorrowed.Format("2006-01-02"),
		Paid:         d.Paid,
		Credit:       d.IsCredit(),
		Payments:     make([]PaymentDTO, len(d.Payments)),
		CreatedAt:    formatTime(d.CreatedAt),
	}
	if d.DueDate != nil {
		due := d.DueDate.Format("2006-01-02")
		dto.DueDate = &due
	}
	for i, p := range d.Payments {
		dto.Payments[i] = PaymentDTO{
			Amount: p.Amount.Float64(),
			Date:   formatTime(p.Date),
			Kind:   string(p.Kind),
		}
	}
	return dto
}

func toSummaryDTO(s ledger.Summary) SummaryDTO {
	return SummaryDTO{
		TotalOwed:   s.TotalOwed.Float64(),
		TotalPaid:   s.TotalPaid.Float64(),
		ActiveDebts: s.ActiveDebts,
		StoreCredit: s.StoreCredit.Float64(),
		NetOwed:     s.NetOwed.Float64(),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
