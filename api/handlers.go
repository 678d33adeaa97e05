/*
handlers.go - HTTP handlers for the debt ledger

PURPOSE:
  Exposes the ledger engine over REST. Handlers parse HTTP, delegate to
  the store/allocator, enqueue the mutated customer on the sync outbox,
  and serialize responses.

ENDPOINTS:
  Customers:
    GET    /api/customers                    List customers
    POST   /api/customers                    Create customer
    GET    /api/customers/{id}               Get customer with debts
    DELETE /api/customers/{id}               Delete customer
    GET    /api/customers/{id}/summary       Per-customer summary
    GET    /api/customers/{id}/statement.xlsx  Statement export

  Debts:
    POST   /api/customers/{id}/debts                       Add debt
    DELETE /api/customers/{id}/debts/{debtID}              Delete debt
    POST   /api/customers/{id}/debts/{debtID}/payments     Record payment
    POST   /api/customers/{id}/debts/{debtID}/paid         Mark as paid

  Global:
    GET    /api/summary     Store-wide totals
    GET    /healthz         Liveness
    GET    /metrics         Prometheus

TOLERANT PAYMENT CONTRACT:
  The engine reports not-found with typed errors, but the product
  tolerates stale debt references from the UI: a payment against a
  vanished customer/debt answers 200 with applied=false rather than 404.
  Every other endpoint reports not-found normally.

ERROR HANDLING:
  Errors are returned as JSON:
  - 400: Invalid input
  - 404: Customer/debt not found (except the payment path, see above)
  - 500: Internal errors
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/debt-engine/ledger"
	"github.com/warp/debt-engine/metrics"
	"github.com/warp/debt-engine/outbox"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *ledger.Store
	Alloc  *ledger.Allocator
	Outbox *outbox.Outbox
	Log    *zap.Logger
	Clock  ledger.Clock
}

// NewHandler wires the handler. Nil logger and clock get safe defaults.
func NewHandler(store *ledger.Store, alloc *ledger.Allocator, ob *outbox.Outbox, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:  store,
		Alloc:  alloc,
		Outbox: ob,
		Log:    log.Named("api"),
		Clock:  ledger.SystemClock{},
	}
}

func (h *Handler) syncCustomer(id ledger.CustomerID) {
	if h.Outbox == nil {
		return
	}
	c, err := h.Store.FindCustomer(id)
	if err != nil {
		return
	}
	h.Outbox.EnqueueSave(c)
}

// =============================================================================
// CUSTOMER HANDLERS
// =============================================================================

// ListCustomers returns all customers with their debts.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers := h.Store.Customers()
	dtos := make([]CustomerDTO, len(customers))
	for i, c := range customers {
		dtos[i] = toCustomerDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCustomer creates a new customer.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c, err := h.Store.AddCustomer(ledger.Customer{
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedAt: h.Clock.Now(),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to create customer", err)
		return
	}

	h.syncCustomer(c.ID)
	writeJSON(w, http.StatusCreated, toCustomerDTO(c))
}

// GetCustomer returns one customer with debts and payments.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := ledger.CustomerID(chi.URLParam(r, "id"))
	c, err := h.Store.FindCustomer(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Customer not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(c))
}

// DeleteCustomer removes a customer and all debts.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := ledger.CustomerID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteCustomer(id); err != nil {
		writeError(w, http.StatusNotFound, "Customer not found", err)
		return
	}
	if h.Outbox != nil {
		h.Outbox.EnqueueDelete(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCustomerSummary returns the per-customer aggregate view.
func (h *Handler) GetCustomerSummary(w http.ResponseWriter, r *http.Request) {
	id := ledger.CustomerID(chi.URLParam(r, "id"))
	c, err := h.Store.FindCustomer(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Customer not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(ledger.CustomerSummary(c)))
}

// GetSummary returns store-wide totals.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSummaryDTO(ledger.GlobalSummary(h.Store.Customers())))
}

// =============================================================================
// DEBT HANDLERS
// =============================================================================

// CreateDebt adds a debt to a customer.
func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	customerID := ledger.CustomerID(chi.URLParam(r, "id"))

	var req CreateDebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount := ledger.ParseAmount(req.Amount)
	if !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "Debt amount must be positive", nil)
		return
	}

	now := h.Clock.Now()
	borrowed := now
	if req.DateBorrowed != "" {
		t, err := time.Parse("2006-01-02", req.DateBorrowed)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date_borrowed format (use YYYY-MM-DD)", err)
			return
		}
		borrowed = t
	}

	var due *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		t, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid due_date format (use YYYY-MM-DD)", err)
			return
		}
		due = &t
	}

	d, err := h.Store.AddDebt(customerID, ledger.Debt{
		Amount:       amount,
		Reason:       req.Reason,
		DateBorrowed: borrowed,
		DueDate:      due,
		CreatedAt:    now,
	})
	if err != nil {
		if ledger.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Customer not found", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to add debt", err)
		return
	}

	h.syncCustomer(customerID)
	writeJSON(w, http.StatusCreated, toDebtDTO(d))
}

// DeleteDebt removes one debt.
func (h *Handler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	customerID := ledger.CustomerID(chi.URLParam(r, "id"))
	debtID := ledger.DebtID(chi.URLParam(r, "debtID"))

	if err := h.Store.DeleteDebt(customerID, debtID); err != nil {
		writeError(w, http.StatusNotFound, "Debt not found", err)
		return
	}
	h.syncCustomer(customerID)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// RecordPayment applies a payment and cascades any overpayment.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	customerID := ledger.CustomerID(chi.URLParam(r, "id"))
	debtID := ledger.DebtID(chi.URLParam(r, "debtID"))

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res, err := h.Alloc.RecordPayment(customerID, debtID, ledger.ParseAmount(req.Amount))
	if err != nil {
		if ledger.IsNotFound(err) {
			// Stale UI references are tolerated: report a no-op, not a 404.
			h.Log.Debug("payment against missing target ignored",
				zap.String("customer_id", string(customerID)),
				zap.String("debt_id", string(debtID)))
			writeJSON(w, http.StatusOK, AllocationDTO{Applied: false})
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to record payment", err)
		return
	}

	m := metrics.Ledger()
	m.PaymentsRecorded.Inc()
	m.AutoClearPayments.Add(float64(len(res.AutoCleared)))
	if res.CreditIssued.IsPositive() {
		m.StoreCreditsIssued.Inc()
	}

	if h.Outbox != nil {
		h.Outbox.EnqueueSave(res.Customer)
	}

	dto := AllocationDTO{
		Applied:      true,
		Amount:       res.Amount.Float64(),
		Overpayment:  res.Overpayment.Float64(),
		CreditIssued: res.CreditIssued.Float64(),
	}
	for _, ac := range res.AutoCleared {
		dto.AutoCleared = append(dto.AutoCleared, AutoClearedDTO{
			DebtID:  string(ac.DebtID),
			Applied: ac.Applied.Float64(),
			Paid:    ac.Paid,
		})
	}
	custDTO := toCustomerDTO(res.Customer)
	dto.Customer = &custDTO
	writeJSON(w, http.StatusOK, dto)
}

// MarkDebtAsPaid force-sets the paid flag without a payment amount.
func (h *Handler) MarkDebtAsPaid(w http.ResponseWriter, r *http.Request) {
	customerID := ledger.CustomerID(chi.URLParam(r, "id"))
	debtID := ledger.DebtID(chi.URLParam(r, "debtID"))

	c, err := h.Alloc.MarkDebtAsPaid(customerID, debtID)
	if err != nil {
		if ledger.IsNotFound(err) {
			writeJSON(w, http.StatusOK, AllocationDTO{Applied: false})
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to mark debt as paid", err)
		return
	}

	if h.Outbox != nil {
		h.Outbox.EnqueueSave(c)
	}
	custDTO := toCustomerDTO(c)
	writeJSON(w, http.StatusOK, AllocationDTO{Applied: true, Customer: &custDTO})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
