/*
export.go - Customer statement export

PURPOSE:
  Renders one customer's debts and payment history as an XLSX workbook
  for sharing with the customer or the shop's bookkeeper. Two sheets:
  "Debts" (one row per debt with remaining balance) and "Payments"
  (the full payment log, auto-clear entries labeled as such).
*/
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/warp/debt-engine/ledger"
)

// ExportStatement writes the customer's statement as an XLSX download.
func (h *Handler) ExportStatement(w http.ResponseWriter, r *http.Request) {
	id := ledger.CustomerID(chi.URLParam(r, "id"))
	c, err := h.Store.FindCustomer(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Customer not found", err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const debtsSheet = "Debts"
	index, err := f.NewSheet(debtsSheet)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	debtHeaders := []string{"Reason", "Amount", "Remaining", "Borrowed", "Due", "Status"}
	for i, hdr := range debtHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(debtsSheet, cell, hdr)
	}

	for idx, d := range c.Debts {
		row := idx + 2
		due := "open-ended"
		if d.DueDate != nil {
			due = d.DueDate.Format("2006-01-02")
		}
		status := "open"
		switch {
		case d.IsCredit():
			status = "store credit"
			due = ""
		case d.Paid:
			status = "paid"
		}
		f.SetCellValue(debtsSheet, fmt.Sprintf("A%d", row), d.Reason)
		f.SetCellValue(debtsSheet, fmt.Sprintf("B%d", row), d.Amount.Float64())
		f.SetCellValue(debtsSheet, fmt.Sprintf("C%d", row), d.Remaining().Float64())
		f.SetCellValue(debtsSheet, fmt.Sprintf("D%d", row), d.DateBorrowed.Format("2006-01-02"))
		f.SetCellValue(debtsSheet, fmt.Sprintf("E%d", row), due)
		f.SetCellValue(debtsSheet, fmt.Sprintf("F%d", row), status)
	}

	const paymentsSheet = "Payments"
	if _, err := f.NewSheet(paymentsSheet); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}
	payHeaders := []string{"Debt", "Amount", "Date", "Type"}
	for i, hdr := range payHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(paymentsSheet, cell, hdr)
	}
	row := 2
	for _, d := range c.Debts {
		for _, p := range d.Payments {
			kind := "payment"
			if p.IsAutoClear() {
				kind = "auto-clear"
			}
			f.SetCellValue(paymentsSheet, fmt.Sprintf("A%d", row), d.Reason)
			f.SetCellValue(paymentsSheet, fmt.Sprintf("B%d", row), p.Amount.Float64())
			f.SetCellValue(paymentsSheet, fmt.Sprintf("C%d", row), p.Date.Format("2006-01-02 15:04"))
			f.SetCellValue(paymentsSheet, fmt.Sprintf("D%d", row), kind)
			row++
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("statement-%s.xlsx", c.ID)))
	if err := f.Write(w); err != nil {
		h.Log.Warn("statement export aborted", zap.String("customer_id", string(c.ID)), zap.Error(err))
	}
}
