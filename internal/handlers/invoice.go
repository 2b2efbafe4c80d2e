package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-devis/internal/httpx"
)

// Invoice: POST /quote/{id}/invoice records the final invoiced amount and the
// optional comment explaining a discrepancy with the quoted amount.
func (h *QuoteHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	q, ok := h.load(w, r)
	if !ok {
		return
	}
	detailURL := fmt.Sprintf("/quote/%d", q.ID)

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("invoice_amount")), 64)
	if err != nil || amount < 0 {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_invoice_amount", nil)
			return
		}
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return
	}
	comment := strings.TrimSpace(r.FormValue("invoice_comment"))

	if err := h.Quotes.RecordInvoice(q.ID, amount, comment); err != nil {
		log.Printf("record invoice for quote %d: %v", q.ID, err)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_record_invoice", nil)
			return
		}
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": q.ID, "invoice_amount": amount})
		return
	}
	http.Redirect(w, r, detailURL, http.StatusSeeOther)
}
