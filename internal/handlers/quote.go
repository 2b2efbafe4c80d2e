package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-devis/internal/httpx"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/diewo77/go-devis/internal/services"
	"github.com/diewo77/go-devis/internal/view"
)

const maxUploadSize = 20 << 20 // 20 MB

// QuoteHandler serves the quote list, creation, detail and download routes.
// Like the rest of the handlers it answers JSON when the client asks for it
// and rendered HTML with redirect flows otherwise.
type QuoteHandler struct {
	Quotes *services.QuoteService
}

func NewQuoteHandler(quotes *services.QuoteService) *QuoteHandler {
	return &QuoteHandler{Quotes: quotes}
}

// List: GET / with optional month, category, company, status and q filters.
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := services.ListFilter{
		Month:    strings.TrimSpace(r.URL.Query().Get("month")),
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Status:   models.QuoteStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		Query:    strings.TrimSpace(r.URL.Query().Get("q")),
	}
	if v := r.URL.Query().Get("company"); v != "" {
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			filter.CompanyID = uint(id)
		}
	}
	quotes, err := h.Quotes.List(filter)
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_quotes", nil)
			return
		}
		http.Error(w, "erreur de chargement des devis", http.StatusInternalServerError)
		return
	}
	if httpx.WantsJSON(r) {
		type item struct {
			models.Quote
			Month  string             `json:"month"`
			Status models.QuoteStatus `json:"status"`
		}
		today := time.Now()
		items := make([]item, 0, len(quotes))
		for _, q := range quotes {
			items = append(items, item{Quote: q, Month: q.Month(), Status: q.Status(today)})
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
		return
	}

	months, _ := h.Quotes.Months()
	categories, _ := h.Quotes.Categories()
	companies, err := h.Quotes.Companies()
	if err != nil {
		log.Printf("list companies: %v", err)
	}
	_ = view.Render(w, r, "index.html", map[string]any{
		"Quotes":           quotes,
		"Months":           months,
		"Categories":       categories,
		"Companies":        companies,
		"SelectedMonth":    filter.Month,
		"SelectedCategory": filter.Category,
		"SelectedCompany":  filter.CompanyID,
		"SelectedStatus":   string(filter.Status),
		"Query":            filter.Query,
		"Imported":         r.URL.Query().Get("imported"),
	})
}

// NewForm: GET /new
func (h *QuoteHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Quotes.Companies()
	if err != nil {
		log.Printf("list companies: %v", err)
	}
	_ = view.Render(w, r, "new.html", map[string]any{"Companies": companies})
}

// Create: POST /new. A missing required field silently redirects back to the
// form. An uploaded .pdf replaces generation; any other uploaded extension is
// ignored and the document is generated instead.
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/new", http.StatusSeeOther)
			return
		}
	}
	q := models.Quote{
		ClientName:  strings.TrimSpace(r.FormValue("client_name")),
		QuoteDate:   strings.TrimSpace(r.FormValue("quote_date")),
		Category:    strings.TrimSpace(r.FormValue("category")),
		Description: r.FormValue("description"),
	}
	if q.ClientName == "" || q.QuoteDate == "" || q.Category == "" {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{
				"client_name": "required", "quote_date": "required", "category": "required",
			})
			return
		}
		http.Redirect(w, r, "/new", http.StatusSeeOther)
		return
	}
	if v := r.FormValue("amount"); v != "" {
		if amt, err := strconv.ParseFloat(v, 64); err == nil && amt >= 0 {
			q.Amount = amt
		}
	}
	if v := r.FormValue("company_id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			cid := uint(id)
			q.CompanyID = &cid
		}
	}

	var uploaded []byte
	if file, header, err := r.FormFile("pdf_upload"); err == nil {
		defer file.Close()
		if strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
			if data, err := io.ReadAll(file); err == nil {
				uploaded = data
			}
		}
	}

	if err := h.Quotes.Create(&q, uploaded); err != nil {
		log.Printf("create quote: %v", err)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_quote", nil)
			return
		}
		http.Redirect(w, r, "/new", http.StatusSeeOther)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{"id": q.ID, "pdf_filename": q.PDFFilename})
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/quote/%d", q.ID), http.StatusSeeOther)
}

// Detail: GET /quote/{id}. Unknown ids go back to the list.
func (h *QuoteHandler) Detail(w http.ResponseWriter, r *http.Request) {
	q, ok := h.load(w, r)
	if !ok {
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"quote":  q,
			"month":  q.Month(),
			"status": q.Status(time.Now()),
		})
		return
	}
	_ = view.Render(w, r, "quote_detail.html", map[string]any{
		"Quote":  q,
		"Status": q.Status(time.Now()),
	})
}

// Regenerate: POST /quote/{id}/regenerate. Re-renders the unsigned document,
// useful after editing a quote whose file was generated with older data.
func (h *QuoteHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	q, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.Quotes.Regenerate(q); err != nil {
		log.Printf("regenerate quote %d: %v", q.ID, err)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_regenerate", nil)
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/quote/%d", q.ID), http.StatusSeeOther)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": q.ID, "pdf_filename": q.PDFFilename})
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/quote/%d", q.ID), http.StatusSeeOther)
}

// Download: GET /quote/{id}/download?signed=true. Asking for a signed
// document that does not exist falls back to the unsigned one.
func (h *QuoteHandler) Download(w http.ResponseWriter, r *http.Request) {
	q, ok := h.load(w, r)
	if !ok {
		return
	}
	signed, _ := strconv.ParseBool(r.URL.Query().Get("signed"))
	filename := q.PDFFilename
	if signed && q.SignedPDFFilename != "" {
		filename = q.SignedPDFFilename
	}
	if filename == "" {
		http.Redirect(w, r, fmt.Sprintf("/quote/%d", q.ID), http.StatusSeeOther)
		return
	}
	f, err := h.Quotes.Documents.Open(filename)
	if err != nil {
		log.Printf("download quote %d: %v", q.ID, err)
		http.Redirect(w, r, fmt.Sprintf("/quote/%d", q.ID), http.StatusSeeOther)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = io.Copy(w, f)
}

// load resolves the {id} path value, redirecting to the list (or answering
// 404 for JSON clients) when the quote does not exist.
func (h *QuoteHandler) load(w http.ResponseWriter, r *http.Request) (*models.Quote, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		h.notFound(w, r)
		return nil, false
	}
	q, err := h.Quotes.Get(uint(id))
	if err != nil {
		h.notFound(w, r)
		return nil, false
	}
	return q, true
}

func (h *QuoteHandler) notFound(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusNotFound, "quote_not_found", nil)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
