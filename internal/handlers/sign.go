package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/diewo77/go-devis/internal/httpx"
	"github.com/diewo77/go-devis/internal/view"
)

// signature uploads accept raster images only
var allowedSignatureExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// SignForm: GET /quote/{id}/sign
func (h *QuoteHandler) SignForm(w http.ResponseWriter, r *http.Request) {
	q, ok := h.load(w, r)
	if !ok {
		return
	}
	_ = view.Render(w, r, "sign.html", map[string]any{"Quote": q})
}

// Sign: POST /quote/{id}/sign. A disallowed extension is rejected without
// detail (silent redirect back to the detail page). A signature that cannot
// be composited still yields a signed document; the JSON answer carries the
// signature_applied flag so API clients can tell.
func (h *QuoteHandler) Sign(w http.ResponseWriter, r *http.Request) {
	q, ok := h.load(w, r)
	if !ok {
		return
	}
	detailURL := fmt.Sprintf("/quote/%d", q.ID)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return
	}
	file, header, err := r.FormFile("signature")
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "signature_required", nil)
			return
		}
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedSignatureExts[ext] {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "unsupported_signature_format", nil)
			return
		}
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return
	}

	res, err := h.Quotes.Sign(q.ID, data, ext)
	if err != nil {
		log.Printf("sign quote %d: %v", q.ID, err)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_sign", nil)
			return
		}
		http.Redirect(w, r, detailURL, http.StatusSeeOther)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"signed_pdf_filename": res.SignedPDFFilename,
			"signature_applied":   res.SignatureApplied,
		})
		return
	}
	http.Redirect(w, r, detailURL, http.StatusSeeOther)
}
