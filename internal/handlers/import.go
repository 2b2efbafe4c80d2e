package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/diewo77/go-devis/internal/httpx"
	"github.com/diewo77/go-devis/internal/services"
	"github.com/diewo77/go-devis/internal/view"
)

// ImportHandler serves the bulk import routes.
type ImportHandler struct {
	Imports *services.ImportService
}

func NewImportHandler(imports *services.ImportService) *ImportHandler {
	return &ImportHandler{Imports: imports}
}

// Form: GET /import_excel
func (h *ImportHandler) Form(w http.ResponseWriter, r *http.Request) {
	_ = view.Render(w, r, "import_excel.html", nil)
}

// Import: POST /import_excel. The import never aborts because of one bad row;
// any file-level failure silently redirects back to the form.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Redirect(w, r, "/import_excel", http.StatusSeeOther)
		return
	}
	file, header, err := r.FormFile("excel_file")
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "file_required", nil)
			return
		}
		http.Redirect(w, r, "/import_excel", http.StatusSeeOther)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Redirect(w, r, "/import_excel", http.StatusSeeOther)
		return
	}

	var companyID *uint
	if v := r.FormValue("company_id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			cid := uint(id)
			companyID = &cid
		}
	}

	res, err := h.Imports.ImportFile(header.Filename, data, companyID)
	if err != nil {
		log.Printf("import %s: %v", header.Filename, err)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "import_failed", nil)
			return
		}
		http.Redirect(w, r, "/import_excel", http.StatusSeeOther)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, res)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/?imported=%d", res.Imported), http.StatusSeeOther)
}
