package handlers

import (
	"log"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/go-devis/internal/httpx"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/diewo77/go-devis/internal/view"
)

// CompanyHandler serves the company grouping routes. Companies have no
// lifecycle beyond creation.
type CompanyHandler struct {
	DB *gorm.DB
}

func NewCompanyHandler(db *gorm.DB) *CompanyHandler { return &CompanyHandler{DB: db} }

// List: GET /companies
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	var companies []models.Company
	if err := h.DB.Order("name").Find(&companies).Error; err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_companies", nil)
			return
		}
		http.Error(w, "erreur de chargement des sociétés", http.StatusInternalServerError)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": companies, "total": len(companies)})
		return
	}
	_ = view.Render(w, r, "companies.html", map[string]any{"Companies": companies})
}

// NewForm: GET /companies/new
func (h *CompanyHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	_ = view.Render(w, r, "company_new.html", nil)
}

// Create: POST /companies/new. An empty name silently redirects back.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/companies/new", http.StatusSeeOther)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"name": "required"})
			return
		}
		http.Redirect(w, r, "/companies/new", http.StatusSeeOther)
		return
	}
	company := models.Company{Name: name}
	if err := h.DB.Create(&company).Error; err != nil {
		log.Printf("create company: %v", err)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_company", nil)
			return
		}
		http.Redirect(w, r, "/companies/new", http.StatusSeeOther)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{"id": company.ID, "name": company.Name})
		return
	}
	http.Redirect(w, r, "/companies", http.StatusSeeOther)
}
