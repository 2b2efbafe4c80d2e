package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/go-devis/internal/filestore"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/diewo77/go-devis/internal/pdf"
)

var ErrQuoteNotFound = errors.New("quote_not_found")

// QuoteService owns the quote lifecycle: create with document generation,
// signing, and recording the final invoice. The store handles are constructed
// at process start and injected here; nothing is package-global.
type QuoteService struct {
	DB         *gorm.DB
	Documents  filestore.Store
	Signatures filestore.Store
}

func NewQuoteService(db *gorm.DB, documents, signatures filestore.Store) *QuoteService {
	return &QuoteService{DB: db, Documents: documents, Signatures: signatures}
}

// SignResult reports what the signing operation actually did, so callers can
// tell a clean signed render from one where the signature image could not be
// composited.
type SignResult struct {
	SignatureFilename string
	SignedPDFFilename string
	SignatureApplied  bool
}

// documentFilename builds a unique name for a generated document. The
// timestamp guarantees uniqueness across repeated regeneration of the same
// quote (same-second collisions silently overwrite, accepted).
func documentFilename(prefix string, id uint) string {
	return fmt.Sprintf("%s_%d_%s.pdf", prefix, id, time.Now().Format("20060102150405"))
}

// Create inserts the quote and attaches its initial document: the uploaded
// PDF when one is provided, a generated one otherwise.
func (s *QuoteService) Create(q *models.Quote, uploadedPDF []byte) error {
	if err := s.DB.Create(q).Error; err != nil {
		return fmt.Errorf("create quote: %w", err)
	}
	var filename string
	if len(uploadedPDF) > 0 {
		filename = documentFilename("imported_quote", q.ID)
		if err := s.Documents.Save(filename, uploadedPDF); err != nil {
			return fmt.Errorf("save uploaded pdf: %w", err)
		}
	} else {
		name, err := s.render(q, nil)
		if err != nil {
			return err
		}
		filename = name
	}
	q.PDFFilename = filename
	if err := s.DB.Model(q).Update("pdf_filename", filename).Error; err != nil {
		return fmt.Errorf("attach pdf: %w", err)
	}
	return nil
}

// render generates the quote document, persists it and returns its name.
func (s *QuoteService) render(q *models.Quote, signature []byte) (string, error) {
	prefix := "quote"
	if signature != nil {
		prefix = "signed_quote"
	}
	doc, applied, err := pdf.Generate(q, signature)
	if err != nil {
		return "", fmt.Errorf("render quote %d: %w", q.ID, err)
	}
	if signature != nil && !applied {
		log.Printf("quote %d: signature image ignored, rendering unsigned content", q.ID)
	}
	name := documentFilename(prefix, q.ID)
	if err := s.Documents.Save(name, doc); err != nil {
		return "", fmt.Errorf("save document: %w", err)
	}
	return name, nil
}

// Regenerate re-renders the unsigned document for an existing quote.
func (s *QuoteService) Regenerate(q *models.Quote) error {
	name, err := s.render(q, nil)
	if err != nil {
		return err
	}
	q.PDFFilename = name
	return s.DB.Model(q).Update("pdf_filename", name).Error
}

// Sign stores the signature image, renders the signed document and records
// its name on the quote. A signature that cannot be decoded still produces a
// document; SignResult.SignatureApplied reports which case happened.
func (s *QuoteService) Sign(id uint, signature []byte, ext string) (SignResult, error) {
	var res SignResult
	q, err := s.Get(id)
	if err != nil {
		return res, err
	}

	sigName := fmt.Sprintf("sig_%s%s", time.Now().Format("20060102150405"), strings.ToLower(ext))
	if err := s.Signatures.Save(sigName, signature); err != nil {
		return res, fmt.Errorf("save signature: %w", err)
	}
	res.SignatureFilename = sigName

	doc, applied, err := pdf.Generate(q, signature)
	if err != nil {
		return res, fmt.Errorf("render signed quote %d: %w", id, err)
	}
	res.SignatureApplied = applied

	name := documentFilename("signed_quote", id)
	if err := s.Documents.Save(name, doc); err != nil {
		return res, fmt.Errorf("save signed document: %w", err)
	}
	res.SignedPDFFilename = name
	if err := s.DB.Model(q).Update("signed_pdf_filename", name).Error; err != nil {
		return res, fmt.Errorf("attach signed pdf: %w", err)
	}
	return res, nil
}

// RecordInvoice sets the final invoiced amount and the optional discrepancy
// comment.
func (s *QuoteService) RecordInvoice(id uint, amount float64, comment string) error {
	q, err := s.Get(id)
	if err != nil {
		return err
	}
	updates := map[string]any{"invoice_amount": amount, "invoice_comment": comment}
	if err := s.DB.Model(q).Updates(updates).Error; err != nil {
		return fmt.Errorf("record invoice: %w", err)
	}
	return nil
}

func (s *QuoteService) Get(id uint) (*models.Quote, error) {
	var q models.Quote
	if err := s.DB.Preload("Company").First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("load quote %d: %w", id, err)
	}
	return &q, nil
}

// ListFilter narrows the quote listing. Zero values mean "no filter".
type ListFilter struct {
	Month     string // YYYY-MM prefix of quote_date
	Category  string
	CompanyID uint
	Status    models.QuoteStatus
	Query     string // case-insensitive substring over client name and description
}

// List returns quotes matching the filter, newest quote date first. The
// status filter is applied after classification since status is derived, not
// stored.
func (s *QuoteService) List(f ListFilter) ([]models.Quote, error) {
	dbq := s.DB.Model(&models.Quote{}).Preload("Company")
	if f.Month != "" {
		dbq = dbq.Where("quote_date LIKE ?", f.Month+"%")
	}
	if f.Category != "" {
		dbq = dbq.Where("category = ?", f.Category)
	}
	if f.CompanyID != 0 {
		dbq = dbq.Where("company_id = ?", f.CompanyID)
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		dbq = dbq.Where("lower(client_name) LIKE ? OR lower(description) LIKE ?", like, like)
	}
	var quotes []models.Quote
	if err := dbq.Order("quote_date DESC, id DESC").Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	if f.Status != "" {
		today := time.Now()
		filtered := quotes[:0]
		for _, q := range quotes {
			if q.Status(today) == f.Status {
				filtered = append(filtered, q)
			}
		}
		quotes = filtered
	}
	return quotes, nil
}

// Months returns the distinct YYYY-MM keys present in the store, newest
// first, for the list filter bar.
func (s *QuoteService) Months() ([]string, error) {
	var months []string
	err := s.DB.Raw(
		"SELECT DISTINCT substr(quote_date, 1, 7) AS month FROM quotes ORDER BY month DESC",
	).Scan(&months).Error
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	return months, nil
}

// Companies returns all companies ordered by name, for the filter bar and
// the quote forms.
func (s *QuoteService) Companies() ([]models.Company, error) {
	var companies []models.Company
	if err := s.DB.Order("name").Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// Categories returns the distinct categories, alphabetically.
func (s *QuoteService) Categories() ([]string, error) {
	var cats []string
	err := s.DB.Model(&models.Quote{}).
		Distinct("category").
		Order("category").
		Pluck("category", &cats).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}
