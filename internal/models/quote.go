package models

import "time"

// QuoteStatus is the display status derived from a quote's invoice, signature
// and date fields. It is computed at render time and never persisted.
type QuoteStatus string

const (
	QuoteStatusPaid     QuoteStatus = "paid"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusExpired  QuoteStatus = "expired"
	QuoteStatusDraft    QuoteStatus = "draft"
)

// ExpiryDays is the age beyond which an unsigned, uninvoiced quote is
// considered expired.
const ExpiryDays = 30

// Quote represents one estimate (devis) line: the quoted amount, the generated
// PDF, the optional signed PDF, and the final invoiced amount once known.
type Quote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClientName string `gorm:"size:255;not null" json:"client_name"`
	// QuoteDate is stored as an ISO YYYY-MM-DD text value; its leading seven
	// characters are the month grouping key (see Month).
	QuoteDate   string  `gorm:"size:10;not null;index" json:"quote_date"`
	Category    string  `gorm:"size:100;not null;index" json:"category"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
	Amount      float64 `gorm:"default:0" json:"amount"`

	PDFFilename       string `gorm:"size:255" json:"pdf_filename,omitempty"`
	SignedPDFFilename string `gorm:"size:255" json:"signed_pdf_filename,omitempty"`

	// InvoiceAmount is set once the final invoice is recorded. It may differ
	// from Amount, in which case InvoiceComment explains the discrepancy.
	InvoiceAmount  *float64 `json:"invoice_amount,omitempty"`
	InvoiceComment string   `gorm:"size:500" json:"invoice_comment,omitempty"`

	CompanyID *uint    `gorm:"index" json:"company_id,omitempty"`
	Company   *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

// Month returns the YYYY-MM grouping key of the quote, i.e. the first seven
// characters of QuoteDate. List filters and the renderer both rely on this
// substring rule.
func (q *Quote) Month() string {
	if len(q.QuoteDate) < 7 {
		return q.QuoteDate
	}
	return q.QuoteDate[:7]
}

// Status derives the display status of the quote as of today. The rules form
// a strict priority chain, first match wins:
//
//  1. invoiced and (amount is zero or invoice >= amount) -> paid
//  2. invoiced (invoice strictly below a positive amount) -> rejected
//  3. a signed document exists                            -> sent
//  4. quote older than ExpiryDays                         -> expired
//  5. otherwise                                           -> draft
//
// A paid quote that is also 40 days old still reports paid, never expired.
// InvoiceAmount == Amount counts as fully paid.
func (q *Quote) Status(today time.Time) QuoteStatus {
	if q.InvoiceAmount != nil {
		if q.Amount <= 0 || *q.InvoiceAmount >= q.Amount {
			return QuoteStatusPaid
		}
		return QuoteStatusRejected
	}
	if q.SignedPDFFilename != "" {
		return QuoteStatusSent
	}
	if d, err := time.Parse("2006-01-02", q.QuoteDate); err == nil {
		if today.Sub(d) > ExpiryDays*24*time.Hour {
			return QuoteStatusExpired
		}
	}
	return QuoteStatusDraft
}
