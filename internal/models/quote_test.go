package models

import (
	"testing"
	"time"
)

func TestQuote_Month(t *testing.T) {
	q := &Quote{QuoteDate: "2024-03-02"}
	if got := q.Month(); got != "2024-03" {
		t.Errorf("Month() = %q, want %q", got, "2024-03")
	}
	q.QuoteDate = "2025-11-30"
	if got := q.Month(); got != "2025-11" {
		t.Errorf("Month() after date change = %q, want %q", got, "2025-11")
	}
	// degenerate value shorter than a full month prefix
	q.QuoteDate = "2024"
	if got := q.Month(); got != "2024" {
		t.Errorf("Month() on short date = %q, want %q", got, "2024")
	}
}

func TestQuote_Status(t *testing.T) {
	today := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	amount := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		quote Quote
		want  QuoteStatus
	}{
		{"invoice equals amount", Quote{Amount: 150, InvoiceAmount: amount(150), QuoteDate: "2024-04-01"}, QuoteStatusPaid},
		{"invoice above amount", Quote{Amount: 150, InvoiceAmount: amount(200), QuoteDate: "2024-04-01"}, QuoteStatusPaid},
		{"invoice below amount", Quote{Amount: 150, InvoiceAmount: amount(100), QuoteDate: "2024-04-01"}, QuoteStatusRejected},
		{"invoiced with zero amount", Quote{Amount: 0, InvoiceAmount: amount(50), QuoteDate: "2024-04-01"}, QuoteStatusPaid},
		{"signed document", Quote{SignedPDFFilename: "signed_quote_1_x.pdf", QuoteDate: "2024-04-01"}, QuoteStatusSent},
		{"31 days old", Quote{QuoteDate: "2024-03-15"}, QuoteStatusExpired},
		{"exactly 30 days old", Quote{QuoteDate: "2024-03-16"}, QuoteStatusDraft},
		{"fresh quote", Quote{QuoteDate: "2024-04-10"}, QuoteStatusDraft},
		{"unparseable date", Quote{QuoteDate: "pas une date"}, QuoteStatusDraft},
		// priority chain: paid wins over expired, sent wins over expired
		{"paid and old", Quote{Amount: 100, InvoiceAmount: amount(100), QuoteDate: "2024-01-01"}, QuoteStatusPaid},
		{"signed and old", Quote{SignedPDFFilename: "s.pdf", QuoteDate: "2024-01-01"}, QuoteStatusSent},
		{"rejected and signed", Quote{Amount: 100, InvoiceAmount: amount(10), SignedPDFFilename: "s.pdf", QuoteDate: "2024-04-01"}, QuoteStatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.quote.Status(today); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}
