// Package i18n provides the label translations used by the templates. French
// is the default language, matching the domain (devis paperwork).
package i18n

import "strings"

var translations = map[string]map[string]string{
	"fr": {
		"quotes":          "Devis",
		"new_quote":       "Nouveau devis",
		"client":          "Client",
		"date":            "Date",
		"category":        "Catégorie",
		"description":     "Description",
		"amount":          "Montant",
		"company":         "Société",
		"companies":       "Sociétés",
		"new_company":     "Nouvelle société",
		"status":          "Statut",
		"month":           "Mois",
		"search":          "Recherche",
		"download":        "Télécharger",
		"download_signed": "Télécharger signé",
		"sign":            "Signer",
		"invoice":         "Facture",
		"invoice_amount":  "Montant facturé",
		"invoice_comment": "Commentaire",
		"import":          "Importer",
		"import_excel":    "Import Excel",
		"submit":          "Valider",
		"all":             "Tous",
		"status_paid":     "Payé",
		"status_rejected": "Refusé",
		"status_sent":     "Envoyé",
		"status_expired":  "Expiré",
		"status_draft":    "Brouillon",
	},
	"en": {
		"quotes":          "Quotes",
		"new_quote":       "New quote",
		"client":          "Client",
		"date":            "Date",
		"category":        "Category",
		"description":     "Description",
		"amount":          "Amount",
		"company":         "Company",
		"companies":       "Companies",
		"new_company":     "New company",
		"status":          "Status",
		"month":           "Month",
		"search":          "Search",
		"download":        "Download",
		"download_signed": "Download signed",
		"sign":            "Sign",
		"invoice":         "Invoice",
		"invoice_amount":  "Invoiced amount",
		"invoice_comment": "Comment",
		"import":          "Import",
		"import_excel":    "Excel import",
		"submit":          "Submit",
		"all":             "All",
		"status_paid":     "Paid",
		"status_rejected": "Rejected",
		"status_sent":     "Sent",
		"status_expired":  "Expired",
		"status_draft":    "Draft",
	},
}

// DetectLanguage picks a supported language from an Accept-Language header,
// defaulting to French.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		lang := strings.ToLower(strings.TrimSpace(part))
		if i := strings.IndexAny(lang, "-;"); i > 0 {
			lang = lang[:i]
		}
		if _, ok := translations[lang]; ok {
			return lang
		}
	}
	return "fr"
}

// T translates a label code. Unknown languages fall back to French; unknown
// codes fall back to the code itself so a missing entry stays visible.
func T(lang, code string) string {
	if m, ok := translations[lang]; ok {
		if v, ok := m[code]; ok {
			return v
		}
	}
	if v, ok := translations["fr"][code]; ok {
		return v
	}
	return code
}
