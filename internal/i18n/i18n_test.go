package i18n

import "testing"

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("fr-FR,fr;q=0.8") != "fr" {
		t.Fatalf("expected fr")
	}
	if DetectLanguage("") != "fr" {
		t.Fatalf("expected default fr")
	}
	if DetectLanguage("es-ES,es") != "fr" {
		t.Fatalf("expected fr fallback for unsupported language")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "quotes") != "Quotes" {
		t.Fatalf("expected Quotes")
	}
	if T("fr", "quotes") != "Devis" {
		t.Fatalf("expected Devis")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fr translation
	if T("es", "quotes") != "Devis" {
		t.Fatalf("expected fr fallback for es lang")
	}
}
