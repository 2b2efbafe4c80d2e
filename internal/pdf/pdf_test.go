package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/diewo77/go-devis/internal/models"
)

func sampleQuote() *models.Quote {
	return &models.Quote{
		ID:         7,
		ClientName: "Acme",
		QuoteDate:  "2024-03-02",
		Category:   "Plomberie",
		Amount:     150.00,
	}
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLines(t *testing.T) {
	got := Lines(sampleQuote())
	want := []string{
		"Devis n° 7",
		"Client : Acme",
		"Date : 2024-03-02",
		"Catégorie : Plomberie",
		"Montant : 150.00 EUR",
		"",
		"Description :",
		"(aucune description)",
	}
	if len(got) != len(want) {
		t.Fatalf("Lines() returned %d lines, want %d: %#v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLines_MultilineDescription(t *testing.T) {
	q := sampleQuote()
	q.Description = "ligne 1\nligne 2\nligne 3"
	got := Lines(q)
	tail := got[len(got)-3:]
	for i, want := range []string{"ligne 1", "ligne 2", "ligne 3"} {
		if tail[i] != want {
			t.Errorf("description line %d = %q, want %q", i, tail[i], want)
		}
	}
}

func TestLines_WindowsLineEndings(t *testing.T) {
	q := sampleQuote()
	q.Description = "ligne 1\r\nligne 2\r\nligne 3"
	got := Lines(q)
	tail := got[len(got)-3:]
	for i, want := range []string{"ligne 1", "ligne 2", "ligne 3"} {
		if tail[i] != want {
			t.Errorf("description line %d = %q, want %q", i, tail[i], want)
		}
	}
}

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		w, h int
		want float64
	}{
		{100, 50, 1.0},  // fits, keep original size
		{200, 100, 1.0}, // exactly the box
		{400, 100, 0.5},
		{200, 400, 0.25},
		{2000, 50, 0.1},
		{0, 10, 0},
	}
	for _, tt := range tests {
		if got := scaleFactor(tt.w, tt.h); got != tt.want {
			t.Errorf("scaleFactor(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestRenderPage_Deterministic(t *testing.T) {
	a := RenderPage(sampleQuote(), nil)
	b := RenderPage(sampleQuote(), nil)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("two renders of the same quote produced different rasters")
	}
}

func TestRenderPage_WhiteBackground(t *testing.T) {
	page := RenderPage(sampleQuote(), nil)
	r, g, b, _ := page.At(PageWidth-1, PageHeight-1).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("bottom-right corner is not white: %v %v %v", r, g, b)
	}
}

func TestRenderPage_SignaturePlacement(t *testing.T) {
	sig := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			sig.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	page := RenderPage(sampleQuote(), sig)
	// 10x10 fits in the 200x100 box so it keeps its size; its center lands at
	// (PageWidth-40-5, PageHeight-40-5).
	r, g, _, _ := page.At(PageWidth-45, PageHeight-45).RGBA()
	if r < 0xc000 || g > 0x4000 {
		t.Errorf("expected red signature pixel at bottom-right anchor, got r=%v g=%v", r, g)
	}
}

func TestGenerate_NoSignature(t *testing.T) {
	doc, applied, err := Generate(sampleQuote(), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if applied {
		t.Error("signatureApplied = true without a signature")
	}
	if !bytes.HasPrefix(doc, []byte("%PDF-")) {
		t.Errorf("document does not start with a PDF header: %q", doc[:8])
	}
	if !bytes.Contains(doc, []byte("/MediaBox [0 0 595 842]")) {
		t.Error("document is missing the A4 media box")
	}
	if !strings.HasSuffix(string(doc), "%%EOF\n") {
		t.Error("document is missing the EOF marker")
	}
}

func TestGenerate_ValidSignature(t *testing.T) {
	doc, applied, err := Generate(sampleQuote(), pngBytes(t, 50, 20, color.RGBA{A: 255}))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !applied {
		t.Error("signatureApplied = false for a valid PNG signature")
	}
	if len(doc) == 0 {
		t.Error("empty document")
	}
}

func TestGenerate_CorruptSignature(t *testing.T) {
	clean, _, err := Generate(sampleQuote(), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	doc, applied, err := Generate(sampleQuote(), []byte("ceci n'est pas une image"))
	if err != nil {
		t.Fatalf("Generate with corrupt signature: %v", err)
	}
	if applied {
		t.Error("signatureApplied = true for corrupt bytes")
	}
	if !bytes.Equal(clean, doc) {
		t.Error("corrupt signature changed the rendered document")
	}
}
