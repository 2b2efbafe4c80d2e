// Package pdf renders a quote as a single-page A4 document. The page is a
// raster image (white background, black text, optional signature bitmap)
// wrapped into a one-page PDF, which keeps the module free of any document
// formatting dependency at the cost of non-selectable text.
//
// Lines are drawn top-down: the first content line sits near the top margin
// and every following line is placed one line height below it. There is no
// pagination; a description long enough to run past the page bottom is simply
// clipped.
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"os"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/diewo77/go-devis/internal/models"
)

// A4 at 72 units per inch.
const (
	PageWidth  = 595
	PageHeight = 842

	marginX    = 40
	topOffset  = 60
	lineHeight = 20

	// bounding box for the signature, anchored to the bottom-right margin
	sigMaxWidth  = 200
	sigMaxHeight = 100
	sigMarginY   = 40
)

var fontCandidates = []string{
	"DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// Lines composes the fixed ordered list of text lines for a quote document:
// header fields, a blank separator, the description label, then the
// description split on line breaks (or a placeholder when empty).
func Lines(q *models.Quote) []string {
	lines := []string{
		fmt.Sprintf("Devis n° %d", q.ID),
		fmt.Sprintf("Client : %s", q.ClientName),
		fmt.Sprintf("Date : %s", q.QuoteDate),
		fmt.Sprintf("Catégorie : %s", q.Category),
		fmt.Sprintf("Montant : %.2f EUR", q.Amount),
		"",
		"Description :",
	}
	if q.Description != "" {
		for _, l := range strings.Split(q.Description, "\n") {
			lines = append(lines, strings.TrimSuffix(l, "\r"))
		}
	} else {
		lines = append(lines, "(aucune description)")
	}
	return lines
}

// loadFace returns a TrueType face when one of the candidate fonts can be
// opened, otherwise the built-in fixed-width face. Never fails.
func loadFace() font.Face {
	for _, path := range fontCandidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		ft, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		face, err := opentype.NewFace(ft, &opentype.FaceOptions{Size: 14, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			continue
		}
		return face
	}
	return basicfont.Face7x13
}

// scaleFactor returns the uniform shrink-to-fit factor for a signature of the
// given source dimensions: min(box width ratio, box height ratio, 1). A
// signature already smaller than the box keeps its original size.
func scaleFactor(w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	ratio := 1.0
	if rw := float64(sigMaxWidth) / float64(w); rw < ratio {
		ratio = rw
	}
	if rh := float64(sigMaxHeight) / float64(h); rh < ratio {
		ratio = rh
	}
	return ratio
}

// RenderPage draws the quote onto a blank A4 page and returns the raster. A
// nil signature renders text only. The signature is composited through its
// alpha channel at the bottom-right margin.
func RenderPage(q *models.Quote, sig image.Image) *image.RGBA {
	page := image.NewRGBA(image.Rect(0, 0, PageWidth, PageHeight))
	draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  page,
		Src:  image.Black,
		Face: loadFace(),
	}
	y := topOffset
	for _, line := range Lines(q) {
		d.Dot = fixed.P(marginX, y)
		d.DrawString(line)
		y += lineHeight
	}

	if sig != nil {
		b := sig.Bounds()
		ratio := scaleFactor(b.Dx(), b.Dy())
		if ratio > 0 {
			sw := int(float64(b.Dx()) * ratio)
			sh := int(float64(b.Dy()) * ratio)
			scaled := image.NewRGBA(image.Rect(0, 0, sw, sh))
			xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), sig, b, xdraw.Over, nil)
			pos := image.Rect(PageWidth-marginX-sw, PageHeight-sigMarginY-sh, PageWidth-marginX, PageHeight-sigMarginY)
			draw.Draw(page, pos, scaled, image.Point{}, draw.Over)
		}
	}
	return page
}

// Generate renders the quote and encodes it as a one-page PDF. The signature
// bytes are optional; when they cannot be decoded the document is produced
// without a signature and the second return value reports that, so callers can
// tell a clean render from a degraded one. The only error condition is
// failure to encode the page itself.
func Generate(q *models.Quote, signature []byte) (doc []byte, signatureApplied bool, err error) {
	var sig image.Image
	if len(signature) > 0 {
		if decoded, _, derr := image.Decode(bytes.NewReader(signature)); derr == nil {
			sig = decoded
		}
	}
	page := RenderPage(q, sig)
	out, err := EncodePage(page)
	if err != nil {
		return nil, false, fmt.Errorf("encode page: %w", err)
	}
	return out, sig != nil, nil
}
