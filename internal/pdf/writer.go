package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// EncodePage serializes a rendered page as a one-page PDF. The raster is
// stored as a DCTDecode (JPEG) image XObject painted over the full media box,
// which every PDF viewer supports without fonts or vector resources.
func EncodePage(page image.Image) ([]byte, error) {
	var img bytes.Buffer
	if err := jpeg.Encode(&img, page, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}

	b := page.Bounds()
	content := fmt.Sprintf("q %d 0 0 %d 0 0 cm /Im0 Do Q", b.Dx(), b.Dy())

	w := newDocWriter()
	w.addObject("<< /Type /Catalog /Pages 2 0 R >>", nil)
	w.addObject("<< /Type /Pages /Kids [3 0 R] /Count 1 >>", nil)
	w.addObject(fmt.Sprintf(
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /XObject << /Im0 4 0 R >> /ProcSet [/PDF /ImageC] >> /Contents 5 0 R >>",
		b.Dx(), b.Dy()), nil)
	w.addObject(fmt.Sprintf(
		"<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode /Length %d >>",
		b.Dx(), b.Dy(), img.Len()), img.Bytes())
	w.addObject(fmt.Sprintf("<< /Length %d >>", len(content)), []byte(content))
	return w.bytes(), nil
}

// docWriter is a minimal append-only PDF serializer: objects are written in
// order and the cross-reference table is emitted from the recorded offsets.
type docWriter struct {
	buf     bytes.Buffer
	offsets []int
}

func newDocWriter() *docWriter {
	w := &docWriter{}
	w.buf.WriteString("%PDF-1.4\n")
	return w
}

// addObject appends an indirect object with the given dictionary and an
// optional stream body.
func (w *docWriter) addObject(dict string, stream []byte) {
	w.offsets = append(w.offsets, w.buf.Len())
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\n", len(w.offsets), dict)
	if stream != nil {
		w.buf.WriteString("stream\n")
		w.buf.Write(stream)
		w.buf.WriteString("\nendstream\n")
	}
	w.buf.WriteString("endobj\n")
}

func (w *docWriter) bytes() []byte {
	start := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", len(w.offsets)+1)
	w.buf.WriteString("0000000000 65535 f \n")
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(w.offsets)+1, start)
	return w.buf.Bytes()
}
