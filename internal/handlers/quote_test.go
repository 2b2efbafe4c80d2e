package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/go-devis/internal/filestore"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/diewo77/go-devis/internal/services"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Company{}, &models.Quote{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestQuoteHandler(t *testing.T) *QuoteHandler {
	t.Helper()
	docs, err := filestore.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("doc store: %v", err)
	}
	sigs, err := filestore.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("sig store: %v", err)
	}
	return NewQuoteHandler(services.NewQuoteService(setupHandlerDB(t), docs, sigs))
}

func postForm(t *testing.T, h http.HandlerFunc, target string, form url.Values, json bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if json {
		req.Header.Set("Accept", "application/json")
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func createQuote(t *testing.T, h *QuoteHandler) uint {
	t.Helper()
	form := url.Values{
		"client_name": {"Acme"},
		"quote_date":  {"2024-03-02"},
		"category":    {"Plomberie"},
		"amount":      {"150.00"},
	}
	w := postForm(t, h.Create, "/new", form, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("missing id in create response")
	}
	return created.ID
}

func pathReq(method, target, id string, body *bytes.Buffer, contentType string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, body)
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	r.SetPathValue("id", id)
	return r
}

func TestCreateAndDetailJSON(t *testing.T) {
	h := newTestQuoteHandler(t)
	id := createQuote(t, h)

	req := pathReq(http.MethodGet, fmt.Sprintf("/quote/%d", id), strconv.Itoa(int(id)), nil, "")
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.Detail(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var detail struct {
		Quote  models.Quote       `json:"quote"`
		Month  string             `json:"month"`
		Status models.QuoteStatus `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Month != "2024-03" {
		t.Errorf("month = %q, want 2024-03", detail.Month)
	}
	if detail.Quote.PDFFilename == "" {
		t.Error("quote created without a generated document")
	}
}

func TestCreateMissingFieldRedirects(t *testing.T) {
	h := newTestQuoteHandler(t)
	form := url.Values{"client_name": {"Acme"}, "quote_date": {"2024-03-02"}} // no category
	w := postForm(t, h.Create, "/new", form, false)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/new" {
		t.Errorf("redirect to %q, want /new", loc)
	}
}

func TestCreateWithPDFUpload(t *testing.T) {
	h := newTestQuoteHandler(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"client_name": "Acme", "quote_date": "2024-03-02", "category": "Plomberie",
	} {
		_ = mw.WriteField(k, v)
	}
	part, _ := mw.CreateFormFile("pdf_upload", "devis.pdf")
	_, _ = part.Write([]byte("%PDF-1.4 premade"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/new", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		PDFFilename string `json:"pdf_filename"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if !strings.HasPrefix(created.PDFFilename, "imported_quote_") {
		t.Errorf("uploaded pdf got name %q", created.PDFFilename)
	}
}

func TestDownloadFallsBackToUnsigned(t *testing.T) {
	h := newTestQuoteHandler(t)
	id := createQuote(t, h)

	req := pathReq(http.MethodGet, fmt.Sprintf("/quote/%d/download?signed=true", id), strconv.Itoa(int(id)), nil, "")
	w := httptest.NewRecorder()
	h.Download(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("download body is not a PDF")
	}
}

func TestRegenerateReplacesDocument(t *testing.T) {
	h := newTestQuoteHandler(t)
	id := createQuote(t, h)

	req := pathReq(http.MethodPost, fmt.Sprintf("/quote/%d/regenerate", id), strconv.Itoa(int(id)), nil, "")
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.Regenerate(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		PDFFilename string `json:"pdf_filename"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PDFFilename == "" || !strings.HasPrefix(resp.PDFFilename, "quote_") {
		t.Errorf("pdf_filename = %q, want quote_ prefix", resp.PDFFilename)
	}
	if !h.Quotes.Documents.Exists(resp.PDFFilename) {
		t.Error("regenerated document not stored")
	}
}

func TestDetailUnknownRedirectsToList(t *testing.T) {
	h := newTestQuoteHandler(t)
	req := pathReq(http.MethodGet, "/quote/999", "999", nil, "")
	w := httptest.NewRecorder()
	h.Detail(w, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestSignFlow(t *testing.T) {
	h := newTestQuoteHandler(t)
	id := createQuote(t, h)

	img := image.NewRGBA(image.Rect(0, 0, 40, 15))
	for x := 0; x < 40; x++ {
		img.Set(x, 7, color.Black)
	}
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("signature", "signature.png")
	_, _ = part.Write(pngBuf.Bytes())
	_ = mw.Close()

	req := pathReq(http.MethodPost, fmt.Sprintf("/quote/%d/sign", id), strconv.Itoa(int(id)), &buf, mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.Sign(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var res struct {
		SignedPDFFilename string `json:"signed_pdf_filename"`
		SignatureApplied  bool   `json:"signature_applied"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.SignatureApplied {
		t.Error("valid signature not applied")
	}
	if res.SignedPDFFilename == "" {
		t.Error("no signed document name returned")
	}

	// the quote should now classify as sent
	q, err := h.Quotes.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if q.SignedPDFFilename != res.SignedPDFFilename {
		t.Error("signed filename not persisted")
	}
}

func TestSignRejectsBadExtension(t *testing.T) {
	h := newTestQuoteHandler(t)
	id := createQuote(t, h)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("signature", "signature.gif")
	_, _ = part.Write([]byte("GIF89a"))
	_ = mw.Close()

	req := pathReq(http.MethodPost, fmt.Sprintf("/quote/%d/sign", id), strconv.Itoa(int(id)), &buf, mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.Sign(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestInvoiceChangesStatus(t *testing.T) {
	h := newTestQuoteHandler(t)
	id := createQuote(t, h) // amount 150

	form := url.Values{"invoice_amount": {"100.00"}, "invoice_comment": {"travaux réduits"}}
	req := pathReq(http.MethodPost, fmt.Sprintf("/quote/%d/invoice", id), strconv.Itoa(int(id)),
		bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.Invoice(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	detReq := pathReq(http.MethodGet, fmt.Sprintf("/quote/%d", id), strconv.Itoa(int(id)), nil, "")
	detReq.Header.Set("Accept", "application/json")
	dw := httptest.NewRecorder()
	h.Detail(dw, detReq)
	var detail struct {
		Status models.QuoteStatus `json:"status"`
	}
	_ = json.Unmarshal(dw.Body.Bytes(), &detail)
	if detail.Status != models.QuoteStatusRejected {
		t.Errorf("status = %q, want rejected (invoice below quoted amount)", detail.Status)
	}
}

func TestListJSONWithFilters(t *testing.T) {
	h := newTestQuoteHandler(t)
	_ = createQuote(t, h)
	form := url.Values{
		"client_name": {"Martin"}, "quote_date": {"2024-04-10"}, "category": {"Électricité"},
	}
	if w := postForm(t, h.Create, "/new", form, true); w.Code != http.StatusCreated {
		t.Fatalf("seed: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/?month=2024-03", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.List(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var list struct {
		Items []struct {
			models.Quote
			Month  string             `json:"month"`
			Status models.QuoteStatus `json:"status"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("total = %d, want 1", list.Total)
	}
	if list.Items[0].Month != "2024-03" {
		t.Errorf("month = %q", list.Items[0].Month)
	}
	if list.Items[0].ClientName != "Acme" {
		t.Errorf("client = %q", list.Items[0].ClientName)
	}
}
