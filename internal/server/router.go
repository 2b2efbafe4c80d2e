// Package server wires the HTTP routes to the handlers and applies the
// logging and recovery middleware.
package server

import (
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/go-devis/internal/filestore"
	"github.com/diewo77/go-devis/internal/handlers"
	"github.com/diewo77/go-devis/internal/httpx"
	"github.com/diewo77/go-devis/internal/services"
)

// New constructs the root http.Handler. All collaborators are injected; the
// router holds no state of its own.
func New(db *gorm.DB, quotes *services.QuoteService, imports *services.ImportService) http.Handler {
	mux := http.NewServeMux()

	qh := handlers.NewQuoteHandler(quotes)
	ih := handlers.NewImportHandler(imports)
	ch := handlers.NewCompanyHandler(db)

	mux.HandleFunc("GET /{$}", qh.List)
	mux.HandleFunc("GET /new", qh.NewForm)
	mux.HandleFunc("POST /new", qh.Create)
	mux.HandleFunc("GET /quote/{id}", qh.Detail)
	mux.HandleFunc("GET /quote/{id}/download", qh.Download)
	mux.HandleFunc("POST /quote/{id}/regenerate", qh.Regenerate)
	mux.HandleFunc("GET /quote/{id}/sign", qh.SignForm)
	mux.HandleFunc("POST /quote/{id}/sign", qh.Sign)
	mux.HandleFunc("POST /quote/{id}/invoice", qh.Invoice)

	mux.HandleFunc("GET /import_excel", ih.Form)
	mux.HandleFunc("POST /import_excel", ih.Import)

	mux.HandleFunc("GET /companies", ch.List)
	mux.HandleFunc("GET /companies/new", ch.NewForm)
	mux.HandleFunc("POST /companies/new", ch.Create)

	// generated documents and signature images, by stored filename
	mux.Handle("GET /static/uploads/{name}", serveStore(quotes.Documents))
	mux.Handle("GET /static/signatures/{name}", serveStore(quotes.Signatures))

	// health endpoints
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return withRecover(withLogging(mux))
}

// serveStore streams a stored file by name. Traversal is rejected by the
// store itself.
func serveStore(store filestore.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		f, err := store.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()
		if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		if _, err := io.Copy(w, f); err != nil {
			_ = err
		}
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
