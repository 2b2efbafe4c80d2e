// Package view renders the server-side HTML pages. Each page template is
// parsed together with the shared layout and cached after first use.
package view

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/diewo77/go-devis/internal/i18n"
	"github.com/diewo77/go-devis/internal/models"
)

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
)

func detectBase() {
	// works whether the binary runs from the repo root or a subdir
	candidates := []string{"templates", "../templates", "../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// Funcs returns the template func map: translations for the request language
// plus small formatting helpers.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
	return template.FuncMap{
		"t":     func(code string) string { return i18n.T(lang, code) },
		"lang":  func() string { return lang },
		"year":  func() int { return time.Now().Year() },
		"money": func(v float64) string { return fmt.Sprintf("%.2f EUR", v) },
		"deref": func(p *float64) float64 {
			if p == nil {
				return 0
			}
			return *p
		},
		"status": func(q models.Quote) models.QuoteStatus {
			return q.Status(time.Now())
		},
		"statusLabel": func(s models.QuoteStatus) string {
			return i18n.T(lang, "status_"+string(s))
		},
	}
}

// Render writes the named page wrapped in the layout. Parsed templates are
// cached per page name; the func map is language-dependent so templates are
// cloned per request with the right funcs.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	once.Do(detectBase)

	tplCache.RLock()
	tpl, ok := tplCache.m[name]
	tplCache.RUnlock()
	if !ok {
		parsed, err := template.New("layout.html").
			Funcs(Funcs(r)).
			ParseFiles(filepath.Join(baseDir, "layout.html"), filepath.Join(baseDir, name))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", name, err)
		}
		tplCache.Lock()
		tplCache.m[name] = parsed
		tplCache.Unlock()
		tpl = parsed
	}

	clone, err := tpl.Clone()
	if err != nil {
		return fmt.Errorf("clone template %s: %w", name, err)
	}
	clone = clone.Funcs(Funcs(r))

	if data == nil {
		data = map[string]any{}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return clone.ExecuteTemplate(w, "layout.html", data)
}
