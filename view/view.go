// Package view renders the HTML pages of the application.
//
// Every page is parsed together with layout.html and the partials, then
// executed with a func map bound to the current request (language,
// permissions).
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/diewo77/goldenline/auth"
	"github.com/diewo77/goldenline/httpx"
	"github.com/diewo77/goldenline/i18n"
	"github.com/diewo77/goldenline/web"
	"github.com/shopspring/decimal"
)

// Flash is a one-shot message shown at the top of a page.
type Flash struct {
	Level string // "success" or "error"
	Text  string
}

var (
	mu       sync.RWMutex
	tplFS    fs.FS
	devMode  bool
	tplCache = map[string]*template.Template{}

	langResolver = func(r *http.Request) string { return i18n.DetectLanguage(r.Header.Get("Accept-Language")) }
	// permission resolvers are set by the host app so templates can check access
	canResolver     func(*http.Request, string, string) bool
	isAdminResolver func(*http.Request) bool
	flashResolver   func(http.ResponseWriter, *http.Request) []Flash
)

func init() {
	tplFS = embedded()
}

func embedded() fs.FS {
	sub, err := fs.Sub(web.TemplatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// SetFS overrides the template file system. Nil restores the embedded one.
func SetFS(fsys fs.FS) {
	if fsys == nil {
		fsys = embedded()
	}
	mu.Lock()
	tplFS = fsys
	tplCache = map[string]*template.Template{}
	mu.Unlock()
}

// SetDevMode disables the template cache.
func SetDevMode(on bool) {
	mu.Lock()
	devMode = on
	mu.Unlock()
}

// SetLangResolver sets the callback returning the language of a request.
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// SetCanResolver sets the callback used by templates to check a
// (resource, action) permission.
func SetCanResolver(f func(*http.Request, string, string) bool) {
	canResolver = f
}

// SetIsAdminResolver sets the callback used by templates to detect superadmins.
func SetIsAdminResolver(f func(*http.Request) bool) {
	isAdminResolver = f
}

// SetFlashResolver sets the callback that pops pending flash messages.
func SetFlashResolver(f func(http.ResponseWriter, *http.Request) []Flash) {
	flashResolver = f
}

// ResetForTests clears caches and resolvers.
func ResetForTests() {
	mu.Lock()
	tplCache = map[string]*template.Template{}
	mu.Unlock()
	canResolver = nil
	isAdminResolver = nil
	flashResolver = nil
}

// Funcs returns the func map bound to r.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.DefaultLang
	if r != nil {
		lang = langResolver(r)
	}
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"tf":   func(code string, args ...any) string { return i18n.Tf(lang, code, args...) },
		"lang": func() string { return lang },
		"can": func(resource, action string) bool {
			if canResolver == nil || r == nil {
				return false
			}
			return canResolver(r, resource, action)
		},
		"isAdmin": func() bool {
			if isAdminResolver == nil || r == nil {
				return false
			}
			return isAdminResolver(r)
		},
		"year": func() int { return time.Now().Year() },
		// money formats an amount with two decimals.
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

func parse(name string) (*template.Template, error) {
	mu.RLock()
	fsys := tplFS
	dev := devMode
	t, ok := tplCache[name]
	mu.RUnlock()
	if ok && !dev {
		return t, nil
	}
	patterns := []string{"layout.html", name}
	if matches, _ := fs.Glob(fsys, "partials/*.html"); len(matches) > 0 {
		patterns = append(patterns, "partials/*.html")
	}
	t, err := template.New("layout.html").Funcs(Funcs(nil)).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if !dev {
		mu.Lock()
		tplCache[name] = t
		mu.Unlock()
	}
	return t, nil
}

// Render executes the page name inside the layout with status 200.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code. The page is fully
// executed before anything is written.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}
	if _, exists := data["Flashes"]; !exists {
		var flashes []Flash
		if flashResolver != nil {
			flashes = flashResolver(w, r)
		}
		data["Flashes"] = flashes
	}

	base, err := parse(name)
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(r))

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// Error answers with the error page, or a JSON error for JSON clients.
// code is an i18n message code.
func Error(w http.ResponseWriter, r *http.Request, status int, code string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, code, nil)
		return
	}
	err := RenderStatus(w, r, status, "erreur.html", map[string]any{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": code,
	})
	if err != nil {
		http.Error(w, http.StatusText(status), status)
	}
}
