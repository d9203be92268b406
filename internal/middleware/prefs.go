// Package middleware holds the HTTP middlewares of the application.
package middleware

import (
	"context"
	"net/http"

	"github.com/diewo77/goldenline/i18n"
)

type ctxKey string

const (
	ctxLang      ctxKey = "pref_lang"
	ctxRequestID ctxKey = "request_id"
	ctxFlash     ctxKey = "flash"
)

// Prefs resolves the language (query > cookie > Accept-Language) and stores
// it in context. A query-provided language is persisted for ~30 days.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); i18n.Supported(ql) {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: "lang", Value: lang, Path: "/", MaxAge: 86400 * 30})
		}
		if lang == "" {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		ctx := context.WithValue(r.Context(), ctxLang, lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LangFrom returns language preference from context or fallback.
func LangFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ctxLang).(string); ok && v != "" {
		return v
	}
	return i18n.DefaultLang
}
