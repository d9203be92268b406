package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/diewo77/goldenline/i18n"
	"github.com/diewo77/goldenline/view"
)

const flashCookieName = "messages"

const (
	LevelSuccess = "success"
	LevelError   = "error"
)

type flashState struct {
	mu      sync.Mutex
	pending []view.Flash
}

// Flashes loads the messages stored by previous requests so that handlers
// can add to them and pages can display them.
func Flashes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := &flashState{pending: readFlashCookie(r)}
		next.ServeHTTP(w, r.WithContext(contextWithFlash(r, st)))
	})
}

// AddFlash queues a translated message for the next rendered page.
func AddFlash(w http.ResponseWriter, r *http.Request, level, code string, args ...any) {
	msg := view.Flash{Level: level, Text: i18n.Tf(LangFrom(r), code, args...)}
	st := flashFrom(r)
	if st == nil {
		writeFlashCookie(w, append(readFlashCookie(r), msg))
		return
	}
	st.mu.Lock()
	st.pending = append(st.pending, msg)
	all := append([]view.Flash(nil), st.pending...)
	st.mu.Unlock()
	writeFlashCookie(w, all)
}

// PopFlashes returns the pending messages and clears them.
func PopFlashes(w http.ResponseWriter, r *http.Request) []view.Flash {
	st := flashFrom(r)
	var out []view.Flash
	if st == nil {
		out = readFlashCookie(r)
	} else {
		st.mu.Lock()
		out = st.pending
		st.pending = nil
		st.mu.Unlock()
	}
	if len(out) > 0 {
		http.SetCookie(w, &http.Cookie{Name: flashCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
	}
	return out
}

func readFlashCookie(r *http.Request) []view.Flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var msgs []view.Flash
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil
	}
	return msgs
}

func writeFlashCookie(w http.ResponseWriter, msgs []view.Flash) {
	raw, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func contextWithFlash(r *http.Request, st *flashState) context.Context {
	return context.WithValue(r.Context(), ctxFlash, st)
}

func flashFrom(r *http.Request) *flashState {
	st, _ := r.Context().Value(ctxFlash).(*flashState)
	return st
}
