package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/diewo77/goldenline/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestFlashCode(t *testing.T) {
	code, ok := flashCode(registerFlashes, services.ErrPasswordMismatch)
	assert.True(t, ok)
	assert.Equal(t, "flash.password_mismatch", code)

	code, ok = flashCode(updateFlashes, fmt.Errorf("wrapped: %w", services.ErrEmailTaken))
	assert.True(t, ok)
	assert.Equal(t, "flash.update_email_taken", code)

	_, ok = flashCode(updateFlashes, services.ErrPasswordMismatch)
	assert.False(t, ok, "update has no password confirmation")
}

func TestAccessFromForm(t *testing.T) {
	form := url.Values{"admin": {"on"}, "view_collecte": {"on"}}
	r := httptest.NewRequest(http.MethodPost, "/enregistrement", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	assert.Equal(t, services.Access{Admin: true, ViewCollecte: true}, accessFromForm(r))
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
