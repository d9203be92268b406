package view

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_EmbeddedHome(t *testing.T) {
	ResetForTests()
	t.Cleanup(ResetForTests)
	SetFlashResolver(func(http.ResponseWriter, *http.Request) []Flash {
		return []Flash{{Level: "success", Text: "Vous avez été déconnecter"}}
	})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, Render(rec, r, "accueil.html", map[string]any{"NomUtilisateur": "Alice"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Bonjour Alice")
	assert.Contains(t, body, "Vous avez été déconnecter")
	assert.Contains(t, body, `href="/connection"`)
	assert.NotContains(t, body, `href="/analyses"`)
}

func TestRender_LanguageAndPermissions(t *testing.T) {
	ResetForTests()
	t.Cleanup(ResetForTests)
	SetCanResolver(func(_ *http.Request, resource, action string) bool {
		return resource == "client" && action == "view"
	})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "en-US,en;q=0.9")
	require.NoError(t, Render(rec, r, "accueil.html", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "Welcome to GoldenLine")
	assert.Contains(t, body, `href="/analyses"`)
	assert.NotContains(t, body, `href="/export"`)

	// cached template, other language
	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, Render(rec, r, "accueil.html", nil))
	assert.Contains(t, rec.Body.String(), "Bienvenue sur GoldenLine")
}

func TestRenderStatus_CustomFS(t *testing.T) {
	ResetForTests()
	t.Cleanup(func() {
		SetFS(nil)
		ResetForTests()
	})
	SetFS(fstest.MapFS{
		"layout.html": {Data: []byte(`<main>{{template "content" .}}</main>`)},
		"page.html":   {Data: []byte(`{{define "content"}}{{money .Amount}}{{end}}`)},
	})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	err := RenderStatus(rec, r, http.StatusForbidden, "page.html", map[string]any{"Amount": decimal.RequireFromString("3.5")})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "<main>3.50</main>", rec.Body.String())
}

func TestRender_MissingTemplate(t *testing.T) {
	ResetForTests()
	t.Cleanup(ResetForTests)
	rec := httptest.NewRecorder()
	err := Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), "nope.html", nil)
	assert.Error(t, err)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestError(t *testing.T) {
	ResetForTests()
	t.Cleanup(ResetForTests)

	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/analyses", nil), http.StatusForbidden, "error.forbidden")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Accès refusé")

	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/analyses", nil)
	r.Header.Set("Accept", "application/json")
	Error(rec, r, http.StatusNotFound, "error.not_found")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"error.not_found"}`, rec.Body.String())
}
