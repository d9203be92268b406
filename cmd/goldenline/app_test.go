package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/diewo77/goldenline/auth"
	"github.com/diewo77/goldenline/internal/config"
	"github.com/diewo77/goldenline/internal/db"
	"github.com/diewo77/goldenline/internal/logger"
	"github.com/diewo77/goldenline/internal/models"
	"github.com/diewo77/goldenline/internal/policy"
	"github.com/diewo77/goldenline/internal/services"
	"github.com/diewo77/goldenline/view"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testApp struct {
	srv   *httptest.Server
	db    *gorm.DB
	users *services.UserService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.DatabaseConfig{Driver: "sqlite", SQLitePath: "file:" + t.Name() + "?mode=memory&cache=shared"}
	gdb, err := db.Open(cfg, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))
	require.NoError(t, db.SeedProfiles(gdb))

	auth.Configure("test-secret", 0)
	srv := httptest.NewServer(NewApp(logger.Nop(), policy.NewRouterConfig(gdb, logger.Nop(), 0)))
	t.Cleanup(func() {
		srv.Close()
		view.ResetForTests()
		auth.SetUserVerifier(nil)
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &testApp{srv: srv, db: gdb, users: services.NewUserService(gdb).WithCost(bcrypt.MinCost)}
}

func (a *testApp) createUser(t *testing.T, username string, access services.Access) *models.User {
	t.Helper()
	u, err := a.users.Register(context.Background(), services.RegisterInput{
		Username: username, FirstName: "Prénom" + username, Email: username + "@example.com",
		Password: "pw", PasswordConfirm: "pw", Access: access,
	})
	require.NoError(t, err)
	return u
}

// client returns a cookie-keeping client that does not follow redirects.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) login(t *testing.T, username string) *http.Client {
	t.Helper()
	c := a.client(t)
	resp := postForm(t, c, a.srv.URL+"/connection", url.Values{"utilisateur": {username}, "mdp": {"pw"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return c
}

func get(t *testing.T, c *http.Client, target string, header ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func postForm(t *testing.T, c *http.Client, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(target, form)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestApp_HealthAndHome(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp, body := get(t, c, app.srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	resp, body = get(t, c, app.srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/connection"`)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = get(t, c, app.srv.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, c, app.srv.URL+"/static/app.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApp_GreetingFallsBackToUsername(t *testing.T) {
	app := newTestApp(t)
	_, err := app.users.Register(context.Background(), services.RegisterInput{
		Username: "carole", Email: "carole@example.com", Password: "pw", PasswordConfirm: "pw",
	})
	require.NoError(t, err)

	c := app.login(t, "carole")
	_, body := get(t, c, app.srv.URL+"/")
	assert.Contains(t, body, "Bonjour carole")
}

func TestApp_LoginLogout(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", services.Access{})
	c := app.client(t)

	resp := postForm(t, c, app.srv.URL+"/connection", url.Values{"utilisateur": {"alice"}, "mdp": {"bad"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/connection", resp.Header.Get("Location"))
	_, body := get(t, c, app.srv.URL+"/connection")
	assert.Contains(t, body, "Mauvaise authentification")

	resp = postForm(t, c, app.srv.URL+"/connection", url.Values{"utilisateur": {"alice"}, "mdp": {"pw"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = readBody(t, resp)
	assert.Contains(t, body, "Bonjour Prénomalice")
	assert.Contains(t, body, `href="/deconnection"`)

	resp, _ = get(t, c, app.srv.URL+"/deconnection")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	_, body = get(t, c, app.srv.URL+"/")
	assert.Contains(t, body, "Vous avez été déconnecter")
	assert.Contains(t, body, `href="/connection"`)
}

func TestApp_InactiveUserCannotLogin(t *testing.T) {
	app := newTestApp(t)
	u := app.createUser(t, "alice", services.Access{})
	require.NoError(t, app.db.Model(&models.User{ID: u.ID}).Update("is_active", false).Error)

	resp := postForm(t, app.client(t), app.srv.URL+"/connection", url.Values{"utilisateur": {"alice"}, "mdp": {"pw"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestApp_AccessControl(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "plain", services.Access{})

	anon := app.client(t)
	resp, _ := get(t, anon, app.srv.URL+"/analyses")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/connection?next=%2Fanalyses", resp.Header.Get("Location"))

	resp, body := get(t, anon, app.srv.URL+"/analyses", "Accept", "application/json")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"unauthorized"}`, body)

	plain := app.login(t, "plain")
	for _, path := range []string{"/analyses", "/export", "/enregistrement", "/liste_utilisateurs", "/modifier_utilisateur/plain", "/supprimer_utilisateur/plain"} {
		resp, _ := get(t, plain, app.srv.URL+path)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}
}

func TestApp_ExportCSV(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "analyst", services.Access{ViewCollecte: true})
	records := services.NewRecordService(app.db)
	ctx := context.Background()
	for _, raw := range []string{`{"categorie1": 10, "categorie2": 20}`, `{"categorie1": 20, "categorie2": 200}`} {
		b, err := models.ParseBasket([]byte(raw))
		require.NoError(t, err)
		_, err = records.CreateCollection(ctx, b)
		require.NoError(t, err)
	}
	c := app.login(t, "analyst")

	resp, body := get(t, c, app.srv.URL+"/export")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="nombre_lignes"`)

	resp = postForm(t, c, app.srv.URL+"/export", url.Values{"nombre_lignes": {"2"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="export.csv"`, resp.Header.Get("Content-Disposition"))
	rows := strings.Split(strings.TrimSuffix(readBody(t, resp), "\r\n"), "\r\n")
	require.Len(t, rows, 3)
	assert.Equal(t, "identifiant_collecte,detail_panier", rows[0])
	assert.Equal(t, `1,"{'categorie1': 10, 'categorie2': 20}"`, rows[1])
	assert.Equal(t, `2,"{'categorie1': 20, 'categorie2': 200}"`, rows[2])

	resp = postForm(t, c, app.srv.URL+"/export", url.Values{"nombre_lignes": {"1"}})
	assert.Len(t, strings.Split(strings.TrimSuffix(readBody(t, resp), "\r\n"), "\r\n"), 2)

	for _, bad := range []string{"-1", "dix"} {
		resp = postForm(t, c, app.srv.URL+"/export", url.Values{"nombre_lignes": {bad}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestApp_AnalysesJSON(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "analyst", services.Access{ViewClient: true})
	records := services.NewRecordService(app.db)
	ctx := context.Background()
	households := []struct {
		basket string
		socio  string
		price  string
	}{
		{`{"alimentaire": 10.5, "autre": 1}`, "Employe", "11.50"},
		{`{"multimedia": 4, "alimentaire": 2}`, "Etudiant", "6.00"},
		{`{"alimentaire": 0.25}`, "Employe", "0.25"},
	}
	for _, h := range households {
		b, err := models.ParseBasket([]byte(h.basket))
		require.NoError(t, err)
		_, err = records.CreateHousehold(ctx, services.Household{
			Basket: b,
			Client: models.Client{SocioCategory: h.socio, BasketPrice: decimal.RequireFromString(h.price)},
		})
		require.NoError(t, err)
	}
	c := app.login(t, "analyst")

	resp, body := get(t, c, app.srv.URL+"/analyses", "Accept", "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Moyennes   []map[string]any    `json:"moyennes"`
		Categories []string            `json:"categories"`
		Socio      []string            `json:"categorie_socioprofessionnelle"`
		Valeurs    map[string][]string `json:"valeurs"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, []string{"alimentaire", "autre", "multimedia"}, got.Categories)
	assert.Equal(t, []string{"Employe", "Etudiant"}, got.Socio)
	assert.Equal(t, []string{"10.75", "2"}, got.Valeurs["alimentaire"])
	assert.Equal(t, []string{"0", "4"}, got.Valeurs["multimedia"])
	require.Len(t, got.Moyennes, 2)
	assert.Equal(t, "Employe", got.Moyennes[0]["categorie_socioprofessionnelle"])

	resp, body = get(t, c, app.srv.URL+"/analyses")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<td>alimentaire</td>")
	assert.Contains(t, body, "10.75")
}

func TestApp_RegisterPasswordMismatch(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "admin", services.Access{Admin: true})
	c := app.login(t, "admin")

	resp := postForm(t, c, app.srv.URL+"/enregistrement", url.Values{
		"utilisateur": {"bob"}, "email": {"bob@example.com"}, "mdp": {"a"}, "mdp2": {"b"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/enregistrement", resp.Header.Get("Location"))

	_, body := get(t, c, app.srv.URL+"/enregistrement")
	assert.Equal(t, 1, strings.Count(body, `class="alert`))
	assert.Contains(t, body, "Les deux mots de passes ne sont pas identiques")

	_, err := app.users.Get(context.Background(), "bob")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestApp_RegisterEditDelete(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "admin", services.Access{Admin: true})
	c := app.login(t, "admin")
	ctx := context.Background()

	resp := postForm(t, c, app.srv.URL+"/enregistrement", url.Values{
		"utilisateur": {"bob"}, "nom": {"Bob"}, "prenom": {"Martin"}, "email": {"bob@example.com"},
		"mdp": {"pw"}, "mdp2": {"pw"}, "view_client": {"on"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	_, body := get(t, c, app.srv.URL+"/")
	assert.Contains(t, body, "Votre compte a été créer avec succès")

	bob, err := app.users.Get(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, bob.HasDirectPermission("client:view"))

	resp, body = get(t, c, app.srv.URL+"/modifier_utilisateur/bob")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="view_client" checked`)
	assert.NotContains(t, body, `name="view_collecte" checked`)

	resp, _ = get(t, c, app.srv.URL+"/modifier_utilisateur/nobody")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postForm(t, c, app.srv.URL+"/modifier_utilisateur/bob", url.Values{
		"utilisateur": {"admin"}, "email": {"bob@example.com"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/modifier_utilisateur/bob", resp.Header.Get("Location"))
	_, body = get(t, c, app.srv.URL+"/modifier_utilisateur/bob")
	assert.Contains(t, body, "Ce nom d&#39;utilisateur est déjà pris. Veuillez en choisir un autre.")

	resp = postForm(t, c, app.srv.URL+"/modifier_utilisateur/bob", url.Values{
		"utilisateur": {"robert"}, "nom": {"Robert"}, "email": {"robert@example.com"}, "view_collecte": {"on"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/liste_utilisateurs", resp.Header.Get("Location"))
	robert, err := app.users.Get(ctx, "robert")
	require.NoError(t, err)
	assert.False(t, robert.HasDirectPermission("client:view"))
	assert.True(t, robert.HasDirectPermission("collecte:view"))

	resp, body = get(t, c, app.srv.URL+"/liste_utilisateurs", "Accept", "application/json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"username":"robert"`)
	assert.NotContains(t, body, "password")

	resp, _ = get(t, c, app.srv.URL+"/supprimer_utilisateur/robert")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/liste_utilisateurs", resp.Header.Get("Location"))
	_, body = get(t, c, app.srv.URL+"/liste_utilisateurs")
	assert.Equal(t, 1, strings.Count(body, `class="alert`))
	assert.Contains(t, body, "L&#39;utilisateur robert a été supprimé avec succès.")
	assert.NotContains(t, body, "<td>robert</td>")

	_, err = app.users.Get(ctx, "robert")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	resp, _ = get(t, c, app.srv.URL+"/supprimer_utilisateur/robert")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApp_DeletedUserSessionIsDropped(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "admin", services.Access{Admin: true})
	app.createUser(t, "bob", services.Access{ViewClient: true})
	admin := app.login(t, "admin")
	bob := app.login(t, "bob")

	resp, _ := get(t, bob, app.srv.URL+"/analyses")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, admin, app.srv.URL+"/supprimer_utilisateur/bob")
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, _ = get(t, bob, app.srv.URL+"/analyses")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}
