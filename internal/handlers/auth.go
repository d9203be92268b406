package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/goldenline/auth"
	"github.com/diewo77/goldenline/internal/logger"
	"github.com/diewo77/goldenline/internal/middleware"
	"github.com/diewo77/goldenline/internal/services"
)

type AuthHandler struct {
	Users *services.UserService
	Log   *logger.Logger
}

func NewAuthHandler(users *services.UserService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{Users: users, Log: log}
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.Log, "connection.html", nil)
}

// Login opens a session and renders the home page greeting the user.
// Bad credentials are flashed and sent back to the form.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("utilisateur")
	password := r.FormValue("mdp")

	u, err := h.Users.Authenticate(r.Context(), username, password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		h.Log.Info("login refused", "username", username)
		middleware.AddFlash(w, r, middleware.LevelError, "flash.bad_login")
		http.Redirect(w, r, auth.LoginURL, http.StatusFound)
		return
	}
	if err != nil {
		serverError(w, r, h.Log, "login failed", err)
		return
	}

	auth.CreateSession(w, u.ID)
	h.Log.Info("login", "user_id", u.ID)
	r = r.WithContext(auth.WithUserID(r.Context(), u.ID))
	render(w, r, h.Log, "accueil.html", map[string]any{"NomUtilisateur": u.DisplayName()})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	middleware.AddFlash(w, r, middleware.LevelSuccess, "flash.logged_out")
	http.Redirect(w, r, "/", http.StatusFound)
}
