package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/diewo77/goldenline/gate"
	"github.com/diewo77/goldenline/httpx"
	"github.com/diewo77/goldenline/internal/logger"
	"github.com/diewo77/goldenline/internal/middleware"
	"github.com/diewo77/goldenline/internal/models"
	"github.com/diewo77/goldenline/internal/services"
	"github.com/diewo77/goldenline/view"
)

const (
	registerPath = "/enregistrement"
	userListPath = "/liste_utilisateurs"
	editPathBase = "/modifier_utilisateur/"
)

// UserHandler serves account creation, listing, edition and deletion.
type UserHandler struct {
	Users *services.UserService
	Gate  Authorizer
	Log   *logger.Logger
}

func NewUserHandler(users *services.UserService, authz Authorizer, log *logger.Logger) *UserHandler {
	return &UserHandler{Users: users, Gate: authz, Log: log}
}

var registerFlashes = map[error]string{
	services.ErrUsernameTaken:    "flash.username_taken",
	services.ErrEmailTaken:       "flash.email_taken",
	services.ErrUsernameNotAlnum: "flash.username_not_alnum",
	services.ErrPasswordMismatch: "flash.password_mismatch",
}

var updateFlashes = map[error]string{
	services.ErrUsernameTaken:    "flash.update_username_taken",
	services.ErrEmailTaken:       "flash.update_email_taken",
	services.ErrUsernameNotAlnum: "flash.update_username_not_alnum",
}

// flashCode maps a validation error to its message code.
func flashCode(codes map[error]string, err error) (string, bool) {
	for target, code := range codes {
		if errors.Is(err, target) {
			return code, true
		}
	}
	return "", false
}

func accessFromForm(r *http.Request) services.Access {
	return services.Access{
		Admin:        r.FormValue("admin") != "",
		ViewClient:   r.FormValue("view_client") != "",
		ViewCollecte: r.FormValue("view_collecte") != "",
	}
}

func (h *UserHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.Log, "enregistrement.html", nil)
}

// Register creates an account. A rejected form is flashed and redirected to
// the registration page; nothing is created.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	in := services.RegisterInput{
		Username:        r.FormValue("utilisateur"),
		FirstName:       r.FormValue("nom"),
		LastName:        r.FormValue("prenom"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("mdp"),
		PasswordConfirm: r.FormValue("mdp2"),
		Access:          accessFromForm(r),
	}
	u, err := h.Users.Register(r.Context(), in)
	if err != nil {
		if code, ok := flashCode(registerFlashes, err); ok {
			middleware.AddFlash(w, r, middleware.LevelError, code)
			http.Redirect(w, r, registerPath, http.StatusFound)
			return
		}
		serverError(w, r, h.Log, "register failed", err)
		return
	}
	h.Log.Info("user created", "user_id", u.ID, "username", u.Username)
	middleware.AddFlash(w, r, middleware.LevelSuccess, "flash.account_created")
	http.Redirect(w, r, "/", http.StatusFound)
}

// List shows every account, as JSON when the client asks for it.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		serverError(w, r, h.Log, "list users failed", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"utilisateurs": users})
		return
	}
	render(w, r, h.Log, "liste_utilisateurs.html", map[string]any{"Utilisateurs": users})
}

// load fetches the user named in the path, answering 404 when missing.
func (h *UserHandler) load(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, err := h.Users.Get(r.Context(), r.PathValue("nom_utilisateur"))
	if errors.Is(err, services.ErrUserNotFound) {
		view.Error(w, r, http.StatusNotFound, "error.not_found")
		return nil, false
	}
	if err != nil {
		serverError(w, r, h.Log, "load user failed", err)
		return nil, false
	}
	return u, true
}

func (h *UserHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	render(w, r, h.Log, "modifier_utilisateur.html", map[string]any{
		"Utilisateur":            u,
		"Admin":                  u.InGroup(models.AdminProfileName),
		"PermissionViewClient":   h.Gate.CanUser(ctx, u.ID, gate.ActionView, "client"),
		"PermissionViewCollecte": h.Gate.CanUser(ctx, u.ID, gate.ActionView, "collecte"),
	})
}

// Edit applies the form to the user named in the path.
func (h *UserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("nom_utilisateur")
	in := services.UpdateInput{
		Username:  r.FormValue("utilisateur"),
		FirstName: r.FormValue("nom"),
		LastName:  r.FormValue("prenom"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("mdp"),
		Access:    accessFromForm(r),
	}
	u, err := h.Users.Update(r.Context(), username, in)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		view.Error(w, r, http.StatusNotFound, "error.not_found")
		return
	case err != nil:
		if code, ok := flashCode(updateFlashes, err); ok {
			middleware.AddFlash(w, r, middleware.LevelError, code)
			http.Redirect(w, r, editPathBase+url.PathEscape(username), http.StatusFound)
			return
		}
		serverError(w, r, h.Log, "update user failed", err)
		return
	}
	h.Gate.InvalidateUser(u.ID)
	h.Log.Info("user updated", "user_id", u.ID, "username", u.Username)
	http.Redirect(w, r, userListPath, http.StatusFound)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Delete(r.Context(), r.PathValue("nom_utilisateur"))
	if errors.Is(err, services.ErrUserNotFound) {
		view.Error(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	if err != nil {
		serverError(w, r, h.Log, "delete user failed", err)
		return
	}
	h.Gate.InvalidateUser(u.ID)
	h.Log.Info("user deleted", "user_id", u.ID, "username", u.Username)
	middleware.AddFlash(w, r, middleware.LevelSuccess, "flash.user_deleted", u.Username)
	http.Redirect(w, r, userListPath, http.StatusFound)
}
