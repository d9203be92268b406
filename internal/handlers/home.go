package handlers

import (
	"net/http"

	"github.com/diewo77/goldenline/auth"
	"github.com/diewo77/goldenline/httpx"
	"github.com/diewo77/goldenline/internal/logger"
	"github.com/diewo77/goldenline/internal/services"
	"github.com/diewo77/goldenline/view"
)

type HomeHandler struct {
	Users *services.UserService
	Log   *logger.Logger
}

func NewHomeHandler(users *services.UserService, log *logger.Logger) *HomeHandler {
	return &HomeHandler{Users: users, Log: log}
}

// Home renders the landing page, greeting the logged in user.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		view.Error(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	data := map[string]any{}
	if uid, ok := auth.UserIDFromContext(r.Context()); ok {
		if u, err := h.Users.GetByID(r.Context(), uid); err == nil {
			data["NomUtilisateur"] = u.DisplayName()
		}
	}
	render(w, r, h.Log, "accueil.html", data)
}

// Healthz answers {"status":"ok"}.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
