// Package handlers holds the HTTP handlers of the application.
package handlers

import (
	"context"
	"net/http"

	"github.com/diewo77/goldenline/gate"
	"github.com/diewo77/goldenline/internal/logger"
	"github.com/diewo77/goldenline/internal/middleware"
	"github.com/diewo77/goldenline/view"
)

// Authorizer is the part of the access gate the handlers need.
type Authorizer interface {
	CanUser(ctx context.Context, userID uint, action gate.Action, resourceType string) bool
	InvalidateUser(userID uint)
}

func serverError(w http.ResponseWriter, r *http.Request, log *logger.Logger, msg string, err error) {
	log.Error(msg, "error", err, "path", r.URL.Path, "request_id", middleware.RequestIDFrom(r.Context()))
	view.Error(w, r, http.StatusInternalServerError, "error.internal")
}

// render writes a page and logs template failures.
func render(w http.ResponseWriter, r *http.Request, log *logger.Logger, name string, data map[string]any) {
	if err := view.Render(w, r, name, data); err != nil {
		serverError(w, r, log, "render failed", err)
	}
}
