package main

import (
	"context"
	"io/fs"
	"net/http"

	"github.com/diewo77/goldenline/auth"
	"github.com/diewo77/goldenline/gate"
	"github.com/diewo77/goldenline/internal/handlers"
	"github.com/diewo77/goldenline/internal/logger"
	"github.com/diewo77/goldenline/internal/middleware"
	"github.com/diewo77/goldenline/internal/policy"
	"github.com/diewo77/goldenline/view"
	"github.com/diewo77/goldenline/web"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	log       *logger.Logger
	routerCfg *policy.RouterConfig
	handler   http.Handler
}

// NewApp creates the application with all routes configured.
func NewApp(log *logger.Logger, routerCfg *policy.RouterConfig) *App {
	app := &App{
		mux:       http.NewServeMux(),
		log:       log,
		routerCfg: routerCfg,
	}

	// templates reach the gate and the flash store through callbacks
	view.SetLangResolver(middleware.LangFrom)
	view.SetFlashResolver(middleware.PopFlashes)
	view.SetCanResolver(func(r *http.Request, resource, action string) bool {
		return routerCfg.AuthGate.Can(r.Context(), gate.Action(action), resource)
	})
	view.SetIsAdminResolver(func(r *http.Request) bool {
		return routerCfg.AuthGate.IsAdmin(r.Context())
	})
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		return routerCfg.UserService.IsActive(ctx, uid)
	})

	app.setupRoutes()
	app.handler = middleware.Chain(app.mux,
		middleware.Recoverer(log),
		middleware.RequestLogger(log),
		middleware.Prefs,
		middleware.Flashes,
		auth.Middleware,
	)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	rc := a.routerCfg
	perm := rc.AuthGate.RequirePermission

	// Public
	a.mux.HandleFunc("GET /", rc.HomeHandler.Home)
	a.mux.HandleFunc("GET /healthz", handlers.Healthz)
	a.mux.HandleFunc("GET /connection", rc.AuthHandler.LoginForm)
	a.mux.HandleFunc("POST /connection", rc.AuthHandler.Login)
	a.mux.HandleFunc("GET /deconnection", rc.AuthHandler.Logout)

	// Records
	a.mux.Handle("GET /analyses",
		perm("client", gate.ActionView)(http.HandlerFunc(rc.AnalysisHandler.Show)))
	a.mux.Handle("GET /export",
		perm("collecte", gate.ActionView)(http.HandlerFunc(rc.ExportHandler.Form)))
	a.mux.Handle("POST /export",
		perm("collecte", gate.ActionView)(http.HandlerFunc(rc.ExportHandler.Download)))

	// Users
	uh := rc.UserHandler
	a.mux.Handle("GET /enregistrement",
		perm("user", gate.ActionAdd)(http.HandlerFunc(uh.RegisterForm)))
	a.mux.Handle("POST /enregistrement",
		perm("user", gate.ActionAdd)(http.HandlerFunc(uh.Register)))
	a.mux.Handle("GET /liste_utilisateurs",
		perm("user", gate.ActionView)(http.HandlerFunc(uh.List)))
	a.mux.Handle("GET /modifier_utilisateur/{nom_utilisateur}",
		perm("user", gate.ActionChange)(http.HandlerFunc(uh.EditForm)))
	a.mux.Handle("POST /modifier_utilisateur/{nom_utilisateur}",
		perm("user", gate.ActionChange)(http.HandlerFunc(uh.Edit)))
	a.mux.Handle("GET /supprimer_utilisateur/{nom_utilisateur}",
		perm("user", gate.ActionDelete)(http.HandlerFunc(uh.Delete)))

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
}
