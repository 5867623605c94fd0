package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eventdesk/eventdesk/internal/account"
	"github.com/eventdesk/eventdesk/internal/authz"
	"github.com/eventdesk/eventdesk/internal/dashboard"
	"github.com/eventdesk/eventdesk/internal/events"
	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/eventdesk/eventdesk/internal/shared"
	"github.com/eventdesk/eventdesk/internal/token"
	"github.com/eventdesk/eventdesk/internal/users"
	"github.com/eventdesk/eventdesk/internal/view"
	"github.com/eventdesk/eventdesk/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Policy           *authz.Policy
	Templates        *view.Engine
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AccountHandler   *account.Handler
	SessionRestore   account.Middleware
	DashboardHandler *dashboard.Handler
	EventsHandler    *events.Handler
	UsersHandler     *users.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with EventDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Landing page for unauthenticated users
	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		data := view.BuildData(r, params.CSRFManager, params.Policy, "Welcome", nil)
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
			return
		}
		if _, ok := token.NewManager(sess).Get(); !ok {
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	r.Route("/auth", params.AccountHandler.MountRoutes)

	// Every screen behind a sign-in runs the restore chain first: the
	// stored token is re-validated (and refreshed once) before any role
	// check reads the profile cache.
	restored := func(mount func(chi.Router)) func(chi.Router) {
		return func(r chi.Router) {
			r.Use(params.SessionRestore.RestoreSession)
			mount(r)
		}
	}
	r.Route("/profile", restored(params.AccountHandler.MountProfileRoutes))
	r.Route("/dashboard", restored(params.DashboardHandler.MountRoutes))
	r.Route("/events", restored(params.EventsHandler.MountRoutes))
	r.Route("/users", restored(params.UsersHandler.MountRoutes))

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static assets are immutable per deploy; one hour of browser cache
		// is plenty.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
