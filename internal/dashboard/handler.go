// Package dashboard renders the summary screen. Its reads are independent,
// so they go out in parallel; a failure in any of them surfaces as a single
// screen-level error rather than a partial render.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/eventdesk/eventdesk/internal/authz"
	"github.com/eventdesk/eventdesk/internal/backend"
	"github.com/eventdesk/eventdesk/internal/platform/httpx"
	"github.com/eventdesk/eventdesk/internal/shared"
	"github.com/eventdesk/eventdesk/internal/token"
	"github.com/eventdesk/eventdesk/internal/view"
)

// API is the slice of the backend client the summary screen depends on.
type API interface {
	EventStats(ctx context.Context, ts backend.TokenSource) (*backend.EventStats, error)
	UserStats(ctx context.Context, ts backend.TokenSource) (*backend.UserStats, error)
}

// Handler serves the dashboard summary.
type Handler struct {
	logger    *slog.Logger
	api       API
	policy    *authz.Policy
	templates *view.Engine
	csrf      *shared.CSRFManager
	authz     authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, api API, policy *authz.Policy, templates *view.Engine, csrf *shared.CSRFManager, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, api: api, policy: policy, templates: templates, csrf: csrf, authz: mw}
}

// MountRoutes registers the dashboard routes. The JSON variant backs the
// summary auto-refresh.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermDashboardView))
		r.Get("/", h.showDashboard)
		r.Get("/stats", h.statsJSON)
	})
}

type pageData struct {
	Events *backend.EventStats
	Users  *backend.UserStats
	Error  string
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	events, users, err := h.fetchSummary(r)
	data := pageData{Events: events, Users: users}
	if err != nil {
		h.logger.Error("dashboard summary", slog.Any("error", err))
		// All or nothing: one failed aggregate blanks the whole summary.
		data = pageData{Error: errorMessage(err)}
	}

	viewData := view.BuildData(r, h.csrf, h.policy, "Dashboard", data)
	if err := h.templates.Render(w, "pages/dashboard.html", viewData); err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type statsPayload struct {
	Events *backend.EventStats `json:"events"`
	Users  *backend.UserStats  `json:"users"`
}

func (h *Handler) statsJSON(w http.ResponseWriter, r *http.Request) {
	events, users, err := h.fetchSummary(r)
	if err != nil {
		h.logger.Error("dashboard summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, statsPayload{Events: events, Users: users})
}

// fetchSummary runs the independent aggregate reads in parallel and fails as
// a unit.
func (h *Handler) fetchSummary(r *http.Request) (*backend.EventStats, *backend.UserStats, error) {
	tokens := token.NewManager(shared.SessionFromContext(r.Context()))

	var (
		events *backend.EventStats
		users  *backend.UserStats
	)
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		stats, err := h.api.EventStats(ctx, tokens)
		if err != nil {
			return err
		}
		events = stats
		return nil
	})

	g.Go(func() error {
		stats, err := h.api.UserStats(ctx, tokens)
		if err != nil {
			return err
		}
		users = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return events, users, nil
}

func errorMessage(err error) string {
	var apiErr *backend.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return shared.UserSafeMessage(err)
}
