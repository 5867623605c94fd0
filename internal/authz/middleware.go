package authz

import (
	"log/slog"
	"net/http"

	"github.com/eventdesk/eventdesk/internal/backend"
	"github.com/eventdesk/eventdesk/internal/shared"
	"github.com/eventdesk/eventdesk/internal/token"
)

// Middleware wires permission gates for HTTP handlers. Roles come from the
// session's cached profile; the check only shapes what is served — the
// backend re-validates authorization on every relayed call.
type Middleware struct {
	Policy *Policy
	Logger *slog.Logger
	// Forbidden, when set, renders the denial response; otherwise a plain
	// 403 is written.
	Forbidden http.Handler
}

// RequireAuthenticated redirects anonymous sessions to the login page.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.currentRoles(r); !ok {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAny ensures the current user holds at least one of the required
// permissions. Anonymous sessions are sent to login; authenticated sessions
// without a grant get 403.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			roles, ok := m.currentRoles(r)
			if !ok {
				http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
				return
			}
			for _, p := range perms {
				if m.Policy.HasPermission(roles, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.forbidden(w, r)
		})
	}
}

// RequireAll ensures the current user holds every required permission.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			roles, ok := m.currentRoles(r)
			if !ok {
				http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
				return
			}
			for _, p := range perms {
				if !m.Policy.HasPermission(roles, p) {
					m.forbidden(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) currentRoles(r *http.Request) ([]Role, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return nil, false
	}
	tokens := token.NewManager(sess)
	if _, ok := tokens.Get(); !ok {
		return nil, false
	}
	var profile backend.User
	if !tokens.CachedProfile(&profile) {
		return nil, false
	}
	return ParseRoles(profile.Roles), true
}

func (m Middleware) forbidden(w http.ResponseWriter, r *http.Request) {
	if m.Logger != nil {
		m.Logger.Warn("permission denied", slog.String("path", r.URL.Path))
	}
	if m.Forbidden != nil {
		m.Forbidden.ServeHTTP(w, r)
		return
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
