package view

import (
	"net/http"

	"github.com/eventdesk/eventdesk/internal/authz"
	"github.com/eventdesk/eventdesk/internal/backend"
	"github.com/eventdesk/eventdesk/internal/shared"
	"github.com/eventdesk/eventdesk/internal/token"
)

// BuildData assembles the TemplateData every page shares: CSRF token, flash,
// the cached user profile and the permission map the navigation renders
// from. The permission map is recomputed per request from the user's current
// roles — nothing is cached across role changes.
func BuildData(r *http.Request, csrf *shared.CSRFManager, policy *authz.Policy, title string, data any) TemplateData {
	td := TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Data:        data,
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return td
	}
	if csrf != nil {
		td.CSRFToken, _ = csrf.EnsureToken(r.Context(), sess)
	}
	td.Flash = sess.PopFlash()

	tokens := token.NewManager(sess)

	// The auth error slot is consumed by the first page that renders it,
	// even when the token is already gone.
	if msg := tokens.AuthError(); msg != "" {
		td.AuthError = msg
		tokens.ClearAuthError()
	}

	if _, ok := tokens.Get(); !ok {
		return td
	}
	var profile backend.User
	if !tokens.CachedProfile(&profile) {
		return td
	}
	td.User = &profile

	roles := authz.ParseRoles(profile.Roles)
	can := make(map[string]bool)
	for _, perm := range policy.Permissions(roles) {
		can[string(perm)] = true
	}
	td.Can = can
	return td
}
