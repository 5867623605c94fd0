package account

import (
	"log/slog"
	"net/http"

	"github.com/eventdesk/eventdesk/internal/shared"
	"github.com/eventdesk/eventdesk/internal/token"
)

// sessionExpiredMessage lands in the shared error slot when a stored token
// can no longer be validated or refreshed.
const sessionExpiredMessage = "Your session has expired. Please sign in again."

// Middleware runs the restore chain in front of protected screens. The
// backend is the source of truth for session validity, so every gated
// request re-validates the stored token, refreshing it once when the
// backend rejects it.
type Middleware struct {
	API    API
	Logger *slog.Logger
}

// RestoreSession validates the session's token before the wrapped handler
// runs. Requests without a token pass through untouched; the authorization
// layer behind this middleware sends them to the login screen. Requests
// whose token fails the validate-refresh-revalidate chain lose the token,
// get the expiry message queued, and are redirected to the login screen.
// On success the refreshed profile is back in the session cache, so role
// checks downstream see what the backend just returned.
func (m Middleware) RestoreSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}

		tokens := token.NewManager(sess)
		if _, ok := tokens.Get(); !ok {
			next.ServeHTTP(w, r)
			return
		}

		state := NewState(m.API, tokens)
		state.Restore(r.Context())
		if state.Phase() != PhaseAuthenticated {
			if m.Logger != nil {
				m.Logger.Info("session restore failed",
					slog.String("path", r.URL.Path),
				)
			}
			tokens.SetAuthError(sessionExpiredMessage)
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}
