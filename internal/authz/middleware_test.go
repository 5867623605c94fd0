package authz_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/eventdesk/eventdesk/internal/authz"
	"github.com/eventdesk/eventdesk/internal/backend"
	"github.com/eventdesk/eventdesk/internal/shared"
)

func sessionRequest(t *testing.T, roles []string) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if roles != nil {
		sess.Set("auth_token", "tok-1")
		profile, _ := json.Marshal(backend.User{ID: "u-1", Roles: roles})
		sess.Set("auth_profile", string(profile))
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthenticatedRedirectsAnonymous(t *testing.T) {
	mw := authz.Middleware{Policy: authz.DefaultPolicy()}
	var called bool

	res := httptest.NewRecorder()
	mw.RequireAuthenticated(okHandler(&called)).ServeHTTP(res, sessionRequest(t, nil))

	if called {
		t.Fatal("handler ran for an anonymous session")
	}
	if res.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/auth/login" {
		t.Fatalf("redirect = %q, want /auth/login", loc)
	}
}

func TestRequireAuthenticatedPassesSignedIn(t *testing.T) {
	mw := authz.Middleware{Policy: authz.DefaultPolicy()}
	var called bool

	res := httptest.NewRecorder()
	mw.RequireAuthenticated(okHandler(&called)).ServeHTTP(res, sessionRequest(t, []string{"participant"}))

	if !called {
		t.Fatal("handler did not run for a signed-in session")
	}
}

func TestRequireAnyDeniesMissingGrant(t *testing.T) {
	mw := authz.Middleware{Policy: authz.DefaultPolicy()}
	var called bool

	gate := mw.RequireAny(authz.PermUsersManage)
	res := httptest.NewRecorder()
	gate(okHandler(&called)).ServeHTTP(res, sessionRequest(t, []string{"organizer"}))

	if called {
		t.Fatal("handler ran without the required permission")
	}
	if res.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", res.Code)
	}
}

func TestRequireAnyGrantsOnOnePermission(t *testing.T) {
	mw := authz.Middleware{Policy: authz.DefaultPolicy()}
	var called bool

	gate := mw.RequireAny(authz.PermUsersManage, authz.PermEventsCreate)
	res := httptest.NewRecorder()
	gate(okHandler(&called)).ServeHTTP(res, sessionRequest(t, []string{"organizer"}))

	if !called {
		t.Fatal("one matching permission should be enough for RequireAny")
	}
}

func TestRequireAllDemandsEveryPermission(t *testing.T) {
	mw := authz.Middleware{Policy: authz.DefaultPolicy()}

	gate := mw.RequireAll(authz.PermEventsCreate, authz.PermUsersManage)

	var called bool
	res := httptest.NewRecorder()
	gate(okHandler(&called)).ServeHTTP(res, sessionRequest(t, []string{"organizer"}))
	if called || res.Code != http.StatusForbidden {
		t.Fatalf("organizer passed RequireAll, status = %d", res.Code)
	}

	called = false
	res = httptest.NewRecorder()
	gate(okHandler(&called)).ServeHTTP(res, sessionRequest(t, []string{"administrator"}))
	if !called {
		t.Fatal("administrator should hold every permission")
	}
}

func TestRequireAnyRedirectsAnonymousBeforeChecking(t *testing.T) {
	mw := authz.Middleware{Policy: authz.DefaultPolicy()}
	var called bool

	gate := mw.RequireAny(authz.PermDashboardView)
	res := httptest.NewRecorder()
	gate(okHandler(&called)).ServeHTTP(res, sessionRequest(t, nil))

	if res.Code != http.StatusSeeOther {
		t.Fatalf("anonymous session got %d, want a login redirect", res.Code)
	}
}
