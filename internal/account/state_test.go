package account

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/eventdesk/eventdesk/internal/authz"
	"github.com/eventdesk/eventdesk/internal/backend"
	"github.com/eventdesk/eventdesk/internal/token"
)

type fakeAPI struct {
	loginResp  *backend.AuthResponse
	loginErr   error
	loginCalls int

	signupResp *backend.SignupResponse
	signupErr  error

	verifyResp *backend.AuthResponse
	verifyErr  error

	currentUser      *backend.User
	currentUserErr   error
	currentUserCalls int

	refreshResp  *backend.AuthResponse
	refreshErr   error
	refreshCalls int

	logoutErr   error
	logoutCalls int

	updateProfileResp  *backend.User
	updateProfileErr   error
	updateProfileCalls int

	// headers seen per call, in order, for asserting which token went out.
	seenHeaders []string
}

func (f *fakeAPI) Login(_ context.Context, _ backend.Credentials) (*backend.AuthResponse, error) {
	f.loginCalls++
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Signup(_ context.Context, _ backend.SignupRequest) (*backend.SignupResponse, error) {
	return f.signupResp, f.signupErr
}

func (f *fakeAPI) VerifyEmail(_ context.Context, _ backend.VerifyEmailRequest) (*backend.AuthResponse, error) {
	return f.verifyResp, f.verifyErr
}

func (f *fakeAPI) RefreshToken(_ context.Context, ts backend.TokenSource) (*backend.AuthResponse, error) {
	f.refreshCalls++
	f.seenHeaders = append(f.seenHeaders, ts.AuthHeader())
	return f.refreshResp, f.refreshErr
}

func (f *fakeAPI) Logout(_ context.Context, _ backend.TokenSource) error {
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeAPI) CurrentUser(_ context.Context, ts backend.TokenSource) (*backend.User, error) {
	f.currentUserCalls++
	f.seenHeaders = append(f.seenHeaders, ts.AuthHeader())
	return f.currentUser, f.currentUserErr
}

func (f *fakeAPI) UpdateProfile(_ context.Context, ts backend.TokenSource, _ backend.ProfileUpdateRequest) (*backend.User, error) {
	f.updateProfileCalls++
	f.seenHeaders = append(f.seenHeaders, ts.AuthHeader())
	return f.updateProfileResp, f.updateProfileErr
}

type memStore struct {
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (s *memStore) Get(key string) string { return s.values[key] }
func (s *memStore) Set(key, value string) { s.values[key] = value }
func (s *memStore) Delete(key string)     { delete(s.values, key) }

func newTestState(api API) (*State, *token.Manager) {
	tokens := token.NewManager(newMemStore())
	return NewState(api, tokens), tokens
}

func TestLoginSuccess(t *testing.T) {
	user := backend.User{ID: "u-1", Email: "admin@example.com", Roles: []string{"administrator"}}
	api := &fakeAPI{loginResp: &backend.AuthResponse{Token: "tok-1", User: user}}
	state, tokens := newTestState(api)

	if err := state.Login(context.Background(), user.Email, "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if state.Phase() != PhaseAuthenticated {
		t.Fatalf("phase = %v, want PhaseAuthenticated", state.Phase())
	}
	if got := state.User(); got == nil || got.ID != "u-1" {
		t.Fatalf("User = %+v, want u-1", got)
	}
	if !state.Verified() {
		t.Error("user from a fresh login should be verified")
	}
	if state.Loading() {
		t.Error("loading flag still set after Login returned")
	}
	if got, ok := tokens.Get(); !ok || got != "tok-1" {
		t.Errorf("stored token = %q, %v, want tok-1", got, ok)
	}

	var cached backend.User
	if !tokens.CachedProfile(&cached) || cached.ID != "u-1" {
		t.Errorf("cached profile = %+v, want the signed-in user", cached)
	}
}

func TestLoginFailureThenSuccess(t *testing.T) {
	api := &fakeAPI{loginErr: &backend.Error{Status: http.StatusUnauthorized, Message: "invalid credentials"}}
	state, tokens := newTestState(api)

	if err := state.Login(context.Background(), "admin@example.com", "wrong"); err == nil {
		t.Fatal("Login with bad credentials should return an error")
	}
	if state.User() != nil {
		t.Error("failed login must leave User unset")
	}
	if got := state.Err(); got != "invalid credentials" {
		t.Errorf("Err() = %q, want the backend message", got)
	}
	if _, ok := tokens.Get(); ok {
		t.Error("failed login must not store a token")
	}

	api.loginErr = nil
	api.loginResp = &backend.AuthResponse{Token: "tok-2", User: backend.User{ID: "u-2"}}

	if err := state.Login(context.Background(), "admin@example.com", "right"); err != nil {
		t.Fatalf("second Login returned error: %v", err)
	}
	if got := state.Err(); got != "" {
		t.Errorf("successful login must clear the prior error, got %q", got)
	}
	if state.User() == nil || state.User().ID != "u-2" {
		t.Errorf("User = %+v, want u-2", state.User())
	}
}

func TestLoginTransportErrorUsesGenericMessage(t *testing.T) {
	api := &fakeAPI{loginErr: errors.New("dial tcp: connection refused")}
	state, _ := newTestState(api)

	if err := state.Login(context.Background(), "a@b.c", "p"); err == nil {
		t.Fatal("expected error")
	}
	if got := state.Err(); got != "Something went wrong. Please try again." {
		t.Errorf("Err() = %q, transport failures must not leak through", got)
	}
}

func TestLogoutClearsLocalStateEvenWhenBackendFails(t *testing.T) {
	api := &fakeAPI{
		loginResp: &backend.AuthResponse{Token: "tok-1", User: backend.User{ID: "u-1"}},
		logoutErr: errors.New("backend unavailable"),
	}
	state, tokens := newTestState(api)
	if err := state.Login(context.Background(), "a@b.c", "p"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	state.Logout(context.Background())

	if api.logoutCalls != 1 {
		t.Errorf("logout calls = %d, want 1", api.logoutCalls)
	}
	if state.User() != nil {
		t.Error("Logout must clear User even when the backend call fails")
	}
	if state.Phase() != PhaseAnonymous {
		t.Errorf("phase = %v, want PhaseAnonymous", state.Phase())
	}
	if _, ok := tokens.Get(); ok {
		t.Error("Logout must clear the stored token")
	}
	var cached backend.User
	if tokens.CachedProfile(&cached) {
		t.Error("Logout must clear the cached profile")
	}
}

func TestRestoreWithoutTokenIsAnonymous(t *testing.T) {
	api := &fakeAPI{}
	state, _ := newTestState(api)

	state.Restore(context.Background())

	if state.Phase() != PhaseAnonymous {
		t.Fatalf("phase = %v, want PhaseAnonymous", state.Phase())
	}
	if api.currentUserCalls != 0 || api.refreshCalls != 0 {
		t.Error("Restore without a token must not touch the backend")
	}
}

func TestRestoreValidToken(t *testing.T) {
	api := &fakeAPI{currentUser: &backend.User{ID: "u-1", Roles: []string{"organizer"}}}
	state, tokens := newTestState(api)
	tokens.Set("tok-1")

	state.Restore(context.Background())

	if state.Phase() != PhaseAuthenticated {
		t.Fatalf("phase = %v, want PhaseAuthenticated", state.Phase())
	}
	if !state.Verified() {
		t.Error("user validated against the backend should be verified")
	}
	if api.refreshCalls != 0 {
		t.Error("a valid token must not trigger a refresh")
	}
	if roles := state.Roles(); len(roles) != 1 || roles[0] != authz.RoleOrganizer {
		t.Errorf("Roles = %v, want [organizer]", roles)
	}
}

func TestRestoreHydratesFromCacheBeforeValidation(t *testing.T) {
	// The backend rejects the token outright so the cached copy is the only
	// user data Restore ever sees before settling.
	api := &fakeAPI{
		currentUserErr: &backend.Error{Status: http.StatusUnauthorized},
		refreshErr:     &backend.Error{Status: http.StatusUnauthorized},
	}
	state, tokens := newTestState(api)
	tokens.Set("tok-stale")
	tokens.CacheProfile(&backend.User{ID: "u-cached"})

	state.Restore(context.Background())

	// Validation and the single refresh both failed, so the session ends
	// anonymous with everything cleared.
	if state.Phase() != PhaseAnonymous {
		t.Fatalf("phase = %v, want PhaseAnonymous", state.Phase())
	}
	if state.User() != nil {
		t.Error("failed restore must clear the hydrated user")
	}
	if _, ok := tokens.Get(); ok {
		t.Error("failed restore must clear the token")
	}
}

func TestRestoreExpiredTokenSingleRefresh(t *testing.T) {
	api := &fakeAPI{
		currentUserErr: &backend.Error{Status: http.StatusUnauthorized},
		refreshErr:     &backend.Error{Status: http.StatusUnauthorized},
	}
	state, tokens := newTestState(api)
	tokens.Set("tok-expired")

	state.Restore(context.Background())

	if api.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", api.refreshCalls)
	}
	if state.Phase() != PhaseAnonymous {
		t.Errorf("phase = %v, want PhaseAnonymous", state.Phase())
	}
	if _, ok := tokens.Get(); ok {
		t.Error("token must be cleared after the failed refresh")
	}
	if state.Loading() {
		t.Error("loading flag still set after Restore returned")
	}
}

func TestRestoreRefreshSucceedsThenRevalidates(t *testing.T) {
	api := &fakeAPI{
		refreshResp: &backend.AuthResponse{Token: "tok-fresh"},
		currentUser: &backend.User{ID: "u-1"},
	}
	// First CurrentUser call rejects the stale token, the second succeeds.
	flipping := &flippingAPI{fakeAPI: api}
	tokens := token.NewManager(newMemStore())
	tokens.Set("tok-expired")
	state := NewState(flipping, tokens)

	state.Restore(context.Background())

	if state.Phase() != PhaseAuthenticated {
		t.Fatalf("phase = %v, want PhaseAuthenticated", state.Phase())
	}
	if got, ok := tokens.Get(); !ok || got != "tok-fresh" {
		t.Errorf("stored token = %q, want the refreshed one", got)
	}
	if api.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", api.refreshCalls)
	}
	// The re-validation must go out under the refreshed token.
	last := flipping.seenHeaders[len(flipping.seenHeaders)-1]
	if last != "Bearer tok-fresh" {
		t.Errorf("re-validation header = %q, want Bearer tok-fresh", last)
	}
}

// flippingAPI fails CurrentUser on the first call and succeeds afterwards,
// which is the expired-token-then-successful-refresh shape.
type flippingAPI struct {
	*fakeAPI
}

func (f *flippingAPI) CurrentUser(ctx context.Context, ts backend.TokenSource) (*backend.User, error) {
	f.currentUserCalls++
	f.seenHeaders = append(f.seenHeaders, ts.AuthHeader())
	if f.currentUserCalls == 1 {
		return nil, &backend.Error{Status: http.StatusUnauthorized}
	}
	return f.currentUser, nil
}

func TestSignupDoesNotAuthenticate(t *testing.T) {
	api := &fakeAPI{signupResp: &backend.SignupResponse{RegistrationID: "reg-1"}}
	state, tokens := newTestState(api)

	id, err := state.Signup(context.Background(), backend.SignupRequest{Email: "new@example.com"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if id != "reg-1" {
		t.Errorf("registration id = %q, want reg-1", id)
	}
	if state.User() != nil {
		t.Error("Signup must not sign the user in")
	}
	if _, ok := tokens.Get(); ok {
		t.Error("Signup must not store a token")
	}
}

func TestVerifyEmailAuthenticates(t *testing.T) {
	api := &fakeAPI{verifyResp: &backend.AuthResponse{Token: "tok-v", User: backend.User{ID: "u-1"}}}
	state, tokens := newTestState(api)

	if err := state.VerifyEmail(context.Background(), "123456", "reg-1"); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if state.Phase() != PhaseAuthenticated {
		t.Errorf("phase = %v, want PhaseAuthenticated", state.Phase())
	}
	if got, ok := tokens.Get(); !ok || got != "tok-v" {
		t.Errorf("stored token = %q, %v, want tok-v", got, ok)
	}
}

func TestUpdateUserMergesAndPersists(t *testing.T) {
	api := &fakeAPI{loginResp: &backend.AuthResponse{
		Token: "tok-1",
		User:  backend.User{ID: "u-1", Name: "Old Name", Email: "old@example.com", Roles: []string{"participant"}},
	}}
	state, tokens := newTestState(api)
	if err := state.Login(context.Background(), "old@example.com", "p"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	name := "New Name"
	state.UpdateUser(ProfileUpdate{Name: &name})

	if got := state.User().Name; got != "New Name" {
		t.Errorf("Name = %q, want New Name", got)
	}
	if got := state.User().Email; got != "old@example.com" {
		t.Errorf("Email = %q, fields without an update must survive the merge", got)
	}

	var cached backend.User
	if !tokens.CachedProfile(&cached) {
		t.Fatal("merged profile missing from the cache")
	}
	if cached.Name != "New Name" {
		t.Errorf("cached Name = %q, want New Name", cached.Name)
	}
}

func TestUpdateUserHydratesFromCache(t *testing.T) {
	// A fresh per-request State has no in-memory user yet; the merge must
	// still work off the cached profile.
	state, tokens := newTestState(&fakeAPI{})
	tokens.Set("tok-1")
	tokens.CacheProfile(&backend.User{ID: "u-1", Name: "Old Name", Email: "a@b.c"})

	name := "New Name"
	state.UpdateUser(ProfileUpdate{Name: &name})

	if state.User() == nil || state.User().Name != "New Name" {
		t.Fatalf("User = %+v, want merged record from the cache", state.User())
	}
	var cached backend.User
	if !tokens.CachedProfile(&cached) || cached.Name != "New Name" {
		t.Errorf("cached profile = %+v, want the merged record", cached)
	}
	if cached.Email != "a@b.c" {
		t.Errorf("Email = %q, fields without an update must survive", cached.Email)
	}
}

func TestLoginFailurePersistsSharedError(t *testing.T) {
	api := &fakeAPI{loginErr: &backend.Error{Status: http.StatusUnauthorized, Message: "invalid credentials"}}
	state, tokens := newTestState(api)

	if err := state.Login(context.Background(), "a@b.c", "wrong"); err == nil {
		t.Fatal("expected error")
	}
	if got := tokens.AuthError(); got != "invalid credentials" {
		t.Errorf("session error slot = %q, want the backend message", got)
	}

	api.loginErr = nil
	api.loginResp = &backend.AuthResponse{Token: "tok-1", User: backend.User{ID: "u-1"}}
	if err := state.Login(context.Background(), "a@b.c", "right"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := tokens.AuthError(); got != "" {
		t.Errorf("successful login must clear the session error slot, got %q", got)
	}
}

func TestUpdateUserNoOpWhenAnonymous(t *testing.T) {
	state, tokens := newTestState(&fakeAPI{})

	name := "Nobody"
	state.UpdateUser(ProfileUpdate{Name: &name})

	if state.User() != nil {
		t.Error("UpdateUser on an anonymous session must stay a no-op")
	}
	var cached backend.User
	if tokens.CachedProfile(&cached) {
		t.Error("UpdateUser on an anonymous session must not write the cache")
	}
}
