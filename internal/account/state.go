// Package account holds the per-session authentication state: who is signed
// in, how far restore has progressed, and the most recent auth error. A
// State is constructed explicitly per request and handed to whoever needs
// it; there is no ambient singleton.
package account

import (
	"context"
	"errors"

	"github.com/eventdesk/eventdesk/internal/authz"
	"github.com/eventdesk/eventdesk/internal/backend"
	"github.com/eventdesk/eventdesk/internal/token"
)

// Phase is the lifecycle position of the session.
type Phase int

const (
	// PhaseUninitialized means Restore has not run yet.
	PhaseUninitialized Phase = iota
	// PhaseRestoring means a stored token is being validated.
	PhaseRestoring
	// PhaseAuthenticated means a user is signed in.
	PhaseAuthenticated
	// PhaseAnonymous means no valid session exists.
	PhaseAnonymous
)

// API is the slice of the backend client the account state depends on.
type API interface {
	Login(ctx context.Context, creds backend.Credentials) (*backend.AuthResponse, error)
	Signup(ctx context.Context, req backend.SignupRequest) (*backend.SignupResponse, error)
	VerifyEmail(ctx context.Context, req backend.VerifyEmailRequest) (*backend.AuthResponse, error)
	RefreshToken(ctx context.Context, ts backend.TokenSource) (*backend.AuthResponse, error)
	Logout(ctx context.Context, ts backend.TokenSource) error
	CurrentUser(ctx context.Context, ts backend.TokenSource) (*backend.User, error)
	UpdateProfile(ctx context.Context, ts backend.TokenSource, req backend.ProfileUpdateRequest) (*backend.User, error)
}

// ProfileUpdate carries partial fields merged into the current user.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Roles *[]string
}

// State is the session's authentication state machine:
// uninitialized → restoring → {authenticated, anonymous}, with
// authenticated falling back to anonymous on logout or forced token
// invalidation.
type State struct {
	api    API
	tokens *token.Manager

	phase    Phase
	user     *backend.User
	verified bool
	loading  bool
	lastErr  string
}

// NewState binds a State to a backend client and a token manager.
func NewState(api API, tokens *token.Manager) *State {
	return &State{api: api, tokens: tokens, phase: PhaseUninitialized}
}

// Phase returns the current lifecycle phase.
func (s *State) Phase() Phase { return s.phase }

// User returns the current user, nil when anonymous.
func (s *State) User() *backend.User { return s.user }

// Verified reports whether the current user record came from the backend
// rather than the local profile cache.
func (s *State) Verified() bool { return s.verified }

// Loading reports whether an auth operation is in flight.
func (s *State) Loading() bool { return s.loading }

// Err returns the most recent auth error message, "" when clear.
func (s *State) Err() string { return s.lastErr }

// ClearError resets the shared error slot, including the copy persisted in
// the session.
func (s *State) ClearError() {
	s.lastErr = ""
	s.tokens.ClearAuthError()
}

// Roles returns the current user's parsed roles, nil when anonymous.
func (s *State) Roles() []authz.Role {
	if s.user == nil {
		return nil
	}
	return authz.ParseRoles(s.user.Roles)
}

// Tokens exposes the token manager for attaching auth headers.
func (s *State) Tokens() *token.Manager { return s.tokens }

// Restore rebuilds the session from stored state. With no token it settles
// on anonymous immediately. With a token it first hydrates from the cached
// profile so the caller can render at once, then validates against the
// backend; on validation failure it makes exactly one refresh attempt
// followed by one re-validation. Any failure in that chain clears the token
// and settles on anonymous. The loading flag is cleared exactly once on
// every path.
func (s *State) Restore(ctx context.Context) {
	s.loading = true
	defer func() { s.loading = false }()

	if _, ok := s.tokens.Get(); !ok {
		s.becomeAnonymous()
		return
	}

	s.phase = PhaseRestoring

	var cached backend.User
	if s.tokens.CachedProfile(&cached) {
		s.user = &cached
		s.verified = false
	}

	fresh, err := s.api.CurrentUser(ctx, s.tokens)
	if err == nil {
		s.becomeAuthenticated(fresh)
		return
	}

	// One refresh attempt, then one re-validation. No retries beyond that.
	refreshed, refreshErr := s.api.RefreshToken(ctx, s.tokens)
	if refreshErr != nil {
		s.tokens.Remove()
		s.becomeAnonymous()
		return
	}
	s.tokens.Set(refreshed.Token)

	fresh, err = s.api.CurrentUser(ctx, s.tokens)
	if err != nil {
		s.tokens.Remove()
		s.becomeAnonymous()
		return
	}
	s.becomeAuthenticated(fresh)
}

// Login exchanges credentials for a session. On success the token and user
// are stored and any prior error is cleared; on failure the error lands in
// the shared slot and is also returned so the caller can react inline.
func (s *State) Login(ctx context.Context, email, password string) error {
	s.loading = true
	defer func() { s.loading = false }()

	resp, err := s.api.Login(ctx, backend.Credentials{Email: email, Password: password})
	if err != nil {
		s.setError(err)
		return err
	}

	s.tokens.Set(resp.Token)
	s.becomeAuthenticated(&resp.User)
	return nil
}

// Signup creates a pending registration and returns its identifier. It does
// not authenticate the user; VerifyEmail completes the flow.
func (s *State) Signup(ctx context.Context, req backend.SignupRequest) (string, error) {
	s.loading = true
	defer func() { s.loading = false }()

	resp, err := s.api.Signup(ctx, req)
	if err != nil {
		s.setError(err)
		return "", err
	}
	s.ClearError()
	return resp.RegistrationID, nil
}

// VerifyEmail exchanges a verification code for an authenticated session.
func (s *State) VerifyEmail(ctx context.Context, code, registrationID string) error {
	s.loading = true
	defer func() { s.loading = false }()

	resp, err := s.api.VerifyEmail(ctx, backend.VerifyEmailRequest{Code: code, RegistrationID: registrationID})
	if err != nil {
		s.setError(err)
		return err
	}

	s.tokens.Set(resp.Token)
	s.becomeAuthenticated(&resp.User)
	return nil
}

// Logout invalidates the backend session best-effort and always clears the
// local user, token and cached profile regardless of the backend outcome.
func (s *State) Logout(ctx context.Context) {
	_ = s.api.Logout(ctx, s.tokens)
	s.tokens.Remove()
	s.becomeAnonymous()
}

// UpdateUser merges partial fields into the current user and persists the
// merged record to the profile cache. When the in-memory user has not been
// loaded yet it hydrates from the cached profile first; with no cache entry
// the call is a no-op.
func (s *State) UpdateUser(update ProfileUpdate) {
	if s.user == nil {
		var cached backend.User
		if !s.tokens.CachedProfile(&cached) {
			return
		}
		s.user = &cached
	}
	if update.Name != nil {
		s.user.Name = *update.Name
	}
	if update.Email != nil {
		s.user.Email = *update.Email
	}
	if update.Roles != nil {
		s.user.Roles = append([]string(nil), (*update.Roles)...)
	}
	s.tokens.CacheProfile(s.user)
}

func (s *State) becomeAuthenticated(u *backend.User) {
	s.user = u
	s.verified = true
	s.phase = PhaseAuthenticated
	s.lastErr = ""
	s.tokens.ClearAuthError()
	s.tokens.CacheProfile(u)
}

func (s *State) setError(err error) {
	s.lastErr = errMessage(err)
	s.tokens.SetAuthError(s.lastErr)
}

func (s *State) becomeAnonymous() {
	s.user = nil
	s.verified = false
	s.phase = PhaseAnonymous
}

func errMessage(err error) string {
	var apiErr *backend.Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return "Something went wrong. Please try again."
}
