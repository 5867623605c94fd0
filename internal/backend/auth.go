package backend

import "context"

// Credentials is the body for POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body for POST /auth/signup. Signup creates a pending
// registration; it does not authenticate.
type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// SignupResponse carries the registration identifier consumed by the
// verification step.
type SignupResponse struct {
	RegistrationID string `json:"registrationId"`
}

// VerifyEmailRequest is the body for POST /auth/verify-email.
type VerifyEmailRequest struct {
	Code           string `json:"code"`
	RegistrationID string `json:"registrationId"`
}

// AuthResponse is the credential-exchange result: a bearer token plus the
// fresh user record.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login exchanges credentials for a token and user.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, "POST", "/api/v1/auth/login", nil, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup creates a pending registration.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	var out SignupResponse
	if err := c.do(ctx, "POST", "/api/v1/auth/signup", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEmail completes a registration, exchanging the code for an
// authenticated session.
func (c *Client) VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, "POST", "/api/v1/auth/verify-email", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshToken rotates an expiring token. The old token authenticates the
// call.
func (c *Client) RefreshToken(ctx context.Context, ts TokenSource) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, "POST", "/api/v1/auth/refresh-token", ts, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the session server side. Best effort; callers clear
// local state regardless of the outcome.
func (c *Client) Logout(ctx context.Context, ts TokenSource) error {
	return c.do(ctx, "POST", "/api/v1/auth/logout", ts, nil, nil)
}

// CurrentUser validates the token and returns the fresh user record.
func (c *Client) CurrentUser(ctx context.Context, ts TokenSource) (*User, error) {
	var out User
	if err := c.do(ctx, "GET", "/api/v1/auth/me", ts, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProfileUpdateRequest carries the self-service profile fields. Role and
// activation changes go through the admin endpoints instead.
type ProfileUpdateRequest struct {
	Name string `json:"name"`
}

// UpdateProfile updates the signed-in user's own profile and returns the
// stored record.
func (c *Client) UpdateProfile(ctx context.Context, ts TokenSource, req ProfileUpdateRequest) (*User, error) {
	var out User
	if err := c.do(ctx, "PUT", "/api/v1/auth/profile", ts, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
