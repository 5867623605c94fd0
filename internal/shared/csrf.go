package shared

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// CSRFFormField is the form field name carrying the CSRF token.
const CSRFFormField = "csrf_token"

// csrfTokenPurpose keys the MAC so a token can never double as any other
// HMAC this secret might sign.
const csrfTokenPurpose = "eventdesk-csrf:"

// CSRFManager derives per-session CSRF tokens. A token is the HMAC-SHA256
// of the session ID under the configured secret: verification recomputes it
// instead of round-tripping through the session store, and rotating the
// session ID invalidates every previously issued token at once.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager returns a CSRFManager keyed by the provided secret.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// EnsureToken returns the token bound to the session. The same session
// always yields the same token.
func (m *CSRFManager) EnsureToken(ctx context.Context, sess *Session) (string, error) {
	if sess == nil || sess.ID == "" {
		return "", errors.New("session missing")
	}
	return m.tokenFor(sess.ID), nil
}

// VerifyToken checks that token was issued for this session.
func (m *CSRFManager) VerifyToken(ctx context.Context, sess *Session, token string) error {
	if sess == nil || sess.ID == "" || token == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(m.tokenFor(sess.ID)), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) tokenFor(sessionID string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(csrfTokenPurpose))
	_, _ = mac.Write([]byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
