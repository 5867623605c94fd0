package shared

import "errors"

var (
	// ErrCSRFTokenMissing occurs when a mutating request carries no CSRF
	// token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when the supplied CSRF token was not
	// issued for this session.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage collapses internal errors to text that can be rendered on
// a page, so transport details never leak into HTML. Callers that have a
// backend-provided message surface it themselves and only fall back here.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	return "Something went wrong. Please try again."
}
