// Package token owns the backend bearer credential and the cached profile
// that sit in session storage. It is the single authoritative copy of the
// token; everything else reads it transiently through Manager.
package token

import "encoding/json"

const (
	tokenKey   = "auth_token"
	profileKey = "auth_profile"
	errorKey   = "auth_error"
)

// Store is the minimal key-value surface the manager persists through. A
// *shared.Session satisfies it.
type Store interface {
	Get(key string) string
	Set(key, value string)
	Delete(key string)
}

// Manager reads and writes the bearer token and the serialized profile
// cache. Storage failures never propagate: a store that panics or drops a
// write degrades to "token absent" on the next read, it does not crash the
// caller.
type Manager struct {
	store Store
}

// NewManager binds a Manager to a session store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Get returns the current token, with ok=false when none is present. It
// never fails.
func (m *Manager) Get() (string, bool) {
	if m == nil || m.store == nil {
		return "", false
	}
	t := safeGet(m.store, tokenKey)
	return t, t != ""
}

// Set persists the token, overwriting any prior value.
func (m *Manager) Set(token string) {
	if m == nil || m.store == nil {
		return
	}
	safeSet(m.store, tokenKey, token)
}

// Remove clears the token and the cached profile together. Idempotent.
func (m *Manager) Remove() {
	if m == nil || m.store == nil {
		return
	}
	safeDelete(m.store, tokenKey)
	safeDelete(m.store, profileKey)
}

// AuthHeader derives the Authorization header value for the current token,
// or "" when no token is present. Pure derivation, no side effect.
func (m *Manager) AuthHeader() string {
	t, ok := m.Get()
	if !ok {
		return ""
	}
	return "Bearer " + t
}

// CacheProfile serializes v into the profile cache entry next to the token.
func (m *Manager) CacheProfile(v any) {
	if m == nil || m.store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	safeSet(m.store, profileKey, string(data))
}

// CachedProfile unmarshals the profile cache entry into v, reporting whether
// a usable entry was present.
func (m *Manager) CachedProfile(v any) bool {
	if m == nil || m.store == nil {
		return false
	}
	raw := safeGet(m.store, profileKey)
	if raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), v) == nil
}

// ClearProfile drops the cached profile while keeping the token.
func (m *Manager) ClearProfile() {
	if m == nil || m.store == nil {
		return
	}
	safeDelete(m.store, profileKey)
}

// SetAuthError persists the shared auth error message. It survives until a
// page render consumes it or a successful sign-in clears it.
func (m *Manager) SetAuthError(msg string) {
	if m == nil || m.store == nil || msg == "" {
		return
	}
	safeSet(m.store, errorKey, msg)
}

// AuthError returns the pending auth error message, "" when none.
func (m *Manager) AuthError() string {
	if m == nil || m.store == nil {
		return ""
	}
	return safeGet(m.store, errorKey)
}

// ClearAuthError drops the pending auth error. Idempotent.
func (m *Manager) ClearAuthError() {
	if m == nil || m.store == nil {
		return
	}
	safeDelete(m.store, errorKey)
}

func safeGet(s Store, key string) (value string) {
	defer func() { _ = recover() }()
	return s.Get(key)
}

func safeSet(s Store, key, value string) {
	defer func() { _ = recover() }()
	s.Set(key, value)
}

func safeDelete(s Store, key string) {
	defer func() { _ = recover() }()
	s.Delete(key)
}
