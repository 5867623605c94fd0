package token

import "testing"

type mapStore struct {
	values map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{values: make(map[string]string)}
}

func (s *mapStore) Get(key string) string { return s.values[key] }
func (s *mapStore) Set(key, value string) { s.values[key] = value }
func (s *mapStore) Delete(key string)     { delete(s.values, key) }

type brokenStore struct{}

func (brokenStore) Get(key string) string { panic("storage unavailable") }
func (brokenStore) Set(key, value string) { panic("storage unavailable") }
func (brokenStore) Delete(key string)     { panic("storage unavailable") }

func TestRoundTrip(t *testing.T) {
	m := NewManager(newMapStore())

	if _, ok := m.Get(); ok {
		t.Fatal("fresh store must report no token")
	}

	m.Set("tok-123")
	got, ok := m.Get()
	if !ok || got != "tok-123" {
		t.Fatalf("Get() = %q, %v after Set", got, ok)
	}

	m.Set("tok-456")
	if got, _ := m.Get(); got != "tok-456" {
		t.Fatalf("Set must overwrite, got %q", got)
	}

	m.Remove()
	if _, ok := m.Get(); ok {
		t.Fatal("token present after Remove")
	}
	// Remove is idempotent.
	m.Remove()
	if _, ok := m.Get(); ok {
		t.Fatal("token present after second Remove")
	}
}

func TestAuthHeader(t *testing.T) {
	m := NewManager(newMapStore())

	if h := m.AuthHeader(); h != "" {
		t.Fatalf("AuthHeader() = %q without token", h)
	}

	m.Set("abc")
	if h := m.AuthHeader(); h != "Bearer abc" {
		t.Fatalf("AuthHeader() = %q, want Bearer abc", h)
	}

	m.Remove()
	if h := m.AuthHeader(); h != "" {
		t.Fatalf("AuthHeader() = %q after Remove", h)
	}
}

func TestProfileCacheClearedWithToken(t *testing.T) {
	type profile struct {
		Name string `json:"name"`
	}

	m := NewManager(newMapStore())
	m.Set("tok")
	m.CacheProfile(profile{Name: "Ada"})

	var got profile
	if !m.CachedProfile(&got) || got.Name != "Ada" {
		t.Fatalf("CachedProfile = %+v", got)
	}

	m.Remove()
	if m.CachedProfile(&got) {
		t.Fatal("profile cache must be cleared together with the token")
	}
}

func TestAuthErrorSlot(t *testing.T) {
	m := NewManager(newMapStore())

	if got := m.AuthError(); got != "" {
		t.Fatalf("fresh store error slot = %q, want empty", got)
	}

	m.SetAuthError("invalid credentials")
	if got := m.AuthError(); got != "invalid credentials" {
		t.Fatalf("AuthError() = %q after Set", got)
	}

	// An empty message must not erase a pending one.
	m.SetAuthError("")
	if got := m.AuthError(); got != "invalid credentials" {
		t.Fatalf("AuthError() = %q, empty Set must be ignored", got)
	}

	m.ClearAuthError()
	if got := m.AuthError(); got != "" {
		t.Fatalf("AuthError() = %q after Clear", got)
	}
	m.ClearAuthError()

	// The slot survives Remove: the expiry message outlives the token.
	m.Set("tok-1")
	m.SetAuthError("session expired")
	m.Remove()
	if got := m.AuthError(); got != "session expired" {
		t.Fatalf("AuthError() = %q, want the message after Remove", got)
	}
}

func TestStorageFailuresSwallowed(t *testing.T) {
	m := NewManager(brokenStore{})

	// None of these may panic; reads degrade to "token absent".
	m.Set("tok")
	if _, ok := m.Get(); ok {
		t.Fatal("broken store must read as absent")
	}
	if h := m.AuthHeader(); h != "" {
		t.Fatalf("AuthHeader() = %q on broken store", h)
	}
	m.Remove()
	m.CacheProfile(struct{}{})
	var out struct{}
	if m.CachedProfile(&out) {
		t.Fatal("broken store must report no cached profile")
	}
}

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager
	if _, ok := m.Get(); ok {
		t.Fatal("nil manager must report no token")
	}
	m.Set("tok")
	m.Remove()
	if h := m.AuthHeader(); h != "" {
		t.Fatalf("AuthHeader() = %q on nil manager", h)
	}
}
