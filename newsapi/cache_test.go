package newsapi

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testCache(t *testing.T) *TokenCache {
	t.Helper()
	return NewTokenCache(filepath.Join(t.TempDir(), "token_cache.json"), nil)
}

func TestTokenCache_RoundTrip(t *testing.T) {
	cache := testCache(t)

	entry := CacheEntry{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}
	cache.Save(entry)

	loaded := cache.Load()
	if loaded.AccessToken != entry.AccessToken {
		t.Fatalf("expected access token %q, got %q", entry.AccessToken, loaded.AccessToken)
	}
	if loaded.RefreshToken != entry.RefreshToken {
		t.Fatalf("expected refresh token %q, got %q", entry.RefreshToken, loaded.RefreshToken)
	}
	if !loaded.ExpiresAt.Equal(entry.ExpiresAt) {
		t.Fatalf("expected expiry %v, got %v", entry.ExpiresAt, loaded.ExpiresAt)
	}
}

func TestTokenCache_MissingFileYieldsEmptyEntry(t *testing.T) {
	cache := testCache(t)

	entry := cache.Load()
	if entry.AccessToken != "" || entry.RefreshToken != "" || !entry.ExpiresAt.IsZero() {
		t.Fatalf("expected empty entry for missing file, got %+v", entry)
	}
}

func TestTokenCache_CorruptFileYieldsEmptyEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("failed to write corrupt cache: %v", err)
	}

	cache := NewTokenCache(path, nil)
	entry := cache.Load()
	if entry.AccessToken != "" {
		t.Fatalf("expected empty entry for corrupt file, got %+v", entry)
	}
}

func TestTokenCache_Clear(t *testing.T) {
	cache := testCache(t)
	cache.Save(CacheEntry{AccessToken: "access"})
	cache.Clear()

	if entry := cache.Load(); entry.AccessToken != "" {
		t.Fatalf("expected empty entry after clear, got %+v", entry)
	}

	// Clearing an already-missing file must not panic or log fatally.
	cache.Clear()
}

func TestCacheEntry_Valid(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name  string
		entry CacheEntry
		want  bool
	}{
		{"valid", CacheEntry{AccessToken: "a", ExpiresAt: now.Add(time.Minute)}, true},
		{"expired", CacheEntry{AccessToken: "a", ExpiresAt: now.Add(-time.Minute)}, false},
		{"no token", CacheEntry{ExpiresAt: now.Add(time.Minute)}, false},
		{"no expiry", CacheEntry{AccessToken: "a"}, false},
		{"empty", CacheEntry{}, false},
	}

	for _, tc := range cases {
		if got := tc.entry.Valid(now); got != tc.want {
			t.Fatalf("%s: expected Valid=%v, got %v", tc.name, tc.want, got)
		}
	}
}
