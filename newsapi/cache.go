// Package newsapi provides authenticated access to the news API: a
// file-backed OAuth2 token cache shared across processes, a token
// provider that serves from cache, refreshes, or re-authenticates, and
// an HTTP client that retries exactly once on 401.
package newsapi

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultCacheFile is the token cache location when none is configured.
func DefaultCacheFile() string {
	return filepath.Join(os.TempDir(), "news_agent_token_cache.json")
}

// CacheEntry is the persisted token record. ExpiresAt already includes
// the safety margin subtracted from the provider-declared lifetime, so a
// Valid entry has real remaining lifetime at the moment it is used.
type CacheEntry struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Valid reports whether the entry holds a usable access token at t.
func (e CacheEntry) Valid(t time.Time) bool {
	return e.AccessToken != "" && !e.ExpiresAt.IsZero() && t.Before(e.ExpiresAt)
}

// TokenCache persists a single token record to a file. The record is the
// only cross-process shared mutable state in the system; writers do not
// lock it. Last write wins, which is safe because every write is a
// complete replacement and re-authentication is idempotent.
type TokenCache struct {
	path   string
	logger *slog.Logger
}

// NewTokenCache creates a cache backed by the given file path. An empty
// path selects the default location in the OS temp directory.
func NewTokenCache(path string, logger *slog.Logger) *TokenCache {
	if path == "" {
		path = DefaultCacheFile()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenCache{path: path, logger: logger}
}

// Load reads the cache from disk. It never fails: a missing or corrupt
// file yields an empty entry, and the anomaly is logged.
func (c *TokenCache) Load() CacheEntry {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("failed to load token cache", "path", c.path, "error", err)
		}
		return CacheEntry{}
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("corrupt token cache, ignoring", "path", c.path, "error", err)
		return CacheEntry{}
	}
	return entry
}

// Save writes the entry to disk. Failure is logged, not propagated:
// losing the cache degrades to re-authentication, not a hard failure.
func (c *TokenCache) Save(entry CacheEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("failed to marshal token cache", "error", err)
		return
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		c.logger.Warn("failed to save token cache", "path", c.path, "error", err)
		return
	}
	c.logger.Debug("token cache saved", "path", c.path)
}

// Clear deletes the persisted record. Best effort.
func (c *TokenCache) Clear() {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("failed to clear token cache", "path", c.path, "error", err)
		return
	}
	c.logger.Info("token cache cleared")
}
