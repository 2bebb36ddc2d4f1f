package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the news API host.
	DefaultBaseURL = "https://api.refinitiv.com"

	tokenPath = "/auth/oauth2/v1/token"

	// tokenSafetyMargin is subtracted from the provider-declared token
	// lifetime so a token reported valid by the cache still has real
	// remaining lifetime when it is used.
	tokenSafetyMargin = 300 * time.Second

	// defaultExpiresIn is assumed when the token response omits
	// expires_in or carries an unparsable value.
	defaultExpiresIn = 3600

	// authTimeout bounds every outbound auth call.
	authTimeout = 30 * time.Second
)

// ErrCredentialsMissing reports that one or more of the three required
// credentials (username, password, client id) is absent. It makes
// misconfiguration distinguishable from a transient auth failure.
var ErrCredentialsMissing = errors.New("news API credentials not configured")

// Credentials are the password-grant inputs, sourced from the environment.
type Credentials struct {
	Username string
	Password string
	ClientID string
}

// Complete reports whether all three credentials are present.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != "" && c.ClientID != ""
}

// Missing lists the absent credential names for error reporting.
func (c Credentials) Missing() []string {
	var missing []string
	if c.Username == "" {
		missing = append(missing, "RDP_USERNAME")
	}
	if c.Password == "" {
		missing = append(missing, "RDP_PASSWORD")
	}
	if c.ClientID == "" {
		missing = append(missing, "RDP_CLIENT_ID")
	}
	return missing
}

// AuthProvider obtains valid bearer tokens. It is the single source of
// truth for token usability: serve from cache if unexpired, else refresh,
// else re-authenticate with the password grant.
type AuthProvider struct {
	baseURL     string
	credentials Credentials
	cache       *TokenCache
	httpClient  *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

// NewAuthProvider creates a provider for the given endpoint and credentials.
func NewAuthProvider(baseURL string, creds Credentials, cache *TokenCache, logger *slog.Logger) *AuthProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthProvider{
		baseURL:     strings.TrimRight(baseURL, "/"),
		credentials: creds,
		cache:       cache,
		httpClient:  &http.Client{Timeout: authTimeout},
		logger:      logger,
		now:         time.Now,
	}
}

// Token returns a valid access token, going to the network only when the
// cache cannot serve one. Refresh failures fall through silently to full
// re-authentication; only the final password-grant failure is surfaced.
func (p *AuthProvider) Token(ctx context.Context) (string, error) {
	entry := p.cache.Load()

	if entry.Valid(p.now()) {
		p.logger.Debug("using cached auth token")
		return entry.AccessToken, nil
	}

	if entry.RefreshToken != "" {
		if token, err := p.refresh(ctx, entry.RefreshToken); err == nil {
			return token, nil
		} else {
			p.logger.Info("token refresh failed, falling back to password grant", "error", err)
		}
	}

	return p.authenticate(ctx)
}

// Invalidate clears the cached token so the next Token call re-resolves
// through refresh or full authentication.
func (p *AuthProvider) Invalidate() {
	p.cache.Clear()
}

// TokenInfo describes the cached token state for startup diagnostics.
type TokenInfo struct {
	HasAccessToken  bool   `json:"has_access_token"`
	HasRefreshToken bool   `json:"has_refresh_token"`
	ExpiresAt       string `json:"expires_at,omitempty"`
	IsValid         bool   `json:"is_valid"`
}

// Info reports the current cache state without side effects.
func (p *AuthProvider) Info() TokenInfo {
	entry := p.cache.Load()
	info := TokenInfo{
		HasAccessToken:  entry.AccessToken != "",
		HasRefreshToken: entry.RefreshToken != "",
		IsValid:         entry.Valid(p.now()),
	}
	if !entry.ExpiresAt.IsZero() {
		info.ExpiresAt = entry.ExpiresAt.Format(time.RFC3339)
	}
	return info
}

// authenticate performs the full password grant. It requires all three
// credentials; absence is reported as ErrCredentialsMissing without any
// network call.
func (p *AuthProvider) authenticate(ctx context.Context) (string, error) {
	if !p.credentials.Complete() {
		return "", fmt.Errorf("%w: missing %s", ErrCredentialsMissing,
			strings.Join(p.credentials.Missing(), ", "))
	}

	p.logger.Info("fetching new auth token")

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", p.credentials.Username)
	form.Set("password", p.credentials.Password)
	form.Set("client_id", p.credentials.ClientID)
	form.Set("scope", "trapi")
	form.Set("takeExclusiveSignOnControl", "true")

	entry, err := p.requestToken(ctx, form)
	if err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}

	p.cache.Save(entry)
	p.logger.Info("auth token cached", "expires_at", entry.ExpiresAt.Format(time.RFC3339))
	return entry.AccessToken, nil
}

// refresh exchanges a refresh token for a new token pair. The caller
// treats any error as a fallback trigger, never as a terminal failure.
func (p *AuthProvider) refresh(ctx context.Context, refreshToken string) (string, error) {
	p.logger.Info("attempting to refresh auth token")

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("username", p.credentials.Username)
	form.Set("client_id", p.credentials.ClientID)
	form.Set("refresh_token", refreshToken)

	entry, err := p.requestToken(ctx, form)
	if err != nil {
		return "", err
	}

	// The refresh response may omit a new refresh token; keep the old one.
	if entry.RefreshToken == "" {
		entry.RefreshToken = refreshToken
	}

	p.cache.Save(entry)
	p.logger.Info("token refreshed")
	return entry.AccessToken, nil
}

// requestToken posts a grant to the token endpoint and normalizes the
// response into a cache entry with the safety margin applied.
func (p *AuthProvider) requestToken(ctx context.Context, form url.Values) (CacheEntry, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return CacheEntry{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return CacheEntry{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CacheEntry{}, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return CacheEntry{}, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken  string          `json:"access_token"`
		RefreshToken string          `json:"refresh_token"`
		ExpiresIn    json.RawMessage `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return CacheEntry{}, fmt.Errorf("failed to parse token response: %w", err)
	}
	if payload.AccessToken == "" {
		return CacheEntry{}, fmt.Errorf("token response missing access_token")
	}

	expiresIn := parseExpiresIn(payload.ExpiresIn, p.logger)

	return CacheEntry{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    p.now().Add(time.Duration(expiresIn)*time.Second - tokenSafetyMargin),
	}, nil
}

// parseExpiresIn coerces expires_in to integer seconds. The provider has
// been observed to send both numbers and strings; anything unparsable
// falls back to the default lifetime.
func parseExpiresIn(raw json.RawMessage, logger *slog.Logger) int {
	if len(raw) == 0 {
		return defaultExpiresIn
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Int64(); err == nil {
			return int(v)
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}

	logger.Warn("invalid expires_in value, using default", "value", string(raw), "default", defaultExpiresIn)
	return defaultExpiresIn
}
