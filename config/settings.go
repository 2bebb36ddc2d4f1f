package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/nvaldez/news-agent-go/newsapi"
)

// Settings holds the resolved runtime configuration for the gateway.
type Settings struct {
	Addr           string
	Provider       string
	Model          string
	NewsBaseURL    string
	TokenCachePath string
	Credentials    newsapi.Credentials
}

// LoadSettings resolves settings from the environment with defaults.
// Credentials may be incomplete; the auth layer reports that at use time.
func LoadSettings() *Settings {
	v := viper.New()

	v.SetDefault("addr", "127.0.0.1:8000")
	v.SetDefault("provider", "openai")
	v.SetDefault("news_base_url", newsapi.DefaultBaseURL)

	v.MustBindEnv("addr", "NEWS_AGENT_ADDR")
	v.MustBindEnv("provider", "NEWS_AGENT_PROVIDER")
	v.MustBindEnv("model", "NEWS_AGENT_MODEL")
	v.MustBindEnv("news_base_url", "NEWS_BASE_URL")
	v.MustBindEnv("token_cache_path", "NEWS_TOKEN_CACHE")
	v.MustBindEnv("rdp_username", "RDP_USERNAME")
	v.MustBindEnv("rdp_password", "RDP_PASSWORD")
	v.MustBindEnv("rdp_client_id", "RDP_CLIENT_ID")

	cachePath := v.GetString("token_cache_path")
	if cachePath == "" {
		cachePath = newsapi.DefaultCacheFile()
	}

	return &Settings{
		Addr:           v.GetString("addr"),
		Provider:       strings.ToLower(v.GetString("provider")),
		Model:          v.GetString("model"),
		NewsBaseURL:    v.GetString("news_base_url"),
		TokenCachePath: cachePath,
		Credentials: newsapi.Credentials{
			Username: v.GetString("rdp_username"),
			Password: v.GetString("rdp_password"),
			ClientID: v.GetString("rdp_client_id"),
		},
	}
}
