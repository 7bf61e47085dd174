package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	BaseURL       string `mapstructure:"base_url"`
	APIPrefix     string `mapstructure:"api_prefix"`
	HeadersFile   string `mapstructure:"headers_file"`
	StrictMethods bool   `mapstructure:"strict_methods"`
	DebugCurl     bool   `mapstructure:"debug_curl"`

	FetchMode      string `mapstructure:"fetch_mode"`
	Credentials    string `mapstructure:"credentials"`
	ReferrerPolicy string `mapstructure:"referrer_policy"`
	Origin         string `mapstructure:"origin"`
	Referrer       string `mapstructure:"referrer"`

	TokenStoreType       string        `mapstructure:"token_store_type"`
	TokenStorePath       string        `mapstructure:"token_store_path"`
	TokenTTLSeconds      int64         `mapstructure:"token_ttl_seconds"`
	TokenCleanupSeconds  int64         `mapstructure:"token_cleanup_interval_seconds"`
	TokenTTL             time.Duration `mapstructure:"-"`
	TokenCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "loginprojekt-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("base_url", "http://localhost:6060")
	v.SetDefault("api_prefix", "/api/v1/")
	v.SetDefault("headers_file", "")
	v.SetDefault("strict_methods", false)
	v.SetDefault("debug_curl", false)
	v.SetDefault("fetch_mode", "cors")
	v.SetDefault("credentials", "omit")
	v.SetDefault("referrer_policy", "strict-origin-when-cross-origin")
	v.SetDefault("origin", "http://localhost:8080")
	v.SetDefault("referrer", "http://localhost:8080/")
	v.SetDefault("token_store_type", "bbolt")
	v.SetDefault("token_store_path", "./data/tokens.db")
	v.SetDefault("token_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("token_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("invalid base_url (must not be empty)")
	}
	if cfg.TokenTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid token_ttl_seconds (must be positive seconds)")
	}
	if cfg.TokenCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid token_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.TokenTTL = time.Duration(cfg.TokenTTLSeconds) * time.Second
	cfg.TokenCleanupInterval = time.Duration(cfg.TokenCleanupSeconds) * time.Second

	return &cfg, nil
}
