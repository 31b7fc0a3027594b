// internal/config/config.go
package config

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// DefaultNewReposActive is the policy applied to newly discovered
// repositories: they are inserted inactive so an operator reviews and
// deliberately activates them before they are exposed elsewhere. Override
// with NEW_REPOS_ACTIVE=true.
const DefaultNewReposActive = false

// Config holds all configuration for the application.
type Config struct {
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr       string        `mapstructure:"HTTP_ADDR"`
	DBURL          string        `mapstructure:"DB_URL"`
	GithubToken    string        `mapstructure:"GITHUB_TOKEN"`
	GithubAPIURL   string        `mapstructure:"GITHUB_API_URL"`
	SyncScope      string        `mapstructure:"SYNC_SCOPE"`
	SyncInterval   time.Duration `mapstructure:"SYNC_INTERVAL"`
	CacheDir       string        `mapstructure:"CACHE_DIR"`
	CacheTTL       time.Duration `mapstructure:"CACHE_TTL"`
	NewReposActive bool          `mapstructure:"NEW_REPOS_ACTIVE"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("GITHUB_API_URL", "https://api.github.com")
	viper.SetDefault("SYNC_INTERVAL", "1h")
	viper.SetDefault("CACHE_DIR", filepath.Join(xdg.CacheHome, "github-catalog-sync"))
	viper.SetDefault("CACHE_TTL", "15m")
	viper.SetDefault("NEW_REPOS_ACTIVE", DefaultNewReposActive)

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields. The GitHub token is deliberately optional:
	// unauthenticated calls work against a much lower rate limit.
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.SyncScope == "" {
		return nil, errors.New("SYNC_SCOPE is a required configuration field")
	}
	if cfg.CacheTTL <= 0 {
		return nil, errors.New("CACHE_TTL must be a positive duration")
	}

	return &cfg, nil
}
