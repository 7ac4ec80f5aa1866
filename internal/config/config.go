// Package config loads application configuration from the environment and an
// optional .env file using Viper.
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds everything the server needs to start. OAuth and directory
// endpoints point at the institutional auth server; defaults target the
// public instance so a local run only has to supply the client credentials
// and a JWT secret.
type Config struct {
	// Addr is the address the HTTP server listens on (e.g. :3000).
	Addr string `mapstructure:"ADDR"`
	// DBPath is the SQLite database file, or ":memory:" for an ephemeral DB.
	DBPath string `mapstructure:"DB_PATH"`
	// JWTSecret signs session tokens. Required, at least 16 characters.
	JWTSecret string `mapstructure:"JWT_SECRET"`

	// OAuthClientID / OAuthClientSecret identify this app to the auth server.
	OAuthClientID     string `mapstructure:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string `mapstructure:"OAUTH_CLIENT_SECRET"`
	// OAuthRedirectURL is the callback registered with the auth server.
	OAuthRedirectURL string `mapstructure:"OAUTH_REDIRECT_URL"`
	// OAuthAuthorizeURL and OAuthTokenURL are the provider's authorization
	// code flow endpoints; OAuthCheckTokenURL is its token introspection
	// endpoint, used to validate API keys.
	OAuthAuthorizeURL  string `mapstructure:"OAUTH_AUTHORIZE_URL"`
	OAuthTokenURL      string `mapstructure:"OAUTH_TOKEN_URL"`
	OAuthCheckTokenURL string `mapstructure:"OAUTH_CHECK_TOKEN_URL"`

	// DirectoryBaseURL is the user-directory API serving profile data.
	DirectoryBaseURL string `mapstructure:"DIRECTORY_BASE_URL"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env; a missing .env is ignored.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("ADDR", ":3000")
	v.SetDefault("DB_PATH", "lend-and-learn.db")
	v.SetDefault("OAUTH_REDIRECT_URL", "http://localhost:3000/auth/callback")
	v.SetDefault("OAUTH_AUTHORIZE_URL", "https://auth.fit.cvut.cz/oauth/authorize")
	v.SetDefault("OAUTH_TOKEN_URL", "https://auth.fit.cvut.cz/oauth/oauth/token")
	v.SetDefault("OAUTH_CHECK_TOKEN_URL", "https://auth.fit.cvut.cz/oauth/check_token")
	v.SetDefault("DIRECTORY_BASE_URL", "https://kosapi.fit.cvut.cz/usermap/v1")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("config: ADDR must be set")
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, errors.New("config: JWT_SECRET must be set and at least 16 characters")
	}
	if cfg.OAuthClientID == "" || cfg.OAuthClientSecret == "" {
		return nil, errors.New("config: OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET must be set")
	}

	return &cfg, nil
}
