package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration of the model and its ops server.
// Tags use mapstructure for Viper unmarshalling.
type Config struct {
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDBName   string `mapstructure:"MONGO_DB_NAME"`
	UsersMongoURI string `mapstructure:"USERS_MONGO_URI"`
	UsersDBName   string `mapstructure:"USERS_DB_NAME"`

	SystemScopes  string        `mapstructure:"SYSTEM_SCOPES"`
	ScopeSource   string        `mapstructure:"SCOPE_SOURCE"` // static or mongo
	ScopeCacheTTL time.Duration `mapstructure:"SCOPE_CACHE_TTL"`

	PairedWrites string `mapstructure:"PAIRED_WRITES"` // best-effort or transactional

	TokenCache    string        `mapstructure:"TOKEN_CACHE"` // none, memory or redis
	TokenCacheTTL time.Duration `mapstructure:"TOKEN_CACHE_TTL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`

	AccessTokenLifetime       time.Duration `mapstructure:"ACCESS_TOKEN_LIFETIME"`
	RefreshTokenLifetime      time.Duration `mapstructure:"REFRESH_TOKEN_LIFETIME"`
	AuthorizationCodeLifetime time.Duration `mapstructure:"AUTHORIZATION_CODE_LIFETIME"`

	HTTPPort        string `mapstructure:"HTTP_PORT"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogPretty       bool   `mapstructure:"LOG_PRETTY"`
	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
	BcryptCost      int    `mapstructure:"BCRYPT_COST"`
}

var defaults = map[string]interface{}{
	"MONGO_URI":                   "mongodb://localhost:27017",
	"MONGO_DB_NAME":               "oauth",
	"USERS_MONGO_URI":             "",
	"USERS_DB_NAME":               "",
	"SYSTEM_SCOPES":               "profile admin",
	"SCOPE_SOURCE":                "static",
	"SCOPE_CACHE_TTL":             "1m",
	"PAIRED_WRITES":               "best-effort",
	"TOKEN_CACHE":                 "none",
	"TOKEN_CACHE_TTL":             "30s",
	"REDIS_ADDR":                  "localhost:6379",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"ACCESS_TOKEN_LIFETIME":       "30m",
	"REFRESH_TOKEN_LIFETIME":      "24h",
	"AUTHORIZATION_CODE_LIFETIME": "5m",
	"HTTP_PORT":                   "8080",
	"LOG_LEVEL":                   "info",
	"LOG_PRETTY":                  false,
	"OTEL_SERVICE_NAME":           "authmodel",
	"BCRYPT_COST":                 10,
}

// LoadConfig reads configuration from file, environment variables, and defaults.
// An explicit file replaces the search paths.
func LoadConfig(file ...string) (*Config, error) {
	v := viper.New()

	if len(file) > 0 && file[0] != "" {
		v.SetConfigFile(file[0])
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/authmodel/")
		v.AddConfigPath("$HOME/.authmodel")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file means defaults and env only.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if cfg.UsersMongoURI == "" {
		cfg.UsersMongoURI = cfg.MongoURI
	}
	if cfg.UsersDBName == "" {
		cfg.UsersDBName = cfg.MongoDBName
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.ScopeSource {
	case "static", "mongo":
	default:
		return fmt.Errorf("invalid SCOPE_SOURCE %q: want static or mongo", c.ScopeSource)
	}
	switch c.PairedWrites {
	case "best-effort", "transactional":
	default:
		return fmt.Errorf("invalid PAIRED_WRITES %q: want best-effort or transactional", c.PairedWrites)
	}
	switch c.TokenCache {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("invalid TOKEN_CACHE %q: want none, memory or redis", c.TokenCache)
	}
	if c.MongoURI == "" || c.MongoDBName == "" {
		return errors.New("MONGO_URI and MONGO_DB_NAME must be set")
	}
	return nil
}

// SystemScopeList returns SYSTEM_SCOPES split on whitespace.
func (c *Config) SystemScopeList() []string {
	return strings.Fields(c.SystemScopes)
}

// SeparateUserStore reports whether users live behind another connection.
func (c *Config) SeparateUserStore() bool {
	return c.UsersMongoURI != c.MongoURI
}
