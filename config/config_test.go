package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "oauth", cfg.MongoDBName)
	assert.Equal(t, cfg.MongoURI, cfg.UsersMongoURI)
	assert.Equal(t, cfg.MongoDBName, cfg.UsersDBName)
	assert.False(t, cfg.SeparateUserStore())
	assert.Equal(t, []string{"profile", "admin"}, cfg.SystemScopeList())
	assert.Equal(t, time.Minute, cfg.ScopeCacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenLifetime)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenLifetime)
	assert.Equal(t, 5*time.Minute, cfg.AuthorizationCodeLifetime)
	assert.Equal(t, 30*time.Second, cfg.TokenCacheTTL)
	assert.Equal(t, "best-effort", cfg.PairedWrites)
	assert.Equal(t, "none", cfg.TokenCache)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("USERS_MONGO_URI", "mongodb://users:27017")
	t.Setenv("USERS_DB_NAME", "people")
	t.Setenv("SYSTEM_SCOPES", "profile  email\tadmin")
	t.Setenv("TOKEN_CACHE", "redis")
	t.Setenv("ACCESS_TOKEN_LIFETIME", "15m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.SeparateUserStore())
	assert.Equal(t, "people", cfg.UsersDBName)
	assert.Equal(t, []string{"profile", "email", "admin"}, cfg.SystemScopeList())
	assert.Equal(t, "redis", cfg.TokenCache)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenLifetime)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("PAIRED_WRITES", "sometimes")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "PAIRED_WRITES")
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authmodel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("MONGO_DB_NAME: oauth_test\nSCOPE_SOURCE: mongo\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "oauth_test", cfg.MongoDBName)
	assert.Equal(t, "oauth_test", cfg.UsersDBName)
	assert.Equal(t, "mongo", cfg.ScopeSource)
}
