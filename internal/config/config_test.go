package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ATLAS_AUTH_TOKEN_SECRET", "unit-test-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, "mongo", cfg.Database.Driver)
	require.Equal(t, "atlas", cfg.Database.Database)
	require.Equal(t, "accounts", cfg.Database.Collection)
	require.Equal(t, 240, cfg.Avatar.Size)
	require.Equal(t, int64(1_000_000), cfg.Avatar.MaxUploadBytes)
	require.True(t, cfg.Mail.Enabled)
	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, "unit-test-secret", cfg.Auth.TokenSecret)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ATLAS_AUTH_TOKEN_SECRET", "unit-test-secret")
	t.Setenv("ATLAS_DATABASE_DRIVER", "sqlite")
	t.Setenv("ATLAS_SERVER_PORT", "8080")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 8080, cfg.Server.Port)
	require.True(t, cfg.Database.IsEmbedded())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 4000
database:
  driver: sqlite
  path: ./test.db
auth:
  token_secret: file-secret
logging:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 4000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./test.db", cfg.Database.Path)
	require.Equal(t, "file-secret", cfg.Auth.TokenSecret)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	t.Setenv("ATLAS_AUTH_TOKEN_SECRET", "unit-test-secret")

	base := func(t *testing.T) *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing secret", func(c *Config) { c.Auth.TokenSecret = "" }, "auth.token_secret"},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, "database.driver"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"zero avatar size", func(c *Config) { c.Avatar.Size = 0 }, "avatar.size"},
		{"empty mongo uri", func(c *Config) { c.Database.URI = "" }, "database.uri"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
