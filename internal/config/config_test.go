package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "explicit missing file must fail")

	cfg, err = Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:4444", cfg.Server.Addr())
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.True(t, cfg.Audit.Enabled)
	assert.True(t, cfg.Audit.DropIfFull)
	assert.Equal(t, "file", cfg.Export.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 5555
session:
  store: memory
  ttl: 2m
audit:
  enabled: false
logging:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5555", cfg.Server.Addr())
	assert.Equal(t, 2*time.Minute, cfg.Session.TTL)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WARDEN_SERVER_PORT", "6666")
	t.Setenv("WARDEN_SESSION_STORE", "redis")
	t.Setenv("WARDEN_REDIS_HOST", "redis.internal")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6666, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad store", func(c *Config) { c.Session.Store = "dynamo" }, "session.store"},
		{"bad ttl", func(c *Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"redis store without host", func(c *Config) {
			c.Session.Store = "redis"
			c.Redis.Host = ""
		}, "redis.host"},
		{"audit without path", func(c *Config) { c.Audit.Path = "" }, "audit.path"},
		{"bad export backend", func(c *Config) { c.Export.Backend = "ftp" }, "export.backend"},
		{"s3 without bucket", func(c *Config) { c.Export.Backend = "s3" }, "export.s3.bucket"},
		{"short encryption key", func(c *Config) { c.Export.EncryptionKey = "abcd" }, "encryption_key"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	})
}
