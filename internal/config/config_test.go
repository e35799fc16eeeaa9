package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Empty(t, cfg.Data.RegionsFile)
	assert.Empty(t, cfg.Data.CacheDir)
	assert.Equal(t, 2*time.Minute, cfg.Data.FetchTimeout)
	assert.Equal(t, 8050, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 20.0, cfg.Server.RateLimitQPS, 0.001)
	assert.Equal(t, 40, cfg.Server.RateLimitBurst)
	assert.Equal(t, 1000, cfg.Server.MaxPages)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Empty(t, cfg.Store.DatabaseURL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
data:
  dir: /srv/rentrisk
  regions_file: regions.yaml
  regions: [nyc]
  cache_dir: /var/cache/rentrisk
  fetch_timeout: 45s
log:
  level: debug
  format: console
server:
  port: 9000
  cors_origins: ["http://localhost:3000"]
metrics:
  enabled: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/rentrisk", cfg.Data.Dir)
	assert.Equal(t, "regions.yaml", cfg.Data.RegionsFile)
	assert.Equal(t, []string{"nyc"}, cfg.Data.Regions)
	assert.Equal(t, "/var/cache/rentrisk", cfg.Data.CacheDir)
	assert.Equal(t, 45*time.Second, cfg.Data.FetchTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
data:
  dir: ./fixtures
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("RENTRISK_DATA_DIR", "/data")
	t.Setenv("RENTRISK_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "/data", cfg.Data.Dir)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("RENTRISK_SERVER_PORT", "3000")
	t.Setenv("RENTRISK_STORE_DATABASE_URL", "postgres://localhost/rentrisk")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/rentrisk", cfg.Store.DatabaseURL)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8050
	cfg.Server.RateLimitQPS = 20
	cfg.Server.RateLimitBurst = 40
	cfg.Server.MaxPages = 1000
	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"
	return cfg
}

func TestValidateServe_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_RateLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RateLimitBurst = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit_burst")

	cfg.Server.RateLimitQPS = 0
	assert.NoError(t, cfg.Validate("serve"), "burst is ignored when rate limiting is off")

	cfg.Server.RateLimitQPS = -1
	assert.Error(t, cfg.Validate("serve"))
}

func TestValidateServe_MetricsPath(t *testing.T) {
	cfg := validDefaults()
	cfg.Metrics.Path = "metrics"

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "metrics.path")

	cfg.Metrics.Enabled = false
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidatePublish_NoDB(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("publish")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/rentrisk"
	assert.NoError(t, cfg.Validate("publish"))
}

func TestValidateLoad(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate("load"))

	cfg := &Config{Data: DataConfig{FetchTimeout: -time.Second}}
	assert.ErrorContains(t, cfg.Validate("load"), "data.fetch_timeout")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
