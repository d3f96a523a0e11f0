package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, Duration(5*time.Second), cfg.Backend.Timeout)
	assert.Equal(t, domain.WithDefaultsExplicit, cfg.Mode())
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "np2.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
redis:
  addr: redis:6380
  db: 2
backend:
  timeout: 750ms
schema: [a.yaml, b.yaml]
with_defaults: report-all-tagged
http:
  rate: 0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "np2:", cfg.Redis.Prefix, "unset keys keep their default")
	assert.Equal(t, Duration(750*time.Millisecond), cfg.Backend.Timeout)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, cfg.Schema)
	assert.Equal(t, domain.WithDefaultsReportAllTagged, cfg.Mode())
	assert.Zero(t, cfg.HTTP.Rate)
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "np2.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend":{"timeout":"2s"},"log":{"level":"debug"}}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Duration(2*time.Second), cfg.Backend.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("with_defaults: sometimes\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "unknown with-defaults mode")

	require.NoError(t, os.WriteFile(path, []byte("backend: {timeout: soon}\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "invalid duration")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvRedisAddr:    "10.0.0.1:6379",
		EnvRedisDB:      "3",
		EnvTimeout:      "1m",
		EnvSchema:       "x.yaml, y.yaml,",
		EnvWithDefaults: "trim",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, "10.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, Duration(time.Minute), cfg.Backend.Timeout)
	assert.Equal(t, []string{"x.yaml", "y.yaml"}, cfg.Schema)
	assert.Equal(t, domain.WithDefaultsTrim, cfg.Mode())

	env[EnvRedisDB] = "two"
	assert.Error(t, cfg.applyEnv(lookup))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "np2.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: {level: warn}\n"), 0o644))
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}
