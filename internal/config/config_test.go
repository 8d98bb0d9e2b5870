package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 30, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, 60, cfg.Backend.UploadTimeoutSeconds)
	assert.Equal(t, 3, cfg.Chat.RecommendationCount)
	assert.Equal(t, 640736, cfg.Chat.StatsFallback)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "pretty", cfg.Logging.ConsoleStyle)
}

func TestDurations(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout())
	assert.Equal(t, 60*time.Second, cfg.Backend.UploadTimeout())
	assert.Equal(t, 10*time.Minute, cfg.Chat.StatsCacheTTL())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	// Should return defaults
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
backend:
  baseUrl: https://search.example.jp/api
  timeoutSeconds: 20
  uploadTimeoutSeconds: 90
chat:
  recommendationCount: 5
logging:
  level: debug
  consoleStyle: json
  file: /tmp/sumai.log
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://search.example.jp/api", cfg.Backend.BaseURL)
	assert.Equal(t, 20, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, 90, cfg.Backend.UploadTimeoutSeconds)
	assert.Equal(t, 5, cfg.Chat.RecommendationCount)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)
	assert.Equal(t, "/tmp/sumai.log", cfg.Logging.File)

	// unspecified fields keep their defaults
	assert.Equal(t, 640736, cfg.Chat.StatsFallback)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SUMAI_BACKEND_URL", "http://10.0.0.5:8000/")
	t.Setenv("SUMAI_RECOMMENDATION_COUNT", "7")
	t.Setenv("SUMAI_LOG_LEVEL", "TRACE")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 7, cfg.Chat.RecommendationCount)
	assert.Equal(t, "trace", cfg.Logging.Level)
}

func TestLoadExpandsToken(t *testing.T) {
	t.Setenv("SUMAI_TEST_TOKEN", "s3cret")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  token: ${SUMAI_TEST_TOKEN}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Backend.Token)
}

func TestExpandEnvVarsLeavesUnset(t *testing.T) {
	assert.Equal(t, "${SUMAI_DEFINITELY_UNSET}", expandEnvVars("${SUMAI_DEFINITELY_UNSET}"))
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := map[string]any{
		"chat": map[string]any{
			"recommendationCount": 4,
		},
	}

	require.NoError(t, SaveRaw(path, raw))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"chat": map[string]any{"recommendationCount": 4}}, loaded)
}

func TestLoadRawMissingFile(t *testing.T) {
	raw, err := LoadRaw(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SUMAI_BACKEND_URL", "")
	require.NoError(t, os.Unsetenv("SUMAI_BACKEND_URL"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SUMAI_BACKEND_URL=http://dotenv.test/\n"), 0o600))

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv.test", cfg.Backend.BaseURL)
}

func TestLoadMalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BAD-KEY=1\n"), 0o600))

	_, err := Load(filepath.Join(dir, "config.yaml"))
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), ".env")
}
