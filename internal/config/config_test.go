package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ITIMEDIT_CONFIG", "")
	t.Setenv("ITIMEDIT_CONFIG_CONTENT", "")
	t.Setenv("ITIMEDIT_BACKEND_URL", "")
	t.Setenv("ITIMEDIT_AUTH_TOKEN", "")
	t.Setenv("ITIMEDIT_DATA_DIR", "")
	t.Setenv("ITIMEDIT_LOG_LEVEL", "")
	t.Setenv("ITIMEDIT_STATUS_PORT", "")
	t.Setenv("ITIMEDIT_HEARTBEAT_SECONDS", "")
}

func TestLoadEmptyDirectory(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.BackendURL)
	assert.True(t, cfg.StatusEnabled())
}

func TestLoadJSONCWithComments(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	content := `{
	// sync backend
	"backendURL": "wss://track.example.com",
	"logLevel": "debug", // verbose while debugging
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "itimedit.jsonc"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "wss://track.example.com", cfg.BackendURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadYAML(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	content := `backendURL: wss://track.example.com
heartbeat:
  intervalSeconds: 45
retry:
  maxRetries: 5
  baseDelayMS: 500
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "itimedit.yaml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "wss://track.example.com", cfg.BackendURL)
	require.NotNil(t, cfg.Heartbeat)
	assert.Equal(t, 45*time.Second, cfg.Heartbeat.Interval())
	require.NotNil(t, cfg.Retry)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 500, cfg.Retry.BaseDelayMS)
}

func TestEnvOverridesWinOverFiles(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	content := `{"backendURL": "wss://from-file.example.com", "logLevel": "info"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "itimedit.json"), []byte(content), 0644))

	t.Setenv("ITIMEDIT_BACKEND_URL", "wss://from-env.example.com")
	t.Setenv("ITIMEDIT_STATUS_PORT", "9999")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "wss://from-env.example.com", cfg.BackendURL)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NotNil(t, cfg.Status)
	assert.Equal(t, 9999, cfg.Status.Port)
}

func TestDotEnvFileIsLoaded(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("ITIMEDIT_AUTH_TOKEN=tok-from-dotenv\n"), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "tok-from-dotenv", cfg.AuthToken)
}

func TestConfigContentInline(t *testing.T) {
	isolateEnv(t)

	t.Setenv("ITIMEDIT_CONFIG_CONTENT", `{"logLevel": "warn"}`)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestConfigFileOverride(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dataDir": "/srv/itimedit"}`), 0644))
	t.Setenv("ITIMEDIT_CONFIG", path)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/srv/itimedit", cfg.DataDir)
}

func TestInterpolation(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	t.Setenv("TRACK_TOKEN", "env-token")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token.txt"), []byte("file-url\n"), 0644))

	content := `{"authToken": "{env:TRACK_TOKEN}", "backendURL": "{file:token.txt}"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "itimedit.json"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.AuthToken)
	assert.Equal(t, "file-url", cfg.BackendURL)
}

func TestSaveRoundTrip(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	enabled := false
	in := &types.Config{
		BackendURL: "wss://track.example.com",
		Status:     &types.StatusConfig{Enabled: &enabled, Port: 7111},
	}
	path := filepath.Join(dir, "itimedit.json")
	require.NoError(t, Save(in, path))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, in.BackendURL, cfg.BackendURL)
	assert.False(t, cfg.StatusEnabled())
}

func TestStatusEnabledDefaultsOn(t *testing.T) {
	cfg := &types.Config{}
	assert.True(t, cfg.StatusEnabled())

	on := true
	cfg.Status = &types.StatusConfig{Enabled: &on}
	assert.True(t, cfg.StatusEnabled())
}
