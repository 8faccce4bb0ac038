package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, InfoLevel, cfg.Level)
	assert.Equal(t, os.Stderr, cfg.Output)
	assert.False(t, cfg.Pretty)
	assert.Equal(t, time.RFC3339, cfg.TimeFormat)
	assert.False(t, cfg.LogToFile)
	assert.Equal(t, os.TempDir(), cfg.LogDir)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"  debug  ", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FatalLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: WarnLevel, Output: &buf})

	Debug().Str("projectID", "p1").Msg("budget snapshot refreshed")
	Info().Msg("heartbeat sent")
	Warn().Msg("heartbeat failed")
	Error().Msg("subscription lost")

	out := buf.String()
	assert.NotContains(t, out, "budget snapshot refreshed")
	assert.NotContains(t, out, "heartbeat sent")
	assert.Contains(t, out, "heartbeat failed")
	assert.Contains(t, out, "subscription lost")
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, Output: &buf})

	Info().
		Str("scope", "team").
		Int("elapsedSeconds", 1830).
		Bool("pomodoro", true).
		Msg("session running")

	out := buf.String()
	assert.Contains(t, out, `"scope":"team"`)
	assert.Contains(t, out, `"elapsedSeconds":1830`)
	assert.Contains(t, out, `"pomodoro":true`)
	assert.Contains(t, out, "session running")
}

func TestWithChildLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, Output: &buf})

	timerLog := With().Str("component", "timer").Logger()
	timerLog.Info().Msg("controller started")

	out := buf.String()
	assert.Contains(t, out, `"component":"timer"`)
	assert.Contains(t, out, "controller started")
}

func TestPrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, Output: &buf, Pretty: true})

	Info().Msg("tracking started")

	assert.Contains(t, buf.String(), "tracking started")
}

func TestErrorField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, Output: &buf})

	Error().Err(os.ErrNotExist).Msg("preferences load failed")

	out := buf.String()
	assert.Contains(t, out, "preferences load failed")
	assert.Contains(t, out, "file does not exist")
}

func TestLogToFile(t *testing.T) {
	dir := t.TempDir()
	Init(Config{
		Level:     InfoLevel,
		Output:    &bytes.Buffer{},
		LogToFile: true,
		LogDir:    dir,
	})
	defer Close()

	Info().Msg("workspace switched")

	logPath := GetLogFilePath()
	require.NotEmpty(t, logPath)
	assert.True(t, strings.HasPrefix(logPath, dir), "log file %s should live under %s", logPath, dir)

	name := filepath.Base(logPath)
	assert.True(t, strings.HasPrefix(name, "itimedit-"), "unexpected log file name %s", name)
	assert.True(t, strings.HasSuffix(name, ".log"), "unexpected log file name %s", name)

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "workspace switched")
}

func TestCloseReleasesLogFile(t *testing.T) {
	Init(Config{
		Level:     InfoLevel,
		Output:    &bytes.Buffer{},
		LogToFile: true,
		LogDir:    t.TempDir(),
	})
	require.NotEmpty(t, GetLogFilePath())

	Close()
	assert.Empty(t, GetLogFilePath())
}

func TestNoLogFileWhenDisabled(t *testing.T) {
	Close()
	Init(Config{Level: InfoLevel, Output: &bytes.Buffer{}})

	assert.Empty(t, GetLogFilePath())
}

func TestReinitRotatesLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Level:     InfoLevel,
		Output:    &bytes.Buffer{},
		LogToFile: true,
		LogDir:    dir,
	}

	Init(cfg)
	first := GetLogFilePath()
	require.NotEmpty(t, first)

	// File names carry a second-resolution timestamp.
	time.Sleep(time.Second)

	Init(cfg)
	defer Close()
	second := GetLogFilePath()

	assert.NotEqual(t, first, second)
	assert.FileExists(t, first)
	assert.FileExists(t, second)
}

func TestInitDefaultsNilOutputAndEmptyFormat(t *testing.T) {
	// Nil output falls back to stderr, empty time format to RFC3339;
	// neither may panic.
	Init(Config{Level: InfoLevel})

	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, Output: &buf, TimeFormat: ""})
	Info().Msg("defaults applied")
	assert.Contains(t, buf.String(), "defaults applied")
}

func TestLogToFileEmptyDirFallsBack(t *testing.T) {
	Init(Config{
		Level:     InfoLevel,
		Output:    &bytes.Buffer{},
		LogToFile: true,
		LogDir:    "",
	})
	defer Close()

	if p := GetLogFilePath(); p != "" {
		assert.True(t, strings.HasPrefix(p, os.TempDir()), "expected log path under the temp dir, got %s", p)
	}
}
