package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/ItsaMeTuni/caser/server/recurrence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	for _, key := range []string{
		"CASER_CONFIG_FILE", "CASER_TIMEZONE", "CASER_WINDOW_DAYS", "CASER_MAX_OCCURRENCES",
		"CASER_LOG_LEVEL", "CASER_FORMAT", "CASER_ENGINE_PROFILE",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return tmp
}

func TestLoad_Defaults(t *testing.T) {
	tmp := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmp, "config", "caser", "config.yaml"), cfg.ConfigFile)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 30*24*time.Hour, cfg.Window)
	assert.Equal(t, 1000, cfg.MaxOccurrences)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "default", cfg.EngineProfile)
}

func TestLoad_ConfigFileAndEnv(t *testing.T) {
	tmp := isolate(t)

	configFile := filepath.Join(tmp, "caser.yaml")
	content := "timezone: Europe/Berlin\nwindow_days: 7\nmax_occurrences: 50\nlog_level: debug\nformat: json\nengine_profile: low-memory\n"
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))

	t.Setenv("CASER_CONFIG_FILE", configFile)
	t.Setenv("CASER_WINDOW_DAYS", "14")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, configFile, cfg.ConfigFile)
	assert.Equal(t, "Europe/Berlin", cfg.Location.String())
	assert.Equal(t, 14*24*time.Hour, cfg.Window)
	assert.Equal(t, 50, cfg.MaxOccurrences)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, "low-memory", cfg.EngineProfile)
}

func TestLoad_ClampsInvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("CASER_WINDOW_DAYS", "99999")
	t.Setenv("CASER_MAX_OCCURRENCES", "-3")
	t.Setenv("CASER_LOG_LEVEL", "chatty")
	t.Setenv("CASER_FORMAT", "xml")
	t.Setenv("CASER_ENGINE_PROFILE", "turbo")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Duration(maxWindowDays)*24*time.Hour, cfg.Window)
	assert.Equal(t, defaultMaxOccurrences, cfg.MaxOccurrences)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "default", cfg.EngineProfile)
}

func TestLoad_UnknownTimezone(t *testing.T) {
	isolate(t)
	t.Setenv("CASER_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	assert.ErrorContains(t, err, "Mars/Olympus_Mons")
}

func TestLoad_MalformedFile(t *testing.T) {
	tmp := isolate(t)
	configFile := filepath.Join(tmp, "broken.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("window_days: [unterminated\n"), 0o644))
	t.Setenv("CASER_CONFIG_FILE", configFile)

	_, err := Load()
	assert.Error(t, err)
}

func TestRuntime_EngineConfig(t *testing.T) {
	logger := slog.Default()
	cfg := Runtime{EngineProfile: "high-performance", MaxOccurrences: 42}.EngineConfig(logger)

	assert.Equal(t, recurrence.HighPerformanceConfig.CacheConfig, cfg.CacheConfig)
	assert.Equal(t, 42, cfg.MaxExpansionOccurrences)
	assert.Same(t, logger, cfg.Logger)

	fallback := Runtime{EngineProfile: "nope"}.EngineConfig(nil)
	assert.Equal(t, recurrence.DefaultEngineConfig.MaxExpansionOccurrences, fallback.MaxExpansionOccurrences)
}
