package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ItsaMeTuni/caser/server/recurrence"
	"github.com/spf13/viper"
)

const (
	defaultWindowDays     = 30
	maxWindowDays         = 3660
	defaultMaxOccurrences = 1000
	maxOccurrencesCeiling = 100000
)

// Formats understood by the CLI.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Runtime is the resolved CLI configuration. ConfigFile is the path that was
// consulted, whether or not the file existed.
type Runtime struct {
	ConfigFile string

	Location       *time.Location
	Window         time.Duration
	MaxOccurrences int
	LogLevel       slog.Level
	Format         string
	EngineProfile  string
}

// Load reads CASER_* environment variables and the optional YAML file named
// by CASER_CONFIG_FILE (default $XDG_CONFIG_HOME/caser/config.yaml).
// Environment values win over the file. Out-of-range values fall back to
// their defaults; an unknown timezone is an error.
func Load() (Runtime, error) {
	configFile := strings.TrimSpace(os.Getenv("CASER_CONFIG_FILE"))
	if configFile == "" {
		xdgConfig := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
		if xdgConfig == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return Runtime{}, fmt.Errorf("resolve home dir: %w", err)
			}
			xdgConfig = filepath.Join(home, ".config")
		}
		configFile = filepath.Join(xdgConfig, "caser", "config.yaml")
	}

	v := viper.New()
	v.SetEnvPrefix("CASER")
	v.AutomaticEnv()

	_ = v.BindEnv("timezone", "CASER_TIMEZONE")
	_ = v.BindEnv("window_days", "CASER_WINDOW_DAYS")
	_ = v.BindEnv("max_occurrences", "CASER_MAX_OCCURRENCES")
	_ = v.BindEnv("log_level", "CASER_LOG_LEVEL")
	_ = v.BindEnv("format", "CASER_FORMAT")
	_ = v.BindEnv("engine_profile", "CASER_ENGINE_PROFILE")

	v.SetDefault("timezone", "UTC")
	v.SetDefault("window_days", defaultWindowDays)
	v.SetDefault("max_occurrences", defaultMaxOccurrences)
	v.SetDefault("log_level", "warn")
	v.SetDefault("format", FormatText)
	v.SetDefault("engine_profile", "default")

	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Runtime{}, fmt.Errorf("read config file %s: %w", configFile, err)
	}

	tz := strings.TrimSpace(v.GetString("timezone"))
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Runtime{}, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}

	windowDays := v.GetInt("window_days")
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	if windowDays > maxWindowDays {
		windowDays = maxWindowDays
	}

	maxOccurrences := v.GetInt("max_occurrences")
	if maxOccurrences <= 0 {
		maxOccurrences = defaultMaxOccurrences
	}
	if maxOccurrences > maxOccurrencesCeiling {
		maxOccurrences = maxOccurrencesCeiling
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(v.GetString("log_level")))); err != nil {
		level = slog.LevelWarn
	}

	format := strings.ToLower(strings.TrimSpace(v.GetString("format")))
	if format != FormatJSON {
		format = FormatText
	}

	profile := strings.ToLower(strings.TrimSpace(v.GetString("engine_profile")))
	if _, ok := recurrence.ConfigForProfile(profile); !ok {
		profile = "default"
	}

	return Runtime{
		ConfigFile:     configFile,
		Location:       loc,
		Window:         time.Duration(windowDays) * 24 * time.Hour,
		MaxOccurrences: maxOccurrences,
		LogLevel:       level,
		Format:         format,
		EngineProfile:  profile,
	}, nil
}

// EngineConfig returns the engine preset selected by EngineProfile with the
// configured occurrence limit and logger.
func (r Runtime) EngineConfig(logger *slog.Logger) recurrence.EngineConfig {
	cfg, ok := recurrence.ConfigForProfile(r.EngineProfile)
	if !ok {
		cfg = recurrence.DefaultEngineConfig
	}
	if r.MaxOccurrences > 0 {
		cfg.MaxExpansionOccurrences = r.MaxOccurrences
	}
	cfg.Logger = logger
	return cfg
}
