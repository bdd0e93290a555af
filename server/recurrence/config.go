package recurrence

import (
	"io"
	"log/slog"
	"time"
)

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig

	// MaxExpansionOccurrences caps Expand when ExpansionOptions leaves
	// MaxOccurrences at zero.
	MaxExpansionOccurrences int
	// MaxConcurrentExpansions bounds the goroutines used by ExpandEvents.
	MaxConcurrentExpansions int

	Logger *slog.Logger
}

// DefaultEngineConfig provides sensible defaults for production use
var DefaultEngineConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,

	MaxExpansionOccurrences: 1000,
	MaxConcurrentExpansions: 8,
}

// HighPerformanceConfig is optimized for high-traffic scenarios
var HighPerformanceConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             30 * time.Minute,
		MaxEntries:      5000,
		CleanupInterval: 10 * time.Minute,
	},

	MaxExpansionOccurrences: 500,
	MaxConcurrentExpansions: 32,
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 2 * time.Minute,
	},

	MaxExpansionOccurrences: 200,
	MaxConcurrentExpansions: 2,
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = EngineConfig{
	CacheEnabled: false,

	MaxExpansionOccurrences: 1000,
	MaxConcurrentExpansions: 8,
}

// ConfigForProfile returns the preset named by profile: "default",
// "high-performance", "low-memory" or "disabled-cache".
func ConfigForProfile(profile string) (EngineConfig, bool) {
	switch profile {
	case "", "default":
		return DefaultEngineConfig, true
	case "high-performance":
		return HighPerformanceConfig, true
	case "low-memory":
		return LowMemoryConfig, true
	case "disabled-cache":
		return DisabledCacheConfig, true
	}
	return EngineConfig{}, false
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config EngineConfig) *Engine {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.MaxExpansionOccurrences <= 0 {
		config.MaxExpansionOccurrences = DefaultEngineConfig.MaxExpansionOccurrences
	}
	if config.MaxConcurrentExpansions <= 0 {
		config.MaxConcurrentExpansions = 1
	}

	var cache *RecurrenceCache
	if config.CacheEnabled {
		cache = NewRecurrenceCache(config.CacheConfig)
	}

	return &Engine{
		cache:  cache,
		config: config,
		logger: config.Logger,
	}
}
