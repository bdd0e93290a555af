package recurrence

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/samber/mo"
)

// Clock supplies the current time to the cache.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// CacheEntry represents a cached recurrence result
type CacheEntry struct {
	Result     any // bool for occurrence checks, []TimeOccurrence for expansions
	ExpiresAt  time.Time
	AccessedAt time.Time
}

// RecurrenceCache provides caching for recurrence expansion and validation results
type RecurrenceCache struct {
	entries         map[string]*CacheEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	clock           Clock
	stopCleanup     chan struct{}
	closeOnce       sync.Once
}

// CacheConfig holds configuration for the recurrence cache
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before cleanup
	CleanupInterval time.Duration // How often to run cleanup
	Clock           Clock         // Defaults to the system clock
}

// DefaultCacheConfig provides sensible defaults for recurrence caching
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewRecurrenceCache creates a new recurrence cache with the given configuration
func NewRecurrenceCache(config CacheConfig) *RecurrenceCache {
	if config.Clock == nil {
		config.Clock = systemClock{}
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCacheConfig.CleanupInterval
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	cache := &RecurrenceCache{
		entries:         make(map[string]*CacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		clock:           config.Clock,
		stopCleanup:     make(chan struct{}),
	}

	go cache.cleanupLoop()

	return cache
}

// generateCacheKey hashes every input that affects a result.
func (c *RecurrenceCache) generateCacheKey(operation string, masterStart DateTime, masterEnd time.Time, recInfo RecurrenceInfo, rangeStart, rangeEnd time.Time) string {
	hasher := sha256.New()

	writeDateTime := func(d DateTime) {
		fmt.Fprintf(hasher, "|%t|%s|%s", d.DateOnly, d.Time.Format(time.RFC3339Nano), d.Location())
	}

	fmt.Fprintf(hasher, "%s|%s|%s|%s", operation, masterEnd.Format(time.RFC3339Nano),
		rangeStart.Format(time.RFC3339Nano), rangeEnd.Format(time.RFC3339Nano))
	writeDateTime(masterStart)
	fmt.Fprintf(hasher, "|rrule:%s|rdate", recInfo.RRULE)
	for _, rdate := range recInfo.RDATE {
		writeDateTime(rdate)
	}
	fmt.Fprint(hasher, "|exdate")
	for _, exdate := range recInfo.EXDATE {
		writeDateTime(exdate)
	}
	if id, ok := recInfo.RecurrenceID.Get(); ok {
		fmt.Fprint(hasher, "|recurrence-id")
		writeDateTime(id)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// Get retrieves a cached result if it exists and hasn't expired
func (c *RecurrenceCache) Get(operation string, masterStart DateTime, masterEnd time.Time, recInfo RecurrenceInfo, rangeStart, rangeEnd time.Time) mo.Option[any] {
	key := c.generateCacheKey(operation, masterStart, masterEnd, recInfo, rangeStart, rangeEnd)
	now := c.clock.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return mo.None[any]()
	}
	if now.After(entry.ExpiresAt) {
		delete(c.entries, key)
		return mo.None[any]()
	}
	entry.AccessedAt = now

	return mo.Some(entry.Result)
}

// Set stores a result in the cache
func (c *RecurrenceCache) Set(operation string, masterStart DateTime, masterEnd time.Time, recInfo RecurrenceInfo, rangeStart, rangeEnd time.Time, result any) {
	key := c.generateCacheKey(operation, masterStart, masterEnd, recInfo, rangeStart, rangeEnd)
	now := c.clock.Now()

	entry := &CacheEntry{
		Result:     result,
		ExpiresAt:  now.Add(c.ttl),
		AccessedAt: now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry

	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// cleanup removes expired entries and then the least recently accessed ones
// until the cache is within its limit. Callers hold the write lock.
func (c *RecurrenceCache) cleanup() {
	now := c.clock.Now()

	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}

	if len(c.entries) <= c.maxEntries {
		return
	}

	type keyAccess struct {
		key        string
		accessedAt time.Time
	}
	keyAccessList := make([]keyAccess, 0, len(c.entries))
	for key, entry := range c.entries {
		keyAccessList = append(keyAccessList, keyAccess{key: key, accessedAt: entry.AccessedAt})
	}
	slices.SortFunc(keyAccessList, func(a, b keyAccess) int {
		return a.accessedAt.Compare(b.accessedAt)
	})

	entriesToRemove := len(c.entries) - c.maxEntries
	for i := 0; i < entriesToRemove; i++ {
		delete(c.entries, keyAccessList[i].key)
	}
}

// cleanupLoop runs periodic cleanup
func (c *RecurrenceCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache. It is safe to call
// more than once.
func (c *RecurrenceCache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCleanup)
	})
	c.mutex.Lock()
	c.entries = make(map[string]*CacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics
func (c *RecurrenceCache) Stats() CacheStats {
	now := c.clock.Now()

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entryCount := len(c.entries)
	expiredCount := 0
	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			expiredCount++
		}
	}

	return CacheStats{
		TotalEntries:   entryCount,
		ExpiredEntries: expiredCount,
		ActiveEntries:  entryCount - expiredCount,
	}
}

// CacheStats provides information about cache performance
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
