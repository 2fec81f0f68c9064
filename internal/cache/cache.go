// Package cache provides a TTL and priority aware cache with configurable
// refresh strategies, wrapped around a compute-on-miss function.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/novatitan/prediction-core/internal/metrics"
)

// Priority classifies how valuable an entry is when eviction is needed
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityCritical: 3,
	PriorityHigh:     2,
	PriorityMedium:   1,
	PriorityLow:      0,
}

// Strategy controls how an entry is refreshed once stale
type Strategy string

const (
	// StrategyRealtime recomputes on every access; intended for live data
	StrategyRealtime Strategy = "realtime"
	// StrategyBackground serves stale immediately and recomputes off the hit path
	StrategyBackground Strategy = "background"
	// StrategyLazy recomputes only once the entry is confirmed stale at access
	StrategyLazy Strategy = "lazy"
)

// Default TTLs per refresh strategy. Overridable via Options.TTL.
const (
	DefaultRealtimeTTL   = 30 * time.Second
	DefaultBackgroundTTL = 5 * time.Minute
	DefaultLazyTTL       = 30 * time.Minute
)

// Options control how a computed value is stored
type Options struct {
	TTL          time.Duration
	Priority     Priority
	Strategy     Strategy
	ForceRefresh bool
}

func (o Options) normalized() Options {
	if o.Strategy == "" {
		o.Strategy = StrategyLazy
	}
	if o.Priority == "" {
		o.Priority = PriorityMedium
	}
	if o.TTL <= 0 {
		switch o.Strategy {
		case StrategyRealtime:
			o.TTL = DefaultRealtimeTTL
		case StrategyBackground:
			o.TTL = DefaultBackgroundTTL
		default:
			o.TTL = DefaultLazyTTL
		}
	}
	return o
}

// ComputeFunc produces a value for a cache key on miss
type ComputeFunc func(ctx context.Context) (interface{}, error)

type entry struct {
	Value    interface{}
	StoredAt time.Time
	TTL      time.Duration
	Priority Priority
	Strategy Strategy
}

func (e *entry) stale(now time.Time) bool {
	return now.Sub(e.StoredAt) > e.TTL
}

type call struct {
	done chan struct{}
	val  interface{}
	err  error
}

// Stats is a read-only snapshot of cache behavior for diagnostics
type Stats struct {
	Size        int     `json:"size"`
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	StaleCount  int     `json:"stale_count"`
	StaleServed uint64  `json:"stale_served"`
	Evictions   uint64  `json:"evictions"`
}

// Manager is a concurrency-safe cache with TTL, priority metadata, and
// per-strategy refresh semantics. Entries are kept past expiry so stale
// values can serve as a degraded fallback when recomputation fails.
type Manager struct {
	store      *cache.Cache
	maxEntries int
	logger     *logrus.Logger

	mu          sync.Mutex
	inflight    map[string]*call
	hits        uint64
	misses      uint64
	staleServed uint64
	evictions   uint64

	backgroundTimeout time.Duration
}

// NewManager creates a cache manager bounded to maxEntries entries.
// maxEntries <= 0 means unbounded.
func NewManager(maxEntries int, logger *logrus.Logger) *Manager {
	return &Manager{
		// Expiry is tracked by the manager, not go-cache, so stale
		// entries survive for fallback use.
		store:             cache.New(cache.NoExpiration, 0),
		maxEntries:        maxEntries,
		logger:            logger,
		inflight:          make(map[string]*call),
		backgroundTimeout: 30 * time.Second,
	}
}

// GetOrCompute returns the cached value for key if a fresh entry exists,
// otherwise invokes computeFn, stores the result with the given options,
// and returns it. Failure of computeFn falls back to a stale entry unless
// the caller forced a refresh.
func (m *Manager) GetOrCompute(ctx context.Context, key string, computeFn ComputeFunc, opts Options) (interface{}, error) {
	opts = opts.normalized()
	now := time.Now()
	e, found := m.lookup(key)
	fresh := found && !e.stale(now)

	if opts.ForceRefresh {
		m.recordMiss()
		return m.compute(ctx, key, computeFn, opts)
	}

	switch opts.Strategy {
	case StrategyRealtime:
		// Always attempt recomputation; any cached value is only a
		// failure fallback.
		val, err := m.compute(ctx, key, computeFn, opts)
		if err == nil {
			m.recordMiss()
			return val, nil
		}
		if found {
			m.recordStaleServed()
			m.logger.WithError(err).WithField("key", key).Warn("Realtime recompute failed, serving cached value")
			return e.Value, nil
		}
		m.recordMiss()
		return nil, err

	case StrategyBackground:
		if fresh {
			m.recordHit()
			return e.Value, nil
		}
		if found {
			m.recordStaleServed()
			go m.refreshAsync(key, computeFn, opts)
			return e.Value, nil
		}
		m.recordMiss()
		return m.compute(ctx, key, computeFn, opts)

	default: // lazy
		if fresh {
			m.recordHit()
			return e.Value, nil
		}
		m.recordMiss()
		val, err := m.compute(ctx, key, computeFn, opts)
		if err != nil && found {
			m.recordStaleServed()
			m.logger.WithError(err).WithField("key", key).Warn("Recompute failed, serving stale value")
			return e.Value, nil
		}
		return val, err
	}
}

// GetTyped is a typed convenience wrapper around Manager.GetOrCompute.
func GetTyped[T any](ctx context.Context, m *Manager, key string, computeFn func(ctx context.Context) (T, error), opts Options) (T, error) {
	var zero T
	val, err := m.GetOrCompute(ctx, key, func(ctx context.Context) (interface{}, error) {
		return computeFn(ctx)
	}, opts)
	if err != nil {
		return zero, err
	}
	typed, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("cache entry %q holds %T, not the requested type", key, val)
	}
	return typed, nil
}

// Invalidate removes a single entry immediately
func (m *Manager) Invalidate(key string) {
	m.store.Delete(key)
	m.publishGauges()
}

// Clear removes all entries and resets counters
func (m *Manager) Clear() {
	m.store.Flush()
	m.mu.Lock()
	m.hits = 0
	m.misses = 0
	m.staleServed = 0
	m.evictions = 0
	m.mu.Unlock()
	m.publishGauges()
}

// GetStats returns a snapshot of cache statistics
func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	hits, misses := m.hits, m.misses
	staleServed, evictions := m.staleServed, m.evictions
	m.mu.Unlock()

	now := time.Now()
	staleCount := 0
	for _, item := range m.store.Items() {
		if e, ok := item.Object.(*entry); ok && e.stale(now) {
			staleCount++
		}
	}

	total := hits + misses
	rate := 0.0
	if total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Size:        m.store.ItemCount(),
		Hits:        hits,
		Misses:      misses,
		HitRate:     rate,
		StaleCount:  staleCount,
		StaleServed: staleServed,
		Evictions:   evictions,
	}
}

// Sweep drops entries stale beyond the grace window. Wired to the cron
// scheduler so long-dead fallback values do not accumulate.
func (m *Manager) Sweep(grace time.Duration) int {
	now := time.Now()
	removed := 0
	for key, item := range m.store.Items() {
		e, ok := item.Object.(*entry)
		if !ok {
			continue
		}
		if now.Sub(e.StoredAt) > e.TTL+grace {
			m.store.Delete(key)
			removed++
		}
	}
	m.publishGauges()
	return removed
}

func (m *Manager) lookup(key string) (*entry, bool) {
	raw, found := m.store.Get(key)
	if !found {
		return nil, false
	}
	e, ok := raw.(*entry)
	return e, ok
}

// compute de-duplicates concurrent computations for the same key: the first
// caller runs computeFn, later callers wait on its result.
func (m *Manager) compute(ctx context.Context, key string, computeFn ComputeFunc, opts Options) (interface{}, error) {
	m.mu.Lock()
	if c, ok := m.inflight[key]; ok {
		m.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	m.inflight[key] = c
	m.mu.Unlock()

	c.val, c.err = computeFn(ctx)
	if c.err == nil {
		m.set(key, c.val, opts)
	}

	m.mu.Lock()
	delete(m.inflight, key)
	m.mu.Unlock()
	close(c.done)

	return c.val, c.err
}

func (m *Manager) refreshAsync(key string, computeFn ComputeFunc, opts Options) {
	ctx, cancel := context.WithTimeout(context.Background(), m.backgroundTimeout)
	defer cancel()
	if _, err := m.compute(ctx, key, computeFn, opts); err != nil {
		m.logger.WithError(err).WithField("key", key).Debug("Background refresh failed")
	}
}

func (m *Manager) set(key string, value interface{}, opts Options) {
	if m.maxEntries > 0 && m.store.ItemCount() >= m.maxEntries {
		if _, exists := m.store.Get(key); !exists {
			m.evictOne()
		}
	}
	m.store.Set(key, &entry{
		Value:    value,
		StoredAt: time.Now(),
		TTL:      opts.TTL,
		Priority: opts.Priority,
		Strategy: opts.Strategy,
	}, cache.NoExpiration)
	m.publishGauges()
}

// evictOne removes the lowest-priority, oldest entry
func (m *Manager) evictOne() {
	var victimKey string
	var victim *entry
	for key, item := range m.store.Items() {
		e, ok := item.Object.(*entry)
		if !ok {
			m.store.Delete(key)
			return
		}
		if victim == nil {
			victimKey, victim = key, e
			continue
		}
		er, vr := priorityRank[e.Priority], priorityRank[victim.Priority]
		if er < vr || (er == vr && e.StoredAt.Before(victim.StoredAt)) {
			victimKey, victim = key, e
		}
	}
	if victim != nil {
		m.store.Delete(victimKey)
		m.mu.Lock()
		m.evictions++
		m.mu.Unlock()
		metrics.RecordCacheEviction()
	}
}

func (m *Manager) recordHit() {
	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
	metrics.RecordCacheHit()
	m.publishGauges()
}

func (m *Manager) recordMiss() {
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
	metrics.RecordCacheMiss()
	m.publishGauges()
}

func (m *Manager) recordStaleServed() {
	m.mu.Lock()
	m.staleServed++
	m.mu.Unlock()
	metrics.RecordCacheStaleServed()
	m.publishGauges()
}

func (m *Manager) publishGauges() {
	m.mu.Lock()
	hits, misses := m.hits, m.misses
	m.mu.Unlock()
	total := hits + misses
	ratio := 0.0
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	metrics.UpdateCacheHitRatio(ratio)
	metrics.UpdateCacheSize(float64(m.store.ItemCount()))
}
