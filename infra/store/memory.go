// Package store provides the in-memory prediction cache backing the
// core store contract: a bounded LRU with per-entry validity, an
// entity index for invalidation, and a periodic sweep.
package store

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/maelviard/trackcast/core/logger"
	"github.com/maelviard/trackcast/core/model"
	corestore "github.com/maelviard/trackcast/core/store"
)

// Config tunes the memory store.
type Config struct {
	// MaxEntries bounds the LRU.
	MaxEntries int `json:"max_entries"`
	// SweepInterval is how often Run sweeps expired entries.
	SweepInterval time.Duration `json:"sweep_interval"`
}

// SetDefaults applies the store defaults.
func (c *Config) SetDefaults() {
	if c.MaxEntries == 0 {
		c.MaxEntries = 4096
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Minute
	}
}

type entry struct {
	result     model.PredictionResult
	validUntil time.Time
}

// Memory is the LRU-backed corestore.Store.
type Memory struct {
	mu    sync.Mutex
	cache *lru.Cache[corestore.Key, entry]
	byID  map[string]map[corestore.Key]struct{}
	cfg   Config
	log   logger.Logger
	now   func() time.Time
}

// NewMemory builds a Memory store.
func NewMemory(cfg Config, log logger.Logger) *Memory {
	cfg.SetDefaults()
	m := &Memory{
		byID: make(map[string]map[corestore.Key]struct{}),
		cfg:  cfg,
		log:  log,
		now:  time.Now,
	}
	cache, _ := lru.NewWithEvict(cfg.MaxEntries, m.onEvict)
	m.cache = cache
	return m
}

// onEvict keeps the entity index aligned with LRU evictions. Called
// with m.mu held, since all cache mutations happen under it.
func (m *Memory) onEvict(key corestore.Key, _ entry) {
	if keys, ok := m.byID[key.EntityID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.byID, key.EntityID)
		}
	}
}

// Get implements corestore.Store.
func (m *Memory) Get(key corestore.Key) (model.PredictionResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.cache.Get(key)
	if !ok {
		return model.PredictionResult{}, false
	}
	if !m.now().Before(e.validUntil) {
		m.cache.Remove(key)
		return model.PredictionResult{}, false
	}
	return e.result, true
}

// Put implements corestore.Store. Writes are last-write-wins by
// GeneratedAt: an older result never replaces a newer one.
func (m *Memory) Put(key corestore.Key, result model.PredictionResult, validUntil time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.cache.Peek(key); ok && cur.result.GeneratedAt.After(result.GeneratedAt) {
		return
	}
	m.cache.Add(key, entry{result: result, validUntil: validUntil})
	keys, ok := m.byID[key.EntityID]
	if !ok {
		keys = make(map[corestore.Key]struct{})
		m.byID[key.EntityID] = keys
	}
	keys[key] = struct{}{}
}

// Invalidate implements corestore.Store.
func (m *Memory) Invalidate(entityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.byID[entityID] {
		m.cache.Remove(key)
	}
}

// SweepExpired implements corestore.Store.
func (m *Memory) SweepExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for _, key := range m.cache.Keys() {
		if e, ok := m.cache.Peek(key); ok && !now.Before(e.validUntil) {
			m.cache.Remove(key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Len()
}

// Run sweeps expired entries until the context is cancelled.
func (m *Memory) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.SweepExpired(now); n > 0 {
				m.log.Debugf("swept %d expired predictions", n)
			}
		}
	}
}
