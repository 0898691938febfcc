package uiindex

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/dom"
	"github.com/spigell/uiindex/internal/logger"
	"github.com/spigell/uiindex/internal/storage"
)

const (
	// DefaultTTL is how long a snapshot is reused without a rebuild.
	DefaultTTL = 10 * time.Minute
	// DefaultKeyPrefix namespaces snapshots in the durable store.
	DefaultKeyPrefix = "uiindex:snapshot:"
)

// Cache keeps snapshots in memory and mirrors them into a durable store.
// Durable store failures are logged and otherwise ignored, so the memory half
// keeps working when the store is full or unavailable.
type Cache struct {
	mu     sync.RWMutex
	memory map[string]*PageSnapshot

	store  storage.Storage
	prefix string
	logger *zap.Logger
}

// NewCache creates a cache. store may be nil for a memory-only cache and an
// empty prefix selects DefaultKeyPrefix.
func NewCache(store storage.Storage, prefix string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Cache{
		memory: make(map[string]*PageSnapshot),
		store:  store,
		prefix: prefix,
		logger: logger,
	}
}

// Store writes snap to memory and the durable store. Last writer wins.
func (c *Cache) Store(snap *PageSnapshot) {
	if snap == nil {
		return
	}

	c.mu.Lock()
	c.memory[snap.URLKey] = snap
	c.mu.Unlock()

	if c.store == nil {
		return
	}

	log := logger.WithFields(c.logger, logger.SnapshotFields(snap.URLKey, snap.LayoutFingerprint)...)
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Warn("encode snapshot", zap.Error(err))
		return
	}
	if err := c.durableSet(c.prefix+snap.URLKey, string(payload)); err != nil {
		log.Warn("persist snapshot", zap.Error(err))
	}
}

// Retrieve returns the snapshot for urlKey from memory, falling back to the
// durable store. A durable hit is copied back into memory. It returns nil
// when neither has the key.
func (c *Cache) Retrieve(urlKey string) *PageSnapshot {
	c.mu.RLock()
	snap, ok := c.memory[urlKey]
	c.mu.RUnlock()
	if ok {
		return snap
	}

	if c.store == nil {
		return nil
	}

	log := logger.WithFields(c.logger, logger.SnapshotFields(urlKey, "")...)
	payload, err := c.durableGet(c.prefix + urlKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("load snapshot", zap.Error(err))
		}
		return nil
	}

	snap = &PageSnapshot{}
	if err := json.Unmarshal([]byte(payload), snap); err != nil {
		log.Warn("decode snapshot", zap.Error(err))
		return nil
	}
	if snap.URLKey != urlKey {
		log.Warn("discarding snapshot stored under a different key", zap.String("stored_key", snap.URLKey))
		return nil
	}

	c.mu.Lock()
	if cur, ok := c.memory[urlKey]; ok {
		snap = cur
	} else {
		c.memory[urlKey] = snap
	}
	c.mu.Unlock()

	log.Debug("restored snapshot from durable store")
	return snap
}

func (c *Cache) durableSet(key, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("storage panicked on set")
		}
	}()
	return c.store.Set(key, value)
}

func (c *Cache) durableGet(key string) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("storage panicked on get")
		}
	}()
	return c.store.Get(key)
}

// RefreshReason explains a ShouldRefresh decision.
type RefreshReason string

const (
	ReasonFresh         RefreshReason = "fresh"
	ReasonMissing       RefreshReason = "missing"
	ReasonExpired       RefreshReason = "expired"
	ReasonLayoutChanged RefreshReason = "layout_changed"
	ReasonScopeChanged  RefreshReason = "scope_changed"
	ReasonForced        RefreshReason = "forced"
)

// ShouldRefresh reports whether existing must be rebuilt for doc at now: it
// is missing, older than ttl, or its fingerprint no longer matches doc. A
// non-positive ttl selects DefaultTTL. It does not touch any cache.
func ShouldRefresh(existing *PageSnapshot, doc dom.Document, ttl time.Duration, now time.Time) (bool, RefreshReason) {
	if existing == nil {
		return true, ReasonMissing
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now.Sub(existing.CapturedAt) > ttl {
		return true, ReasonExpired
	}
	if ComputeFingerprint(doc) != existing.LayoutFingerprint {
		return true, ReasonLayoutChanged
	}
	return false, ReasonFresh
}
