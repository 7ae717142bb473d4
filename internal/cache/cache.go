// Package cache memoizes translations keyed by dictionary digest and AMR
// text.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/amr2daide/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key for an AMR translated by the dictionary
// with the given digest. Developer mode stamps rule ids on segments, so it
// gets its own key space.
func CacheKey(digest string, developer bool, amr string) string {
	h := sha256.New()
	h.Write([]byte(digest))
	if developer {
		h.Write([]byte{0, 'd'})
	} else {
		h.Write([]byte{0, 'p'})
	}
	h.Write([]byte{0})
	h.Write([]byte(amr))
	return "amr2daide:v1:" + hex.EncodeToString(h.Sum(nil))
}

// Entry is the cached part of a translation
type Entry struct {
	Segments []model.Segment `json:"segments"`
	Rules    []string        `json:"rules,omitempty"`
}

// Translations stores translation entries in a byte cache
type Translations struct {
	store Cache
	ttl   time.Duration
}

// NewTranslations wraps store. A zero ttl uses the store's default.
func NewTranslations(store Cache, ttl time.Duration) *Translations {
	return &Translations{store: store, ttl: ttl}
}

// Get returns the cached entry for key. Undecodable entries are dropped and
// reported as misses.
func (t *Translations) Get(key string) (*Entry, bool) {
	data, found := t.store.Get(key)
	if !found {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		_ = t.store.Delete(key)
		return nil, false
	}
	return &e, true
}

// Put stores an entry under key
func (t *Translations) Put(key string, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return t.store.Set(key, data, t.ttl)
}

// New builds the cache described by cfg: memory only when Dir is empty,
// memory in front of disk otherwise.
func New(cfg model.CacheConfig) Cache {
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}
