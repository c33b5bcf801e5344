package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/partsync/internal/model"
	"github.com/zeebo/blake3"
)

// Cache stores raw bytes under string keys with a TTL
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey derives a cache key from a page URL
func CacheKey(url string) string {
	sum := blake3.Sum256([]byte(url))
	return "partsync:v1:" + hex.EncodeToString(sum[:16])
}

// Pages stores fetched pages in a byte cache
type Pages struct {
	store Cache
}

// NewPages wraps store
func NewPages(store Cache) *Pages {
	return &Pages{store: store}
}

// Get returns the cached page for url
func (p *Pages) Get(url string) (*model.Page, bool) {
	data, ok := p.store.Get(CacheKey(url))
	if !ok {
		return nil, false
	}
	var page model.Page
	if err := json.Unmarshal(data, &page); err != nil {
		_ = p.store.Delete(CacheKey(url))
		return nil, false
	}
	return &page, true
}

// Put caches page under its URL
func (p *Pages) Put(page *model.Page, ttl time.Duration) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal page: %w", err)
	}
	return p.store.Set(CacheKey(page.URL), data, ttl)
}
