package embedding

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/unicode/norm"
)

// Cache stores embedding vectors keyed by the normalized text they were
// computed from. Implementations need not be consistent across workers
// (spec §5: "the embedding cache is local to each worker; correctness does
// not depend on cache coherence").
type Cache interface {
	Get(ctx context.Context, key string) ([]float64, bool)
	Set(ctx context.Context, key string, vec []float64, ttl time.Duration)
}

// CacheKey derives a stable cache key from text (spec §4.1): trim,
// Unicode NFC-normalize, collapse internal whitespace, then SHA-256 — so
// trivial formatting differences in extractor output do not cause spurious
// cache misses.
func CacheKey(text string) string {
	normalized := norm.NFC.String(strings.TrimSpace(text))
	normalized = strings.Join(strings.FieldsFunc(normalized, unicode.IsSpace), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// RedisCache stores vectors in Redis as JSON, with a per-entry TTL.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]float64, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false
	}
	return vec, true
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, vec []float64, ttl time.Duration) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, data, ttl).Err()
}

// LRUCache is an in-process fallback used when no Redis endpoint is
// configured (spec §5: cache coherence across workers is not required, so a
// purely local cache is a legitimate implementation). No ecosystem
// in-process LRU appears anywhere in the retrieved example pack, so this is
// built on stdlib container/list.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
}

type lruEntry struct {
	key       string
	vec       []float64
	expiresAt time.Time
}

// NewLRUCache builds an in-process LRU cache holding up to capacity entries.
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &LRUCache{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get implements Cache.
func (c *LRUCache) Get(_ context.Context, key string) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*lruEntry)
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.items, key)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return entry.vec, true
}

// Set implements Cache.
func (c *LRUCache) Set(_ context.Context, key string, vec []float64, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if elem, ok := c.items[key]; ok {
		elem.Value = &lruEntry{key: key, vec: vec, expiresAt: expiresAt}
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&lruEntry{key: key, vec: vec, expiresAt: expiresAt})
	c.items[key] = elem

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruEntry).key)
	}
}
