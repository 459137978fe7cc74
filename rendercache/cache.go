// Package rendercache memoizes computed render descriptors per asset and
// edit-state fingerprint, with bounded LRU eviction and explicit
// invalidation hooks for history mutations.
package rendercache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the default maximum number of cached entries.
const DefaultCapacity = 100

// Key identifies a cache entry: one asset at one exact edit state.
type Key struct {
	AssetID     string
	Fingerprint string
}

type entry struct {
	key        Key
	descriptor string
}

// Cache is a bounded LRU cache mapping (asset, fingerprint) to a render
// descriptor.
//
// Entries are valid only while their fingerprint matches the asset's current
// projection fingerprint; a lookup with a newer fingerprint purges the stale
// entries for that asset. History mutations additionally call
// InvalidateAsset, which removes all entries for the asset regardless of
// fingerprint. The double invalidation guards against a stale fingerprint
// computed from a projection read before a concurrent edit committed.
//
// All operations are safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]*list.Element
	lru      *list.List // front = most recently used
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a render cache with the given capacity.
// If capacity <= 0, DefaultCapacity is used.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Cache{
		entries:  make(map[Key]*list.Element),
		lru:      list.New(),
		capacity: capacity,
	}
}

// Get returns the descriptor cached for the asset at the given fingerprint.
//
// On a hit the entry becomes the most recently used. On a miss, any entries
// for the same asset stored under a different fingerprint are purged, since
// the caller's fingerprint reflects the asset's current projection.
func (c *Cache) Get(assetID string, fingerprint string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key{AssetID: assetID, Fingerprint: fingerprint}

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		c.hits.Add(1)
		return elem.Value.(*entry).descriptor, true
	}

	c.purgeAssetLocked(assetID, fingerprint)
	c.misses.Add(1)

	return "", false
}

// Put stores the descriptor for the asset at the given fingerprint, evicting
// the least-recently-used entry when the cache is at capacity and the key is
// not already present.
func (c *Cache) Put(assetID string, fingerprint string, descriptor string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key{AssetID: assetID, Fingerprint: fingerprint}

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*entry).descriptor = descriptor
		c.lru.MoveToFront(elem)
		return
	}

	if c.lru.Len() >= c.capacity {
		c.evictOldestLocked()
	}

	c.entries[key] = c.lru.PushFront(&entry{key: key, descriptor: descriptor})
}

// InvalidateAsset removes all entries for the asset regardless of fingerprint.
// Called by every history mutation and by reset.
func (c *Cache) InvalidateAsset(assetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeAssetLocked(assetID, "")
}

// Clear removes every entry. Statistics are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]*list.Element)
	c.lru.Init()
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}

// Stats holds cache effectiveness counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// purgeAssetLocked removes all entries for the asset except the one stored
// under keepFingerprint. An empty keepFingerprint removes everything.
func (c *Cache) purgeAssetLocked(assetID string, keepFingerprint string) {
	for elem := c.lru.Front(); elem != nil; {
		next := elem.Next()
		e := elem.Value.(*entry)

		if e.key.AssetID == assetID && e.key.Fingerprint != keepFingerprint {
			c.lru.Remove(elem)
			delete(c.entries, e.key)
		}

		elem = next
	}
}

func (c *Cache) evictOldestLocked() {
	oldest := c.lru.Back()
	if oldest == nil {
		return
	}

	e := oldest.Value.(*entry)
	c.lru.Remove(oldest)
	delete(c.entries, e.key)
	c.evictions.Add(1)
}
