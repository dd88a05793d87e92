// Package tzcache implements the keyed zone cache: a weak map from
// zone key to *zoneinfo.Zone, backstopped by a bounded FIFO of strong
// references so that transient drops of every external reference
// don't force an immediate re-parse of the same file.
//
// All operations are internally synchronized. Get is atomic per key:
// concurrent callers racing to load the same key block on a single
// in-flight construction (via singleflight) rather than each parsing
// the file and racing to install their own result.
package tzcache

import (
	"container/list"
	"sync"
	"weak"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/gozoneinfo/tzcore/zoneinfo"
)

// DefaultStrongCapacity is the default size of the strong FIFO tier,
// matching the source constant documented in the spec's open question
// (ii): treated here as a configurable with that default.
const DefaultStrongCapacity = 8

// strongEntry is the payload held by the strong FIFO's list elements.
// It retains an actual *zoneinfo.Zone reference (not just the key) so
// that the zone genuinely survives GC while it occupies a FIFO slot;
// holding only the key would leave the weak tier with nothing keeping
// its target alive, defeating the whole point of the strong tier.
type strongEntry struct {
	key  string
	zone *zoneinfo.Zone
}

// Loader builds a Zone for key from scratch (locating and decoding its
// TZif source). The cache calls Loader at most once per key at a time,
// regardless of how many concurrent Get calls name that key.
type Loader func(key string) (*zoneinfo.Zone, error)

// Cache is the keyed zone cache described in spec.md §4.F. The zero
// value is not usable; construct with New.
type Cache struct {
	load Loader

	mu       sync.Mutex
	weakMap  map[string]weak.Pointer[zoneinfo.Zone]
	strong   *list.List // front = most recently loaded or hit; element Value is *strongEntry
	strongAt map[string]*list.Element
	capacity int

	sf singleflight.Group

	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	reaps     prometheus.Counter
}

// New returns a Cache that builds missing zones with load and keeps
// capacity entries strongly referenced. capacity <= 0 is replaced with
// DefaultStrongCapacity.
func New(load Loader, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultStrongCapacity
	}
	c := &Cache{
		load:     load,
		weakMap:  make(map[string]weak.Pointer[zoneinfo.Zone]),
		strong:   list.New(),
		strongAt: make(map[string]*list.Element),
		capacity: capacity,
	}
	c.registerMetrics()
	return c
}

// Get returns the cached zone for key, building and inserting one if
// none is currently live. Two concurrent Get calls for the same key
// that both miss are guaranteed to observe the same *zoneinfo.Zone
// instance; the loser of the race never has its own build inserted.
func (c *Cache) Get(key string) (*zoneinfo.Zone, error) {
	if z, ok := c.lookup(key); ok {
		return z, nil
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check under the singleflight key: another goroutine may
		// have finished loading and inserted while we were queuing up.
		if z, ok := c.lookup(key); ok {
			return z, nil
		}
		z, err := c.load(key)
		if err != nil {
			return nil, err
		}
		return c.insert(key, z), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*zoneinfo.Zone), nil
}

// lookup checks the weak tier only; it never builds anything.
func (c *Cache) lookup(key string) (*zoneinfo.Zone, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wp, ok := c.weakMap[key]
	if !ok {
		return nil, false
	}
	z := wp.Value()
	if z == nil {
		// The weak map's entry was reaped; sweep it now rather than
		// wait for the next insert.
		delete(c.weakMap, key)
		c.reaps.Inc()
		return nil, false
	}
	c.touchStrong(key, z)
	c.hits.Inc()
	return z, true
}

// insert installs a cache-marked copy of z (see zoneinfo.MarkCached)
// as the cached instance for key and returns the value every caller
// should observe: that copy, or the zone already installed for key.
func (c *Cache) insert(key string, z *zoneinfo.Zone) *zoneinfo.Zone {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A concurrent Clear(key) followed by a fresh Get could have raced
	// a new entry into place between the singleflight re-check and
	// acquiring the lock here. Prefer whatever is installed so identity
	// stays stable for anyone already holding it.
	if wp, ok := c.weakMap[key]; ok {
		if existing := wp.Value(); existing != nil {
			c.touchStrong(key, existing)
			return existing
		}
	}

	cached := zoneinfo.MarkCached(z)
	c.weakMap[key] = weak.Make(cached)
	c.sweepDeadLocked()
	c.touchStrong(key, cached)
	c.misses.Inc()
	return cached
}

// touchStrong moves key to the front of the strong FIFO (or inserts
// it, holding z strongly), evicting the oldest entry once capacity is
// exceeded. Eviction only drops the strong reference; the weak tier is
// untouched, so a zone some other part of the program is still holding
// strongly stays reachable through it.
func (c *Cache) touchStrong(key string, z *zoneinfo.Zone) {
	if el, ok := c.strongAt[key]; ok {
		el.Value.(*strongEntry).zone = z
		c.strong.MoveToFront(el)
		return
	}
	el := c.strong.PushFront(&strongEntry{key: key, zone: z})
	c.strongAt[key] = el
	for c.strong.Len() > c.capacity {
		oldest := c.strong.Back()
		c.strong.Remove(oldest)
		delete(c.strongAt, oldest.Value.(*strongEntry).key)
		c.evictions.Inc()
	}
}

// sweepDeadLocked prunes weak-map entries whose target has already
// been reaped. Called on every insert so the map doesn't grow
// unboundedly across a long-running process cycling through many
// distinct keys; must be called with c.mu held.
func (c *Cache) sweepDeadLocked() {
	for k, wp := range c.weakMap {
		if wp.Value() == nil {
			delete(c.weakMap, k)
			c.reaps.Inc()
		}
	}
}

// Clear empties both tiers entirely when called with no arguments, or
// removes only the named keys when arguments are given.
func (c *Cache) Clear(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(keys) == 0 {
		c.weakMap = make(map[string]weak.Pointer[zoneinfo.Zone])
		c.strong = list.New()
		c.strongAt = make(map[string]*list.Element)
		return
	}
	for _, k := range keys {
		delete(c.weakMap, k)
		if el, ok := c.strongAt[k]; ok {
			c.strong.Remove(el)
			delete(c.strongAt, k)
		}
	}
}

// Len reports how many keys currently have a live weak-tier entry.
// Used by tests; it is a snapshot, immediately stale, and not a basis
// for production decision-making.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, wp := range c.weakMap {
		if wp.Value() != nil {
			n++
		}
	}
	return n
}
