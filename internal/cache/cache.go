package cache

// Cache is an LRU cache with a fixed capacity.
// When an insertion exceeds the capacity, the least recently used entry is
// removed and passed to the eviction callback.
type Cache[K comparable, V any] struct {
	entries  map[K]*cacheEntry[K, V]
	order    *recency[K]
	capacity int
	onEvict  func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
}

type cacheEntry[K comparable, V any] struct {
	value V
	at    *slot[K]
}

// New creates a cache holding at most capacity entries.
// A capacity of 0 means unlimited. onEvict may be nil.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		entries:  make(map[K]*cacheEntry[K, V]),
		order:    newRecency[K](),
		capacity: capacity,
		onEvict:  onEvict,
	}
}

// Get retrieves a value and marks it most recently used.
// Returns (value, true) if found, (zero, false) otherwise.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.promote(e.at)
	return e.value, true
}

// Set stores a value. An existing value for key is replaced without
// calling the eviction callback.
func (c *Cache[K, V]) Set(key K, value V) {
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.order.promote(e.at)
		return
	}
	c.entries[key] = &cacheEntry[K, V]{value: value, at: c.order.touch(key)}
	c.evict()
}

// GetOrCreate returns the cached value for key or stores the result of
// create. Nothing is stored when create fails.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := create()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Clear removes every entry, oldest first, passing each to the eviction
// callback.
func (c *Cache[K, V]) Clear() {
	for s := c.order.stalest(); s != nil; s = c.order.stalest() {
		c.remove(s.key)
	}
	c.order.reset()
}

// RemoveFunc removes every entry for which match reports true, passing each
// to the eviction callback, and returns how many were removed.
func (c *Cache[K, V]) RemoveFunc(match func(K, V) bool) int {
	var doomed []K
	for k, e := range c.entries {
		if match(k, e.value) {
			doomed = append(doomed, k)
		}
	}
	for _, k := range doomed {
		c.remove(k)
	}
	return len(doomed)
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int { return c.order.n }

// Capacity returns the maximum number of entries, 0 for unlimited.
func (c *Cache[K, V]) Capacity() int { return c.capacity }

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// evict removes least recently used entries until the cache fits.
func (c *Cache[K, V]) evict() {
	if c.capacity <= 0 {
		return
	}
	for len(c.entries) > c.capacity {
		s := c.order.stalest()
		if s == nil {
			return
		}
		c.remove(s.key)
		c.evictions++
	}
}

func (c *Cache[K, V]) remove(key K) {
	e := c.entries[key]
	delete(c.entries, key)
	c.order.drop(e.at)
	if c.onEvict != nil {
		c.onEvict(key, e.value)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the maximum number of entries, 0 for unlimited.
	Capacity int
	// Hits is the number of successful lookups.
	Hits uint64
	// Misses is the number of failed lookups.
	Misses uint64
	// Evictions is the number of entries removed to stay within Capacity.
	Evictions uint64
}
