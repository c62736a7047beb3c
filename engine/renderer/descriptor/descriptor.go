// Package descriptor caches bind groups per frame slot, keyed by the layout they were built for and the
// scene objects they bind.
package descriptor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/camera"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/profiler"
)

// Kind says which scene object a cached binding describes. Two keys with the same layout and handle
// indices but different kinds never match.
type Kind int

const (
	KindCamera Kind = iota
	KindModel
	KindMaterial
	KindAttachments
)

func (k Kind) String() string {
	switch k {
	case KindCamera:
		return "camera"
	case KindModel:
		return "model"
	case KindMaterial:
		return "material"
	case KindAttachments:
		return "attachments"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Key identifies one cached binding. Unused handles stay none.
type Key struct {
	Layout   string
	Kind     Kind
	Node     arena.Handle[model.Node]
	Material arena.Handle[model.Material]
	Camera   arena.Handle[camera.Camera]
}

func CameraKey(layout string, h arena.Handle[camera.Camera]) Key {
	return Key{Layout: layout, Kind: KindCamera, Camera: h}
}

func ModelKey(layout string, h arena.Handle[model.Node]) Key {
	return Key{Layout: layout, Kind: KindModel, Node: h}
}

func MaterialKey(layout string, h arena.Handle[model.Material]) Key {
	return Key{Layout: layout, Kind: KindMaterial, Material: h}
}

func AttachmentsKey(layout string) Key {
	return Key{Layout: layout, Kind: KindAttachments}
}

func (k Key) String() string {
	switch k.Kind {
	case KindCamera:
		return fmt.Sprintf("%s/%s/%s", k.Layout, k.Kind, k.Camera)
	case KindModel:
		return fmt.Sprintf("%s/%s/%s", k.Layout, k.Kind, k.Node)
	case KindMaterial:
		return fmt.Sprintf("%s/%s/%s", k.Layout, k.Kind, k.Material)
	}
	return fmt.Sprintf("%s/%s", k.Layout, k.Kind)
}

// Stats are the cumulative lookup counters of a Cache.
type Stats struct {
	Hits, Misses int
}

// Cache maps keys to bind group providers. A provider is built at most once per key until the key is
// evicted, pruned or the cache is reset. It is owned by one frame slot.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]bind_group_provider.BindGroupProvider
	stats   Stats
	metrics *profiler.Metrics
}

// NewCache creates an empty Cache.
//
// Parameters:
//   - options: CacheBuilderOption values applied in order
//
// Returns:
//   - *Cache: the cache
func NewCache(options ...CacheBuilderOption) *Cache {
	c := &Cache{entries: make(map[Key]bind_group_provider.BindGroupProvider)}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// GetOrCreate returns the provider cached under key, calling build to create it on a miss. A build
// error is returned and nothing is cached. build must not call back into the cache.
//
// Parameters:
//   - key: the binding identity
//   - build: creates the provider on a miss
//
// Returns:
//   - bind_group_provider.BindGroupProvider: the cached or newly built provider
//   - error: the build error, if any
func (c *Cache) GetOrCreate(key Key, build func() (bind_group_provider.BindGroupProvider, error)) (bind_group_provider.BindGroupProvider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.entries[key]; ok {
		c.stats.Hits++
		if c.metrics != nil {
			c.metrics.CacheHits.Inc()
		}
		return p, nil
	}
	c.stats.Misses++
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
	p, err := build()
	if err != nil {
		return nil, fmt.Errorf("build binding %s: %w", key, err)
	}
	c.entries[key] = p
	return p, nil
}

// Get returns the provider cached under key without building.
func (c *Cache) Get(key Key) (bind_group_provider.BindGroupProvider, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[key]
	return p, ok
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Keys returns the cached keys in a stable order.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Evict removes key and returns its provider unreleased. The caller releases it once no submission
// references it.
func (c *Cache) Evict(key Key) (bind_group_provider.BindGroupProvider, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	return p, ok
}

// Prune removes every entry whose key valid rejects and returns the removed providers unreleased.
//
// Parameters:
//   - valid: reports whether a key's handles still resolve
//
// Returns:
//   - []bind_group_provider.BindGroupProvider: the removed providers
func (c *Cache) Prune(valid func(Key) bool) []bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []bind_group_provider.BindGroupProvider
	for k, p := range c.entries {
		if !valid(k) {
			delete(c.entries, k)
			out = append(out, p)
		}
	}
	return out
}

// Reset releases every cached provider immediately. The caller must ensure the owning slot's
// submissions have completed.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, p := range c.entries {
		p.Release()
		delete(c.entries, k)
	}
}
