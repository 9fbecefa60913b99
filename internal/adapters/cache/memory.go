package cache

import (
	"sync"

	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	value any
	tags  []string
}

// Memory is a tag-indexed in-memory read cache. Values are stored under
// string keys, each associated with one or more tags; invalidating a tag
// drops every value carrying it. Sync passes invalidate by tag so readers
// never serve data from before the pass.
type Memory struct {
	mu   sync.Mutex
	lru  *lru.Cache[string, entry]
	tags map[string]map[string]struct{} // tag -> keys carrying it
}

// NewMemory creates a cache bounded to size entries.
func NewMemory(size int) (*Memory, error) {
	m := &Memory{
		tags: map[string]map[string]struct{}{},
	}
	c, err := lru.NewWithEvict(size, m.onEvict)
	if err != nil {
		return nil, err
	}
	m.lru = c
	return m, nil
}

// onEvict runs under m.mu: lru mutations happen only inside locked methods.
func (m *Memory) onEvict(key string, e entry) {
	for _, tag := range e.tags {
		if keys, ok := m.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(m.tags, tag)
			}
		}
	}
}

// Get returns the cached value for key, if present.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores a value under key with the given tags.
func (m *Memory) Set(key string, value any, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Add(key, entry{value: value, tags: tags})
	for _, tag := range tags {
		keys, ok := m.tags[tag]
		if !ok {
			keys = map[string]struct{}{}
			m.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

// InvalidateTags drops every cached value carrying any of the given tags.
func (m *Memory) InvalidateTags(tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tag := range tags {
		for key := range m.tags[tag] {
			m.lru.Remove(key)
		}
		delete(m.tags, tag)
	}
}

var _ providers.ReadCache = (*Memory)(nil)
