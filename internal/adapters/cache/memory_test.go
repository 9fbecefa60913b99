package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetAndGet(t *testing.T) {
	m, err := NewMemory(8)
	require.NoError(t, err)

	m.Set("accounts:list", []string{"acc-1"}, "accounts")

	v, ok := m.Get("accounts:list")
	require.True(t, ok)
	assert.Equal(t, []string{"acc-1"}, v)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestInvalidateTagsDropsOnlyTaggedEntries(t *testing.T) {
	m, err := NewMemory(8)
	require.NoError(t, err)

	m.Set("transactions:list", "txns", "transactions", "dashboard")
	m.Set("accounts:list", "accs", "accounts")
	m.Set("holdings:list", "holds", "holdings")

	m.InvalidateTags("transactions", "accounts")

	_, ok := m.Get("transactions:list")
	assert.False(t, ok)
	_, ok = m.Get("accounts:list")
	assert.False(t, ok)
	_, ok = m.Get("holdings:list")
	assert.True(t, ok, "untagged entries must survive")
}

func TestInvalidateUnknownTagIsANoOp(t *testing.T) {
	m, err := NewMemory(8)
	require.NoError(t, err)

	m.Set("accounts:list", "accs", "accounts")
	m.InvalidateTags("does-not-exist")

	_, ok := m.Get("accounts:list")
	assert.True(t, ok)
}

func TestEvictionCleansTagIndex(t *testing.T) {
	m, err := NewMemory(2)
	require.NoError(t, err)

	m.Set("a", 1, "shared")
	m.Set("b", 2, "shared")
	m.Set("c", 3, "shared") // evicts "a"

	_, ok := m.Get("a")
	assert.False(t, ok)

	// Invalidating the tag after an eviction must not panic and must drop
	// the surviving entries.
	m.InvalidateTags("shared")
	_, ok = m.Get("b")
	assert.False(t, ok)
	_, ok = m.Get("c")
	assert.False(t, ok)
}

func TestOverwriteReplacesValue(t *testing.T) {
	m, err := NewMemory(8)
	require.NoError(t, err)

	m.Set("key", "old", "tag-a")
	m.Set("key", "new", "tag-b")

	v, ok := m.Get("key")
	require.True(t, ok)
	assert.Equal(t, "new", v)

	// The new tag must reach the entry.
	m.InvalidateTags("tag-b")
	_, ok = m.Get("key")
	assert.False(t, ok)
}
