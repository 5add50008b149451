package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedPutGet(t *testing.T) {
	t.Parallel()

	c := NewBounded[string, int](4)
	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestBoundedOverwriteKeepsPosition(t *testing.T) {
	t.Parallel()

	c := NewBounded[string, int](2)
	c.Put("a", 1)
	c.Put("a", 2)
	c.Put("b", 3)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, c.Len())
}

func TestBoundedEvictsOldestHalf(t *testing.T) {
	t.Parallel()

	c := NewBounded[int, int](10)
	for i := 0; i < 10; i++ {
		c.Put(i, i)
	}
	require.Equal(t, 10, c.Len())

	// The next insert evicts keys 0..4 in one pass.
	c.Put(10, 10)
	assert.Equal(t, 6, c.Len())

	for i := 0; i < 5; i++ {
		_, ok := c.Get(i)
		assert.False(t, ok, "key %d should have been evicted", i)
	}
	for i := 5; i <= 10; i++ {
		_, ok := c.Get(i)
		assert.True(t, ok, "key %d should have survived", i)
	}
}

func TestBoundedCapacityFloor(t *testing.T) {
	t.Parallel()

	c := NewBounded[string, string](0)
	c.Put("a", "x")
	c.Put("b", "y")

	// Capacity 1: inserting b evicted a.
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestBoundedClear(t *testing.T) {
	t.Parallel()

	c := NewBounded[string, int](8)
	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("k%d", i), i)
	}
	c.Clear()
	assert.Equal(t, 0, c.Len())

	c.Put("k0", 42)
	v, ok := c.Get("k0")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}
