package lru

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New[string, int](Config{Capacity: 2})
	require.NoError(t, err)

	c.Put("a", 1)
	c.Put("b", 2)
	_, _ = c.Get("a")
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestExpiry(t *testing.T) {
	now := time.Unix(0, 0)
	c, err := New[string, string](Config{Capacity: 4, TTL: time.Minute})
	require.NoError(t, err)
	c.now = func() time.Time { return now }

	c.Put("k", "v")
	now = now.Add(30 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestDeleteAndUpdate(t *testing.T) {
	c, err := New[int, int](Config{Capacity: 1})
	require.NoError(t, err)
	c.Put(1, 1)
	c.Put(1, 2)
	v, _ := c.Get(1)
	assert.Equal(t, 2, v)
	c.Delete(1)
	assert.Equal(t, 0, c.Len())

	_, err = New[int, int](Config{})
	assert.Error(t, err)
}
