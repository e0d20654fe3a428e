package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_SetGetInvalidate(t *testing.T) {
	c := NewTTLCache[[]string](time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", []string{"a"})
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, v)

	c.Invalidate()
	_, ok = c.Get("k")
	assert.False(t, ok, "Invalidate debe vaciar la caché")
}

func TestTTLCache_Vence(t *testing.T) {
	c := NewTTLCache[int](20 * time.Millisecond)
	c.Set("k", 1)
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTTLCache_Desactivada(t *testing.T) {
	c := NewTTLCache[int](0)
	c.Set("k", 1)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	c.Invalidate()
}

func TestTTLCache_SetIfGenerationDescartaTrasInvalidate(t *testing.T) {
	c := NewTTLCache[int](time.Minute)

	gen := c.Generation()
	c.Invalidate()
	assert.False(t, c.SetIfGeneration("k", 1, gen), "una invalidación intermedia descarta el valor")
	_, ok := c.Get("k")
	assert.False(t, ok)

	gen = c.Generation()
	assert.True(t, c.SetIfGeneration("k", 2, gen))
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}
