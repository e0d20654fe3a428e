// Package cache contiene la caché en memoria de resultados de lectura.
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TTLCache guarda valores de tipo T durante un tiempo fijo.
// Quien hace la lectura es dueño de la caché y debe llamar Invalidate tras cada escritura.
// Con ttl <= 0 la caché queda desactivada: Get nunca acierta y Set no guarda nada.
type TTLCache[T any] struct {
	store *gocache.Cache
	ttl   time.Duration

	// gen cuenta las invalidaciones; SetIfGeneration lo compara bajo mu.
	mu  sync.Mutex
	gen uint64
}

// NewTTLCache construye la caché con la vigencia indicada.
func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	c := &TTLCache[T]{ttl: ttl}
	if ttl > 0 {
		c.store = gocache.New(ttl, 2*ttl)
	}
	return c
}

// TTL vigencia configurada.
func (c *TTLCache[T]) TTL() time.Duration { return c.ttl }

// Get devuelve el valor si existe y no ha vencido.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	if c.store == nil {
		return zero, false
	}
	v, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Set guarda el valor con la vigencia por defecto.
func (c *TTLCache[T]) Set(key string, value T) {
	if c.store == nil {
		return
	}
	c.store.SetDefault(key, value)
}

// Invalidate descarta todas las entradas y avanza la generación.
func (c *TTLCache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.store != nil {
		c.store.Flush()
	}
}

// Generation devuelve la generación actual. Se toma antes de leer la fuente.
func (c *TTLCache[T]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetIfGeneration guarda el valor solo si no hubo Invalidate desde que se tomó gen.
// Devuelve false si el valor se descartó.
func (c *TTLCache[T]) SetIfGeneration(key string, value T, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil || c.gen != gen {
		return false
	}
	c.store.SetDefault(key, value)
	return true
}

// Len número de entradas (incluye vencidas aún no purgadas).
func (c *TTLCache[T]) Len() int {
	if c.store == nil {
		return 0
	}
	return c.store.ItemCount()
}
