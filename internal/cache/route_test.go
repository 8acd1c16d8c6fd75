package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geo-mart/ABPedSim/pkg/vec"
)

func TestRouteCache_SetAndGet(t *testing.T) {
	cache := NewRouteCache()

	cache.Set("entrance", vec.V{X: 10, Y: 20})

	p, ok := cache.Get("entrance")
	require.True(t, ok)
	assert.Equal(t, vec.V{X: 10, Y: 20}, p)
}

func TestRouteCache_Get_NotFound(t *testing.T) {
	cache := NewRouteCache()

	_, ok := cache.Get("nowhere")
	assert.False(t, ok)
}

func TestRouteCache_Delete(t *testing.T) {
	cache := NewRouteCache()

	cache.Set("exit", vec.V{X: 1, Y: 1})
	cache.Delete("exit")

	_, ok := cache.Get("exit")
	assert.False(t, ok)
}

func TestRouteCache_Reset(t *testing.T) {
	cache := NewRouteCache()

	cache.Set("a", vec.V{X: 1})
	cache.Set("b", vec.V{Y: 2})
	cache.Reset()

	_, okA := cache.Get("a")
	_, okB := cache.Get("b")
	assert.False(t, okA)
	assert.False(t, okB)
}
