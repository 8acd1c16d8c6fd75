// internal/storage/factory/factory_test.go
package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geo-mart/ABPedSim/internal/config"
	"github.com/geo-mart/ABPedSim/internal/storage/memory"
)

func TestNewBackend_Memory(t *testing.T) {
	b, err := NewBackend(config.StorageConfig{
		Type:   "memory",
		Memory: config.MemoryConfig{OutputDir: t.TempDir()},
	}, config.StreamConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, (*memory.Backend)(nil), b)
}

func TestNewBackend_UnknownType(t *testing.T) {
	_, err := NewBackend(config.StorageConfig{Type: "carrier-pigeon"}, config.StreamConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}

func TestNewBackend_WebsocketRequiresStream(t *testing.T) {
	_, err := NewBackend(config.StorageConfig{Type: "websocket"}, config.StreamConfig{Enabled: false}, nil)
	require.Error(t, err)
}
