// internal/storage/factory/factory.go
package factory

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/geo-mart/ABPedSim/internal/config"
	"github.com/geo-mart/ABPedSim/internal/storage"
	"github.com/geo-mart/ABPedSim/internal/storage/memory"
	postgresstorage "github.com/geo-mart/ABPedSim/internal/storage/postgres"
	sqlitestorage "github.com/geo-mart/ABPedSim/internal/storage/sqlite"
	"github.com/geo-mart/ABPedSim/internal/storage/websocket"
)

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig, stream config.StreamConfig, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgresstorage.New(logger)
	case "sqlite":
		dumpPath := cfg.SQLite.Path
		if dumpPath == "" {
			dumpPath = filepath.Join(cfg.Memory.OutputDir, "abpedsim.db")
		}
		return sqlitestorage.New(sqlitestorage.Config{
			DumpPath:     dumpPath,
			DumpInterval: cfg.SQLite.DumpInterval,
		}, logger)
	case "memory":
		return memory.New(cfg.Memory), nil
	case "websocket":
		if !stream.Enabled {
			return nil, fmt.Errorf("websocket storage requires stream.enabled")
		}
		return websocket.New(websocket.Config{URL: stream.URL, Secret: stream.Secret}, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
