// Package postgresstorage implements the storage.Backend interface on a
// PostgreSQL connection. All queueing and batch-write behavior lives in the
// embedded GORM backend; this wrapper only owns the connection.
package postgresstorage

import (
	"fmt"
	"log/slog"

	"github.com/geo-mart/ABPedSim/internal/database"
	gormstorage "github.com/geo-mart/ABPedSim/internal/storage/gorm"

	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend with a PostgreSQL connection.
type Backend struct {
	*gormstorage.Backend
	mgr *database.Manager
}

// New creates a new PostgreSQL storage backend using the viper db.* settings.
func New(logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mgr := database.NewManager(zerolog.Nop())
	db, err := mgr.GetPostgresDB()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	mgr.DB = db
	mgr.IsValid = true

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:     db,
		Logger: logger,
	})

	return &Backend{
		Backend: gormBackend,
		mgr:     mgr,
	}, nil
}
