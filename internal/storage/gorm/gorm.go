// Package gormstorage implements the storage.Backend interface on top of a
// GORM connection with internal queues and a background DB writer goroutine.
// The sqlite and postgres backends wrap it with their connection specifics.
package gormstorage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/geo-mart/ABPedSim/internal/model"
	"github.com/geo-mart/ABPedSim/internal/model/convert"
	"github.com/geo-mart/ABPedSim/internal/queue"
	"github.com/geo-mart/ABPedSim/pkg/core"

	"gorm.io/gorm"
)

// DefaultWriteInterval is how often the DB writer drains the queues.
const DefaultWriteInterval = 2 * time.Second

// insertBatchSize bounds the number of rows per insert transaction.
const insertBatchSize = 1000

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	WriteInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Pedestrians      *queue.Queue[model.Pedestrian]
	TrajectoryPoints *queue.Queue[model.TrajectoryPoint]
	DensityCells     *queue.Queue[model.DensityCell]
	TickPerformances *queue.Queue[model.TickPerformance]
}

func newQueues() *queues {
	return &queues{
		Pedestrians:      queue.New[model.Pedestrian](),
		TrajectoryPoints: queue.New[model.TrajectoryPoint](),
		DensityCells:     queue.New[model.DensityCell](),
		TickPerformances: queue.New[model.TickPerformance](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps          Dependencies
	queues        *queues
	runID         atomic.Uint64
	stopChan      chan struct{}
	dbReady       bool
	lastWriteNano atomic.Int64
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.WriteInterval <= 0 {
		deps.WriteInterval = DefaultWriteInterval
	}
	return &Backend{
		deps: deps,
	}
}

// Init creates internal queues, runs schema migration, and starts the DB writer goroutine.
// With no DB injected the backend runs in queue-only mode; nothing is ever drained.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})

	if b.deps.DB == nil {
		return nil
	}

	if err := b.setupDB(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.dbReady = true

	b.startDBWriter()
	return nil
}

// setupDB migrates tables and creates the engine info row if missing.
func (b *Backend) setupDB() error {
	db := b.deps.DB
	log := b.deps.Logger

	if !db.Migrator().HasTable(&model.EngineInfo{}) {
		if err := db.AutoMigrate(&model.EngineInfo{}); err != nil {
			return fmt.Errorf("failed to auto-migrate EngineInfo: %w", err)
		}
		if err := db.Create(&model.EngineInfo{
			InstanceName:  "abpedsim",
			EngineVersion: "1.0.0",
			Description:   "Social force pedestrian simulation recordings",
		}).Error; err != nil {
			return fmt.Errorf("failed to create engine_info entry: %w", err)
		}
	}

	if db.Name() == "postgres" {
		if err := db.Exec(`CREATE Extension IF NOT EXISTS postgis;`).Error; err != nil {
			return fmt.Errorf("failed to create PostGIS Extension: %w", err)
		}
		log.Info("PostGIS Extension created")
	}

	log.Info("Migrating schema")
	var err error
	if db.Name() == "postgres" {
		err = db.AutoMigrate(model.DatabaseModels...)
	} else {
		err = db.AutoMigrate(model.DatabaseModelsSQLite...)
	}
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info("Database setup complete")
	return nil
}

// Close flushes the queues one final time and stops the DB writer goroutine.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
	}
	b.drainQueues()
	return nil
}

// StartRun performs scene get-or-insert and run create in the DB.
func (b *Backend) StartRun(coreRun *core.Run, coreScene *core.Scene) error {
	if b.deps.DB == nil {
		return nil
	}

	db := b.deps.DB

	gormScene := convert.CoreToScene(*coreScene)
	if _, err := gormScene.GetOrInsert(db); err != nil {
		return fmt.Errorf("failed to get or insert scene: %w", err)
	}

	gormRun := convert.CoreToRun(*coreRun)
	gormRun.Scene = gormScene
	if err := db.Create(&gormRun).Error; err != nil {
		return fmt.Errorf("failed to insert new run: %w", err)
	}

	// Assign DB-generated IDs back to core types
	coreRun.ID = gormRun.ID
	coreScene.ID = gormScene.ID

	// Store run ID for the DB writer goroutine
	b.runID.Store(uint64(gormRun.ID))

	return nil
}

// SetRunID sets the current run ID for the DB writer (used by replay tools).
func (b *Backend) SetRunID(id uint) {
	b.runID.Store(uint64(id))
}

// EndRun stamps the run end time and drains the queues synchronously.
func (b *Backend) EndRun() error {
	b.drainQueues()

	if b.deps.DB != nil {
		runID := uint(b.runID.Load())
		err := b.deps.DB.Model(&model.Run{}).Where("id = ?", runID).
			Update("end_time", sql.NullTime{Time: time.Now(), Valid: true}).Error
		if err != nil {
			return fmt.Errorf("failed to stamp run end time: %w", err)
		}
	}
	return nil
}

// AddPedestrian converts a core pedestrian to GORM and pushes to the write queue.
func (b *Backend) AddPedestrian(p *core.Pedestrian) error {
	gormObj := convert.CoreToPedestrian(*p)
	b.queues.Pedestrians.Push(gormObj)
	return nil
}

// RecordTrajectoryPoint converts and queues a trajectory point.
func (b *Backend) RecordTrajectoryPoint(tp *core.TrajectoryPoint) error {
	gormObj := convert.CoreToTrajectoryPoint(*tp)
	b.queues.TrajectoryPoints.Push(gormObj)
	return nil
}

// RecordDensityCell converts and queues a density cell.
func (b *Backend) RecordDensityCell(dc *core.DensityCell) error {
	gormObj := convert.CoreToDensityCell(*dc)
	b.queues.DensityCells.Push(gormObj)
	return nil
}

// RecordTickStats converts and queues a tick performance sample.
func (b *Backend) RecordTickStats(ts *core.TickStats) error {
	gormObj := convert.CoreToTickPerformance(*ts)
	b.queues.TickPerformances.Push(gormObj)
	return nil
}

// QueueLengths reports the current backlog of each write queue.
func (b *Backend) QueueLengths() core.QueueLengths {
	if b.queues == nil {
		return core.QueueLengths{}
	}
	return core.QueueLengths{
		Trajectories: uint16(b.queues.TrajectoryPoints.Len()),
		DensityCells: uint16(b.queues.DensityCells.Len()),
		TickStats:    uint16(b.queues.TickPerformances.Len()),
	}
}

// writeQueue drains a queue to the database in bounded transactions. On
// insert failure the batch is requeued and the rest of the backlog is left
// for the next drain cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger, prepare func([]T)) {
	for {
		items := q.PopBatch(insertBatchSize)
		if len(items) == 0 {
			return
		}
		if prepare != nil {
			prepare(items)
		}

		tx := db.Begin()
		if err := tx.Create(&items).Error; err != nil {
			log.Error("DB writer insert failed", "queue", name, "error", err)
			tx.Rollback()
			q.Push(items...)
			return
		}
		tx.Commit()
	}
}

// GetLastDBWriteDuration returns how long the most recent drain cycle took.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWriteNano.Load())
}

// drainQueues writes every queue once with the current run ID.
func (b *Backend) drainQueues() {
	if !b.dbReady || b.deps.DB == nil {
		return
	}

	start := time.Now()
	defer func() { b.lastWriteNano.Store(int64(time.Since(start))) }()

	log := b.deps.Logger
	runID := uint(b.runID.Load())

	stampPedestrians := func(items []model.Pedestrian) {
		for i := range items {
			items[i].RunID = runID
		}
	}
	stampTrajectoryPoints := func(items []model.TrajectoryPoint) {
		for i := range items {
			items[i].RunID = runID
		}
	}
	stampDensityCells := func(items []model.DensityCell) {
		for i := range items {
			items[i].RunID = runID
		}
	}
	stampTickPerformances := func(items []model.TickPerformance) {
		for i := range items {
			items[i].RunID = runID
		}
	}

	writeQueue(b.deps.DB, b.queues.Pedestrians, "pedestrians", log, stampPedestrians)
	writeQueue(b.deps.DB, b.queues.TrajectoryPoints, "trajectory points", log, stampTrajectoryPoints)
	writeQueue(b.deps.DB, b.queues.DensityCells, "density cells", log, stampDensityCells)
	writeQueue(b.deps.DB, b.queues.TickPerformances, "tick performances", log, stampTickPerformances)
}

// startDBWriter starts the background goroutine that periodically drains queues into the DB.
func (b *Backend) startDBWriter() {
	go func() {
		ticker := time.NewTicker(b.deps.WriteInterval)
		defer ticker.Stop()

		for {
			select {
			case <-b.stopChan:
				return
			case <-ticker.C:
				b.drainQueues()
			}
		}
	}()
}
