// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sync"

	"github.com/geo-mart/ABPedSim/internal/config"
	"github.com/geo-mart/ABPedSim/pkg/core"
)

// PedestrianRecord groups a pedestrian with its recorded trajectory
type PedestrianRecord struct {
	Pedestrian core.Pedestrian
	Points     []core.TrajectoryPoint
}

// Backend stores run data in memory and exports to GeoJSON
type Backend struct {
	cfg   config.MemoryConfig
	run   *core.Run
	scene *core.Scene

	pedestrians map[string]*PedestrianRecord // keyed by PedID
	order       []string                     // registration order, for stable export

	densityCells []core.DensityCell
	tickStats    []core.TickStats

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:         cfg,
		pedestrians: make(map[string]*PedestrianRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRun begins recording a new run
func (b *Backend) StartRun(run *core.Run, scene *core.Scene) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.run = run
	b.scene = scene

	// Reset all collections
	b.pedestrians = make(map[string]*PedestrianRecord)
	b.order = nil
	b.densityCells = nil
	b.tickStats = nil

	return nil
}

// EndRun finalizes and exports the run data
func (b *Backend) EndRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return fmt.Errorf("no active run")
	}
	return b.exportGeoJSON()
}

// AddPedestrian registers a new pedestrian
func (b *Backend) AddPedestrian(p *core.Pedestrian) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.pedestrians[p.PedID]; !exists {
		b.order = append(b.order, p.PedID)
	}
	b.pedestrians[p.PedID] = &PedestrianRecord{
		Pedestrian: *p,
		Points:     make([]core.TrajectoryPoint, 0),
	}
	return nil
}

// RecordTrajectoryPoint appends a position sample to its pedestrian's record
func (b *Backend) RecordTrajectoryPoint(tp *core.TrajectoryPoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.pedestrians[tp.PedID]
	if !ok {
		return fmt.Errorf("unknown pedestrian %q", tp.PedID)
	}
	record.Points = append(record.Points, *tp)
	return nil
}

// RecordDensityCell appends a density sample
func (b *Backend) RecordDensityCell(dc *core.DensityCell) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.densityCells = append(b.densityCells, *dc)
	return nil
}

// RecordTickStats appends a performance sample
func (b *Backend) RecordTickStats(ts *core.TickStats) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tickStats = append(b.tickStats, *ts)
	return nil
}

// GetExportedFilePath returns the path of the last exported file
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last finished run
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	meta := core.UploadMetadata{}
	if b.run != nil {
		meta.RunName = b.run.Name
		meta.Tag = b.run.Tag
		meta.DurationSec = b.durationSec()
	}
	if b.scene != nil {
		meta.SceneName = b.scene.Name
	}
	return meta
}

// durationSec derives the run duration from the latest trajectory sample.
// Callers must hold at least a read lock.
func (b *Backend) durationSec() float64 {
	var maxMs int64
	for _, record := range b.pedestrians {
		if n := len(record.Points); n > 0 {
			if t := record.Points[n-1].SimTimeMs; t > maxMs {
				maxMs = t
			}
		}
	}
	return float64(maxMs) / 1000.0
}
