package worker

import (
	"fmt"
	"time"

	"github.com/geo-mart/ABPedSim/internal/cache"
	"github.com/geo-mart/ABPedSim/internal/logging"
	"github.com/geo-mart/ABPedSim/internal/sim"
	"github.com/geo-mart/ABPedSim/internal/storage"
	"github.com/geo-mart/ABPedSim/pkg/core"
)

// ErrNoActiveRun is returned when tick data arrives before a run is started
var ErrNoActiveRun = fmt.Errorf("no active run")

// Dependencies holds all dependencies for the recorder manager
type Dependencies struct {
	PedestrianCache *cache.PedestrianCache
	LogManager      *logging.SlogManager
}

// Manager drains simulation state into a storage backend
type Manager struct {
	deps    Dependencies
	backend storage.Backend
	sim     *sim.Simulator

	run *core.Run

	// DensityIntervalMs throttles density cell recording; it mirrors the
	// grid's own update interval so each raster is recorded once.
	densityIntervalMs int64
	lastDensityMs     int64
	densityRecorded   bool
}

// NewManager creates a new recorder manager
func NewManager(deps Dependencies, backend storage.Backend, s *sim.Simulator, densityIntervalMs int64) *Manager {
	return &Manager{
		deps:              deps,
		backend:           backend,
		sim:               s,
		densityIntervalMs: densityIntervalMs,
	}
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}

// QueueLengthsProvider is an optional interface that backends can implement
// to expose their write queue backlog.
type QueueLengthsProvider interface {
	QueueLengths() core.QueueLengths
}

// QueueLengths returns the backend's write queue backlog, zero if the
// backend doesn't expose one.
func (m *Manager) QueueLengths() core.QueueLengths {
	if p, ok := m.backend.(QueueLengthsProvider); ok {
		return p.QueueLengths()
	}
	return core.QueueLengths{}
}
