// internal/storage/storage.go
package storage

import "github.com/geo-mart/ABPedSim/pkg/core"

// Backend is the interface all recording backends must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management
	StartRun(run *core.Run, scene *core.Scene) error
	EndRun() error

	// Pedestrian registration
	AddPedestrian(p *core.Pedestrian) error

	// State recording
	RecordTrajectoryPoint(tp *core.TrajectoryPoint) error
	RecordDensityCell(dc *core.DensityCell) error
	RecordTickStats(ts *core.TickStats) error
}

// Uploadable is an optional interface for recording backends that produce
// files suitable for upload to a replay frontend.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
