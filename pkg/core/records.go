// pkg/core/records.go
package core

import (
	"time"

	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// TrajectoryPoint is a single position sample of one pedestrian.
// PedID references the Pedestrian's PedID within the run.
type TrajectoryPoint struct {
	RunID     uint
	PedID     string
	SimTimeMs int64
	Position  vec.V
	Velocity  vec.V
}

// DensityCell is one occupied grid cell at a sample time.
// Origin is the cell's lower-left corner in scene coordinates.
type DensityCell struct {
	RunID     uint
	SimTimeMs int64
	Col       int
	Row       int
	Count     int
	Density   float64
	CellSize  float64
	Origin    vec.V
}

// TickStats captures engine performance for a single tick.
type TickStats struct {
	RunID           uint
	Time            time.Time
	SimTimeMs       int64
	WallDuration    time.Duration
	PedestrianCount int
	Workers         int
	QueueLengths    QueueLengths
}

// QueueLengths reports the backlog in the recorder queues at sample time.
type QueueLengths struct {
	Trajectories uint16
	DensityCells uint16
	TickStats    uint16
}

// UploadMetadata describes an exported recording for the upload API.
type UploadMetadata struct {
	SceneName   string
	RunName     string
	DurationSec float64
	Tag         string
}
