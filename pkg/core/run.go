// pkg/core/run.go
package core

import (
	"time"

	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// Scene describes the walkable environment a run takes place in.
type Scene struct {
	ID         uint
	Name       string
	SourceEPSG int
	// BoundaryWKT holds the obstacle outlines as WKT strings.
	BoundaryWKT []string
}

// Run represents one recorded simulation run.
type Run struct {
	ID              uint
	Name            string
	StartTime       time.Time
	EndTime         *time.Time
	SceneID         uint
	TimeStep        float64
	Integrator      string
	ForceModel      string
	Seed            uint64
	EngineVersion   string
	Tag             string
	PedestrianCount int
}

// Pedestrian describes one agent registered with a run.
type Pedestrian struct {
	RunID          uint
	PedID          string
	CrowdName      string
	NormalDesired  float64
	MaximumDesired float64
	StartPosition  vec.V
	// Route holds the waypoint names in visit order.
	Route []string
}
