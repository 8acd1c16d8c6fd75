package convert

import (
	"encoding/json"

	"github.com/geo-mart/ABPedSim/internal/model"
	"github.com/geo-mart/ABPedSim/pkg/core"
	"github.com/geo-mart/ABPedSim/pkg/vec"
	geom "github.com/peterstace/simplefeatures/geom"
)

// pointToVec converts a geom.Point to a vec.V
func pointToVec(p geom.Point) vec.V {
	coord, ok := p.Coordinates()
	if !ok {
		return vec.V{}
	}
	return vec.V{X: coord.XY.X, Y: coord.XY.Y}
}

// jsonToStrings converts a datatypes.JSON array back to a []string.
func jsonToStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	var values []string
	_ = json.Unmarshal(data, &values)
	return values
}

// SceneToCore converts a GORM Scene to a core.Scene.
func SceneToCore(s model.Scene) core.Scene {
	return core.Scene{
		ID:          s.ID,
		Name:        s.Name,
		SourceEPSG:  s.SourceEPSG,
		BoundaryWKT: jsonToStrings(s.Boundaries),
	}
}

// RunToCore converts a GORM Run to a core.Run.
func RunToCore(r model.Run) core.Run {
	run := core.Run{
		ID:              r.ID,
		Name:            r.Name,
		StartTime:       r.StartTime,
		SceneID:         r.SceneID,
		TimeStep:        r.TimeStep,
		Integrator:      r.Integrator,
		ForceModel:      r.ForceModel,
		Seed:            r.Seed,
		EngineVersion:   r.EngineVersion,
		Tag:             r.Tag,
		PedestrianCount: r.PedestrianCount,
	}
	if r.EndTime.Valid {
		end := r.EndTime.Time
		run.EndTime = &end
	}
	return run
}

// PedestrianToCore converts a GORM Pedestrian to a core.Pedestrian.
func PedestrianToCore(p model.Pedestrian) core.Pedestrian {
	return core.Pedestrian{
		RunID:          p.RunID,
		PedID:          p.PedID,
		CrowdName:      p.CrowdName,
		NormalDesired:  p.NormalDesired,
		MaximumDesired: p.MaximumDesired,
		StartPosition:  pointToVec(p.StartPosition),
		Route:          jsonToStrings(p.Route),
	}
}

// TrajectoryPointToCore converts a GORM TrajectoryPoint to a core.TrajectoryPoint.
func TrajectoryPointToCore(tp model.TrajectoryPoint) core.TrajectoryPoint {
	return core.TrajectoryPoint{
		RunID:     tp.RunID,
		PedID:     tp.PedID,
		SimTimeMs: tp.SimTimeMs,
		Position:  pointToVec(tp.Position),
		Velocity:  vec.V{X: tp.VelocityX, Y: tp.VelocityY},
	}
}

// DensityCellToCore converts a GORM DensityCell to a core.DensityCell.
func DensityCellToCore(dc model.DensityCell) core.DensityCell {
	return core.DensityCell{
		RunID:     dc.RunID,
		SimTimeMs: dc.SimTimeMs,
		Col:       dc.Col,
		Row:       dc.Row,
		Count:     dc.Count,
		Density:   dc.Density,
		CellSize:  dc.CellSize,
		Origin:    vec.V{X: dc.OriginX, Y: dc.OriginY},
	}
}
