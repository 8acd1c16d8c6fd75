// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"

	"github.com/geo-mart/ABPedSim/internal/model"
	"github.com/geo-mart/ABPedSim/pkg/core"
	"github.com/geo-mart/ABPedSim/pkg/vec"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// vecToPoint converts a vec.V to a geom.Point
func vecToPoint(v vec.V) geom.Point {
	coords := geom.Coordinates{XY: geom.XY{X: v.X, Y: v.Y}}
	return geom.NewPoint(coords)
}

// stringsToJSON converts a []string to datatypes.JSON for DB storage.
func stringsToJSON(values []string) datatypes.JSON {
	if len(values) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(values)
	return datatypes.JSON(data)
}

// CoreToScene converts a core.Scene to a GORM model.Scene.
func CoreToScene(s core.Scene) model.Scene {
	return model.Scene{
		Name:       s.Name,
		SourceEPSG: s.SourceEPSG,
		Boundaries: stringsToJSON(s.BoundaryWKT),
	}
}

// CoreToRun converts a core.Run to a GORM model.Run.
func CoreToRun(r core.Run) model.Run {
	var endTime sql.NullTime
	if r.EndTime != nil {
		endTime = sql.NullTime{Time: *r.EndTime, Valid: true}
	}

	return model.Run{
		Name:            r.Name,
		StartTime:       r.StartTime,
		EndTime:         endTime,
		SceneID:         r.SceneID,
		TimeStep:        r.TimeStep,
		Integrator:      r.Integrator,
		ForceModel:      r.ForceModel,
		Seed:            r.Seed,
		EngineVersion:   r.EngineVersion,
		Tag:             r.Tag,
		PedestrianCount: r.PedestrianCount,
	}
}

// CoreToPedestrian converts a core.Pedestrian to a GORM model.Pedestrian.
func CoreToPedestrian(p core.Pedestrian) model.Pedestrian {
	return model.Pedestrian{
		RunID:          p.RunID,
		PedID:          p.PedID,
		CrowdName:      p.CrowdName,
		NormalDesired:  p.NormalDesired,
		MaximumDesired: p.MaximumDesired,
		StartPosition:  vecToPoint(p.StartPosition),
		Route:          stringsToJSON(p.Route),
	}
}

// CoreToTrajectoryPoint converts a core.TrajectoryPoint to a GORM model.TrajectoryPoint.
func CoreToTrajectoryPoint(tp core.TrajectoryPoint) model.TrajectoryPoint {
	return model.TrajectoryPoint{
		RunID:     tp.RunID,
		PedID:     tp.PedID,
		SimTimeMs: tp.SimTimeMs,
		Position:  vecToPoint(tp.Position),
		VelocityX: tp.Velocity.X,
		VelocityY: tp.Velocity.Y,
		Speed:     float32(tp.Velocity.Length()),
	}
}

// CoreToDensityCell converts a core.DensityCell to a GORM model.DensityCell.
func CoreToDensityCell(dc core.DensityCell) model.DensityCell {
	return model.DensityCell{
		RunID:     dc.RunID,
		SimTimeMs: dc.SimTimeMs,
		Col:       dc.Col,
		Row:       dc.Row,
		Count:     dc.Count,
		Density:   dc.Density,
		CellSize:  dc.CellSize,
		OriginX:   dc.Origin.X,
		OriginY:   dc.Origin.Y,
	}
}

// CoreToTickPerformance converts a core.TickStats to a GORM model.TickPerformance.
func CoreToTickPerformance(ts core.TickStats) model.TickPerformance {
	return model.TickPerformance{
		Time:            ts.Time,
		RunID:           ts.RunID,
		SimTimeMs:       ts.SimTimeMs,
		TickDurationMs:  float32(ts.WallDuration.Seconds() * 1000),
		PedestrianCount: uint16(ts.PedestrianCount),
		Workers:         uint8(ts.Workers),
		QueueLengths: model.QueueLengths{
			Trajectories: ts.QueueLengths.Trajectories,
			DensityCells: ts.QueueLengths.DensityCells,
			TickStats:    ts.QueueLengths.TickStats,
		},
	}
}
