package convert

import (
	"database/sql"
	"testing"
	"time"

	"github.com/geo-mart/ABPedSim/internal/model"
	"github.com/geo-mart/ABPedSim/pkg/vec"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// Helper to create a geom.Point from coordinates
func makePoint(x, y float64) geom.Point {
	coords := geom.Coordinates{XY: geom.XY{X: x, Y: y}}
	return geom.NewPoint(coords)
}

func TestPointToVec(t *testing.T) {
	v := pointToVec(makePoint(100.5, 200.5))

	assert.Equal(t, 100.5, v.X)
	assert.Equal(t, 200.5, v.Y)
}

func TestPointToVec_EmptyPoint(t *testing.T) {
	assert.Equal(t, vec.V{}, pointToVec(geom.Point{}))
}

func TestSceneToCore(t *testing.T) {
	m := model.Scene{
		Name:       "station-hall",
		SourceEPSG: 3857,
		Boundaries: datatypes.JSON(`["LINESTRING(0 0,10 0)"]`),
	}
	m.ID = 5

	s := SceneToCore(m)

	assert.Equal(t, uint(5), s.ID)
	assert.Equal(t, "station-hall", s.Name)
	require.Len(t, s.BoundaryWKT, 1)
	assert.Equal(t, "LINESTRING(0 0,10 0)", s.BoundaryWKT[0])
}

func TestRunToCore(t *testing.T) {
	start := time.Now()
	end := start.Add(time.Minute)

	m := model.Run{
		Name:            "morning-rush",
		StartTime:       start,
		EndTime:         sql.NullTime{Time: end, Valid: true},
		SceneID:         3,
		TimeStep:        0.05,
		Integrator:      "semi-implicit-euler",
		ForceModel:      "buzna",
		Seed:            42,
		PedestrianCount: 80,
	}
	m.ID = 9

	r := RunToCore(m)

	assert.Equal(t, uint(9), r.ID)
	assert.Equal(t, start, r.StartTime)
	require.NotNil(t, r.EndTime)
	assert.Equal(t, end, *r.EndTime)
	assert.Equal(t, uint64(42), r.Seed)
}

func TestRunToCore_NoEndTime(t *testing.T) {
	r := RunToCore(model.Run{Name: "running"})
	assert.Nil(t, r.EndTime)
}

func TestPedestrianRoundTrip(t *testing.T) {
	orig := model.Pedestrian{
		RunID:          7,
		PedID:          "p3",
		CrowdName:      "tourists",
		NormalDesired:  1.1,
		MaximumDesired: 1.4,
		StartPosition:  makePoint(1, 2),
		Route:          datatypes.JSON(`["a","b","c"]`),
	}

	c := PedestrianToCore(orig)
	back := CoreToPedestrian(c)

	assert.Equal(t, orig.RunID, back.RunID)
	assert.Equal(t, orig.PedID, back.PedID)
	assert.Equal(t, orig.NormalDesired, back.NormalDesired)
	assert.Equal(t, string(orig.Route), string(back.Route))
	assert.Equal(t, vec.V{X: 1, Y: 2}, c.StartPosition)
}

func TestTrajectoryPointToCore(t *testing.T) {
	m := model.TrajectoryPoint{
		RunID:     7,
		PedID:     "p3",
		SimTimeMs: 250,
		Position:  makePoint(4, 8),
		VelocityX: 1.5,
		VelocityY: -0.5,
	}

	tp := TrajectoryPointToCore(m)

	assert.Equal(t, int64(250), tp.SimTimeMs)
	assert.Equal(t, vec.V{X: 4, Y: 8}, tp.Position)
	assert.Equal(t, vec.V{X: 1.5, Y: -0.5}, tp.Velocity)
}

func TestDensityCellToCore(t *testing.T) {
	m := model.DensityCell{
		RunID:     7,
		SimTimeMs: 1000,
		Col:       2,
		Row:       3,
		Count:     5,
		Density:   0.05,
		CellSize:  10,
	}

	dc := DensityCellToCore(m)

	assert.Equal(t, 2, dc.Col)
	assert.Equal(t, 3, dc.Row)
	assert.Equal(t, 5, dc.Count)
	assert.Equal(t, 0.05, dc.Density)
}
