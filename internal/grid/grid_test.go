package grid

import (
	"testing"

	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/internal/ped"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

func testBounds() geo.Rect {
	return geo.Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 50}
}

func TestNewRejectsEmptyBounds(t *testing.T) {
	if _, err := New(geo.Rect{}, DefaultCellSize, 0); err == nil {
		t.Fatalf("expected error for empty bounds")
	}
}

func TestCellSizeGrowsToFitCap(t *testing.T) {
	huge := geo.Rect{MinX: 0, MinY: 0, MaxX: 5e6, MaxY: 5e6}
	g, err := New(huge, 1, 0)
	if err != nil {
		t.Fatalf("failed to build grid: %v", err)
	}
	cols, rows := g.Dimensions()
	if cols*rows > 1_000_000 {
		t.Errorf("raster %dx%d exceeds the cell cap", cols, rows)
	}
	if g.CellSize() <= 1 {
		t.Errorf("cell size %v was not coarsened", g.CellSize())
	}
}

func TestUpdateCountsPedestrians(t *testing.T) {
	g, err := New(testBounds(), DefaultCellSize, 1000)
	if err != nil {
		t.Fatalf("failed to build grid: %v", err)
	}
	snapshots := []ped.Snapshot{
		{ID: "p1", Position: vec.New(5, 5)},
		{ID: "p2", Position: vec.New(7, 3)},
		{ID: "p3", Position: vec.New(35, 25)},
		{ID: "p4", Position: vec.New(-20, 5)}, // outside the bounds
	}
	if !g.Update(0, snapshots) {
		t.Fatalf("first update was throttled")
	}

	cells := g.OccupiedCells()
	if len(cells) != 2 {
		t.Fatalf("got %d occupied cells, want 2", len(cells))
	}
	byOrigin := map[[2]float64]Cell{}
	for _, c := range cells {
		x, y := g.CellOrigin(c.Col, c.Row)
		byOrigin[[2]float64{x, y}] = c
	}
	if c := byOrigin[[2]float64{0, 0}]; c.Count != 2 {
		t.Errorf("origin cell count = %d, want 2", c.Count)
	}
	if c := byOrigin[[2]float64{30, 20}]; c.Count != 1 {
		t.Errorf("cell (30,20) count = %d, want 1", c.Count)
	}
	if c := byOrigin[[2]float64{0, 0}]; c.Density != 2.0/100 {
		t.Errorf("density = %v, want 0.02", c.Density)
	}
}

func TestUpdateThrottled(t *testing.T) {
	g, err := New(testBounds(), DefaultCellSize, 1000)
	if err != nil {
		t.Fatalf("failed to build grid: %v", err)
	}
	one := []ped.Snapshot{{ID: "p1", Position: vec.New(5, 5)}}

	if !g.Update(0, one) {
		t.Fatalf("first update was throttled")
	}
	if g.Update(500, nil) {
		t.Errorf("update inside the interval was not throttled")
	}
	if len(g.OccupiedCells()) != 1 {
		t.Errorf("throttled update modified the raster")
	}
	if !g.Update(1000, nil) {
		t.Errorf("update after the interval was throttled")
	}
	if len(g.OccupiedCells()) != 0 {
		t.Errorf("raster not cleared by the accepted update")
	}
}
