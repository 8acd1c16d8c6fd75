// Package grid rasterizes pedestrian positions into a coarse density grid
// used for load inspection and export.
package grid

import (
	"fmt"
	"sync"

	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/internal/ped"
)

const (
	// DefaultCellSize is the edge length of one density cell in meters.
	DefaultCellSize = 10.0
	// DefaultUpdateIntervalMs throttles grid refreshes.
	DefaultUpdateIntervalMs = 1000
	// maxCells caps the raster size. The cell size is grown until the
	// simulation area fits.
	maxCells = 1_000_000
)

// Cell is one raster cell with its pedestrian count and area density.
type Cell struct {
	Col, Row int
	Count    int
	// Density is pedestrians per square meter.
	Density float64
}

// Grid maintains a throttled density raster over a fixed bounding box.
type Grid struct {
	mu               sync.Mutex
	bounds           geo.Rect
	cellSize         float64
	cols, rows       int
	counts           []int
	updateIntervalMs int64
	lastUpdateMs     int64
	updated          bool
	updating         bool
}

// New builds a grid covering bounds. cellSize is grown in doubling steps
// until the raster fits the cell cap, so arbitrarily large areas degrade to
// a coarser resolution instead of failing.
func New(bounds geo.Rect, cellSize float64, updateIntervalMs int64) (*Grid, error) {
	if bounds.IsEmpty() || bounds.Width() <= 0 || bounds.Height() <= 0 {
		return nil, fmt.Errorf("grid bounds %+v are empty", bounds)
	}
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	if updateIntervalMs <= 0 {
		updateIntervalMs = DefaultUpdateIntervalMs
	}

	cols, rows := dims(bounds, cellSize)
	for cols*rows > maxCells {
		cellSize *= 2
		cols, rows = dims(bounds, cellSize)
	}

	return &Grid{
		bounds:           bounds,
		cellSize:         cellSize,
		cols:             cols,
		rows:             rows,
		counts:           make([]int, cols*rows),
		updateIntervalMs: updateIntervalMs,
	}, nil
}

func dims(bounds geo.Rect, cellSize float64) (cols, rows int) {
	cols = int(bounds.Width()/cellSize) + 1
	rows = int(bounds.Height()/cellSize) + 1
	return cols, rows
}

// CellSize returns the effective cell edge length after the cap was
// applied.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Dimensions returns the raster size.
func (g *Grid) Dimensions() (cols, rows int) { return g.cols, g.rows }

// IsUpdating reports whether an update pass is currently rasterizing.
// Readers that cannot tolerate a half-written raster should retry.
func (g *Grid) IsUpdating() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.updating
}

// Update re-rasterizes the pedestrian positions. Calls arriving before the
// update interval has elapsed are dropped; the first call always runs.
func (g *Grid) Update(timeMs int64, snapshots []ped.Snapshot) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.updated && timeMs-g.lastUpdateMs < g.updateIntervalMs {
		return false
	}
	g.updating = true
	g.lastUpdateMs = timeMs
	g.updated = true

	clear(g.counts)
	for _, s := range snapshots {
		col := int((s.Position.X - g.bounds.MinX) / g.cellSize)
		row := int((s.Position.Y - g.bounds.MinY) / g.cellSize)
		if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
			continue
		}
		g.counts[row*g.cols+col]++
	}

	g.updating = false
	return true
}

// OccupiedCells returns the cells holding at least one pedestrian.
func (g *Grid) OccupiedCells() []Cell {
	g.mu.Lock()
	defer g.mu.Unlock()

	area := g.cellSize * g.cellSize
	var cells []Cell
	for i, count := range g.counts {
		if count == 0 {
			continue
		}
		cells = append(cells, Cell{
			Col:     i % g.cols,
			Row:     i / g.cols,
			Count:   count,
			Density: float64(count) / area,
		})
	}
	return cells
}

// CellOrigin returns the lower left corner of a cell in world coordinates.
func (g *Grid) CellOrigin(col, row int) (x, y float64) {
	return g.bounds.MinX + float64(col)*g.cellSize, g.bounds.MinY + float64(row)*g.cellSize
}
