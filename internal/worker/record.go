package worker

import (
	"fmt"
	"time"

	"github.com/geo-mart/ABPedSim/pkg/core"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// StartRun opens the run on the backend and registers every pedestrian
// currently loaded into the simulator.
func (m *Manager) StartRun(run *core.Run, scene *core.Scene) error {
	if err := m.backend.StartRun(run, scene); err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	m.run = run
	m.lastDensityMs = 0
	m.densityRecorded = false
	m.deps.PedestrianCache.Reset()

	count := 0
	for _, c := range m.sim.Crowds() {
		for _, p := range c.Pedestrians() {
			route := p.Wayfinding().Route()
			names := make([]string, len(route))
			for i, wp := range route {
				names[i] = wp.Position().String()
			}
			coreObj := core.Pedestrian{
				RunID:          run.ID,
				PedID:          p.ID(),
				CrowdName:      c.Name(),
				NormalDesired:  p.NormalDesiredVelocity(),
				MaximumDesired: p.MaximumDesiredVelocity(),
				StartPosition:  p.InitialPosition(),
				Route:          names,
			}
			m.deps.PedestrianCache.Add(coreObj)
			if err := m.backend.AddPedestrian(&coreObj); err != nil {
				return fmt.Errorf("failed to register pedestrian %q: %w", p.ID(), err)
			}
			count++
		}
	}

	run.PedestrianCount = count
	m.deps.LogManager.Logger().Info("run started",
		"run", run.Name, "pedestrians", count)
	return nil
}

// EndRun flushes and closes the run on the backend.
func (m *Manager) EndRun() error {
	if m.run == nil {
		return ErrNoActiveRun
	}
	err := m.backend.EndRun()
	m.run = nil
	return err
}

// RecordTick captures the simulator state after a tick: one trajectory
// point per pedestrian, the density raster when its interval has elapsed,
// and a performance sample. wall is the wall time the tick took.
func (m *Manager) RecordTick(timeMs int64, wall time.Duration) error {
	if m.run == nil {
		return ErrNoActiveRun
	}

	runID := m.run.ID
	snapshots := m.sim.Snapshots()
	for _, s := range snapshots {
		tp := core.TrajectoryPoint{
			RunID:     runID,
			PedID:     s.ID,
			SimTimeMs: timeMs,
			Position:  s.Position,
			Velocity:  s.Velocity,
		}
		if err := m.backend.RecordTrajectoryPoint(&tp); err != nil {
			return fmt.Errorf("failed to record trajectory point for %q: %w", s.ID, err)
		}
	}

	if err := m.recordDensity(timeMs, runID); err != nil {
		return err
	}

	stats := core.TickStats{
		RunID:           runID,
		Time:            time.Now(),
		SimTimeMs:       timeMs,
		WallDuration:    wall,
		PedestrianCount: len(snapshots),
		Workers:         m.maxWorkers(),
		QueueLengths:    m.QueueLengths(),
	}
	if err := m.backend.RecordTickStats(&stats); err != nil {
		return fmt.Errorf("failed to record tick stats: %w", err)
	}
	return nil
}

// recordDensity records the occupied grid cells, at most once per density
// interval. The first call always records.
func (m *Manager) recordDensity(timeMs int64, runID uint) error {
	g := m.sim.Grid()
	if g == nil {
		return nil
	}
	if m.densityRecorded && timeMs-m.lastDensityMs < m.densityIntervalMs {
		return nil
	}
	m.lastDensityMs = timeMs
	m.densityRecorded = true

	cellSize := g.CellSize()
	for _, cell := range g.OccupiedCells() {
		ox, oy := g.CellOrigin(cell.Col, cell.Row)
		dc := core.DensityCell{
			RunID:     runID,
			SimTimeMs: timeMs,
			Col:       cell.Col,
			Row:       cell.Row,
			Count:     cell.Count,
			Density:   cell.Density,
			CellSize:  cellSize,
			Origin:    vec.V{X: ox, Y: oy},
		}
		if err := m.backend.RecordDensityCell(&dc); err != nil {
			return fmt.Errorf("failed to record density cell: %w", err)
		}
	}
	return nil
}

// maxWorkers reports the largest worker pool across the crowds.
func (m *Manager) maxWorkers() int {
	var workers int
	for _, c := range m.sim.Crowds() {
		if w := c.Workers(); w > workers {
			workers = w
		}
	}
	return workers
}
