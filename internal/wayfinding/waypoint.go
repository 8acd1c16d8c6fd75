// Package wayfinding implements visibility-constrained target planning: a
// pedestrian walks an ordered sequence of waypoints, each carrying a
// perpendicular gate line it must cross, and re-acquires a concrete target
// point on that gate whenever orientation is lost.
package wayfinding

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// GateConfig controls the gate geometry built for each waypoint.
type GateConfig struct {
	// HalfLength is the distance the gate extends to each side of the
	// waypoint.
	HalfLength float64
	// ExtensionRatio scales the half length of the extended gate used for
	// passing detection.
	ExtensionRatio float64
}

// DefaultGateConfig returns the calibrated gate geometry.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		HalfLength:     4.0,
		ExtensionRatio: 1.2,
	}
}

// WayPoint is one stop on a pedestrian's route. The gate is the
// perpendicular line a pedestrian aims at; the extended gate is the longer
// variant used to detect passing; the axis runs from the previous waypoint
// (or the route start) to this one. All geometry is clipped against the
// obstacle union so targets are never placed inside walls.
type WayPoint struct {
	position     vec.V
	gate         geom.Geometry
	extendedGate geom.Geometry
	bbox         geo.Rect
	axis         geom.LineString
	axisStart    vec.V
	axisDir      vec.V
	axisLength   float64
	gateStep     float64
}

// NewWayPoint builds a waypoint at position, oriented by the axis from
// previous. obstacles is the union of all boundary geometries.
func NewWayPoint(position, previous vec.V, cfg GateConfig, obstacles geom.Geometry) (*WayPoint, error) {
	gateLine, err := geo.PerpendicularLine(position, previous, cfg.HalfLength)
	if err != nil {
		return nil, fmt.Errorf("waypoint at %s: %w", position, err)
	}
	extendedLine, err := geo.PerpendicularLine(position, previous, cfg.HalfLength*cfg.ExtensionRatio)
	if err != nil {
		return nil, fmt.Errorf("waypoint at %s: %w", position, err)
	}

	gate, err := geo.ClipAway(gateLine, obstacles)
	if err != nil {
		return nil, fmt.Errorf("waypoint at %s: %w", position, err)
	}
	extended, err := geo.ClipAway(extendedLine, obstacles)
	if err != nil {
		return nil, fmt.Errorf("waypoint at %s: %w", position, err)
	}

	axis := geo.Segment(previous, position)
	axisVec := position.Sub(previous)

	return &WayPoint{
		position:     position,
		gate:         gate,
		extendedGate: extended,
		bbox:         geo.RectOf(extended, 0),
		axis:         axis,
		axisStart:    previous,
		axisDir:      axisVec.Normalize(),
		axisLength:   axisVec.Length(),
		gateStep:     cfg.HalfLength / 20,
	}, nil
}

// BuildRoute builds the ordered waypoint list for a route starting at start
// and visiting stops in order.
func BuildRoute(start vec.V, stops []vec.V, cfg GateConfig, obstacles geom.Geometry) ([]*WayPoint, error) {
	route := make([]*WayPoint, 0, len(stops))
	previous := start
	for i, stop := range stops {
		wp, err := NewWayPoint(stop, previous, cfg, obstacles)
		if err != nil {
			return nil, fmt.Errorf("route stop %d: %w", i, err)
		}
		route = append(route, wp)
		previous = stop
	}
	return route, nil
}

// Position returns the waypoint center.
func (w *WayPoint) Position() vec.V {
	return w.position
}

// Gate returns the clipped gate geometry targets are placed on.
func (w *WayPoint) Gate() geom.Geometry {
	return w.gate
}

// ExtendedGate returns the clipped extended gate used for passing detection.
func (w *WayPoint) ExtendedGate() geom.Geometry {
	return w.extendedGate
}

// BBox returns the bounding box of the extended gate.
func (w *WayPoint) BBox() geo.Rect {
	return w.bbox
}

// Axis returns the line from the previous waypoint to this one.
func (w *WayPoint) Axis() geom.LineString {
	return w.axis
}

// AxisLength returns the length of the axis.
func (w *WayPoint) AxisLength() float64 {
	return w.axisLength
}

// DistanceAlongAxis returns the signed projection of p onto the axis,
// measured from the axis start.
func (w *WayPoint) DistanceAlongAxis(p vec.V) float64 {
	return p.Sub(w.axisStart).Dot(w.axisDir)
}
