package wayfinding

import (
	"log/slog"
	"math"
	"sort"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// FollowWaypoints steers a pedestrian along an ordered waypoint route. It
// holds a concrete target point on the destination's gate and re-acquires it
// through a visibility-driven cascade whenever orientation is lost.
type FollowWaypoints struct {
	route      []*WayPoint
	boundaries []*geo.Boundary
	thresholds Thresholds
	logger     *slog.Logger

	nextIndex int
	visited   []*WayPoint

	target               vec.V
	hasTarget            bool
	lastVisibleTarget    vec.V
	hasLastVisibleTarget bool
	direction            vec.V

	needsOrientation   bool
	hasCourseDeviation bool

	started       bool
	startTimeMs   int64
	startPosition vec.V
	desiredSpeed  float64

	lastOrientationMs  int64
	lastOrientationPos vec.V
	lastCourseMs       int64
	lastCoursePos      vec.V

	// sum of axis lengths of all visited waypoints
	visitedDistance float64
}

// NewFollowWaypoints creates the wayfinding state machine for one
// pedestrian. The route and boundary set are shared, read-only data.
func NewFollowWaypoints(route []*WayPoint, boundaries []*geo.Boundary, thresholds Thresholds, logger *slog.Logger) *FollowWaypoints {
	if logger == nil {
		logger = slog.Default()
	}
	return &FollowWaypoints{
		route:            route,
		boundaries:       boundaries,
		thresholds:       thresholds,
		logger:           logger,
		needsOrientation: true,
	}
}

// Destination implements Model.
func (f *FollowWaypoints) Destination() *WayPoint {
	if f.nextIndex >= len(f.route) {
		return nil
	}
	return f.route[f.nextIndex]
}

// Route implements Model.
func (f *FollowWaypoints) Route() []*WayPoint {
	return f.route
}

// Visited implements Model.
func (f *FollowWaypoints) Visited() []*WayPoint {
	return f.visited
}

// Direction implements Model.
func (f *FollowWaypoints) Direction() vec.V {
	return f.direction
}

// Target implements Model.
func (f *FollowWaypoints) Target() (vec.V, bool) {
	return f.target, f.hasTarget
}

// NeedsOrientation implements Model.
func (f *FollowWaypoints) NeedsOrientation() bool {
	return f.needsOrientation
}

// SetNeedsOrientation implements Model.
func (f *FollowWaypoints) SetNeedsOrientation(v bool) {
	f.needsOrientation = v
}

// HasCourseDeviation implements Model.
func (f *FollowWaypoints) HasCourseDeviation() bool {
	return f.hasCourseDeviation
}

// AverageSpeed implements Model. The distance covered is measured along the
// route: the axes of all visited waypoints plus the projection onto the
// current axis.
func (f *FollowWaypoints) AverageSpeed(position vec.V, timeMs int64) float64 {
	if !f.started || timeMs <= f.startTimeMs {
		// no simulated time has elapsed yet; report the normal desired
		// speed so the intrinsic drive starts there instead of at the
		// maximum
		return f.desiredSpeed
	}
	total := f.visitedDistance
	if dest := f.Destination(); dest != nil {
		total += dest.DistanceAlongAxis(position)
	}
	return total / (float64(timeMs-f.startTimeMs) / 1000)
}

// UpdateTarget implements Model.
func (f *FollowWaypoints) UpdateTarget(position vec.V, timeMs int64, desiredVelocity float64) {
	if !f.started {
		f.started = true
		f.startTimeMs = timeMs
		f.startPosition = position
	}
	f.desiredSpeed = desiredVelocity

	if f.Destination() == nil {
		f.direction = vec.V{}
		f.hasTarget = false
		return
	}

	// a pedestrian making almost no progress toward an occluded target has
	// run into something; force reorientation
	if f.hasTarget && desiredVelocity > 0 &&
		f.AverageSpeed(position, timeMs) < desiredVelocity/10 &&
		!geo.Visible(position, f.target, f.boundaries) {
		f.needsOrientation = true
	}

	if f.needsOrientation || f.hasCourseDeviation {
		f.acquireTarget(position, timeMs)
	}

	if f.hasTarget {
		f.direction = f.target.Sub(position).Normalize()
	} else {
		f.direction = vec.V{}
	}
}

// acquireTarget runs the target acquisition cascade against the destination
// waypoint's gate.
func (f *FollowWaypoints) acquireTarget(position vec.V, timeMs int64) {
	dest := f.Destination()

	// 1: keep the current target while inside the hysteresis window or
	// while it stays visible
	if f.hasTarget {
		recent := timeMs-f.lastOrientationMs <= f.thresholds.ReuseIntervalMs &&
			position.Distance(f.lastOrientationPos) <= f.thresholds.ReuseDistance
		if recent || geo.Visible(position, f.target, f.boundaries) {
			f.adoptTarget(f.target, position, timeMs)
			return
		}
	}

	// 2: nearest point on the gate, if directly visible
	if nearest, ok := geo.NearestPoint(position, dest.Gate()); ok {
		if geo.Visible(position, nearest, f.boundaries) {
			f.adoptTarget(nearest, position, timeMs)
			return
		}
	}

	// 3: discretize the gate and take the nearest visible candidate
	if candidate, ok := f.nearestVisible(position, discretize(dest.Gate(), dest.gateStep)); ok {
		f.adoptTarget(candidate, position, timeMs)
		return
	}

	// 4: walk the axis back toward the previous waypoint; first visible
	// point wins, nearest to the axis start
	axisCandidates := discretize(dest.Axis().AsGeometry(), dest.gateStep)
	sort.Slice(axisCandidates, func(i, j int) bool {
		return dest.DistanceAlongAxis(axisCandidates[i]) < dest.DistanceAlongAxis(axisCandidates[j])
	})
	for _, candidate := range axisCandidates {
		if geo.Visible(position, candidate, f.boundaries) {
			f.adoptTarget(candidate, position, timeMs)
			return
		}
	}

	// 5: fall back to the last target that was ever visible
	if f.hasLastVisibleTarget {
		f.adoptTarget(f.lastVisibleTarget, position, timeMs)
		return
	}

	// lost: no target, no direction, orientation flag stays raised
	f.hasTarget = false
	f.direction = vec.V{}
	f.hasCourseDeviation = false
	f.logger.Debug("pedestrian lost, no visible target",
		"position", position.String(), "waypoint", dest.Position().String())
}

func (f *FollowWaypoints) adoptTarget(target, position vec.V, timeMs int64) {
	f.target = target
	f.hasTarget = true
	f.lastVisibleTarget = target
	f.hasLastVisibleTarget = true
	f.needsOrientation = false
	f.hasCourseDeviation = false
	f.lastOrientationMs = timeMs
	f.lastOrientationPos = position
}

// nearestVisible returns the candidate closest to position that has a free
// line of sight.
func (f *FollowWaypoints) nearestVisible(position vec.V, candidates []vec.V) (vec.V, bool) {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].DistanceSquared(position) < candidates[j].DistanceSquared(position)
	})
	for _, c := range candidates {
		if geo.Visible(position, c, f.boundaries) {
			return c, true
		}
	}
	return vec.V{}, false
}

// CheckWaypointPassing implements Model.
func (f *FollowWaypoints) CheckWaypointPassing(timeMs int64, oldPos, newPos vec.V) {
	dest := f.Destination()
	if dest == nil {
		return
	}

	// fast path: skip the geometry test while still far from the gate
	if dest.DistanceAlongAxis(newPos) <= dest.AxisLength()-f.thresholds.GateProximity {
		return
	}
	if !dest.BBox().IntersectsSegment(oldPos, newPos) {
		return
	}
	if !geo.SegmentIntersects(oldPos, newPos, dest.ExtendedGate()) {
		return
	}

	f.visited = append(f.visited, dest)
	f.visitedDistance += dest.AxisLength()
	f.nextIndex++
	f.hasTarget = false
	f.needsOrientation = true
	if f.Destination() == nil {
		f.direction = vec.V{}
	}
}

// CheckCourse implements Model.
func (f *FollowWaypoints) CheckCourse(position, velocity vec.V, timeMs int64) {
	if !f.hasTarget {
		return
	}
	// hysteresis: re-check only after enough time has passed or the
	// pedestrian has moved far enough
	if f.lastCourseMs != 0 &&
		timeMs-f.lastCourseMs < f.thresholds.ReuseIntervalMs &&
		position.Distance(f.lastCoursePos) < f.thresholds.ReuseDistance {
		return
	}
	f.lastCourseMs = timeMs
	f.lastCoursePos = position

	required := f.target.Sub(position)
	if velocity.IsZero() || required.IsZero() {
		return
	}
	if angleBetween(velocity.Angle(), required.Angle()) > f.thresholds.CourseAngleRad {
		f.hasCourseDeviation = true
	}
}

// angleBetween returns the absolute difference of two normalized angles,
// folded into [0, pi].
func angleBetween(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// discretize samples a linear geometry at the given step, including segment
// endpoints. Multi-part geometries are sampled per part.
func discretize(g geom.Geometry, step float64) []vec.V {
	if step <= 0 {
		return nil
	}
	var points []vec.V
	for _, seq := range geo.Sequences(g) {
		n := seq.Length()
		if n == 1 {
			points = append(points, geo.Vec(seq.GetXY(0)))
			continue
		}
		for i := 0; i < n-1; i++ {
			a := geo.Vec(seq.GetXY(i))
			b := geo.Vec(seq.GetXY(i + 1))
			length := a.Distance(b)
			steps := int(length / step)
			points = append(points, a)
			for s := 1; s <= steps; s++ {
				points = append(points, a.Lerp(b, float64(s)*step/length))
			}
		}
		points = append(points, geo.Vec(seq.GetXY(n-1)))
	}
	return points
}
