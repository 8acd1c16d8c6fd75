package wayfinding

import (
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// Model is the per-pedestrian wayfinding state machine. It owns the current
// destination waypoint and the concrete target point on its gate, and keeps
// the orientation and course-deviation flags the integrator reacts to.
type Model interface {
	// UpdateTarget refreshes the target point and walking direction if the
	// pedestrian needs (re)orientation or has drifted off course.
	// desiredVelocity is the pedestrian's normal desired speed, used for the
	// slow-progress trigger.
	UpdateTarget(position vec.V, timeMs int64, desiredVelocity float64)

	// Direction returns the normalized walking direction, or the zero
	// vector when the pedestrian has no target.
	Direction() vec.V

	// Target returns the current target point. ok is false when the
	// pedestrian is lost or has visited every waypoint.
	Target() (target vec.V, ok bool)

	// Destination returns the waypoint currently steered for, or nil once
	// every waypoint has been visited.
	Destination() *WayPoint

	// Route returns the full waypoint sequence, visited or not. The
	// returned slice must not be mutated.
	Route() []*WayPoint

	// Visited returns the waypoints passed so far, in passing order. The
	// returned slice must not be mutated.
	Visited() []*WayPoint

	// AverageSpeed returns the pedestrian's average speed along the route
	// since the start of the run, in m/s. On the start tick, before any
	// simulated time has elapsed, it reports the normal desired speed.
	AverageSpeed(position vec.V, timeMs int64) float64

	// CheckWaypointPassing tests whether the movement from oldPos to newPos
	// crossed the destination's extended gate and, if so, advances the
	// route.
	CheckWaypointPassing(timeMs int64, oldPos, newPos vec.V)

	// CheckCourse compares the actual heading with the heading required to
	// reach the target and raises the course-deviation flag on mismatch.
	// The check is throttled by the configured hysteresis.
	CheckCourse(position, velocity vec.V, timeMs int64)

	// NeedsOrientation reports whether the pedestrian must re-acquire a
	// target before moving on.
	NeedsOrientation() bool

	// SetNeedsOrientation raises or clears the orientation flag. The
	// integrator raises it when a move had to be rolled back.
	SetNeedsOrientation(v bool)

	// HasCourseDeviation reports whether the last course check found the
	// heading off by more than the configured angle.
	HasCourseDeviation() bool
}

// Thresholds holds the empirical wayfinding constants. The defaults are the
// calibrated values; they are exposed through configuration.
type Thresholds struct {
	// CourseAngleRad is the heading deviation that counts as off-course.
	CourseAngleRad float64
	// ReuseDistance and ReuseIntervalMs bound the hysteresis window inside
	// which an existing target is kept and the course check is skipped.
	ReuseDistance   float64
	ReuseIntervalMs int64
	// GateProximity is the along-route distance from the gate below which
	// passing detection runs (twice the pedestrian radius).
	GateProximity float64
}

// DefaultThresholds returns the calibrated wayfinding constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CourseAngleRad:  0.0175,
		ReuseDistance:   5.0,
		ReuseIntervalMs: 5000,
		GateProximity:   0.6,
	}
}
