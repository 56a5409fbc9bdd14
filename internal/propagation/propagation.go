// Package propagation wraps an SGP4-class numerical propagator behind a
// small capability interface so the classification pipeline can be tested
// with a deterministic stub.
package propagation

import "time"

// Vec3 is a cartesian triple in an Earth-centered inertial frame.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// State is a propagated position/velocity pair, km and km/s, stamped at
// calculation time. Produced only by a successful propagation.
type State struct {
	PositionKm   Vec3
	VelocityKmS  Vec3
	CalculatedAt time.Time
}

// Magnitude returns the length of the vector.
func (v Vec3) Magnitude() float64 {
	return magnitude(v.X, v.Y, v.Z)
}

// Propagator advances a TLE to a target instant. Implementations return a
// nil State and an error on any numerical failure; they never retry.
type Propagator interface {
	Propagate(line1, line2 string, at time.Time) (*State, error)
}
