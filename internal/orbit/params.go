// Package orbit derives coarse orbital parameters from a TLE's mean
// motion using two-body mechanics. The circular-orbit approximation only
// seeds a classification prior and is overridden by propagated altitude
// whenever SGP4 succeeds.
package orbit

import "math"

const (
	// MU is Earth's gravitational parameter in km^3/s^2.
	MU = 398600.4418
	// REarth is Earth's mean radius in km.
	REarth = 6371.0
	// geoAltitudeKm is the geostationary altitude boundary.
	geoAltitudeKm = 35786.0
)

// Params holds the closed-form orbital parameters for a given mean motion.
type Params struct {
	SemiMajorAxisKm float64
	AltitudeKm      float64
	VelocityKmS     float64 // circular-orbit approximation
	Region          string
}

// FromMeanMotion computes semi-major axis, altitude, velocity and region
// from mean motion in revolutions per day.
func FromMeanMotion(meanMotion float64) Params {
	periodSec := 86400.0 / meanMotion
	a := math.Cbrt(MU * math.Pow(periodSec/(2*math.Pi), 2))
	alt := a - REarth

	return Params{
		SemiMajorAxisKm: a,
		AltitudeKm:      alt,
		VelocityKmS:     math.Sqrt(MU / a),
		Region:          RegionForAltitude(alt),
	}
}

// RegionForAltitude maps an altitude in km onto the coarse LEO/MEO/GEO
// ladder. Ignores eccentricity and inclination.
func RegionForAltitude(altitudeKm float64) string {
	switch {
	case altitudeKm < 2000:
		return "LEO"
	case altitudeKm < geoAltitudeKm:
		return "MEO"
	default:
		return "GEO"
	}
}
