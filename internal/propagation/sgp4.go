package propagation

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Pure Go (no CGO), explicit TEME output, widely used. Propagate() takes
// the Satellite by value so SGP4 error codes are not visible to the
// caller; failures are detected by checking the output for NaN/Inf and
// unreasonable position magnitudes instead.

// SGP4 propagates TLEs with the go-satellite numerical model.
type SGP4 struct{}

// NewSGP4 returns the production propagator.
func NewSGP4() *SGP4 {
	return &SGP4{}
}

// Propagate advances the TLE to the given instant and returns position in
// km (3 decimals) and velocity in km/s (6 decimals), or an error when the
// model fails to initialize or produces garbage.
func (p *SGP4) Propagate(line1, line2 string, at time.Time) (*State, error) {
	if err := validateLines(line1, line2); err != nil {
		return nil, fmt.Errorf("invalid TLE: %w", err)
	}

	sat := satellite.TLEToSat(strings.TrimSpace(line1), strings.TrimSpace(line2), satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed: code=%d %s", sat.Error, sat.ErrorStr)
	}

	at = at.UTC()
	pos, vel := satellite.Propagate(sat, at.Year(), int(at.Month()), at.Day(), at.Hour(), at.Minute(), at.Second())

	if hasNaNOrInf(pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z) {
		return nil, fmt.Errorf("sgp4 propagation failed: output is NaN/Inf")
	}

	// Position magnitude between ~6200 km (decayed) and ~50000 km (beyond GEO).
	if mag := magnitude(pos.X, pos.Y, pos.Z); mag < 6200.0 || mag > 50000.0 {
		return nil, fmt.Errorf("sgp4 propagation failed: unreasonable position magnitude %.1f km", mag)
	}

	return &State{
		PositionKm:   Vec3{X: round(pos.X, 3), Y: round(pos.Y, 3), Z: round(pos.Z, 3)},
		VelocityKmS:  Vec3{X: round(vel.X, 6), Y: round(vel.Y, 6), Z: round(vel.Z, 6)},
		CalculatedAt: at,
	}, nil
}

// validateLines performs basic format validation before handing the lines
// to go-satellite, which calls log.Fatal on malformed input.
func validateLines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if !strings.HasPrefix(line1, "1 ") {
		return fmt.Errorf("line1 must start with %q", "1 ")
	}
	if !strings.HasPrefix(line2, "2 ") {
		return fmt.Errorf("line2 must start with %q", "2 ")
	}
	return nil
}

func hasNaNOrInf(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func magnitude(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
