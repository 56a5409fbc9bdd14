// Package classify implements the heuristic rule cascade that fuses TLE
// name evidence with altitude priors into an object class.
//
// The cascade is an explicit ordered rule list evaluated first-match-wins.
// Ordering is load-bearing: explicit textual evidence in the object name
// outranks altitude-derived priors, and debris markers are checked before
// rocket-body and constellation markers.
package classify

import (
	"fmt"
	"strings"
)

// Class is a predicted object class.
type Class string

const (
	ClassPayload    Class = "payload"
	ClassRocketBody Class = "rocket_body"
	ClassDebris     Class = "debris"
	ClassUnknown    Class = "unknown"
)

// Outcome is the result of one rule firing: a class, its confidence, the
// probability triple over the substantive classes, and the human-readable
// reason documenting which rule fired.
type Outcome struct {
	Class      Class
	Confidence float64
	Proba      map[string]float64
	Reason     string
}

// patternRule maps a list of name markers onto a fixed outcome. The first
// marker found anywhere in the upper-cased name wins.
type patternRule struct {
	patterns []string
	class    Class
	conf     float64
	proba    map[string]float64
	reason   func(pattern string) string
}

// nameRules is the ordered name-evidence cascade. Do not reorder: a name
// containing both a debris marker and a constellation marker must
// classify as debris.
var nameRules = []patternRule{
	{
		patterns: []string{"DEB", "DEBRIS", " DEB ", "/DEB", "-DEB"},
		class:    ClassDebris,
		conf:     0.95,
		proba:    map[string]float64{"payload": 0.02, "rocket_body": 0.03, "debris": 0.95},
		reason:   func(p string) string { return fmt.Sprintf("Nombre contiene '%s'", p) },
	},
	{
		patterns: []string{"R/B", "ROCKET", "ROCKET BODY", " RB", "/RB", "FREGAT", "BRIZ", "CENTAUR", "DELTA"},
		class:    ClassRocketBody,
		conf:     0.90,
		proba:    map[string]float64{"payload": 0.05, "rocket_body": 0.90, "debris": 0.05},
		reason:   func(p string) string { return fmt.Sprintf("Nombre contiene '%s'", p) },
	},
	{
		patterns: []string{"STARLINK", "ONEWEB", "IRIDIUM", "GPS", "GLONASS", "GALILEO", "BEIDOU", "COSMOS", "INTELSAT"},
		class:    ClassPayload,
		conf:     0.92,
		proba:    map[string]float64{"payload": 0.92, "rocket_body": 0.05, "debris": 0.03},
		reason:   func(p string) string { return fmt.Sprintf("Constelación conocida: %s", p) },
	},
}

// altitudeBand maps a half-open altitude range [lo, hi) onto an outcome.
type altitudeBand struct {
	lo, hi  float64
	outcome Outcome
}

// altitudeBands is the fixed prior ladder used when the name gives no
// evidence. Deliberately non-contiguous: the 2000-35000 km gap (and
// anything above 36500) falls through to bandDefault because MEO
// classification from altitude alone is unreliable.
var altitudeBands = []altitudeBand{
	{-1e9, 300, Outcome{ClassDebris, 0.70,
		map[string]float64{"payload": 0.15, "rocket_body": 0.15, "debris": 0.70},
		"Altitud muy baja (<300km) - posible decaimiento"}},
	{300, 600, Outcome{ClassPayload, 0.65,
		map[string]float64{"payload": 0.65, "rocket_body": 0.20, "debris": 0.15},
		"Altitud típica de payloads LEO (300-600km)"}},
	{600, 1000, Outcome{ClassPayload, 0.55,
		map[string]float64{"payload": 0.55, "rocket_body": 0.25, "debris": 0.20},
		"Altitud LEO media - probablemente payload"}},
	{1000, 2000, Outcome{ClassDebris, 0.50,
		map[string]float64{"payload": 0.30, "rocket_body": 0.20, "debris": 0.50},
		"LEO alta (1000-2000km) - zona con mucho debris"}},
	{35000, 36500, Outcome{ClassPayload, 0.85,
		map[string]float64{"payload": 0.85, "rocket_body": 0.10, "debris": 0.05},
		"Órbita GEO - típicamente satélites de comunicaciones"}},
}

// bandDefault is the catch-all for altitudes no band covers.
var bandDefault = Outcome{ClassUnknown, 0.40,
	map[string]float64{"payload": 0.40, "rocket_body": 0.30, "debris": 0.30},
	"Órbita atípica - clasificación incierta"}

// Classify runs the rule cascade: name patterns first (case-insensitive
// substring match over the full name), then the altitude prior ladder.
func Classify(name string, altitudeKm float64) Outcome {
	nameUpper := strings.ToUpper(name)

	if nameUpper != "" {
		for _, rule := range nameRules {
			for _, pattern := range rule.patterns {
				if strings.Contains(nameUpper, pattern) {
					return Outcome{
						Class:      rule.class,
						Confidence: rule.conf,
						Proba:      rule.proba,
						Reason:     rule.reason(pattern),
					}
				}
			}
		}
	}

	for _, band := range altitudeBands {
		if altitudeKm >= band.lo && altitudeKm < band.hi {
			return band.outcome
		}
	}
	return bandDefault
}

// DefaultThreshold is the confidence floor applied when the caller does
// not supply one.
const DefaultThreshold = 0.6

// ApplyThreshold forces the class to unknown when the computed confidence
// is strictly below the threshold. Confidence and the probability triple
// are returned unchanged so callers can still see the pre-override values.
func ApplyThreshold(o Outcome, threshold float64) Outcome {
	if o.Confidence >= threshold {
		return o
	}
	o.Class = ClassUnknown
	o.Reason = fmt.Sprintf("Confianza (%.0f%%) menor al umbral (%.0f%%)", o.Confidence*100, threshold*100)
	return o
}
