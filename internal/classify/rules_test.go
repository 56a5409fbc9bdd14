package classify

import (
	"math"
	"strings"
	"testing"
)

// TestNamePatterns verifies the name-evidence cascade: marker lists,
// confidences, and case-insensitivity.
func TestNamePatterns(t *testing.T) {
	tests := []struct {
		name     string
		objName  string
		want     Class
		wantConf float64
		cites    string
	}{
		{"starlink", "STARLINK-1234", ClassPayload, 0.92, "STARLINK"},
		{"lowercase starlink", "starlink-1234", ClassPayload, 0.92, "STARLINK"},
		{"debris suffix", "COSMOS 2251 DEB", ClassDebris, 0.95, "DEB"},
		{"rocket body", "SL-16 R/B", ClassRocketBody, 0.90, "R/B"},
		{"fregat stage", "FREGAT DEB TANK", ClassDebris, 0.95, "DEB"},
		{"centaur", "ATLAS CENTAUR", ClassRocketBody, 0.90, "CENTAUR"},
		{"gps", "GPS BIIR-2", ClassPayload, 0.92, "GPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.objName, 550)
			if got.Class != tt.want {
				t.Errorf("class = %q, want %q", got.Class, tt.want)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
			if !strings.Contains(got.Reason, tt.cites) {
				t.Errorf("reason %q does not cite %q", got.Reason, tt.cites)
			}
		})
	}
}

// TestDebrisBeatsPayload verifies rule order: a name carrying both a
// debris marker and a constellation marker classifies as debris.
func TestDebrisBeatsPayload(t *testing.T) {
	got := Classify("IRIDIUM 33 DEB", 780)
	if got.Class != ClassDebris {
		t.Fatalf("class = %q, want debris (debris rules run first)", got.Class)
	}
	if got.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", got.Confidence)
	}
}

// TestAltitudeBands verifies the full prior ladder, including the
// deliberate gaps that fall through to the unknown default.
func TestAltitudeBands(t *testing.T) {
	tests := []struct {
		altitude float64
		want     Class
		wantConf float64
	}{
		{150, ClassDebris, 0.70},
		{299.9, ClassDebris, 0.70},
		{300, ClassPayload, 0.65},
		{550, ClassPayload, 0.65},
		{600, ClassPayload, 0.55},
		{999.9, ClassPayload, 0.55},
		{1000, ClassDebris, 0.50},
		{1500, ClassDebris, 0.50},
		{2000, ClassUnknown, 0.40}, // MEO gap
		{20200, ClassUnknown, 0.40},
		{34999.9, ClassUnknown, 0.40},
		{35000, ClassPayload, 0.85},
		{35786, ClassPayload, 0.85},
		{36500, ClassUnknown, 0.40}, // above the GEO belt
		{-50, ClassDebris, 0.70},
	}

	for _, tt := range tests {
		got := Classify("", tt.altitude)
		if got.Class != tt.want {
			t.Errorf("Classify(\"\", %.1f) class = %q, want %q", tt.altitude, got.Class, tt.want)
		}
		if got.Confidence != tt.wantConf {
			t.Errorf("Classify(\"\", %.1f) confidence = %v, want %v", tt.altitude, got.Confidence, tt.wantConf)
		}
	}
}

// TestLowAltitudeReason verifies the decaying-orbit prior cites the band.
func TestLowAltitudeReason(t *testing.T) {
	got := Classify("", 150)
	if !strings.Contains(got.Reason, "<300km") {
		t.Errorf("reason %q does not cite <300km", got.Reason)
	}
}

// TestProbaSumsToOne verifies every outcome's probability triple is a
// distribution over the three substantive classes.
func TestProbaSumsToOne(t *testing.T) {
	outcomes := []Outcome{
		Classify("STARLINK-1", 550),
		Classify("SL-16 R/B", 850),
		Classify("COSMOS 2251 DEB", 780),
		Classify("", 150),
		Classify("", 550),
		Classify("", 850),
		Classify("", 1500),
		Classify("", 35786),
		Classify("", 20200),
	}
	for _, o := range outcomes {
		var sum float64
		for _, k := range []string{"payload", "rocket_body", "debris"} {
			p, ok := o.Proba[k]
			if !ok {
				t.Errorf("outcome %q missing proba key %q", o.Reason, k)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("outcome %q proba sums to %v", o.Reason, sum)
		}
	}
}

// TestApplyThreshold verifies the override forces unknown while leaving
// confidence and proba untouched.
func TestApplyThreshold(t *testing.T) {
	base := Classify("", 150) // debris @0.70

	kept := ApplyThreshold(base, 0.6)
	if kept.Class != ClassDebris || kept.Reason != base.Reason {
		t.Errorf("outcome at/above threshold must pass through unchanged, got %+v", kept)
	}

	forced := ApplyThreshold(base, 0.9)
	if forced.Class != ClassUnknown {
		t.Errorf("class = %q, want unknown", forced.Class)
	}
	if forced.Confidence != 0.70 {
		t.Errorf("confidence = %v, want pre-override 0.70", forced.Confidence)
	}
	if forced.Proba["debris"] != base.Proba["debris"] {
		t.Error("proba must be unchanged by the override")
	}
	if !strings.Contains(forced.Reason, "70%") || !strings.Contains(forced.Reason, "90%") {
		t.Errorf("reason %q must cite both confidence and threshold", forced.Reason)
	}

	// Exactly at threshold is not "strictly below".
	exact := ApplyThreshold(base, 0.7)
	if exact.Class != ClassDebris {
		t.Errorf("confidence equal to threshold must not be overridden, got %q", exact.Class)
	}
}
