package tle

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// DefaultMeanMotion is the fallback used when the mean motion field of
// line 2 cannot be parsed, in revolutions per day. Roughly a 550 km orbit.
const DefaultMeanMotion = 15.0

// ParseEpoch extracts the epoch from line 1 of a TLE (cols 19-32,
// 0-indexed 18..32: 2-digit year plus fractional day-of-year).
//
// Parsing never fails: a malformed field yields the evaluation time with
// Defaulted set, so a bad TLE degrades the classification instead of
// aborting it.
func ParseEpoch(line1 string, now time.Time, logger *slog.Logger) EpochField {
	epoch, err := parseEpochField(line1)
	if err != nil {
		logger.Warn("epoch parse failed, defaulting to now", "error", err)
		return EpochField{Value: now.UTC(), Defaulted: true}
	}
	return EpochField{Value: epoch}
}

// ParseMeanMotion extracts mean motion in rev/day from line 2 of a TLE
// (cols 53-63, 0-indexed 52..63). A malformed field yields
// DefaultMeanMotion with Defaulted set.
func ParseMeanMotion(line2 string, logger *slog.Logger) MeanMotionField {
	if len(line2) < 63 {
		logger.Warn("mean motion parse failed, using default", "error", fmt.Errorf("line2 length %d, need 63", len(line2)))
		return MeanMotionField{Value: DefaultMeanMotion, Defaulted: true}
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil || n <= 0 {
		logger.Warn("mean motion parse failed, using default", "field", line2[52:63], "error", err)
		return MeanMotionField{Value: DefaultMeanMotion, Defaulted: true}
	}
	return MeanMotionField{Value: n}
}

// parseEpochField converts the YYDDD.DDDDDDDD epoch field to time.Time.
// Two-digit years 57-99 map to the 1900s, 00-56 to the 2000s (the NORAD
// pivot in effect when the format was standardized).
func parseEpochField(line1 string) (time.Time, error) {
	if len(line1) < 32 {
		return time.Time{}, fmt.Errorf("line1 length %d, need 32", len(line1))
	}
	s := strings.TrimSpace(line1[18:32])
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch field too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	// dayOfYear is 1-based: day 1.0 = Jan 1 00:00 UTC.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
