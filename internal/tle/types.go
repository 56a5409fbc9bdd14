package tle

import "time"

// Record represents a single object's two-line element set.
type Record struct {
	NoradID string
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// EpochField is the outcome of parsing the epoch field of line 1.
// When Defaulted is true the epoch could not be read and Value holds
// the evaluation time instead.
type EpochField struct {
	Value     time.Time
	Defaulted bool
}

// MeanMotionField is the outcome of parsing the mean motion field of line 2.
// When Defaulted is true Value holds the fallback of 15.0 rev/day.
type MeanMotionField struct {
	Value     float64
	Defaulted bool
}

// Age describes how old a TLE is relative to an evaluation time.
// Warning is empty when the TLE is fresh enough; negative ages occur
// when the epoch is nominally in the future (clock skew).
type Age struct {
	Hours   float64
	Days    float64
	IsStale bool
	Warning string
}
