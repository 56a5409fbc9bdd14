package classify

import (
	"context"
	"log/slog"
	"time"

	"github.com/totoccar/SpaceSituationalAwareness/internal/metrics"
	"github.com/totoccar/SpaceSituationalAwareness/internal/orbit"
	"github.com/totoccar/SpaceSituationalAwareness/internal/propagation"
	"github.com/totoccar/SpaceSituationalAwareness/internal/tle"
)

// ModelVersion tags every result so downstream consumers can tell which
// rule set produced it.
const ModelVersion = "heuristic-v1.0"

// Request is a single classification request.
type Request struct {
	ObjectID  int64
	Line1     string
	Line2     string
	Name      string
	Threshold float64 // <= 0 means DefaultThreshold
}

// Result is the full evaluation of one object: classification, orbital
// stats, TLE age, and the propagated state when SGP4 succeeded.
type Result struct {
	ObjectID   int64
	Name       string
	Class      Class
	Reason     string
	Confidence float64
	Proba      map[string]float64
	Region     string

	AltitudeKm  float64
	VelocityKmS float64

	MeanMotion          float64
	MeanMotionDefaulted bool

	Epoch          time.Time
	EpochDefaulted bool
	Age            tle.Age

	// Propagation is nil when SGP4 failed; AltitudeKm then holds the
	// two-body approximation instead of the propagated altitude.
	Propagation *propagation.State

	EvaluatedAt time.Time
}

// Engine orchestrates the classification pipeline: TLE field extraction,
// age evaluation, propagation with closed-form fallback, and the rule
// cascade. Stateless and safe for unbounded concurrent use.
type Engine struct {
	prop   propagation.Propagator
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an Engine using the given propagator.
func NewEngine(prop propagation.Propagator, logger *slog.Logger) *Engine {
	return &Engine{
		prop:   prop,
		logger: logger,
		now:    time.Now,
	}
}

// Evaluate runs the full pipeline for one object. It never fails: every
// malformed input degrades to a documented fallback.
func (e *Engine) Evaluate(ctx context.Context, req Request) Result {
	now := e.now().UTC()

	epoch := tle.ParseEpoch(req.Line1, now, e.logger)
	age := tle.ComputeAge(epoch.Value, now)

	meanMotion := tle.ParseMeanMotion(req.Line2, e.logger)
	params := orbit.FromMeanMotion(meanMotion.Value)
	altitude := params.AltitudeKm

	state, err := e.prop.Propagate(req.Line1, req.Line2, now)
	if err != nil {
		metrics.IncPropagationFailure()
		e.logger.Warn("propagation failed, using two-body altitude",
			"object_id", req.ObjectID,
			"error", err,
		)
	} else {
		// Propagated altitude always beats the approximation.
		altitude = state.PositionKm.Magnitude() - orbit.REarth
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	outcome := Classify(req.Name, altitude)
	final := ApplyThreshold(outcome, threshold)
	metrics.IncClassification(string(final.Class))

	e.logger.Debug("object classified",
		"object_id", req.ObjectID,
		"class", final.Class,
		"confidence", final.Confidence,
		"altitude_km", altitude,
		"propagated", state != nil,
		"tle_age_days", age.Days,
	)

	return Result{
		ObjectID:            req.ObjectID,
		Name:                req.Name,
		Class:               final.Class,
		Reason:              final.Reason,
		Confidence:          final.Confidence,
		Proba:               final.Proba,
		Region:              params.Region,
		AltitudeKm:          altitude,
		VelocityKmS:         params.VelocityKmS,
		MeanMotion:          meanMotion.Value,
		MeanMotionDefaulted: meanMotion.Defaulted,
		Epoch:               epoch.Value,
		EpochDefaulted:      epoch.Defaulted,
		Age:                 age,
		Propagation:         state,
		EvaluatedAt:         now,
	}
}
