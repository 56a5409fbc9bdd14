package api

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/totoccar/SpaceSituationalAwareness/internal/catalog"
	"github.com/totoccar/SpaceSituationalAwareness/internal/classify"
	"github.com/totoccar/SpaceSituationalAwareness/internal/propagation"
)

// maxBatchSize bounds one batch call so a single request cannot
// monopolize the worker pool.
const maxBatchSize = 500

// predictRequest is the classification call input.
type predictRequest struct {
	ID            int64    `json:"id"`
	Line1         string   `json:"line1"`
	Line2         string   `json:"line2"`
	SatelliteName string   `json:"satellite_name,omitempty"`
	Threshold     *float64 `json:"threshold,omitempty"`
}

type orbitalStats struct {
	AltitudeKm  float64 `json:"altitude_km"`
	VelocityKms float64 `json:"velocity_kms"`
}

type tleInfo struct {
	Epoch    string  `json:"epoch"`
	AgeHours float64 `json:"age_hours"`
	AgeDays  float64 `json:"age_days"`
	IsStale  bool    `json:"is_stale"`
	Warning  string  `json:"warning,omitempty"`
}

type propagationData struct {
	PositionKm   propagation.Vec3 `json:"position_km"`
	VelocityKms  propagation.Vec3 `json:"velocity_kms"`
	CalculatedAt string           `json:"calculated_at"`
}

type responseMetadata struct {
	ModelVersion     string  `json:"model_version"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

// predictResponse is the classification call output.
type predictResponse struct {
	ObjectID             int64              `json:"object_id"`
	SatelliteName        string             `json:"satellite_name,omitempty"`
	PredictedClass       string             `json:"predicted_class"`
	ClassificationReason string             `json:"classification_reason"`
	OrbitalStats         orbitalStats       `json:"orbital_stats"`
	Confidence           float64            `json:"confidence"`
	Region               string             `json:"region"`
	Proba                map[string]float64 `json:"proba"`
	TleInfo              *tleInfo           `json:"tle_info,omitempty"`
	Propagation          *propagationData   `json:"propagation,omitempty"`
	Features             map[string]float64 `json:"features,omitempty"`
	Metadata             responseMetadata   `json:"metadata"`
}

func predictHandler(logger *slog.Logger, engine *classify.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Line1 == "" || req.Line2 == "" {
			writeError(w, http.StatusBadRequest, "line1 and line2 are required")
			return
		}

		start := time.Now()
		result := engine.Evaluate(r.Context(), toEngineRequest(req))
		resp := toPredictResponse(result, time.Since(start))

		writeJSON(w, http.StatusOK, resp)
	}
}

func predictBatchHandler(logger *slog.Logger, pool *classify.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reqs []predictRequest
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(reqs) == 0 {
			writeError(w, http.StatusBadRequest, "empty batch")
			return
		}
		if len(reqs) > maxBatchSize {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error":          "batch too large",
				"max_batch_size": maxBatchSize,
			})
			return
		}
		for i, req := range reqs {
			if req.Line1 == "" || req.Line2 == "" {
				writeError(w, http.StatusBadRequest, "line1 and line2 are required (entry "+strconv.Itoa(i)+")")
				return
			}
		}

		start := time.Now()
		engineReqs := make([]classify.Request, len(reqs))
		for i, req := range reqs {
			engineReqs[i] = toEngineRequest(req)
		}
		results := pool.EvaluateBatch(r.Context(), engineReqs)
		elapsed := time.Since(start)

		resps := make([]predictResponse, len(results))
		for i, res := range results {
			resps[i] = toPredictResponse(res, elapsed)
		}
		writeJSON(w, http.StatusOK, resps)
	}
}

func satellitesHandler(logger *slog.Logger, cat *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := catalog.DefaultLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		entries, err := cat.List(r.Context(), limit)
		if err != nil {
			logger.Error("catalog listing failed", "error", err)
			writeError(w, http.StatusBadGateway, "catalog unavailable")
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func toEngineRequest(req predictRequest) classify.Request {
	threshold := classify.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	return classify.Request{
		ObjectID:  req.ID,
		Line1:     req.Line1,
		Line2:     req.Line2,
		Name:      req.SatelliteName,
		Threshold: threshold,
	}
}

func toPredictResponse(res classify.Result, elapsed time.Duration) predictResponse {
	proba := make(map[string]float64, len(res.Proba))
	for k, v := range res.Proba {
		proba[k] = roundTo(v, 4)
	}

	resp := predictResponse{
		ObjectID:             res.ObjectID,
		SatelliteName:        res.Name,
		PredictedClass:       string(res.Class),
		ClassificationReason: res.Reason,
		OrbitalStats: orbitalStats{
			AltitudeKm:  roundTo(res.AltitudeKm, 2),
			VelocityKms: roundTo(res.VelocityKmS, 3),
		},
		Confidence: roundTo(res.Confidence, 4),
		Region:     res.Region,
		Proba:      proba,
		TleInfo: &tleInfo{
			Epoch:    res.Epoch.Format(time.RFC3339Nano),
			AgeHours: roundTo(res.Age.Hours, 2),
			AgeDays:  roundTo(res.Age.Days, 2),
			IsStale:  res.Age.IsStale,
			Warning:  res.Age.Warning,
		},
		Features: map[string]float64{
			"mean_motion":  roundTo(res.MeanMotion, 6),
			"altitude_km":  roundTo(res.AltitudeKm, 2),
			"tle_age_days": roundTo(res.Age.Days, 2),
		},
		Metadata: responseMetadata{
			ModelVersion:     classify.ModelVersion,
			ProcessingTimeMs: roundTo(float64(elapsed.Microseconds())/1000.0, 2),
		},
	}

	if res.Propagation != nil {
		resp.Propagation = &propagationData{
			PositionKm:   res.Propagation.PositionKm,
			VelocityKms:  res.Propagation.VelocityKmS,
			CalculatedAt: res.Propagation.CalculatedAt.Format(time.RFC3339Nano),
		}
	}

	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
