package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/totoccar/SpaceSituationalAwareness/internal/auth"
	"github.com/totoccar/SpaceSituationalAwareness/internal/catalog"
	"github.com/totoccar/SpaceSituationalAwareness/internal/classify"
	"github.com/totoccar/SpaceSituationalAwareness/internal/orbit"
	"github.com/totoccar/SpaceSituationalAwareness/internal/propagation"
)

const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// stubPropagator returns a fixed altitude or a failure.
type stubPropagator struct {
	altitudeKm float64
	err        error
}

func (s *stubPropagator) Propagate(line1, line2 string, at time.Time) (*propagation.State, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &propagation.State{
		PositionKm:   propagation.Vec3{X: orbit.REarth + s.altitudeKm},
		VelocityKmS:  propagation.Vec3{Y: 7.66},
		CalculatedAt: at,
	}, nil
}

func newTestServer(t *testing.T, prop propagation.Propagator) *Server {
	t.Helper()
	logger := testLogger()
	engine := classify.NewEngine(prop, logger)
	pool := classify.NewPool(2, engine, logger)
	cat := catalog.NewService(
		catalog.NewFetcher("http://unreachable.invalid"),
		catalog.NewFileStore(filepath.Join(t.TempDir(), "tle_cache.json")),
		logger,
	)
	return NewServer(":0", logger, auth.Config{}, RateLimitConfig{}, engine, pool, cat)
}

func postJSON(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(w, req)
	return w
}

// TestPredictResponseShape verifies the full classification response for
// the canonical STARLINK scenario.
func TestPredictResponseShape(t *testing.T) {
	srv := newTestServer(t, &stubPropagator{altitudeKm: 550})

	w := postJSON(t, srv, "/api/v1/predict",
		`{"id":44713,"line1":"`+issLine1+`","line2":"`+issLine2+`","satellite_name":"STARLINK-1234","threshold":0.6}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if resp["object_id"] != float64(44713) {
		t.Errorf("object_id = %v", resp["object_id"])
	}
	if resp["predicted_class"] != "payload" {
		t.Errorf("predicted_class = %v, want payload", resp["predicted_class"])
	}
	if resp["confidence"] != 0.92 {
		t.Errorf("confidence = %v, want 0.92", resp["confidence"])
	}
	if reason, _ := resp["classification_reason"].(string); !strings.Contains(reason, "STARLINK") {
		t.Errorf("classification_reason %q does not cite STARLINK", reason)
	}
	if resp["region"] != "LEO" {
		t.Errorf("region = %v, want LEO", resp["region"])
	}

	stats, ok := resp["orbital_stats"].(map[string]any)
	if !ok {
		t.Fatal("missing orbital_stats")
	}
	if stats["altitude_km"] != float64(550) {
		t.Errorf("altitude_km = %v, want 550 (propagated)", stats["altitude_km"])
	}

	proba, ok := resp["proba"].(map[string]any)
	if !ok || len(proba) != 3 {
		t.Errorf("proba = %v, want 3-way mapping", resp["proba"])
	}

	if _, ok := resp["tle_info"].(map[string]any); !ok {
		t.Error("missing tle_info")
	}
	if _, ok := resp["propagation"].(map[string]any); !ok {
		t.Error("missing propagation block")
	}

	meta, ok := resp["metadata"].(map[string]any)
	if !ok {
		t.Fatal("missing metadata")
	}
	if meta["model_version"] != "heuristic-v1.0" {
		t.Errorf("model_version = %v", meta["model_version"])
	}
	if _, ok := meta["processing_time_ms"].(float64); !ok {
		t.Error("missing processing_time_ms")
	}
}

// TestPredictPropagationFailureOmitsBlock verifies the propagation block
// is absent when SGP4 fails and the closed-form altitude is used.
func TestPredictPropagationFailureOmitsBlock(t *testing.T) {
	srv := newTestServer(t, &stubPropagator{err: errors.New("decayed")})

	w := postJSON(t, srv, "/api/v1/predict",
		`{"id":1,"line1":"`+issLine1+`","line2":"`+issLine2+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp map[string]any
	json.NewDecoder(w.Body).Decode(&resp)
	if _, ok := resp["propagation"]; ok {
		t.Error("propagation block must be omitted on failure")
	}
	stats := resp["orbital_stats"].(map[string]any)
	if alt := stats["altitude_km"].(float64); alt < 350 || alt > 500 {
		t.Errorf("altitude_km = %v, want two-body estimate (~420)", alt)
	}
}

// TestPredictThresholdOverride verifies the unknown override keeps the
// original confidence in the response.
func TestPredictThresholdOverride(t *testing.T) {
	srv := newTestServer(t, &stubPropagator{altitudeKm: 150})

	w := postJSON(t, srv, "/api/v1/predict",
		`{"id":2,"line1":"`+issLine1+`","line2":"`+issLine2+`","threshold":0.9}`)

	var resp map[string]any
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["predicted_class"] != "unknown" {
		t.Errorf("predicted_class = %v, want unknown", resp["predicted_class"])
	}
	if resp["confidence"] != 0.7 {
		t.Errorf("confidence = %v, want pre-override 0.7", resp["confidence"])
	}
}

// TestPredictValidation verifies bad bodies are rejected.
func TestPredictValidation(t *testing.T) {
	srv := newTestServer(t, &stubPropagator{altitudeKm: 550})

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"missing lines", `{"id":1}`},
		{"missing line2", `{"id":1,"line1":"` + issLine1 + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, srv, "/api/v1/predict", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

// TestPredictBatch verifies batch evaluation preserves order and bounds
// the batch size.
func TestPredictBatch(t *testing.T) {
	srv := newTestServer(t, &stubPropagator{altitudeKm: 550})

	w := postJSON(t, srv, "/api/v1/predict/batch",
		`[{"id":1,"line1":"`+issLine1+`","line2":"`+issLine2+`","satellite_name":"STARLINK-1"},
		  {"id":2,"line1":"`+issLine1+`","line2":"`+issLine2+`","satellite_name":"SL-16 R/B"}]`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resps []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resps); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resps) != 2 {
		t.Fatalf("got %d results, want 2", len(resps))
	}
	if resps[0]["object_id"] != float64(1) || resps[0]["predicted_class"] != "payload" {
		t.Errorf("result 0 = %v/%v", resps[0]["object_id"], resps[0]["predicted_class"])
	}
	if resps[1]["object_id"] != float64(2) || resps[1]["predicted_class"] != "rocket_body" {
		t.Errorf("result 1 = %v/%v", resps[1]["object_id"], resps[1]["predicted_class"])
	}

	// Empty batch is rejected.
	if w := postJSON(t, srv, "/api/v1/predict/batch", `[]`); w.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d, want 400", w.Code)
	}
}

// TestHealthEndpoints verifies the liveness surfaces.
func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubPropagator{altitudeKm: 550})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("/health status = %d", w.Code)
	}
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf(`/health body = %v, want {"status":"ok"}`, body)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		srv.HTTPServer().Handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, w.Code)
		}
	}
}

// TestAuthMiddleware verifies Bearer enforcement with exempt probes.
func TestAuthMiddleware(t *testing.T) {
	logger := testLogger()
	engine := classify.NewEngine(&stubPropagator{altitudeKm: 550}, logger)
	pool := classify.NewPool(2, engine, logger)
	cat := catalog.NewService(
		catalog.NewFetcher("http://unreachable.invalid"),
		catalog.NewFileStore(filepath.Join(t.TempDir(), "tle_cache.json")),
		logger,
	)
	srv := NewServer(":0", logger, auth.Config{Enabled: true, Token: "secret"}, RateLimitConfig{}, engine, pool, cat)

	body := `{"id":1,"line1":"` + issLine1 + `","line2":"` + issLine2 + `"}`

	req := httptest.NewRequest("POST", "/api/v1/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest("POST", "/api/v1/predict", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", w.Code)
	}

	// Probes stay public.
	req = httptest.NewRequest("GET", "/healthz", nil)
	w = httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("/healthz with auth enabled: status = %d, want 200", w.Code)
	}
}

// TestSatellitesEndpoint verifies the listing path against a fake feed.
func TestSatellitesEndpoint(t *testing.T) {
	feed := "ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\n"
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer upstream.Close()

	logger := testLogger()
	engine := classify.NewEngine(&stubPropagator{altitudeKm: 550}, logger)
	pool := classify.NewPool(2, engine, logger)
	cat := catalog.NewService(
		catalog.NewFetcher(upstream.URL),
		catalog.NewFileStore(filepath.Join(t.TempDir(), "tle_cache.json")),
		logger,
	)
	srv := NewServer(":0", logger, auth.Config{}, RateLimitConfig{}, engine, pool, cat)

	req := httptest.NewRequest("GET", "/api/v1/satellites?limit=10", nil)
	w := httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var entries []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0]["norad_id"] != "25544" {
		t.Errorf("norad_id = %v, want 25544", entries[0]["norad_id"])
	}
	for _, field := range []string{"name", "line1", "line2", "epoch", "age_hours", "age_days", "is_stale"} {
		if _, ok := entries[0][field]; !ok {
			t.Errorf("missing field %q", field)
		}
	}

	// Bad limit is rejected.
	req = httptest.NewRequest("GET", "/api/v1/satellites?limit=abc", nil)
	w = httptest.NewRecorder()
	srv.HTTPServer().Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", w.Code)
	}
}

// TestRateLimit verifies the per-client budget returns 429 once exhausted
// and never limits probes.
func TestRateLimit(t *testing.T) {
	logger := testLogger()
	engine := classify.NewEngine(&stubPropagator{altitudeKm: 550}, logger)
	pool := classify.NewPool(2, engine, logger)
	cat := catalog.NewService(
		catalog.NewFetcher("http://unreachable.invalid"),
		catalog.NewFileStore(filepath.Join(t.TempDir(), "tle_cache.json")),
		logger,
	)
	srv := NewServer(":0", logger, auth.Config{},
		RateLimitConfig{Enabled: true, PerSecond: 1, Burst: 2}, engine, pool, cat)

	body := `{"id":1,"line1":"` + issLine1 + `","line2":"` + issLine2 + `"}`

	var limited bool
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/api/v1/predict", strings.NewReader(body))
		req.RemoteAddr = "10.0.0.1:12345"
		w := httptest.NewRecorder()
		srv.HTTPServer().Handler.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	if !limited {
		t.Error("expected at least one 429 after burst exhaustion")
	}

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("GET", "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		w := httptest.NewRecorder()
		srv.HTTPServer().Handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("probe limited: status = %d", w.Code)
		}
	}
}
