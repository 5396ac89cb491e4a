// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/securecrop/securecrop/internal/audit"
	"github.com/securecrop/securecrop/internal/config"
	"github.com/securecrop/securecrop/internal/database"
	"github.com/securecrop/securecrop/internal/market"
	"github.com/securecrop/securecrop/internal/ml"
	"github.com/securecrop/securecrop/internal/ml/mltest"
	"github.com/securecrop/securecrop/internal/notify"
	"github.com/securecrop/securecrop/internal/recommend"
	"github.com/securecrop/securecrop/internal/screening"
	"github.com/securecrop/securecrop/internal/soil"
	"github.com/securecrop/securecrop/internal/weather"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	readings        []soil.Reading
	recommendations []recommend.Recommendation
	contacts        []database.ContactMessage
	feedback        []database.FeedbackEntry
	notifications   []notify.Notification
	pingErr         error
	failAll         bool
}

var errStoreDown = errors.New("store down")

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) GetReading(_ context.Context, id string) (*soil.Reading, error) {
	if s.failAll {
		return nil, errStoreDown
	}
	for i := range s.readings {
		if s.readings[i].ID == id {
			return &s.readings[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) ListReadings(_ context.Context, limit, offset int) ([]soil.Reading, error) {
	if s.failAll {
		return nil, errStoreDown
	}
	return paginate(s.readings, limit, offset), nil
}

func (s *fakeStore) CountReadings(context.Context) (int64, error) {
	if s.failAll {
		return 0, errStoreDown
	}
	return int64(len(s.readings)), nil
}

func (s *fakeStore) GetRecommendationByReading(_ context.Context, readingID string) (*recommend.Recommendation, error) {
	for i := range s.recommendations {
		if s.recommendations[i].ReadingID == readingID {
			return &s.recommendations[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) ListRecommendations(_ context.Context, limit, offset int) ([]recommend.Recommendation, error) {
	return paginate(s.recommendations, limit, offset), nil
}

func (s *fakeStore) InsertContactMessage(_ context.Context, m *database.ContactMessage) error {
	if s.failAll {
		return errStoreDown
	}
	s.contacts = append(s.contacts, *m)
	return nil
}

func (s *fakeStore) ListContactMessages(_ context.Context, status string, limit, offset int) ([]database.ContactMessage, error) {
	var out []database.ContactMessage
	for _, m := range s.contacts {
		if status == "" || m.Status == status {
			out = append(out, m)
		}
	}
	return paginate(out, limit, offset), nil
}

func (s *fakeStore) InsertFeedback(_ context.Context, f *database.FeedbackEntry) error {
	s.feedback = append(s.feedback, *f)
	return nil
}

func (s *fakeStore) ListFeedback(_ context.Context, limit, offset int) ([]database.FeedbackEntry, error) {
	return paginate(s.feedback, limit, offset), nil
}

func (s *fakeStore) GetFeedbackStats(context.Context) (*database.FeedbackStats, error) {
	stats := &database.FeedbackStats{
		Count:    int64(len(s.feedback)),
		ByRating: map[int64]int64{},
	}
	var sum int64
	for _, f := range s.feedback {
		sum += int64(f.Rating)
		stats.ByRating[int64(f.Rating)]++
	}
	if stats.Count > 0 {
		stats.AverageRating = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}

func (s *fakeStore) ListNotifications(_ context.Context, activeOnly bool, limit, offset int) ([]notify.Notification, error) {
	var out []notify.Notification
	for _, n := range s.notifications {
		if !activeOnly || n.Active {
			out = append(out, n)
		}
	}
	return paginate(out, limit, offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

// fakePipeline returns a canned result or error.
type fakePipeline struct {
	result *recommend.Result
	err    error
}

func (p *fakePipeline) Run(context.Context, *soil.Input, string) (*recommend.Result, error) {
	return p.result, p.err
}

type fakeWeather struct {
	current  *weather.Current
	forecast []weather.DailyForecast
	err      error
}

func (f *fakeWeather) Current(context.Context, float64, float64) (*weather.Current, error) {
	return f.current, f.err
}

func (f *fakeWeather) Forecast(context.Context, float64, float64, int) ([]weather.DailyForecast, error) {
	return f.forecast, f.err
}

type fakeMarket struct {
	places []market.Place
	err    error
}

func (f *fakeMarket) Search(context.Context, float64, float64, int) ([]market.Place, error) {
	return f.places, f.err
}

// fixture bundles a router with its fakes.
type fixture struct {
	router   *Router
	store    *fakeStore
	pipeline *fakePipeline
	auditLog *audit.MemoryStore
	weather  *fakeWeather
	market   *fakeMarket
	handler  http.Handler
}

func newFixture(t *testing.T, registry *ml.Registry) *fixture {
	t.Helper()

	f := &fixture{
		store:    &fakeStore{},
		pipeline: &fakePipeline{result: cannedResult()},
		auditLog: audit.NewMemoryStore(0),
		weather:  &fakeWeather{current: &weather.Current{Temperature: 25, Humidity: 60, WindSpeed: 10, City: "Pune"}},
		market:   &fakeMarket{},
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			CORSOrigins: []string{"*"},
			RateLimit:   0, // disabled in tests
		},
		Weather: config.WeatherConfig{DefaultLat: 18.5, DefaultLon: 73.8},
	}
	f.router = NewRouter(cfg, f.store, f.pipeline, f.auditLog, registry, f.weather, f.market)
	f.handler = f.router.Handler()
	return f
}

func cannedResult() *recommend.Result {
	now := time.Now().UTC()
	entry := &audit.Entry{ID: "a-1", CheckType: audit.CheckTypePre, Status: audit.StatusOK, CreatedAt: now}
	post := &audit.Entry{ID: "a-2", CheckType: audit.CheckTypePost, Status: audit.StatusOK, CreatedAt: now}

	return &recommend.Result{
		State: recommend.StatePersisted,
		Reading: &soil.Reading{
			ID: "r-1", Nitrogen: 90, Phosphorus: 42, Potassium: 43,
			PH: 6.5, Moisture: 82, Temperature: 20.87,
			IntegrityHash: "deadbeef", CreatedAt: now,
		},
		Recommendation: &recommend.Recommendation{
			ID: "rec-1", ReadingID: "r-1", CropName: "rice",
			Confidence: 0.93, ModelsAgree: true,
			Explanation: "Rice thrives in these conditions.", CreatedAt: now,
		},
		Prediction: &ml.DualPrediction{
			ForestCrop: "rice", ForestProbability: 0.93,
			BayesCrop: "rice", BayesProbability: 0.88,
			ModelsAgree: true, Primary: "rice", Confidence: 0.93,
		},
		PreCheck:  &screening.PreResult{Entry: entry, IntegrityHash: "deadbeef"},
		PostCheck: &screening.PostResult{Entry: post, Status: audit.StatusOK},
	}
}

// do runs a request against the fixture handler.
func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var envelope APIResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("unmarshal envelope: %v\nbody: %s", err, rec.Body.String())
		}
	}
	return rec, envelope
}

func dataMap(t *testing.T, envelope APIResponse) map[string]interface{} {
	t.Helper()
	m, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is %T, want object", envelope.Data)
	}
	return m
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, mltest.Registry(t))

	rec, envelope := f.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !envelope.Success {
		t.Error("expected success")
	}
	data := dataMap(t, envelope)
	if data["status"] != "healthy" {
		t.Errorf("status = %v", data["status"])
	}
}

func TestHealthzDegradedDatabase(t *testing.T) {
	f := newFixture(t, mltest.Registry(t))
	f.store.pingErr = errors.New("connection refused")

	rec, envelope := f.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	data := dataMap(t, envelope)
	if data["status"] != "degraded" {
		t.Errorf("status = %v", data["status"])
	}
}

func TestHealthzDegradedModels(t *testing.T) {
	f := newFixture(t, nil)

	rec, _ := f.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	f := newFixture(t, mltest.Registry(t))

	rec, _ := f.do(t, http.MethodGet, "/healthz", "")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing frame options header")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request ID header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, mltest.Registry(t))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected Prometheus exposition output")
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	f := newFixture(t, mltest.Registry(t))

	rec, _ := f.do(t, http.MethodGet, "/api/v1/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
