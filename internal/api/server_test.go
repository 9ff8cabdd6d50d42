package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/whogoverns/api/internal/config"
	"github.com/whogoverns/api/internal/domain"
	"github.com/whogoverns/api/internal/observability"
	"github.com/whogoverns/api/internal/service"
	"github.com/whogoverns/api/internal/storage"
	"github.com/whogoverns/api/internal/storage/storagetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	*Server
	logs *bytes.Buffer
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	store, _ := storagetest.OpenSeeded(t)
	return newTestServerWithStore(t, store)
}

func newTestServerWithStore(t *testing.T, store storage.Store) testServer {
	t.Helper()
	cfg := config.DefaultConfig()
	metrics := observability.NewMetrics()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	svc := service.New(store, cfg.Dataset, metrics)
	return testServer{Server: NewServer(cfg, svc, logger, metrics), logs: logs}
}

func (ts testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Detail
}

// brokenStore fails every read session.
type brokenStore struct{}

func (brokenStore) ReadSession(ctx context.Context, fn func(storage.Session) error) error {
	return errors.New("dial tcp 10.0.0.5:5432: connection refused")
}

func (brokenStore) Ping(ctx context.Context) error {
	return errors.New("dial tcp 10.0.0.5:5432: connection refused")
}

func (brokenStore) Close() error { return nil }

// --- Health ---

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthDB(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/health/db")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","db":"ok"}`, w.Body.String())
}

func TestHealthDB_DegradedNotFailing(t *testing.T) {
	ts := newTestServerWithStore(t, brokenStore{})

	w := ts.get(t, "/health/db")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unavailable", body["db"])
	assert.NotEmpty(t, body["error"])
}

// --- Error mapping ---

func TestCountry_UnknownIs404(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/country/XYZ?year=2020")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown country ISO3: XYZ", detail(t, w))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestTimeline_InvertedRangeIs400(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/timeline/FRA?from=2030&to=2000")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "'from' must be <= 'to'", detail(t, w))
}

func TestEvents_InvalidTypeNamed(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/events?iso3=FRA&year=2017&event_types=election,bogus_type")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	msg := detail(t, w)
	assert.Contains(t, msg, "bogus_type")
	assert.Contains(t, msg, "event_types")
}

func TestStoreFailureIs500WithoutDetails(t *testing.T) {
	ts := newTestServerWithStore(t, brokenStore{})

	w := ts.get(t, "/v1/timeline/FRA")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, internalErrorDetail, detail(t, w))
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	assert.Contains(t, ts.logs.String(), "connection refused", "details go to the log only")
	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.StoreErrors))
}

func TestValidationRunsBeforeStore(t *testing.T) {
	ts := newTestServerWithStore(t, brokenStore{})

	w := ts.get(t, "/v1/timeline/FRA?from=2030&to=2000")
	assert.Equal(t, http.StatusBadRequest, w.Code, "a broken store is never reached by invalid requests")
}

// --- Parameter validation ---

func TestValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"map requires year", "/v1/map", "year"},
		{"map year outside dataset", "/v1/map?year=1900", "year"},
		{"map unknown continent", "/v1/map?year=2020&continent=XX", "continent: must be one of: AF AN AS EU NA OC SA"},
		{"map lowercase continent", "/v1/map?year=2020&continent=eu", "continent"},
		{"map unknown group", "/v1/map?year=2020&group=G7", "group"},
		{"bad lang", "/v1/metadata?lang=de", "lang: must be one of: en fr"},
		{"iso3 too long", "/v1/timeline/FRAN", "iso3"},
		{"iso3 digits", "/v1/country/F1A", "iso3"},
		{"from below bound", "/v1/timeline/FRA?from=1700", "from"},
		{"non-numeric year", "/v1/map?year=abc", "year: must be an integer"},
		{"non-numeric summary limit", "/v1/country/FRA/summary?year=2017&events_limit=abc", "events_limit: must be an integer"},
		{"non-boolean flag", "/v1/map?year=2020&covered_only=maybe", "covered_only: must be a boolean"},
		{"summary requires year", "/v1/country/FRA/summary", "year"},
		{"detail year outside dataset", "/v1/country/FRA?year=2030", "year"},
		{"events requires iso3", "/v1/events?year=2017", "iso3"},
		{"events requires year", "/v1/events?iso3=FRA", "year"},
		{"events year bound", "/v1/events?iso3=FRA&year=1700", "year"},
		{"articles bad iso3", "/v1/articles?iso3=FR", "iso3"},
		{"non-numeric limit", "/v1/articles?limit=ten", "limit: must be an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.get(t, tt.target)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, detail(t, w), tt.want)
		})
	}
}

// --- Endpoints ---

func TestMetadata(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/metadata?lang=fr")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, map[string]any{"min": float64(1945), "max": float64(2025)}, body["years"])
	assert.Len(t, body["continents"], 7)
	groups := body["groups"].([]any)
	require.Len(t, groups, 2)
	assert.Equal(t, "Union européenne", groups[0].(map[string]any)["name"])
	assert.Equal(t, map[string]any{
		"available": float64(3), "in_progress": float64(1), "planned": float64(1),
	}, body["coverage"])
}

func TestMap(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/map?year=2020&group=EU")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))

	body := decode(t, w)
	countries := body["countries"].(map[string]any)
	assert.Len(t, countries, 2)
	assert.Contains(t, countries, "FRA")
	assert.Contains(t, countries, "DEU")

	meta := body["meta"].(map[string]any)
	assert.Equal(t, "EU", meta["filters"].(map[string]any)["group"])
	assert.Nil(t, meta["filters"].(map[string]any)["continent"])
}

func TestMap_EmptyMatchHasZeroCounts(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/map?year=2020&continent=AN")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, map[string]any{}, body["countries"])
	assert.Equal(t, map[string]any{
		"countries_returned": float64(0), "available": float64(0), "with_data": float64(0),
	}, body["meta"].(map[string]any)["counts"])
}

func TestMap_AcceptsEveryCatalogContinent(t *testing.T) {
	ts := newTestServer(t)

	for _, ct := range domain.Continents() {
		w := ts.get(t, "/v1/map?year=2020&continent="+ct.Code)
		assert.Equal(t, http.StatusOK, w.Code, "continent %s", ct.Code)
	}
	for _, lang := range domain.Languages() {
		w := ts.get(t, "/v1/metadata?lang="+lang)
		assert.Equal(t, http.StatusOK, w.Code, "lang %s", lang)
	}
}

func TestCountry_FrenchFallback(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/country/bra?lang=fr")
	require.Equal(t, http.StatusOK, w.Code)

	country := decode(t, w)["country"].(map[string]any)
	assert.Equal(t, "BRA", country["iso3"], "codes are upper-cased")
	assert.Equal(t, "Brazil", country["name"])
}

func TestCountry_DefaultsAndByYear(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/country/FRA")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(2020), body["selected_year"])
	assert.Equal(t, map[string]any{"from": float64(1945), "to": float64(2025)}, body["range"])
	assert.Len(t, body["by_year"], 10)
	assert.Equal(t, "Emmanuel Macron", body["selected"].(map[string]any)["leader_name"])
}

func TestCountrySummary(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/country/DEU/summary?year=2021&events_limit=500&articles_limit=0")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	selected := body["selected"].(map[string]any)
	assert.Equal(t, float64(2021), selected["year"])
	assert.Equal(t, "Armin Laschet", selected["leader_name"])

	segments := body["timeline"].(map[string]any)["segments"].([]any)
	assert.Len(t, segments, 2, "summary splits on leader changes")

	assert.Equal(t, float64(1), body["events"].(map[string]any)["count"])
	assert.Equal(t, float64(1), body["articles"].(map[string]any)["count"], "limit 0 clamps to 1")
}

func TestTimeline(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/timeline/DEU?include_years=true")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	segments := body["segments"].([]any)
	require.Len(t, segments, 1, "timeline ignores leader changes")
	seg := segments[0].(map[string]any)
	assert.Equal(t, float64(2019), seg["start_year"])
	assert.Equal(t, float64(2021), seg["end_year"])
	assert.NotContains(t, seg, "leader_name")
	assert.Len(t, body["years"], 3)
}

func TestTimeline_YearsOmittedByDefault(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/timeline/FRA")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode(t, w), "years")
}

func TestEvents(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/events?iso3=fra&year=2017&event_types=election,government_change&limit=0")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "FRA", body["iso3"])
	assert.Equal(t, float64(2017), body["year"])
	assert.Len(t, body["event_types"], 6)
	assert.Equal(t, float64(1), body["count"], "limit 0 clamps to 1")
}

func TestEvents_UnknownCountry(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/events?iso3=XYZ&year=2017")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, detail(t, w), "XYZ")
}

func TestArticles(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/v1/articles?iso3=FRA&year=2017")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(2), body["count"])
	first := body["articles"].([]any)[0].(map[string]any)
	assert.Equal(t, "legislative-wave", first["slug"])
	assert.Equal(t, []any{}, first["tags"])
}

// --- Middleware ---

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/health")
	assert.Len(t, w.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestAccessLog_NoBusinessData(t *testing.T) {
	ts := newTestServer(t)

	ts.get(t, "/v1/articles?lang=en&limit=5")

	var entry map[string]any
	lines := bytes.Split(bytes.TrimSpace(ts.logs.Bytes()), []byte("\n"))
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "/v1/articles", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
	assert.NotContains(t, ts.logs.String(), "macron", "response content is never logged")
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/map", nil)
	req.Header.Set("Origin", "https://example.org")
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET", w.Header().Get("Access-Control-Allow-Methods"))

	w = ts.get(t, "/health")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), "requests without Origin are not CORS requests")
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	handler := corsPolicy([]string{"https://whogoverns.org"})
	r := gin.New()
	r.Use(handler)
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://whogoverns.org")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://whogoverns.org", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.get(t, "/v1/timeline/FRA")
	w := ts.get(t, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `whogoverns_http_requests_total{route="/v1/timeline/:iso3",status="200"} 1`)
	assert.Contains(t, string(body), `whogoverns_segments_total{key="party_coalition"} 3`)
}

func TestRecovery(t *testing.T) {
	ts := newTestServer(t)
	ts.router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := ts.get(t, "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, internalErrorDetail, detail(t, w))
}

func TestRequestLogger_TagsTraceID(t *testing.T) {
	var buf bytes.Buffer
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(loggerKey, slog.New(slog.NewJSONHandler(&buf, nil)))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/map", nil)
	c.Request = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))

	requestLogger(c).Info("lookup")
	assert.Contains(t, buf.String(), `"trace_id":"`+sc.TraceID().String()+`"`)

	buf.Reset()
	c.Request = req
	requestLogger(c).Info("lookup")
	assert.NotContains(t, buf.String(), "trace_id")
}
