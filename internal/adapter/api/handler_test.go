package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fliptrack-intel/internal/domain/entity"
)

type stubService struct {
	result    *entity.AnalysisResult
	err       error
	latest    *entity.AnalysisResult
	latestErr error
	gotForce  bool
	calls     int
}

func (s *stubService) GetOrGenerate(ctx context.Context, forceRefresh bool) (*entity.AnalysisResult, error) {
	s.calls++
	s.gotForce = forceRefresh
	return s.result, s.err
}

func (s *stubService) Latest(ctx context.Context) (*entity.AnalysisResult, error) {
	return s.latest, s.latestErr
}

type stubUsage struct {
	snapshot entity.UsageSnapshot
	err      error
}

func (s *stubUsage) Record(ctx context.Context, event string) error { return nil }

func (s *stubUsage) Snapshot(ctx context.Context) (entity.UsageSnapshot, error) {
	return s.snapshot, s.err
}

func newTestApp(service AnalysisService, usage *stubUsage) *fiber.App {
	app := fiber.New()
	if usage == nil {
		usage = &stubUsage{}
	}
	SetupRouter(app, NewInsightHandler(service, usage, zap.NewNop()), "test")
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func sampleResult(cached bool) *entity.AnalysisResult {
	return &entity.AnalysisResult{
		InsightID:        "VENDOR-20240110-120000-abcd1234",
		GeneratedAt:      time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
		VendorAnalysis:   &entity.VendorAnalysis{TotalEstimatedSavings: 750, InputHash: "abc"},
		EstimatedSavings: 750,
		Cached:           cached,
	}
}

func TestGenerateReturnsInsight(t *testing.T) {
	service := &stubService{result: sampleResult(false)}
	app := newTestApp(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/insights/vendor", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "false", resp.Header.Get("X-Intel-Cache-Hit"))
	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["cached"])
	insight := body["insight"].(map[string]any)
	assert.Equal(t, 750.0, insight["estimated_savings"])
	assert.False(t, service.gotForce)
}

func TestGenerateCachedResponseSetsHeader(t *testing.T) {
	app := newTestApp(&stubService{result: sampleResult(true)}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/insights/vendor", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("X-Intel-Cache-Hit"))
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["cached"])
}

func TestGenerateParsesForceRefresh(t *testing.T) {
	service := &stubService{result: sampleResult(false)}
	app := newTestApp(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/insights/vendor", strings.NewReader(`{"force_refresh": true}`))
	req.Header.Set("Content-Type", "application/json")
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.True(t, service.gotForce)
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	app := newTestApp(&stubService{result: sampleResult(false)}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/insights/vendor", strings.NewReader(`{"force_refresh": `))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateNoData(t *testing.T) {
	app := newTestApp(&stubService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/insights/vendor", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "no_data", body["status"])
}

func TestGenerateProvidersExhausted(t *testing.T) {
	failure := fmt.Errorf("%w: openai: boom", entity.ErrAnalysisUnavailable)
	app := newTestApp(&stubService{err: failure}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/insights/vendor", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "analysis unavailable")
	assert.Contains(t, body["detail"], "openai")
}

func TestGenerateExpenseDataUnavailable(t *testing.T) {
	failure := fmt.Errorf("%w: connection refused", entity.ErrDataUnavailable)
	app := newTestApp(&stubService{err: failure}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/insights/vendor", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "expense data unavailable", body["error"])
}

func TestLatestFound(t *testing.T) {
	app := newTestApp(&stubService{latest: sampleResult(true)}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/insights/vendor/latest", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestLatestNotFound(t *testing.T) {
	app := newTestApp(&stubService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/insights/vendor/latest", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "not_found", body["status"])
}

func TestLatestFailure(t *testing.T) {
	app := newTestApp(&stubService{latestErr: errors.New("db exploded")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/insights/vendor/latest", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestUsageSnapshot(t *testing.T) {
	usage := &stubUsage{snapshot: entity.UsageSnapshot{
		Day:      "2024-01-10",
		Counters: map[string]int64{"cache_hit": 4, "generated:openai": 1},
	}}
	app := newTestApp(&stubService{}, usage)

	req := httptest.NewRequest(http.MethodGet, "/v1/insights/usage", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	snap := body["usage"].(map[string]any)
	assert.Equal(t, "2024-01-10", snap["day"])
}

func TestUsageFailure(t *testing.T) {
	app := newTestApp(&stubService{}, &stubUsage{err: errors.New("redis gone")})

	req := httptest.NewRequest(http.MethodGet, "/v1/insights/usage", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app := newTestApp(&stubService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "fliptrack-intel", body["service"])
}
