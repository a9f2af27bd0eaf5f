package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-be/internal/config"
	"analytics-be/internal/container"
	"analytics-be/internal/domain"
	"analytics-be/pkg/errors"
	"analytics-be/pkg/logger"
)

// fakeAnalytics implements service.AnalyticsService with canned data
type fakeAnalytics struct {
	overview  *domain.OverviewTotals
	topPages  []domain.PageRow
	dashboard *domain.Dashboard
	realTime  *domain.RealTime
	err       error

	gotRange domain.DateRange
	gotLimit int
}

func (f *fakeAnalytics) Overview(ctx context.Context, dr domain.DateRange) (*domain.OverviewTotals, error) {
	f.gotRange = dr
	return f.overview, f.err
}

func (f *fakeAnalytics) TopPages(ctx context.Context, dr domain.DateRange, limit int) ([]domain.PageRow, error) {
	f.gotRange, f.gotLimit = dr, limit
	return f.topPages, f.err
}

func (f *fakeAnalytics) ByDate(ctx context.Context, dr domain.DateRange) ([]domain.DateRow, error) {
	f.gotRange = dr
	return nil, f.err
}

func (f *fakeAnalytics) TrafficSources(ctx context.Context, dr domain.DateRange, limit int) ([]domain.SourceRow, error) {
	f.gotRange, f.gotLimit = dr, limit
	return nil, f.err
}

func (f *fakeAnalytics) Devices(ctx context.Context, dr domain.DateRange) ([]domain.DeviceRow, error) {
	f.gotRange = dr
	return nil, f.err
}

func (f *fakeAnalytics) Geography(ctx context.Context, dr domain.DateRange, limit int) ([]domain.GeoRow, error) {
	f.gotRange, f.gotLimit = dr, limit
	return nil, f.err
}

func (f *fakeAnalytics) RealTime(ctx context.Context) (*domain.RealTime, error) {
	return f.realTime, f.err
}

func (f *fakeAnalytics) Dashboard(ctx context.Context, dr domain.DateRange, limit int) (*domain.Dashboard, error) {
	f.gotRange, f.gotLimit = dr, limit
	return f.dashboard, f.err
}

func newTestHandler(fake *fakeAnalytics) *AnalyticsHandler {
	c := &container.Container{
		Config:    &config.Config{Environment: "test"},
		Logger:    logger.NewNop(),
		Analytics: fake,
	}
	return NewAnalyticsHandler(c)
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func doRequest(t *testing.T, handlerFn http.HandlerFunc, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handlerFn(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestTopPages_Success(t *testing.T) {
	fake := &fakeAnalytics{
		topPages: []domain.PageRow{
			{Title: "Home", Path: "/", Views: 500, UniqueViews: 400, AvgTimeOnPage: 12.5},
			{Title: "About", Path: "/about", Views: 300, UniqueViews: 250, AvgTimeOnPage: 8},
		},
	}
	h := newTestHandler(fake)

	rec, env := doRequest(t, h.TopPages, "/api/analytics/top-pages?start=2025-01-01&end=2025-01-31&limit=25")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	assert.Equal(t, domain.DateRange{Start: "2025-01-01", End: "2025-01-31"}, fake.gotRange)
	assert.Equal(t, 25, fake.gotLimit)

	var rows []domain.PageRow
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Home", rows[0].Title)
}

func TestTopPages_DefaultsApplied(t *testing.T) {
	fake := &fakeAnalytics{topPages: []domain.PageRow{}}
	h := newTestHandler(fake)

	rec, _ := doRequest(t, h.TopPages, "/api/analytics/top-pages")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, fake.gotLimit)

	// The default window is the trailing 30 days
	start, err := time.Parse("2006-01-02", fake.gotRange.Start)
	require.NoError(t, err)
	end, err := time.Parse("2006-01-02", fake.gotRange.End)
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, end.Sub(start))
}

func TestTopPages_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"bad start date", "/api/analytics/top-pages?start=jan-1"},
		{"bad end date", "/api/analytics/top-pages?end=20250131"},
		{"non-numeric limit", "/api/analytics/top-pages?limit=ten"},
		{"zero limit", "/api/analytics/top-pages?limit=0"},
		{"negative limit", "/api/analytics/top-pages?limit=-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&fakeAnalytics{})

			rec, env := doRequest(t, h.TopPages, tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, "validation", env.Error.Type)
		})
	}
}

func TestOverview_UpstreamErrorMapped(t *testing.T) {
	fake := &fakeAnalytics{
		err: errors.NewAuthError("batch report call returned status 403", 403, "denied", nil),
	}
	h := newTestHandler(fake)

	rec, env := doRequest(t, h.Overview, "/api/analytics/overview")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "auth", env.Error.Type)
	assert.Contains(t, env.Error.Message, "status 403")
}

func TestRealTime_Success(t *testing.T) {
	fake := &fakeAnalytics{realTime: &domain.RealTime{ActiveUsers: 42}}
	h := newTestHandler(fake)

	rec, env := doRequest(t, h.RealTime, "/api/analytics/realtime")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var rt domain.RealTime
	require.NoError(t, json.Unmarshal(env.Data, &rt))
	assert.Equal(t, int64(42), rt.ActiveUsers)
}

func TestDashboard_PartialResultStaysOK(t *testing.T) {
	fake := &fakeAnalytics{
		dashboard: &domain.Dashboard{
			DateRange: domain.DateRange{Start: "2025-01-01", End: "2025-01-31"},
			Overview:  &domain.OverviewTotals{Users: 100},
			Errors: map[domain.QueryKind]string{
				domain.QueryRealTime: "transport: real-time call returned status 500",
			},
		},
	}
	h := newTestHandler(fake)

	rec, env := doRequest(t, h.Dashboard, "/api/analytics/dashboard?start=2025-01-01&end=2025-01-31")

	assert.Equal(t, http.StatusOK, rec.Code, "partial dashboards still return 200")
	assert.True(t, env.Success)
	assert.Contains(t, env.Message, "partial")

	var dash domain.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.True(t, dash.Partial())
	require.NotNil(t, dash.Overview)
	assert.Equal(t, int64(100), dash.Overview.Users)
}
