package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-be/internal/domain"
	"analytics-be/internal/ga"
	"analytics-be/pkg/errors"
)

func overviewResult(values []string) ga.ReportResult {
	return ga.ReportResult{
		QueryID: domain.QueryOverview,
		Totals:  []ga.DateRangeValues{{Values: values}},
	}
}

func TestNormalizeOverview(t *testing.T) {
	n := NewNormalizer()

	t.Run("full totals", func(t *testing.T) {
		totals, err := n.NormalizeOverview(overviewResult(
			[]string{"1200", "1500", "4300", "185.5", "42.7", "1.25"}))
		require.NoError(t, err)

		assert.Equal(t, int64(1200), totals.Users)
		assert.Equal(t, int64(1500), totals.Sessions)
		assert.Equal(t, int64(4300), totals.PageViews)
		assert.InDelta(t, 185.5, totals.AvgSessionDuration, 0.001)
		assert.InDelta(t, 42.7, totals.BounceRate, 0.001)
		assert.InDelta(t, 1.25, totals.SessionsPerUser, 0.001)
	})

	t.Run("missing values default to zero", func(t *testing.T) {
		totals, err := n.NormalizeOverview(overviewResult([]string{"1200", "1500"}))
		require.NoError(t, err)

		assert.Equal(t, int64(1200), totals.Users)
		assert.Zero(t, totals.PageViews)
		assert.Zero(t, totals.AvgSessionDuration)
		assert.Zero(t, totals.BounceRate)
	})

	t.Run("empty result is all zeros", func(t *testing.T) {
		totals, err := n.NormalizeOverview(ga.ReportResult{QueryID: domain.QueryOverview})
		require.NoError(t, err)
		assert.Equal(t, &domain.OverviewTotals{}, totals)
	})

	t.Run("falls back to the first row when totals are absent", func(t *testing.T) {
		res := ga.ReportResult{
			QueryID: domain.QueryOverview,
			Rows: []ga.ReportRow{{
				Metrics: []ga.DateRangeValues{{Values: []string{"7", "8", "9", "1.0", "2.0", "3.0"}}},
			}},
		}
		totals, err := n.NormalizeOverview(res)
		require.NoError(t, err)
		assert.Equal(t, int64(7), totals.Users)
		assert.Equal(t, int64(9), totals.PageViews)
	})

	t.Run("integer metric in float form", func(t *testing.T) {
		totals, err := n.NormalizeOverview(overviewResult([]string{"12.0", "15.0", "43.0", "0", "0", "0"}))
		require.NoError(t, err)
		assert.Equal(t, int64(12), totals.Users)
		assert.Equal(t, int64(15), totals.Sessions)
	})

	t.Run("present non-numeric value is an error", func(t *testing.T) {
		_, err := n.NormalizeOverview(overviewResult([]string{"not-a-number"}))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNormalization))
	})
}

func TestNormalizeTopPages(t *testing.T) {
	n := NewNormalizer()

	res := ga.ReportResult{
		QueryID: domain.QueryTopPages,
		Rows: []ga.ReportRow{
			{
				Dimensions: []string{"Home", "/"},
				Metrics:    []ga.DateRangeValues{{Values: []string{"500", "400", "12.5"}}},
			},
			{
				Dimensions: []string{"Broken", "/broken"},
				Metrics:    []ga.DateRangeValues{{Values: []string{"oops", "1", "2"}}},
			},
			{
				Dimensions: []string{"About", "/about"},
				Metrics:    []ga.DateRangeValues{{Values: []string{"300", "250", "8"}}},
			},
		},
	}

	rows, rowErrs := n.NormalizeTopPages(res)

	// The bad middle row is dropped, siblings keep their order
	require.Len(t, rows, 2)
	assert.Equal(t, domain.PageRow{Title: "Home", Path: "/", Views: 500, UniqueViews: 400, AvgTimeOnPage: 12.5}, rows[0])
	assert.Equal(t, "About", rows[1].Title)

	require.Len(t, rowErrs, 1)
	appErr := errors.AsAppError(rowErrs[0])
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeNormalization, appErr.Type)
	assert.Equal(t, 1, appErr.Details["row_index"])
}

func TestNormalizeByDate(t *testing.T) {
	n := NewNormalizer()

	res := ga.ReportResult{
		QueryID: domain.QueryByDate,
		Rows: []ga.ReportRow{
			{
				Dimensions: []string{"20250115"},
				Metrics:    []ga.DateRangeValues{{Values: []string{"10", "12", "30"}}},
			},
			{
				Dimensions: []string{"(other)"},
				Metrics:    []ga.DateRangeValues{{Values: []string{"1", "1", "2"}}},
			},
		},
	}

	rows, rowErrs := n.NormalizeByDate(res)
	require.Empty(t, rowErrs)
	require.Len(t, rows, 2)

	assert.Equal(t, "2025-01-15", rows[0].Date)
	assert.Equal(t, int64(10), rows[0].Users)

	// A dimension value that is not a compact date passes through
	assert.Equal(t, "(other)", rows[1].Date)
}

func TestNormalizeTrafficSources(t *testing.T) {
	n := NewNormalizer()

	res := ga.ReportResult{
		QueryID: domain.QueryTrafficSources,
		Rows: []ga.ReportRow{
			{
				Dimensions: []string{"google", "organic"},
				Metrics:    []ga.DateRangeValues{{Values: []string{"800", "650"}}},
			},
			{
				Dimensions: []string{"(direct)", "(none)"},
				Metrics:    []ga.DateRangeValues{{Values: []string{"300", "290"}}},
			},
		},
	}

	rows, rowErrs := n.NormalizeTrafficSources(res)
	require.Empty(t, rowErrs)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.SourceRow{Source: "google", Medium: "organic", Sessions: 800, Users: 650}, rows[0])
}

func TestNormalizeDevices_MissingDimensionIsEmpty(t *testing.T) {
	n := NewNormalizer()

	res := ga.ReportResult{
		QueryID: domain.QueryDevices,
		Rows: []ga.ReportRow{
			{Metrics: []ga.DateRangeValues{{Values: []string{"5", "6"}}}},
		},
	}

	rows, rowErrs := n.NormalizeDevices(res)
	require.Empty(t, rowErrs)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Device)
	assert.Equal(t, int64(5), rows[0].Users)
}

func TestNormalizeGeography(t *testing.T) {
	n := NewNormalizer()

	res := ga.ReportResult{
		QueryID: domain.QueryGeography,
		Rows: []ga.ReportRow{
			{
				Dimensions: []string{"Germany", "Berlin"},
				Metrics:    []ga.DateRangeValues{{Values: []string{"120", "150"}}},
			},
		},
	}

	rows, rowErrs := n.NormalizeGeography(res)
	require.Empty(t, rowErrs)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.GeoRow{Country: "Germany", City: "Berlin", Users: 120, Sessions: 150}, rows[0])
}

func TestNormalizeRealTime(t *testing.T) {
	n := NewNormalizer()

	t.Run("active users present", func(t *testing.T) {
		rt, err := n.NormalizeRealTime(ga.RealTimeResult{Totals: map[string]string{"rt:activeUsers": "17"}})
		require.NoError(t, err)
		assert.Equal(t, int64(17), rt.ActiveUsers)
	})

	t.Run("missing metric is zero, not an error", func(t *testing.T) {
		rt, err := n.NormalizeRealTime(ga.RealTimeResult{Totals: map[string]string{}})
		require.NoError(t, err)
		assert.Zero(t, rt.ActiveUsers)
	})

	t.Run("empty value is zero", func(t *testing.T) {
		rt, err := n.NormalizeRealTime(ga.RealTimeResult{Totals: map[string]string{"rt:activeUsers": ""}})
		require.NoError(t, err)
		assert.Zero(t, rt.ActiveUsers)
	})

	t.Run("non-numeric value is an error", func(t *testing.T) {
		_, err := n.NormalizeRealTime(ga.RealTimeResult{Totals: map[string]string{"rt:activeUsers": "many"}})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNormalization))
	})
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"20250115", "2025-01-15"},
		{"20241231", "2024-12-31"},
		{"2025011", "2025011"},   // too short
		{"202501155", "202501155"}, // too long
		{"2025011x", "2025011x"}, // non-digit
		{"", ""},
		{"(other)", "(other)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDate(tt.in), "input %q", tt.in)
	}
}
