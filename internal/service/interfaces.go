package service

import (
	"context"

	"analytics-be/internal/domain"
	"analytics-be/internal/ga"
)

// ReportGateway defines the transport operations the services need from
// the reporting provider
type ReportGateway interface {
	// BatchGet executes one batch of report specs; results are ordered
	// 1:1 with the input specs
	BatchGet(ctx context.Context, specs []domain.ReportSpec) ([]ga.ReportResult, error)

	// ActiveUsers calls the real-time endpoint
	ActiveUsers(ctx context.Context) (ga.RealTimeResult, error)
}

// AnalyticsService defines the typed query operations exposed to the
// HTTP layer
type AnalyticsService interface {
	// Overview returns site-wide totals for a date range
	Overview(ctx context.Context, dateRange domain.DateRange) (*domain.OverviewTotals, error)

	// TopPages returns the most viewed pages, sorted by views descending
	TopPages(ctx context.Context, dateRange domain.DateRange, limit int) ([]domain.PageRow, error)

	// ByDate returns a per-day series, sorted by date ascending
	ByDate(ctx context.Context, dateRange domain.DateRange) ([]domain.DateRow, error)

	// TrafficSources returns source/medium rows, sorted by sessions descending
	TrafficSources(ctx context.Context, dateRange domain.DateRange, limit int) ([]domain.SourceRow, error)

	// Devices returns per-device-category rows
	Devices(ctx context.Context, dateRange domain.DateRange) ([]domain.DeviceRow, error)

	// Geography returns country/city rows, sorted by users descending
	Geography(ctx context.Context, dateRange domain.DateRange, limit int) ([]domain.GeoRow, error)

	// RealTime returns the current active-user count
	RealTime(ctx context.Context) (*domain.RealTime, error)

	// Dashboard assembles the composite dashboard view, degrading to a
	// partial result when individual sub-queries fail
	Dashboard(ctx context.Context, dateRange domain.DateRange, limit int) (*domain.Dashboard, error)
}
