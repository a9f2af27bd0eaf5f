package service

import (
	"context"

	"analytics-be/internal/domain"
	"analytics-be/internal/ga"
	"analytics-be/internal/report"
	"analytics-be/pkg/logger"
	"analytics-be/pkg/redis"
)

// analyticsService orchestrates builder -> gateway -> normalizer for
// single queries and delegates the composite view to the dashboard
// aggregator. The cache is optional; a nil cache means every call goes
// to the provider.
type analyticsService struct {
	gateway    ReportGateway
	builder    *report.Builder
	normalizer *report.Normalizer
	cache      *CacheService
	log        *logger.Logger
}

// NewAnalyticsService creates the analytics service. cache may be nil
// when Redis is not configured.
func NewAnalyticsService(gateway ReportGateway, cache *CacheService, log *logger.Logger) AnalyticsService {
	return &analyticsService{
		gateway:    gateway,
		builder:    report.NewBuilder(),
		normalizer: report.NewNormalizer(),
		cache:      cache,
		log:        log.Named("analytics"),
	}
}

// runReport executes a single-spec batch and returns the raw result
func (s *analyticsService) runReport(ctx context.Context, kind domain.QueryKind, dateRange domain.DateRange, limit int) (ga.ReportResult, error) {
	spec, err := s.builder.Build(kind, dateRange, limit)
	if err != nil {
		return ga.ReportResult{}, err
	}

	results, err := s.gateway.BatchGet(ctx, []domain.ReportSpec{spec})
	if err != nil {
		return ga.ReportResult{}, err
	}
	return results[0], nil
}

// logRowErrors reports dropped rows. A row that fails to parse is
// dropped so its siblings still reach the caller.
func (s *analyticsService) logRowErrors(kind domain.QueryKind, rowErrs []error) {
	for _, err := range rowErrs {
		s.log.WithError(err).WithField("query_kind", string(kind)).Warn("Dropped unparseable report row")
	}
}

func (s *analyticsService) Overview(ctx context.Context, dateRange domain.DateRange) (*domain.OverviewTotals, error) {
	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.cache.Keys().KeyReport(string(domain.QueryOverview), dateRange.Start, dateRange.End, 0)
		var cached domain.OverviewTotals
		if s.cache.GetJSON(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	res, err := s.runReport(ctx, domain.QueryOverview, dateRange, 0)
	if err != nil {
		return nil, err
	}

	totals, err := s.normalizer.NormalizeOverview(res)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetJSONAsync(cacheKey, totals, redis.TTLReport)
	}
	return totals, nil
}

func (s *analyticsService) TopPages(ctx context.Context, dateRange domain.DateRange, limit int) ([]domain.PageRow, error) {
	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.cache.Keys().KeyReport(string(domain.QueryTopPages), dateRange.Start, dateRange.End, limit)
		var cached []domain.PageRow
		if s.cache.GetJSON(ctx, cacheKey, &cached) {
			return cached, nil
		}
	}

	res, err := s.runReport(ctx, domain.QueryTopPages, dateRange, limit)
	if err != nil {
		return nil, err
	}

	rows, rowErrs := s.normalizer.NormalizeTopPages(res)
	s.logRowErrors(domain.QueryTopPages, rowErrs)

	if s.cache != nil {
		s.cache.SetJSONAsync(cacheKey, rows, redis.TTLReport)
	}
	return rows, nil
}

func (s *analyticsService) ByDate(ctx context.Context, dateRange domain.DateRange) ([]domain.DateRow, error) {
	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.cache.Keys().KeyReport(string(domain.QueryByDate), dateRange.Start, dateRange.End, 0)
		var cached []domain.DateRow
		if s.cache.GetJSON(ctx, cacheKey, &cached) {
			return cached, nil
		}
	}

	res, err := s.runReport(ctx, domain.QueryByDate, dateRange, 0)
	if err != nil {
		return nil, err
	}

	rows, rowErrs := s.normalizer.NormalizeByDate(res)
	s.logRowErrors(domain.QueryByDate, rowErrs)

	if s.cache != nil {
		s.cache.SetJSONAsync(cacheKey, rows, redis.TTLReport)
	}
	return rows, nil
}

func (s *analyticsService) TrafficSources(ctx context.Context, dateRange domain.DateRange, limit int) ([]domain.SourceRow, error) {
	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.cache.Keys().KeyReport(string(domain.QueryTrafficSources), dateRange.Start, dateRange.End, limit)
		var cached []domain.SourceRow
		if s.cache.GetJSON(ctx, cacheKey, &cached) {
			return cached, nil
		}
	}

	res, err := s.runReport(ctx, domain.QueryTrafficSources, dateRange, limit)
	if err != nil {
		return nil, err
	}

	rows, rowErrs := s.normalizer.NormalizeTrafficSources(res)
	s.logRowErrors(domain.QueryTrafficSources, rowErrs)

	if s.cache != nil {
		s.cache.SetJSONAsync(cacheKey, rows, redis.TTLReport)
	}
	return rows, nil
}

func (s *analyticsService) Devices(ctx context.Context, dateRange domain.DateRange) ([]domain.DeviceRow, error) {
	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.cache.Keys().KeyReport(string(domain.QueryDevices), dateRange.Start, dateRange.End, 0)
		var cached []domain.DeviceRow
		if s.cache.GetJSON(ctx, cacheKey, &cached) {
			return cached, nil
		}
	}

	res, err := s.runReport(ctx, domain.QueryDevices, dateRange, 0)
	if err != nil {
		return nil, err
	}

	rows, rowErrs := s.normalizer.NormalizeDevices(res)
	s.logRowErrors(domain.QueryDevices, rowErrs)

	if s.cache != nil {
		s.cache.SetJSONAsync(cacheKey, rows, redis.TTLReport)
	}
	return rows, nil
}

func (s *analyticsService) Geography(ctx context.Context, dateRange domain.DateRange, limit int) ([]domain.GeoRow, error) {
	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.cache.Keys().KeyReport(string(domain.QueryGeography), dateRange.Start, dateRange.End, limit)
		var cached []domain.GeoRow
		if s.cache.GetJSON(ctx, cacheKey, &cached) {
			return cached, nil
		}
	}

	res, err := s.runReport(ctx, domain.QueryGeography, dateRange, limit)
	if err != nil {
		return nil, err
	}

	rows, rowErrs := s.normalizer.NormalizeGeography(res)
	s.logRowErrors(domain.QueryGeography, rowErrs)

	if s.cache != nil {
		s.cache.SetJSONAsync(cacheKey, rows, redis.TTLReport)
	}
	return rows, nil
}

func (s *analyticsService) RealTime(ctx context.Context) (*domain.RealTime, error) {
	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.cache.Keys().KeyRealTime()
		var cached domain.RealTime
		if s.cache.GetJSON(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	raw, err := s.gateway.ActiveUsers(ctx)
	if err != nil {
		return nil, err
	}

	rt, err := s.normalizer.NormalizeRealTime(raw)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetJSONAsync(cacheKey, rt, redis.TTLRealTime)
	}
	return rt, nil
}

func (s *analyticsService) Dashboard(ctx context.Context, dateRange domain.DateRange, limit int) (*domain.Dashboard, error) {
	agg := newDashboardAggregator(s.gateway, s.builder, s.normalizer, s.log)
	return agg.Run(ctx, dateRange, limit)
}
