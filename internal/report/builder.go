package report

import (
	"fmt"
	"time"

	"analytics-be/internal/domain"
	"analytics-be/pkg/errors"
)

// Dimension and metric names in the provider's vocabulary
const (
	dimDate           = "ga:date"
	dimPageTitle      = "ga:pageTitle"
	dimPagePath       = "ga:pagePath"
	dimSource         = "ga:source"
	dimMedium         = "ga:medium"
	dimDeviceCategory = "ga:deviceCategory"
	dimCountry        = "ga:country"
	dimCity           = "ga:city"

	metUsers              = "ga:users"
	metSessions           = "ga:sessions"
	metPageviews          = "ga:pageviews"
	metUniquePageviews    = "ga:uniquePageviews"
	metAvgTimeOnPage      = "ga:avgTimeOnPage"
	metAvgSessionDuration = "ga:avgSessionDuration"
	metBounceRate         = "ga:bounceRate"
	metSessionsPerUser    = "ga:sessionsPerUser"
)

const dateLayout = "2006-01-02"

// DefaultPageSize applies when a query kind takes a limit and the
// caller did not provide one
const DefaultPageSize = 10

// Builder translates a named query kind plus a date range into report
// specs. Pure: no I/O, no state; the only failures are invalid input.
type Builder struct{}

// NewBuilder creates a report spec builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Build constructs the report spec for one query kind. limit <= 0 is
// only valid for kinds that ignore paging (overview, by-date, devices).
func (b *Builder) Build(kind domain.QueryKind, dateRange domain.DateRange, limit int) (domain.ReportSpec, error) {
	if err := validateDateRange(dateRange); err != nil {
		return domain.ReportSpec{}, err
	}

	spec := domain.ReportSpec{
		QueryID:   kind,
		DateRange: dateRange,
	}

	switch kind {
	case domain.QueryOverview:
		spec.Metrics = []string{
			metUsers, metSessions, metPageviews,
			metAvgSessionDuration, metBounceRate, metSessionsPerUser,
		}

	case domain.QueryTopPages:
		if err := validateLimit(limit); err != nil {
			return domain.ReportSpec{}, err
		}
		spec.Dimensions = []string{dimPageTitle, dimPagePath}
		spec.Metrics = []string{metPageviews, metUniquePageviews, metAvgTimeOnPage}
		spec.OrderBys = []domain.OrderBy{{FieldName: metPageviews, Desc: true}}
		spec.PageSize = limit

	case domain.QueryByDate:
		spec.Dimensions = []string{dimDate}
		spec.Metrics = []string{metUsers, metSessions, metPageviews}
		spec.OrderBys = []domain.OrderBy{{FieldName: dimDate}}

	case domain.QueryTrafficSources:
		if err := validateLimit(limit); err != nil {
			return domain.ReportSpec{}, err
		}
		spec.Dimensions = []string{dimSource, dimMedium}
		spec.Metrics = []string{metSessions, metUsers}
		spec.OrderBys = []domain.OrderBy{{FieldName: metSessions, Desc: true}}
		spec.PageSize = limit

	case domain.QueryDevices:
		spec.Dimensions = []string{dimDeviceCategory}
		spec.Metrics = []string{metUsers, metSessions}
		spec.OrderBys = []domain.OrderBy{{FieldName: metUsers, Desc: true}}

	case domain.QueryGeography:
		if err := validateLimit(limit); err != nil {
			return domain.ReportSpec{}, err
		}
		spec.Dimensions = []string{dimCountry, dimCity}
		spec.Metrics = []string{metUsers, metSessions}
		spec.OrderBys = []domain.OrderBy{{FieldName: metUsers, Desc: true}}
		spec.PageSize = limit

	default:
		return domain.ReportSpec{}, errors.NewValidationError(
			fmt.Sprintf("unknown query kind %q", kind),
			map[string]interface{}{"field": "query_kind"})
	}

	return spec, nil
}

// BuildDashboardBatch composes the batched report specs for the
// dashboard view: every kind that shares the date range goes into one
// batch so the gateway can issue a single call. Real-time is excluded;
// it lives on a separate API surface.
func (b *Builder) BuildDashboardBatch(dateRange domain.DateRange, limit int) ([]domain.ReportSpec, error) {
	kinds := []domain.QueryKind{
		domain.QueryOverview,
		domain.QueryTopPages,
		domain.QueryTrafficSources,
		domain.QueryDevices,
		domain.QueryGeography,
	}

	specs := make([]domain.ReportSpec, 0, len(kinds))
	for _, kind := range kinds {
		spec, err := b.Build(kind, dateRange, limit)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func validateDateRange(dr domain.DateRange) error {
	start, err := time.Parse(dateLayout, dr.Start)
	if err != nil {
		return errors.NewValidationError(
			fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", dr.Start),
			map[string]interface{}{"field": "start_date"})
	}
	end, err := time.Parse(dateLayout, dr.End)
	if err != nil {
		return errors.NewValidationError(
			fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", dr.End),
			map[string]interface{}{"field": "end_date"})
	}
	if start.After(end) {
		return errors.NewValidationError(
			fmt.Sprintf("start date %s is after end date %s", dr.Start, dr.End),
			map[string]interface{}{"field": "date_range"})
	}
	return nil
}

func validateLimit(limit int) error {
	if limit <= 0 {
		return errors.NewValidationError(
			fmt.Sprintf("limit must be positive, got %d", limit),
			map[string]interface{}{"field": "limit"})
	}
	return nil
}
