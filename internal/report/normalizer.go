package report

import (
	"fmt"
	"strconv"

	"analytics-be/internal/domain"
	"analytics-be/internal/ga"
	"analytics-be/pkg/errors"
)

// Normalizer converts raw report results into the typed records for
// each query kind. Missing expected values become zero, never errors;
// only a value that is present and unparseable is reported, and then
// per row so siblings survive.
type Normalizer struct{}

// NewNormalizer creates a response normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeOverview maps the overview report's totals into one record.
// It prefers the report totals and falls back to the first row, since
// a dimensionless report carries its values in either place.
func (n *Normalizer) NormalizeOverview(res ga.ReportResult) (*domain.OverviewTotals, error) {
	values := firstValues(res)

	totals := &domain.OverviewTotals{}
	var err error
	if totals.Users, err = intAt(values, 0); err != nil {
		return nil, errors.NewNormalizationError(string(res.QueryID), 0, err)
	}
	if totals.Sessions, err = intAt(values, 1); err != nil {
		return nil, errors.NewNormalizationError(string(res.QueryID), 0, err)
	}
	if totals.PageViews, err = intAt(values, 2); err != nil {
		return nil, errors.NewNormalizationError(string(res.QueryID), 0, err)
	}
	if totals.AvgSessionDuration, err = floatAt(values, 3); err != nil {
		return nil, errors.NewNormalizationError(string(res.QueryID), 0, err)
	}
	if totals.BounceRate, err = floatAt(values, 4); err != nil {
		return nil, errors.NewNormalizationError(string(res.QueryID), 0, err)
	}
	if totals.SessionsPerUser, err = floatAt(values, 5); err != nil {
		return nil, errors.NewNormalizationError(string(res.QueryID), 0, err)
	}
	return totals, nil
}

// NormalizeTopPages maps each row into a PageRow, preserving order.
// Rows that fail numeric parsing are skipped and reported in the
// returned error list.
func (n *Normalizer) NormalizeTopPages(res ga.ReportResult) ([]domain.PageRow, []error) {
	rows := make([]domain.PageRow, 0, len(res.Rows))
	var rowErrs []error

	for i, raw := range res.Rows {
		values := rowValues(raw)
		row := domain.PageRow{
			Title: dimAt(raw, 0),
			Path:  dimAt(raw, 1),
		}
		var err error
		if row.Views, err = intAt(values, 0); err != nil {
			rowErrs = append(rowErrs, errors.NewNormalizationError(string(res.QueryID), i, err))
			continue
		}
		if row.UniqueViews, err = intAt(values, 1); err != nil {
			rowErrs = append(rowErrs, errors.NewNormalizationError(string(res.QueryID), i, err))
			continue
		}
		if row.AvgTimeOnPage, err = floatAt(values, 2); err != nil {
			rowErrs = append(rowErrs, errors.NewNormalizationError(string(res.QueryID), i, err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, rowErrs
}

// NormalizeByDate maps each row into a DateRow with the date rewritten
// from the provider's compact form to YYYY-MM-DD.
func (n *Normalizer) NormalizeByDate(res ga.ReportResult) ([]domain.DateRow, []error) {
	rows := make([]domain.DateRow, 0, len(res.Rows))
	var rowErrs []error

	for i, raw := range res.Rows {
		values := rowValues(raw)
		row := domain.DateRow{
			Date: NormalizeDate(dimAt(raw, 0)),
		}
		var err error
		if row.Users, err = intAt(values, 0); err != nil {
			rowErrs = append(rowErrs, errors.NewNormalizationError(string(res.QueryID), i, err))
			continue
		}
		if row.Sessions, err = intAt(values, 1); err != nil {
			rowErrs = append(rowErrs, errors.NewNormalizationError(string(res.QueryID), i, err))
			continue
		}
		if row.PageViews, err = intAt(values, 2); err != nil {
			rowErrs = append(rowErrs, errors.NewNormalizationError(string(res.QueryID), i, err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, rowErrs
}

// NormalizeTrafficSources maps each row into a SourceRow
func (n *Normalizer) NormalizeTrafficSources(res ga.ReportResult) ([]domain.SourceRow, []error) {
	rows := make([]domain.SourceRow, 0, len(res.Rows))
	var rowErrs []error

	for i, raw := range res.Rows {
		values := rowValues(raw)
		row := domain.SourceRow{
			Source: dimAt(raw, 0),
			Medium: dimAt(raw, 1),
		}
		var err error
		if row.Sessions, err = intAt(values, 0); err != nil {
			rowErrs = append(rowErrs, errors.NewNormalizationError(string(res.QueryID), i, err))
			continue
		}
		if row.Users, err = intAt(values, 1); err != nil {
			rowErrs = append(rowErrs, errors.NewNormalizationError(string(res.QueryID), i, err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, rowErrs
}

// NormalizeDevices maps each row into a DeviceRow
func (n *Normalizer) NormalizeDevices(res ga.ReportResult) ([]domain.DeviceRow, []error) {
	rows := make([]domain.DeviceRow, 0, len(res.Rows))
	var rowErrs []error

	for i, raw := range res.Rows {
		values := rowValues(raw)
		row := domain.DeviceRow{
			Device: dimAt(raw, 0),
		}
		var err error
		if row.Users, err = intAt(values, 0); err != nil {
			rowErrs = append(rowErrs, errors.NewNormalizationError(string(res.QueryID), i, err))
			continue
		}
		if row.Sessions, err = intAt(values, 1); err != nil {
			rowErrs = append(rowErrs, errors.NewNormalizationError(string(res.QueryID), i, err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, rowErrs
}

// NormalizeGeography maps each row into a GeoRow
func (n *Normalizer) NormalizeGeography(res ga.ReportResult) ([]domain.GeoRow, []error) {
	rows := make([]domain.GeoRow, 0, len(res.Rows))
	var rowErrs []error

	for i, raw := range res.Rows {
		values := rowValues(raw)
		row := domain.GeoRow{
			Country: dimAt(raw, 0),
			City:    dimAt(raw, 1),
		}
		var err error
		if row.Users, err = intAt(values, 0); err != nil {
			rowErrs = append(rowErrs, errors.NewNormalizationError(string(res.QueryID), i, err))
			continue
		}
		if row.Sessions, err = intAt(values, 1); err != nil {
			rowErrs = append(rowErrs, errors.NewNormalizationError(string(res.QueryID), i, err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, rowErrs
}

// NormalizeRealTime maps the real-time totals into a RealTime record
func (n *Normalizer) NormalizeRealTime(res ga.RealTimeResult) (*domain.RealTime, error) {
	raw, ok := res.Totals["rt:activeUsers"]
	if !ok || raw == "" {
		return &domain.RealTime{}, nil
	}
	active, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.NewNormalizationError(string(domain.QueryRealTime), 0, err)
	}
	return &domain.RealTime{ActiveUsers: active}, nil
}

// NormalizeDate rewrites the provider's 8-digit compact date form into
// a hyphenated calendar date. Anything that does not look like a
// compact date passes through unchanged.
func NormalizeDate(raw string) string {
	if len(raw) != 8 {
		return raw
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return raw
		}
	}
	return raw[0:4] + "-" + raw[4:6] + "-" + raw[6:8]
}

// firstValues returns the overview values: totals when present,
// otherwise the first row's first date range.
func firstValues(res ga.ReportResult) []string {
	if len(res.Totals) > 0 {
		return res.Totals[0].Values
	}
	if len(res.Rows) > 0 {
		return rowValues(res.Rows[0])
	}
	return nil
}

func rowValues(row ga.ReportRow) []string {
	if len(row.Metrics) == 0 {
		return nil
	}
	return row.Metrics[0].Values
}

// dimAt returns the dimension at index i, empty when absent
func dimAt(row ga.ReportRow, i int) string {
	if i >= len(row.Dimensions) {
		return ""
	}
	return row.Dimensions[i]
}

// intAt parses the metric value at index i. A missing or empty value is
// zero; a present non-numeric value is an error.
func intAt(values []string, i int) (int64, error) {
	if i >= len(values) || values[i] == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(values[i], 10, 64)
	if err != nil {
		// Some integer metrics arrive as floats, e.g. "12.0"
		f, ferr := strconv.ParseFloat(values[i], 64)
		if ferr != nil {
			return 0, fmt.Errorf("metric value %q at index %d is not numeric", values[i], i)
		}
		return int64(f), nil
	}
	return v, nil
}

// floatAt parses the metric value at index i with the same rules as intAt
func floatAt(values []string, i int) (float64, error) {
	if i >= len(values) || values[i] == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(values[i], 64)
	if err != nil {
		return 0, fmt.Errorf("metric value %q at index %d is not numeric", values[i], i)
	}
	return v, nil
}
