package ga

import "analytics-be/internal/domain"

// Wire shapes for the v4 batch reporting endpoint. Request field names
// follow the provider's JSON contract exactly; these types exist only at
// the gateway boundary and never leak past the normalizer.

type getReportsRequest struct {
	ReportRequests []reportRequest `json:"reportRequests"`
}

type reportRequest struct {
	ViewID     string          `json:"viewId"`
	DateRanges []wireDateRange `json:"dateRanges"`
	Dimensions []wireDimension `json:"dimensions,omitempty"`
	Metrics    []wireMetric    `json:"metrics"`
	OrderBys   []wireOrderBy   `json:"orderBys,omitempty"`
	PageSize   int             `json:"pageSize,omitempty"`
}

type wireDateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type wireDimension struct {
	Name string `json:"name"`
}

type wireMetric struct {
	Expression string `json:"expression"`
}

type wireOrderBy struct {
	FieldName string `json:"fieldName"`
	SortOrder string `json:"sortOrder,omitempty"`
}

// getReportsResponse keeps Reports as a pointer so a 200 body without a
// reports key is distinguishable from an empty report list.
type getReportsResponse struct {
	Reports *[]Report `json:"reports"`
}

// Report is one raw report in a batch response
type Report struct {
	ColumnHeader ColumnHeader `json:"columnHeader"`
	Data         ReportData   `json:"data"`
}

// ColumnHeader names the dimension and metric columns of a report
type ColumnHeader struct {
	Dimensions   []string     `json:"dimensions"`
	MetricHeader MetricHeader `json:"metricHeader"`
}

type MetricHeader struct {
	MetricHeaderEntries []MetricHeaderEntry `json:"metricHeaderEntries"`
}

type MetricHeaderEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ReportData holds the rows and totals of one report
type ReportData struct {
	Rows     []ReportRow       `json:"rows"`
	Totals   []DateRangeValues `json:"totals"`
	RowCount int64             `json:"rowCount"`
}

// ReportRow is one combination of dimension values with its metrics
type ReportRow struct {
	Dimensions []string          `json:"dimensions"`
	Metrics    []DateRangeValues `json:"metrics"`
}

// DateRangeValues carries the metric values for one date range
type DateRangeValues struct {
	Values []string `json:"values"`
}

// ReportResult pairs a raw report with the query kind that produced it.
// It exists only transiently between the gateway and the normalizer.
type ReportResult struct {
	QueryID domain.QueryKind
	Rows    []ReportRow
	Totals  []DateRangeValues
}

// RealTimeResult is the raw result of the real-time endpoint call
type RealTimeResult struct {
	Totals map[string]string
}

// realtimeResponse mirrors the real-time API's response envelope
type realtimeResponse struct {
	TotalsForAllResults map[string]string `json:"totalsForAllResults"`
}

// googleErrorBody is the provider's structured error envelope
type googleErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
