package domain

// QueryKind identifies a named analytics query type
type QueryKind string

const (
	QueryOverview       QueryKind = "overview"
	QueryTopPages       QueryKind = "top-pages"
	QueryByDate         QueryKind = "by-date"
	QueryTrafficSources QueryKind = "traffic-sources"
	QueryDevices        QueryKind = "devices"
	QueryGeography      QueryKind = "geography"
	QueryRealTime       QueryKind = "real-time"
)

// ParseQueryKind parses a query kind from its request string form
func ParseQueryKind(s string) (QueryKind, bool) {
	switch QueryKind(s) {
	case QueryOverview, QueryTopPages, QueryByDate, QueryTrafficSources,
		QueryDevices, QueryGeography, QueryRealTime:
		return QueryKind(s), true
	}
	return "", false
}

// DateRange is an inclusive calendar-date range in YYYY-MM-DD form
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// OrderBy describes the sort order for one report field
type OrderBy struct {
	FieldName string `json:"field_name"`
	Desc      bool   `json:"desc"`
}

// ReportSpec is a declarative description of one report query. Value
// object: constructed by the builder, never mutated afterwards.
type ReportSpec struct {
	QueryID    QueryKind `json:"query_id"`
	DateRange  DateRange `json:"date_range"`
	Dimensions []string  `json:"dimensions"`
	Metrics    []string  `json:"metrics"`
	OrderBys   []OrderBy `json:"order_bys,omitempty"`
	PageSize   int       `json:"page_size,omitempty"`
}
