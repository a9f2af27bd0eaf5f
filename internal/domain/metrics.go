package domain

// Normalized analytics records, one typed shape per query kind. All
// numeric fields default to zero when the upstream row omits a value;
// consumers branch on zero, never on a missing field.

// OverviewTotals holds the site-wide totals for a date range
type OverviewTotals struct {
	Users              int64   `json:"users"`
	Sessions           int64   `json:"sessions"`
	PageViews          int64   `json:"page_views"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
	BounceRate         float64 `json:"bounce_rate"`
	SessionsPerUser    float64 `json:"sessions_per_user"`
}

// PageRow is one page in a top-pages report
type PageRow struct {
	Title         string  `json:"title"`
	Path          string  `json:"path"`
	Views         int64   `json:"views"`
	UniqueViews   int64   `json:"unique_views"`
	AvgTimeOnPage float64 `json:"avg_time_on_page"`
}

// DateRow is one calendar day in a by-date series. Date is always a
// hyphenated YYYY-MM-DD string.
type DateRow struct {
	Date      string `json:"date"`
	Users     int64  `json:"users"`
	Sessions  int64  `json:"sessions"`
	PageViews int64  `json:"page_views"`
}

// SourceRow is one source/medium pair in a traffic-sources report
type SourceRow struct {
	Source   string `json:"source"`
	Medium   string `json:"medium"`
	Sessions int64  `json:"sessions"`
	Users    int64  `json:"users"`
}

// DeviceRow is one device category in a devices report
type DeviceRow struct {
	Device   string `json:"device"`
	Users    int64  `json:"users"`
	Sessions int64  `json:"sessions"`
}

// GeoRow is one country/city pair in a geography report
type GeoRow struct {
	Country  string `json:"country"`
	City     string `json:"city"`
	Users    int64  `json:"users"`
	Sessions int64  `json:"sessions"`
}

// RealTime holds the current active-user count
type RealTime struct {
	ActiveUsers int64 `json:"active_users"`
}
