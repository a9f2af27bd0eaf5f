package domain

// SubQueryState tracks the lifecycle of one dashboard sub-query.
// Pending -> Requested -> Succeeded | Failed; the terminal states are
// final, retries are the caller's business.
type SubQueryState string

const (
	SubQueryPending   SubQueryState = "pending"
	SubQueryRequested SubQueryState = "requested"
	SubQuerySucceeded SubQueryState = "succeeded"
	SubQueryFailed    SubQueryState = "failed"
)

// Dashboard is the composite result assembled from several independent
// query kinds. A nil section means its sub-query failed; the failure is
// recorded in Errors under the same kind.
type Dashboard struct {
	DateRange      DateRange       `json:"date_range"`
	Overview       *OverviewTotals `json:"overview,omitempty"`
	TopPages       []PageRow       `json:"top_pages,omitempty"`
	TrafficSources []SourceRow     `json:"traffic_sources,omitempty"`
	Devices        []DeviceRow     `json:"devices,omitempty"`
	Geography      []GeoRow        `json:"geography,omitempty"`
	RealTime       *RealTime       `json:"real_time,omitempty"`

	// Errors maps each failed sub-query kind to its error message.
	// Empty when every sub-query succeeded.
	Errors map[QueryKind]string `json:"errors,omitempty"`
}

// Partial reports whether at least one sub-query failed
func (d *Dashboard) Partial() bool {
	return len(d.Errors) > 0
}
