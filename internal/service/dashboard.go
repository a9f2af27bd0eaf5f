package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"analytics-be/internal/domain"
	"analytics-be/internal/ga"
	"analytics-be/internal/report"
	"analytics-be/pkg/logger"
)

const (
	// The batch endpoint accepts at most 5 report requests per call
	maxReportsPerBatch = 5

	// Upper bound on concurrently running sub-queries
	maxDashboardConcurrency = 3

	// Per sub-query and whole-dashboard deadlines. The gateway bounds
	// each network call too; these cap queueing plus normalization.
	subQueryTimeout  = 35 * time.Second
	dashboardTimeout = 45 * time.Second
)

// dashboardAggregator fans the dashboard's independent sub-queries out
// concurrently and assembles one composite result. A sub-query failure
// is recorded per kind and never takes its siblings down.
type dashboardAggregator struct {
	gateway    ReportGateway
	builder    *report.Builder
	normalizer *report.Normalizer
	log        *logger.Logger

	mu     sync.Mutex
	states map[domain.QueryKind]domain.SubQueryState
}

func newDashboardAggregator(gateway ReportGateway, builder *report.Builder, normalizer *report.Normalizer, log *logger.Logger) *dashboardAggregator {
	return &dashboardAggregator{
		gateway:    gateway,
		builder:    builder,
		normalizer: normalizer,
		log:        log.Named("dashboard"),
		states:     make(map[domain.QueryKind]domain.SubQueryState),
	}
}

// Run executes all dashboard sub-queries and returns the composite once
// every one of them has reached a terminal state. Only an invalid
// request aborts the whole dashboard; provider failures degrade to a
// partial result.
func (a *dashboardAggregator) Run(ctx context.Context, dateRange domain.DateRange, limit int) (*domain.Dashboard, error) {
	specs, err := a.builder.BuildDashboardBatch(dateRange, limit)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, dashboardTimeout)
	defer cancel()

	dash := &domain.Dashboard{
		DateRange: dateRange,
		Errors:    make(map[domain.QueryKind]string),
	}

	for _, spec := range specs {
		a.setState(spec.QueryID, domain.SubQueryPending)
	}
	a.setState(domain.QueryRealTime, domain.SubQueryPending)

	var eg errgroup.Group
	eg.SetLimit(maxDashboardConcurrency)

	// Report kinds that share the date range travel in batched calls to
	// minimize round trips; chunks and the real-time call run
	// concurrently.
	for _, chunk := range chunkSpecs(specs, maxReportsPerBatch) {
		chunk := chunk
		eg.Go(func() error {
			a.runBatch(ctx, chunk, dash)
			return nil
		})
	}

	eg.Go(func() error {
		a.runRealTime(ctx, dash)
		return nil
	})

	// Fan-in: the composite is assembled only after every sub-query is
	// terminal.
	_ = eg.Wait()

	if len(dash.Errors) == 0 {
		dash.Errors = nil
	}
	return dash, nil
}

// runBatch executes one batched gateway call and normalizes each report
// in it. A failed call marks exactly the kinds it carried as failed.
func (a *dashboardAggregator) runBatch(ctx context.Context, specs []domain.ReportSpec, dash *domain.Dashboard) {
	for _, spec := range specs {
		a.setState(spec.QueryID, domain.SubQueryRequested)
	}

	ctx, cancel := context.WithTimeout(ctx, subQueryTimeout)
	defer cancel()

	results, err := a.gateway.BatchGet(ctx, specs)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		a.log.WithError(err).Warn("Dashboard batch call failed")
		for _, spec := range specs {
			a.states[spec.QueryID] = domain.SubQueryFailed
			dash.Errors[spec.QueryID] = err.Error()
		}
		return
	}

	for _, res := range results {
		a.applyResult(dash, res)
	}
}

// runRealTime executes the real-time sub-query
func (a *dashboardAggregator) runRealTime(ctx context.Context, dash *domain.Dashboard) {
	a.setState(domain.QueryRealTime, domain.SubQueryRequested)

	ctx, cancel := context.WithTimeout(ctx, subQueryTimeout)
	defer cancel()

	raw, err := a.gateway.ActiveUsers(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		a.log.WithError(err).Warn("Dashboard real-time sub-query failed")
		a.states[domain.QueryRealTime] = domain.SubQueryFailed
		dash.Errors[domain.QueryRealTime] = err.Error()
		return
	}

	rt, err := a.normalizer.NormalizeRealTime(raw)
	if err != nil {
		a.states[domain.QueryRealTime] = domain.SubQueryFailed
		dash.Errors[domain.QueryRealTime] = err.Error()
		return
	}

	a.states[domain.QueryRealTime] = domain.SubQuerySucceeded
	dash.RealTime = rt
}

// applyResult normalizes one report into its dashboard section. Rows
// that fail to parse are dropped; only a kind whose whole report is
// unusable is marked failed. Caller holds the mutex.
func (a *dashboardAggregator) applyResult(dash *domain.Dashboard, res ga.ReportResult) {
	switch res.QueryID {
	case domain.QueryOverview:
		totals, err := a.normalizer.NormalizeOverview(res)
		if err != nil {
			a.states[res.QueryID] = domain.SubQueryFailed
			dash.Errors[res.QueryID] = err.Error()
			return
		}
		dash.Overview = totals

	case domain.QueryTopPages:
		rows, rowErrs := a.normalizer.NormalizeTopPages(res)
		a.logDroppedRows(res.QueryID, rowErrs)
		dash.TopPages = rows

	case domain.QueryTrafficSources:
		rows, rowErrs := a.normalizer.NormalizeTrafficSources(res)
		a.logDroppedRows(res.QueryID, rowErrs)
		dash.TrafficSources = rows

	case domain.QueryDevices:
		rows, rowErrs := a.normalizer.NormalizeDevices(res)
		a.logDroppedRows(res.QueryID, rowErrs)
		dash.Devices = rows

	case domain.QueryGeography:
		rows, rowErrs := a.normalizer.NormalizeGeography(res)
		a.logDroppedRows(res.QueryID, rowErrs)
		dash.Geography = rows
	}

	a.states[res.QueryID] = domain.SubQuerySucceeded
}

func (a *dashboardAggregator) logDroppedRows(kind domain.QueryKind, rowErrs []error) {
	for _, err := range rowErrs {
		a.log.WithError(err).WithField("query_kind", string(kind)).Warn("Dropped unparseable dashboard row")
	}
}

func (a *dashboardAggregator) setState(kind domain.QueryKind, state domain.SubQueryState) {
	a.mu.Lock()
	a.states[kind] = state
	a.mu.Unlock()
}

// chunkSpecs splits specs into batches the provider accepts
func chunkSpecs(specs []domain.ReportSpec, size int) [][]domain.ReportSpec {
	var chunks [][]domain.ReportSpec
	for len(specs) > size {
		chunks = append(chunks, specs[:size])
		specs = specs[size:]
	}
	if len(specs) > 0 {
		chunks = append(chunks, specs)
	}
	return chunks
}
