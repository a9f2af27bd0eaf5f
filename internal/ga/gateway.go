package ga

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"analytics-be/internal/domain"
	"analytics-be/pkg/errors"
	"analytics-be/pkg/logger"
)

const (
	defaultBatchURL    = "https://analyticsreporting.googleapis.com/v4/reports:batchGet"
	defaultRealtimeURL = "https://www.googleapis.com/analytics/v3/data/realtime"

	batchTimeout    = 30 * time.Second
	realtimeTimeout = 10 * time.Second

	rtActiveUsersMetric = "rt:activeUsers"
)

// TokenSource supplies a valid bearer token for outbound calls
type TokenSource interface {
	GetAccessToken(ctx context.Context) (string, error)
}

// Gateway executes report batches and real-time calls against the
// provider. One abstraction, two transports: the batch endpoint takes a
// POST with composed report requests, the real-time endpoint a GET on a
// different host. The gateway never retries; retry policy belongs to
// the caller.
type Gateway struct {
	viewID     string
	tokens     TokenSource
	httpClient *http.Client
	log        *logger.Logger

	batchURL    string
	realtimeURL string
}

// NewGateway creates a gateway for the given reporting view
func NewGateway(viewID string, tokens TokenSource, log *logger.Logger) *Gateway {
	return &Gateway{
		viewID:      viewID,
		tokens:      tokens,
		httpClient:  &http.Client{},
		log:         log.Named("gateway"),
		batchURL:    defaultBatchURL,
		realtimeURL: defaultRealtimeURL,
	}
}

// BatchGet executes one batch of report specs in a single call. Results
// come back 1:1 in the order the specs were submitted; anything else in
// a 200 response is a protocol violation, never an empty success.
func (g *Gateway) BatchGet(ctx context.Context, specs []domain.ReportSpec) ([]ReportResult, error) {
	if len(specs) == 0 {
		return nil, errors.NewValidationError("at least one report spec is required", nil)
	}

	token, err := g.tokens.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := getReportsRequest{ReportRequests: make([]reportRequest, 0, len(specs))}
	for _, spec := range specs {
		payload.ReportRequests = append(payload.ReportRequests, toWireRequest(g.viewID, spec))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode batch request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.batchURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError("failed to build batch request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, g.classifyTransportError("batch report call failed", queryIDs(specs), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransportError("failed to read batch response", resp.StatusCode, "", err)
	}

	g.log.WithFields(map[string]interface{}{
		"status_code": resp.StatusCode,
		"queries":     queryIDs(specs),
		"duration":    time.Since(start).String(),
	}).Debug("Batch report call completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, g.upstreamError("batch report", queryIDs(specs), resp.StatusCode, respBody)
	}

	var reportsResp getReportsResponse
	if err := json.Unmarshal(respBody, &reportsResp); err != nil {
		return nil, errors.NewProtocolError("batch response is not valid JSON", string(respBody), err)
	}
	if reportsResp.Reports == nil {
		return nil, errors.NewProtocolError(
			fmt.Sprintf("batch response is missing reports (queries: %s)", queryIDs(specs)),
			string(respBody), nil)
	}

	reports := *reportsResp.Reports
	if len(reports) != len(specs) {
		return nil, errors.NewProtocolError(
			fmt.Sprintf("batch response has %d reports for %d requests (queries: %s)",
				len(reports), len(specs), queryIDs(specs)),
			string(respBody), nil)
	}

	results := make([]ReportResult, len(specs))
	for i, report := range reports {
		results[i] = ReportResult{
			QueryID: specs[i].QueryID,
			Rows:    report.Data.Rows,
			Totals:  report.Data.Totals,
		}
	}
	return results, nil
}

// ActiveUsers calls the real-time endpoint and returns its raw totals
func (g *Gateway) ActiveUsers(ctx context.Context) (RealTimeResult, error) {
	token, err := g.tokens.GetAccessToken(ctx)
	if err != nil {
		return RealTimeResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, realtimeTimeout)
	defer cancel()

	params := url.Values{
		"ids":     {"ga:" + g.viewID},
		"metrics": {rtActiveUsersMetric},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.realtimeURL+"?"+params.Encode(), nil)
	if err != nil {
		return RealTimeResult{}, errors.NewInternalError("failed to build real-time request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return RealTimeResult{}, g.classifyTransportError("real-time call failed", string(domain.QueryRealTime), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return RealTimeResult{}, errors.NewTransportError("failed to read real-time response", resp.StatusCode, "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RealTimeResult{}, g.upstreamError("real-time", string(domain.QueryRealTime), resp.StatusCode, respBody)
	}

	var rtResp realtimeResponse
	if err := json.Unmarshal(respBody, &rtResp); err != nil {
		return RealTimeResult{}, errors.NewProtocolError("real-time response is not valid JSON", string(respBody), err)
	}
	if rtResp.TotalsForAllResults == nil {
		return RealTimeResult{}, errors.NewProtocolError("real-time response is missing totalsForAllResults", string(respBody), nil)
	}

	return RealTimeResult{Totals: rtResp.TotalsForAllResults}, nil
}

// upstreamError maps a non-2xx provider response into the error
// taxonomy, always carrying the status and the body verbatim.
func (g *Gateway) upstreamError(call, queries string, status int, body []byte) *errors.AppError {
	message := fmt.Sprintf("%s call returned status %d (queries: %s)", call, status, queries)

	var parsed googleErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		message = fmt.Sprintf("%s call returned status %d: %s (queries: %s)",
			call, status, parsed.Error.Message, queries)
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return errors.NewAuthError(message, status, string(body), nil)
	}
	return errors.NewTransportError(message, status, string(body), nil)
}

// classifyTransportError distinguishes timeouts from other network
// failures so callers can choose a retry strategy.
func (g *Gateway) classifyTransportError(message, queries string, err error) *errors.AppError {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.NewTimeoutError(fmt.Sprintf("%s: deadline exceeded (queries: %s)", message, queries), err)
	}
	return errors.NewTransportError(fmt.Sprintf("%s (queries: %s)", message, queries), 0, "", err)
}

// toWireRequest maps a report spec onto the provider's request shape
func toWireRequest(viewID string, spec domain.ReportSpec) reportRequest {
	wire := reportRequest{
		ViewID: viewID,
		DateRanges: []wireDateRange{{
			StartDate: spec.DateRange.Start,
			EndDate:   spec.DateRange.End,
		}},
		PageSize: spec.PageSize,
	}
	for _, d := range spec.Dimensions {
		wire.Dimensions = append(wire.Dimensions, wireDimension{Name: d})
	}
	for _, m := range spec.Metrics {
		wire.Metrics = append(wire.Metrics, wireMetric{Expression: m})
	}
	for _, o := range spec.OrderBys {
		sortOrder := "ASCENDING"
		if o.Desc {
			sortOrder = "DESCENDING"
		}
		wire.OrderBys = append(wire.OrderBys, wireOrderBy{FieldName: o.FieldName, SortOrder: sortOrder})
	}
	return wire
}

func queryIDs(specs []domain.ReportSpec) string {
	ids := make([]string, 0, len(specs))
	for _, s := range specs {
		ids = append(ids, string(s.QueryID))
	}
	return strings.Join(ids, ",")
}
