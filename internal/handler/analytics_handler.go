package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"analytics-be/internal/container"
	"analytics-be/internal/domain"
	"analytics-be/internal/report"
	"analytics-be/pkg/errors"
)

const dateLayout = "2006-01-02"

// AnalyticsHandler handles analytics reporting requests
type AnalyticsHandler struct {
	container *container.Container
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(container *container.Container) *AnalyticsHandler {
	return &AnalyticsHandler{
		container: container,
	}
}

// ResponseWrapper wraps a successful response payload
type ResponseWrapper struct {
	Data    interface{} `json:"data"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
}

// Overview handles GET /api/analytics/overview
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	dateRange, err := parseDateRange(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	totals, err := h.container.GetAnalyticsService().Overview(r.Context(), dateRange)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, totals, "Overview totals retrieved successfully")
}

// TopPages handles GET /api/analytics/top-pages
func (h *AnalyticsHandler) TopPages(w http.ResponseWriter, r *http.Request) {
	dateRange, err := parseDateRange(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rows, err := h.container.GetAnalyticsService().TopPages(r.Context(), dateRange, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, rows, "Top pages retrieved successfully")
}

// ByDate handles GET /api/analytics/by-date
func (h *AnalyticsHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	dateRange, err := parseDateRange(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rows, err := h.container.GetAnalyticsService().ByDate(r.Context(), dateRange)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, rows, "Daily series retrieved successfully")
}

// TrafficSources handles GET /api/analytics/traffic-sources
func (h *AnalyticsHandler) TrafficSources(w http.ResponseWriter, r *http.Request) {
	dateRange, err := parseDateRange(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rows, err := h.container.GetAnalyticsService().TrafficSources(r.Context(), dateRange, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, rows, "Traffic sources retrieved successfully")
}

// Devices handles GET /api/analytics/devices
func (h *AnalyticsHandler) Devices(w http.ResponseWriter, r *http.Request) {
	dateRange, err := parseDateRange(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rows, err := h.container.GetAnalyticsService().Devices(r.Context(), dateRange)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, rows, "Device breakdown retrieved successfully")
}

// Geography handles GET /api/analytics/geography
func (h *AnalyticsHandler) Geography(w http.ResponseWriter, r *http.Request) {
	dateRange, err := parseDateRange(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rows, err := h.container.GetAnalyticsService().Geography(r.Context(), dateRange, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, rows, "Geography breakdown retrieved successfully")
}

// RealTime handles GET /api/analytics/realtime
func (h *AnalyticsHandler) RealTime(w http.ResponseWriter, r *http.Request) {
	rt, err := h.container.GetAnalyticsService().RealTime(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, rt, "Active users retrieved successfully")
}

// Dashboard handles GET /api/analytics/dashboard. Sub-query failures do
// not fail the request; the response carries what succeeded plus an
// errors map.
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	dateRange, err := parseDateRange(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	dash, err := h.container.GetAnalyticsService().Dashboard(r.Context(), dateRange, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	message := "Dashboard retrieved successfully"
	if dash.Partial() {
		message = "Dashboard retrieved with partial results"
		logger.WithField("failed_kinds", len(dash.Errors)).Warn("Dashboard returned partial results")
	}

	h.writeJSON(w, dash, message)
}

// parseDateRange reads start/end query parameters, defaulting to the
// last 30 days
func parseDateRange(r *http.Request) (domain.DateRange, error) {
	now := time.Now().UTC()
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	if start == "" {
		start = now.AddDate(0, 0, -30).Format(dateLayout)
	}
	if end == "" {
		end = now.Format(dateLayout)
	}

	if _, err := time.Parse(dateLayout, start); err != nil {
		return domain.DateRange{}, errors.NewValidationError("Invalid start date, expected YYYY-MM-DD", map[string]interface{}{
			"field": "start",
			"value": start,
		})
	}
	if _, err := time.Parse(dateLayout, end); err != nil {
		return domain.DateRange{}, errors.NewValidationError("Invalid end date, expected YYYY-MM-DD", map[string]interface{}{
			"field": "end",
			"value": end,
		})
	}

	return domain.DateRange{Start: start, End: end}, nil
}

// parseLimit reads the limit query parameter, defaulting to the
// builder's page size
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return report.DefaultPageSize, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.NewValidationError("Invalid limit, expected a positive integer", map[string]interface{}{
			"field": "limit",
			"value": raw,
		})
	}
	return limit, nil
}

// writeJSON writes a successful response in the standard envelope
func (h *AnalyticsHandler) writeJSON(w http.ResponseWriter, data interface{}, message string) {
	logger := h.container.GetLogger()

	response := ResponseWrapper{
		Data:    data,
		Success: true,
		Message: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError writes an error response, mapping unknown errors to a 500
func (h *AnalyticsHandler) writeError(w http.ResponseWriter, err error) {
	logger := h.container.GetLogger()

	appErr := errors.AsAppError(err)

	logger.WithError(appErr).Error("Request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":      appErr.Type,
			"message":   appErr.Message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode error response")
	}
}
