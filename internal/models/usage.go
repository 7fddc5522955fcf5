package models

import (
	"fmt"
	"time"
)

// Period selects the time window for usage queries.
type Period string

const (
	// Period24Hours covers the last 24 hours.
	Period24Hours Period = "24h"
	// Period7Days covers the last 7 days.
	Period7Days Period = "7d"
	// Period30Days covers the last 30 days.
	Period30Days Period = "30d"
	// Period90Days covers the last 90 days.
	Period90Days Period = "90d"

	// DefaultPeriod is used when no period is selected.
	DefaultPeriod = Period7Days
)

// Periods lists the selectable windows in display order.
var Periods = []Period{Period24Hours, Period7Days, Period30Days, Period90Days}

// ParsePeriod validates a period selector.
func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q (want one of 24h, 7d, 30d, 90d)", s)
}

// Label returns the display name for a period.
func (p Period) Label() string {
	switch p {
	case Period24Hours:
		return "Last 24 Hours"
	case Period7Days:
		return "Last 7 Days"
	case Period30Days:
		return "Last 30 Days"
	case Period90Days:
		return "Last 90 Days"
	default:
		return "Unknown"
	}
}

// Duration returns the length of the window.
func (p Period) Duration() time.Duration {
	switch p {
	case Period24Hours:
		return 24 * time.Hour
	case Period7Days:
		return 7 * 24 * time.Hour
	case Period30Days:
		return 30 * 24 * time.Hour
	case Period90Days:
		return 90 * 24 * time.Hour
	default:
		return 0
	}
}

// Next cycles to the following period.
func (p Period) Next() Period {
	for i, candidate := range Periods {
		if candidate == p {
			return Periods[(i+1)%len(Periods)]
		}
	}
	return DefaultPeriod
}

// Prev cycles to the preceding period.
func (p Period) Prev() Period {
	for i, candidate := range Periods {
		if candidate == p {
			return Periods[(i-1+len(Periods))%len(Periods)]
		}
	}
	return DefaultPeriod
}

// UsageRecord is a single usage row as returned by GET /usage.
type UsageRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	ModelName      string    `json:"model_name"`
	TotalTokens    int64     `json:"total_tokens"`
	Cost           float64   `json:"cost"`
	Errors         int64     `json:"errors"`
	InputTokens    int64     `json:"input_tokens,omitempty"`
	OutputTokens   int64     `json:"output_tokens,omitempty"`
	Requests       int64     `json:"requests,omitempty"`
	Endpoint       string    `json:"endpoint,omitempty"`
	StatusCode     int       `json:"status_code,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms,omitempty"`
}

// Failed reports whether the record carries any errors.
func (r UsageRecord) Failed() bool {
	return r.Errors > 0
}

// StatsSummary holds aggregate counters for a period plus trend deltas.
type StatsSummary struct {
	TotalCost       float64  `json:"total_cost"`
	TotalTokens     int64    `json:"total_tokens"`
	TotalRequests   int64    `json:"total_requests"`
	TotalErrors     int64    `json:"total_errors"`
	ErrorRate       float64  `json:"error_rate"`
	AvgResponseTime *float64 `json:"avg_response_time,omitempty"`
	CostTrend       *float64 `json:"cost_trend,omitempty"`
	TokenTrend      *float64 `json:"token_trend,omitempty"`
	RequestTrend    *float64 `json:"request_trend,omitempty"`
	ErrorTrend      *float64 `json:"error_trend,omitempty"`
}

// UsageRecordInput is the body of POST /usage.
type UsageRecordInput struct {
	APIKeyID       string `json:"api_key_id"`
	InputTokens    int64  `json:"input_tokens"`
	OutputTokens   int64  `json:"output_tokens"`
	ModelName      string `json:"model_name"`
	Endpoint       string `json:"endpoint,omitempty"`
	StatusCode     int    `json:"status_code,omitempty"`
	ResponseTimeMs int64  `json:"response_time_ms,omitempty"`
}

// Validate mirrors the server-side constraints so obviously bad rows are not sent.
func (in UsageRecordInput) Validate() error {
	switch {
	case in.APIKeyID == "":
		return &ValidationError{Field: "api_key_id", Message: "API key id is required"}
	case in.InputTokens < 0 || in.OutputTokens < 0:
		return &ValidationError{Field: "tokens", Message: "Token counts must not be negative"}
	case in.ModelName == "" || len(in.ModelName) > 100:
		return &ValidationError{Field: "model_name", Message: "Model name must be 1-100 characters"}
	case in.StatusCode != 0 && (in.StatusCode < 100 || in.StatusCode > 599):
		return &ValidationError{Field: "status_code", Message: "Status code must be between 100 and 599"}
	}
	return nil
}
