// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes Prometheus metrics for tool calls, the auth gate
// and vendor traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	toolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_mcp_tool_calls_total",
			Help: "Total MCP tool calls by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	toolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arena_mcp_tool_call_duration_seconds",
			Help:    "MCP tool call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	authRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_mcp_auth_rejections_total",
			Help: "Total tool calls rejected by the authentication gate",
		},
		[]string{"mode", "reason"},
	)

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_mcp_rate_limited_total",
		Help: "Total tool calls rejected by the rate limiter",
	})

	vendorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_mcp_vendor_requests_total",
			Help: "Total vendor API requests by operation and HTTP status",
		},
		[]string{"operation", "status"},
	)

	vendorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arena_mcp_vendor_request_duration_seconds",
			Help:    "Vendor API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	vendorLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_mcp_vendor_logins_total",
			Help: "Total vendor session logins by result",
		},
		[]string{"result"},
	)
)

// RecordToolCall records one completed tool call.
// outcome is "ok" or the classified error type (e.g. "not_found", "validation").
func RecordToolCall(tool, outcome string, duration time.Duration) {
	toolCalls.WithLabelValues(tool, outcome).Inc()
	toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordAuthRejection increments the auth rejection counter.
func RecordAuthRejection(mode, reason string) {
	authRejections.WithLabelValues(mode, reason).Inc()
}

// RecordRateLimited increments the rate limiter rejection counter.
func RecordRateLimited() {
	rateLimited.Inc()
}

// RecordVendorRequest records one vendor round trip.
// status is 0 when no response was received.
func RecordVendorRequest(operation string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	vendorRequests.WithLabelValues(operation, label).Inc()
	vendorDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLogin increments the vendor login counter. result is "success" or "failure".
func RecordLogin(result string) {
	vendorLogins.WithLabelValues(result).Inc()
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
