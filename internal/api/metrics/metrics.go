// Package metrics defines and registers all custom Prometheus metrics for
// the rentals console gateway. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// load via promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rentals_console"

// ── Session lifecycle ─────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RefreshesTotal counts access-token refresh attempts. A "failure" here is
// terminal for the session.
var RefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refreshes_total",
		Help:      "Total number of token refresh attempts, by result.",
	},
	[]string{"result"},
)

// ProfileFetchesTotal counts current-user profile fetches.
var ProfileFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_fetches_total",
		Help:      "Total number of current-user fetches, by result.",
	},
	[]string{"result"},
)

// CoalescedCallsTotal counts callers that piggybacked on an already
// in-flight upstream call instead of starting their own.
// Label:
//   - operation: "refresh" or "current_user"
var CoalescedCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coalesced_calls_total",
		Help:      "Total number of callers that shared an in-flight upstream call.",
	},
	[]string{"operation"},
)

// ── Guards ────────────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts guard outcomes per navigation.
// Labels:
//   - mode: "bootstrap", "authenticated_area", or "role_scoped"
//   - decision: "allow" or "redirect"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of guard decisions, by guard mode and outcome.",
	},
	[]string{"mode", "decision"},
)

// ── Upstream ──────────────────────────────────────────────────────────────────

// UpstreamRequestDuration measures calls to the property-management auth API.
// Labels:
//   - endpoint: "login", "current_user", "refresh", or "health"
//   - result: "success" or "failure"
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of requests to the upstream auth API.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"endpoint", "result"},
)
