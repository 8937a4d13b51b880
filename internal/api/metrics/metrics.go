// Package metrics defines and registers all custom Prometheus metrics for the
// auth gate. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on import via
// promauto; /metrics exposes them alongside the echo HTTP metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authgate"

// ── Gate metrics ──────────────────────────────────────────────────────────────

// GateDecisionsTotal counts terminal gate decisions.
// Label:
//   - outcome: "forwarded", "missing_token", "invalid_token", "upstream_unavailable",
//     "identity_unresolved"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of authentication gate decisions, by outcome.",
	},
	[]string{"outcome"},
)

// ── Identity service metrics ──────────────────────────────────────────────────

// UpstreamRequestDuration measures calls to the identity service.
// Labels:
//   - operation: "verify_token", "verify_credentials", "register", "list_users", "query_users"
//   - result: status class ("2xx", "4xx", …) or "error" for transport failures
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of identity service requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation", "result"},
)

// TokenCacheTotal counts token cache lookups.
// Label:
//   - result: "hit", "miss", or "error"
var TokenCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_cache_total",
		Help:      "Total number of token cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditDroppedTotal counts audit events discarded because a worker queue was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of audit events dropped because the queue was full.",
	},
)

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
