// Package metrics defines and registers all custom Prometheus metrics for the
// auth service. It is the single source of truth for metric names, labels,
// and help strings. Metrics are registered with the default registry on
// package initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// ── Flow metrics ──────────────────────────────────────────────────────────────

// RegisterTotal counts registration attempts.
// Label:
//   - result: "success", "duplicate_email", "duplicate_username", "invalid", "error"
var RegisterTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "register_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "deactivated", "error"
var LoginTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RefreshTotal counts refresh attempts.
// Label:
//   - result: "success", "invalid_token", "user_not_found", "error"
var RefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_total",
		Help:      "Total number of token refresh attempts, by result.",
	},
	[]string{"result"},
)

// TokenValidationTotal counts /validate outcomes.
// Label:
//   - result: "valid" or "invalid"
var TokenValidationTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validation_total",
		Help:      "Total number of token validation requests, by result.",
	},
	[]string{"result"},
)

// TokensIssuedTotal counts minted tokens.
// Label:
//   - type: "access" or "refresh"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of tokens issued, by token type.",
	},
	[]string{"type"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsDroppedTotal counts audit events dropped because the worker
// channel was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events dropped on a full dispatcher queue.",
	},
)

// AuditPublishErrorsTotal counts audit events the publisher failed to deliver.
var AuditPublishErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_publish_errors_total",
		Help:      "Total number of audit events that failed to publish.",
	},
)

// AuditQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
