// Package metrics defines and registers all custom Prometheus metrics for the
// diary service. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "diary"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// OTPRequestsTotal counts one-time code requests.
// Label:
//   - result: "sent" or "error"
var OTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_requests_total",
		Help:      "Total number of one-time code requests, by result.",
	},
	[]string{"result"},
)

// SessionEventsTotal counts session lifecycle events.
// Label:
//   - event: "created", "rejected" (wrong or expired code) or "deleted"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session lifecycle events.",
	},
	[]string{"event"},
)

// ── Entry metrics ─────────────────────────────────────────────────────────────

// EntryOperationsTotal counts entry operations.
// Labels:
//   - op: "create", "get", "list", "update" or "delete"
//   - result: "ok" or the error kind (e.g. "not_found", "forbidden", "validation")
var EntryOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entry_operations_total",
		Help:      "Total number of entry operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// EntryOperationDuration measures repository round-trips per entry operation.
var EntryOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "entry_operation_duration_seconds",
		Help:      "Duration of entry operations including the store round-trip.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailDeliveriesTotal counts outgoing code emails.
// Label:
//   - result: "sent", "logged" (no SMTP host configured) or "error"
var MailDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_deliveries_total",
		Help:      "Total number of one-time code emails, by delivery result.",
	},
	[]string{"result"},
)
