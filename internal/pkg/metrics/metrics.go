// Package metrics defines and registers all custom Prometheus metrics for the
// check-in sync service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto) and exposed by the HTTP server on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "checkin"

// ── Sync metrics ──────────────────────────────────────────────────────────────

// SyncRunsTotal counts synchronizer runs.
// Labels:
//   - resource: "session" or "roster"
//   - result: "ok", "error", "logout", "skipped"
var SyncRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Total number of synchronizer runs, by resource and result.",
	},
	[]string{"resource", "result"},
)

// FetchGuardDenialsTotal counts refreshes dropped because one was in flight.
// Label:
//   - resource: "session" or "roster"
var FetchGuardDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_guard_denials_total",
		Help:      "Total number of refreshes skipped because another was in flight.",
	},
	[]string{"resource"},
)

// SyncDuration measures one synchronizer fetch-and-apply cycle.
var SyncDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of a synchronizer run from fetch to cache write.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"resource"},
)

// RosterSize is the number of entries in the cached roster.
var RosterSize = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "roster_entries",
		Help:      "Number of attendees in the cached roster.",
	},
)

// SessionChangesTotal counts change signals by field.
// Label:
//   - field: "attendance", "displayName", "roleTag" or "authToken"
var SessionChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_changes_total",
		Help:      "Total number of session fields reported as changed.",
	},
	[]string{"field"},
)

// ── Mutation metrics ──────────────────────────────────────────────────────────

// MutationsTotal counts optimistic edits.
// Labels:
//   - kind: "slot" or "profile"
//   - result: "confirmed" or "rolled_back"
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of optimistic mutations, by kind and result.",
	},
	[]string{"kind", "result"},
)

// PendingMutations is the number of edits awaiting server confirmation.
var PendingMutations = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_mutations",
		Help:      "Number of optimistic mutations awaiting server confirmation.",
	},
)

// ── Check-in metrics ──────────────────────────────────────────────────────────

// ScansTotal counts processed scans.
// Label:
//   - outcome: "accepted", "duplicate", "rolled_back", "not_found", "invalid"
var ScansTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Total number of QR scans processed, by outcome.",
	},
	[]string{"outcome"},
)

// ScanQueueDepth tracks the current number of scans waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ScanQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scan_queue_depth",
		Help:      "Current number of scans pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ScanProcessingDuration measures a scan from dequeue to confirmation.
var ScanProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_processing_duration_seconds",
		Help:      "Duration of scan processing from dequeue to server confirmation.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// ── Forum metrics ─────────────────────────────────────────────────────────────

// ForumMessagesTotal counts forum traffic.
// Label:
//   - direction: "sent", "received", "expired"
var ForumMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forum_messages_total",
		Help:      "Total number of forum messages, by direction.",
	},
	[]string{"direction"},
)
