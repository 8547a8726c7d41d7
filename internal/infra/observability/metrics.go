// Package observability declares the process Prometheus metrics. Metrics are
// package-level collectors registered on the default registry; the API server
// exposes them on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// LedgerMutations counts day-ledger mutations by operation (drop, remove,
// clear, set_count, set_index, toggle_bonus, edit_custom, timer).
var LedgerMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "siphor",
	Subsystem: "ledger",
	Name:      "mutations_total",
	Help:      "Total day-ledger mutations by operation.",
}, []string{"op"})

// LedgerRejections counts mutations refused before any write, by reason
// (locked, bad_payload, duplicate, not_found).
var LedgerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "siphor",
	Subsystem: "ledger",
	Name:      "rejections_total",
	Help:      "Total refused ledger mutations by reason.",
}, []string{"reason"})

// ─── Weekly Goal Metrics ────────────────────────────────────────────────────

// GoalRecalculations counts full-week goal recounts.
var GoalRecalculations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "siphor",
	Subsystem: "goals",
	Name:      "recalculations_total",
	Help:      "Total full-week goal progress recounts.",
})

// RewardsGranted counts weekly-goal reward entries synthesized into a ledger.
var RewardsGranted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "siphor",
	Subsystem: "goals",
	Name:      "rewards_granted_total",
	Help:      "Total weekly-goal reward entries granted.",
})

// ─── History Metrics ────────────────────────────────────────────────────────

// HistoryRebuilds counts full history rebuilds by trigger (manual, auto).
var HistoryRebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "siphor",
	Subsystem: "history",
	Name:      "rebuilds_total",
	Help:      "Total total-score history rebuilds by trigger.",
}, []string{"trigger"})

// HistoryPointsStored tracks the current number of stored history points.
var HistoryPointsStored = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "siphor",
	Subsystem: "history",
	Name:      "points_stored",
	Help:      "Current number of sparse history points stored.",
})

// ─── Bank Metrics ───────────────────────────────────────────────────────────

// BankTransactions counts bank operations by kind (deposit_demand,
// deposit_term, withdraw, undo).
var BankTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "siphor",
	Subsystem: "bank",
	Name:      "transactions_total",
	Help:      "Total bank sub-ledger transactions by kind.",
}, []string{"kind"})

// ─── Backup Metrics ─────────────────────────────────────────────────────────

// BackupRuns counts export and import runs by direction and outcome.
var BackupRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "siphor",
	Subsystem: "backup",
	Name:      "runs_total",
	Help:      "Total backup export/import runs by direction and status.",
}, []string{"direction", "status"})
