// Package metrics exposes Prometheus counters for the chore economy engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksApproved counts task approvals that paid out (including
	// quick-complete).
	TasksApproved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorebank_tasks_approved_total",
		Help: "Number of task approvals, including skip-approval quick completes.",
	})

	// BonusesApproved counts bonus sub-task approvals.
	BonusesApproved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorebank_bonuses_approved_total",
		Help: "Number of bonus sub-task approvals.",
	})

	// PointsCredited counts points paid to children by approvals.
	PointsCredited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorebank_points_credited_total",
		Help: "Points credited to children by task and bonus approvals.",
	})

	// PointsDebited counts points spent in the shop.
	PointsDebited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorebank_points_debited_total",
		Help: "Points debited from children by shop purchases.",
	})

	// Purchases counts successful shop purchases.
	Purchases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorebank_purchases_total",
		Help: "Number of successful shop purchases.",
	})

	// RolloverRuns counts completed daily rollover passes.
	RolloverRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorebank_rollover_runs_total",
		Help: "Number of completed daily rollover passes.",
	})

	// RolloverTaskErrors counts tasks skipped by a rollover pass because
	// their regeneration failed.
	RolloverTaskErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorebank_rollover_task_errors_total",
		Help: "Number of per-task failures during rollover passes.",
	})
)
