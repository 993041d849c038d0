package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcileWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_reconcile_writes_total",
		Help: "Daily-state reconciliations, by whether a merge-write was issued or skipped.",
	}, []string{"result"})

	historyAppends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_history_appends_total",
		Help: "History append attempts, by whether a new record was created or deduplicated.",
	}, []string{"result"})

	answerSubmits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_answer_submits_total",
		Help: "Answer submissions, by first submission versus edit of an existing answer.",
	}, []string{"mode"})
)
