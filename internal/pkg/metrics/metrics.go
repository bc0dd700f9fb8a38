// Package metrics exposes prometheus collectors for the payment pipeline.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventpay"

var (
	reconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_total",
			Help:      "Reconciliation attempts by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	webhookResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_responses_total",
			Help:      "Webhook responses by HTTP status code",
		},
		[]string{"code"},
	)

	sideEffectTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_total",
			Help:      "Best-effort side effects by task and result",
		},
		[]string{"task", "result"},
	)

	auditFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_append_failures_total",
			Help:      "Payment history rows that could not be written",
		},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_queue_sweep_duration_seconds",
			Help:      "Duration of fallback payment queue sweeps",
			Buckets:   prometheus.DefBuckets,
		},
	)

	sweepItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_queue_items_total",
			Help:      "Payment queue items handled by sweeps, by result",
		},
		[]string{"result"},
	)
)

func ObserveReconcile(source, outcome string) {
	reconcileTotal.WithLabelValues(source, outcome).Inc()
}

func ObserveWebhookResponse(code int) {
	webhookResponses.WithLabelValues(strconv.Itoa(code)).Inc()
}

func ObserveSideEffect(task string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	sideEffectTotal.WithLabelValues(task, result).Inc()
}

func ObserveAuditFailure() {
	auditFailures.Inc()
}

func ObserveSweep(seconds float64) {
	sweepDuration.Observe(seconds)
}

func ObserveSweepItem(result string) {
	sweepItems.WithLabelValues(result).Inc()
}
