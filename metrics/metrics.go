package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var TransitionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scorekeeper_transitions_total",
	Help: "Number of successful state transitions by machine and action",
}, []string{"machine", "action"})

var TransitionRejectedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scorekeeper_transitions_rejected_total",
	Help: "Number of rejected transitions by machine and reason",
}, []string{"machine", "reason"})

var VarianceFlaggedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scorekeeper_variance_flagged_total",
	Help: "Number of appearance confirmations that produced a variance report request",
})

var ScoresRecordedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scorekeeper_scores_recorded_total",
	Help: "Number of judge scores written",
})

var AggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "scorekeeper_aggregation_duration_s",
	Help: "Duration of appearance aggregation",
	Buckets: []float64{
		0.0005, 0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1,
	},
})

var ResortDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "scorekeeper_resort_duration_s",
	Help: "Duration of a full hierarchy resort",
	Buckets: []float64{
		0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10,
	},
})

var DispatchErrorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scorekeeper_dispatch_errors_total",
	Help: "Number of failed report or notification dispatches by channel",
}, []string{"channel"})

var JobsProcessedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scorekeeper_jobs_processed_total",
	Help: "Number of background jobs processed by type and result",
}, []string{"job_type", "result"})

var FeedConnectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "scorekeeper_feed_connections",
	Help: "Current number of live websocket feed subscribers",
})
