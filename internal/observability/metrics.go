package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rallyscope",
		Name:      "matches_uploaded_total",
		Help:      "Total number of match videos uploaded",
	})

	MatchesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rallyscope",
		Name:      "matches_processed_total",
		Help:      "Total number of analysis jobs finished, by outcome",
	}, []string{"outcome"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rallyscope",
		Name:      "analysis_duration_seconds",
		Help:      "Wall-clock duration of one analysis job",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	JobQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rallyscope",
		Name:      "job_queue_depth",
		Help:      "Number of pending analysis tasks in queue",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rallyscope",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rallyscope",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
