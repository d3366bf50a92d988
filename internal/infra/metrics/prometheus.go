package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framepulse_analyses_total",
		Help: "Total number of analyses processed, by status",
	}, []string{"status"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "framepulse_analysis_duration_seconds",
		Help:    "Duration of the analysis pipeline, by stage",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framepulse_frames_analyzed_total",
		Help: "Total number of frames scored across all analyses",
	})

	StutterEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framepulse_stutter_events_total",
		Help: "Total number of stutter events detected across all analyses",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "framepulse_active_workers",
		Help: "Number of currently active workers running analyses",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framepulse_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
