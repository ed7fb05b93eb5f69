package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aquasense_quality_model_loaded",
			Help: "Whether the water-quality model artifact loaded (1) or not (0)",
		},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aquasense_quality_predictions_total",
			Help: "Total water-quality predictions by predicted label",
		},
		[]string{"label"},
	)

	PredictionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aquasense_quality_prediction_failures_total",
			Help: "Total prediction calls that returned unavailable",
		},
	)

	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aquasense_quality_inference_duration_seconds",
			Help:    "Feature assembly plus model evaluation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	NarrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aquasense_narrations_total",
			Help: "Total advisory narration calls by outcome",
		},
		[]string{"status"},
	)

	DiseaseInferenceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aquasense_disease_inference_total",
			Help: "Total remote disease-model calls by outcome",
		},
		[]string{"status"},
	)

	LabResultsImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aquasense_lab_results_imported_total",
			Help: "Total laboratory results imported from the supplier drop",
		},
	)

	ReadingsClassified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aquasense_readings_classified_total",
			Help: "Total sensor readings classified by the background sweep",
		},
	)
)
