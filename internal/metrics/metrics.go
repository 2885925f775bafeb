// Package metrics exposes Prometheus instruments for model training and
// inference.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ModelRecipe = "recipe"
	ModelExpiry = "expiry"
)

var (
	// TrainingTotal counts training runs by model and outcome.
	TrainingTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "larder",
			Name:      "model_training_total",
			Help:      "Total number of model training runs",
		},
		[]string{"model", "result"},
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "larder",
			Name:      "model_training_duration_seconds",
			Help:      "Duration of model training in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"model"},
	)

	// TrainingAccuracy is the training-set accuracy of the last fitted model.
	TrainingAccuracy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "larder",
			Name:      "model_training_accuracy_ratio",
			Help:      "Training-set accuracy of the most recently fitted model",
		},
		[]string{"model"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "larder",
			Name:      "predictions_total",
			Help:      "Total number of predictions by model and label",
		},
		[]string{"model", "label"},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "larder",
			Name:      "expiry_batch_items",
			Help:      "Number of inventory items per expiry batch classification",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

// RecordTraining records one training attempt. accuracy is ignored when err
// is non-nil.
func RecordTraining(model string, duration time.Duration, accuracy float64, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	TrainingTotal.WithLabelValues(model, result).Inc()
	TrainingDuration.WithLabelValues(model).Observe(duration.Seconds())
	if err == nil {
		TrainingAccuracy.WithLabelValues(model).Set(accuracy)
	}
}

func RecordPrediction(model, label string) {
	PredictionsTotal.WithLabelValues(model, label).Inc()
}

func RecordBatch(size int) {
	BatchSize.Observe(float64(size))
}
