// Package metrics exposes Prometheus collectors for the extraction pipeline.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/entity"
)

const namespace = "schedorder"

var (
	// ExtractionsTotal counts finished extractions.
	// Labels: result (success, needs_review, duplicate_document, missing_required_field, ...)
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "extractions_total",
			Help:      "Total number of extractions by result",
		},
		[]string{"result"},
	)

	// StagesTotal counts stage transitions, FAILED included.
	StagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stages_total",
			Help:      "Total number of pipeline stage transitions",
		},
		[]string{"stage"},
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of a single extraction in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	DeadlinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "deadlines_total",
			Help:      "Total number of extracted deadlines by category",
		},
		[]string{"category"},
	)

	StoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "documents_total",
			Help:      "Total number of persistence attempts by result",
		},
		[]string{"result"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Documents waiting in the watch queue",
		},
	)
)

// ResultLabel is the ExtractionsTotal label for an outcome.
func ResultLabel(out entity.ExtractionOutcome) string {
	switch {
	case out.Success && out.NeedsReview:
		return "needs_review"
	case out.Success:
		return "success"
	case out.ErrorKind != "":
		return strings.ToLower(string(out.ErrorKind))
	default:
		return "failed"
	}
}

// PipelineObserver records pipeline events into the package collectors.
type PipelineObserver struct{}

func (PipelineObserver) Stage(stage constants.Stage) {
	StagesTotal.WithLabelValues(string(stage)).Inc()
}

func (PipelineObserver) Outcome(out entity.ExtractionOutcome, elapsed time.Duration) {
	ExtractionsTotal.WithLabelValues(ResultLabel(out)).Inc()
	ExtractionDuration.Observe(elapsed.Seconds())
	if out.Data != nil {
		for _, d := range out.Data.Deadlines {
			DeadlinesTotal.WithLabelValues(string(d.Category)).Inc()
		}
	}
}
