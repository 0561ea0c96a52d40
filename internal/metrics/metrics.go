// internal/metrics/metrics.go
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LessonsScoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lessons_scored_total",
			Help: "Total number of lessons scored",
		},
		[]string{"course"},
	)

	ActivitiesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_activities_processed_total",
			Help: "Total number of quiz and code activities folded into lesson scores",
		},
		[]string{"course", "kind"},
	)

	LessonScoreHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lesson_score",
			Help:    "Distribution of per-lesson scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"course", "lesson"},
	)

	TotalScoreHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lesson_total_score",
			Help:    "Distribution of capped course totals",
			Buckets: prometheus.LinearBuckets(0, 1, 31),
		},
		[]string{"course"},
	)

	GradebookChangedRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gradebook_changed_rows",
			Help: "Rows changed by the last gradebook merge session",
		},
		[]string{"course"},
	)
)

// WriteTextfile dumps the default registry for the node exporter textfile
// collector; one-shot runs have no scrape endpoint.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
