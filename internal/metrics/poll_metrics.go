package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/FabricioMatosSIlva/awswatch-go/internal/models"
)

var (
	// Poll cycle metrics
	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "awswatch_poll_cycles_total",
			Help: "Total number of poll cycles by monitor and outcome",
		},
		[]string{"monitor", "outcome"},
	)

	PollDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "awswatch_poll_duration_seconds",
			Help:    "Duration of poll cycles by monitor",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"monitor"},
	)

	LastPollTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "awswatch_last_successful_poll_timestamp_seconds",
			Help: "Unix time of the last successful poll cycle by monitor",
		},
		[]string{"monitor"},
	)

	// Resource state metrics
	QueueMessages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "awswatch_queue_messages",
			Help: "Approximate SQS message counts by queue and kind",
		},
		[]string{"queue", "kind"},
	)

	WorkPoolItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "awswatch_work_pool_items",
			Help: "Work-pool items by expiry status",
		},
		[]string{"status"},
	)
)

// RecordPollCycle records the outcome and duration of one poll cycle.
func RecordPollCycle(monitor string, duration time.Duration, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	PollCyclesTotal.WithLabelValues(monitor, outcome).Inc()
	PollDurationSeconds.WithLabelValues(monitor).Observe(duration.Seconds())
	if success {
		LastPollTimestamp.WithLabelValues(monitor).SetToCurrentTime()
	}
}

// RecordQueueDepth publishes the counters fetched for one queue.
func RecordQueueDepth(queue string, available, inFlight, delayed int64) {
	QueueMessages.WithLabelValues(queue, "available").Set(float64(available))
	QueueMessages.WithLabelValues(queue, "in_flight").Set(float64(inFlight))
	QueueMessages.WithLabelValues(queue, "delayed").Set(float64(delayed))
}

// RecordWorkPoolItems publishes item counts per expiry status. Statuses
// absent from the snapshot are reset so stale series do not linger.
func RecordWorkPoolItems(counts map[models.ItemStatus]int) {
	for _, status := range []models.ItemStatus{models.ItemStatusActive, models.ItemStatusWarning, models.ItemStatusExpired} {
		WorkPoolItems.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
