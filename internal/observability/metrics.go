package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	controlRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagectl",
			Subsystem: "control",
			Name:      "requests_total",
			Help:      "Control-plane requests handled, by kind and outcome.",
		},
		[]string{"instance", "kind", "outcome"},
	)
	executeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pagectl",
			Subsystem: "control",
			Name:      "execute_duration_seconds",
			Help:      "Wall time of one execute batch, queue wait excluded.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"instance", "outcome"},
	)
	executeQueueWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pagectl",
			Subsystem: "control",
			Name:      "execute_queue_wait_seconds",
			Help:      "Time an execute batch spent waiting on the single-flight queue.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"instance"},
	)
	executeQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pagectl",
			Subsystem: "control",
			Name:      "execute_queue_depth",
			Help:      "Execute batches queued or running right now.",
		},
		[]string{"instance"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(controlRequests, executeDuration, executeQueueWait, executeQueueDepth)
	})
}

func RecordRequest(instance, kind string, ok bool) {
	RegisterMetrics()
	controlRequests.WithLabelValues(instance, kind, outcomeLabel(ok)).Inc()
}

func RecordExecute(instance string, ok bool, queueWait, duration time.Duration) {
	RegisterMetrics()
	executeQueueWait.WithLabelValues(instance).Observe(queueWait.Seconds())
	executeDuration.WithLabelValues(instance, outcomeLabel(ok)).Observe(duration.Seconds())
}

func SetQueueDepth(instance string, depth int) {
	RegisterMetrics()
	executeQueueDepth.WithLabelValues(instance).Set(float64(depth))
}

func outcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
