package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Booking metrics
	BookingsTotal  *prometheus.CounterVec
	SlotConflicts  prometheus.Counter
	BookingLatency prometheus.Histogram
	Cancellations  prometheus.Counter
	Reschedules    prometheus.Counter

	// Queue metrics
	CheckInsTotal prometheus.Counter
	QueueAdvances prometheus.Counter
	QueueSkips    prometheus.Counter

	// Clinical evaluation metrics
	EvaluationsTotal     *prometheus.CounterVec
	AlertsRaised         *prometheus.CounterVec
	AlertsDeduplicated   prometheus.Counter
	NotificationFailures prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		BookingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
		SlotConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_conflicts_total",
			Help:      "Bookings rejected by the slot uniqueness constraint",
		}),
		BookingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_duration_seconds",
			Help:      "Time spent committing a booking",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		Cancellations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Total appointment cancellations",
		}),
		Reschedules: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reschedules_total",
			Help:      "Total appointment reschedules",
		}),
		CheckInsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Total patient check-ins",
		}),
		QueueAdvances: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_advances_total",
			Help:      "Total queue advance operations",
		}),
		QueueSkips: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_skips_total",
			Help:      "Total queue skip operations",
		}),
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Observation evaluations by verdict",
		}, []string{"verdict"}),
		AlertsRaised: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Critical alerts raised by severity",
		}, []string{"severity"}),
		AlertsDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_deduplicated_total",
			Help:      "Alert inserts suppressed by the observation dedupe constraint",
		}),
		NotificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Best-effort notification deliveries that failed",
		}),
	}
}
