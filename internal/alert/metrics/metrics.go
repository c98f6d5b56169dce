package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the alert module.
type Metrics struct {
	AlertsCreated          *prometheus.CounterVec
	Acknowledgments        prometheus.Counter
	Views                  prometheus.Counter
	DistributionsCompleted prometheus.Counter
	AccessChecks           *prometheus.CounterVec
}

// New creates a new Metrics instance with all alert module metrics registered.
func New() *Metrics {
	return &Metrics{
		AlertsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "alertcast_alerts_created_total",
			Help: "Total number of alerts created, by category",
		}, []string{"category"}),
		Acknowledgments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "alertcast_acknowledgments_total",
			Help: "Total number of successful alert acknowledgments",
		}),
		Views: promauto.NewCounter(prometheus.CounterOpts{
			Name: "alertcast_views_total",
			Help: "Total number of recorded alert views",
		}),
		DistributionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "alertcast_distributions_completed_total",
			Help: "Total number of one-time distribution completions",
		}),
		AccessChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "alertcast_access_checks_total",
			Help: "Access check evaluations by outcome",
		}, []string{"outcome"}),
	}
}
