package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fanoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kodaed_notification_fanouts_total",
		Help: "Notification fan-outs by event kind and status (ok, empty, error).",
	}, []string{"kind", "status"})

	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kodaed_notification_deliveries_total",
		Help: "Channel attempts by channel and result.",
	}, []string{"channel", "result"})

	fanoutDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kodaed_notification_fanout_duration_seconds",
		Help:    "Wall time of one fan-out, resolution included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
)
