package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Transitions        *prometheus.CounterVec
	DeferredRequests   *prometheus.CounterVec
	CameraChanges      prometheus.Counter
	TransitionSeconds  prometheus.Histogram
	ActiveAnimations   prometheus.Gauge
	MembersLocated     *prometheus.CounterVec
	LocateRequestTimes *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Transitions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "cluster_transitions_total",
			Help: "Total number of completed cluster transition barriers.",
		}, []string{"target"}),
		DeferredRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "cluster_deferred_requests_total",
			Help: "Total number of transition requests deferred instead of started.",
		}, []string{"reason"}),
		CameraChanges: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "cluster_camera_changes_total",
			Help: "Total number of camera-change notifications handled.",
		}),
		TransitionSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "cluster_transition_duration_seconds",
			Help:    "Time between starting a transition and its barrier completing.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.3, 0.4, 0.5, 1, 2.5},
		}),
		ActiveAnimations: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "cluster_active_animations",
			Help: "Current number of member and parent animations in flight.",
		}),
		MembersLocated: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "cluster_member_locate_total",
			Help: "Total number of member geocoding attempts.",
		}, []string{"status"}),
		LocateRequestTimes: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cluster_locate_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
	}
}
