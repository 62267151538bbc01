package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for case transitions, their side effects and the HTTP
// surface.
type Metrics struct {
	Transitions        *prometheus.CounterVec
	Rejections         *prometheus.CounterVec
	SideEffectFailures *prometheus.CounterVec
	TransitionDuration prometheus.Histogram
	HTTPDuration       *prometheus.HistogramVec
	JobRuns            *prometheus.CounterVec
}

// New creates a new Metrics instance with every collector registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "violation_case_transitions_total",
			Help: "Committed case transitions by action and resulting status",
		}, []string{"action", "status"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "violation_case_transition_rejections_total",
			Help: "Rejected case transitions by action and rejection kind",
		}, []string{"action", "kind"}),
		SideEffectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "violation_case_side_effect_failures_total",
			Help: "Notification, email and audit failures after a committed transition",
		}, []string{"effect"}),
		TransitionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "violation_case_transition_duration_seconds",
			Help:    "Duration of the locked read-validate-write part of a transition",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "violation_case_http_request_duration_seconds",
			Help:    "HTTP request duration by route template, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		JobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "violation_case_job_runs_total",
			Help: "Scheduled job runs by job and outcome",
		}, []string{"job", "outcome"}),
	}
}

// IncrementTransition records a committed transition.
func (m *Metrics) IncrementTransition(action, status string) {
	m.Transitions.WithLabelValues(action, status).Inc()
}

// IncrementRejection records a rejected transition.
func (m *Metrics) IncrementRejection(action, kind string) {
	m.Rejections.WithLabelValues(action, kind).Inc()
}

// IncrementSideEffectFailure records a swallowed side-effect failure.
func (m *Metrics) IncrementSideEffectFailure(effect string) {
	m.SideEffectFailures.WithLabelValues(effect).Inc()
}

// ObserveTransition records the duration of the locked part of a transition.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveTransition(start time.Time) {
	m.TransitionDuration.Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string, start time.Time) {
	m.HTTPDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
}

// IncrementJobRun records one scheduled job outcome.
func (m *Metrics) IncrementJobRun(job, outcome string) {
	m.JobRuns.WithLabelValues(job, outcome).Inc()
}
