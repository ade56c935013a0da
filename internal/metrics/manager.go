package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterAPIRequests        *prometheus.CounterVec
	CounterWizardTransitions  *prometheus.CounterVec
	CounterValidationFailures *prometheus.CounterVec

	// histograms
	HistAPIRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("myfitguide", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("myfitguide", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterAPIRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "api_requests",
		Help:      "The total number of backend API requests",
	}, []string{"operation", "status"})
	counterWizardTransitions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "wizard_transitions",
		Help:      "The total number of onboarding step transitions",
	}, []string{"from", "to"})
	counterValidationFailures := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "validation_failures",
		Help:      "The total number of rejected form submissions",
	}, []string{"step"})

	histAPIRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "api_request_duration_seconds",
		Help:      "Backend API request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	return &Manager{
		CounterAPIRequests:        counterAPIRequests,
		CounterWizardTransitions:  counterWizardTransitions,
		CounterValidationFailures: counterValidationFailures,
		HistAPIRequestDuration:    histAPIRequestDuration,
	}
}
