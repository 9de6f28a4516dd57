package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/llm-d-incubation/provisioning-eval/internal/constants"
)

var (
	onlineStepsTotal      prometheus.Counter
	onlineStepRuntime     prometheus.Histogram
	onlineViolationsTotal prometheus.Counter

	solverRunsTotal       *prometheus.CounterVec
	solverCost            *prometheus.GaugeVec
	solverRuntime         *prometheus.HistogramVec
	solverViolationsTotal *prometheus.CounterVec
)

// InitMetrics registers all evaluation metrics with the provided registry
func InitMetrics(registry prometheus.Registerer) {
	onlineStepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: constants.OnlineStepsTotal,
			Help: "Total number of online steps taken by the algorithm under evaluation",
		},
	)
	onlineStepRuntime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    constants.OnlineStepRuntimeSeconds,
			Help:    "Runtime of online steps as reported by the algorithm",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)
	onlineViolationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: constants.OnlineViolationsTotal,
			Help: "Total number of online steps whose integral cost fell below energy cost plus revenue loss",
		},
	)
	solverRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: constants.SolverRunsTotal,
			Help: "Total number of offline solver runs",
		},
		[]string{constants.LabelSolver},
	)
	solverCost = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: constants.SolverCost,
			Help: "Cost of the last schedule found by an offline solver",
		},
		[]string{constants.LabelSolver},
	)
	solverRuntime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    constants.SolverRuntimeSeconds,
			Help:    "Runtime of offline solver runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{constants.LabelSolver},
	)
	solverViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: constants.SolverViolationsTotal,
			Help: "Total number of violated cost orderings between offline solvers",
		},
		[]string{constants.LabelSolver},
	)

	registry.MustRegister(onlineStepsTotal)
	registry.MustRegister(onlineStepRuntime)
	registry.MustRegister(onlineViolationsTotal)
	registry.MustRegister(solverRunsTotal)
	registry.MustRegister(solverCost)
	registry.MustRegister(solverRuntime)
	registry.MustRegister(solverViolationsTotal)
}

// InitMetricsAndEmitter registers metrics with Prometheus and creates a metrics emitter
func InitMetricsAndEmitter(registry prometheus.Registerer) *MetricsEmitter {
	InitMetrics(registry)
	return NewMetricsEmitter()
}

// MetricsEmitter records the progress of evaluation runs; it serves both as
// an online harness recorder and as an offline evaluator recorder
type MetricsEmitter struct{}

func NewMetricsEmitter() *MetricsEmitter {
	return &MetricsEmitter{}
}

// ObserveStep counts an online step and its runtime
func (m *MetricsEmitter) ObserveStep(runtime time.Duration) {
	onlineStepsTotal.Inc()
	onlineStepRuntime.Observe(runtime.Seconds())
}

// ObserveViolation counts an online step violating the cost bound
func (m *MetricsEmitter) ObserveViolation() {
	onlineViolationsTotal.Inc()
}

// SolverRecorder adapts the emitter to offline solver runs
func (m *MetricsEmitter) SolverRecorder() *SolverEmitter {
	return &SolverEmitter{}
}

// SolverEmitter records offline solver runs
type SolverEmitter struct{}

func (s *SolverEmitter) ObserveRun(solver string, cost float64, runtime time.Duration) {
	labels := prometheus.Labels{constants.LabelSolver: solver}
	solverRunsTotal.With(labels).Inc()
	solverCost.With(labels).Set(cost)
	solverRuntime.With(labels).Observe(runtime.Seconds())
}

func (s *SolverEmitter) ObserveViolation(solver string) {
	solverViolationsTotal.With(prometheus.Labels{constants.LabelSolver: solver}).Inc()
}
