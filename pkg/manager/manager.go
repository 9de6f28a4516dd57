package manager

import (
	"context"
	"fmt"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/algorithms"
	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/llm-d-incubation/provisioning-eval/pkg/loads"
	"github.com/llm-d-incubation/provisioning-eval/pkg/online"
	"github.com/llm-d-incubation/provisioning-eval/pkg/solver"
)

// Runs the evaluations of one model against one load trace
type Manager struct {
	model    *core.DataCenterModel
	loads    [][]float64
	forecast loads.Forecast

	evaluator *solver.Evaluator
	recorder  online.Recorder
}

type Option func(*Manager)

// Forecast aligned with the load trace; without one online runs see perfect
// predictions
func WithForecast(f loads.Forecast) Option {
	return func(m *Manager) {
		m.forecast = f
	}
}

func WithSolverRecorder(r solver.Recorder) Option {
	return func(m *Manager) {
		m.evaluator = solver.NewEvaluator(solver.WithRecorder(r))
	}
}

func WithOnlineRecorder(r online.Recorder) Option {
	return func(m *Manager) {
		m.recorder = r
	}
}

func NewManager(model *core.DataCenterModel, trace [][]float64, opts ...Option) *Manager {
	m := &Manager{
		model:     model,
		loads:     trace,
		evaluator: solver.NewEvaluator(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restrict the evaluation to the n-th last day of the trace; the forecast is
// restricted to the same slots
func (m *Manager) SelectDay(n int) error {
	slots, err := loads.NthLastDaySlots(len(m.loads), m.model.Delta(), n)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	var forecast loads.Forecast
	if m.forecast != nil {
		if forecast, err = m.forecast.Select(slots); err != nil {
			return err
		}
	}
	selected := make([][]float64, 0, len(slots))
	for _, t := range slots {
		selected = append(selected, m.loads[t])
	}
	logger.Log.Debugw("selected day", "day", n, "slots", len(selected), "of", len(m.loads), "forecast", forecast != nil)
	m.loads = selected
	m.forecast = forecast
	return nil
}

func (m *Manager) Slots() int {
	return len(m.loads)
}

// Compare the integral optimum with the optimum on a grid refined to 1/steps
func (m *Manager) CompareRelaxation(ctx context.Context, steps int) (*solver.Report, error) {
	if steps < 1 {
		return nil, fmt.Errorf("%w: relaxation steps must be at least 1, got %d", core.ErrConfiguration, steps)
	}
	return m.evaluator.CompareRelaxation(ctx, m.model, m.loads,
		algorithms.NewRelaxedGraphSearch(steps), algorithms.NewGraphSearch())
}

// Compare the integral optimum with the approximate graph search at every gamma
func (m *Manager) SweepApproximation(ctx context.Context, gammas []float64) (*solver.Report, error) {
	return m.evaluator.SweepApproximation(ctx, m.model, m.loads, algorithms.NewGraphSearch(),
		func(gamma float64) solver.Solver { return algorithms.NewApproxGraphSearch(gamma) }, gammas)
}

// Run an online algorithm on the trace; the first offlineSlots slots are
// handed to the algorithm at start
func (m *Manager) Online(ctx context.Context, alg online.Algorithm, offlineSlots int, w int) (*online.Result, error) {
	if offlineSlots < 0 || offlineSlots > len(m.loads) {
		return nil, fmt.Errorf("%w: offline slots %d out of range [0, %d]", core.ErrConfiguration, offlineSlots, len(m.loads))
	}
	offline, trace := m.loads[:offlineSlots], m.loads[offlineSlots:]

	var input loads.OnlineInput
	if m.forecast == nil {
		input = loads.PerfectLoadPrediction(trace)
	} else {
		var err error
		if input, err = loads.PredictLoads(trace, m.forecast[min(offlineSlots, len(m.forecast)):]); err != nil {
			return nil, err
		}
	}

	var opts []online.HarnessOption
	if m.recorder != nil {
		opts = append(opts, online.WithRecorder(m.recorder))
	}
	return online.Evaluate(ctx, alg, m.model, offline, input, w, opts...)
}
