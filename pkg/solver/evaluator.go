package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/llm-d-incubation/provisioning-eval/pkg/utils"
)

// Receives observations of offline runs
type Recorder interface {
	ObserveRun(solver string, cost float64, runtime time.Duration)
	ObserveViolation(solver string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRun(string, float64, time.Duration) {}
func (nopRecorder) ObserveViolation(string)                   {}

// Runs offline solvers against a model and a load trace and checks the
// ordering guarantees between their costs
type Evaluator struct {
	recorder Recorder
}

type Option func(*Evaluator)

func WithRecorder(r Recorder) Option {
	return func(e *Evaluator) {
		if r != nil {
			e.recorder = r
		}
	}
}

func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run every solver on the same input
func Evaluate(ctx context.Context, model *core.DataCenterModel, input [][]float64, solvers ...NamedSolver) (*Report, error) {
	return NewEvaluator().Evaluate(ctx, model, input, solvers...)
}

// Run a fractional and an integral solver; the fractional cost may not exceed the integral cost
func CompareRelaxation(ctx context.Context, model *core.DataCenterModel, input [][]float64, fractional, integral Solver) (*Report, error) {
	return NewEvaluator().CompareRelaxation(ctx, model, input, fractional, integral)
}

// Run an exact solver and an approximate solver per approximation ratio; no
// approximate cost may fall below the exact cost
func SweepApproximation(ctx context.Context, model *core.DataCenterModel, input [][]float64,
	exact Solver, approx ApproxFactory, gammas []float64) (*Report, error) {
	return NewEvaluator().SweepApproximation(ctx, model, input, exact, approx, gammas)
}

func (e *Evaluator) Evaluate(ctx context.Context, model *core.DataCenterModel, input [][]float64, solvers ...NamedSolver) (*Report, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: missing model", core.ErrConfiguration)
	}
	report := &Report{}
	for _, s := range solvers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r, err := e.run(ctx, s.Name, s.Solver, model, input, report)
		if err != nil {
			return report, err
		}
		report.Runs = append(report.Runs, r)
	}
	return report, nil
}

func (e *Evaluator) CompareRelaxation(ctx context.Context, model *core.DataCenterModel, input [][]float64,
	fractional, integral Solver) (*Report, error) {

	report, err := e.Evaluate(ctx, model, input,
		NamedSolver{Name: FractionalName, Solver: fractional},
		NamedSolver{Name: IntegralName, Solver: integral})
	if err != nil {
		return report, err
	}
	f, i := report.Runs[0], report.Runs[1]
	if !utils.AtLeast(i.Cost, f.Cost, config.CostTolerance) {
		e.violate(report, FractionalName, &core.InvariantViolation{
			Slot:     -1,
			Subject:  FractionalName,
			Quantity: "fractional cost",
			Value:    f.Cost,
			Relation: "<=",
			Bound:    i.Cost,
			BoundOf:  "integral cost",
		})
	}
	return report, nil
}

func (e *Evaluator) SweepApproximation(ctx context.Context, model *core.DataCenterModel, input [][]float64,
	exact Solver, approx ApproxFactory, gammas []float64) (*Report, error) {

	report, err := e.Evaluate(ctx, model, input, NamedSolver{Name: ExactName, Solver: exact})
	if err != nil {
		return report, err
	}
	optimal := report.Runs[0].Cost

	var prev *Run
	for _, gamma := range gammas {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !(gamma >= 1) {
			return report, fmt.Errorf("%w: approximation ratio must be at least 1, got %v", core.ErrConfiguration, gamma)
		}
		r, err := e.run(ctx, ApproxName, approx(gamma), model, input, report)
		if err != nil {
			return report, err
		}
		r.Gamma = gamma
		report.Runs = append(report.Runs, r)

		if !utils.AtLeast(r.Cost, optimal, config.CostTolerance) {
			e.violate(report, ApproxName, &core.InvariantViolation{
				Slot:     -1,
				Subject:  fmt.Sprintf("%s(gamma=%v)", ApproxName, gamma),
				Quantity: "approximate cost",
				Value:    r.Cost,
				Relation: ">=",
				Bound:    optimal,
				BoundOf:  "exact cost",
			})
		}
		if prev != nil && !utils.AtLeast(r.Cost, prev.Cost, config.CostTolerance) {
			logger.Log.Warnw("approximate cost decreased with a larger ratio",
				"gamma", gamma, "cost", r.Cost, "previousGamma", prev.Gamma, "previousCost", prev.Cost)
			report.NonMonotone = append(report.NonMonotone, gamma)
		}
		prev = r
	}
	return report, nil
}

// run a solver, cross-checking its reported cost against the cost of its schedule
func (e *Evaluator) run(ctx context.Context, name string, s Solver, model *core.DataCenterModel, input [][]float64,
	report *Report) (*Run, error) {

	r, err := run(ctx, name, s, model, input)
	if err != nil {
		return nil, err
	}
	logger.Log.Debugw("solver run", "solver", name, "cost", r.Cost, "runtime", r.Runtime)
	e.recorder.ObserveRun(name, r.Cost, r.Runtime)

	if r.Schedule == nil {
		return r, nil
	}
	cost, _, err := model.ScheduleCost(0, model.ZeroConfig(), r.Schedule, input)
	if err != nil {
		return nil, fmt.Errorf("solver %s: %w", name, err)
	}
	if !utils.WithinTolerance(r.Cost, cost, config.CostTolerance) {
		e.violate(report, name, &core.InvariantViolation{
			Slot:     -1,
			Subject:  name,
			Quantity: "reported cost",
			Value:    r.Cost,
			Relation: "==",
			Bound:    cost,
			BoundOf:  "schedule cost",
		})
	}
	return r, nil
}

func (e *Evaluator) violate(report *Report, solver string, v *core.InvariantViolation) {
	logger.Log.Errorw("solver invariant violated", "solver", solver, "violation", v.Error())
	e.recorder.ObserveViolation(solver)
	report.Violations = append(report.Violations, v)
}
