package solver

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel(t *testing.T) *core.DataCenterModel {
	t.Helper()
	m, err := core.BuildLinear(core.LinearParams{
		Delta:       600,
		ServerTypes: []core.ServerType{core.NewServerType("cpu")},
		Capacities:  map[string]int{"cpu": 10},
		JobTypes:    []core.JobType{core.NewJobType("batch", 300)},
		PhiMin:      map[string]float64{"cpu": 1},
		PhiMax:      map[string]float64{"cpu": 2},
		EnergyCost:  1,
		RevenueLoss: map[string]core.MinimalDetectableDelay{"batch": {Gamma: 0.1, Delta: 300}},
	})
	require.NoError(t, err)
	return m
}

// solver reporting a fixed cost without a schedule
func fixed(cost float64) Solver {
	return SolverFunc(func(context.Context, *core.DataCenterModel, [][]float64) (*Solution, error) {
		return &Solution{Cost: cost}, nil
	})
}

type countingRecorder struct {
	runs       map[string]int
	violations map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{runs: map[string]int{}, violations: map[string]int{}}
}

func (r *countingRecorder) ObserveRun(solver string, _ float64, _ time.Duration) { r.runs[solver]++ }
func (r *countingRecorder) ObserveViolation(solver string)                       { r.violations[solver]++ }

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	m := testModel(t)
	input := [][]float64{{0}, {0}}

	schedule := SolverFunc(func(context.Context, *core.DataCenterModel, [][]float64) (*Solution, error) {
		return &Solution{
			Schedule:  [][]float64{{1}, {1}},
			Cost:      600 + 600 + 6,
			Breakdown: core.Breakdown{EnergyCost: 1200},
		}, nil
	})

	recorder := newCountingRecorder()
	report, err := NewEvaluator(WithRecorder(recorder)).Evaluate(ctx, m, input,
		NamedSolver{Name: "schedule", Solver: schedule},
		NamedSolver{Name: "fixed", Solver: fixed(5)})
	require.NoError(t, err)
	require.Len(t, report.Runs, 2)
	assert.NoError(t, report.Err())
	assert.Equal(t, 1206.0, report.Run("schedule").Cost)
	assert.Equal(t, 1200.0, report.Run("schedule").Breakdown.EnergyCost)
	assert.Nil(t, report.Run("missing"))
	assert.Equal(t, 1, recorder.runs["schedule"])
	assert.Contains(t, report.String(), "fixed: cost=5")
}

func TestEvaluate_ReportedCostMismatch(t *testing.T) {
	wrong := SolverFunc(func(context.Context, *core.DataCenterModel, [][]float64) (*Solution, error) {
		return &Solution{Schedule: [][]float64{{1}}, Cost: 1}, nil
	})
	report, err := Evaluate(context.Background(), testModel(t), [][]float64{{0}}, NamedSolver{Name: "wrong", Solver: wrong})
	require.NoError(t, err)
	require.Len(t, report.Violations, 1)
	assert.ErrorIs(t, report.Err(), core.ErrInvariantViolation)
	assert.Equal(t, "schedule cost", report.Violations[0].BoundOf)
	assert.Equal(t, 606.0, report.Violations[0].Bound)
}

func TestEvaluate_Errors(t *testing.T) {
	ctx := context.Background()
	m := testModel(t)

	_, err := Evaluate(ctx, nil, nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	failing := SolverFunc(func(context.Context, *core.DataCenterModel, [][]float64) (*Solution, error) {
		return nil, errors.New("infeasible")
	})
	report, err := Evaluate(ctx, m, [][]float64{{0}},
		NamedSolver{Name: "ok", Solver: fixed(1)},
		NamedSolver{Name: "failing", Solver: failing})
	assert.ErrorContains(t, err, "solver failing: infeasible")
	assert.Len(t, report.Runs, 1)

	empty := SolverFunc(func(context.Context, *core.DataCenterModel, [][]float64) (*Solution, error) {
		return nil, nil
	})
	_, err = Evaluate(ctx, m, nil, NamedSolver{Name: "empty", Solver: empty})
	assert.Error(t, err)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Evaluate(cctx, m, nil, NamedSolver{Name: "ok", Solver: fixed(1)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompareRelaxation(t *testing.T) {
	tests := []struct {
		name          string
		fractional    float64
		integral      float64
		wantViolation bool
	}{
		{"lower bound", 10, 12, false},
		{"equal", 12, 12, false},
		{"within tolerance", 12 * (1 + 1e-12), 12, false},
		{"relaxation above integral", 13, 12, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := newCountingRecorder()
			report, err := NewEvaluator(WithRecorder(recorder)).CompareRelaxation(context.Background(), testModel(t), nil,
				fixed(tt.fractional), fixed(tt.integral))
			require.NoError(t, err)
			assert.Equal(t, tt.fractional, report.Run(FractionalName).Cost)
			assert.Equal(t, tt.integral, report.Run(IntegralName).Cost)
			if !tt.wantViolation {
				assert.NoError(t, report.Err())
				return
			}
			require.Len(t, report.Violations, 1)
			v := report.Violations[0]
			assert.Equal(t, "<=", v.Relation)
			assert.Equal(t, tt.fractional, v.Value)
			assert.Equal(t, tt.integral, v.Bound)
			assert.Equal(t, 1, recorder.violations[FractionalName])
		})
	}
}

func TestSweepApproximation(t *testing.T) {
	ctx := context.Background()
	gammas := []float64{1.1, 1.5, 2, 3}
	// cost grows with the ratio except for a dip at 2
	costs := map[float64]float64{1.1: 100, 1.5: 110, 2: 105, 3: 99}
	approx := func(gamma float64) Solver { return fixed(costs[gamma]) }

	report, err := SweepApproximation(ctx, testModel(t), nil, fixed(100), approx, gammas)
	require.NoError(t, err)

	gotGammas, gotCosts := report.Sweep()
	assert.Equal(t, gammas, gotGammas)
	assert.Equal(t, []float64{100, 110, 105, 99}, gotCosts)
	assert.Equal(t, 100.0, report.Run(ExactName).Cost)

	// below the exact cost
	require.Len(t, report.Violations, 1)
	assert.True(t, strings.Contains(report.Violations[0].Error(), "gamma=3"))
	assert.ErrorIs(t, report.Err(), core.ErrInvariantViolation)
	assert.Equal(t, []float64{2, 3}, report.NonMonotone)

	_, err = SweepApproximation(ctx, testModel(t), nil, fixed(100), approx, []float64{0.5})
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestGammas(t *testing.T) {
	gammas, err := Gammas(1.1, 3.0, 0.1)
	require.NoError(t, err)
	require.Len(t, gammas, 20)
	assert.Equal(t, 1.1, gammas[0])
	assert.Equal(t, 1.2, gammas[1])
	assert.Equal(t, 3.0, gammas[19])
	for i := 1; i < len(gammas); i++ {
		assert.Less(t, gammas[i-1], gammas[i])
	}

	single, err := Gammas(2, 2, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, single)

	for _, args := range [][3]float64{{1, 2, 0}, {2, 1, 0.1}, {1, 2, -1}} {
		_, err := Gammas(args[0], args[1], args[2])
		assert.ErrorIs(t, err, core.ErrConfiguration)
	}
}
