package solver

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
)

// Offline solution of a provisioning problem
type Solution struct {
	Schedule  [][]float64    `json:"schedule"` // configuration per time slot
	Cost      float64        `json:"cost"`
	Breakdown core.Breakdown `json:"breakdown"`
}

// Offline solver of a provisioning problem over a whole load trace
type Solver interface {
	Solve(ctx context.Context, model *core.DataCenterModel, input [][]float64) (*Solution, error)
}

// Adapts a function to the Solver interface
type SolverFunc func(ctx context.Context, model *core.DataCenterModel, input [][]float64) (*Solution, error)

func (f SolverFunc) Solve(ctx context.Context, model *core.DataCenterModel, input [][]float64) (*Solution, error) {
	return f(ctx, model, input)
}

// Solver with a name in reports
type NamedSolver struct {
	Name   string
	Solver Solver
}

// Approximate solver for a given approximation ratio
type ApproxFactory func(gamma float64) Solver

// Outcome of one solver run
type Run struct {
	Solver    string         `json:"solver"`
	Gamma     float64        `json:"gamma,omitempty"`
	Cost      float64        `json:"cost"`
	Breakdown core.Breakdown `json:"breakdown"`
	Runtime   time.Duration  `json:"runtime"`
	Schedule  [][]float64    `json:"schedule,omitempty"`
}

func (r *Run) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s", r.Solver)
	if r.Gamma != 0 {
		fmt.Fprintf(&b, "(gamma=%v)", r.Gamma)
	}
	fmt.Fprintf(&b, ": cost=%v, energyCost=%v, revenueLoss=%v, runtime=%v",
		r.Cost, r.Breakdown.EnergyCost, r.Breakdown.RevenueLoss, r.Runtime)
	return b.String()
}

// run a solver and time it
func run(ctx context.Context, name string, s Solver, model *core.DataCenterModel, input [][]float64) (*Run, error) {
	startTime := time.Now()
	solution, err := s.Solve(ctx, model, input)
	runtime := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("solver %s: %w", name, err)
	}
	if solution == nil {
		return nil, fmt.Errorf("solver %s: no solution", name)
	}
	return &Run{
		Solver:    name,
		Cost:      solution.Cost,
		Breakdown: solution.Breakdown,
		Runtime:   runtime,
		Schedule:  solution.Schedule,
	}, nil
}
