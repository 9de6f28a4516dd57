package solver

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
)

// Names of the solvers in relaxation and approximation reports
const (
	FractionalName = "fractional"
	IntegralName   = "integral"
	ExactName      = "exact"
	ApproxName     = "approx"
)

// Outcome of an offline evaluation
type Report struct {
	Runs []*Run `json:"runs"`
	// ordering guarantees violated by the solvers under evaluation
	Violations []*core.InvariantViolation `json:"violations,omitempty"`
	// approximation ratios whose cost fell below the cost of the previous ratio
	NonMonotone []float64 `json:"nonMonotone,omitempty"`
}

// All violations joined, nil when there are none
func (r *Report) Err() error {
	errs := make([]error, len(r.Violations))
	for i, v := range r.Violations {
		errs[i] = v
	}
	return errors.Join(errs...)
}

// First run of a solver, nil if not found
func (r *Report) Run(name string) *Run {
	for _, run := range r.Runs {
		if run.Solver == name {
			return run
		}
	}
	return nil
}

// Ratios and costs of the approximate runs of a sweep
func (r *Report) Sweep() (gammas []float64, costs []float64) {
	for _, run := range r.Runs {
		if run.Solver == ApproxName {
			gammas = append(gammas, run.Gamma)
			costs = append(costs, run.Cost)
		}
	}
	return gammas, costs
}

func (r *Report) String() string {
	var b bytes.Buffer
	for _, run := range r.Runs {
		fmt.Fprintln(&b, run.String())
	}
	for _, v := range r.Violations {
		fmt.Fprintln(&b, v.Error())
	}
	return b.String()
}

// Ordered approximation ratios from, from+step, ... up to and including to
func Gammas(from, to, step float64) ([]float64, error) {
	if !(step > 0) || !(to >= from) || math.IsInf(to, 0) {
		return nil, fmt.Errorf("%w: invalid ratio range from %v to %v step %v", core.ErrConfiguration, from, to, step)
	}
	n := int(math.Floor((to-from)/step+1e-9)) + 1
	gammas := make([]float64, n)
	for i := range gammas {
		// round away accumulated binary error, 1.1+0.1 is 1.2
		gammas[i] = math.Round((from+float64(i)*step)*1e9) / 1e9
	}
	return gammas, nil
}
