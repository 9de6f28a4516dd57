package tuner

import (
	"bytes"
	"fmt"
	"math"

	kalman "github.com/llm-inferno/kalman-filter/pkg/core"
	"gonum.org/v1/gonum/mat"
)

// Tracks the load of each job type with an extended Kalman filter
type Tuner struct {
	configurator *Configurator
	filter       *kalman.ExtendedKalmanFilter
}

func NewTuner(data LoadFilterData, initial []float64) (*Tuner, error) {
	c, err := NewConfigurator(data, initial)
	if err != nil {
		return nil, err
	}

	f, err := kalman.NewExtendedKalmanFilter(c.NumStates(), c.NumStates(), c.X, c.P)
	if err != nil {
		return nil, err
	}
	if err := f.SetQ(c.GetStateCov(c.X)); err != nil {
		return nil, err
	}
	if err := f.SetR(c.R); err != nil {
		return nil, err
	}
	if err := f.SetfF(stateTransitionFunc); err != nil {
		return nil, err
	}
	if err := f.SetStateLimiter(c.Xmin, c.Xmax); err != nil {
		return nil, err
	}
	if err := f.SethH(observationFunc); err != nil {
		return nil, err
	}

	return &Tuner{
		configurator: c,
		filter:       f,
	}, nil
}

// Advance the filter by one slot and correct it with the observed loads
func (t *Tuner) Observe(loads []float64) error {
	if len(loads) != t.configurator.NumStates() {
		return fmt.Errorf("observed %d loads, tracking %d job types", len(loads), t.configurator.NumStates())
	}
	if err := t.filter.Predict(t.configurator.GetStateCov(t.X())); err != nil {
		return err
	}
	z := mat.NewVecDense(len(loads), append([]float64(nil), loads...))
	return t.filter.Update(z, t.configurator.scaledCov(z, t.configurator.data.ObservationError))
}

// Mean and variance of the load of each job type for the next steps slots.
// The filter state is left unchanged.
func (t *Tuner) Forecast(steps int) (means [][]float64, variances [][]float64, err error) {
	s := stash(t.filter)
	defer s.unstash()

	n := t.configurator.NumStates()
	for range steps {
		if err := t.filter.Predict(t.configurator.GetStateCov(t.X())); err != nil {
			return nil, nil, err
		}
		x, p := t.X(), t.P()
		mean := make([]float64, n)
		variance := make([]float64, n)
		for i := range n {
			mean[i] = math.Max(x.AtVec(i), 0)
			variance[i] = math.Max(p.At(i, i), 0)
		}
		means = append(means, mean)
		variances = append(variances, variance)
	}
	return means, variances, nil
}

func (t *Tuner) X() *mat.VecDense {
	return t.filter.State()
}

func (t *Tuner) P() *mat.Dense {
	return t.filter.P
}

func (t *Tuner) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Tuner: jobTypes=%d\n", t.configurator.NumStates())
	fmt.Fprintf(&b, "X=%v\n", mat.Formatted(t.X().T()))
	return b.String()
}

// snapshot of the filter state
type stasher struct {
	filter *kalman.ExtendedKalmanFilter
	x      *mat.VecDense
	p      *mat.Dense
}

func stash(filter *kalman.ExtendedKalmanFilter) *stasher {
	return &stasher{
		filter: filter,
		x:      mat.VecDenseCopyOf(filter.X),
		p:      mat.DenseCopyOf(filter.P),
	}
}

func (s *stasher) unstash() {
	s.filter.X = mat.VecDenseCopyOf(s.x)
	s.filter.P = mat.DenseCopyOf(s.p)
}
