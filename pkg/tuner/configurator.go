package tuner

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/llm-d-incubation/provisioning-eval/internal/constants"
)

// Configuration of a load tracking filter
type LoadFilterData struct {
	PercentChange    float64 // expected relative change of the load between slots
	ObservationError float64 // relative error of an observed load
	MinVariance      float64 // floor of every variance, keeps idle job types uncertain
	MaxLoad          float64 // upper bound on a tracked load
}

// Default filter configuration
func DefaultLoadFilterData() LoadFilterData {
	return LoadFilterData{
		PercentChange:    constants.DefaultPercentChange,
		ObservationError: constants.DefaultObservationError,
		MinVariance:      constants.DefaultMinVariance,
		MaxLoad:          constants.DefaultMaxLoad,
	}
}

// Configurator of the filter tracking the load of each job type
type Configurator struct {
	n int // number of job types, both state and observation size

	X *mat.VecDense // (initial or prior) load per job type
	P *mat.Dense    // covariance matrix of estimation error
	R *mat.Dense    // covariance matrix of noise on observation

	data LoadFilterData
	Xmin []float64
	Xmax []float64
}

func NewConfigurator(data LoadFilterData, initial []float64) (*Configurator, error) {
	if err := checkFilterData(data, initial); err != nil {
		return nil, err
	}
	n := len(initial)
	c := &Configurator{
		n:    n,
		X:    mat.NewVecDense(n, append([]float64(nil), initial...)),
		data: data,
		Xmin: make([]float64, n),
		Xmax: make([]float64, n),
	}
	for i := range n {
		c.Xmax[i] = data.MaxLoad
	}
	c.P = c.GetStateCov(c.X)
	c.R = c.scaledCov(c.X, data.ObservationError)
	return c, nil
}

// Covariance of the change of state from one slot to the next
func (c *Configurator) GetStateCov(x *mat.VecDense) *mat.Dense {
	return c.scaledCov(x, c.data.PercentChange)
}

func (c *Configurator) scaledCov(x *mat.VecDense, factor float64) *mat.Dense {
	cov := make([]float64, c.n)
	for i := range c.n {
		cov[i] = math.Max(math.Pow(factor*x.AtVec(i), 2), c.data.MinVariance)
	}
	return mat.DenseCopyOf(mat.NewDiagDense(c.n, cov))
}

func (c *Configurator) NumStates() int {
	return c.n
}

func checkFilterData(data LoadFilterData, initial []float64) error {
	if len(initial) == 0 {
		return fmt.Errorf("at least one job type is required")
	}
	for _, v := range initial {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid initial load %v", initial)
		}
	}
	if !(data.PercentChange > 0) || !(data.ObservationError > 0) || !(data.MinVariance > 0) {
		return fmt.Errorf("filter requires positive percent change, observation error and variance floor, got %+v", data)
	}
	if !(data.MaxLoad > 0) || math.IsInf(data.MaxLoad, 0) {
		return fmt.Errorf("invalid maximum load %v", data.MaxLoad)
	}
	return nil
}

// identity, the load has no controlled dynamics
func stateTransitionFunc(x *mat.VecDense) *mat.VecDense {
	return x
}

// loads are observed directly
func observationFunc(x *mat.VecDense) *mat.VecDense {
	return x
}
