package loads

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/llm-d-incubation/provisioning-eval/internal/constants"
	"github.com/llm-d-incubation/provisioning-eval/pkg/tuner"
	"gonum.org/v1/gonum/stat/distuv"
)

type kalmanOptions struct {
	data tuner.LoadFilterData
	seed uint64
}

type KalmanOption func(*kalmanOptions)

// Use a specific filter configuration
func WithFilterData(data tuner.LoadFilterData) KalmanOption {
	return func(o *kalmanOptions) {
		o.data = data
	}
}

// Seed of the sample generator
func WithSeed(seed uint64) KalmanOption {
	return func(o *kalmanOptions) {
		o.seed = seed
	}
}

// Forecast a trace from its own history. The samples of slot t are drawn from
// the one-step-ahead prediction of a Kalman filter that has observed the
// loads before t; slot 0 is known exactly. Samples are clamped at zero.
func KalmanForecast(loads [][]float64, samples int, opts ...KalmanOption) (Forecast, error) {
	if samples < 1 {
		return nil, fmt.Errorf("at least one sample is required, got %d", samples)
	}
	if len(loads) == 0 {
		return Forecast{}, nil
	}
	o := kalmanOptions{data: tuner.DefaultLoadFilterData(), seed: constants.DefaultForecastSeed}
	for _, opt := range opts {
		opt(&o)
	}

	tu, err := tuner.NewTuner(o.data, loads[0])
	if err != nil {
		return nil, err
	}
	src := rand.NewPCG(o.seed, o.seed)

	e := len(loads[0])
	forecast := make(Forecast, len(loads))
	forecast[0] = repeat(loads[0], samples)
	for t := 1; t < len(loads); t++ {
		means, variances, err := tu.Forecast(1)
		if err != nil {
			return nil, fmt.Errorf("forecasting slot %d: %w", t, err)
		}
		forecast[t] = make([][]float64, samples)
		for s := range samples {
			sample := make([]float64, e)
			for i := range e {
				normal := distuv.Normal{Mu: means[0][i], Sigma: math.Sqrt(variances[0][i]), Src: src}
				sample[i] = math.Max(normal.Rand(), 0)
			}
			forecast[t][s] = sample
		}
		if err := tu.Observe(loads[t]); err != nil {
			return nil, fmt.Errorf("observing slot %d: %w", t, err)
		}
	}
	return forecast, nil
}

func repeat(profile []float64, samples int) [][]float64 {
	r := make([][]float64, samples)
	for s := range r {
		r[s] = append([]float64(nil), profile...)
	}
	return r
}
