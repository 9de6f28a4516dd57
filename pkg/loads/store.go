package loads

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/traces"
)

// File name suffixes of stored traces
const (
	LoadsSuffix    = ".csv"
	ForecastSuffix = ".forecast.json"
)

// Directory of stored traces, <trace>.csv with the historical loads and an
// optional <trace>.forecast.json with forecast samples
type Store struct {
	Dir string
	// Number of samples of a Kalman forecast used when no forecast is stored,
	// zero disables the fallback
	KalmanSamples int
}

func (s *Store) LoadsPath(trace traces.Trace) string {
	return filepath.Join(s.Dir, trace.String()+LoadsSuffix)
}

func (s *Store) ForecastPath(trace traces.Trace) string {
	return filepath.Join(s.Dir, trace.String()+ForecastSuffix)
}

func (s *Store) Loads(trace traces.Trace) (*Trace, error) {
	return ParseLoadsFile(s.LoadsPath(trace))
}

func (s *Store) Forecast(trace traces.Trace) (Forecast, error) {
	return ParseForecastFile(s.ForecastPath(trace))
}

// Stored forecast of a trace, or a Kalman forecast of its history when none
// is stored and the fallback is enabled
func (s *Store) ForecastOrEstimate(trace traces.Trace, history [][]float64) (Forecast, error) {
	forecast, err := s.Forecast(trace)
	if errors.Is(err, fs.ErrNotExist) && s.KalmanSamples > 0 {
		logger.Log.Infow("no stored forecast, using kalman forecast", "trace", trace.String(), "samples", s.KalmanSamples)
		return KalmanForecast(history, s.KalmanSamples)
	}
	return forecast, err
}

// Online input of a trace blending its loads with its forecast
func (s *Store) PredictLoads(trace traces.Trace) (OnlineInput, error) {
	history, err := s.Loads(trace)
	if err != nil {
		return nil, err
	}
	forecast, err := s.ForecastOrEstimate(trace, history.Loads)
	if err != nil {
		return nil, err
	}
	return PredictLoads(history.Loads, forecast)
}
