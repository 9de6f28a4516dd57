package loads

import (
	"errors"
	"fmt"
	"slices"

	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientForecast marks a forecast that does not cover the requested horizon.
var ErrInsufficientForecast = errors.New("insufficient forecast")

// Load of each job type as a list of samples, [job type][sample]
type Prediction [][]float64

// Predictions available at one arrival time, [prediction time][job type][sample]
type OnlineSlice []Prediction

// Predictions for every arrival time, [arrival time][prediction time][job type][sample]
type OnlineInput []OnlineSlice

// load profile as a prediction with a single, certain sample per job type
func certain(profile []float64) Prediction {
	p := make(Prediction, len(profile))
	for i, l := range profile {
		p[i] = []float64{l}
	}
	return p
}

func jobTypesOf(loads [][]float64) int {
	if len(loads) == 0 {
		return 0
	}
	return len(loads[0])
}

// Online input with perfect knowledge of the current slot only: each arrival
// time is given its true load as a single sample.
func ConvertOfflineToOnlineInput(loads [][]float64) OnlineInput {
	input := make(OnlineInput, len(loads))
	for t, profile := range loads {
		input[t] = OnlineSlice{certain(profile)}
	}
	return input
}

// Online input with perfect knowledge of the future: arrival time i is given
// the true loads from i to the end of the trace, followed by a fixed number of
// all-zero slots.
func PerfectLoadPrediction(loads [][]float64) OnlineInput {
	e := jobTypesOf(loads)
	input := make(OnlineInput, len(loads))
	for i := range loads {
		slice := make(OnlineSlice, 0, len(loads)-i+config.PredictionPadding)
		for _, profile := range loads[i:] {
			slice = append(slice, certain(profile))
		}
		input[i] = pad(slice, e)
	}
	return input
}

// Online input blending the true load of each arrival time with the mean of a
// forecast for the following slots, padded like PerfectLoadPrediction.
// The forecast must cover every slot of the trace.
func PredictLoads(loads [][]float64, forecast Forecast) (OnlineInput, error) {
	n := len(loads)
	e := jobTypesOf(loads)
	if n > 1 && len(forecast) < n {
		return nil, fmt.Errorf("%w: forecast covers %d time slots, trace has %d", ErrInsufficientForecast, len(forecast), n)
	}

	// mean over samples of each forecast slot
	means := make([][]float64, n)
	for t := 1; t < n; t++ {
		samples := forecast[t]
		if len(samples) == 0 {
			return nil, fmt.Errorf("%w: no forecast samples for time slot %d", ErrInsufficientForecast, t)
		}
		means[t] = make([]float64, e)
		column := make([]float64, len(samples))
		for i := range e {
			for s, sample := range samples {
				if len(sample) != e {
					return nil, fmt.Errorf("forecast sample %d of time slot %d has %d job types, trace has %d", s, t, len(sample), e)
				}
				column[s] = sample[i]
			}
			means[t][i] = stat.Mean(column, nil)
		}
	}

	input := make(OnlineInput, n)
	for i := range loads {
		slice := make(OnlineSlice, 0, n-i+config.PredictionPadding)
		slice = append(slice, certain(loads[i]))
		for t := i + 1; t < n; t++ {
			slice = append(slice, certain(means[t]))
		}
		input[i] = pad(slice, e)
	}
	return input, nil
}

func pad(slice OnlineSlice, e int) OnlineSlice {
	for range config.PredictionPadding {
		slice = append(slice, certain(make([]float64, e)))
	}
	return slice
}

// Trailing day of a trace: the slots of the day preceding the final slot,
// followed by the final slot.
func SelectLoadFromLastDay(loads [][]float64, slotLength float64) ([][]float64, error) {
	return SelectLoadFromNthLastDay(loads, slotLength, 1)
}

// The n-th last day of a trace, followed by the final slot. Days reaching
// before the start of the trace are clamped to the available prefix.
func SelectLoadFromNthLastDay(loads [][]float64, slotLength float64, n int) ([][]float64, error) {
	slots, err := NthLastDaySlots(len(loads), slotLength, n)
	if err != nil {
		return nil, err
	}
	selected := make([][]float64, 0, len(slots))
	for _, t := range slots {
		selected = append(selected, slices.Clone(loads[t]))
	}
	return selected, nil
}

// Indices of the slots of the n-th last day of a trace of the given length,
// followed by the index of the final slot.
func NthLastDaySlots(length int, slotLength float64, n int) ([]int, error) {
	if !(slotLength > 0) {
		return nil, fmt.Errorf("slot length must be positive, got %v", slotLength)
	}
	if n < 1 {
		return nil, fmt.Errorf("day must be at least 1, got %d", n)
	}
	if length == 0 {
		return []int{}, nil
	}

	slotsPerDay := int(float64(config.SecondsPerDay) / slotLength)
	last := length - 1
	end := max(last-(n-1)*slotsPerDay, 0)
	start := max(end-slotsPerDay, 0)

	slots := make([]int, 0, end-start+1)
	for t := start; t < end; t++ {
		slots = append(slots, t)
	}
	return append(slots, last), nil
}
