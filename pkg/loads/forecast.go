package loads

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
)

// Forecast samples of a trace, [time][sample][job type]
type Forecast [][][]float64

// Number of forecast time slots
func (f Forecast) Horizon() int {
	return len(f)
}

// Forecast restricted to the given time slots, in order
func (f Forecast) Select(slots []int) (Forecast, error) {
	selected := make(Forecast, 0, len(slots))
	for _, t := range slots {
		if t < 0 || t >= f.Horizon() {
			return nil, fmt.Errorf("%w: forecast covers %d time slots, slot %d requested", ErrInsufficientForecast, f.Horizon(), t)
		}
		selected = append(selected, f[t])
	}
	return selected, nil
}

// Parse a stored forecast, a JSON object mapping each sample id to its
// [time][job type] sequence. Samples are ordered by id, numerically when all
// ids are numbers. Sequences of unequal length are cut to the shortest.
func ParseForecast(r io.Reader) (Forecast, error) {
	var samples map[string][][]float64
	if err := json.NewDecoder(r).Decode(&samples); err != nil {
		return nil, fmt.Errorf("decoding forecast: %w", err)
	}
	if len(samples) == 0 {
		return Forecast{}, nil
	}

	ids := make([]string, 0, len(samples))
	for id := range samples {
		ids = append(ids, id)
	}
	sortSampleIDs(ids)

	horizon := -1
	for _, id := range ids {
		if horizon < 0 || len(samples[id]) < horizon {
			horizon = len(samples[id])
		}
	}

	forecast := make(Forecast, horizon)
	for t := range horizon {
		forecast[t] = make([][]float64, len(ids))
		for s, id := range ids {
			forecast[t][s] = samples[id][t]
		}
	}
	return forecast, nil
}

func ParseForecastFile(path string) (Forecast, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	forecast, err := ParseForecast(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return forecast, nil
}

func sortSampleIDs(ids []string) {
	numeric := make(map[string]int, len(ids))
	for _, id := range ids {
		n, err := strconv.Atoi(id)
		if err != nil {
			slices.Sort(ids)
			return
		}
		numeric[id] = n
	}
	slices.SortFunc(ids, func(a, b string) int {
		return numeric[a] - numeric[b]
	})
}
