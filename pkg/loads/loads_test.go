package loads

import (
	"testing"

	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLoads(n int) [][]float64 {
	loads := make([][]float64, n)
	for t := range loads {
		loads[t] = []float64{float64(t), float64(10 * t)}
	}
	return loads
}

func TestConvertOfflineToOnlineInput(t *testing.T) {
	loads := sampleLoads(3)
	input := ConvertOfflineToOnlineInput(loads)
	require.Len(t, input, 3)
	for i, slice := range input {
		require.Len(t, slice, 1)
		assert.Equal(t, Prediction{{loads[i][0]}, {loads[i][1]}}, slice[0])
	}
	assert.Empty(t, ConvertOfflineToOnlineInput(nil))
}

func TestPerfectLoadPrediction(t *testing.T) {
	const n = 5
	loads := sampleLoads(n)
	input := PerfectLoadPrediction(loads)
	require.Len(t, input, n)
	for i, slice := range input {
		require.Len(t, slice, n-i+config.PredictionPadding)
		for h, p := range slice {
			require.Len(t, p, 2)
			if i+h < n {
				assert.Equal(t, Prediction{{loads[i+h][0]}, {loads[i+h][1]}}, p)
			} else {
				assert.Equal(t, Prediction{{0}, {0}}, p)
			}
		}
	}
}

func TestPredictLoads(t *testing.T) {
	loads := [][]float64{{1}, {2}, {3}}
	forecast := Forecast{
		{{100}, {100}},
		{{4}, {6}},
		{{10}, {20}},
	}
	input, err := PredictLoads(loads, forecast)
	require.NoError(t, err)
	require.Len(t, input, 3)

	assert.Equal(t, OnlineSlice{{{1}}, {{5}}, {{15}}}, input[0][:3])
	assert.Equal(t, OnlineSlice{{{2}}, {{15}}}, input[1][:2])
	assert.Equal(t, OnlineSlice{{{3}}}, input[2][:1])
	for i, slice := range input {
		assert.Len(t, slice, len(loads)-i+config.PredictionPadding)
		assert.Equal(t, Prediction{{0}}, slice[len(slice)-1])
	}
}

func TestPredictLoads_InsufficientForecast(t *testing.T) {
	loads := [][]float64{{1}, {2}, {3}}
	_, err := PredictLoads(loads, Forecast{{{1}}, {{2}}})
	assert.ErrorIs(t, err, ErrInsufficientForecast)

	_, err = PredictLoads(loads, Forecast{{{1}}, {}, {{2}}})
	assert.ErrorIs(t, err, ErrInsufficientForecast)

	_, err = PredictLoads(loads, Forecast{{{1}}, {{1, 2}}, {{2}}})
	assert.Error(t, err)

	// a single slot needs no forecast
	input, err := PredictLoads([][]float64{{7}}, nil)
	require.NoError(t, err)
	assert.Equal(t, Prediction{{7}}, input[0][0])
}

func TestSelectLoadFromNthLastDay(t *testing.T) {
	// 4 slots per day
	const slotLength = 21600.0
	loads := sampleLoads(10)

	tests := []struct {
		name  string
		n     int
		first float64
		size  int
	}{
		{"last day", 1, 5, 5},
		{"second last day", 2, 1, 5},
		// clamped to the start of the trace
		{"third last day", 3, 0, 2},
		{"before the trace", 4, 9, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectLoadFromNthLastDay(loads, slotLength, tt.n)
			require.NoError(t, err)
			require.Len(t, got, tt.size)
			assert.Equal(t, tt.first, got[0][0])
			assert.Equal(t, loads[9], got[len(got)-1])
		})
	}

	last, err := SelectLoadFromLastDay(loads, slotLength)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{loads[5], loads[6], loads[7], loads[8], loads[9]}, last)

	// selection is a copy
	last[0][0] = -1
	assert.Equal(t, 5.0, loads[5][0])
}

func TestSelectLoadFromNthLastDay_Errors(t *testing.T) {
	_, err := SelectLoadFromNthLastDay(sampleLoads(3), 0, 1)
	assert.Error(t, err)
	_, err = SelectLoadFromNthLastDay(sampleLoads(3), 600, 0)
	assert.Error(t, err)

	got, err := SelectLoadFromLastDay(nil, 600)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNthLastDaySlots(t *testing.T) {
	got, err := NthLastDaySlots(10, 21600, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 9}, got)

	forecast := make(Forecast, 10)
	for i := range forecast {
		forecast[i] = [][]float64{{float64(i)}}
	}
	selected, err := forecast.Select(got)
	require.NoError(t, err)
	assert.Equal(t, Forecast{{{1}}, {{2}}, {{3}}, {{4}}, {{9}}}, selected)

	_, err = forecast[:9].Select(got)
	assert.ErrorIs(t, err, ErrInsufficientForecast)
}
