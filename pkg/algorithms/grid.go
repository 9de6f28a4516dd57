package algorithms

import (
	"fmt"
	"math"

	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/llm-d-incubation/provisioning-eval/pkg/utils"
)

// Default limit on the number of configurations searched per time slot
const DefaultMaxConfigurations = 1 << 12

// Values a single dimension may take given its number of servers
type Grid func(bound int) []float64

// Every integer from zero to the bound
func IntegerGrid(bound int) []float64 {
	g := make([]float64, bound+1)
	for i := range g {
		g[i] = float64(i)
	}
	return g
}

// Zero, the bound, and every v below it that is a multiple of the largest
// power of two not exceeding v*(gamma-1). Consecutive values grow by about a
// factor gamma, and the grid of a larger ratio is a subset of the grid of a
// smaller one, so the optimum over it never decreases with gamma.
func ApproxGrid(gamma float64) Grid {
	return func(bound int) []float64 {
		g := []float64{0}
		for v := 1; v < bound; v++ {
			if v%ladderStep(v, gamma) == 0 {
				g = append(g, float64(v))
			}
		}
		if bound > 0 {
			g = append(g, float64(bound))
		}
		return g
	}
}

func ladderStep(v int, gamma float64) int {
	step := 1
	for float64(2*step) <= float64(v)*(gamma-1) {
		step *= 2
	}
	return step
}

// Multiples of 1/steps from zero to the bound; every integer is included
func FractionalGrid(steps int) Grid {
	return func(bound int) []float64 {
		g := make([]float64, bound*steps+1)
		for i := range g {
			g[i] = float64(i) / float64(steps)
		}
		return g
	}
}

// all configurations of a model whose dimensions take values from the grid
func configurations(m *core.DataCenterModel, grid Grid, limit int) ([][]float64, error) {
	bounds := m.Bounds()
	axes := make([][]float64, len(bounds))
	total := 1
	for d, bound := range bounds {
		axes[d] = grid(bound)
		total *= len(axes[d])
		if total > limit {
			return nil, fmt.Errorf("more than %d configurations to search", limit)
		}
	}

	configs := make([][]float64, 0, total)
	index := make([]int, len(axes))
	for {
		c := make([]float64, len(axes))
		for d, i := range index {
			c[d] = axes[d][i]
		}
		configs = append(configs, c)

		// odometer increment
		d := len(index) - 1
		for ; d >= 0; d-- {
			index[d]++
			if index[d] < len(axes[d]) {
				break
			}
			index[d] = 0
		}
		if d < 0 {
			return configs, nil
		}
	}
}

// power-up cost per server in each dimension
func switchingCosts(m *core.DataCenterModel) []float64 {
	costs := make([]float64, m.D())
	for d := range costs {
		_, serverType := m.Dimension(d)
		costs[d] = m.SwitchingCost(serverType.Key).Cost()
	}
	return costs
}

func switchingCost(costs []float64, prev, next []float64) float64 {
	cost := 0.
	for d, c := range costs {
		cost += c * utils.Pos(next[d]-prev[d])
	}
	return cost
}

// active servers per server type, summed over locations
func serverCounts(m *core.DataCenterModel, config []float64) []int {
	serverTypes := m.ServerTypes()
	index := make(map[string]int, len(serverTypes))
	for k, serverType := range serverTypes {
		index[serverType.Key] = k
	}
	counts := make([]int, len(serverTypes))
	for d, x := range config {
		_, serverType := m.Dimension(d)
		counts[index[serverType.Key]] += int(math.Round(x))
	}
	return counts
}
