package algorithms

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/llm-d-incubation/provisioning-eval/pkg/solver"
)

// Offline shortest path through the configurations of a grid, one layer per
// time slot, starting from the configuration without active servers. On the
// integer grid the schedule is optimal.
type GraphSearch struct {
	Grid              Grid
	MaxConfigurations int
}

// Optimal integral schedule
func NewGraphSearch() *GraphSearch {
	return &GraphSearch{Grid: IntegerGrid, MaxConfigurations: DefaultMaxConfigurations}
}

// Integral schedule on a grid growing by a factor gamma
func NewApproxGraphSearch(gamma float64) *GraphSearch {
	return &GraphSearch{Grid: ApproxGrid(gamma), MaxConfigurations: DefaultMaxConfigurations}
}

// Fractional schedule on a grid refined to 1/steps; its cost is a lower
// bound on the integral optimum up to the refinement
func NewRelaxedGraphSearch(steps int) *GraphSearch {
	return &GraphSearch{Grid: FractionalGrid(max(steps, 1)), MaxConfigurations: DefaultMaxConfigurations}
}

func (g *GraphSearch) Solve(ctx context.Context, m *core.DataCenterModel, input [][]float64) (*solver.Solution, error) {
	configs, err := configurations(m, g.Grid, g.MaxConfigurations)
	if err != nil {
		return nil, err
	}
	sc := switchingCosts(m)
	zero := m.ZeroConfig()
	n := len(configs)

	// cost of the cheapest path ending in each configuration
	cost := make([]float64, n)
	breakdown := make([]core.Breakdown, n)
	// predecessor of each configuration, per time slot
	parent := make([][]int, len(input))

	for t, lambda := range input {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hitting := make([]core.Breakdown, n)
		for c, x := range configs {
			if hitting[c], err = m.HittingCost(t, x, lambda); err != nil {
				return nil, fmt.Errorf("time slot %d: %w", t, err)
			}
		}

		next := make([]float64, n)
		nextBreakdown := make([]core.Breakdown, n)
		parent[t] = make([]int, n)
		for c, x := range configs {
			best, bestFrom := math.Inf(1), 0
			if t == 0 {
				best = switchingCost(sc, zero, x)
			} else {
				for p, y := range configs {
					if v := cost[p] + switchingCost(sc, y, x); v < best {
						best, bestFrom = v, p
					}
				}
			}
			next[c] = best + hitting[c].Total()
			parent[t][c] = bestFrom
			if t > 0 {
				nextBreakdown[c] = breakdown[bestFrom].Add(hitting[c])
			} else {
				nextBreakdown[c] = hitting[c]
			}
		}
		cost, breakdown = next, nextBreakdown
	}

	if len(input) == 0 {
		return &solver.Solution{Schedule: [][]float64{}}, nil
	}
	end := 0
	for c := range cost {
		if cost[c] < cost[end] {
			end = c
		}
	}
	schedule := make([][]float64, len(input))
	for t, c := len(input)-1, end; t >= 0; t-- {
		schedule[t] = slices.Clone(configs[c])
		c = parent[t][c]
	}
	logger.Log.Debugw("graph search", "configurations", n, "timeSlots", len(input), "cost", cost[end])
	return &solver.Solution{Schedule: schedule, Cost: cost[end], Breakdown: breakdown[end]}, nil
}
