package core

import (
	"fmt"
	"math"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/analyzer"
	"github.com/llm-d-incubation/provisioning-eval/pkg/utils"
)

// Operating cost of a time slot split into its components
type Breakdown struct {
	EnergyCost  float64 `json:"energyCost"`
	RevenueLoss float64 `json:"revenueLoss"`
}

func (b Breakdown) Total() float64 {
	return b.EnergyCost + b.RevenueLoss
}

func (b Breakdown) Add(other Breakdown) Breakdown {
	return Breakdown{
		EnergyCost:  b.EnergyCost + other.EnergyCost,
		RevenueLoss: b.RevenueLoss + other.RevenueLoss,
	}
}

var infeasible = Breakdown{EnergyCost: math.Inf(1), RevenueLoss: math.Inf(1)}

// Operating cost of configuration x under load profile lambda during time slot t.
// Jobs are dispatched to all dimensions in proportion to the number of active
// servers; a configuration without servers cannot serve a positive load and a
// server may not exceed the maximum utilization of its type.
func (m *DataCenterModel) HittingCost(t int, x []float64, lambda []float64) (Breakdown, error) {
	if len(x) != m.D() {
		return Breakdown{}, fmt.Errorf("configuration has %d dimensions, model has %d", len(x), m.D())
	}
	if len(lambda) != m.E() {
		return Breakdown{}, fmt.Errorf("load profile has %d load types, model has %d", len(lambda), m.E())
	}

	totalServers, totalLoad := 0., 0.
	for _, xd := range x {
		if xd < 0 {
			return Breakdown{}, fmt.Errorf("negative number of servers in configuration %v", x)
		}
		totalServers += xd
	}
	for _, l := range lambda {
		if l < 0 {
			return Breakdown{}, fmt.Errorf("negative load in load profile %v", lambda)
		}
		totalLoad += l
	}
	if totalServers == 0 {
		if totalLoad > 0 {
			return infeasible, nil
		}
		return Breakdown{}, nil
	}

	nK := len(m.serverTypes)
	var cost Breakdown
	for j, location := range m.locations {
		power := 0.
		for k, serverType := range m.serverTypes {
			xd := x[encode(nK, j, k)]
			if xd == 0 {
				continue
			}
			share := xd / totalServers

			// total processing time of all jobs assigned to this dimension
			l := 0.
			for e, load := range lambda {
				_, i := parse(len(m.jobTypes), e)
				l += share * load * m.jobTypes[i].ProcessingTimeOn(serverType)
			}
			s := l / (xd * m.delta)
			p := serverType.LimitUtilization(s, func() float64 {
				return xd * m.consumption[serverType.Key].Consumption(m.delta, s)
			})
			if math.IsInf(p, 1) {
				return infeasible, nil
			}
			power += p
			cost.RevenueLoss += m.revenueLossOf(t, location, serverType, share, lambda, l/xd)
		}
		cost.EnergyCost += m.energyCost[location.Key].Cost(t, location, power)
	}
	return cost, nil
}

// revenue loss of the jobs assigned to one dimension, each server handling work l
func (m *DataCenterModel) revenueLossOf(t int, location Location, serverType ServerType,
	share float64, lambda []float64, l float64) float64 {

	if m.Gamma() == 0 {
		return 0
	}
	slot := analyzer.Solve(m.delayModel, m.delta, l)
	if !slot.IsValid() {
		logger.Log.Debugw("server saturated", "slot", t, "location", location.Key, "serverType", serverType.Key,
			"utilization", slot.GetRho(), "delay", slot.String())
	}
	avgDelay := slot.GetAvgDelay()
	loss := 0.
	for e, load := range lambda {
		if load == 0 {
			continue
		}
		s, i := parse(len(m.jobTypes), e)
		jobType := m.jobTypes[i]
		delay := avgDelay + m.sources[s].RoutingDelayTo(t, location) + jobType.ProcessingTimeOn(serverType)
		loss += share * load * m.revenueLoss[jobType.Key].Loss(t, delay)
	}
	return m.Gamma() * loss
}

// Cost of moving from configuration prev to next; powering servers up is charged
func (m *DataCenterModel) SwitchingCostOf(prev []float64, next []float64) (float64, error) {
	if len(prev) != m.D() || len(next) != m.D() {
		return 0, fmt.Errorf("configurations have %d and %d dimensions, model has %d", len(prev), len(next), m.D())
	}
	cost := 0.
	for d := range next {
		_, serverType := m.Dimension(d)
		cost += m.switchingCosts[serverType.Key].Cost() * utils.Pos(next[d]-prev[d])
	}
	return cost, nil
}

// Cost of a schedule starting from configuration x0 at time slot tStart,
// one configuration per load profile
func (m *DataCenterModel) ScheduleCost(tStart int, x0 []float64, schedule [][]float64, loads [][]float64) (float64, Breakdown, error) {
	if len(schedule) != len(loads) {
		return 0, Breakdown{}, fmt.Errorf("schedule has %d time slots, loads have %d", len(schedule), len(loads))
	}
	total := 0.
	var breakdown Breakdown
	prev := x0
	for t, x := range schedule {
		hitting, err := m.HittingCost(tStart+t, x, loads[t])
		if err != nil {
			return 0, Breakdown{}, fmt.Errorf("time slot %d: %w", tStart+t, err)
		}
		switching, err := m.SwitchingCostOf(prev, x)
		if err != nil {
			return 0, Breakdown{}, fmt.Errorf("time slot %d: %w", tStart+t, err)
		}
		total += hitting.Total() + switching
		breakdown = breakdown.Add(hitting)
		prev = x
	}
	return total, breakdown, nil
}

// Configuration without any active server
func (m *DataCenterModel) ZeroConfig() []float64 {
	return make([]float64, m.D())
}
