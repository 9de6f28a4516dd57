package traces

import (
	"fmt"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
)

// Energy consumption of the baseline server type; other tiers scale it
type EnergyModel interface {
	consumption(powerScale float64) core.EnergyConsumptionModel
}

// Linear energy consumption between idle and peak power
type LinearEnergy struct {
	PhiMin float64
	PhiMax float64
}

func (e LinearEnergy) consumption(powerScale float64) core.EnergyConsumptionModel {
	return core.LinearEnergyConsumption{PhiMin: powerScale * e.PhiMin, PhiMax: powerScale * e.PhiMax}
}

// Non-linear energy consumption s^alpha/beta + phiMin
type NonLinearEnergy struct {
	PhiMin float64
	Alpha  float64
	Beta   float64
}

func (e NonLinearEnergy) consumption(powerScale float64) core.EnergyConsumptionModel {
	return core.NonLinearEnergyConsumption{PhiMin: powerScale * e.PhiMin, Alpha: e.Alpha, Beta: e.Beta / powerScale}
}

// Energy parameters of a trace model
type EnergyModelParams struct {
	Model EnergyModel
	// absolute cost per unit of energy; the trace's hourly price is used if nil
	EnergyCost *float64
}

type options struct {
	delta                   float64
	normalizedSwitchingCost float64
	revenueLoss             float64
}

// Option of a trace model
type Option func(*options)

// Time slot length in seconds
func WithDelta(delta float64) Option {
	return func(o *options) { o.delta = delta }
}

// Switching cost in hours of idle energy of the baseline tier
func WithNormalizedSwitchingCost(hours float64) Option {
	return func(o *options) { o.normalizedSwitchingCost = hours }
}

// Revenue loss per unit of delay beyond the detection threshold
func WithRevenueLoss(revenueLoss float64) Option {
	return func(o *options) { o.revenueLoss = revenueLoss }
}

// Build the data center model of a trace
func BuildModel(trace Trace, params EnergyModelParams, opts ...Option) (*core.DataCenterModel, error) {
	o := options{
		delta:                   config.DefaultDelta,
		normalizedSwitchingCost: config.DefaultNormalizedSwitchingCostHours,
		revenueLoss:             config.DefaultRevenueLoss,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !trace.valid() {
		return nil, fmt.Errorf("%w: unknown trace %d", core.ErrConfiguration, int(trace))
	}
	if params.Model == nil {
		return nil, fmt.Errorf("%w: trace %s: missing energy model", core.ErrConfiguration, trace)
	}
	if !(o.delta > 0) {
		return nil, fmt.Errorf("%w: trace %s: time slot length must be positive, got %v", core.ErrConfiguration, trace, o.delta)
	}

	m, err := profiles[trace].build(params, o)
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", trace, err)
	}
	logger.Log.Infow("built trace model", "trace", trace.String(), "delta", o.delta,
		"capacities", trace.Capacities(), "jobTypes", trace.JobTypes())
	for _, serverType := range m.ServerTypes() {
		logger.Log.Debugw("switching cost", "trace", trace.String(), "serverType", serverType.Key,
			"normalizedHours", m.SwitchingCost(serverType.Key).NormalizedHours(o.delta))
	}
	return m, nil
}

// Cost per unit of energy during a time slot
func (p *profile) energyCost(params EnergyModelParams, delta float64) float64 {
	if params.EnergyCost != nil {
		return *params.EnergyCost
	}
	return p.pricePerHour * delta / config.SecondsPerHour
}

// Runtime of each job class on the baseline tier, dividing by a fixed ratio from the longest class
func (p *profile) runtimes() []float64 {
	runtimes := make([]float64, len(p.classes))
	runtime := p.longest
	for i := range p.classes {
		runtimes[i] = runtime
		runtime /= config.RuntimeLadderRatio
	}
	return runtimes
}

func (p *profile) build(params EnergyModelParams, o options) (*core.DataCenterModel, error) {
	energyCost := p.energyCost(params, o.delta)

	serverTypes := make([]core.ServerType, len(p.tiers))
	capacities := make(map[string]int, len(p.tiers))
	consumption := make(map[string]core.EnergyConsumptionModel, len(p.tiers))
	switchingCosts := make(map[string]core.SwitchingCost, len(p.tiers))
	for k, tr := range p.tiers {
		serverTypes[k] = core.NewServerType(tr.key)
		capacities[tr.key] = tr.count
		c := params.Model.consumption(tr.power)
		consumption[tr.key] = c
		switchingCosts[tr.key] = core.SwitchingCostFromNormalized(o.delta,
			tr.switchScale*o.normalizedSwitchingCost, energyCost, c.IdlePower())
	}

	jobTypes := make([]core.JobType, len(p.classes))
	revenueLoss := make(map[string]core.RevenueLossModel, len(p.classes))
	for i, runtime := range p.runtimes() {
		processingTimes := make(map[string]float64, len(p.tiers))
		for _, tr := range p.tiers {
			processingTimes[tr.key] = runtime / tr.speedup
		}
		jobTypes[i] = core.NewCachedJobType(p.classes[i], processingTimes)
		revenueLoss[p.classes[i]] = core.MinimalDetectableDelay{
			Gamma: o.revenueLoss,
			Delta: config.RuntimeLadderRatio * runtime / 2,
		}
	}

	return core.BuildSingle(core.SingleLocationParams{
		Delta:          o.delta,
		ServerTypes:    serverTypes,
		Capacities:     capacities,
		JobTypes:       jobTypes,
		Consumption:    consumption,
		EnergyCost:     core.NewConstantEnergyCost(energyCost),
		RevenueLoss:    revenueLoss,
		SwitchingCosts: switchingCosts,
	})
}
