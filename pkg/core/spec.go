package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
	"github.com/llm-d-incubation/provisioning-eval/pkg/utils"
)

// Read a model description from a YAML or JSON file
func LoadModelSpec(path string) (*config.ModelSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model spec: %w", err)
	}
	var spec *config.ModelSpec
	if strings.EqualFold(filepath.Ext(path), ".json") {
		spec, err = utils.FromDataToSpec[config.ModelSpec](data)
	} else {
		spec, err = utils.FromYAMLToSpec[config.ModelSpec](data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse model spec %s: %w", ErrConfiguration, path, err)
	}
	return spec, nil
}

// Build a model from its declarative description. Models without locations
// describe a single data center.
func FromSpec(spec *config.ModelSpec) (*DataCenterModel, error) {
	if spec == nil {
		return nil, configError("missing model spec")
	}

	serverTypes := make([]ServerType, len(spec.ServerTypes))
	consumption := make(map[string]EnergyConsumptionModel, len(spec.ServerTypes))
	for i, st := range spec.ServerTypes {
		serverTypes[i] = NewServerType(st.Key)
		if st.MaxUtilization != 0 {
			serverTypes[i].MaxUtilization = st.MaxUtilization
		}
		c, err := consumptionFromSpec(st.Consumption)
		if err != nil {
			return nil, fmt.Errorf("%w: server type %q: %w", ErrConfiguration, st.Key, err)
		}
		consumption[st.Key] = c
	}

	jobTypes := make([]JobType, len(spec.JobTypes))
	revenueLoss := make(map[string]RevenueLossModel, len(spec.JobTypes))
	for i, jt := range spec.JobTypes {
		jobTypes[i] = JobType{
			Key:                   jt.Key,
			DefaultProcessingTime: jt.ProcessingTime,
			ProcessingTimes:       jt.ProcessingTimes,
		}
		revenueLoss[jt.Key] = MinimalDetectableDelay{Gamma: jt.RevenueLoss.Gamma, Delta: jt.RevenueLoss.Delta}
	}

	// price used to normalize switching costs when none is given per server type
	defaultPrice := 0.
	if spec.EnergyCost != nil {
		defaultPrice = spec.EnergyCost.Price
	} else if len(spec.Locations) > 0 {
		defaultPrice = spec.Locations[0].EnergyCost.Price
	}
	switchingCosts := make(map[string]SwitchingCost, len(spec.ServerTypes))
	for _, st := range spec.ServerTypes {
		switchingCosts[st.Key] = switchingCostFromSpec(spec.Delta, st.SwitchingCost, consumption[st.Key], defaultPrice)
	}

	if len(spec.Locations) == 0 {
		if spec.EnergyCost == nil {
			return nil, configError("single location model requires an energy cost")
		}
		energyCost, err := energyCostFromSpec(*spec.EnergyCost)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		return BuildSingle(SingleLocationParams{
			Delta:          spec.Delta,
			Gamma:          spec.Gamma,
			ServerTypes:    serverTypes,
			Capacities:     spec.Capacities,
			JobTypes:       jobTypes,
			Consumption:    consumption,
			EnergyCost:     energyCost,
			RevenueLoss:    revenueLoss,
			SwitchingCosts: switchingCosts,
		})
	}

	locations := make([]Location, len(spec.Locations))
	energyCosts := make(map[string]EnergyCostModel, len(spec.Locations))
	for j, ls := range spec.Locations {
		locations[j] = Location{Key: ls.Key, Servers: ls.Servers}
		energyCost, err := energyCostFromSpec(ls.EnergyCost)
		if err != nil {
			return nil, fmt.Errorf("%w: location %q: %w", ErrConfiguration, ls.Key, err)
		}
		energyCosts[ls.Key] = energyCost
	}
	sources := make([]Source, len(spec.Sources))
	for s, ss := range spec.Sources {
		sources[s] = sourceFromSpec(ss)
	}
	if len(sources) == 0 {
		sources = []Source{NewConstantSource(DefaultKey, 0)}
	}
	return BuildNetwork(NetworkParams{
		Delta:          spec.Delta,
		Gamma:          spec.Gamma,
		Locations:      locations,
		ServerTypes:    serverTypes,
		Sources:        sources,
		JobTypes:       jobTypes,
		Consumption:    consumption,
		EnergyCost:     energyCosts,
		RevenueLoss:    revenueLoss,
		SwitchingCosts: switchingCosts,
	})
}

func consumptionFromSpec(cs config.ConsumptionSpec) (EnergyConsumptionModel, error) {
	switch config.ConsumptionModelEnum(cs.Model) {
	case config.LinearConsumption:
		return LinearEnergyConsumption{PhiMin: cs.PhiMin, PhiMax: cs.PhiMax}, nil
	case config.SimplifiedLinearConsumption:
		return SimplifiedLinearEnergyConsumption{PhiMax: cs.PhiMax}, nil
	case config.NonLinearConsumption:
		return NonLinearEnergyConsumption{PhiMin: cs.PhiMin, Alpha: cs.Alpha, Beta: cs.Beta}, nil
	default:
		return nil, fmt.Errorf("unknown energy consumption model %q", cs.Model)
	}
}

func energyCostFromSpec(es config.EnergyCostSpec) (EnergyCostModel, error) {
	switch config.EnergyCostModelEnum(es.Model) {
	case config.LinearEnergyCost:
		if len(es.Prices) > 0 {
			return NewCyclicEnergyCost(es.Prices), nil
		}
		return NewConstantEnergyCost(es.Price), nil
	case config.QuotasEnergyCost:
		sources := make([]EnergySource, len(es.Quotas))
		for i, q := range es.Quotas {
			sources[i] = NewEnergySource(q.Cost, q.Profit, q.Limit)
		}
		return &QuotasEnergyCost{Sources: sources}, nil
	default:
		return nil, fmt.Errorf("unknown energy cost model %q", es.Model)
	}
}

func switchingCostFromSpec(delta float64, sc config.SwitchingCostSpec, c EnergyConsumptionModel, defaultPrice float64) SwitchingCost {
	if sc.NormalizedHours == nil {
		return SwitchingCost{
			EnergyCost: sc.EnergyCost,
			PhiMin:     sc.PhiMin,
			PhiMax:     sc.PhiMax,
			Epsilon:    sc.Epsilon,
			Delta:      sc.Delta,
			Tau:        sc.Tau,
			Rho:        sc.Rho,
		}
	}
	energyCost := sc.EnergyCost
	if energyCost == 0 {
		energyCost = defaultPrice
	}
	phiMin := sc.PhiMin
	if phiMin == 0 && c != nil {
		phiMin = c.IdlePower()
	}
	if !(delta > 0) {
		// rejected by the builder
		return SwitchingCost{}
	}
	return SwitchingCostFromNormalized(delta, *sc.NormalizedHours, energyCost, phiMin)
}

func sourceFromSpec(ss config.SourceSpec) Source {
	if len(ss.RoutingDelays) == 0 {
		return NewConstantSource(ss.Key, ss.RoutingDelay)
	}
	delays := ss.RoutingDelays
	fallback := ss.RoutingDelay
	src := NewCachedSource(ss.Key, delays)
	src.RoutingDelay = func(_ int, l Location) float64 {
		if d, ok := delays[l.Key]; ok {
			return d
		}
		return fallback
	}
	return src
}
