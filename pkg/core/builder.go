package core

import (
	"fmt"
	"maps"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/analyzer"
	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/ptr"
)

// Parameters of a model of a single data center
type SingleLocationParams struct {
	Delta          float64
	Gamma          *float64
	ServerTypes    []ServerType
	Capacities     map[string]int // per server type, missing types have no servers
	JobTypes       []JobType
	Consumption    map[string]EnergyConsumptionModel // per server type
	EnergyCost     EnergyCostModel
	RevenueLoss    map[string]RevenueLossModel // per job type
	SwitchingCosts map[string]SwitchingCost    // per server type
}

// Parameters of a model of a network of data centers
type NetworkParams struct {
	Delta          float64
	Gamma          *float64
	Locations      []Location
	ServerTypes    []ServerType
	Sources        []Source
	JobTypes       []JobType
	Consumption    map[string]EnergyConsumptionModel // per server type
	EnergyCost     map[string]EnergyCostModel        // per location
	RevenueLoss    map[string]RevenueLossModel       // per job type
	SwitchingCosts map[string]SwitchingCost          // per server type
}

// Build the model of a single data center; a default location holding the
// given capacities and a default source without routing delay are synthesized.
func BuildSingle(p SingleLocationParams) (*DataCenterModel, error) {
	if err := subsetOf("capacities", sets.KeySet(p.Capacities), "server types", keysOf(p.ServerTypes)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return BuildNetwork(NetworkParams{
		Delta:          p.Delta,
		Gamma:          p.Gamma,
		Locations:      []Location{{Key: DefaultKey, Servers: p.Capacities}},
		ServerTypes:    p.ServerTypes,
		Sources:        []Source{NewConstantSource(DefaultKey, 0)},
		JobTypes:       p.JobTypes,
		Consumption:    p.Consumption,
		EnergyCost:     map[string]EnergyCostModel{DefaultKey: p.EnergyCost},
		RevenueLoss:    p.RevenueLoss,
		SwitchingCosts: p.SwitchingCosts,
	})
}

// Build the model of a network of data centers
func BuildNetwork(p NetworkParams) (*DataCenterModel, error) {
	var errs []error

	if !(p.Delta > 0) {
		errs = append(errs, fmt.Errorf("time slot length must be positive, got %v", p.Delta))
	}
	if p.Gamma != nil && *p.Gamma < 0 {
		errs = append(errs, fmt.Errorf("revenue loss weight must be non-negative, got %v", *p.Gamma))
	}

	serverTypes, err := uniqueKeys("server type", p.ServerTypes, func(k ServerType) string { return k.Key })
	errs = appendIf(errs, err)
	jobTypes, err := uniqueKeys("job type", p.JobTypes, func(i JobType) string { return i.Key })
	errs = appendIf(errs, err)
	locations, err := uniqueKeys("location", p.Locations, func(l Location) string { return l.Key })
	errs = appendIf(errs, err)
	_, err = uniqueKeys("source", p.Sources, func(s Source) string { return s.Key })
	errs = appendIf(errs, err)

	if len(p.ServerTypes) == 0 {
		errs = append(errs, fmt.Errorf("at least one server type is required"))
	}
	if len(p.JobTypes) == 0 {
		errs = append(errs, fmt.Errorf("at least one job type is required"))
	}
	if len(p.Locations) == 0 {
		errs = append(errs, fmt.Errorf("at least one location is required"))
	}
	if len(p.Sources) == 0 {
		errs = append(errs, fmt.Errorf("at least one source is required"))
	}

	for _, k := range p.ServerTypes {
		if !(k.MaxUtilization > 0 && k.MaxUtilization <= 1) {
			errs = append(errs, fmt.Errorf("server type %q: maximum utilization must be in (0,1], got %v", k.Key, k.MaxUtilization))
		}
	}
	for _, l := range p.Locations {
		errs = appendIf(errs, subsetOf(fmt.Sprintf("servers of location %q", l.Key), sets.KeySet(l.Servers), "server types", serverTypes))
		for k, n := range l.Servers {
			if n < 0 {
				errs = append(errs, fmt.Errorf("location %q: negative number of servers of type %q", l.Key, k))
			}
		}
	}
	for _, s := range p.Sources {
		if s.RoutingDelay == nil {
			errs = append(errs, fmt.Errorf("source %q has no routing function", s.Key))
		}
		if s.Locations != nil {
			errs = appendIf(errs, subsetOf(fmt.Sprintf("routing delays of source %q", s.Key), sets.New(s.Locations...), "locations", locations))
		}
	}
	for _, i := range p.JobTypes {
		errs = appendIf(errs, subsetOf(fmt.Sprintf("processing times of job type %q", i.Key), sets.KeySet(i.ProcessingTimes), "server types", serverTypes))
		for _, k := range p.ServerTypes {
			if eta := i.ProcessingTimeOn(k); !(eta >= 0) {
				errs = append(errs, fmt.Errorf("job type %q: invalid processing time %v on server type %q", i.Key, eta, k.Key))
			}
		}
	}

	errs = append(errs, completeMap("energy consumption models", p.Consumption, "server types", serverTypes)...)
	errs = append(errs, completeMap("energy cost models", p.EnergyCost, "locations", locations)...)
	errs = append(errs, completeMap("revenue loss models", p.RevenueLoss, "job types", jobTypes)...)
	errs = append(errs, completeMap("switching costs", p.SwitchingCosts, "server types", serverTypes)...)

	for key, c := range p.Consumption {
		if c == nil {
			errs = append(errs, fmt.Errorf("server type %q: nil energy consumption model", key))
		} else if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("server type %q: %w", key, err))
		}
	}
	for key, c := range p.EnergyCost {
		if c == nil {
			errs = append(errs, fmt.Errorf("location %q: nil energy cost model", key))
		} else if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("location %q: %w", key, err))
		}
	}
	for key, r := range p.RevenueLoss {
		if r == nil {
			errs = append(errs, fmt.Errorf("job type %q: nil revenue loss model", key))
		} else if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("job type %q: %w", key, err))
		}
	}
	for key, c := range p.SwitchingCosts {
		if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("server type %q: %w", key, err))
		}
	}

	if agg := utilerrors.NewAggregate(errs); agg != nil {
		logger.Log.Debugw("rejected data center model", "errors", len(agg.Errors()))
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, agg)
	}

	m := &DataCenterModel{
		delta:          p.Delta,
		serverTypes:    append([]ServerType(nil), p.ServerTypes...),
		sources:        append([]Source(nil), p.Sources...),
		consumption:    maps.Clone(p.Consumption),
		energyCost:     maps.Clone(p.EnergyCost),
		revenueLoss:    maps.Clone(p.RevenueLoss),
		switchingCosts: maps.Clone(p.SwitchingCosts),
		delayModel:     analyzer.ProcessorSharingQueue{},
	}
	if p.Gamma != nil {
		m.gamma = ptr.To(*p.Gamma)
	}
	for _, l := range p.Locations {
		m.locations = append(m.locations, l.clone())
	}
	for _, i := range p.JobTypes {
		m.jobTypes = append(m.jobTypes, i.clone())
	}
	logger.Log.Debugw("built data center model", "delta", m.delta, "dimensions", m.D(), "loadTypes", m.E())
	return m, nil
}

// Parameters of a single data center with linear energy consumption
type LinearParams struct {
	Delta       float64
	Gamma       *float64
	ServerTypes []ServerType
	Capacities  map[string]int
	JobTypes    []JobType
	PhiMin      map[string]float64 // per server type
	PhiMax      map[string]float64 // per server type
	EnergyCost  float64            // constant cost per unit of energy
	RevenueLoss map[string]MinimalDetectableDelay
	// hours of idle energy per power cycle, per server type; missing types use the default
	NormalizedSwitchingCost map[string]float64
}

// Build a single data center with linear energy consumption and a constant energy price
func BuildLinear(p LinearParams) (*DataCenterModel, error) {
	serverTypes := keysOf(p.ServerTypes)
	if err := subsetOf("phiMin", sets.KeySet(p.PhiMin), "server types", serverTypes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	consumption := make(map[string]EnergyConsumptionModel, len(p.PhiMax))
	for key, phiMax := range p.PhiMax {
		consumption[key] = LinearEnergyConsumption{PhiMin: p.PhiMin[key], PhiMax: phiMax}
	}
	return buildWithConstantCost(p.Delta, p.Gamma, p.ServerTypes, p.Capacities, p.JobTypes,
		consumption, p.EnergyCost, p.RevenueLoss, p.NormalizedSwitchingCost)
}

// Parameters of a single data center with non-linear energy consumption
type NonLinearParams struct {
	Delta                   float64
	Gamma                   *float64
	ServerTypes             []ServerType
	Capacities              map[string]int
	JobTypes                []JobType
	PhiMin                  map[string]float64 // per server type
	Alpha                   map[string]float64 // per server type
	Beta                    map[string]float64 // per server type
	EnergyCost              float64
	RevenueLoss             map[string]MinimalDetectableDelay
	NormalizedSwitchingCost map[string]float64
}

// Build a single data center with non-linear energy consumption and a constant energy price
func BuildNonLinear(p NonLinearParams) (*DataCenterModel, error) {
	serverTypes := keysOf(p.ServerTypes)
	var errs []error
	errs = appendIf(errs, subsetOf("alpha", sets.KeySet(p.Alpha), "server types", serverTypes))
	errs = appendIf(errs, subsetOf("beta", sets.KeySet(p.Beta), "server types", serverTypes))
	if agg := utilerrors.NewAggregate(errs); agg != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, agg)
	}
	consumption := make(map[string]EnergyConsumptionModel, len(p.PhiMin))
	for key, phiMin := range p.PhiMin {
		consumption[key] = NonLinearEnergyConsumption{PhiMin: phiMin, Alpha: p.Alpha[key], Beta: p.Beta[key]}
	}
	return buildWithConstantCost(p.Delta, p.Gamma, p.ServerTypes, p.Capacities, p.JobTypes,
		consumption, p.EnergyCost, p.RevenueLoss, p.NormalizedSwitchingCost)
}

func buildWithConstantCost(delta float64, gamma *float64, serverTypes []ServerType, capacities map[string]int,
	jobTypes []JobType, consumption map[string]EnergyConsumptionModel, energyCost float64,
	revenueLoss map[string]MinimalDetectableDelay, normalized map[string]float64) (*DataCenterModel, error) {

	if err := subsetOf("normalized switching costs", sets.KeySet(normalized), "server types", keysOf(serverTypes)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	switchingCosts := make(map[string]SwitchingCost, len(consumption))
	for key, c := range consumption {
		hours, ok := normalized[key]
		if !ok {
			hours = config.DefaultNormalizedSwitchingCostHours
		}
		if delta > 0 {
			switchingCosts[key] = SwitchingCostFromNormalized(delta, hours, energyCost, c.IdlePower())
		}
	}
	losses := make(map[string]RevenueLossModel, len(revenueLoss))
	for key, r := range revenueLoss {
		losses[key] = r
	}
	return BuildSingle(SingleLocationParams{
		Delta:          delta,
		Gamma:          gamma,
		ServerTypes:    serverTypes,
		Capacities:     capacities,
		JobTypes:       jobTypes,
		Consumption:    consumption,
		EnergyCost:     NewConstantEnergyCost(energyCost),
		RevenueLoss:    losses,
		SwitchingCosts: switchingCosts,
	})
}

// keys referenced by a map must be declared
func subsetOf(what string, keys sets.Set[string], declaredWhat string, declared sets.Set[string]) error {
	if dangling := keys.Difference(declared); dangling.Len() > 0 {
		return fmt.Errorf("%s reference undeclared %s %q", what, declaredWhat, sets.List(dangling))
	}
	return nil
}

// a map must be keyed by exactly the declared keys
func completeMap[V any](what string, m map[string]V, declaredWhat string, declared sets.Set[string]) []error {
	var errs []error
	keys := sets.KeySet(m)
	errs = appendIf(errs, subsetOf(what, keys, declaredWhat, declared))
	if missing := declared.Difference(keys); missing.Len() > 0 {
		errs = append(errs, fmt.Errorf("%s missing for %s %q", what, declaredWhat, sets.List(missing)))
	}
	return errs
}

func uniqueKeys[T any](what string, items []T, key func(T) string) (sets.Set[string], error) {
	keys := sets.New[string]()
	var duplicates []string
	for _, item := range items {
		k := key(item)
		if keys.Has(k) {
			duplicates = append(duplicates, k)
		}
		keys.Insert(k)
	}
	if len(duplicates) > 0 {
		return keys, fmt.Errorf("duplicate %s keys %q", what, duplicates)
	}
	return keys, nil
}

func keysOf(serverTypes []ServerType) sets.Set[string] {
	keys := sets.New[string]()
	for _, k := range serverTypes {
		keys.Insert(k.Key)
	}
	return keys
}

func appendIf(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}
