package core

import (
	"bytes"
	"fmt"
	"maps"

	"github.com/llm-d-incubation/provisioning-eval/pkg/analyzer"
	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
)

// Model of a network of data centers. Immutable once built;
// accessors return copies.
//
// A configuration assigns a number of active servers to each of the
// D = |locations| * |server types| dimensions, dimension j*|K|+k denoting
// servers of type k at location j. A load profile assigns a load to each of
// the E = |sources| * |job types| load types, entry s*|I|+i denoting jobs of
// type i from source s.
type DataCenterModel struct {
	delta float64  // time slot length (sec)
	gamma *float64 // weight of revenue loss

	locations   []Location
	serverTypes []ServerType
	sources     []Source
	jobTypes    []JobType

	consumption    map[string]EnergyConsumptionModel // per server type
	energyCost     map[string]EnergyCostModel        // per location
	revenueLoss    map[string]RevenueLossModel       // per job type
	switchingCosts map[string]SwitchingCost          // per server type

	delayModel analyzer.DelayModel
}

func (m *DataCenterModel) Delta() float64 {
	return m.delta
}

// Weight of revenue loss, defaults to 1
func (m *DataCenterModel) Gamma() float64 {
	if m.gamma == nil {
		return config.DefaultGamma
	}
	return *m.gamma
}

func (m *DataCenterModel) Locations() []Location {
	locations := make([]Location, len(m.locations))
	for j, l := range m.locations {
		locations[j] = l.clone()
	}
	return locations
}

func (m *DataCenterModel) ServerTypes() []ServerType {
	return append([]ServerType(nil), m.serverTypes...)
}

func (m *DataCenterModel) Sources() []Source {
	return append([]Source(nil), m.sources...)
}

func (m *DataCenterModel) JobTypes() []JobType {
	jobTypes := make([]JobType, len(m.jobTypes))
	for i, jt := range m.jobTypes {
		jobTypes[i] = jt.clone()
	}
	return jobTypes
}

func (m *DataCenterModel) EnergyConsumption(serverType string) EnergyConsumptionModel {
	return m.consumption[serverType]
}

func (m *DataCenterModel) EnergyCost(location string) EnergyCostModel {
	return m.energyCost[location]
}

func (m *DataCenterModel) RevenueLoss(jobType string) RevenueLossModel {
	return m.revenueLoss[jobType]
}

func (m *DataCenterModel) SwitchingCost(serverType string) SwitchingCost {
	return m.switchingCosts[serverType]
}

func (m *DataCenterModel) SwitchingCosts() map[string]SwitchingCost {
	return maps.Clone(m.switchingCosts)
}

// Number of dimensions of a configuration
func (m *DataCenterModel) D() int {
	return len(m.locations) * len(m.serverTypes)
}

// Number of load types of a load profile
func (m *DataCenterModel) E() int {
	return len(m.sources) * len(m.jobTypes)
}

// Number of available servers in each dimension
func (m *DataCenterModel) Bounds() []int {
	bounds := make([]int, 0, m.D())
	for _, l := range m.locations {
		for _, k := range m.serverTypes {
			bounds = append(bounds, l.Servers[k.Key])
		}
	}
	return bounds
}

// Location and server type of a dimension
func (m *DataCenterModel) Dimension(d int) (Location, ServerType) {
	j, k := parse(len(m.serverTypes), d)
	return m.locations[j], m.serverTypes[k]
}

// Source and job type of a load type
func (m *DataCenterModel) LoadType(e int) (Source, JobType) {
	s, i := parse(len(m.jobTypes), e)
	return m.sources[s], m.jobTypes[i]
}

func encode(innerLen, outer, inner int) int {
	return outer*innerLen + inner
}

func parse(innerLen, index int) (int, int) {
	return index / innerLen, index % innerLen
}

func (m *DataCenterModel) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "DataCenterModel: delta=%v; gamma=%v; d=%d; e=%d\n", m.delta, m.Gamma(), m.D(), m.E())
	for _, l := range m.locations {
		fmt.Fprintf(&b, "  location %q: servers=%v\n", l.Key, l.Servers)
	}
	for _, k := range m.serverTypes {
		fmt.Fprintf(&b, "  %v; consumption=%v; switchingCost=%v\n", k, m.consumption[k.Key], m.switchingCosts[k.Key].Cost())
	}
	for _, i := range m.jobTypes {
		fmt.Fprintf(&b, "  job type %q: revenueLoss=%v\n", i.Key, m.revenueLoss[i.Key])
	}
	return b.String()
}
