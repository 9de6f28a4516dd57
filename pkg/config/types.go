package config

// Declarative description of a data center model
type ModelSpec struct {
	Delta       float64          `json:"delta" yaml:"delta"`                     // time slot length (sec)
	Gamma       *float64         `json:"gamma,omitempty" yaml:"gamma,omitempty"` // weight of revenue loss (default 1)
	ServerTypes []ServerTypeSpec `json:"serverTypes" yaml:"serverTypes"`         // ordered server types
	JobTypes    []JobTypeSpec    `json:"jobTypes" yaml:"jobTypes"`               // ordered job types

	// single location models
	Capacities map[string]int  `json:"capacities,omitempty" yaml:"capacities,omitempty"` // number of servers per server type
	EnergyCost *EnergyCostSpec `json:"energyCost,omitempty" yaml:"energyCost,omitempty"` // energy cost of the only location

	// network models
	Locations []LocationSpec `json:"locations,omitempty" yaml:"locations,omitempty"` // ordered locations
	Sources   []SourceSpec   `json:"sources,omitempty" yaml:"sources,omitempty"`     // ordered sources of demand
}

// Specifications for a server type
type ServerTypeSpec struct {
	Key            string            `json:"key" yaml:"key"`                                           // name of server type
	MaxUtilization float64           `json:"maxUtilization,omitempty" yaml:"maxUtilization,omitempty"` // in (0,1], 0 means 1
	Consumption    ConsumptionSpec   `json:"consumption" yaml:"consumption"`                           // energy consumption model
	SwitchingCost  SwitchingCostSpec `json:"switchingCost" yaml:"switchingCost"`                       // cost of powering a server up
}

// Specifications for the energy consumption of a server type
type ConsumptionSpec struct {
	Model  string  `json:"model" yaml:"model"`                       // linear, simplified-linear, non-linear
	PhiMin float64 `json:"phiMin,omitempty" yaml:"phiMin,omitempty"` // power when idling
	PhiMax float64 `json:"phiMax,omitempty" yaml:"phiMax,omitempty"` // power at full load
	Alpha  float64 `json:"alpha,omitempty" yaml:"alpha,omitempty"`   // exponent of non-linear model
	Beta   float64 `json:"beta,omitempty" yaml:"beta,omitempty"`     // scale of non-linear model
}

// Specifications for the switching cost of a server type;
// if NormalizedHours is given the other terms are derived from it
type SwitchingCostSpec struct {
	NormalizedHours *float64 `json:"normalizedHours,omitempty" yaml:"normalizedHours,omitempty"` // hours of idle energy
	EnergyCost      float64  `json:"energyCost,omitempty" yaml:"energyCost,omitempty"`           // cost per unit of energy
	PhiMin          float64  `json:"phiMin,omitempty" yaml:"phiMin,omitempty"`
	PhiMax          float64  `json:"phiMax,omitempty" yaml:"phiMax,omitempty"`
	Epsilon         float64  `json:"epsilon,omitempty" yaml:"epsilon,omitempty"` // extra energy of a power cycle
	Delta           float64  `json:"delta,omitempty" yaml:"delta,omitempty"`     // slots needed for migration
	Tau             float64  `json:"tau,omitempty" yaml:"tau,omitempty"`         // wear and tear
	Rho             float64  `json:"rho,omitempty" yaml:"rho,omitempty"`         // perceived risk
}

// Specifications for a job type
type JobTypeSpec struct {
	Key             string             `json:"key" yaml:"key"`                                             // name of job type
	ProcessingTime  float64            `json:"processingTime,omitempty" yaml:"processingTime,omitempty"`   // default processing time (sec)
	ProcessingTimes map[string]float64 `json:"processingTimes,omitempty" yaml:"processingTimes,omitempty"` // per server type overrides
	RevenueLoss     RevenueLossSpec    `json:"revenueLoss" yaml:"revenueLoss"`
}

// Specifications for the revenue loss of a job type (minimal detectable delay)
type RevenueLossSpec struct {
	Gamma float64 `json:"gamma" yaml:"gamma"` // cost per unit of delay beyond threshold
	Delta float64 `json:"delta" yaml:"delta"` // detection threshold (sec)
}

// Specifications for a location
type LocationSpec struct {
	Key        string         `json:"key" yaml:"key"`
	Servers    map[string]int `json:"servers" yaml:"servers"`       // number of servers per server type
	EnergyCost EnergyCostSpec `json:"energyCost" yaml:"energyCost"` // energy cost at location
}

// Specifications for a source of demand
type SourceSpec struct {
	Key           string             `json:"key" yaml:"key"`
	RoutingDelay  float64            `json:"routingDelay,omitempty" yaml:"routingDelay,omitempty"`   // default delay (sec)
	RoutingDelays map[string]float64 `json:"routingDelays,omitempty" yaml:"routingDelays,omitempty"` // per location overrides
}

// Specifications for the energy cost of a location
type EnergyCostSpec struct {
	Model  string      `json:"model" yaml:"model"`                       // linear, quotas
	Price  float64     `json:"price,omitempty" yaml:"price,omitempty"`   // constant cost per unit of energy
	Prices []float64   `json:"prices,omitempty" yaml:"prices,omitempty"` // cost per time slot, repeated cyclically
	Quotas []QuotaSpec `json:"quotas,omitempty" yaml:"quotas,omitempty"` // energy sources of quotas model
}

// Specifications for an energy source with a maximum quota
type QuotaSpec struct {
	Cost   float64 `json:"cost" yaml:"cost"`     // cost per unit of energy
	Profit float64 `json:"profit" yaml:"profit"` // profit per unused unit of energy
	Limit  float64 `json:"limit" yaml:"limit"`   // maximum energy per time slot
}
