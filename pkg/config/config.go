package config

// energy consumption models of a server type
type ConsumptionModel int

const (
	LinearConsumption           ConsumptionModel = iota // 0 : linear between idle and peak power
	SimplifiedLinearConsumption                         // 1 : linear with idle power implied by peak power
	NonLinearConsumption                                // 2 : convex in utilization
	UnknownConsumption
)

func (m ConsumptionModel) String() string {
	switch m {
	case LinearConsumption:
		return "linear"
	case SimplifiedLinearConsumption:
		return "simplified-linear"
	case NonLinearConsumption:
		return "non-linear"
	default:
		return "unknown"
	}
}

// empty string selects the default model
func ConsumptionModelEnum(s string) ConsumptionModel {
	switch s {
	case "":
		return DefaultConsumptionModel
	case "linear":
		return LinearConsumption
	case "simplified-linear":
		return SimplifiedLinearConsumption
	case "non-linear":
		return NonLinearConsumption
	default:
		return UnknownConsumption
	}
}

// energy cost models of a location
type EnergyCostModel int

const (
	LinearEnergyCost EnergyCostModel = iota // 0 : price per unit of energy
	QuotasEnergyCost                        // 1 : tiered energy sources with maximum quotas
	UnknownEnergyCost
)

func (m EnergyCostModel) String() string {
	switch m {
	case LinearEnergyCost:
		return "linear"
	case QuotasEnergyCost:
		return "quotas"
	default:
		return "unknown"
	}
}

// empty string selects the default model
func EnergyCostModelEnum(s string) EnergyCostModel {
	switch s {
	case "":
		return DefaultEnergyCostModel
	case "linear":
		return LinearEnergyCost
	case "quotas":
		return QuotasEnergyCost
	default:
		return UnknownEnergyCost
	}
}
