package core

import (
	"fmt"
	"math"

	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
)

// Cost of powering up a server of some type
type SwitchingCost struct {
	EnergyCost float64 // average cost per unit of energy
	PhiMin     float64 // power when idling
	PhiMax     float64 // power at full load
	Epsilon    float64 // additional energy consumed by a power cycle
	Delta      float64 // time slots needed to migrate connections or data
	Tau        float64 // wear and tear of a power cycle
	Rho        float64 // perceived risk of a power cycle
}

// Switching cost worth a number of hours of idle energy,
// hours * (3600/delta) * energyCost * phiMin
func SwitchingCostFromNormalized(delta, hours, energyCost, phiMin float64) SwitchingCost {
	return SwitchingCost{
		EnergyCost: energyCost,
		PhiMin:     phiMin,
		Rho:        hours * (config.SecondsPerHour / delta) * energyCost * phiMin,
	}
}

// Cost of a single power cycle
func (c SwitchingCost) Cost() float64 {
	return c.EnergyCost*(c.Epsilon+c.Delta*c.PhiMax) + c.Tau + c.Rho
}

// Hours a server must idle to consume energy worth one power cycle
func (c SwitchingCost) NormalizedHours(delta float64) float64 {
	idlePerHour := (config.SecondsPerHour / delta) * c.EnergyCost * c.PhiMin
	if idlePerHour == 0 {
		if c.Cost() == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return c.Cost() / idlePerHour
}

func (c SwitchingCost) Validate() error {
	if c.EnergyCost < 0 || c.PhiMin < 0 || c.PhiMax < 0 || c.Epsilon < 0 || c.Delta < 0 || c.Tau < 0 || c.Rho < 0 {
		return fmt.Errorf("switching cost terms must be non-negative, got %+v", c)
	}
	return nil
}
