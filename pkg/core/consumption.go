package core

import (
	"fmt"
	"math"
)

// Energy consumed by a server of some type during a time slot
type EnergyConsumptionModel interface {
	// energy consumed during a slot of length delta at utilization s in [0,1]
	Consumption(delta float64, s float64) float64
	// power drawn by an idle server
	IdlePower() float64
	Validate() error
}

// Power interpolates linearly between idle and peak power
type LinearEnergyConsumption struct {
	PhiMin float64 // power when idling
	PhiMax float64 // power at full load
}

func (m LinearEnergyConsumption) Consumption(delta float64, s float64) float64 {
	return delta * ((m.PhiMax-m.PhiMin)*s + m.PhiMin)
}

func (m LinearEnergyConsumption) IdlePower() float64 {
	return m.PhiMin
}

func (m LinearEnergyConsumption) Validate() error {
	if m.PhiMin < 0 || m.PhiMax < m.PhiMin {
		return fmt.Errorf("linear consumption requires 0 <= phiMin <= phiMax, got phiMin=%v, phiMax=%v", m.PhiMin, m.PhiMax)
	}
	return nil
}

func (m LinearEnergyConsumption) String() string {
	return fmt.Sprintf("Linear{phiMin=%v, phiMax=%v}", m.PhiMin, m.PhiMax)
}

// Power interpolates linearly from half of the peak power to the peak power
type SimplifiedLinearEnergyConsumption struct {
	PhiMax float64 // power at full load
}

func (m SimplifiedLinearEnergyConsumption) Consumption(delta float64, s float64) float64 {
	return delta * m.PhiMax * (1 + s) / 2
}

func (m SimplifiedLinearEnergyConsumption) IdlePower() float64 {
	return m.PhiMax / 2
}

func (m SimplifiedLinearEnergyConsumption) Validate() error {
	if m.PhiMax < 0 {
		return fmt.Errorf("simplified linear consumption requires phiMax >= 0, got %v", m.PhiMax)
	}
	return nil
}

func (m SimplifiedLinearEnergyConsumption) String() string {
	return fmt.Sprintf("SimplifiedLinear{phiMax=%v}", m.PhiMax)
}

// Power grows convexly with utilization, s^alpha/beta above idle power
type NonLinearEnergyConsumption struct {
	PhiMin float64 // power when idling
	Alpha  float64 // exponent, at least 1
	Beta   float64 // scale, positive
}

func (m NonLinearEnergyConsumption) Consumption(delta float64, s float64) float64 {
	return delta * (math.Pow(s, m.Alpha)/m.Beta + m.PhiMin)
}

func (m NonLinearEnergyConsumption) IdlePower() float64 {
	return m.PhiMin
}

func (m NonLinearEnergyConsumption) Validate() error {
	if m.PhiMin < 0 || m.Alpha < 1 || m.Beta <= 0 {
		return fmt.Errorf("non-linear consumption requires phiMin >= 0, alpha >= 1, beta > 0, got phiMin=%v, alpha=%v, beta=%v",
			m.PhiMin, m.Alpha, m.Beta)
	}
	return nil
}

func (m NonLinearEnergyConsumption) String() string {
	return fmt.Sprintf("NonLinear{phiMin=%v, alpha=%v, beta=%v}", m.PhiMin, m.Alpha, m.Beta)
}
