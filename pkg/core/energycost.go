package core

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/llm-d-incubation/provisioning-eval/pkg/utils"
)

// Cost of the energy consumed at a location
type EnergyCostModel interface {
	// cost of consuming energy p at location during time slot t
	Cost(t int, location Location, p float64) float64
	Validate() error
}

// Value of some quantity during time slot t
type PriceFunc func(t int) float64

// Energy is paid at a (time dependent) price per unit
type LinearEnergyCost struct {
	Price PriceFunc
}

// Linear energy cost with a constant price
func NewConstantEnergyCost(price float64) *LinearEnergyCost {
	return &LinearEnergyCost{Price: func(int) float64 { return price }}
}

// Linear energy cost with prices per time slot, repeated cyclically
func NewCyclicEnergyCost(prices []float64) *LinearEnergyCost {
	prices = slices.Clone(prices)
	return &LinearEnergyCost{Price: func(t int) float64 {
		n := len(prices)
		return prices[((t%n)+n)%n]
	}}
}

func (m *LinearEnergyCost) Cost(t int, _ Location, p float64) float64 {
	return m.Price(t) * p
}

func (m *LinearEnergyCost) Validate() error {
	if m.Price == nil {
		return fmt.Errorf("linear energy cost requires a price")
	}
	return nil
}

// An energy source with a maximum quota per time slot
type EnergySource struct {
	Cost   PriceFunc                             // cost per unit of energy
	Profit PriceFunc                             // profit per unused unit of energy
	Limit  func(t int, location Location) float64 // maximum energy
}

// Energy source with constant terms
func NewEnergySource(cost, profit, limit float64) EnergySource {
	return EnergySource{
		Cost:   func(int) float64 { return cost },
		Profit: func(int) float64 { return profit },
		Limit:  func(int, Location) float64 { return limit },
	}
}

// Energy is drawn from the cheapest sources first, unused quota is sold back
type QuotasEnergyCost struct {
	Sources []EnergySource
}

func (m *QuotasEnergyCost) Cost(t int, location Location, p float64) float64 {
	sources := slices.Clone(m.Sources)
	slices.SortStableFunc(sources, func(a, b EnergySource) int {
		return cmp.Compare(a.Cost(t)+a.Profit(t), b.Cost(t)+b.Profit(t))
	})

	result := 0.
	cumLimit := 0.
	for _, source := range sources {
		remaining := utils.Pos(p - cumLimit)
		limit := source.Limit(t, location)
		result += source.Cost(t)*math.Min(remaining, limit) - source.Profit(t)*utils.Pos(limit-remaining)
		cumLimit += limit
	}
	// demand beyond all quotas cannot be served
	if p > cumLimit {
		return math.Inf(1)
	}
	return result
}

func (m *QuotasEnergyCost) Validate() error {
	if len(m.Sources) == 0 {
		return fmt.Errorf("quotas energy cost requires at least one energy source")
	}
	for i, s := range m.Sources {
		if s.Cost == nil || s.Profit == nil || s.Limit == nil {
			return fmt.Errorf("energy source %d is incomplete", i)
		}
	}
	return nil
}
