package analyzer

import (
	"bytes"
	"fmt"
	"math"
)

// Delay model of a server processing sub jobs during a time slot
type DelayModel interface {
	// average delay of a sub job on a server handling a total of l units of work
	// during a time slot of length delta
	AverageDelay(delta float64, l float64) float64
}

// M/GI/1 processor sharing queue
type ProcessorSharingQueue struct{}

// Average delay 1/(delta-l); infinite once the server is saturated
func (ProcessorSharingQueue) AverageDelay(delta float64, l float64) float64 {
	if delta <= 0 || l >= delta {
		return math.Inf(1)
	}
	return 1 / (delta - l)
}

func (ProcessorSharingQueue) String() string {
	return "ProcessorSharingQueue"
}

// Evaluation of a delay model for one server during one time slot
type SlotDelay struct {
	delta    float64 // time slot length
	load     float64 // work assigned to the server
	rho      float64 // utilization
	avgDelay float64 // average queueing delay
	isValid  bool    // validity of input data
}

// Solve delay model given slot length and work per server
func Solve(m DelayModel, delta float64, load float64) *SlotDelay {
	d := &SlotDelay{
		delta: delta,
		load:  load,
	}
	if delta <= 0 || load < 0 {
		d.avgDelay = math.Inf(1)
		return d
	}
	d.rho = load / delta
	d.avgDelay = m.AverageDelay(delta, load)
	d.isValid = !math.IsInf(d.avgDelay, 1)
	return d
}

func (d *SlotDelay) IsValid() bool {
	return d.isValid
}

func (d *SlotDelay) GetRho() float64 {
	return d.rho
}

func (d *SlotDelay) GetAvgDelay() float64 {
	return d.avgDelay
}

func (d *SlotDelay) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "isValid=%v; ", d.isValid)
	fmt.Fprintf(&b, "delta=%v; load=%v; rho=%v; ", d.delta, d.load, d.rho)
	if d.isValid {
		fmt.Fprintf(&b, "D=%v; ", d.avgDelay)
	}
	return b.String()
}
