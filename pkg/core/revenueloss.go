package core

import (
	"fmt"

	"github.com/llm-d-incubation/provisioning-eval/pkg/utils"
)

// Loss of revenue caused by a job being delayed
type RevenueLossModel interface {
	// loss of a single job completing with some delay during time slot t
	Loss(t int, delay float64) float64
	Validate() error
}

// Revenue is lost linearly once the delay exceeds a detection threshold
type MinimalDetectableDelay struct {
	Gamma float64 // loss per unit of delay beyond the threshold
	Delta float64 // minimal detectable delay
}

func (m MinimalDetectableDelay) Loss(_ int, delay float64) float64 {
	return m.Gamma * utils.Pos(delay-m.Delta)
}

func (m MinimalDetectableDelay) Validate() error {
	if m.Gamma < 0 || m.Delta < 0 {
		return fmt.Errorf("minimal detectable delay requires gamma >= 0 and delta >= 0, got gamma=%v, delta=%v", m.Gamma, m.Delta)
	}
	return nil
}

func (m MinimalDetectableDelay) String() string {
	return fmt.Sprintf("MinimalDetectableDelay{gamma=%v, delta=%v}", m.Gamma, m.Delta)
}
