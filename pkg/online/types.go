package online

import (
	"context"
	"time"

	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/llm-d-incubation/provisioning-eval/pkg/loads"
)

// Cost reported by an algorithm for a decision. A nil breakdown marks a slot
// whose accounting is deferred to a later decision.
type Cost struct {
	Total     float64         `json:"total"`
	Breakdown *core.Breakdown `json:"breakdown,omitempty"`
}

// breakdown, zero when deferred
func (c Cost) breakdown() core.Breakdown {
	if c.Breakdown == nil {
		return core.Breakdown{}
	}
	return *c.Breakdown
}

// Decision of the fractional (relaxed) variant of an algorithm
type FractionalStep struct {
	Config []float64 `json:"config"`
	Cost   Cost      `json:"cost"`
}

// Decision of the integral variant of an algorithm
type IntegralStep struct {
	Config []int `json:"config"`
	Cost   Cost  `json:"cost"`
}

// Response of an algorithm to one time slot
type StepResponse struct {
	Fractional FractionalStep `json:"fractional"`
	Integral   IntegralStep   `json:"integral"`
	// active servers per server type
	Servers []int `json:"servers"`
	// time taken by the algorithm to decide
	Runtime time.Duration `json:"runtime"`
}

// Response of an algorithm to the initial offline segment
type StartResponse StepResponse

// Online decision algorithm
type Algorithm interface {
	// Start a session from an initial offline trace segment, w being the
	// number of future slots the algorithm may look ahead
	Start(ctx context.Context, model *core.DataCenterModel, offline [][]float64, w int) (Session, StartResponse, error)
}

// Session of an online algorithm, owned by a single evaluation run
type Session interface {
	// Decide for the next time slot given its predictions
	Next(ctx context.Context, slice loads.OnlineSlice) (StepResponse, error)
	// Release the session, no further calls are permitted
	Stop(ctx context.Context) error
}
