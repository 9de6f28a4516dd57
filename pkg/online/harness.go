package online

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/llm-d-incubation/provisioning-eval/pkg/loads"
	"github.com/llm-d-incubation/provisioning-eval/pkg/utils"
)

// ErrInvalidState marks a harness call out of protocol order.
var ErrInvalidState = errors.New("invalid harness state")

// State of an evaluation run
type State int

const (
	Uninitialized State = iota
	Started
	Stepping
	Stopped
)

var stateNames = []string{"Uninitialized", "Started", "Stepping", "Stopped"}

func (s State) String() string {
	if s < Uninitialized || s > Stopped {
		return "Unknown"
	}
	return stateNames[s]
}

// Accumulated outcome of an online evaluation run. Costs are the sums of the
// per-slot costs reported by the algorithm.
type Result struct {
	InitialFractionalCost float64 `json:"initialFractionalCost"`
	FractionalCost        float64 `json:"fractionalCost"`
	InitialIntegralCost   float64 `json:"initialIntegralCost"`
	IntegralCost          float64 `json:"integralCost"`
	EnergyCost            float64 `json:"energyCost"`
	RevenueLoss           float64 `json:"revenueLoss"`

	InitialRuntime time.Duration   `json:"initialRuntime"`
	Runtimes       []time.Duration `json:"runtimes"`

	// integral configuration after start and after every step
	Trajectory [][]int `json:"trajectory"`
	// active servers per server type after start and after every step
	ServerCounts [][]int `json:"serverCounts"`
}

// Part of the integral cost attributed to switching servers on
func (r *Result) SwitchingCost() float64 {
	return r.IntegralCost - r.EnergyCost - r.RevenueLoss
}

// Number of steps after start
func (r *Result) Steps() int {
	return len(r.Runtimes)
}

// Drives an online algorithm through start, next and stop, verifying after
// every call that the integral cost covers its energy cost and revenue loss
type Harness struct {
	alg     Algorithm
	session Session
	state   State
	result  Result
	failure error
	metrics Recorder
}

func NewHarness(alg Algorithm, opts ...HarnessOption) *Harness {
	h := &Harness{alg: alg, metrics: nopRecorder{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type HarnessOption func(*Harness)

// Report steps and violations to a recorder
func WithRecorder(r Recorder) HarnessOption {
	return func(h *Harness) {
		if r != nil {
			h.metrics = r
		}
	}
}

func (h *Harness) State() State {
	return h.state
}

// First invariant violation of the run, nil when the run is healthy
func (h *Harness) Err() error {
	return h.failure
}

// Copy of the accumulated result
func (h *Harness) Result() Result {
	r := h.result
	r.Runtimes = slices.Clone(r.Runtimes)
	r.Trajectory = slices.Clone(r.Trajectory)
	r.ServerCounts = slices.Clone(r.ServerCounts)
	return r
}

func (h *Harness) Start(ctx context.Context, model *core.DataCenterModel, offline [][]float64, w int) error {
	if h.state != Uninitialized {
		return fmt.Errorf("%w: start in state %s", ErrInvalidState, h.state)
	}
	if model == nil {
		return fmt.Errorf("%w: missing model", core.ErrConfiguration)
	}
	if w < 0 {
		return fmt.Errorf("%w: negative prediction window %d", core.ErrConfiguration, w)
	}

	session, resp, err := h.alg.Start(ctx, model, offline, w)
	if err != nil {
		return fmt.Errorf("%w: start: %w", core.ErrExternalAlgorithm, err)
	}
	h.session = session
	h.state = Started

	h.result.InitialFractionalCost = resp.Fractional.Cost.Total
	h.result.FractionalCost = resp.Fractional.Cost.Total
	h.result.InitialIntegralCost = resp.Integral.Cost.Total
	h.result.InitialRuntime = resp.Runtime
	h.record(StepResponse(resp))
	logger.Log.Debugw("online run started", "offlineSlots", len(offline), "window", w,
		"integralCost", resp.Integral.Cost.Total, "runtime", resp.Runtime)
	return h.check(0)
}

func (h *Harness) Next(ctx context.Context, slice loads.OnlineSlice) error {
	if h.state != Started && h.state != Stepping {
		return fmt.Errorf("%w: next in state %s", ErrInvalidState, h.state)
	}
	if h.failure != nil {
		return fmt.Errorf("%w: run failed: %w", ErrInvalidState, h.failure)
	}

	resp, err := h.session.Next(ctx, slice)
	if err != nil {
		return fmt.Errorf("%w: step %d: %w", core.ErrExternalAlgorithm, h.result.Steps()+1, err)
	}
	h.state = Stepping
	h.result.FractionalCost += resp.Fractional.Cost.Total
	h.result.Runtimes = append(h.result.Runtimes, resp.Runtime)
	h.record(resp)
	h.metrics.ObserveStep(resp.Runtime)
	return h.check(h.result.Steps())
}

// Release the session; allowed once after start, including after a failure
func (h *Harness) Stop(ctx context.Context) error {
	if h.state != Started && h.state != Stepping {
		return fmt.Errorf("%w: stop in state %s", ErrInvalidState, h.state)
	}
	h.state = Stopped
	logger.Log.Debugw("online run stopped", "steps", h.result.Steps(),
		"integralCost", h.result.IntegralCost, "switchingCost", h.result.SwitchingCost())
	if err := h.session.Stop(ctx); err != nil {
		return fmt.Errorf("%w: stop: %w", core.ErrExternalAlgorithm, err)
	}
	return nil
}

// accumulate the integral decision of a slot
func (h *Harness) record(resp StepResponse) {
	b := resp.Integral.Cost.breakdown()
	h.result.IntegralCost += resp.Integral.Cost.Total
	h.result.EnergyCost += b.EnergyCost
	h.result.RevenueLoss += b.RevenueLoss
	h.result.Trajectory = append(h.result.Trajectory, slices.Clone(resp.Integral.Config))
	h.result.ServerCounts = append(h.result.ServerCounts, slices.Clone(resp.Servers))
}

// integral cost so far must cover energy cost and revenue loss so far
func (h *Harness) check(slot int) error {
	floor := h.result.EnergyCost + h.result.RevenueLoss
	if utils.AtLeast(h.result.IntegralCost, floor, config.CostTolerance) {
		return nil
	}
	h.failure = &core.InvariantViolation{
		Slot:     slot,
		Quantity: "integral cost",
		Value:    h.result.IntegralCost,
		Relation: ">=",
		Bound:    floor,
		BoundOf:  "energy cost + revenue loss",
	}
	h.metrics.ObserveViolation()
	logger.Log.Errorw("online cost invariant violated", "slot", slot,
		"integralCost", h.result.IntegralCost, "energyCost", h.result.EnergyCost, "revenueLoss", h.result.RevenueLoss)
	return h.failure
}
