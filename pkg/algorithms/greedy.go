package algorithms

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/llm-d-incubation/provisioning-eval/pkg/loads"
	"github.com/llm-d-incubation/provisioning-eval/pkg/online"
)

// Online strategy choosing, in every time slot, the configuration that
// minimizes the expected hitting cost of the slot plus the cost of switching
// from the previous configuration. The fractional decision is taken the same
// way on a grid refined to 1/FractionalSteps.
type Greedy struct {
	FractionalSteps   int
	MaxConfigurations int
}

func NewGreedy() *Greedy {
	return &Greedy{FractionalSteps: 2, MaxConfigurations: DefaultMaxConfigurations}
}

type greedyTrack struct {
	configs [][]float64
	prev    []float64
}

type greedySession struct {
	model      *core.DataCenterModel
	sc         []float64
	t          int
	integral   greedyTrack
	fractional greedyTrack
}

func (g *Greedy) Start(ctx context.Context, m *core.DataCenterModel, offline [][]float64, w int) (online.Session, online.StartResponse, error) {
	startTime := time.Now()
	integral, err := configurations(m, IntegerGrid, g.MaxConfigurations)
	if err != nil {
		return nil, online.StartResponse{}, err
	}
	fractional, err := configurations(m, FractionalGrid(max(g.FractionalSteps, 1)), g.MaxConfigurations)
	if err != nil {
		return nil, online.StartResponse{}, err
	}
	s := &greedySession{
		model:      m,
		sc:         switchingCosts(m),
		integral:   greedyTrack{configs: integral, prev: m.ZeroConfig()},
		fractional: greedyTrack{configs: fractional, prev: m.ZeroConfig()},
	}

	// run through the offline segment, reporting its total cost
	var resp online.StepResponse
	for _, lambda := range offline {
		if err := ctx.Err(); err != nil {
			return nil, online.StartResponse{}, err
		}
		step, err := s.decide(loads.Prediction(certain(lambda)))
		if err != nil {
			return nil, online.StartResponse{}, err
		}
		resp = accumulate(resp, step)
	}
	if len(offline) == 0 {
		resp = s.current(core.Breakdown{}, core.Breakdown{})
	}
	resp.Runtime = time.Since(startTime)
	return s, online.StartResponse(resp), nil
}

func (s *greedySession) Next(ctx context.Context, slice loads.OnlineSlice) (online.StepResponse, error) {
	if err := ctx.Err(); err != nil {
		return online.StepResponse{}, err
	}
	if len(slice) == 0 {
		return online.StepResponse{}, fmt.Errorf("time slot %d: no prediction", s.t)
	}
	startTime := time.Now()
	resp, err := s.decide(slice[0])
	if err != nil {
		return online.StepResponse{}, err
	}
	resp.Runtime = time.Since(startTime)
	return resp, nil
}

func (s *greedySession) Stop(context.Context) error {
	return nil
}

// decide the current time slot given samples of its load
func (s *greedySession) decide(p loads.Prediction) (online.StepResponse, error) {
	samples, err := s.samples(p)
	if err != nil {
		return online.StepResponse{}, err
	}
	fb, fs, err := s.step(&s.fractional, samples)
	if err != nil {
		return online.StepResponse{}, err
	}
	ib, is, err := s.step(&s.integral, samples)
	if err != nil {
		return online.StepResponse{}, err
	}
	s.t++

	resp := s.current(fb, ib)
	resp.Fractional.Cost.Total = fb.Total() + fs
	resp.Integral.Cost.Total = ib.Total() + is
	return resp, nil
}

// move a track to its cheapest next configuration; returns the expected
// hitting cost and the switching cost of the move
func (s *greedySession) step(track *greedyTrack, samples [][]float64) (core.Breakdown, float64, error) {
	best, bestCost := -1, math.Inf(1)
	var bestBreakdown core.Breakdown
	for c, x := range track.configs {
		b, err := s.expectedHittingCost(x, samples)
		if err != nil {
			return core.Breakdown{}, 0, err
		}
		if v := b.Total() + switchingCost(s.sc, track.prev, x); best < 0 || v < bestCost {
			best, bestCost, bestBreakdown = c, v, b
		}
	}
	switching := switchingCost(s.sc, track.prev, track.configs[best])
	track.prev = track.configs[best]
	return bestBreakdown, switching, nil
}

func (s *greedySession) expectedHittingCost(x []float64, samples [][]float64) (core.Breakdown, error) {
	var sum core.Breakdown
	for _, lambda := range samples {
		b, err := s.model.HittingCost(s.t, x, lambda)
		if err != nil {
			return core.Breakdown{}, fmt.Errorf("time slot %d: %w", s.t, err)
		}
		sum = sum.Add(b)
	}
	n := float64(len(samples))
	return core.Breakdown{EnergyCost: sum.EnergyCost / n, RevenueLoss: sum.RevenueLoss / n}, nil
}

// load profiles of a prediction, one per sample
func (s *greedySession) samples(p loads.Prediction) ([][]float64, error) {
	if len(p) != s.model.E() {
		return nil, fmt.Errorf("time slot %d: prediction has %d load types, model has %d", s.t, len(p), s.model.E())
	}
	n := 1
	for _, jobSamples := range p {
		n = max(n, len(jobSamples))
	}
	profiles := make([][]float64, n)
	for i := range profiles {
		profiles[i] = make([]float64, len(p))
		for e, jobSamples := range p {
			if len(jobSamples) > 0 {
				profiles[i][e] = jobSamples[i%len(jobSamples)]
			}
		}
	}
	return profiles, nil
}

// response describing the current configurations
func (s *greedySession) current(fb, ib core.Breakdown) online.StepResponse {
	integral := make([]int, len(s.integral.prev))
	for d, x := range s.integral.prev {
		integral[d] = int(math.Round(x))
	}
	return online.StepResponse{
		Fractional: online.FractionalStep{
			Config: slices.Clone(s.fractional.prev),
			Cost:   online.Cost{Total: fb.Total(), Breakdown: &fb},
		},
		Integral: online.IntegralStep{
			Config: integral,
			Cost:   online.Cost{Total: ib.Total(), Breakdown: &ib},
		},
		Servers: serverCounts(s.model, s.integral.prev),
	}
}

// fold a step into a running response
func accumulate(total, step online.StepResponse) online.StepResponse {
	step.Fractional.Cost = addCost(total.Fractional.Cost, step.Fractional.Cost)
	step.Integral.Cost = addCost(total.Integral.Cost, step.Integral.Cost)
	return step
}

func addCost(a, b online.Cost) online.Cost {
	sum := online.Cost{Total: a.Total + b.Total}
	if a.Breakdown != nil || b.Breakdown != nil {
		breakdown := zeroIfNil(a.Breakdown).Add(zeroIfNil(b.Breakdown))
		sum.Breakdown = &breakdown
	}
	return sum
}

func zeroIfNil(b *core.Breakdown) core.Breakdown {
	if b == nil {
		return core.Breakdown{}
	}
	return *b
}

// load profile as a prediction with one sample per load type
func certain(profile []float64) [][]float64 {
	p := make([][]float64, len(profile))
	for i, l := range profile {
		p[i] = []float64{l}
	}
	return p
}
