package online

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
)

var _ = Describe("Harness", func() {
	var (
		ctx   context.Context
		model *core.DataCenterModel
		alg   *scriptedAlgorithm
	)

	BeforeEach(func() {
		ctx = context.Background()
		model = testModel()
		alg = &scriptedAlgorithm{
			start: StartResponse(decision([]int{1}, 600, 0, 600)),
			steps: []StepResponse{
				decision([]int{2}, 1200, 0, 600),
				decision([]int{2}, 1200, 0.5, 0),
				decision([]int{1}, 600, 0, 0),
			},
		}
	})

	Context("protocol order", func() {
		It("rejects next and stop before start", func() {
			h := NewHarness(alg)
			Expect(h.State()).To(Equal(Uninitialized))
			Expect(h.Next(ctx, nil)).To(MatchError(ErrInvalidState))
			Expect(h.Stop(ctx)).To(MatchError(ErrInvalidState))
			Expect(alg.nexts).To(BeZero())
		})

		It("moves through started, stepping and stopped", func() {
			h := NewHarness(alg)
			Expect(h.Start(ctx, model, [][]float64{{0}}, 0)).To(Succeed())
			Expect(h.State()).To(Equal(Started))
			Expect(h.Start(ctx, model, nil, 0)).To(MatchError(ErrInvalidState))

			Expect(h.Next(ctx, nil)).To(Succeed())
			Expect(h.State()).To(Equal(Stepping))

			Expect(h.Stop(ctx)).To(Succeed())
			Expect(h.State()).To(Equal(Stopped))
			Expect(alg.stops).To(Equal(1))

			Expect(h.Next(ctx, nil)).To(MatchError(ErrInvalidState))
			Expect(h.Stop(ctx)).To(MatchError(ErrInvalidState))
			Expect(alg.stops).To(Equal(1))
		})

		It("rejects a missing model or a negative window", func() {
			Expect(NewHarness(alg).Start(ctx, nil, nil, 0)).To(MatchError(core.ErrConfiguration))
			Expect(NewHarness(alg).Start(ctx, model, nil, -1)).To(MatchError(core.ErrConfiguration))
			Expect(alg.starts).To(BeZero())
		})

		It("reports algorithm failures as external errors", func() {
			alg.startErr = errors.New("connection refused")
			h := NewHarness(alg)
			Expect(h.Start(ctx, model, nil, 0)).To(MatchError(core.ErrExternalAlgorithm))
			Expect(h.State()).To(Equal(Uninitialized))
		})
	})

	Context("accumulation", func() {
		It("sums reported costs and attributes the rest to switching", func() {
			recorder := &countingRecorder{}
			input := zeroInput(3)
			result, err := Evaluate(ctx, alg, model, [][]float64{{0}}, input, 0, WithRecorder(recorder))
			Expect(err).NotTo(HaveOccurred())

			Expect(result.InitialIntegralCost).To(Equal(1200.0))
			Expect(result.IntegralCost).To(BeNumerically("~", 1200+1800+1200.5+600, 1e-9))
			Expect(result.InitialFractionalCost).To(Equal(600.0))
			Expect(result.FractionalCost).To(BeNumerically("~", 600+1200+1200.5+600, 1e-9))
			Expect(result.EnergyCost).To(BeNumerically("~", 3600, 1e-9))
			Expect(result.RevenueLoss).To(BeNumerically("~", 0.5, 1e-9))
			Expect(result.SwitchingCost()).To(BeNumerically("~", 1200, 1e-9))

			Expect(result.Steps()).To(Equal(len(input)))
			Expect(result.Trajectory).To(HaveLen(1 + len(input)))
			Expect(result.Trajectory).To(Equal([][]int{{1}, {2}, {2}, {1}}))
			Expect(result.ServerCounts).To(HaveLen(1 + len(input)))
			Expect(result.Runtimes).To(HaveEach(time.Millisecond))

			Expect(alg.slices).To(HaveLen(len(input)))
			Expect(alg.stops).To(Equal(1))
			Expect(recorder.steps).To(Equal(3))
			Expect(recorder.violations).To(BeZero())
		})

		It("treats a missing breakdown as deferred accounting", func() {
			alg.start.Integral.Cost.Breakdown = nil
			alg.steps[0].Integral.Cost = Cost{Total: 1800}
			// the next breakdown carries the deferred energy cost
			alg.steps[1].Integral.Cost.Breakdown = &core.Breakdown{EnergyCost: 600 + 1200 + 1200, RevenueLoss: 0.5}

			result, err := Evaluate(ctx, alg, model, nil, zeroInput(3), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.EnergyCost).To(BeNumerically("~", 3600, 1e-9))
			Expect(result.SwitchingCost()).To(BeNumerically("~", 1200, 1e-9))
		})
	})

	Context("cost invariant", func() {
		It("fails the run, keeps the history and still stops", func() {
			// integral cost below energy cost
			alg.steps[1].Integral.Cost.Total = 0
			recorder := &countingRecorder{}

			result, err := Evaluate(ctx, alg, model, nil, zeroInput(3), 0, WithRecorder(recorder))
			Expect(err).To(MatchError(core.ErrInvariantViolation))

			var violation *core.InvariantViolation
			Expect(errors.As(err, &violation)).To(BeTrue())
			Expect(violation.Slot).To(Equal(2))
			Expect(violation.Value).To(BeNumerically("~", 1200+1800, 1e-9))
			Expect(violation.Bound).To(BeNumerically("~", 600+1200+1200.5, 1e-9))

			Expect(result.Steps()).To(Equal(2))
			Expect(result.Trajectory).To(HaveLen(3))
			Expect(alg.nexts).To(Equal(2))
			Expect(alg.stops).To(Equal(1))
			Expect(recorder.violations).To(Equal(1))
		})

		It("checks the initial decision", func() {
			alg.start.Integral.Cost.Total = 1
			h := NewHarness(alg)
			err := h.Start(ctx, model, nil, 0)
			Expect(err).To(MatchError(core.ErrInvariantViolation))
			Expect(h.Err()).To(Equal(err))
			Expect(h.Next(ctx, nil)).To(MatchError(ErrInvalidState))
			Expect(h.Stop(ctx)).To(Succeed())
			Expect(alg.stops).To(Equal(1))
		})

		It("tolerates rounding", func() {
			alg.start.Integral.Cost.Total = 600 * (1 - 1e-12)
			alg.start.Integral.Cost.Breakdown = &core.Breakdown{EnergyCost: 600}
			h := NewHarness(alg)
			Expect(h.Start(ctx, model, nil, 0)).To(Succeed())
		})
	})

	Context("failures and cancellation", func() {
		It("stops the session when a step fails", func() {
			alg.steps = alg.steps[:1]
			alg.nextErr = errors.New("disconnected")
			result, err := Evaluate(ctx, alg, model, nil, zeroInput(3), 0)
			Expect(err).To(MatchError(core.ErrExternalAlgorithm))
			Expect(result.Steps()).To(Equal(1))
			Expect(alg.stops).To(Equal(1))
		})

		It("stops the session when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			alg.blockAt = 2
			alg.blocking = make(chan struct{})
			go func() {
				<-alg.blocking
				cancel()
			}()
			_, err := Evaluate(cctx, alg, model, nil, zeroInput(3), 0)
			Expect(err).To(MatchError(context.Canceled))
			Expect(alg.stops).To(Equal(1))
		})

		It("does not step when already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := Evaluate(cctx, alg, model, nil, zeroInput(3), 0)
			Expect(err).To(MatchError(context.Canceled))
			Expect(alg.nexts).To(BeZero())
			Expect(alg.stops).To(Equal(1))
		})
	})

	It("names its states", func() {
		Expect(Stepping.String()).To(Equal("Stepping"))
		Expect(State(9).String()).To(Equal("Unknown"))
	})
})
