package online

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ChannelAlgorithm", func() {
	var alg *scriptedAlgorithm

	BeforeEach(func() {
		alg = &scriptedAlgorithm{
			start: StartResponse(decision([]int{1}, 600, 0, 600)),
			steps: []StepResponse{
				decision([]int{2}, 1200, 0, 600),
				decision([]int{1}, 600, 0, 0),
			},
		}
	})

	It("gives the same result as the wrapped algorithm", func() {
		ctx := context.Background()
		direct, err := Evaluate(ctx, alg, testModel(), nil, zeroInput(2), 0)
		Expect(err).NotTo(HaveOccurred())

		alg.nexts, alg.stops = 0, 0
		viaChannel, err := Evaluate(ctx, NewChannelAlgorithm(alg), testModel(), nil, zeroInput(2), 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(viaChannel).To(Equal(direct))
		Expect(alg.stops).To(Equal(1))
	})

	It("passes start failures through", func() {
		alg.startErr = errors.New("no capacity")
		_, _, err := NewChannelAlgorithm(alg).Start(context.Background(), testModel(), nil, 0)
		Expect(err).To(MatchError("no capacity"))
	})

	It("refuses calls after stop", func() {
		ctx := context.Background()
		session, resp, err := NewChannelAlgorithm(alg).Start(ctx, testModel(), nil, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Integral.Config).To(Equal([]int{1}))

		step, err := session.Next(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(step.Integral.Config).To(Equal([]int{2}))

		Expect(session.Stop(ctx)).To(Succeed())
		_, err = session.Next(ctx, nil)
		Expect(err).To(MatchError(errSessionClosed))
		Expect(session.Stop(ctx)).To(MatchError(errSessionClosed))
		Expect(alg.stops).To(Equal(1))
	})
})
