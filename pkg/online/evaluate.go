package online

import (
	"context"
	"errors"
	"time"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/llm-d-incubation/provisioning-eval/pkg/loads"
)

// Receives observations of a run
type Recorder interface {
	ObserveStep(runtime time.Duration)
	ObserveViolation()
}

type nopRecorder struct{}

func (nopRecorder) ObserveStep(time.Duration) {}
func (nopRecorder) ObserveViolation()         {}

// Run an algorithm over a whole online input: start on the offline segment,
// one step per arrival time, then stop. The session is stopped on every exit
// path, including cancellation of ctx. The result accumulated so far is
// returned alongside any error.
func Evaluate(ctx context.Context, alg Algorithm, model *core.DataCenterModel, offline [][]float64,
	input loads.OnlineInput, w int, opts ...HarnessOption) (result *Result, err error) {

	h := NewHarness(alg, opts...)
	defer func() {
		r := h.Result()
		result = &r
		if h.State() == Uninitialized {
			return
		}
		if stopErr := h.Stop(context.WithoutCancel(ctx)); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
		if err != nil {
			logger.Log.Errorw("online run failed", "steps", r.Steps(), "error", err)
		}
	}()

	if err := h.Start(ctx, model, offline, w); err != nil {
		return nil, err
	}
	for _, slice := range input {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := h.Next(ctx, slice); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
