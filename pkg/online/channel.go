package online

import (
	"context"
	"errors"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/llm-d-incubation/provisioning-eval/pkg/loads"
)

var errSessionClosed = errors.New("session closed")

// Runs an algorithm in its own goroutine, each session talking to it by
// message passing
type ChannelAlgorithm struct {
	alg Algorithm
}

func NewChannelAlgorithm(alg Algorithm) *ChannelAlgorithm {
	return &ChannelAlgorithm{alg: alg}
}

type startReply struct {
	resp StartResponse
	err  error
}

type stepRequest struct {
	ctx   context.Context
	slice loads.OnlineSlice
	stop  bool
	reply chan stepReply
}

type stepReply struct {
	resp StepResponse
	err  error
}

type channelSession struct {
	requests chan stepRequest
	done     chan struct{}
}

func (c *ChannelAlgorithm) Start(ctx context.Context, model *core.DataCenterModel, offline [][]float64, w int) (Session, StartResponse, error) {
	s := &channelSession{
		requests: make(chan stepRequest),
		done:     make(chan struct{}),
	}
	started := make(chan startReply, 1)
	go s.serve(ctx, c.alg, model, offline, w, started)

	select {
	case r := <-started:
		if r.err != nil {
			return nil, StartResponse{}, r.err
		}
		return s, r.resp, nil
	case <-ctx.Done():
		// release the session once it is up, nobody else will
		go func() {
			if r := <-started; r.err == nil {
				close(s.requests)
			}
		}()
		return nil, StartResponse{}, ctx.Err()
	}
}

// owns the wrapped session until it is stopped
func (s *channelSession) serve(ctx context.Context, alg Algorithm, model *core.DataCenterModel, offline [][]float64, w int,
	started chan<- startReply) {

	defer close(s.done)
	inner, resp, err := alg.Start(ctx, model, offline, w)
	started <- startReply{resp: resp, err: err}
	if err != nil {
		return
	}
	for req := range s.requests {
		if req.stop {
			req.reply <- stepReply{err: inner.Stop(req.ctx)}
			return
		}
		resp, err := inner.Next(req.ctx, req.slice)
		req.reply <- stepReply{resp: resp, err: err}
	}
	if err := inner.Stop(context.Background()); err != nil {
		logger.Log.Errorw("stopping abandoned session", "error", err)
	}
}

func (s *channelSession) call(ctx context.Context, req stepRequest) (StepResponse, error) {
	req.ctx = ctx
	req.reply = make(chan stepReply, 1)
	select {
	case s.requests <- req:
	case <-s.done:
		return StepResponse{}, errSessionClosed
	case <-ctx.Done():
		return StepResponse{}, ctx.Err()
	}
	select {
	case r := <-req.reply:
		return r.resp, r.err
	case <-ctx.Done():
		return StepResponse{}, ctx.Err()
	}
}

func (s *channelSession) Next(ctx context.Context, slice loads.OnlineSlice) (StepResponse, error) {
	return s.call(ctx, stepRequest{slice: slice})
}

func (s *channelSession) Stop(ctx context.Context) error {
	_, err := s.call(ctx, stepRequest{stop: true})
	return err
}
