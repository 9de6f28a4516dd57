package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/llm-d-incubation/provisioning-eval/pkg/loads"
	"github.com/llm-d-incubation/provisioning-eval/pkg/online"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Online algorithm served by a remote AlgorithmServer. The model is sent as
// its declarative spec, which must describe the model passed to Start.
type Client struct {
	BaseURL    string
	Spec       *config.ModelSpec
	HTTPClient *http.Client
}

func NewClient(baseURL string, spec *config.ModelSpec) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Spec:       spec,
		HTTPClient: &http.Client{},
	}
}

type clientSession struct {
	client *Client
	id     string
}

// Wait until the server answers its health check
func (cl *Client) WaitReady(ctx context.Context, interval, timeout time.Duration) error {
	return wait.PollUntilContextTimeout(ctx, interval, timeout, true, func(ctx context.Context) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, cl.BaseURL+"/"+HealthVerb, nil)
		if err != nil {
			return false, err
		}
		res, err := cl.HTTPClient.Do(req)
		if err != nil {
			return false, nil
		}
		defer res.Body.Close()
		return res.StatusCode == http.StatusOK, nil
	})
}

func (cl *Client) Start(ctx context.Context, model *core.DataCenterModel, offline [][]float64, w int) (online.Session, online.StartResponse, error) {
	if cl.Spec == nil || model == nil {
		return nil, online.StartResponse{}, fmt.Errorf("%w: missing model spec", core.ErrConfiguration)
	}
	if err := cl.matches(model); err != nil {
		return nil, online.StartResponse{}, err
	}
	var reply StartReply
	req := StartRequest{Model: *cl.Spec, Offline: offline, Window: w}
	if err := cl.post(ctx, "/"+StartVerb, req, &reply); err != nil {
		return nil, online.StartResponse{}, err
	}
	return &clientSession{client: cl, id: reply.SessionID}, reply.Response, nil
}

// the spec sent to the server must describe the model the harness checks costs on
func (cl *Client) matches(model *core.DataCenterModel) error {
	remote, err := core.FromSpec(cl.Spec)
	if err != nil {
		return err
	}
	if remote.D() != model.D() || remote.E() != model.E() || remote.Delta() != model.Delta() ||
		!slices.Equal(remote.Bounds(), model.Bounds()) {
		return fmt.Errorf("%w: model spec does not describe the evaluated model: spec has %d dimensions, %d job types, "+
			"bounds %v and slot length %v, model has %d, %d, %v and %v", core.ErrConfiguration,
			remote.D(), remote.E(), remote.Bounds(), remote.Delta(), model.D(), model.E(), model.Bounds(), model.Delta())
	}
	return nil
}

func (s *clientSession) Next(ctx context.Context, slice loads.OnlineSlice) (online.StepResponse, error) {
	var resp online.StepResponse
	err := s.client.post(ctx, s.path(NextVerb), NextRequest{Slice: slice}, &resp)
	return resp, err
}

func (s *clientSession) Stop(ctx context.Context) error {
	return s.client.post(ctx, s.path(StopVerb), struct{}{}, nil)
}

func (s *clientSession) path(verb string) string {
	return "/" + SessionsPath + "/" + s.id + "/" + verb
}

// send a POST to the REST server and decode its reply
func (cl *Client) post(ctx context.Context, path string, body any, reply any) error {
	byteValue, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.BaseURL+path, bytes.NewBuffer(byteValue))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	res, err := cl.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrExternalAlgorithm, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		var e ErrorReply
		_ = json.NewDecoder(res.Body).Decode(&e)
		return fmt.Errorf("%w: %s %s: %s: %s", core.ErrExternalAlgorithm, http.MethodPost, path, res.Status, e.Message)
	}
	if reply == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(reply); err != nil {
		return fmt.Errorf("%w: decoding reply to %s: %w", core.ErrExternalAlgorithm, path, err)
	}
	return nil
}
