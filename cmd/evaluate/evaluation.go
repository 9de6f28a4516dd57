/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"fmt"
	"time"

	"k8s.io/utils/ptr"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/algorithms"
	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
	"github.com/llm-d-incubation/provisioning-eval/pkg/loads"
	"github.com/llm-d-incubation/provisioning-eval/pkg/manager"
	"github.com/llm-d-incubation/provisioning-eval/pkg/online"
	"github.com/llm-d-incubation/provisioning-eval/pkg/rest"
	"github.com/llm-d-incubation/provisioning-eval/pkg/traces"
)

// Time allowed for a remote algorithm server to come up
const (
	readyInterval = 500 * time.Millisecond
	readyTimeout  = 30 * time.Second
)

// Model, loads and manager of one run
type evaluation struct {
	cfg     *evalConfig
	spec    *config.ModelSpec
	model   *core.DataCenterModel
	manager *manager.Manager
}

func traceNames() []string {
	names := make([]string, 0, len(traces.All()))
	for _, t := range traces.All() {
		names = append(names, t.String())
	}
	return names
}

func newEvaluation(cfg *evalConfig, opts ...manager.Option) (*evaluation, error) {
	e := &evaluation{cfg: cfg}

	var trace traces.Trace
	if cfg.trace != "" {
		var err error
		if trace, err = traces.ParseTrace(cfg.trace); err != nil {
			return nil, err
		}
	}
	if err := e.buildModel(trace); err != nil {
		return nil, err
	}

	store := &loads.Store{Dir: cfg.dataDir, KalmanSamples: cfg.forecastSamples}
	var history *loads.Trace
	var err error
	if cfg.loadsPath != "" {
		history, err = loads.ParseLoadsFile(cfg.loadsPath)
	} else {
		history, err = store.Loads(trace)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read loads: %w", err)
	}
	if len(history.JobTypes) != e.model.E() {
		return nil, fmt.Errorf("%w: loads have %d job types, model expects %d",
			core.ErrConfiguration, len(history.JobTypes), e.model.E())
	}

	if cfg.predict {
		forecast, err := store.ForecastOrEstimate(trace, history.Loads)
		if err != nil {
			return nil, fmt.Errorf("failed to read forecast: %w", err)
		}
		opts = append(opts, manager.WithForecast(forecast))
	}
	e.manager = manager.NewManager(e.model, history.Loads, opts...)
	if cfg.day > 0 {
		if err := e.manager.SelectDay(cfg.day); err != nil {
			return nil, err
		}
	}
	logger.Log.Infow("evaluation ready", "slots", e.manager.Slots(), "dimensions", e.model.D(), "jobTypes", e.model.E())
	return e, nil
}

func (e *evaluation) buildModel(trace traces.Trace) error {
	var err error
	if e.cfg.modelPath != "" {
		if e.spec, err = core.LoadModelSpec(e.cfg.modelPath); err != nil {
			return err
		}
		e.model, err = core.FromSpec(e.spec)
		return err
	}

	params := traces.EnergyModelParams{
		Model: traces.LinearEnergy{PhiMin: e.cfg.phiMin, PhiMax: e.cfg.phiMax},
	}
	if e.cfg.energyCost > 0 {
		params.EnergyCost = ptr.To(e.cfg.energyCost)
	}
	e.model, err = traces.BuildModel(trace, params,
		traces.WithDelta(e.cfg.delta),
		traces.WithNormalizedSwitchingCost(e.cfg.switchingCostHours),
		traces.WithRevenueLoss(e.cfg.revenueLoss))
	return err
}

// Online algorithm of the run: a remote server, or the greedy strategy
func (e *evaluation) algorithm(ctx context.Context) (online.Algorithm, error) {
	var alg online.Algorithm
	if e.cfg.algorithmURL != "" {
		client := rest.NewClient(e.cfg.algorithmURL, e.spec)
		if err := client.WaitReady(ctx, readyInterval, readyTimeout); err != nil {
			return nil, fmt.Errorf("%w: algorithm server %s not ready: %w", core.ErrExternalAlgorithm, e.cfg.algorithmURL, err)
		}
		alg = client
	} else {
		alg = algorithms.NewGreedy()
	}
	if e.cfg.channel {
		alg = online.NewChannelAlgorithm(alg)
	}
	return alg, nil
}
