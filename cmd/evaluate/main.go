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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/internal/metrics"
	"github.com/llm-d-incubation/provisioning-eval/pkg/manager"
	"github.com/llm-d-incubation/provisioning-eval/pkg/online"
	"github.com/llm-d-incubation/provisioning-eval/pkg/solver"
)

func main() {
	if _, err := logger.InitLogger(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		logger.Log.Errorw("evaluation failed", "error", err)
		logger.SyncLogger()
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "evaluate",
		Short:         "Evaluate capacity provisioning algorithms on data center load traces",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	registerFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "offline",
			Short: "Compare the fractional relaxation with the integral optimum",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, out, func(ctx context.Context, e *evaluation) (any, error) {
					report, err := e.manager.CompareRelaxation(ctx, e.cfg.relaxSteps)
					return checked(report, err)
				})
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Sweep the approximation ratio of the approximate graph search",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, out, func(ctx context.Context, e *evaluation) (any, error) {
					gammas, err := solver.Gammas(e.cfg.gammaFrom, e.cfg.gammaTo, e.cfg.gammaStep)
					if err != nil {
						return nil, err
					}
					report, err := e.manager.SweepApproximation(ctx, gammas)
					return checked(report, err)
				})
			},
		},
		&cobra.Command{
			Use:   "online",
			Short: "Run an online algorithm through the start, next and stop protocol",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, out, func(ctx context.Context, e *evaluation) (any, error) {
					alg, err := e.algorithm(ctx)
					if err != nil {
						return nil, err
					}
					result, err := e.manager.Online(ctx, alg, e.cfg.offlineSlots, e.cfg.window)
					if result != nil {
						return onlineReport{Result: result, SwitchingCost: result.SwitchingCost()}, err
					}
					return nil, err
				})
			},
		},
	)
	return root
}

// Output of an online run
type onlineReport struct {
	Result        *online.Result `json:"result"`
	SwitchingCost float64        `json:"switchingCost"`
}

// report violations as the error of an offline run
func checked(report *solver.Report, err error) (any, error) {
	if report == nil {
		return nil, err
	}
	if err != nil {
		return report, err
	}
	return report, report.Err()
}

// run loads the configuration, builds the evaluation, runs it and writes its
// report even when the run failed part way
func run(cmd *cobra.Command, out io.Writer, evaluate func(context.Context, *evaluation) (any, error)) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	emitter := metrics.InitMetricsAndEmitter(registry)

	e, err := newEvaluation(cfg, manager.WithOnlineRecorder(emitter), manager.WithSolverRecorder(emitter.SolverRecorder()))
	if err != nil {
		return err
	}
	report, runErr := evaluate(cmd.Context(), e)
	if report != nil {
		if err := writeJSON(out, report); err != nil {
			return err
		}
	}
	if cfg.metricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.metricsFile, registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return runErr
}

func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
