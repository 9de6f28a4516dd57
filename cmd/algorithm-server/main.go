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
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/llm-d-incubation/provisioning-eval/internal/logger"
	"github.com/llm-d-incubation/provisioning-eval/pkg/algorithms"
	"github.com/llm-d-incubation/provisioning-eval/pkg/online"
	"github.com/llm-d-incubation/provisioning-eval/pkg/rest"
)

// serve the greedy online strategy over REST
func main() {
	var (
		fractionalSteps int
		channel         bool
	)
	flag.IntVar(&fractionalSteps, "fractional-steps", 2, "Refinement of the grid of fractional decisions")
	flag.BoolVar(&channel, "channel", false, "Run every session behind a message-passing goroutine")
	flag.Parse()

	if _, err := logger.InitLogger(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.SyncLogger()

	greedy := algorithms.NewGreedy()
	greedy.FractionalSteps = fractionalSteps
	var alg online.Algorithm = greedy
	if channel {
		alg = online.NewChannelAlgorithm(alg)
	}

	logger.Log.Infow("starting algorithm server", "address", rest.Address(), "channel", channel)
	if err := rest.NewAlgorithmServer(alg).Run(); err != nil {
		logger.Log.Errorw("algorithm server failed", "error", err)
		logger.SyncLogger()
		os.Exit(1)
	}
}
