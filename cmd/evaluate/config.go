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
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/llm-d-incubation/provisioning-eval/pkg/config"
)

// envPrefix prefixes the environment variables of every setting, e.g. EVAL_TRACE.
const envPrefix = "EVAL"

// flagBindings maps viper keys to pflag names.
var flagBindings = map[string]string{
	"MODEL":                "model",
	"TRACE":                "trace",
	"DATA_DIR":             "data-dir",
	"LOADS":                "loads",
	"PHI_MIN":              "phi-min",
	"PHI_MAX":              "phi-max",
	"ENERGY_COST":          "energy-cost",
	"DELTA":                "delta",
	"SWITCHING_COST_HOURS": "switching-cost-hours",
	"REVENUE_LOSS":         "revenue-loss",
	"DAY":                  "day",
	"RELAX_STEPS":          "relax-steps",
	"GAMMA_FROM":           "gamma-from",
	"GAMMA_TO":             "gamma-to",
	"GAMMA_STEP":           "gamma-step",
	"OFFLINE_SLOTS":        "offline-slots",
	"WINDOW":               "window",
	"PREDICT":              "predict",
	"FORECAST_SAMPLES":     "forecast-samples",
	"ALGORITHM_URL":        "algorithm-url",
	"CHANNEL":              "channel",
	"METRICS_FILE":         "metrics-file",
}

// Resolved settings of an evaluation run
type evalConfig struct {
	modelPath string
	trace     string
	dataDir   string
	loadsPath string

	phiMin             float64
	phiMax             float64
	energyCost         float64 // 0 keeps the hourly price of the trace
	delta              float64
	switchingCostHours float64
	revenueLoss        float64

	day          int // 0 evaluates the whole trace
	relaxSteps   int
	gammaFrom    float64
	gammaTo      float64
	gammaStep    float64
	offlineSlots int
	window       int

	predict         bool
	forecastSamples int
	algorithmURL    string
	channel         bool
	metricsFile     string
}

// registerFlags declares the flags shared by all commands.
func registerFlags(fs *flag.FlagSet) {
	fs.String("config", "", "Configuration file (YAML) with settings keyed like the environment variables without prefix")
	fs.String("model", "", "Model spec file (YAML or JSON); overrides the trace model")
	fs.String("trace", "", "Trace name, one of "+strings.Join(traceNames(), ", "))
	fs.String("data-dir", "out/loads", "Directory with <trace>.csv loads and <trace>.forecast.json forecasts")
	fs.String("loads", "", "Loads CSV file; overrides the trace loads in the data directory")
	fs.Float64("phi-min", 0.5, "Idle power of the baseline server type")
	fs.Float64("phi-max", 1, "Peak power of the baseline server type")
	fs.Float64("energy-cost", 0, "Cost per unit of energy; 0 uses the hourly price of the trace")
	fs.Float64("delta", config.DefaultDelta, "Time slot length in seconds")
	fs.Float64("switching-cost-hours", config.DefaultNormalizedSwitchingCostHours, "Switching cost in hours of idle energy")
	fs.Float64("revenue-loss", config.DefaultRevenueLoss, "Revenue loss per unit of delay beyond the detection threshold")
	fs.Int("day", 0, "Evaluate only the n-th last day of the trace; 0 evaluates the whole trace")
	fs.Int("relax-steps", 2, "Refinement of the fractional grid of the relaxation")
	fs.Float64("gamma-from", 1.1, "First approximation ratio of the sweep")
	fs.Float64("gamma-to", 3.0, "Last approximation ratio of the sweep")
	fs.Float64("gamma-step", 0.1, "Step between approximation ratios of the sweep")
	fs.Int("offline-slots", 0, "Number of leading slots handed to the online algorithm at start")
	fs.Int("window", 0, "Prediction window of the online algorithm")
	fs.Bool("predict", false, "Feed online algorithms the forecast instead of perfect predictions; "+
		"the built-in greedy strategy only reads the current slot, so this matters for remote algorithms")
	fs.Int("forecast-samples", 0, "Samples of a Kalman forecast used when no forecast is stored; 0 disables it")
	fs.String("algorithm-url", "", "Base URL of a remote algorithm server; the local greedy strategy is used if empty")
	fs.Bool("channel", false, "Run the online algorithm behind a message-passing goroutine")
	fs.String("metrics-file", "", "Write Prometheus metrics of the run to this text file")
}

// loadConfig resolves settings with precedence: flags > env > config file > defaults.
func loadConfig(fs *flag.FlagSet) (*evalConfig, error) {
	v := viper.New()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// environment variables (precedence above config, below flags)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	// flag defaults double as viper defaults
	for viperKey, flagName := range flagBindings {
		if f := fs.Lookup(flagName); f != nil {
			if err := v.BindPFlag(viperKey, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", flagName, err)
			}
		}
	}

	cfg := &evalConfig{
		modelPath:          v.GetString("MODEL"),
		trace:              v.GetString("TRACE"),
		dataDir:            v.GetString("DATA_DIR"),
		loadsPath:          v.GetString("LOADS"),
		phiMin:             v.GetFloat64("PHI_MIN"),
		phiMax:             v.GetFloat64("PHI_MAX"),
		energyCost:         v.GetFloat64("ENERGY_COST"),
		delta:              v.GetFloat64("DELTA"),
		switchingCostHours: v.GetFloat64("SWITCHING_COST_HOURS"),
		revenueLoss:        v.GetFloat64("REVENUE_LOSS"),
		day:                v.GetInt("DAY"),
		relaxSteps:         v.GetInt("RELAX_STEPS"),
		gammaFrom:          v.GetFloat64("GAMMA_FROM"),
		gammaTo:            v.GetFloat64("GAMMA_TO"),
		gammaStep:          v.GetFloat64("GAMMA_STEP"),
		offlineSlots:       v.GetInt("OFFLINE_SLOTS"),
		window:             v.GetInt("WINDOW"),
		predict:            v.GetBool("PREDICT"),
		forecastSamples:    v.GetInt("FORECAST_SAMPLES"),
		algorithmURL:       v.GetString("ALGORITHM_URL"),
		channel:            v.GetBool("CHANNEL"),
		metricsFile:        v.GetString("METRICS_FILE"),
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *evalConfig) validate() error {
	if c.modelPath == "" && c.trace == "" {
		return fmt.Errorf("either a model spec or a trace is required")
	}
	if c.trace == "" && c.loadsPath == "" {
		return fmt.Errorf("a loads file is required without a trace")
	}
	if c.day < 0 {
		return fmt.Errorf("day must not be negative, got %d", c.day)
	}
	if c.algorithmURL != "" && c.modelPath == "" {
		return fmt.Errorf("a remote algorithm requires a model spec")
	}
	if c.predict && c.trace == "" {
		return fmt.Errorf("predictions require a trace")
	}
	return nil
}
