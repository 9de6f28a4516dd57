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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelYAML = `
delta: 600
serverTypes:
  - key: cpu
    consumption:
      model: linear
      phiMin: 1
      phiMax: 2
    switchingCost:
      normalizedHours: 1
      energyCost: 1
capacities:
  cpu: 3
energyCost:
  model: linear
  price: 1
jobTypes:
  - key: batch
    processingTime: 300
    revenueLoss:
      gamma: 0.1
      delta: 300
`

const loadsCSV = `batch
1
3
4
2
0
1
`

func writeInputs(t *testing.T) (model, trace string) {
	t.Helper()
	dir := t.TempDir()
	model = filepath.Join(dir, "model.yaml")
	trace = filepath.Join(dir, "loads.csv")
	require.NoError(t, os.WriteFile(model, []byte(modelYAML), 0o600))
	require.NoError(t, os.WriteFile(trace, []byte(loadsCSV), 0o600))
	return model, trace
}

func execute(t *testing.T, args ...string) (map[string]any, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	if out.Len() == 0 {
		return nil, err
	}
	var report map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	return report, err
}

func TestOffline(t *testing.T) {
	model, trace := writeInputs(t)
	metricsFile := filepath.Join(t.TempDir(), "eval.prom")

	report, err := execute(t, "offline", "--model", model, "--loads", trace, "--metrics-file", metricsFile)
	require.NoError(t, err)
	runs, ok := report["runs"].([]any)
	require.True(t, ok)
	assert.Len(t, runs, 2)
	assert.NotContains(t, report, "violations")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(prom), `provisioning_eval_solver_runs_total{solver="integral"} 1`))
}

func TestSweep(t *testing.T) {
	model, trace := writeInputs(t)

	report, err := execute(t, "sweep", "--model", model, "--loads", trace,
		"--gamma-from", "1.5", "--gamma-to", "2.5", "--gamma-step", "0.5")
	require.NoError(t, err)
	runs, ok := report["runs"].([]any)
	require.True(t, ok)
	assert.Len(t, runs, 4)
}

func TestOnline(t *testing.T) {
	model, trace := writeInputs(t)

	for _, channel := range []string{"false", "true"} {
		t.Run("channel="+channel, func(t *testing.T) {
			report, err := execute(t, "online", "--model", model, "--loads", trace,
				"--offline-slots", "2", "--channel="+channel)
			require.NoError(t, err)
			result, ok := report["result"].(map[string]any)
			require.True(t, ok)
			assert.Len(t, result["trajectory"], 1+4)
			assert.GreaterOrEqual(t, report["switchingCost"], 0.0)
		})
	}
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	model, trace := writeInputs(t)
	t.Setenv("EVAL_MODEL", model)
	t.Setenv("EVAL_LOADS", trace)
	t.Setenv("EVAL_OFFLINE_SLOTS", "5")

	report, err := execute(t, "online")
	require.NoError(t, err)
	result, ok := report["result"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, result["trajectory"], 1+1)

	// flags take precedence over the environment
	report, err = execute(t, "online", "--offline-slots", "3")
	require.NoError(t, err)
	result, ok = report["result"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, result["trajectory"], 1+3)
}

func TestInvalidConfig(t *testing.T) {
	model, trace := writeInputs(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no model", []string{"offline", "--loads", trace}},
		{"no loads", []string{"offline", "--model", model}},
		{"negative day", []string{"offline", "--model", model, "--loads", trace, "--day", "-1"}},
		{"unknown trace", []string{"offline", "--trace", "nosuchtrace"}},
		{"remote without spec", []string{"online", "--trace", "facebook-2009-0", "--algorithm-url", "http://127.0.0.1:1"}},
		{"too many offline slots", []string{"online", "--model", model, "--loads", trace, "--offline-slots", "7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
