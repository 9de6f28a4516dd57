package config

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestConsumptionModel_String(t *testing.T) {
	tests := []struct {
		model ConsumptionModel
		want  string
	}{
		{LinearConsumption, "linear"},
		{SimplifiedLinearConsumption, "simplified-linear"},
		{NonLinearConsumption, "non-linear"},
		{UnknownConsumption, "unknown"},
		{ConsumptionModel(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.model.String(); got != tt.want {
				t.Errorf("ConsumptionModel.String() = %v, want %v", got, tt.want)
			}
			if tt.model < UnknownConsumption {
				if back := ConsumptionModelEnum(tt.want); back != tt.model {
					t.Errorf("ConsumptionModelEnum(%q) = %v, want %v", tt.want, back, tt.model)
				}
			}
		})
	}
}

func TestConsumptionModelEnum(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ConsumptionModel
	}{
		{"empty selects default", "", DefaultConsumptionModel},
		{"non-linear", "non-linear", NonLinearConsumption},
		{"case sensitive", "Linear", UnknownConsumption},
		{"garbage", "quadratic", UnknownConsumption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConsumptionModelEnum(tt.in); got != tt.want {
				t.Errorf("ConsumptionModelEnum(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEnergyCostModelEnum(t *testing.T) {
	tests := []struct {
		in   string
		want EnergyCostModel
	}{
		{"", LinearEnergyCost},
		{"linear", LinearEnergyCost},
		{"quotas", QuotasEnergyCost},
		{"spot", UnknownEnergyCost},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := EnergyCostModelEnum(tt.in)
			if got != tt.want {
				t.Errorf("EnergyCostModelEnum(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got != UnknownEnergyCost && tt.in != "" && got.String() != tt.in {
				t.Errorf("EnergyCostModel.String() = %v, want %v", got.String(), tt.in)
			}
		})
	}
}

const singleModelYAML = `
delta: 600
serverTypes:
  - key: cpu
    consumption:
      model: linear
      phiMin: 1
      phiMax: 1
    switchingCost:
      normalizedHours: 1
      energyCost: 1
capacities:
  cpu: 600
energyCost:
  model: linear
  price: 1
jobTypes:
  - key: batch
    processingTime: 300
    revenueLoss:
      gamma: 0.1
      delta: 375
`

func TestModelSpec_YAMLAndJSONAgree(t *testing.T) {
	var fromYAML ModelSpec
	if err := yaml.Unmarshal([]byte(singleModelYAML), &fromYAML); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if fromYAML.Delta != 600 || len(fromYAML.ServerTypes) != 1 || fromYAML.Capacities["cpu"] != 600 {
		t.Fatalf("unexpected spec from yaml: %+v", fromYAML)
	}
	if fromYAML.ServerTypes[0].SwitchingCost.NormalizedHours == nil {
		t.Fatal("normalizedHours not decoded")
	}
	if fromYAML.Gamma != nil {
		t.Errorf("gamma = %v, want nil", *fromYAML.Gamma)
	}

	data, err := json.Marshal(fromYAML)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var fromJSON ModelSpec
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if fromJSON.JobTypes[0].RevenueLoss != fromYAML.JobTypes[0].RevenueLoss {
		t.Errorf("revenue loss = %+v, want %+v", fromJSON.JobTypes[0].RevenueLoss, fromYAML.JobTypes[0].RevenueLoss)
	}
	if fromJSON.EnergyCost.Price != 1 {
		t.Errorf("energy cost price = %v, want 1", fromJSON.EnergyCost.Price)
	}
}
