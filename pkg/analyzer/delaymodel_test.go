package analyzer

import (
	"math"
	"strings"
	"testing"
)

func TestProcessorSharingQueue_AverageDelay(t *testing.T) {
	tests := []struct {
		name  string
		delta float64
		l     float64
		want  float64
	}{
		{"idle server", 600, 0, 1.0 / 600},
		{"half loaded", 600, 300, 1.0 / 300},
		{"almost saturated", 10, 9, 1},
		{"saturated", 600, 600, math.Inf(1)},
		{"overloaded", 600, 700, math.Inf(1)},
		{"invalid slot", 0, 0, math.Inf(1)},
	}
	q := ProcessorSharingQueue{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := q.AverageDelay(tt.delta, tt.l)
			if math.IsInf(tt.want, 1) {
				if !math.IsInf(got, 1) {
					t.Errorf("AverageDelay() = %v, want +Inf", got)
				}
				return
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("AverageDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcessorSharingQueue_MonotoneInLoad(t *testing.T) {
	q := ProcessorSharingQueue{}
	prev := q.AverageDelay(100, 0)
	for l := 1.0; l < 100; l++ {
		d := q.AverageDelay(100, l)
		if d < prev {
			t.Fatalf("delay decreased from %v to %v at load %v", prev, d, l)
		}
		prev = d
	}
}

func TestSolve(t *testing.T) {
	tests := []struct {
		name      string
		delta     float64
		load      float64
		wantValid bool
		wantRho   float64
	}{
		{"valid", 600, 150, true, 0.25},
		{"negative load", 600, -1, false, 0},
		{"saturated", 600, 600, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Solve(ProcessorSharingQueue{}, tt.delta, tt.load)
			if d.IsValid() != tt.wantValid {
				t.Errorf("IsValid() = %v, want %v", d.IsValid(), tt.wantValid)
			}
			if d.GetRho() != tt.wantRho {
				t.Errorf("GetRho() = %v, want %v", d.GetRho(), tt.wantRho)
			}
			s := d.String()
			if !strings.Contains(s, "isValid=") {
				t.Errorf("String() = %q, missing validity", s)
			}
			if tt.wantValid && !strings.Contains(s, "D=") {
				t.Errorf("String() = %q, missing delay", s)
			}
		})
	}
}
