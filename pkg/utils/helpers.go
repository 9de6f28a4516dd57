package utils

import (
	"encoding/json"
	"math"

	"gopkg.in/yaml.v3"
)

// unmarshal a JSON byte array to its corresponding object
func FromDataToSpec[T any](byteValue []byte) (*T, error) {
	var d T
	if err := json.Unmarshal(byteValue, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// unmarshal a YAML byte array to its corresponding object
func FromYAMLToSpec[T any](byteValue []byte) (*T, error) {
	var d T
	if err := yaml.Unmarshal(byteValue, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// A variable x is relatively within a given tolerance from a value
func WithinTolerance(x, value, tolerance float64) bool {
	if x == value {
		return true
	}
	if tolerance < 0 {
		return false
	}
	if value == 0 {
		return math.Abs(x) <= tolerance
	}
	return math.Abs((x-value)/value) <= tolerance
}

// x is at least value, up to a relative tolerance
func AtLeast(x, value, tolerance float64) bool {
	return x >= value || WithinTolerance(x, value, tolerance)
}

// positive part of x
func Pos(x float64) float64 {
	return math.Max(x, 0)
}
