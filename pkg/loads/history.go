package loads

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Historical load of a trace, one row per time slot and one column per job type
type Trace struct {
	JobTypes []string    `json:"jobTypes"`
	Loads    [][]float64 `json:"loads"`
}

// Number of time slots
func (tr *Trace) Len() int {
	return len(tr.Loads)
}

// Parse a CSV trace whose first row names the job types
func ParseLoads(r io.Reader) (*Trace, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty load trace")
	}
	if err != nil {
		return nil, fmt.Errorf("reading load trace header: %w", err)
	}
	trace := &Trace{JobTypes: make([]string, len(header))}
	for i, h := range header {
		trace.JobTypes[i] = strings.TrimSpace(h)
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading load trace: %w", err)
		}
		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, trace.JobTypes[i], err)
			}
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("line %d, column %q: invalid load %v", line, trace.JobTypes[i], v)
			}
			row[i] = v
		}
		trace.Loads = append(trace.Loads, row)
	}
	return trace, nil
}

func ParseLoadsFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	trace, err := ParseLoads(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trace, nil
}
