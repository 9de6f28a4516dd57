package traces

import (
	"fmt"
	"strings"

	"github.com/llm-d-incubation/provisioning-eval/pkg/core"
)

// A historical trace with a known server fleet and job mix
type Trace int

const (
	Facebook2009_0 Trace = iota
	Facebook2009_1
	Facebook2010
	LosAlamosMustang
	MicrosoftFiddle
	Alibaba
	numTraces
)

// tier of servers hosted for a trace
type tier struct {
	key         string
	count       int
	power       float64 // power draw relative to the baseline tier
	speedup     float64 // processing speed relative to the baseline tier
	switchScale float64 // multiplier of the normalized switching cost
}

// fleet and job mix of a trace
type profile struct {
	name         string
	pricePerHour float64  // energy price per hour
	tiers        []tier   // first tier is the baseline
	classes      []string // job classes, longest first
	longest      float64  // runtime of the longest class on the baseline tier (sec)
}

func baseline(key string, count int) tier {
	return tier{key: key, count: count, power: 1, speedup: 1, switchScale: 1}
}

// one profile per trace; the array length ties it to the enumeration
var profiles = [numTraces]profile{
	Facebook2009_0: {
		name:         "facebook-2009-0",
		pricePerHour: 0.3,
		tiers:        []tier{baseline("server", 600)},
		classes:      []string{"long", "medium", "short"},
		longest:      1200,
	},
	Facebook2009_1: {
		name:         "facebook-2009-1",
		pricePerHour: 0.3,
		tiers:        []tier{baseline("server", 600)},
		classes:      []string{"job"},
		longest:      300,
	},
	Facebook2010: {
		name:         "facebook-2010",
		pricePerHour: 0.3,
		tiers:        []tier{baseline("server", 3000)},
		classes:      []string{"very-long", "long", "medium", "short"},
		longest:      3600,
	},
	LosAlamosMustang: {
		name:         "los-alamos-mustang",
		pricePerHour: 0.25,
		tiers:        []tier{baseline("node", 1600)},
		classes:      []string{"very-long", "long", "medium", "short"},
		longest:      7200,
	},
	MicrosoftFiddle: {
		name:         "microsoft-fiddle",
		pricePerHour: 0.35,
		tiers: []tier{
			baseline("gpu-1080ti", 400),
			{key: "gpu-p100", count: 150, power: 1.7, speedup: 2.5, switchScale: 2},
		},
		classes: []string{"very-long", "long", "medium", "short"},
		longest: 3600,
	},
	Alibaba: {
		name:         "alibaba",
		pricePerHour: 0.35,
		tiers: []tier{
			baseline("gpu-t4", 500),
			{key: "gpu-v100", count: 200, power: 1.4, speedup: 2, switchScale: 1.5},
		},
		classes: []string{"long", "medium", "short"},
		longest: 1800,
	},
}

// All supported traces
func All() []Trace {
	all := make([]Trace, numTraces)
	for i := range all {
		all[i] = Trace(i)
	}
	return all
}

func (t Trace) valid() bool {
	return t >= 0 && t < numTraces
}

func (t Trace) String() string {
	if !t.valid() {
		return "unknown"
	}
	return profiles[t].name
}

// Trace with the given name
func ParseTrace(name string) (Trace, error) {
	for _, t := range All() {
		if strings.EqualFold(profiles[t].name, name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown trace %q", core.ErrConfiguration, name)
}

// Number of servers per server type hosted for the trace
func (t Trace) Capacities() map[string]int {
	capacities := map[string]int{}
	if t.valid() {
		for _, tr := range profiles[t].tiers {
			capacities[tr.key] = tr.count
		}
	}
	return capacities
}

// Job classes of the trace, longest first
func (t Trace) JobTypes() []string {
	if !t.valid() {
		return nil
	}
	return append([]string(nil), profiles[t].classes...)
}
