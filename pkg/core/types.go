package core

import (
	"fmt"
	"maps"
	"math"
)

// Key of the location and source synthesized for single location models
const DefaultKey = ""

// A type of server
type ServerType struct {
	Key            string
	MaxUtilization float64 // in (0,1]
}

// Server type with full utilization allowed
func NewServerType(key string) ServerType {
	return ServerType{Key: key, MaxUtilization: 1}
}

// Evaluate f if utilization s is allowed, infinity otherwise
func (k ServerType) LimitUtilization(s float64, f func() float64) float64 {
	if s <= k.MaxUtilization {
		return f()
	}
	return math.Inf(1)
}

func (k ServerType) String() string {
	return fmt.Sprintf("ServerType: key=%s; maxUtilization=%v", k.Key, k.MaxUtilization)
}

// A data center and the number of servers of each type it hosts
type Location struct {
	Key     string
	Servers map[string]int
}

func (j Location) clone() Location {
	return Location{Key: j.Key, Servers: maps.Clone(j.Servers)}
}

// Routing delay from a source to a location during time slot t
type RoutingFunc func(t int, location Location) float64

// A source of demand
type Source struct {
	Key string
	// locations with an explicitly known delay, nil if the routing function covers all
	Locations    []string
	RoutingDelay RoutingFunc
}

// Source with the same delay to every location
func NewConstantSource(key string, delay float64) Source {
	return Source{
		Key:          key,
		RoutingDelay: func(int, Location) float64 { return delay },
	}
}

// Source with a fixed delay per location
func NewCachedSource(key string, delays map[string]float64) Source {
	delays = maps.Clone(delays)
	locations := make([]string, 0, len(delays))
	for l := range delays {
		locations = append(locations, l)
	}
	return Source{
		Key:          key,
		Locations:    locations,
		RoutingDelay: func(_ int, l Location) float64 { return delays[l.Key] },
	}
}

func (s Source) RoutingDelayTo(t int, location Location) float64 {
	return s.RoutingDelay(t, location)
}

// A type of job
type JobType struct {
	Key                   string
	DefaultProcessingTime float64            // processing time on server types without an entry
	ProcessingTimes       map[string]float64 // processing time per server type
}

// Job type with the same processing time on every server type
func NewJobType(key string, processingTime float64) JobType {
	return JobType{Key: key, DefaultProcessingTime: processingTime}
}

// Job type with a processing time per server type
func NewCachedJobType(key string, processingTimes map[string]float64) JobType {
	return JobType{Key: key, ProcessingTimes: maps.Clone(processingTimes)}
}

func (i JobType) ProcessingTimeOn(k ServerType) float64 {
	if eta, ok := i.ProcessingTimes[k.Key]; ok {
		return eta
	}
	return i.DefaultProcessingTime
}

func (i JobType) clone() JobType {
	i.ProcessingTimes = maps.Clone(i.ProcessingTimes)
	return i
}
