package config

/**
 * Parameters
 */

// default time slot length (sec)
const DefaultDelta float64 = 600

// default weight of revenue loss in the objective
const DefaultGamma float64 = 1

// default switching cost in hours of idle energy
const DefaultNormalizedSwitchingCostHours float64 = 1.0

// default revenue loss per unit of delay beyond the detection threshold
const DefaultRevenueLoss float64 = 0.1

// default maximum utilization of a server
const DefaultMaxUtilization float64 = 1

// seconds in an hour and in a day
const SecondsPerHour float64 = 3600
const SecondsPerDay int = 86400

// number of all-zero time slots appended to a prediction horizon
var PredictionPadding = 24

// ratio between the runtimes of consecutive job classes
var RuntimeLadderRatio = 2.5

// relative tolerance when comparing costs
var CostTolerance = 1e-9

// default energy consumption and energy cost models
const DefaultConsumptionModel = LinearConsumption
const DefaultEnergyCostModel = LinearEnergyCost
