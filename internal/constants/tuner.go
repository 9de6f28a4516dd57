package constants

// Default Kalman filter parameters of the load forecaster
const (
	// expected relative change of the load between slots
	DefaultPercentChange = 0.2
	// relative error of an observed load
	DefaultObservationError = 0.1
	DefaultMinVariance      = 1.0
	DefaultMaxLoad          = 1e12

	// seed of the sampler drawing forecast samples
	DefaultForecastSeed uint64 = 42
)
