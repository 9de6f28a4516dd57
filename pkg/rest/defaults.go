package rest

/**
 * Environment variables
 */

// REST server env names
const RestHostEnvName = "EVAL_ALGORITHM_HOST"
const RestPortEnvName = "EVAL_ALGORITHM_PORT"

/**
 * Parameters
 */

const DefaultRestHost = "127.0.0.1"
const DefaultRestPort = "3449"

// API settings
const (
	StartVerb    = "start"
	SessionsPath = "sessions"
	NextVerb     = "next"
	StopVerb     = "stop"
	HealthVerb   = "healthz"
)

// length of generated session ids
const sessionIDLength = 12
