// Package constants provides centralized constant definitions for the evaluation toolkit.
package constants

// Online Harness Metrics
// These metric names are used to emit the progress of online evaluation runs to Prometheus.
const (
	// OnlineStepsTotal is a counter that tracks the total number of online steps taken.
	OnlineStepsTotal = "provisioning_eval_online_steps_total"

	// OnlineStepRuntimeSeconds is a histogram of the runtime reported by the algorithm for each step.
	OnlineStepRuntimeSeconds = "provisioning_eval_online_step_runtime_seconds"

	// OnlineViolationsTotal is a counter that tracks the online steps whose integral cost
	// fell below the sum of energy cost and revenue loss.
	OnlineViolationsTotal = "provisioning_eval_online_violations_total"
)

// Offline Harness Metrics
// These metric names are used to emit the outcome of offline solver runs to Prometheus.
const (
	// SolverRunsTotal is a counter that tracks the total number of solver runs.
	// Labels: solver
	SolverRunsTotal = "provisioning_eval_solver_runs_total"

	// SolverCost is a gauge that tracks the cost of the last schedule found by a solver.
	// Labels: solver
	SolverCost = "provisioning_eval_solver_cost"

	// SolverRuntimeSeconds is a histogram of solver runtimes.
	// Labels: solver
	SolverRuntimeSeconds = "provisioning_eval_solver_runtime_seconds"

	// SolverViolationsTotal is a counter that tracks violated cost orderings between solvers.
	// Labels: solver
	SolverViolationsTotal = "provisioning_eval_solver_violations_total"
)

// Metric Label Names
const (
	LabelSolver = "solver"
)
