package dynamo

import "errors"

// Domain errors for simulation and estimation.
var (
	// ErrConfig indicates inconsistent experiment or estimator configuration.
	ErrConfig = errors.New("sysid: invalid configuration")

	// ErrUsage indicates a call that the current configuration cannot serve,
	// such as requesting analytic sensitivities without Jacobians.
	ErrUsage = errors.New("sysid: invalid usage")

	// ErrInvalidState indicates a state vector with NaN or Inf components.
	ErrInvalidState = errors.New("sysid: invalid state (NaN or Inf detected)")

	// ErrDiverged indicates the parameter estimate became non-finite.
	ErrDiverged = errors.New("sysid: estimation diverged (non-finite parameters)")

	// ErrStepTooSmall indicates the adaptive timestep fell below its minimum.
	ErrStepTooSmall = errors.New("sysid: adaptive timestep below minimum")
)
