package estimate

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
)

// Reason records why the estimation loop terminated.
type Reason int

const (
	// ReasonConverged means both outer-loop convergence tests passed.
	ReasonConverged Reason = iota
	// ReasonStalled means the line search failed to improve the cost ten
	// times in a row. The estimate is returned as a likely solution, but
	// callers can tell this apart from genuine convergence.
	ReasonStalled
	// ReasonInnerCap means an inner loop exhausted its iteration budget.
	ReasonInnerCap
	// ReasonOuterCap means the outer loop exhausted its iteration budget.
	ReasonOuterCap
)

func (r Reason) String() string {
	switch r {
	case ReasonConverged:
		return "converged"
	case ReasonStalled:
		return "stalled"
	case ReasonInnerCap:
		return "inner iteration cap"
	case ReasonOuterCap:
		return "outer iteration cap"
	default:
		return "unknown"
	}
}

// WarningKind classifies non-fatal conditions surfaced on a Result.
type WarningKind string

const (
	WarnInnerCap WarningKind = "inner-iteration-cap"
	WarnOuterCap WarningKind = "outer-iteration-cap"
)

type Warning struct {
	Kind    WarningKind
	Message string
}

// Result is the outcome of one estimation run.
type Result struct {
	// Params is the final parameter estimate.
	Params dynamo.Params
	// Fisher is the information matrix at the final estimate, recomputed
	// with finite-difference sensitivities regardless of the mode used
	// during iteration. Its pseudo-inverse approximates the parameter
	// covariance.
	Fisher *mat.SymDense
	// Noise is the final diagonal measurement-noise covariance.
	Noise *mat.DiagDense
	// Cost is the cost history, one entry per recorded iterate.
	Cost []float64
	// ParamHistory holds every recorded iterate, the initial guess first.
	ParamHistory []dynamo.Params
	// Iterations counts accepted inner iterations across all outer passes.
	Iterations int
	Reason     Reason
	Warnings   []Warning
}

// Covariance approximates the parameter covariance as the pseudo-inverse
// of the Fisher information matrix.
func (r *Result) Covariance() (*mat.Dense, error) {
	return pinv(r.Fisher)
}
