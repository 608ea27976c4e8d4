// Package dynamo defines the core vocabulary shared across the module:
// state, control, auxiliary-data and parameter vectors, the [Model]
// interface describing a parametric continuous-time system, and the
// [Integrator] contract used to advance the state between sample times.
//
// A model's dynamics and output map are required; analytic Jacobians are
// an optional capability discovered by type assertion:
//
//	if jac, ok := m.(dynamo.Jacobians); ok {
//	    fx := jac.StateJac(x, u, p, w)
//	}
package dynamo
