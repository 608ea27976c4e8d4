package estimate

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
)

// cost is the weighted-residual criterion
//
//	J = 1/2 sum_i (z_i - y_i)' R^-1 (z_i - y_i)
//
// plus, when a prior is configured, 1/2 (p - mean)' Sigma^-1 (p - mean).
// R and Sigma are diagonal, so the solves are elementwise divisions.
func (e *Estimator) cost(r *mat.DiagDense, y *mat.Dense, p dynamo.Params) float64 {
	no, ns := e.exp.Z.Dims()

	j := 0.0
	for k := 0; k < no; k++ {
		w := 1.0 / r.At(k, k)
		for i := 0; i < ns; i++ {
			res := e.exp.Z.At(k, i) - y.At(k, i)
			j += res * res * w
		}
	}
	j *= 0.5

	if e.prior != nil {
		for idx := range p {
			d := p[idx] - e.prior.Mean[idx]
			j += 0.5 * d * d / e.prior.Variance[idx]
		}
	}

	return j
}
