package estimate

import "gonum.org/v1/gonum/mat"

// noiseFloor bounds the covariance diagonal away from zero so the
// weights 1/R_kk stay finite when a channel's residuals vanish on
// noiseless data.
const noiseFloor = 1e-12

// Covariance estimates the measurement-noise covariance from the
// residuals of a candidate output sequence. Only the diagonal is kept:
// measurement noise is assumed uncorrelated across output channels.
func Covariance(z, y *mat.Dense) *mat.DiagDense {
	no, ns := z.Dims()
	diag := make([]float64, no)

	for k := 0; k < no; k++ {
		sum := 0.0
		for i := 0; i < ns; i++ {
			r := z.At(k, i) - y.At(k, i)
			sum += r * r
		}
		diag[k] = sum / float64(ns)
		if diag[k] < noiseFloor {
			diag[k] = noiseFloor
		}
	}

	return mat.NewDiagDense(no, diag)
}
