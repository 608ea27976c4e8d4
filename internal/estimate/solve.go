package estimate

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// pinvSolve computes the minimum-norm least-squares solution of a*x = b
// through an SVD pseudo-inverse. Singular directions below a relative
// threshold are dropped, so a rank-deficient information matrix (common
// in under-determined early iterations) still yields a usable step.
func pinvSolve(a mat.Matrix, b *mat.VecDense) (*mat.VecDense, error) {
	n := b.Len()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd factorization failed")
	}

	vals := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	tol := 0.0
	if len(vals) > 0 {
		tol = vals[0] * float64(n) * 1e-15
	}

	x := mat.NewVecDense(n, nil)
	for i, sv := range vals {
		if sv <= tol {
			continue
		}
		c := 0.0
		for r := 0; r < n; r++ {
			c += u.At(r, i) * b.AtVec(r)
		}
		c /= sv
		for r := 0; r < n; r++ {
			x.SetVec(r, x.AtVec(r)+c*v.At(r, i))
		}
	}

	return x, nil
}

// pinv returns the Moore-Penrose pseudo-inverse of a square matrix.
func pinv(a mat.Matrix) (*mat.Dense, error) {
	n, _ := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd factorization failed")
	}

	vals := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	tol := 0.0
	if len(vals) > 0 {
		tol = vals[0] * float64(n) * 1e-15
	}

	out := mat.NewDense(n, n, nil)
	for i, sv := range vals {
		if sv <= tol {
			continue
		}
		inv := 1.0 / sv
		for r := 0; r < n; r++ {
			vr := v.At(r, i) * inv
			for c := 0; c < n; c++ {
				out.Set(r, c, out.At(r, c)+vr*u.At(c, i))
			}
		}
	}

	return out, nil
}
