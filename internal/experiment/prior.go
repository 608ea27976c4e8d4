package experiment

import (
	"fmt"

	"github.com/san-kum/sysid/internal/dynamo"
)

// Prior is a Gaussian parameter prior with diagonal covariance, built
// from a per-parameter variance vector. When configured on an estimator
// it turns the pure maximum-likelihood fit into a Bayes-like one.
type Prior struct {
	Mean     dynamo.Params
	Variance []float64
}

func NewPrior(mean dynamo.Params, variance []float64) (*Prior, error) {
	if len(mean) != len(variance) {
		return nil, fmt.Errorf("%w: prior mean has %d entries, variance has %d",
			dynamo.ErrConfig, len(mean), len(variance))
	}
	for i, v := range variance {
		if v <= 0 {
			return nil, fmt.Errorf("%w: prior variance[%d] = %g must be positive",
				dynamo.ErrConfig, i, v)
		}
	}
	return &Prior{Mean: mean.Clone(), Variance: append([]float64(nil), variance...)}, nil
}
