package estimate_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
	"github.com/san-kum/sysid/internal/estimate"
	"github.com/san-kum/sysid/internal/experiment"
	"github.com/san-kum/sysid/internal/integrators"
	"github.com/san-kum/sysid/internal/models"
	"github.com/san-kum/sysid/internal/sim"
)

func TestEstimate(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Estimate Suite")
}

// newDecayFit builds a decay experiment with measurements generated at
// the given true parameters.
func newDecayFit(truth dynamo.Params) (*estimate.Estimator, *experiment.Experiment) {
	times := []float64{0, 0.5, 1, 1.5, 2}
	z := mat.NewDense(1, len(times), nil)
	exp, err := experiment.New(times, nil, z, nil, dynamo.State{1})
	Expect(err).NotTo(HaveOccurred())

	model := models.NewDecay()
	integ := integrators.NewRK45()

	truthSim := sim.New(model, integ, exp)
	y, err := truthSim.Outputs(truth)
	Expect(err).NotTo(HaveOccurred())
	exp.Z.Copy(y)

	est, err := estimate.New(model, integ, exp)
	Expect(err).NotTo(HaveOccurred())
	return est, exp
}

var _ = Describe("output-error estimation", func() {
	It("recovers the true parameter of a noiseless decay", func() {
		est, _ := newDecayFit(dynamo.Params{0.5})

		res, err := est.Run(context.Background(), dynamo.Params{0.9})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params[0]).To(BeNumerically("~", 0.5, 1e-3))
		Expect(res.Iterations).To(BeNumerically(">", 0))
	})

	It("reports a symmetric information matrix with an invertible core", func() {
		est, _ := newDecayFit(dynamo.Params{0.5})

		res, err := est.Run(context.Background(), dynamo.Params{0.7})
		Expect(err).NotTo(HaveOccurred())

		n := res.Fisher.SymmetricDim()
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				Expect(res.Fisher.At(i, j)).To(BeNumerically("~", res.Fisher.At(j, i), 1e-12))
			}
		}

		cov, err := res.Covariance()
		Expect(err).NotTo(HaveOccurred())
		Expect(cov.At(0, 0)).To(BeNumerically(">=", 0))
	})

	It("pulls the estimate toward a tight prior", func() {
		est, _ := newDecayFit(dynamo.Params{0.5})

		prior, err := experiment.NewPrior(dynamo.Params{0.6}, []float64{1e-8})
		Expect(err).NotTo(HaveOccurred())
		Expect(est.SetPrior(prior)).To(Succeed())

		res, err := est.Run(context.Background(), dynamo.Params{0.6})
		Expect(err).NotTo(HaveOccurred())

		// The prior dominates: the estimate stays near 0.6 instead of
		// drifting to the data's 0.5.
		Expect(res.Params[0]).To(BeNumerically("~", 0.6, 0.02))
	})

	It("rejects configuration mismatches before simulating", func() {
		times := []float64{0, 1}
		z := mat.NewDense(2, 2, nil) // two channels, decay has one
		exp, err := experiment.New(times, nil, z, nil, dynamo.State{1})
		Expect(err).NotTo(HaveOccurred())

		_, err = estimate.New(models.NewDecay(), integrators.NewRK45(), exp)
		Expect(err).To(MatchError(dynamo.ErrConfig))
	})

	It("emits progress with growing histories", func() {
		est, _ := newDecayFit(dynamo.Params{0.5})

		var traces []int
		est.SetObserver(estimate.ObserverFunc(func(p estimate.Progress) {
			traces = append(traces, len(p.CostTrace))
		}))

		_, err := est.Run(context.Background(), dynamo.Params{0.9})
		Expect(err).NotTo(HaveOccurred())
		Expect(traces).NotTo(BeEmpty())
		for i := 1; i < len(traces); i++ {
			Expect(traces[i]).To(BeNumerically(">=", traces[i-1]))
		}
		Expect(traces[len(traces)-1]).To(BeNumerically(">", 1))
	})
})
