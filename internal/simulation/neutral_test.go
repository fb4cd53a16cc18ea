package simulation_test

import (
	"testing"

	"github.com/facsexne/facsexne/internal/simulation"
	"github.com/facsexne/facsexne/internal/trial"
)

// Reproduction and gene conversion both preserve the derived allele
// frequency, and drift is unbiased, so a new allele fixes with probability
// equal to its starting frequency 1/(2N) whatever the mode of reproduction.
func TestNeutral_FixationProbability(t *testing.T) {
	cases := []struct {
		name string
		sex  float64
		gc   float64
	}{
		{"sexual", 1, 0},
		{"facultative", 0.3, 0.2},
		{"clonal-conversion", 0, 0.5},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := simulation.NewRunner(t)
			result := r.Run(simulation.Scenario{
				Name:   tc.name,
				Params: trial.Params{Population: 10, Sex: tc.sex, GeneConversion: tc.gc, Trials: 2000},
				Seed:   uint64(100 + i),
			})

			simulation.AssertRecordCount(t, result, 2000)
			// 0.05 expected; sd of the estimate is about 0.005
			simulation.AssertFixationRate(t, result, 0.05, 0.02)
		})
	}
}

// With full sex the genotype draw is a binomial draw of 2N genes, so
// E[A'(1-A')] = A(1-A)(1 - 1/2N) and the expected sum over the transit is
// H0 * 2N = 1 - 1/2N.
func TestNeutral_SexualHeterozygositySum(t *testing.T) {
	r := simulation.NewRunner(t)
	result := r.Run(simulation.Scenario{
		Name:   "sexual-sum",
		Params: trial.Params{Population: 20, Sex: 1, GeneConversion: 0, Trials: 4000},
		Seed:   2024,
	})

	simulation.AssertPositiveFinite(t, result)
	simulation.AssertMeanWithin(t, result, 0.975-0.15, 0.975+0.15)
}
