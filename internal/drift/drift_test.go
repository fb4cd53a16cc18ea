package drift

import (
	"testing"

	"github.com/facsexne/facsexne/internal/constants"
	"github.com/facsexne/facsexne/internal/genotype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestCounts_SumToPopulationSize(t *testing.T) {
	m := NewMultinomial(NewSource(42))
	probs := []genotype.Frequencies{
		{0.99, 0.01, 0},
		{0.25, 0.5, 0.25},
		{1.0 / 3, 1.0 / 3, 1.0 / 3},
		{0, 1, 0},
		{0.1, 0.2, 0.7},
	}

	for _, f := range probs {
		for _, n := range []int{1, 2, 10, 50, 100, 1000, 100000} {
			counts := m.Counts(f, n)
			sum := 0
			for _, c := range counts {
				require.GreaterOrEqual(t, c, 0)
				sum += c
			}
			require.Equal(t, n, sum, "f=%v n=%d counts=%v", f, n, counts)

			next := m.Sample(f, n)
			assert.True(t, next.Valid(constants.FrequencyTolerance), "Sample(%v, %d) = %v", f, n, next)
		}
	}
}

func TestCounts_DegenerateProbabilities(t *testing.T) {
	m := NewMultinomial(NewSource(7))

	assert.Equal(t, [3]int{100, 0, 0}, m.Counts(genotype.Frequencies{1, 0, 0}, 100))
	assert.Equal(t, [3]int{0, 100, 0}, m.Counts(genotype.Frequencies{0, 1, 0}, 100))
	assert.Equal(t, [3]int{0, 0, 100}, m.Counts(genotype.Frequencies{0, 0, 1}, 100))
	assert.Equal(t, [3]int{}, m.Counts(genotype.Frequencies{0.5, 0.5, 0}, 0))
}

func TestSample_AbsorbingStatesAreExact(t *testing.T) {
	m := NewMultinomial(NewSource(1))

	lost := m.Sample(genotype.Frequencies{1, 0, 0}, 37)
	assert.Equal(t, genotype.Lost, lost.Outcome())

	fixed := m.Sample(genotype.Frequencies{0, 0, 1}, 37)
	assert.Equal(t, genotype.Fixed, fixed.Outcome())
}

func TestCounts_Moments(t *testing.T) {
	const (
		n     = 100
		draws = 5000
	)
	f := genotype.Frequencies{0.5, 0.3, 0.2}
	m := NewMultinomial(NewSource(2024))

	n0 := make([]float64, draws)
	n1 := make([]float64, draws)
	for i := 0; i < draws; i++ {
		c := m.Counts(f, n)
		n0[i] = float64(c[0])
		n1[i] = float64(c[1])
	}

	mean0, var0 := stat.MeanVariance(n0, nil)
	mean1, var1 := stat.MeanVariance(n1, nil)
	cov01 := stat.Covariance(n0, n1, nil)

	assert.InDelta(t, n*0.5, mean0, 0.6)
	assert.InDelta(t, n*0.3, mean1, 0.6)
	assert.InDelta(t, n*0.5*0.5, var0, 3)
	assert.InDelta(t, n*0.3*0.7, var1, 3)
	// multinomial classes are negatively correlated
	assert.InDelta(t, -n*0.5*0.3, cov01, 3)
}

func TestSample_Reproducible(t *testing.T) {
	f := genotype.Frequencies{0.6, 0.3, 0.1}
	a := NewMultinomial(NewSource(99))
	b := NewMultinomial(NewSource(99))

	for i := 0; i < 200; i++ {
		require.Equal(t, a.Counts(f, 500), b.Counts(f, 500))
	}
}
