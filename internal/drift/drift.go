// Package drift implements genetic drift: finite-population resampling of
// genotype frequencies by multinomial sampling.
package drift

import (
	"math/rand/v2"

	"github.com/facsexne/facsexne/internal/genotype"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws the next generation of a population of n individuals from
// the given genotype probabilities.
type Sampler interface {
	Sample(f genotype.Frequencies, n int) genotype.Frequencies
}

// Multinomial samples genotype counts from a multinomial distribution.
//
// Counts are drawn class by class, each as a binomial of the individuals not
// yet assigned with probability renormalised over the remaining mass. This
// conditional decomposition is an exact multinomial draw, so the counts
// always sum to n and carry the multinomial covariance.
type Multinomial struct {
	src rand.Source
}

// NewMultinomial returns a sampler consuming src.
func NewMultinomial(src rand.Source) *Multinomial {
	return &Multinomial{src: src}
}

// Counts draws (n0, n1, n2) with n0 + n1 + n2 = n.
func (m *Multinomial) Counts(f genotype.Frequencies, n int) [genotype.NumClasses]int {
	var counts [genotype.NumClasses]int
	if n <= 0 {
		return counts
	}

	mass := f.Sum()
	remaining := n
	for i := 0; i < genotype.NumClasses-1 && remaining > 0; i++ {
		p := 0.0
		if mass > 0 {
			p = f[i] / mass
		}
		counts[i] = m.binomial(remaining, p)
		remaining -= counts[i]
		mass -= f[i]
	}
	counts[genotype.NumClasses-1] = remaining

	return counts
}

// Sample draws counts and returns them as frequencies over n.
func (m *Multinomial) Sample(f genotype.Frequencies, n int) genotype.Frequencies {
	counts := m.Counts(f, n)

	var next genotype.Frequencies
	for i, c := range counts {
		next[i] = float64(c) / float64(n)
	}
	return next
}

func (m *Multinomial) binomial(trials int, p float64) int {
	switch {
	case p <= 0:
		return 0
	case p >= 1:
		return trials
	}

	b := distuv.Binomial{N: float64(trials), P: p, Src: m.src}
	k := int(b.Rand())
	if k > trials {
		k = trials
	}
	return k
}
