// Package genotype models the genotype state of a diploid population at a
// single neutral biallelic locus.
//
// The state is a frequency vector over three classes: homozygous ancestral,
// heterozygous and homozygous derived. Every operator that touches a vector
// preserves its sum of one to within floating-point tolerance.
package genotype

import (
	"errors"
	"fmt"
	"math"
)

// ErrPopulationSize is returned when a population has fewer than one individual.
var ErrPopulationSize = errors.New("population size must be at least 1")

// Class indexes the three genotype classes.
type Class int

const (
	// Ancestral is the homozygous ancestral class.
	Ancestral Class = iota
	// Heterozygous carries one copy of each allele.
	Heterozygous
	// Derived is the homozygous derived class.
	Derived
)

// NumClasses is the number of genotype classes.
const NumClasses = 3

// Frequencies holds the fraction of the population in each genotype class,
// indexed by Class.
type Frequencies [NumClasses]float64

// Outcome is the absorbing state reached by the derived allele.
type Outcome string

const (
	// Segregating means the derived allele is still polymorphic.
	Segregating Outcome = "segregating"
	// Lost means the derived allele frequency reached 0.
	Lost Outcome = "lost"
	// Fixed means the derived allele frequency reached 1.
	Fixed Outcome = "fixed"
)

// NewPolymorphic returns the state of a population of n diploids that has
// just received a single heterozygous carrier of a new derived allele:
// p0 = 1 - 1/n, p1 = 1/n, p2 = 0.
//
// n = 1 is accepted and yields (0, 1, 0): the only individual is the carrier.
func NewPolymorphic(n int) (Frequencies, error) {
	if n < 1 {
		return Frequencies{}, fmt.Errorf("%w, got %d", ErrPopulationSize, n)
	}
	inv := 1 / float64(n)
	return Frequencies{1 - inv, inv, 0}, nil
}

// FromCounts converts integer class counts to frequencies.
func FromCounts(counts [NumClasses]int) Frequencies {
	total := 0
	for _, c := range counts {
		total += c
	}
	var f Frequencies
	if total == 0 {
		return f
	}
	for i, c := range counts {
		f[i] = float64(c) / float64(total)
	}
	return f
}

// Derived returns the frequency of the derived allele, p2 + p1/2.
func (f Frequencies) Derived() float64 {
	return f[Derived] + f[Heterozygous]/2
}

// Ancestral returns the frequency of the ancestral allele, p0 + p1/2.
func (f Frequencies) Ancestral() float64 {
	return f[Ancestral] + f[Heterozygous]/2
}

// Heterozygosity returns A(1-A) for the derived allele frequency A.
func (f Frequencies) Heterozygosity() float64 {
	a := f.Derived()
	return a * (1 - a)
}

// Sum returns p0 + p1 + p2.
func (f Frequencies) Sum() float64 {
	return f[Ancestral] + f[Heterozygous] + f[Derived]
}

// Valid reports whether every class is non-negative and the vector sums
// to one within tol.
func (f Frequencies) Valid(tol float64) bool {
	for _, p := range f {
		if math.IsNaN(p) || p < -tol {
			return false
		}
	}
	return math.Abs(f.Sum()-1) <= tol
}

// Outcome reports whether the derived allele is lost, fixed or still
// segregating. Absorption is tested with exact equality: sampled vectors
// are ratios of integers over n, so 0 and 1 are reached exactly.
func (f Frequencies) Outcome() Outcome {
	switch a := f.Derived(); {
	case a == 0:
		return Lost
	case a == 1:
		return Fixed
	default:
		return Segregating
	}
}

// Absorbed reports whether the derived allele has been lost or fixed.
func (f Frequencies) Absorbed() bool {
	return f.Outcome() != Segregating
}

// String implements fmt.Stringer.
func (f Frequencies) String() string {
	return fmt.Sprintf("(%.6g, %.6g, %.6g)", f[Ancestral], f[Heterozygous], f[Derived])
}
