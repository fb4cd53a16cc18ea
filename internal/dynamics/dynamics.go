// Package dynamics implements the deterministic part of one generation:
// reproduction under facultative sex followed by mitotic gene conversion.
//
// Both operators are pure functions of a genotype frequency vector and
// preserve its sum.
package dynamics

import (
	"github.com/facsexne/facsexne/internal/genotype"
)

// Reproduce applies one round of reproduction in which a fraction sex of
// individuals mate at random and the rest reproduce clonally.
//
// With a and b the ancestral and derived allele frequencies, the sexual
// share contributes Hardy-Weinberg proportions (a², 2ab, b²) and the clonal
// share carries each genotype forward unchanged.
func Reproduce(f genotype.Frequencies, sex float64) genotype.Frequencies {
	a := f.Ancestral()
	b := f.Derived()
	asex := 1 - sex

	return genotype.Frequencies{
		sex*a*a + asex*f[genotype.Ancestral],
		sex*2*a*b + asex*f[genotype.Heterozygous],
		sex*b*b + asex*f[genotype.Derived],
	}
}

// Convert applies unbiased mitotic gene conversion: a fraction gc of
// heterozygotes become homozygous, half toward each allele.
func Convert(f genotype.Frequencies, gc float64) genotype.Frequencies {
	moved := f[genotype.Heterozygous] * gc / 2

	return genotype.Frequencies{
		f[genotype.Ancestral] + moved,
		f[genotype.Heterozygous] * (1 - gc),
		f[genotype.Derived] + moved,
	}
}

// Step applies Reproduce then Convert.
func Step(f genotype.Frequencies, sex, gc float64) genotype.Frequencies {
	return Convert(Reproduce(f, sex), gc)
}
