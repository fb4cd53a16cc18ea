package trial

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid simulation parameters")

// Params are the fixed inputs of a run.
type Params struct {
	// Population is the number of diploid individuals, N.
	Population int `json:"population" yaml:"population"`

	// Sex is the fraction of reproduction that is sexual, in [0, 1].
	Sex float64 `json:"sex" yaml:"sex"`

	// GeneConversion is the per-generation probability that a heterozygote
	// undergoes mitotic gene conversion, in [0, 1].
	GeneConversion float64 `json:"gene_conversion" yaml:"gene_conversion"`

	// Trials is the number of times the neutral allele is introduced.
	Trials int `json:"trials" yaml:"trials"`
}

// Validate checks that every parameter is in range.
func (p Params) Validate() error {
	if p.Population < 1 {
		return fmt.Errorf("%w: population size must be at least 1, got %d", ErrInvalidParams, p.Population)
	}
	if !inUnitInterval(p.Sex) {
		return fmt.Errorf("%w: sex frequency must be between 0 and 1, got %v", ErrInvalidParams, p.Sex)
	}
	if !inUnitInterval(p.GeneConversion) {
		return fmt.Errorf("%w: gene conversion rate must be between 0 and 1, got %v", ErrInvalidParams, p.GeneConversion)
	}
	if p.Trials < 0 {
		return fmt.Errorf("%w: number of trials must be non-negative, got %d", ErrInvalidParams, p.Trials)
	}
	return nil
}

// HasClonalTrap reports whether the parameters allow a population made
// entirely of heterozygotes to persist forever. Without sex or gene
// conversion nothing can break up the all-heterozygote state, so a trial
// that reaches it never absorbs.
func (p Params) HasClonalTrap() bool {
	return p.Sex == 0 && p.GeneConversion == 0
}

func inUnitInterval(x float64) bool {
	return !math.IsNaN(x) && x >= 0 && x <= 1
}
