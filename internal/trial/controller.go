// Package trial runs the absorption loop: a new neutral allele is introduced
// as a single heterozygous copy, the population is advanced generation by
// generation until the allele is lost or fixed, and the heterozygosity
// summed over its transit is reported.
package trial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/facsexne/facsexne/internal/drift"
	"github.com/facsexne/facsexne/internal/dynamics"
	"github.com/facsexne/facsexne/internal/genotype"
	"github.com/facsexne/facsexne/internal/logging"
)

// ErrGenerationLimit is returned when a trial exceeds the configured
// generation ceiling without absorbing.
var ErrGenerationLimit = errors.New("generation limit reached before absorption")

// cancelCheckInterval is how many generations pass between context checks
// inside a single trial.
const cancelCheckInterval = 1 << 12

// Result is the record of one completed trial.
type Result struct {
	// Trial is the zero-based index of the trial within the run.
	Trial int `json:"trial"`

	// Heterozygosity is the sum of A(1-A) over every generation the allele
	// spent in the population, including the first and the absorbing one.
	Heterozygosity float64 `json:"heterozygosity"`

	// Generations is the number of generations until absorption.
	Generations int `json:"generations"`

	// Outcome is genotype.Lost or genotype.Fixed.
	Outcome genotype.Outcome `json:"outcome"`
}

// Sink receives completed trials in order.
type Sink interface {
	Record(ctx context.Context, r Result) error
}

// State is the phase of the current trial.
type State int

const (
	// Polymorphic means the derived allele is segregating.
	Polymorphic State = iota
	// Absorbed means the derived allele has been lost or fixed.
	Absorbed
)

func (s State) String() string {
	switch s {
	case Polymorphic:
		return "polymorphic"
	case Absorbed:
		return "absorbed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxGenerations caps the length of a single trial. Zero, the default,
// means no cap.
func WithMaxGenerations(n int) Option {
	return func(c *Controller) {
		c.maxGenerations = n
	}
}

// WithLogger sets the logger used for per-trial debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller runs trials for one parameter set. It owns a single frequency
// vector and consumes a single random stream, so it is not safe for
// concurrent use.
type Controller struct {
	params         Params
	sampler        drift.Sampler
	sink           Sink
	maxGenerations int
	logger         *slog.Logger
	trace          bool

	freqs       genotype.Frequencies
	hsum        float64
	generations int
	state       State
}

// NewController validates params and returns a controller that draws from
// sampler and emits to sink.
func NewController(params Params, sampler drift.Sampler, sink Sink, opts ...Option) (*Controller, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, errors.New("trial: sampler is required")
	}
	if sink == nil {
		return nil, errors.New("trial: sink is required")
	}

	c := &Controller{
		params:  params,
		sampler: sampler,
		sink:    sink,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxGenerations < 0 {
		return nil, fmt.Errorf("trial: max generations must be non-negative, got %d", c.maxGenerations)
	}
	c.trace = c.logger.Enabled(context.Background(), logging.LevelTrace)

	return c, nil
}

// Params returns the controller's parameters.
func (c *Controller) Params() Params {
	return c.params
}

// Run executes params.Trials trials, emitting each to the sink as it
// absorbs. It returns the number of trials emitted.
//
// Cancellation is observed between trials and every few thousand
// generations within a trial; a trial interrupted by cancellation is
// discarded, while one that absorbs is recorded before the run stops.
// A sink error stops the run.
func (c *Controller) Run(ctx context.Context) (int, error) {
	for i := 0; i < c.params.Trials; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		res, err := c.RunTrial(ctx, i)
		if err != nil {
			return i, err
		}

		// a finished trial is recorded in full even if cancellation
		// arrived while it ran, so every sink sees the same trials
		if err := c.sink.Record(context.WithoutCancel(ctx), res); err != nil {
			return i, fmt.Errorf("recording trial %d: %w", i, err)
		}

		c.logger.Debug("trial absorbed",
			"trial", i,
			"outcome", res.Outcome,
			"generations", res.Generations,
			"heterozygosity", res.Heterozygosity,
		)
	}
	return c.params.Trials, nil
}

// RunTrial introduces the allele and advances the population until it is
// absorbed. The returned result is not sent to the sink.
func (c *Controller) RunTrial(ctx context.Context, index int) (Result, error) {
	if err := c.reset(); err != nil {
		return Result{}, err
	}

	for c.state == Polymorphic {
		if c.maxGenerations > 0 && c.generations >= c.maxGenerations {
			return Result{}, fmt.Errorf("trial %d: %w (%d generations, state %v)",
				index, ErrGenerationLimit, c.generations, c.freqs)
		}
		if c.generations%cancelCheckInterval == cancelCheckInterval-1 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		c.advance()

		if c.trace {
			c.logger.Log(ctx, logging.LevelTrace, "generation",
				"trial", index,
				"generation", c.generations,
				"genotypes", c.freqs.String(),
				"derived", c.freqs.Derived(),
			)
		}
	}

	return Result{
		Trial:          index,
		Heterozygosity: c.hsum,
		Generations:    c.generations,
		Outcome:        c.freqs.Outcome(),
	}, nil
}

// reset reintroduces a single copy of the derived allele.
func (c *Controller) reset() error {
	f, err := genotype.NewPolymorphic(c.params.Population)
	if err != nil {
		return err
	}
	c.freqs = f
	c.hsum = f.Heterozygosity()
	c.generations = 0
	c.state = stateOf(f)
	return nil
}

// advance moves the population forward one generation.
func (c *Controller) advance() {
	next := dynamics.Step(c.freqs, c.params.Sex, c.params.GeneConversion)
	c.freqs = c.sampler.Sample(next, c.params.Population)
	c.generations++
	c.hsum += c.freqs.Heterozygosity()
	c.state = stateOf(c.freqs)
}

func stateOf(f genotype.Frequencies) State {
	if f.Absorbed() {
		return Absorbed
	}
	return Polymorphic
}
