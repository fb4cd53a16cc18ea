package sink

import (
	"context"

	"github.com/facsexne/facsexne/internal/logging"
	"github.com/facsexne/facsexne/internal/trial"
)

// Multi records each result to every sink in order, stopping at the first
// error. Sinks before the failing one keep the record, so a failure past
// the first sink leaves the sinks one result apart.
type Multi []trial.Sink

// Record implements trial.Sink.
func (m Multi) Record(ctx context.Context, r trial.Result) error {
	for _, s := range m {
		if err := s.Record(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Func adapts a function to trial.Sink.
type Func func(ctx context.Context, r trial.Result) error

// Record implements trial.Sink.
func (f Func) Record(ctx context.Context, r trial.Result) error {
	return f(ctx, r)
}

// Trace writes every result as a JSONL event through a TrialLogger. A nil
// logger makes it a no-op, so it can always be part of a Multi.
type Trace struct {
	Logger *logging.TrialLogger
	Params trial.Params
	Seed   uint64
}

// Record implements trial.Sink.
func (t Trace) Record(_ context.Context, r trial.Result) error {
	t.Logger.Log(logging.TrialEvent{
		Trial:          r.Trial,
		Outcome:        string(r.Outcome),
		Generations:    r.Generations,
		Heterozygosity: r.Heterozygosity,
		Population:     t.Params.Population,
		Sex:            t.Params.Sex,
		GeneConversion: t.Params.GeneConversion,
		Seed:           t.Seed,
	})
	return nil
}
