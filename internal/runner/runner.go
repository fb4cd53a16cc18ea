// Package runner wires one simulation run together: it resolves the output
// location, acquires the result file, trial trace and optional archive,
// drives the trial controller and releases every resource on all exit paths.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facsexne/facsexne/internal/drift"
	"github.com/facsexne/facsexne/internal/genotype"
	"github.com/facsexne/facsexne/internal/logging"
	"github.com/facsexne/facsexne/internal/pathutil"
	"github.com/facsexne/facsexne/internal/sink"
	"github.com/facsexne/facsexne/internal/store"
	"github.com/facsexne/facsexne/internal/trial"
)

// Options configures a run.
type Options struct {
	Params     trial.Params
	Seed       uint64
	SeedSource drift.SeedSource

	// OutputDir receives the result file and, at debug level, trials.jsonl.
	OutputDir string

	// ArchivePath enables the SQLite run archive when non-empty.
	ArchivePath string

	// MaxGenerations caps a single trial; 0 leaves trials unbounded.
	MaxGenerations int

	// LogLevel controls trial tracing ("info", "debug", "trace").
	LogLevel string

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger

	// Sampler replaces the multinomial sampler seeded from Seed when set.
	Sampler drift.Sampler
}

// Report describes a finished (or interrupted) run.
type Report struct {
	RunID       string           `json:"run_id,omitempty"`
	Params      trial.Params     `json:"params"`
	Seed        uint64           `json:"seed"`
	SeedSource  drift.SeedSource `json:"seed_source"`
	OutputPath  string           `json:"output_path"`
	ArchivePath string           `json:"archive_path,omitempty"`
	Completed   int              `json:"completed"`
	Lost        int              `json:"lost"`
	Fixed       int              `json:"fixed"`
	Generations int              `json:"generations"`

	// MeanHeterozygosity is the mean summed heterozygosity over completed trials.
	MeanHeterozygosity float64       `json:"mean_heterozygosity"`
	Elapsed            time.Duration `json:"elapsed"`
}

// Execute performs one run. The returned report is filled in even when an
// error occurs, covering the trials completed before it.
func Execute(ctx context.Context, opts Options) (rep Report, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rep = Report{
		Params:     opts.Params,
		Seed:       opts.Seed,
		SeedSource: opts.SeedSource,
	}

	if err := opts.Params.Validate(); err != nil {
		return rep, err
	}
	if opts.MaxGenerations < 0 {
		return rep, fmt.Errorf("max generations must be non-negative, got %d", opts.MaxGenerations)
	}

	dir, err := pathutil.EnsureDir(opts.OutputDir)
	if err != nil {
		return rep, fmt.Errorf("preparing output directory: %w", err)
	}

	results := sink.NewFileSink(dir, opts.Params.Sex, opts.Params.GeneConversion)
	rep.OutputPath = results.Path()
	defer func() {
		err = errors.Join(err, results.Close())
	}()

	tracer := logging.NewTrialLogger(dir, opts.LogLevel, logger)
	defer func() {
		if cerr := tracer.Close(); cerr != nil {
			logger.Warn("closing trial trace", "error", cerr)
		}
	}()

	sinks := sink.Multi{results}

	var archive *store.SQLiteArchive
	if opts.ArchivePath != "" {
		archive, err = store.NewSQLiteArchive(opts.ArchivePath)
		if err != nil {
			return rep, fmt.Errorf("opening run archive: %w", err)
		}
		defer func() {
			err = errors.Join(err, archive.Close())
		}()

		rep.ArchivePath = archive.Path()
		rep.RunID, err = archive.BeginRun(ctx, store.RunInfo{
			Params:     opts.Params,
			Seed:       opts.Seed,
			SeedSource: string(opts.SeedSource),
			OutputPath: rep.OutputPath,
		})
		if err != nil {
			return rep, fmt.Errorf("archiving run: %w", err)
		}
		sinks = append(sinks, store.RunSink{Archive: archive, RunID: rep.RunID})
	}

	var hsum float64
	sinks = append(sinks,
		sink.Trace{Logger: tracer, Params: opts.Params, Seed: opts.Seed},
		sink.Func(func(_ context.Context, r trial.Result) error {
			hsum += r.Heterozygosity
			rep.Generations += r.Generations
			switch r.Outcome {
			case genotype.Lost:
				rep.Lost++
			case genotype.Fixed:
				rep.Fixed++
			}
			return nil
		}),
	)

	sampler := opts.Sampler
	if sampler == nil {
		sampler = drift.NewMultinomial(drift.NewSource(opts.Seed))
	}

	controller, err := trial.NewController(
		opts.Params,
		sampler,
		sinks,
		trial.WithMaxGenerations(opts.MaxGenerations),
		trial.WithLogger(logger),
	)
	if err != nil {
		return rep, err
	}

	if opts.Params.HasClonalTrap() && opts.MaxGenerations == 0 {
		logger.Warn("no sex and no gene conversion: a trial that reaches an all-heterozygote population never absorbs; consider --max-generations")
	}

	logger.Info("starting run",
		"population", opts.Params.Population,
		"sex", opts.Params.Sex,
		"gene_conversion", opts.Params.GeneConversion,
		"trials", humanize.Comma(int64(opts.Params.Trials)),
		"seed", opts.Seed,
		"seed_source", opts.SeedSource,
		"output", rep.OutputPath,
	)

	start := time.Now()
	rep.Completed, err = controller.Run(ctx)
	rep.Elapsed = time.Since(start)
	if rep.Completed > 0 {
		rep.MeanHeterozygosity = hsum / float64(rep.Completed)
	}

	if err != nil {
		logger.Warn("run stopped early",
			"completed", humanize.Comma(int64(rep.Completed)),
			"requested", humanize.Comma(int64(opts.Params.Trials)),
			"error", err,
		)
		return rep, err
	}

	if archive != nil {
		if err := archive.FinishRun(ctx, rep.RunID); err != nil {
			return rep, fmt.Errorf("archiving run: %w", err)
		}
	}

	logger.Info("run complete",
		"trials", humanize.Comma(int64(rep.Completed)),
		"generations", humanize.Comma(int64(rep.Generations)),
		"elapsed", rep.Elapsed.Round(time.Millisecond),
	)

	return rep, nil
}
