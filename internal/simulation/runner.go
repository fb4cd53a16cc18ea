package simulation

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/facsexne/facsexne/internal/analysis"
	"github.com/facsexne/facsexne/internal/constants"
	"github.com/facsexne/facsexne/internal/drift"
	"github.com/facsexne/facsexne/internal/runner"
	"github.com/facsexne/facsexne/internal/store"
	"github.com/facsexne/facsexne/internal/trial"
)

// Runner executes scenarios against a shared, isolated output directory.
type Runner struct {
	t   *testing.T
	dir string
}

// NewRunner creates a runner with a fresh output directory and sandboxed
// HOME directory.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	return &Runner{t: t, dir: filepath.Join(tmpDir, "out")}
}

// Dir returns the directory result files are written to.
func (r *Runner) Dir() string {
	return r.dir
}

// ArchivePath returns the archive database used by scenarios with Archive set.
func (r *Runner) ArchivePath() string {
	return filepath.Join(r.dir, constants.DefaultArchiveFileName)
}

// Run executes the scenario and fails the test on any error.
func (r *Runner) Run(scenario Scenario) SimulationResult {
	r.t.Helper()
	result, err := r.Execute(context.Background(), scenario)
	if err != nil {
		r.t.Fatalf("Run(%s): %v", scenario.Name, err)
	}
	return result
}

// Execute runs the scenario and returns whatever it produced along with
// the run error, for scenarios that expect one.
func (r *Runner) Execute(ctx context.Context, scenario Scenario) (SimulationResult, error) {
	r.t.Helper()

	opts := runner.Options{
		Params:         scenario.Params,
		Seed:           scenario.Seed,
		SeedSource:     drift.SeedExplicit,
		OutputDir:      r.dir,
		MaxGenerations: scenario.MaxGenerations,
		LogLevel:       scenario.LogLevel,
	}
	if scenario.Archive {
		opts.ArchivePath = r.ArchivePath()
	}

	rep, runErr := runner.Execute(ctx, opts)
	result := SimulationResult{Scenario: scenario, Report: rep}
	if rep.OutputPath == "" {
		return result, runErr
	}

	data, err := os.ReadFile(rep.OutputPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// no trial completed
	case err != nil:
		r.t.Fatalf("Execute(%s): reading result file: %v", scenario.Name, err)
	default:
		result.Output = data
	}

	values, err := analysis.ReadValues(bytes.NewReader(result.Output))
	if err != nil {
		r.t.Fatalf("Execute(%s): parsing result file: %v", scenario.Name, err)
	}
	result.Values = values
	if len(values) > 0 {
		if result.Summary, err = analysis.Summarize(values); err != nil {
			r.t.Fatalf("Execute(%s): summarizing: %v", scenario.Name, err)
		}
	}

	if scenario.Archive && rep.RunID != "" {
		result.Trials = r.archivedTrials(rep.RunID)
	}

	return result, runErr
}

func (r *Runner) archivedTrials(runID string) []trial.Result {
	r.t.Helper()
	a, err := store.NewSQLiteArchive(r.ArchivePath())
	if err != nil {
		r.t.Fatalf("opening archive: %v", err)
	}
	defer a.Close()

	trials, err := a.Trials(context.Background(), runID)
	if err != nil {
		r.t.Fatalf("reading archived trials: %v", err)
	}
	return trials
}
