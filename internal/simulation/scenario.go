package simulation

import (
	"github.com/facsexne/facsexne/internal/analysis"
	"github.com/facsexne/facsexne/internal/runner"
	"github.com/facsexne/facsexne/internal/trial"
)

// Scenario defines one run to execute through the harness.
type Scenario struct {
	// Name identifies the scenario in failure messages.
	Name string

	Params trial.Params
	Seed   uint64

	// MaxGenerations caps each trial; 0 means unbounded.
	MaxGenerations int

	// Archive records the run in a SQLite archive under the runner's
	// directory. The archived trials are returned in the result.
	Archive bool

	// LogLevel is passed to the runner; "debug" also writes trials.jsonl.
	LogLevel string
}

// SimulationResult is what a scenario produced.
type SimulationResult struct {
	Scenario Scenario
	Report   runner.Report

	// Output is the content of the result file right after the run.
	Output []byte

	// Values are the parsed lines of Output.
	Values []float64

	// Summary describes Values. It is the zero Summary when Values is empty.
	Summary analysis.Summary

	// Trials holds the archived trial rows when Scenario.Archive is set.
	Trials []trial.Result
}
