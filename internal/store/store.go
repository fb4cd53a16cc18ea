// Package store archives simulation runs and their trial results.
//
// The result files written by the sink package remain the canonical output.
// The archive adds what those files cannot carry: the parameters, seed and
// timing of each run and, per trial, the generations to absorption and
// whether the allele was lost or fixed.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/facsexne/facsexne/internal/trial"
)

// ErrRunNotFound is returned when a run ID is not in the archive.
var ErrRunNotFound = errors.New("run not found")

// RunInfo describes one invocation of the simulator.
type RunInfo struct {
	ID         string       `json:"id"`
	Params     trial.Params `json:"params"`
	Seed       uint64       `json:"seed"`
	SeedSource string       `json:"seed_source"`
	OutputPath string       `json:"output_path"`
	StartedAt  time.Time    `json:"started_at"`

	// FinishedAt is nil while the run is in progress or if it was interrupted.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Completed is the number of trials recorded so far.
	Completed int `json:"completed"`
}

// Archive records runs and their trials.
type Archive interface {
	// BeginRun stores info and returns the run's ID. An empty info.ID is
	// replaced with a new UUID.
	BeginRun(ctx context.Context, info RunInfo) (string, error)

	// RecordTrial stores one trial result for a run.
	RecordTrial(ctx context.Context, runID string, r trial.Result) error

	// FinishRun marks a run as completed.
	FinishRun(ctx context.Context, runID string) error

	// GetRun returns a single run.
	GetRun(ctx context.Context, runID string) (*RunInfo, error)

	// ListRuns returns the most recent runs first, at most limit of them.
	ListRuns(ctx context.Context, limit int) ([]RunInfo, error)

	// Trials returns a run's trials in order.
	Trials(ctx context.Context, runID string) ([]trial.Result, error)

	Close() error
}

// RunSink adapts an Archive to trial.Sink for one run.
type RunSink struct {
	Archive Archive
	RunID   string
}

// Record implements trial.Sink.
func (s RunSink) Record(ctx context.Context, r trial.Result) error {
	return s.Archive.RecordTrial(ctx, s.RunID, r)
}
