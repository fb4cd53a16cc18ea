package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/facsexne/facsexne/internal/genotype"
	"github.com/facsexne/facsexne/internal/trial"
)

func newTestArchive(t *testing.T) *SQLiteArchive {
	t.Helper()
	a, err := NewSQLiteArchive(filepath.Join(t.TempDir(), "archive", "facsexne.db"))
	if err != nil {
		t.Fatalf("NewSQLiteArchive() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewSQLiteArchive(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "runs.db")

	a, err := NewSQLiteArchive(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteArchive() error = %v", err)
	}
	defer a.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	if a.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", a.Path(), dbPath)
	}
}

func TestSQLiteArchive_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	a, err := NewSQLiteArchive(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteArchive() error = %v", err)
	}
	id, err := a.BeginRun(ctx, RunInfo{Params: trial.Params{Population: 10, Trials: 1}, Seed: 1})
	if err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	a.Close()

	b, err := NewSQLiteArchive(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer b.Close()

	if _, err := b.GetRun(ctx, id); err != nil {
		t.Errorf("GetRun() after reopen error = %v", err)
	}
}

func TestSQLiteArchive_RunLifecycle(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	params := trial.Params{Population: 50, Sex: 0.5, GeneConversion: 0.1, Trials: 3}
	const bigSeed = uint64(1<<63 + 12345)

	id, err := a.BeginRun(ctx, RunInfo{
		Params:     params,
		Seed:       bigSeed,
		SeedSource: "explicit",
		OutputPath: "/tmp/temp_s0.50000000_gc0.10000000.out",
	})
	if err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	if id == "" {
		t.Fatal("BeginRun() returned empty ID")
	}

	results := []trial.Result{
		{Trial: 0, Heterozygosity: 0.0123456789, Generations: 3, Outcome: genotype.Lost},
		{Trial: 1, Heterozygosity: 4.5, Generations: 210, Outcome: genotype.Fixed},
	}
	sink := RunSink{Archive: a, RunID: id}
	for _, r := range results {
		if err := sink.Record(ctx, r); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	info, err := a.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if info.Params != params {
		t.Errorf("Params = %+v, want %+v", info.Params, params)
	}
	if info.Seed != bigSeed {
		t.Errorf("Seed = %d, want %d", info.Seed, bigSeed)
	}
	if info.SeedSource != "explicit" {
		t.Errorf("SeedSource = %q, want explicit", info.SeedSource)
	}
	if info.Completed != 2 {
		t.Errorf("Completed = %d, want 2", info.Completed)
	}
	if info.FinishedAt != nil {
		t.Error("FinishedAt should be nil before FinishRun")
	}

	if err := a.FinishRun(ctx, id); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}
	info, err = a.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if info.FinishedAt == nil {
		t.Fatal("FinishedAt should be set after FinishRun")
	}
	if info.FinishedAt.Before(info.StartedAt) {
		t.Errorf("FinishedAt %v before StartedAt %v", info.FinishedAt, info.StartedAt)
	}

	got, err := a.Trials(ctx, id)
	if err != nil {
		t.Fatalf("Trials() error = %v", err)
	}
	if len(got) != len(results) {
		t.Fatalf("Trials() returned %d results, want %d", len(got), len(results))
	}
	for i := range results {
		if got[i] != results[i] {
			t.Errorf("Trials()[%d] = %+v, want %+v", i, got[i], results[i])
		}
	}
}

func TestSQLiteArchive_DuplicateTrial(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	id, err := a.BeginRun(ctx, RunInfo{Params: trial.Params{Population: 5, Trials: 1}})
	if err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	r := trial.Result{Trial: 0, Heterozygosity: 1, Generations: 1, Outcome: genotype.Lost}
	if err := a.RecordTrial(ctx, id, r); err != nil {
		t.Fatalf("RecordTrial() error = %v", err)
	}
	if err := a.RecordTrial(ctx, id, r); err == nil {
		t.Error("expected error recording the same trial index twice")
	}
}

func TestSQLiteArchive_UnknownRun(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	if _, err := a.GetRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun(missing) error = %v, want ErrRunNotFound", err)
	}
	if err := a.FinishRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("FinishRun(missing) error = %v, want ErrRunNotFound", err)
	}
	// foreign keys are enforced
	if err := a.RecordTrial(ctx, "missing", trial.Result{Outcome: genotype.Lost}); err == nil {
		t.Error("expected error recording a trial for an unknown run")
	}
}

func TestSQLiteArchive_ListRuns(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := a.BeginRun(ctx, RunInfo{
			Params:    trial.Params{Population: 10 * (i + 1), Trials: i},
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("BeginRun() error = %v", err)
		}
		ids = append(ids, id)
	}

	runs, err := a.ListRuns(ctx, 3)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("ListRuns(3) returned %d runs", len(runs))
	}
	for i, want := range []string{ids[4], ids[3], ids[2]} {
		if runs[i].ID != want {
			t.Errorf("runs[%d].ID = %s, want %s (newest first)", i, runs[i].ID, want)
		}
	}

	all, err := a.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns(0) error = %v", err)
	}
	if len(all) != 5 {
		t.Errorf("ListRuns(0) returned %d runs, want 5", len(all))
	}
}

func TestSQLiteArchive_ExplicitID(t *testing.T) {
	a := newTestArchive(t)
	id, err := a.BeginRun(context.Background(), RunInfo{ID: "run-1", Params: trial.Params{Population: 1}})
	if err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	if id != "run-1" {
		t.Errorf("BeginRun() id = %q, want run-1", id)
	}
}

func TestSQLiteArchive_CloseTwice(t *testing.T) {
	a, err := NewSQLiteArchive(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
