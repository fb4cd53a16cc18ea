package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/facsexne/facsexne/internal/genotype"
	"github.com/facsexne/facsexne/internal/trial"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteArchive implements Archive using SQLite for persistence.
type SQLiteArchive struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteArchive opens (creating if needed) the archive database at dbPath.
func NewSQLiteArchive(dbPath string) (*SQLiteArchive, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteArchive{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteArchive) Path() string {
	return s.dbPath
}

// BeginRun implements Archive.
func (s *SQLiteArchive) BeginRun(ctx context.Context, info RunInfo) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info.ID == "" {
		info.ID = uuid.NewString()
	}
	if info.StartedAt.IsZero() {
		info.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, population, sex, gene_conversion, trials, seed, seed_source, output_path, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID,
		info.Params.Population,
		info.Params.Sex,
		info.Params.GeneConversion,
		info.Params.Trials,
		strconv.FormatUint(info.Seed, 10),
		nullString(info.SeedSource),
		nullString(info.OutputPath),
		info.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	return info.ID, nil
}

// RecordTrial implements Archive.
func (s *SQLiteArchive) RecordTrial(ctx context.Context, runID string, r trial.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trials (run_id, trial_index, heterozygosity, generations, outcome)
		VALUES (?, ?, ?, ?, ?)`,
		runID, r.Trial, r.Heterozygosity, r.Generations, string(r.Outcome),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trial %d of run %s: %w", r.Trial, runID, err)
	}
	return nil
}

// FinishRun implements Archive.
func (s *SQLiteArchive) FinishRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `
	r.id, r.population, r.sex, r.gene_conversion, r.trials, r.seed,
	r.seed_source, r.output_path, r.started_at, r.finished_at,
	(SELECT COUNT(*) FROM trials t WHERE t.run_id = r.id)`

// GetRun implements Archive.
func (s *SQLiteArchive) GetRun(ctx context.Context, runID string) (*RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, runID)
	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// ListRuns implements Archive.
func (s *SQLiteArchive) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs r ORDER BY r.started_at DESC, r.id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Trials implements Archive.
func (s *SQLiteArchive) Trials(ctx context.Context, runID string) ([]trial.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT trial_index, heterozygosity, generations, outcome
		FROM trials WHERE run_id = ? ORDER BY trial_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trials: %w", err)
	}
	defer rows.Close()

	var results []trial.Result
	for rows.Next() {
		var r trial.Result
		var outcome string
		if err := rows.Scan(&r.Trial, &r.Heterozygosity, &r.Generations, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan trial: %w", err)
		}
		r.Outcome = genotype.Outcome(outcome)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trials: %w", err)
	}
	return results, nil
}

// Close closes the database connection.
func (s *SQLiteArchive) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunInfo, error) {
	var (
		info       RunInfo
		seed       string
		seedSource sql.NullString
		outputPath sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	err := row.Scan(
		&info.ID,
		&info.Params.Population,
		&info.Params.Sex,
		&info.Params.GeneConversion,
		&info.Params.Trials,
		&seed,
		&seedSource,
		&outputPath,
		&startedAt,
		&finishedAt,
		&info.Completed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return info, err
		}
		return info, fmt.Errorf("failed to scan run: %w", err)
	}

	if info.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return info, fmt.Errorf("invalid seed %q for run %s: %w", seed, info.ID, err)
	}
	info.SeedSource = seedSource.String
	info.OutputPath = outputPath.String

	if info.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return info, fmt.Errorf("invalid started_at for run %s: %w", info.ID, err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return info, fmt.Errorf("invalid finished_at for run %s: %w", info.ID, err)
		}
		info.FinishedAt = &t
	}

	return info, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
