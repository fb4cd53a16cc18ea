// Package logging provides leveled logging and trial tracing for facsexne.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A TrialLogger for structured JSONL trial traces (<output dir>/trials.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/facsexne/facsexne/internal/constants"
)

// LevelTrace is a custom slog level below Debug for per-generation detail.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// EventTrialAbsorbed is the event name of every trial trace line.
const EventTrialAbsorbed = "trial_absorbed"

// TrialEvent is one line of the trial trace: how a trial ended and the
// run parameters needed to reproduce it.
type TrialEvent struct {
	Event          string    `json:"event"`
	Time           time.Time `json:"time"`
	Trial          int       `json:"trial"`
	Outcome        string    `json:"outcome"`
	Generations    int       `json:"generations"`
	Heterozygosity float64   `json:"heterozygosity"`
	Population     int       `json:"population"`
	Sex            float64   `json:"sex"`
	GeneConversion float64   `json:"gene_conversion"`
	Seed           uint64    `json:"seed"`
}

// TrialLogger appends TrialEvents to <dir>/trials.jsonl. A nil
// TrialLogger discards everything, so callers never need to check.
type TrialLogger struct {
	mu     sync.Mutex
	file   *os.File
	enc    *json.Encoder
	logger *slog.Logger
	failed bool
}

// NewTrialLogger opens the trace file in dir when level is debug or trace.
// At info level, or when the file cannot be opened, it returns nil; an open
// failure is reported through logger and the run goes on untraced.
func NewTrialLogger(dir, level string, logger *slog.Logger) *TrialLogger {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	path := filepath.Join(dir, constants.TrialTraceFileName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		logger.Warn("trial trace disabled", "path", path, "error", err)
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		logger.Warn("trial trace disabled", "path", path, "error", err)
		return nil
	}

	return &TrialLogger{file: f, enc: json.NewEncoder(f), logger: logger}
}

// Log appends e as one JSON line, filling in Event and a zero Time.
// The first write failure is logged; later ones are dropped quietly.
func (tl *TrialLogger) Log(e TrialEvent) {
	if tl == nil {
		return
	}
	e.Event = EventTrialAbsorbed
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file == nil {
		return
	}
	if err := tl.enc.Encode(e); err != nil && !tl.failed {
		tl.failed = true
		tl.logger.Warn("writing trial trace failed; later events may be missing",
			"path", tl.file.Name(), "trial", e.Trial, "error", err)
	}
}

// Close closes the trace file. Events logged afterwards are dropped.
func (tl *TrialLogger) Close() error {
	if tl == nil {
		return nil
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file == nil {
		return nil
	}
	err := tl.file.Close()
	tl.file = nil
	return err
}
