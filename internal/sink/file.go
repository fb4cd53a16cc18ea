// Package sink provides destinations for completed trials.
//
// The primary destination is the result file: one line per trial holding the
// summed heterozygosity, in a file named after the run's sex frequency and
// gene conversion rate. Downstream analysis depends on the exact naming and
// precision, see constants.ResultFileFormat and constants.ResultRecordFormat.
package sink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/facsexne/facsexne/internal/constants"
	"github.com/facsexne/facsexne/internal/pathutil"
	"github.com/facsexne/facsexne/internal/trial"
)

// ErrClosed is returned when recording to a closed sink.
var ErrClosed = errors.New("sink is closed")

// FileName returns the result file name for a parameter pair.
func FileName(sex, gc float64) string {
	return fmt.Sprintf(constants.ResultFileFormat, sex, gc)
}

// FormatRecord renders one trial's summed heterozygosity as a result line.
func FormatRecord(heterozygosity float64) string {
	return fmt.Sprintf(constants.ResultRecordFormat, heterozygosity)
}

// FileSink writes trial results to a result file.
//
// The file is not touched until the first trial is recorded. That first
// record truncates any existing file; every later record in the same run
// appends. The handle is held for the whole run and flushed after each
// record so completed trials survive an abnormal exit.
type FileSink struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	w         *bufio.Writer
	truncated bool
	closed    bool
}

// NewFileSink returns a sink writing to dir/FileName(sex, gc).
func NewFileSink(dir string, sex, gc float64) *FileSink {
	return &FileSink{path: filepath.Join(dir, FileName(sex, gc))}
}

// Path returns the result file path.
func (s *FileSink) Path() string {
	return s.path
}

// Record appends r's summed heterozygosity to the result file.
func (s *FileSink) Record(_ context.Context, r trial.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.open(); err != nil {
		return err
	}

	if _, err := s.w.WriteString(FormatRecord(r.Heterozygosity)); err != nil {
		return fmt.Errorf("writing result to %s: %w", pathutil.RedactPath(s.path), err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flushing result to %s: %w", pathutil.RedactPath(s.path), err)
	}
	return nil
}

// open acquires the file handle, truncating only on the first call of the run.
func (s *FileSink) open() error {
	if s.file != nil {
		return nil
	}

	flags := os.O_CREATE | os.O_WRONLY
	if s.truncated {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(s.path, flags, constants.ResultFileMode)
	if err != nil {
		return fmt.Errorf("opening result file: %w", err)
	}

	s.file = f
	s.w = bufio.NewWriter(f)
	s.truncated = true
	return nil
}

// Close flushes and closes the result file. It is safe to call more than once.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.file == nil {
		return nil
	}

	flushErr := s.w.Flush()
	closeErr := s.file.Close()
	s.file = nil
	s.w = nil

	if flushErr != nil {
		return fmt.Errorf("flushing result file: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing result file: %w", closeErr)
	}
	return nil
}
