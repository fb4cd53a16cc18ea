package analysis

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadValues(t *testing.T) {
	in := "0.0049750000\n\n1.2500000000\n  3.0000000000  \n"
	values, err := ReadValues(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.004975, 1.25, 3}, values)
}

func TestReadValues_Malformed(t *testing.T) {
	_, err := ReadValues(strings.NewReader("1.0\nabc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadValues_Empty(t *testing.T) {
	values, err := ReadValues(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp_s0.50000000_gc0.10000000.out")
	require.NoError(t, os.WriteFile(path, []byte("1.0000000000\n2.0000000000\n"), 0644))

	values, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, values)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.out"))
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{4, 1, 3, 2, 5})
	require.NoError(t, err)

	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 3, s.Mean, 1e-12)
	assert.InDelta(t, 2.5, s.Variance, 1e-12)
	assert.InDelta(t, math.Sqrt(0.5), s.StdErr, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 5.0, s.Max)
}

func TestSummarize_DoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_, err := Summarize(values)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestSummarize_SingleValue(t *testing.T) {
	s, err := Summarize([]float64{0.7})
	require.NoError(t, err)
	assert.Equal(t, Summary{Count: 1, Mean: 0.7, Min: 0.7, Median: 0.7, Max: 0.7}, s)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil)
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestRelativeNe(t *testing.T) {
	sample := Summary{Count: 100, Mean: 2, StdErr: 0.2}
	reference := Summary{Count: 100, Mean: 4, StdErr: 0.4}

	ratio, se, err := RelativeNe(sample, reference)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ratio, 1e-12)
	// both relative errors are 10%
	assert.InDelta(t, 0.5*math.Sqrt(0.02), se, 1e-12)
}

func TestRelativeNe_Errors(t *testing.T) {
	_, _, err := RelativeNe(Summary{}, Summary{Count: 1, Mean: 1})
	assert.ErrorIs(t, err, ErrNoData)

	_, _, err = RelativeNe(Summary{Count: 1, Mean: 1}, Summary{Count: 1, Mean: 0})
	assert.Error(t, err)
}
