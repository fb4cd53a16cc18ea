// Package analysis summarizes result files.
//
// Each line of a result file is the heterozygosity summed over one
// allele's transit. The mean of these sums scales with the effective
// population size, so comparing means across parameter sets gives the
// relative Ne of one reproductive regime against another.
package analysis

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoData is returned when a summary is requested for no values.
var ErrNoData = errors.New("no trial values")

// Summary describes the distribution of summed heterozygosities.
type Summary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	StdErr   float64 `json:"std_err"`
	Min      float64 `json:"min"`
	Median   float64 `json:"median"`
	Max      float64 `json:"max"`
}

// ReadValues parses one floating-point value per line. Blank lines are
// skipped; any other unparsable line is an error naming its line number.
func ReadValues(r io.Reader) ([]float64, error) {
	var values []float64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading values: %w", err)
	}
	return values, nil
}

// ReadFile reads the values of a result file.
func ReadFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening result file: %w", err)
	}
	defer f.Close()

	values, err := ReadValues(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// Summarize computes descriptive statistics. Variance is the unbiased
// sample variance and is zero for a single value.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrNoData
	}

	s := Summary{
		Count: len(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
	}

	if len(values) == 1 {
		s.Mean = values[0]
		s.Median = values[0]
		return s, nil
	}

	s.Mean, s.Variance = stat.MeanVariance(values, nil)
	s.StdErr = math.Sqrt(s.Variance / float64(len(values)))

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	return s, nil
}

// RelativeNe returns the ratio of the sample's mean summed heterozygosity
// to the reference's, with a first-order standard error.
func RelativeNe(sample, reference Summary) (ratio, stdErr float64, err error) {
	if sample.Count == 0 || reference.Count == 0 {
		return 0, 0, ErrNoData
	}
	if reference.Mean == 0 {
		return 0, 0, errors.New("reference mean is zero")
	}

	ratio = sample.Mean / reference.Mean
	if sample.Mean != 0 {
		rel := math.Pow(sample.StdErr/sample.Mean, 2) + math.Pow(reference.StdErr/reference.Mean, 2)
		stdErr = math.Abs(ratio) * math.Sqrt(rel)
	}
	return ratio, stdErr, nil
}
