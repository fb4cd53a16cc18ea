package simulation

import (
	"bytes"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/facsexne/facsexne/internal/genotype"
)

// recordPattern matches one result line: a non-negative value with exactly
// ten decimal places.
var recordPattern = regexp.MustCompile(`^[0-9]+\.[0-9]{10}$`)

// AssertRecordCount asserts the result file holds exactly n records.
func AssertRecordCount(t *testing.T, result SimulationResult, n int) {
	t.Helper()
	if got := len(result.Values); got != n {
		t.Errorf("AssertRecordCount(%s): %d records, want %d", result.Scenario.Name, got, n)
	}
	if result.Report.Completed != n {
		t.Errorf("AssertRecordCount(%s): report says %d completed, want %d", result.Scenario.Name, result.Report.Completed, n)
	}
}

// AssertRecordFormat asserts every line of the result file is a fixed
// ten-decimal value terminated by a newline.
func AssertRecordFormat(t *testing.T, result SimulationResult) {
	t.Helper()
	if len(result.Output) == 0 {
		return
	}
	if !bytes.HasSuffix(result.Output, []byte("\n")) {
		t.Errorf("AssertRecordFormat(%s): output does not end with a newline", result.Scenario.Name)
	}
	for i, line := range strings.Split(strings.TrimSuffix(string(result.Output), "\n"), "\n") {
		if !recordPattern.MatchString(line) {
			t.Errorf("AssertRecordFormat(%s): line %d %q is not a ten-decimal record", result.Scenario.Name, i+1, line)
		}
	}
}

// AssertPositiveFinite asserts every recorded heterozygosity is finite and
// strictly positive. A trial always contributes its starting generation.
func AssertPositiveFinite(t *testing.T, result SimulationResult) {
	t.Helper()
	for i, v := range result.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			t.Errorf("AssertPositiveFinite(%s): record %d = %v", result.Scenario.Name, i+1, v)
		}
	}
}

// AssertMeanWithin asserts the mean summed heterozygosity lies in [min, max].
func AssertMeanWithin(t *testing.T, result SimulationResult, min, max float64) {
	t.Helper()
	if m := result.Summary.Mean; m < min || m > max {
		t.Errorf("AssertMeanWithin(%s): mean %.6f not in [%.4f, %.4f] (n=%d, se=%.4f)",
			result.Scenario.Name, m, min, max, result.Summary.Count, result.Summary.StdErr)
	}
}

// AssertFixationRate asserts the fraction of trials that fixed the derived
// allele is within tol of want.
func AssertFixationRate(t *testing.T, result SimulationResult, want, tol float64) {
	t.Helper()
	if result.Report.Completed == 0 {
		t.Errorf("AssertFixationRate(%s): no completed trials", result.Scenario.Name)
		return
	}
	got := float64(result.Report.Fixed) / float64(result.Report.Completed)
	if math.Abs(got-want) > tol {
		t.Errorf("AssertFixationRate(%s): fixation rate %.4f, want %.4f +/- %.4f (%d of %d)",
			result.Scenario.Name, got, want, tol, result.Report.Fixed, result.Report.Completed)
	}
}

// AssertArchiveMatchesOutput asserts the archived trials agree, in order,
// with the result file's records at its printed precision.
func AssertArchiveMatchesOutput(t *testing.T, result SimulationResult) {
	t.Helper()
	if len(result.Trials) != len(result.Values) {
		t.Fatalf("AssertArchiveMatchesOutput(%s): %d archived trials, %d records",
			result.Scenario.Name, len(result.Trials), len(result.Values))
	}
	for i, tr := range result.Trials {
		if tr.Trial != i {
			t.Errorf("AssertArchiveMatchesOutput(%s): archived trial %d has index %d", result.Scenario.Name, i, tr.Trial)
		}
		if tr.Outcome != genotype.Lost && tr.Outcome != genotype.Fixed {
			t.Errorf("AssertArchiveMatchesOutput(%s): trial %d outcome %q", result.Scenario.Name, i, tr.Outcome)
		}
		if math.Abs(tr.Heterozygosity-result.Values[i]) > 1e-10 {
			t.Errorf("AssertArchiveMatchesOutput(%s): trial %d archived %.12f, file %.10f",
				result.Scenario.Name, i, tr.Heterozygosity, result.Values[i])
		}
	}
}

// AssertSameOutput asserts two runs wrote byte-identical result files.
func AssertSameOutput(t *testing.T, a, b SimulationResult) {
	t.Helper()
	if !bytes.Equal(a.Output, b.Output) {
		t.Errorf("AssertSameOutput(%s, %s): outputs differ\n%s\nvs\n%s",
			a.Scenario.Name, b.Scenario.Name, a.Output, b.Output)
	}
}
