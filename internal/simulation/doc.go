// Package simulation provides an end-to-end test harness for whole runs.
//
// The harness drives the real runner, multinomial sampler, result file sink
// and SQLite archive. No fakes. Each Runner gets an isolated output
// directory via t.TempDir() and a sandboxed HOME, and every scenario run
// through it writes into that same directory so repeated runs can observe
// truncation of the result file.
//
// Usage:
//
//	func TestNeutralFixation(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:   "neutral-fixation",
//	        Params: trial.Params{Population: 10, Sex: 0.5, GeneConversion: 0.1, Trials: 2000},
//	        Seed:   7,
//	    })
//	    simulation.AssertFixationRate(t, result, 0.05, 0.02)
//	}
package simulation
