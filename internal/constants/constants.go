// Package constants provides named constants used throughout the facsexne codebase.
// This centralizes magic numbers and persisted formats for better maintainability.
package constants

// Result file layout. Downstream analysis depends on these exact formats.
const (
	// ResultFileFormat names a result file from the sex frequency and gene
	// conversion rate, each with 8 decimal digits.
	ResultFileFormat = "temp_s%.8f_gc%.8f.out"

	// ResultRecordFormat formats one trial's summed heterozygosity.
	ResultRecordFormat = "%.10f\n"

	// ResultFileMode is the permission used when creating result files.
	ResultFileMode = 0644
)

// Numerical tolerances
const (
	// FrequencyTolerance bounds the drift of a genotype vector's sum away from 1.
	FrequencyTolerance = 1e-9
)

// Environment variables consulted for the random seed, in priority order.
const (
	// SeedEnvVar is the primary seed override.
	SeedEnvVar = "FACSEXNE_SEED"

	// LegacySeedEnvVar is honoured so seeds from GSL-based runs carry over.
	LegacySeedEnvVar = "GSL_RNG_SEED"
)

// Directory and file names
const (
	// ConfigDirName is the per-user configuration directory under $HOME.
	ConfigDirName = ".facsexne"

	// ConfigFileName is the YAML configuration file inside ConfigDirName.
	ConfigFileName = "config.yaml"

	// TrialTraceFileName receives per-trial JSONL traces at debug level.
	TrialTraceFileName = "trials.jsonl"

	// DefaultArchiveFileName is used when --archive is given without a path.
	DefaultArchiveFileName = "facsexne.db"
)

// DefaultHistoryLimit is the number of runs listed by the history command.
const DefaultHistoryLimit = 20
