package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/facsexne/facsexne/internal/config"
	"github.com/facsexne/facsexne/internal/drift"
	"github.com/facsexne/facsexne/internal/logging"
	"github.com/facsexne/facsexne/internal/pathutil"
	"github.com/facsexne/facsexne/internal/runner"
	"github.com/facsexne/facsexne/internal/trial"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "facsexne <N> <sex> <gc> <trials>",
		Short: "Estimate Ne under facultative sex and gene conversion",
		Long: `facsexne follows new neutral alleles in a diploid population of N
individuals that reproduces sexually with probability <sex> and clonally
otherwise, with heterozygous sites converted at rate <gc>.

Each of <trials> alleles starts as a single heterozygous copy and drifts
until it is lost or fixed. The heterozygosity summed over its transit is
appended to temp_s<sex>_gc<gc>.out in the output directory, one line per
trial. The mean of those values is proportional to the effective
population size.`,
		Example: `  facsexne 50 0.5 0.1 1000
  facsexne 100 1 0 500 --seed 42 --output-dir results
  facsexne 200 0.01 0.001 10000 --archive --json`,
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSimulation,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.facsexne/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace")
	rootCmd.PersistentFlags().String("archive", "", "Record runs in a SQLite archive (default path when given without a value)")
	if p, err := config.DefaultArchivePath(); err == nil {
		rootCmd.PersistentFlags().Lookup("archive").NoOptDefVal = p
	}

	rootCmd.Flags().String("seed", "", "Random seed, decimal or 0x hex (default: $FACSEXNE_SEED, config seed, $GSL_RNG_SEED, then the clock)")
	rootCmd.Flags().String("output-dir", "", "Directory for result files (default: current directory)")
	rootCmd.Flags().Int("max-generations", 0, "Abort a trial that has not absorbed after this many generations (0 = unbounded)")

	rootCmd.AddCommand(
		newSummaryCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// parseParams converts the four positional arguments. The trial count is
// read as a real number and truncated, so "1e4" is accepted.
func parseParams(args []string) (trial.Params, error) {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return trial.Params{}, fmt.Errorf("invalid population size %q: must be an integer", args[0])
	}

	sex, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return trial.Params{}, fmt.Errorf("invalid sex frequency %q: %w", args[1], err)
	}

	gc, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return trial.Params{}, fmt.Errorf("invalid gene conversion rate %q: %w", args[2], err)
	}

	reps, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return trial.Params{}, fmt.Errorf("invalid trial count %q: %w", args[3], err)
	}
	if math.IsNaN(reps) || math.IsInf(reps, 0) || reps < 0 || reps > math.MaxInt32 {
		return trial.Params{}, fmt.Errorf("invalid trial count %q: must be between 0 and %d", args[3], math.MaxInt32)
	}

	p := trial.Params{
		Population:     n,
		Sex:            sex,
		GeneConversion: gc,
		Trials:         int(reps),
	}
	return p, p.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	params, err := parseParams(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("output-dir") {
		cfg.Output.Dir, _ = cmd.Flags().GetString("output-dir")
	}
	if cmd.Flags().Changed("max-generations") {
		cfg.MaxGenerations, _ = cmd.Flags().GetInt("max-generations")
	}
	var flagSeed *uint64
	if cmd.Flags().Changed("seed") {
		s, _ := cmd.Flags().GetString("seed")
		seed, err := drift.ParseSeed(s)
		if err != nil {
			return err
		}
		flagSeed = &seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	outputDir, err := pathutil.ExpandHome(cfg.Output.Dir)
	if err != nil {
		return err
	}
	archivePath, err := pathutil.ExpandHome(cfg.Archive.Path)
	if err != nil {
		return err
	}

	seed, source, err := drift.ResolveSeed(flagSeed, cfg.Seed, os.Getenv)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	rep, err := runner.Execute(ctx, runner.Options{
		Params:         params,
		Seed:           seed,
		SeedSource:     source,
		OutputDir:      outputDir,
		ArchivePath:    archivePath,
		MaxGenerations: cfg.MaxGenerations,
		LogLevel:       cfg.Logging.Level,
		Logger:         logger,
	})
	if errors.Is(err, context.Canceled) {
		err = fmt.Errorf("interrupted after %s of %s trials; %s holds the completed ones",
			humanize.Comma(int64(rep.Completed)), humanize.Comma(int64(params.Trials)),
			pathutil.RedactPath(rep.OutputPath))
	}
	if err != nil {
		return err
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	return printReport(cmd.OutOrStdout(), rep, jsonOut)
}

func printReport(w io.Writer, rep runner.Report, jsonOut bool) error {
	if jsonOut {
		return json.NewEncoder(w).Encode(rep)
	}

	fmt.Fprintf(w, "Wrote %s trials to %s\n", humanize.Comma(int64(rep.Completed)), rep.OutputPath)
	fmt.Fprintf(w, "  seed:     %d (%s)\n", rep.Seed, rep.SeedSource)
	fmt.Fprintf(w, "  outcomes: %s lost, %s fixed\n", humanize.Comma(int64(rep.Lost)), humanize.Comma(int64(rep.Fixed)))
	if rep.Completed > 0 {
		fmt.Fprintf(w, "  mean H:   %.6f\n", rep.MeanHeterozygosity)
	}
	if rep.RunID != "" {
		fmt.Fprintf(w, "  run:      %s (%s)\n", rep.RunID, rep.ArchivePath)
	}
	return nil
}

// loadConfig loads the config file named by --config, or the default one,
// and applies the global --log-level and --archive flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("archive") {
		cfg.Archive.Path, _ = cmd.Flags().GetString("archive")
	}
	return cfg, nil
}

// signalContext returns a context cancelled on the first interrupt signal.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 1)
	notifySignals(ch)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(ch)
		cancel()
	}
}
