package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/facsexne/facsexne/internal/analysis"
	"github.com/spf13/cobra"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary <result-file>",
		Short: "Summarize a result file",
		Long: `Summarize the per-trial heterozygosity sums in a result file.

With --reference, also report the ratio of the two means, which is the
effective population size of the first parameter set relative to the
reference one.`,
		Example: `  facsexne summary temp_s0.50000000_gc0.10000000.out
  facsexne summary temp_s0.01000000_gc0.00000000.out --reference temp_s1.00000000_gc0.00000000.out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reference, _ := cmd.Flags().GetString("reference")
			jsonOut, _ := cmd.Flags().GetBool("json")

			sample, err := summarizeFile(args[0])
			if err != nil {
				return err
			}

			out := map[string]any{
				"file":    args[0],
				"summary": sample,
			}

			var ref analysis.Summary
			var ratio, ratioErr float64
			if reference != "" {
				ref, err = summarizeFile(reference)
				if err != nil {
					return err
				}
				ratio, ratioErr, err = analysis.RelativeNe(sample, ref)
				if err != nil {
					return fmt.Errorf("comparing with reference: %w", err)
				}
				out["reference"] = map[string]any{"file": reference, "summary": ref}
				out["relative_ne"] = ratio
				out["relative_ne_std_err"] = ratioErr
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s\n", args[0])
			printSummary(cmd, sample)
			if reference != "" {
				fmt.Fprintf(w, "\nReference %s\n", reference)
				printSummary(cmd, ref)
				fmt.Fprintf(w, "\nRelative Ne: %.4f +/- %.4f\n", ratio, ratioErr)
			}
			return nil
		},
	}

	cmd.Flags().String("reference", "", "Result file to compare against")
	return cmd
}

func summarizeFile(path string) (analysis.Summary, error) {
	values, err := analysis.ReadFile(path)
	if err != nil {
		return analysis.Summary{}, err
	}
	s, err := analysis.Summarize(values)
	if err != nil {
		return analysis.Summary{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func printSummary(cmd *cobra.Command, s analysis.Summary) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  trials:   %s\n", humanize.Comma(int64(s.Count)))
	fmt.Fprintf(w, "  mean:     %.6f (se %.6f)\n", s.Mean, s.StdErr)
	fmt.Fprintf(w, "  variance: %.6f\n", s.Variance)
	fmt.Fprintf(w, "  min:      %.6f\n", s.Min)
	fmt.Fprintf(w, "  median:   %.6f\n", s.Median)
	fmt.Fprintf(w, "  max:      %.6f\n", s.Max)
}
