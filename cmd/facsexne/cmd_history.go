package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/facsexne/facsexne/internal/config"
	"github.com/facsexne/facsexne/internal/constants"
	"github.com/facsexne/facsexne/internal/pathutil"
	"github.com/facsexne/facsexne/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived runs",
		Long: `List runs recorded with --archive, newest first.

The archive is taken from --archive, then the config file, then
~/.facsexne/facsexne.db.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path := cfg.Archive.Path
			if path == "" {
				if path, err = config.DefaultArchivePath(); err != nil {
					return err
				}
			}
			if path, err = pathutil.ExpandHome(path); err != nil {
				return err
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				return fmt.Errorf("no run archive at %s; run with --archive to create one", pathutil.RedactPath(path))
			}

			archive, err := store.NewSQLiteArchive(path)
			if err != nil {
				return fmt.Errorf("opening run archive: %w", err)
			}
			defer archive.Close()

			runs, err := archive.ListRuns(context.Background(), limit)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"archive": path,
					"runs":    runs,
					"count":   len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs archived.")
				return nil
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-8s %-16s %6s %-10s %-10s %-15s %-20s %s\n",
				"ID", "STARTED", "N", "SEX", "GC", "TRIALS", "SEED", "STATUS")
			for _, r := range runs {
				status := "finished"
				if r.FinishedAt == nil {
					status = "incomplete"
				}
				fmt.Fprintf(w, "%-8s %-16s %6d %-10g %-10g %-15s %-20d %s\n",
					r.ID[:min(8, len(r.ID))],
					humanize.Time(r.StartedAt),
					r.Params.Population,
					r.Params.Sex,
					r.Params.GeneConversion,
					humanize.Comma(int64(r.Completed))+"/"+humanize.Comma(int64(r.Params.Trials)),
					r.Seed,
					status,
				)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", constants.DefaultHistoryLimit, "Maximum number of runs to list (0 = all)")
	return cmd
}
