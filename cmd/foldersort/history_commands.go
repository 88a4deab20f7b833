package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"foldersort/internal/history"
)

var errHistoryDisabled = errors.New("run history is disabled (set history.enabled = true)")

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent classification and organize runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.RecentRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						string(run.Kind),
						string(run.Status),
						humanize.Time(run.StartedAt),
						formatDuration(run.Duration()),
						runTarget(run),
						runCounts(run),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Kind", "Status", "Started", "Took", "Target", "Placed/Skipped"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and the placements it made",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.FindRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:      %s\n", run.ID)
				fmt.Fprintf(out, "Kind:     %s\n", run.Kind)
				fmt.Fprintf(out, "Status:   %s\n", run.Status)
				fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
				if !run.FinishedAt.IsZero() {
					fmt.Fprintf(out, "Took:     %s\n", formatDuration(run.Duration()))
				}
				fmt.Fprintf(out, "Target:   %s\n", runTarget(*run))
				if run.ManifestDigest != "" {
					fmt.Fprintf(out, "Manifest: %s (blake3 %s)\n", run.ManifestPath, shortID(run.ManifestDigest))
				}
				if run.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", run.ErrorMessage)
				}

				placements, err := store.Placements(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if len(placements) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(placements))
				for _, p := range placements {
					placed := "-"
					if p.Destination != "" {
						placed = filepath.Join(p.GroupFolder, filepath.Base(p.Destination))
					}
					note := p.SkippedReason
					switch {
					case p.Replaced:
						note = "replaced"
					case p.Collided:
						note = "renamed"
					}
					rows = append(rows, []string{p.Source, placed, note})
				}
				fmt.Fprintln(out, renderTable([]string{"Source", "Placed As", "Notes"}, rows, nil))
				return nil
			})
		},
	}
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errHistoryDisabled
	}
	dir, err := ctx.appDataDir()
	if err != nil {
		return err
	}
	store, err := history.Open(filepath.Join(dir, history.FileName))
	if err != nil {
		return err
	}
	defer store.Close()
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	sweepAbandoned(store, logger)
	return fn(store)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runTarget(run history.Run) string {
	if run.Kind == history.KindOrganize {
		return fmt.Sprintf("%s (%s)", run.Destination, run.Operation)
	}
	return run.Folder
}

func runCounts(run history.Run) string {
	if run.Kind != history.KindOrganize {
		return "-"
	}
	return strconv.Itoa(run.Placed) + "/" + strconv.Itoa(run.Skipped)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
