package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"foldersort/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var runID string
	var component string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent lines from foldersort.log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.LogDir == "" {
				return errors.New("paths.log_dir is not set; logs only went to stderr")
			}
			path := filepath.Join(cfg.Paths.LogDir, "foldersort.log")

			var needles []string
			if runID != "" {
				needles = append(needles, runID)
			}
			if component != "" {
				needles = append(needles, component+":")
			}
			opts := logs.TailOptions{Offset: -1, Limit: lines, Match: logs.ContainsAll(needles...)}

			runCtx := cmd.Context()
			if follow {
				var stop context.CancelFunc
				runCtx, stop = signal.NotifyContext(runCtx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
			}

			out := cmd.OutOrStdout()
			for {
				result, err := logs.Tail(runCtx, path, opts)
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				if !follow {
					return nil
				}
				opts = logs.TailOptions{Offset: result.Offset, Follow: true, Wait: 5 * time.Second, Match: opts.Match}
			}
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&runID, "run", "", "Only lines for this run ID")
	cmd.Flags().StringVar(&component, "component", "", "Only lines from this component (console format)")
	_ = cmd.RegisterFlagCompletionFunc("component", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"worker", "organizer", "notify"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
