package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"foldersort/internal/config"
	"foldersort/internal/manifest"
	"foldersort/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var destination string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the worker binary, directories and notification endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			appData, err := manifest.ResolveAppDataDir(cfg.Paths.AppDataDir)
			if err != nil {
				return err
			}
			targets := preflight.Targets{AppDataDir: appData}
			if destination != "" {
				if targets.Destination, err = config.ExpandPath(destination); err != nil {
					return err
				}
			}

			results := preflight.RunAll(cmd.Context(), cfg, targets)
			rows := make([][]string, 0, len(results))
			failed := 0
			for _, result := range results {
				state := "ok"
				if !result.Passed {
					state = "FAIL"
					failed++
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			fmt.Fprintf(out, "Manifest: %s\n", manifest.ExpectedPath(appData))
			fmt.Fprintf(out, "History:  %s\n", yesNo(cfg.History.Enabled))
			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Also check access and free space for an organize destination")
	return cmd
}
