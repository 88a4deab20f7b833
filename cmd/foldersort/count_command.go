package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"foldersort/internal/config"
	"foldersort/internal/inventory"
)

func newCountCommand(ctx *commandContext) *cobra.Command {
	var byExtension bool
	supported := inventory.Extensions()
	sort.Strings(supported)
	cmd := &cobra.Command{
		Use:   "count <folder>",
		Short: "Count the files the worker can classify",
		Long: "Count the files below <folder> that the worker can classify. Matching is\n" +
			"case-insensitive on these extensions:\n\n  " + strings.Join(supported, " "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			summary, err := inventory.Summarize(folder)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d supported files (%s)\n", summary.Files, humanize.IBytes(uint64(summary.Bytes)))
			if cfg := ctx.configValue(); cfg != nil && cfg.Worker.MinFiles > 0 && summary.Files < cfg.Worker.MinFiles {
				fmt.Fprintf(out, "At least %d are required before the worker can run\n", cfg.Worker.MinFiles)
			}
			if !byExtension || len(summary.ByExtension) == 0 {
				return nil
			}

			exts := make([]string, 0, len(summary.ByExtension))
			for ext := range summary.ByExtension {
				exts = append(exts, ext)
			}
			sort.Slice(exts, func(i, j int) bool {
				a, b := summary.ByExtension[exts[i]], summary.ByExtension[exts[j]]
				if a != b {
					return a > b
				}
				return exts[i] < exts[j]
			})
			rows := make([][]string, 0, len(exts))
			for _, ext := range exts {
				rows = append(rows, []string{ext, strconv.Itoa(summary.ByExtension[ext])})
			}
			fmt.Fprintln(out, renderTable([]string{"Extension", "Files"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&byExtension, "by-extension", false, "Break the count down by extension")
	return cmd
}
