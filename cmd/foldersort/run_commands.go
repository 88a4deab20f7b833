package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"foldersort/internal/reconcile"
)

type runFlags struct {
	topLevelAsOne bool
	skipCount     bool
}

func (f *runFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.topLevelAsOne, "top-level-as-one", false, "Treat each top-level subfolder as a single unit")
	cmd.Flags().BoolVar(&f.skipCount, "skip-count", false, "Skip the minimum supported-file check")
}

func (f *runFlags) request(cmd *cobra.Command, folder string) classifyRequest {
	req := classifyRequest{Folder: folder, SkipCountCheck: f.skipCount}
	if cmd.Flags().Changed("top-level-as-one") {
		value := f.topLevelAsOne
		req.TreatTopLevelAsOne = &value
	}
	return req
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run <folder>",
		Short: "Classify a folder and write the organization manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer sess.close()

			result, err := sess.classify(cmd.Context(), flags.request(cmd, args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manifest written to %s (run %s)\n", result.ManifestPath, result.RunID)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

type organizeFlags struct {
	copy bool
	move bool
	list bool
}

func (f *organizeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.copy, "copy", false, "Copy files, leaving sources in place")
	cmd.Flags().BoolVar(&f.move, "move", false, "Move files (default unless organize.operation says otherwise)")
	cmd.Flags().BoolVar(&f.list, "list", false, "Print every placement")
	cmd.MarkFlagsMutuallyExclusive("copy", "move")
}

func (f *organizeFlags) operation() string {
	switch {
	case f.copy:
		return "copy"
	case f.move:
		return "move"
	default:
		return ""
	}
}

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var flags organizeFlags
	cmd := &cobra.Command{
		Use:   "organize <destination>",
		Short: "Move or copy files into group folders using the current manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer sess.close()

			report, err := sess.organize(cmd.Context(), organizeRequest{Destination: args[0], Operation: flags.operation()})
			printReport(cmd.OutOrStdout(), report, flags.list)
			return err
		},
	}
	flags.bind(cmd)
	return cmd
}

func newSortCommand(ctx *commandContext) *cobra.Command {
	var run runFlags
	var organize organizeFlags
	cmd := &cobra.Command{
		Use:   "sort <folder> <destination>",
		Short: "Classify a folder, then organize it into the destination",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer sess.close()

			result, err := sess.classify(cmd.Context(), run.request(cmd, args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manifest written to %s (run %s)\n", result.ManifestPath, result.RunID)

			report, err := sess.organize(cmd.Context(), organizeRequest{Destination: args[1], Operation: organize.operation()})
			printReport(cmd.OutOrStdout(), report, organize.list)
			return err
		},
	}
	run.bind(cmd)
	organize.bind(cmd)
	return cmd
}

func printReport(out io.Writer, report reconcile.Report, list bool) {
	verb := "Moved"
	if report.Operation == reconcile.Copy {
		verb = "Copied"
	}
	fmt.Fprintf(out, "%s %d files into %d folders", verb, len(report.Placements), len(report.Groups))
	if len(report.Skips) > 0 {
		fmt.Fprintf(out, " (%d skipped)", len(report.Skips))
	}
	fmt.Fprintln(out)

	if !list || len(report.Placements)+len(report.Skips) == 0 {
		return
	}
	rows := make([][]string, 0, len(report.Placements)+len(report.Skips))
	for _, p := range report.Placements {
		var notes []string
		if p.Collided {
			notes = append(notes, "renamed")
		}
		if p.Replaced {
			notes = append(notes, "replaced")
		}
		if p.CrossDevice {
			notes = append(notes, "cross-device")
		}
		rows = append(rows, []string{p.Source, filepath.Join(p.GroupFolder, filepath.Base(p.Destination)), strings.Join(notes, ", ")})
	}
	for _, skip := range report.Skips {
		rows = append(rows, []string{skip.Source, "-", "skipped: " + skip.Reason})
	}
	fmt.Fprintln(out, renderTable([]string{"Source", "Placed As", "Notes"}, rows, nil))
}
