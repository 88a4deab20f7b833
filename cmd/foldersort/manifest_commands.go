package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"foldersort/internal/manifest"
	"foldersort/internal/reconcile"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect the organization manifest written by the worker",
	}
	manifestCmd.AddCommand(newManifestPathCommand(ctx))
	manifestCmd.AddCommand(newManifestShowCommand(ctx))
	manifestCmd.AddCommand(newManifestRewriteCommand(ctx))
	return manifestCmd
}

func newManifestPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the worker writes the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.manifestPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

type manifestEntryJSON struct {
	SourcePath  string `json:"source_path"`
	GroupLabel  *int   `json:"group_label,omitempty"`
	GroupName   string `json:"group_name,omitempty"`
	GroupFolder string `json:"group_folder,omitempty"`
	FolderError string `json:"folder_error,omitempty"`
}

func newManifestShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "List manifest entries and the folder each one maps to",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.manifestPath()
			if err != nil {
				return err
			}
			entries, schema, err := manifest.Read(path)
			if err != nil {
				return err
			}

			if asJSON {
				items := make([]manifestEntryJSON, 0, len(entries))
				for _, entry := range entries {
					item := manifestEntryJSON{SourcePath: entry.SourcePath}
					if entry.Group.IsLabel {
						label := entry.Group.Label
						item.GroupLabel = &label
					} else {
						item.GroupName = entry.Group.Name
					}
					if folder, err := reconcile.GroupFolderName(entry.Group); err != nil {
						item.FolderError = err.Error()
					} else {
						item.GroupFolder = folder
					}
					items = append(items, item)
				}
				return writeJSON(cmd, items)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d entries, %s schema)\n", path, len(entries), schema)
			if len(entries) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for idx, entry := range entries {
				folder, err := reconcile.GroupFolderName(entry.Group)
				if err != nil {
					folder = "(rejected)"
				}
				rows = append(rows, []string{strconv.Itoa(idx + 1), entry.SourcePath, entry.Group.String(), folder})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Source", "Group", "Folder"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newManifestRewriteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite the manifest with canonical keys",
		Long: "Rewrite the manifest using source_path with group_label or group_name.\n" +
			"Manifests written with the worker's legacy keys (path, label, cluster_name) are normalised in place.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.manifestPath()
			if err != nil {
				return err
			}
			entries, schema, err := manifest.Read(path)
			if err != nil {
				return err
			}
			if err := manifest.Write(path, entries, schema); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rewrote %d entries in %s\n", len(entries), path)
			return nil
		},
	}
}
