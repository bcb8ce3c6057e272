package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ibonocollect/internal/export"
	"ibonocollect/internal/utils"
)

func newExportCmd(newApp func() (*App, error)) *cobra.Command {
	var (
		format      string
		profilePath string
		outPath     string
		withPending bool
		describe    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the collected dataset",
		Long: `Export the collected dataset as CSV, TSV or JSON.

By default only synced records are exported, with the source text,
target text and context columns. A YAML profile file can choose
different columns:

  name: review
  format: csv
  header: true
  include_pending: true
  fields: [source_text, target_text, sync_status, created_at]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := export.DefaultProfile(format)
			if profilePath != "" {
				path, err := utils.ExpandPath(profilePath)
				if err != nil {
					return err
				}
				profile, err = export.LoadProfile(path)
				if err != nil {
					return err
				}
			}
			if withPending {
				profile.IncludePending = true
			}

			if describe {
				// Print the effective profile instead of exporting.
				return utils.OutputYAML(profile)
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			records, err := app.service.GetAll(context.Background())
			if err != nil {
				return err
			}

			out := os.Stdout
			if outPath != "" {
				path, err := utils.ExpandPath(outPath)
				if err != nil {
					return err
				}
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
				defer f.Close()
				out = f
			}

			return export.Write(out, records, profile, app.config.GetDateFormat())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "F", "csv", "export format: csv, tsv or json")
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "YAML export profile file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&withPending, "include-pending", false, "include records not yet synced")
	cmd.Flags().BoolVar(&describe, "describe", false, "print the effective export profile as YAML and exit")

	return cmd
}
