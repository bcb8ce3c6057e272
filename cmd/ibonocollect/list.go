package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ibonocollect/collect"
	"ibonocollect/internal/utils"
)

func newListCmd(newApp func() (*App, error)) *cobra.Command {
	var (
		pendingOnly bool
		showIDs     bool
		asJSON      bool
		sinceStr    string
		untilStr    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collected translation pairs",
		Long: `List collected translation pairs.

Online, the authoritative server copy is shown and the local cache
refreshed; offline (or when the server is unreachable) the local copy is
shown instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			since, err := utils.ParseDateFlag(sinceStr)
			if err != nil {
				return err
			}
			until, err := utils.ParseDateFlag(untilStr)
			if err != nil {
				return err
			}
			if err := utils.ValidateDateRange(since, until); err != nil {
				return err
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

			filtered := records[:0]
			for _, rec := range records {
				if pendingOnly && rec.SyncStatus == collect.StatusSynced {
					continue
				}
				if since != nil && rec.CreatedAt.Before(*since) {
					continue
				}
				// The until bound is inclusive of that whole day.
				if until != nil && rec.CreatedAt.After(until.AddDate(0, 0, 1)) {
					continue
				}
				filtered = append(filtered, rec)
			}
			records = filtered

			if asJSON {
				return utils.OutputJSON(records)
			}

			if len(records) == 0 {
				fmt.Println("No translations collected yet.")
				return nil
			}

			dateFormat := app.config.GetDateFormat()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			header := "ENGLISH\tIBỌNỌ\tCONTEXT\tSTATUS\tDATE"
			if showIDs {
				header = "LOCAL ID\t" + header
			}
			fmt.Fprintln(w, header)
			for _, rec := range records {
				status := string(rec.SyncStatus)
				if status == "" {
					status = string(collect.StatusSynced)
				}
				row := fmt.Sprintf("%s\t%s\t%s\t%s\t%s",
					rec.SourceText, rec.TargetText, rec.Context,
					status, rec.CreatedAt.Format(dateFormat))
				if showIDs {
					row = rec.LocalID + "\t" + row
				}
				fmt.Fprintln(w, row)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "show only records not yet synced")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "show local ids (needed for delete and context)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	cmd.Flags().StringVar(&sinceStr, "since", "", "only records created on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&untilStr, "until", "", "only records created on or before this date (YYYY-MM-DD)")

	return cmd
}
