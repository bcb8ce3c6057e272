package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ibonocollect/collect"
	"ibonocollect/internal/utils"
)

func newDeleteCmd(newApp func() (*App, error)) *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "delete <local-id>",
		Short: "Delete a translation pair",
		Long: `Delete a translation pair by its local id (shown by "list --ids").

Online, the server row is removed as well; offline, the removal is
queued and replayed when connectivity returns. Deleting an entry that
never reached the server simply cancels its pending upload.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			rec, err := app.local.GetRecord(args[0])
			if err != nil {
				if errors.Is(err, collect.ErrRecordNotFound) {
					return utils.ErrNoSuchRecord(args[0], err)
				}
				return err
			}

			if !skipConfirm {
				question := fmt.Sprintf("Delete %q → %q?", rec.SourceText, rec.TargetText)
				if !utils.PromptYesNo(question) {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := app.service.Delete(context.Background(), args[0]); err != nil {
				if errors.Is(err, collect.ErrNotAuthenticated) {
					return utils.ErrSignInRequired(err)
				}
				return err
			}
			fmt.Println("Deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "delete without asking for confirmation")
	return cmd
}

func newContextCmd(newApp func() (*App, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context <local-id> <text>",
		Short: "Set the context note on a translation pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.service.UpdateContext(context.Background(), args[0], args[1]); err != nil {
				switch {
				case errors.Is(err, collect.ErrRecordNotFound):
					return utils.ErrNoSuchRecord(args[0], err)
				case errors.Is(err, collect.ErrNotAuthenticated):
					return utils.ErrSignInRequired(err)
				}
				return err
			}
			fmt.Println("Context updated.")
			return nil
		},
	}
	return cmd
}
